package pod

import "fmt"

// Type is the wire tag of one encoded value.
type Type uint32

// Type IDs from the pod wire contract.
const (
	TypeNone      Type = 1
	TypeBool      Type = 2
	TypeID        Type = 3
	TypeInt       Type = 4
	TypeLong      Type = 5
	TypeFloat     Type = 6
	TypeDouble    Type = 7
	TypeString    Type = 8
	TypeBytes     Type = 9
	TypeRectangle Type = 10
	TypeFraction  Type = 11
	TypeBitmap    Type = 12
	TypeArray     Type = 13
	TypeStruct    Type = 14
	TypeObject    Type = 15
	TypeSequence  Type = 16
	TypePointer   Type = 17
	TypeFd        Type = 18
	TypeChoice    Type = 19
	TypePod       Type = 20
)

// TypeAny is accepted by ReadScalar to mean "whatever comes next".
const TypeAny Type = 0

const (
	typeFirst = TypeNone
	typeLast  = TypePod
)

var typeNames = [...]string{
	TypeAny:       "Any",
	TypeNone:      "None",
	TypeBool:      "Bool",
	TypeID:        "Id",
	TypeInt:       "Int",
	TypeLong:      "Long",
	TypeFloat:     "Float",
	TypeDouble:    "Double",
	TypeString:    "String",
	TypeBytes:     "Bytes",
	TypeRectangle: "Rectangle",
	TypeFraction:  "Fraction",
	TypeBitmap:    "Bitmap",
	TypeArray:     "Array",
	TypeStruct:    "Struct",
	TypeObject:    "Object",
	TypeSequence:  "Sequence",
	TypePointer:   "Pointer",
	TypeFd:        "Fd",
	TypeChoice:    "Choice",
	TypePod:       "Pod",
}

// -1 marks a variable length payload.
var fixedSizes = [...]int{
	TypeAny:       -1,
	TypeNone:      0,
	TypeBool:      4,
	TypeID:        4,
	TypeInt:       4,
	TypeLong:      8,
	TypeFloat:     4,
	TypeDouble:    8,
	TypeString:    -1,
	TypeBytes:     -1,
	TypeRectangle: 8,
	TypeFraction:  8,
	TypeBitmap:    -1,
	TypeArray:     -1,
	TypeStruct:    -1,
	TypeObject:    -1,
	TypeSequence:  -1,
	TypePointer:   16,
	TypeFd:        8,
	TypeChoice:    -1,
	TypePod:       -1,
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint32(t))
}

// Valid reports whether t is one of the registered wire tags.
func (t Type) Valid() bool {
	return t >= typeFirst && t <= typeLast
}

// IsContainer reports whether values of type t carry further values in
// their payload.
func (t Type) IsContainer() bool {
	switch t {
	case TypeArray, TypeStruct, TypeObject, TypeSequence, TypeChoice, TypePod:
		return true
	default:
		return false
	}
}

// FixedSize returns the payload size every value of type t must have.
func (t Type) FixedSize() (int, bool) {
	if !t.Valid() {
		return 0, false
	}
	n := fixedSizes[t]
	return n, n >= 0
}

// ChoiceType selects how the alternatives of a Choice are interpreted.
type ChoiceType uint32

const (
	ChoiceNone  ChoiceType = 0 // only the default
	ChoiceRange ChoiceType = 1 // default, min, max
	ChoiceStep  ChoiceType = 2 // default, min, max, step
	ChoiceEnum  ChoiceType = 3 // default, alternatives...
	ChoiceFlags ChoiceType = 4 // default, possible flags...
)

func (c ChoiceType) String() string {
	switch c {
	case ChoiceNone:
		return "None"
	case ChoiceRange:
		return "Range"
	case ChoiceStep:
		return "Step"
	case ChoiceEnum:
		return "Enum"
	case ChoiceFlags:
		return "Flags"
	default:
		return fmt.Sprintf("ChoiceType(%d)", uint32(c))
	}
}

// ControlType tags one control inside a Sequence.
type ControlType uint32

const (
	ControlInvalid    ControlType = 0
	ControlProperties ControlType = 1
	ControlMidi       ControlType = 2
	ControlOSC        ControlType = 3
)

func (c ControlType) String() string {
	switch c {
	case ControlInvalid:
		return "Invalid"
	case ControlProperties:
		return "Properties"
	case ControlMidi:
		return "Midi"
	case ControlOSC:
		return "OSC"
	default:
		return fmt.Sprintf("ControlType(%d)", uint32(c))
	}
}

// Header is the fixed 8 byte prefix of every value.
type Header struct {
	Size uint32
	Type Type
}

// Rectangle is the payload of a TypeRectangle value.
type Rectangle struct {
	Width  uint32
	Height uint32
}

// Fraction is the payload of a TypeFraction value.
type Fraction struct {
	Num   uint32
	Denom uint32
}

// Pointer is the payload of a TypePointer value. Addr is opaque to this
// package and only meaningful inside the process that wrote it.
type Pointer struct {
	Type uint32
	Addr uint64
}
