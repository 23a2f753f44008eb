package pod

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
)

// Struct is a view of a Struct payload.
type Struct struct {
	body []byte
}

// Struct returns v as a Struct view.
func (v Value) Struct() (Struct, error) {
	if v.Type != TypeStruct {
		return Struct{}, fmt.Errorf("%w: got %s, want %s", ErrTypeMismatch, v.Type, TypeStruct)
	}
	return Struct{body: v.Body}, nil
}

// Iter returns a fresh parser positioned on the first child.
func (s Struct) Iter() *Parser {
	return &Parser{data: s.body, kind: TypeStruct}
}

// All iterates the children from the start every time it is called.
func (s Struct) All() iter.Seq2[Value, error] {
	return s.Iter().All()
}

// Object is a view of an Object payload.
type Object struct {
	Type  uint32
	ID    uint32
	props []byte
}

// Object returns v as an Object view.
func (v Value) Object() (Object, error) {
	if v.Type != TypeObject {
		return Object{}, fmt.Errorf("%w: got %s, want %s", ErrTypeMismatch, v.Type, TypeObject)
	}
	if len(v.Body) < 8 {
		return Object{}, fmt.Errorf("%w: object body %d bytes", ErrTruncated, len(v.Body))
	}
	return Object{
		Type:  order.Uint32(v.Body[0:4]),
		ID:    order.Uint32(v.Body[4:8]),
		props: v.Body[8:],
	}, nil
}

// Iter returns a fresh parser positioned on the first property.
func (o Object) Iter() *Parser {
	return &Parser{data: o.props, kind: TypeObject}
}

// All iterates the properties in encoding order.
func (o Object) All() iter.Seq2[Property, error] {
	return o.Iter().Properties()
}

// Find returns the first property with the given key.
func (o Object) Find(key uint32) (Property, bool) {
	for prop, err := range o.All() {
		if err != nil {
			return Property{}, false
		}
		if prop.Key == key {
			return prop, true
		}
	}
	return Property{}, false
}

// Array is a view of an Array payload: a shared element header followed by
// header-less elements of Elem.Size bytes each.
type Array struct {
	Elem Header
	data []byte
}

// Array returns v as an Array view.
func (v Value) Array() (Array, error) {
	if v.Type != TypeArray {
		return Array{}, fmt.Errorf("%w: got %s, want %s", ErrTypeMismatch, v.Type, TypeArray)
	}
	if len(v.Body) < HeaderLen {
		return Array{}, fmt.Errorf("%w: array body %d bytes", ErrTruncated, len(v.Body))
	}
	return newArray(readHeader(v.Body), v.Body[HeaderLen:])
}

func newArray(elem Header, data []byte) (Array, error) {
	if elem.Size == 0 && len(data) > 0 {
		return Array{}, fmt.Errorf("%w: %d bytes of zero-size elements", ErrInvalidLength, len(data))
	}
	if elem.Size > 0 && len(data)%int(elem.Size) != 0 {
		return Array{}, fmt.Errorf("%w: %d bytes is not a multiple of element size %d",
			ErrTruncated, len(data), elem.Size)
	}
	return Array{Elem: elem, data: data}, nil
}

// Len returns the number of elements.
func (a Array) Len() int {
	if a.Elem.Size == 0 {
		return 0
	}
	return len(a.data) / int(a.Elem.Size)
}

// At returns element i using the fixed stride.
func (a Array) At(i int) (Value, error) {
	if i < 0 || i >= a.Len() {
		return Value{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, a.Len())
	}
	if !a.Elem.Type.Valid() {
		return Value{}, fmt.Errorf("%w: element type %d", ErrUnknownType, uint32(a.Elem.Type))
	}
	start := i * int(a.Elem.Size)
	end := start + int(a.Elem.Size)
	return Value{Type: a.Elem.Type, Body: a.data[start:end:end]}, nil
}

// Iter returns a fresh parser over the elements.
func (a Array) Iter() *Parser {
	return &Parser{data: a.data, kind: TypeArray, elem: a.Elem}
}

// All iterates the elements by index.
func (a Array) All() iter.Seq2[Value, error] {
	return func(yield func(Value, error) bool) {
		for i := 0; i < a.Len(); i++ {
			v, err := a.At(i)
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// Choice is a view of a Choice payload. Element 0 is the default.
type Choice struct {
	Kind  ChoiceType
	Flags uint32
	Array
}

// Choice returns v as a Choice view.
func (v Value) Choice() (Choice, error) {
	if v.Type != TypeChoice {
		return Choice{}, fmt.Errorf("%w: got %s, want %s", ErrTypeMismatch, v.Type, TypeChoice)
	}
	if len(v.Body) < 8+HeaderLen {
		return Choice{}, fmt.Errorf("%w: choice body %d bytes", ErrTruncated, len(v.Body))
	}
	arr, err := newArray(readHeader(v.Body[8:]), v.Body[8+HeaderLen:])
	if err != nil {
		return Choice{}, err
	}
	return Choice{
		Kind:  ChoiceType(order.Uint32(v.Body[0:4])),
		Flags: order.Uint32(v.Body[4:8]),
		Array: arr,
	}, nil
}

// Iter returns a fresh parser over the default and alternatives.
func (c Choice) Iter() *Parser {
	return &Parser{data: c.data, kind: TypeChoice, elem: c.Elem}
}

// Default returns the value used when nothing else was negotiated.
func (c Choice) Default() (Value, error) {
	return c.At(0)
}

// Alternatives returns every value after the default.
func (c Choice) Alternatives() ([]Value, error) {
	out := make([]Value, 0, c.Len())
	for i := 1; i < c.Len(); i++ {
		v, err := c.At(i)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Resolve picks the effective value. A nil candidate yields the default.
// Otherwise the candidate is returned if the choice allows it and
// ErrChoiceRejected if it does not.
func (c Choice) Resolve(candidate *Value) (Value, error) {
	def, err := c.Default()
	if err != nil {
		return Value{}, err
	}
	if candidate == nil {
		return def, nil
	}
	if candidate.Type != c.Elem.Type {
		return Value{}, fmt.Errorf("%w: candidate %s, choice of %s", ErrTypeMismatch, candidate.Type, c.Elem.Type)
	}
	ok, err := c.allows(*candidate)
	if err != nil {
		return Value{}, err
	}
	if !ok {
		return Value{}, fmt.Errorf("%w: %s choice", ErrChoiceRejected, c.Kind)
	}
	return *candidate, nil
}

func (c Choice) allows(v Value) (bool, error) {
	switch c.Kind {
	case ChoiceNone:
		def, err := c.Default()
		return err == nil && def.Equal(v), err
	case ChoiceEnum:
		for i := 0; i < c.Len(); i++ {
			alt, err := c.At(i)
			if err != nil {
				return false, err
			}
			if alt.Equal(v) {
				return true, nil
			}
		}
		return false, nil
	case ChoiceRange, ChoiceStep:
		return c.inRange(v)
	case ChoiceFlags:
		bits, err := v.bits()
		if err != nil {
			return false, err
		}
		var mask uint64
		for i := 1; i < c.Len(); i++ {
			alt, err := c.At(i)
			if err != nil {
				return false, err
			}
			b, err := alt.bits()
			if err != nil {
				return false, err
			}
			mask |= b
		}
		return bits&^mask == 0, nil
	default:
		return false, fmt.Errorf("%w: choice type %d", ErrUnknownType, uint32(c.Kind))
	}
}

func (c Choice) inRange(v Value) (bool, error) {
	need := 3
	if c.Kind == ChoiceStep {
		need = 4
	}
	if c.Len() < need {
		return false, fmt.Errorf("%w: %s choice has %d values", ErrInvalidLength, c.Kind, c.Len())
	}
	lo, _ := c.At(1)
	hi, _ := c.At(2)
	if v.Type == TypeRectangle {
		return rectInRange(v, lo, hi)
	}
	var stepV Value
	if c.Kind == ChoiceStep {
		stepV, _ = c.At(3)
	}
	if v.integral() {
		return intInRange(v, lo, hi, stepV, c.Kind == ChoiceStep)
	}
	x, err := v.numeric()
	if err != nil {
		return false, err
	}
	low, err := lo.numeric()
	if err != nil {
		return false, err
	}
	high, err := hi.numeric()
	if err != nil {
		return false, err
	}
	if x < low || x > high {
		return false, nil
	}
	if c.Kind != ChoiceStep {
		return true, nil
	}
	step, err := stepV.numeric()
	if err != nil {
		return false, err
	}
	if step == 0 {
		return true, nil
	}
	q := (x - low) / step
	return math.Abs(q-math.Round(q)) < 1e-9, nil
}

// intInRange compares Id, Int and Long choices without widening to
// float64. Id values are unsigned and fit int64 unchanged.
func intInRange(v, lo, hi, stepV Value, stepped bool) (bool, error) {
	x, err := v.integer()
	if err != nil {
		return false, err
	}
	low, err := lo.integer()
	if err != nil {
		return false, err
	}
	high, err := hi.integer()
	if err != nil {
		return false, err
	}
	if x < low || x > high {
		return false, nil
	}
	if !stepped {
		return true, nil
	}
	step, err := stepV.integer()
	if err != nil {
		return false, err
	}
	if step == 0 {
		return true, nil
	}
	if step < 0 {
		step = -step
	}
	return uint64(x-low)%uint64(step) == 0, nil
}

func rectInRange(v, lo, hi Value) (bool, error) {
	r, err := v.Rectangle()
	if err != nil {
		return false, err
	}
	low, err := lo.Rectangle()
	if err != nil {
		return false, err
	}
	high, err := hi.Rectangle()
	if err != nil {
		return false, err
	}
	return r.Width >= low.Width && r.Width <= high.Width &&
		r.Height >= low.Height && r.Height <= high.Height, nil
}

// Sequence is a view of a Sequence payload.
type Sequence struct {
	Unit     uint32
	controls []byte
}

// Sequence returns v as a Sequence view.
func (v Value) Sequence() (Sequence, error) {
	if v.Type != TypeSequence {
		return Sequence{}, fmt.Errorf("%w: got %s, want %s", ErrTypeMismatch, v.Type, TypeSequence)
	}
	if len(v.Body) < 8 {
		return Sequence{}, fmt.Errorf("%w: sequence body %d bytes", ErrTruncated, len(v.Body))
	}
	return Sequence{Unit: order.Uint32(v.Body[0:4]), controls: v.Body[8:]}, nil
}

// Iter returns a fresh parser positioned on the first control.
func (s Sequence) Iter() *Parser {
	return &Parser{data: s.controls, kind: TypeSequence}
}

// All iterates the controls in encoding order.
func (s Sequence) All() iter.Seq2[Control, error] {
	return s.Iter().Controls()
}

// Collect drains a value iterator into a slice.
func Collect(seq iter.Seq2[Value, error]) ([]Value, error) {
	var out []Value
	for v, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Equal reports whether two encoded streams hold the same values.
// Padding bytes are not compared.
func Equal(a, b []byte) (bool, error) {
	pa, pb := NewParser(a), NewParser(b)
	for {
		va, errA := pa.Next()
		vb, errB := pb.Next()
		eofA, eofB := errors.Is(errA, io.EOF), errors.Is(errB, io.EOF)
		if eofA && eofB {
			return true, nil
		}
		if errA != nil && !eofA {
			return false, errA
		}
		if errB != nil && !eofB {
			return false, errB
		}
		if eofA || eofB {
			return false, nil
		}
		if !va.Equal(vb) {
			return false, nil
		}
	}
}
