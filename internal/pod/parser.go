package pod

import (
	"fmt"
	"io"
	"iter"
)

// Parser is a read-only cursor over encoded values. It never reads past
// the region it was attached to and never modifies it, so any number of
// parsers may walk the same buffer concurrently. A single Parser is not
// safe for concurrent use.
//
// A parser obtained from Enter walks the children of one container: plain
// values for Struct and Pod, header-less elements for Array and Choice,
// properties for Object and controls for Sequence.
type Parser struct {
	data []byte
	pos  int
	kind Type
	elem Header
}

// NewParser attaches a parser to all of data.
func NewParser(data []byte) *Parser {
	return &Parser{data: data[:len(data):len(data)]}
}

// Attach binds a parser to the first length bytes of data.
func Attach(data []byte, length int) (*Parser, error) {
	if length < 0 || length > len(data) {
		return nil, fmt.Errorf("%w: length %d exceeds %d available bytes", ErrTruncated, length, len(data))
	}
	return NewParser(data[:length]), nil
}

// Offset returns the cursor position relative to the parser's region.
func (p *Parser) Offset() int { return p.pos }

// Remaining returns the number of unread bytes.
func (p *Parser) Remaining() int { return len(p.data) - p.pos }

// Done reports whether the region has been fully consumed.
func (p *Parser) Done() bool { return p.pos >= len(p.data) }

// Kind returns the container type the parser walks, or TypeAny at the top
// level.
func (p *Parser) Kind() Type { return p.kind }

// Reset moves the cursor back to the start of the region.
func (p *Parser) Reset() { p.pos = 0 }

func (p *Parser) elements() bool {
	return p.kind == TypeArray || p.kind == TypeChoice
}

// header decodes the value header at off and returns it together with the
// number of bytes the value occupies including padding. Padding missing
// at the very end of the region is tolerated.
func (p *Parser) header(off int) (Header, int, error) {
	rem := len(p.data) - off
	if rem == 0 {
		return Header{}, 0, io.EOF
	}
	if rem < HeaderLen {
		return Header{}, 0, fmt.Errorf("%w: %d header bytes at offset %d", ErrTruncated, rem, off)
	}
	h := readHeader(p.data[off:])
	if uint64(h.Size) > uint64(rem-HeaderLen) {
		return Header{}, 0, fmt.Errorf("%w: %s declares %d bytes, %d left at offset %d",
			ErrTruncated, h.Type, h.Size, rem-HeaderLen, off)
	}
	adv := HeaderLen + Align(int(h.Size))
	if adv > rem {
		adv = rem
	}
	return h, adv, nil
}

func (p *Parser) view(off int, h Header) Value {
	start := off + HeaderLen
	end := start + int(h.Size)
	return Value{Type: h.Type, Body: p.data[start:end:end]}
}

// PeekHeader returns the header of the next value without consuming it.
// Inside an Array or Choice it returns the shared element header.
func (p *Parser) PeekHeader() (Header, error) {
	switch p.kind {
	case TypeObject:
		return Header{}, ErrPropertyExpected
	case TypeSequence:
		return Header{}, ErrControlExpected
	case TypeArray, TypeChoice:
		if p.elem.Size == 0 || p.Done() {
			return Header{}, io.EOF
		}
		if p.Remaining() < int(p.elem.Size) {
			return Header{}, fmt.Errorf("%w: partial element at offset %d", ErrTruncated, p.pos)
		}
		return p.elem, nil
	}
	h, _, err := p.header(p.pos)
	return h, err
}

// Next consumes and returns the next value of any type. It returns io.EOF
// once the region is exhausted. Values with an unregistered tag are
// reported with ErrUnknownType and left unconsumed; use Skip to step over
// them.
func (p *Parser) Next() (Value, error) {
	switch p.kind {
	case TypeObject:
		return Value{}, ErrPropertyExpected
	case TypeSequence:
		return Value{}, ErrControlExpected
	case TypeArray, TypeChoice:
		return p.nextElement()
	}
	h, adv, err := p.header(p.pos)
	if err != nil {
		return Value{}, err
	}
	if !h.Type.Valid() {
		return Value{}, fmt.Errorf("%w: %d at offset %d", ErrUnknownType, uint32(h.Type), p.pos)
	}
	v := p.view(p.pos, h)
	p.pos += adv
	return v, nil
}

func (p *Parser) nextElement() (Value, error) {
	h, err := p.PeekHeader()
	if err != nil {
		return Value{}, err
	}
	if !h.Type.Valid() {
		return Value{}, fmt.Errorf("%w: element type %d", ErrUnknownType, uint32(h.Type))
	}
	end := p.pos + int(h.Size)
	v := Value{Type: h.Type, Body: p.data[p.pos:end:end]}
	p.pos = end
	return v, nil
}

// Skip consumes the next value whatever its tag.
func (p *Parser) Skip() error {
	if p.elements() {
		_, err := p.PeekHeader()
		if err != nil {
			return err
		}
		p.pos += int(p.elem.Size)
		return nil
	}
	if p.kind == TypeObject || p.kind == TypeSequence {
		_, _, _, adv, err := p.prefixed()
		if err != nil {
			return err
		}
		p.pos += adv
		return nil
	}
	_, adv, err := p.header(p.pos)
	if err != nil {
		return err
	}
	p.pos += adv
	return nil
}

// ReadScalar consumes the next value and checks its type. TypeAny accepts
// any type. On mismatch the cursor is left unchanged.
func (p *Parser) ReadScalar(expected Type) (Value, error) {
	pos := p.pos
	v, err := p.Next()
	if err != nil {
		return Value{}, err
	}
	if expected != TypeAny && v.Type != expected {
		p.pos = pos
		return Value{}, fmt.Errorf("%w: got %s, want %s", ErrTypeMismatch, v.Type, expected)
	}
	return v, nil
}

// Enter consumes the next value, which must be a container, and returns a
// parser scoped to its payload. The receiver is left after the whole
// container.
func (p *Parser) Enter() (*Parser, error) {
	pos := p.pos
	v, err := p.Next()
	if err != nil {
		return nil, err
	}
	child, err := v.Enter()
	if err != nil {
		p.pos = pos
		return nil, err
	}
	return child, nil
}

// Property is one keyed entry of an Object.
type Property struct {
	Key   uint32
	Flags uint32
	Value Value
}

// Control is one timed entry of a Sequence.
type Control struct {
	Offset uint32
	Type   ControlType
	Value  Value
}

// prefixed reads a key/flags (or offset/type) pair followed by a value.
func (p *Parser) prefixed() (uint32, uint32, Value, int, error) {
	rem := p.Remaining()
	if rem == 0 {
		return 0, 0, Value{}, 0, io.EOF
	}
	if rem < 8 {
		return 0, 0, Value{}, 0, fmt.Errorf("%w: %d prefix bytes at offset %d", ErrTruncated, rem, p.pos)
	}
	a := order.Uint32(p.data[p.pos:])
	b := order.Uint32(p.data[p.pos+4:])
	h, adv, err := p.header(p.pos + 8)
	if err == io.EOF {
		err = fmt.Errorf("%w: missing value at offset %d", ErrTruncated, p.pos+8)
	}
	if err != nil {
		return 0, 0, Value{}, 0, err
	}
	return a, b, p.view(p.pos+8, h), 8 + adv, nil
}

// NextProperty consumes the next property of an Object parser.
func (p *Parser) NextProperty() (Property, error) {
	if p.kind != TypeObject {
		return Property{}, fmt.Errorf("%w: parser walks %s, not Object", ErrTypeMismatch, p.kind)
	}
	key, flags, v, adv, err := p.prefixed()
	if err != nil {
		return Property{}, err
	}
	p.pos += adv
	return Property{Key: key, Flags: flags, Value: v}, nil
}

// NextControl consumes the next control of a Sequence parser.
func (p *Parser) NextControl() (Control, error) {
	if p.kind != TypeSequence {
		return Control{}, fmt.Errorf("%w: parser walks %s, not Sequence", ErrTypeMismatch, p.kind)
	}
	off, t, v, adv, err := p.prefixed()
	if err != nil {
		return Control{}, err
	}
	p.pos += adv
	return Control{Offset: off, Type: ControlType(t), Value: v}, nil
}

// All iterates the remaining values. An error other than io.EOF is
// yielded once and ends the iteration.
func (p *Parser) All() iter.Seq2[Value, error] {
	return func(yield func(Value, error) bool) {
		for {
			v, err := p.Next()
			if err == io.EOF {
				return
			}
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// Properties iterates the remaining properties of an Object parser.
func (p *Parser) Properties() iter.Seq2[Property, error] {
	return func(yield func(Property, error) bool) {
		for {
			prop, err := p.NextProperty()
			if err == io.EOF {
				return
			}
			if !yield(prop, err) || err != nil {
				return
			}
		}
	}
}

// Controls iterates the remaining controls of a Sequence parser.
func (p *Parser) Controls() iter.Seq2[Control, error] {
	return func(yield func(Control, error) bool) {
		for {
			c, err := p.NextControl()
			if err == io.EOF {
				return
			}
			if !yield(c, err) || err != nil {
				return
			}
		}
	}
}

func (p *Parser) ReadBool() (bool, error) {
	v, err := p.ReadScalar(TypeBool)
	if err != nil {
		return false, err
	}
	return v.Bool()
}

func (p *Parser) ReadID() (uint32, error) {
	v, err := p.ReadScalar(TypeID)
	if err != nil {
		return 0, err
	}
	return v.ID()
}

func (p *Parser) ReadInt() (int32, error) {
	v, err := p.ReadScalar(TypeInt)
	if err != nil {
		return 0, err
	}
	return v.Int()
}

func (p *Parser) ReadLong() (int64, error) {
	v, err := p.ReadScalar(TypeLong)
	if err != nil {
		return 0, err
	}
	return v.Long()
}

func (p *Parser) ReadFloat() (float32, error) {
	v, err := p.ReadScalar(TypeFloat)
	if err != nil {
		return 0, err
	}
	return v.Float()
}

func (p *Parser) ReadDouble() (float64, error) {
	v, err := p.ReadScalar(TypeDouble)
	if err != nil {
		return 0, err
	}
	return v.Double()
}

func (p *Parser) ReadString() (string, error) {
	v, err := p.ReadScalar(TypeString)
	if err != nil {
		return "", err
	}
	return v.String()
}
