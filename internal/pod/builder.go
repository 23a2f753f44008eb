package pod

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Builder writes a stream of values into a Buffer. Containers are opened
// with one of the Push methods and closed with Pop; everything written in
// between becomes the container's payload.
//
// A Builder is single-writer state. Use one Builder per goroutine.
//
// The first failing call poisons the Builder: every later call, Finish
// included, returns the same error until Begin or Reset is called.
type Builder struct {
	buf    *Buffer
	frames frameStack
	err    error
}

// NewBuilder returns a Builder writing into dst. It never writes past
// len(dst) and fails with ErrOutOfSpace when the encoding does not fit.
func NewBuilder(dst []byte) (*Builder, error) {
	b := &Builder{}
	if err := b.Begin(dst); err != nil {
		return nil, err
	}
	return b, nil
}

// NewGrowingBuilder returns a Builder that owns a buffer starting at hint
// bytes and growing up to max bytes. max <= 0 disables the limit.
func NewGrowingBuilder(hint, max int) *Builder {
	return &Builder{buf: NewGrowingBuffer(hint, max)}
}

// Begin binds b to dst and clears all state.
func (b *Builder) Begin(dst []byte) error {
	if len(dst) == 0 {
		b.buf = nil
		b.frames.reset()
		b.err = nil
		return b.fail("begin", ErrCapacity)
	}
	b.buf = NewFixedBuffer(dst)
	b.frames.reset()
	b.err = nil
	return nil
}

// Reset rewinds b onto its current storage.
func (b *Builder) Reset() {
	if b.buf != nil {
		b.buf.Reset()
	}
	b.frames.reset()
	b.err = nil
}

// Bytes returns the bytes written so far. The slice aliases the builder's
// storage and is invalidated by further writes to a growing builder.
func (b *Builder) Bytes() []byte {
	if b.buf == nil {
		return nil
	}
	return b.buf.Bytes()
}

// Len returns the number of bytes written so far.
func (b *Builder) Len() int {
	if b.buf == nil {
		return 0
	}
	return b.buf.Len()
}

// Depth returns the number of open frames.
func (b *Builder) Depth() int { return len(b.frames) }

// Err returns the error that poisoned b, if any.
func (b *Builder) Err() error { return b.err }

// Finish returns the total encoded length once every frame is closed.
func (b *Builder) Finish() (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	if b.buf == nil {
		return 0, ErrCapacity
	}
	if n := len(b.frames); n != 0 {
		return 0, fmt.Errorf("%w: %d open", ErrUnbalancedFrames, n)
	}
	return b.buf.Len(), nil
}

func (b *Builder) fail(op string, err error) error {
	if b.err == nil {
		b.err = err
		log.Debug().Err(err).Str("op", op).Int("offset", b.Len()).Int("depth", len(b.frames)).Msg("pod builder failed")
	}
	return b.err
}

func (b *Builder) ready() error {
	if b.err != nil {
		return b.err
	}
	if b.buf == nil {
		return ErrCapacity
	}
	return nil
}

// enterChild checks that a value of type t may be written into the
// current top frame and consumes a pending property key or control.
func (b *Builder) enterChild(t Type) error {
	f := b.frames.top()
	if f == nil {
		return nil
	}
	switch f.kind {
	case TypeObject:
		if !f.pending {
			return ErrMissingPropertyKey
		}
		f.pending = false
	case TypeSequence:
		if !f.pending {
			return ErrControlExpected
		}
		f.pending = false
	case TypePod:
		if f.elems > 0 {
			return fmt.Errorf("%w: pod reference holds a single value", ErrInvalidLength)
		}
		f.elems++
	case TypeArray, TypeChoice:
		if t.IsContainer() {
			return fmt.Errorf("%w: %s cannot be an element", ErrElementTypeMismatch, t)
		}
	}
	return nil
}

// WriteScalar appends a value of type t with the given raw payload.
func (b *Builder) WriteScalar(t Type, payload []byte) error {
	if err := b.ready(); err != nil {
		return err
	}
	if !t.Valid() {
		return b.fail("write", fmt.Errorf("%w: %d", ErrUnknownType, uint32(t)))
	}
	if t.IsContainer() {
		return b.fail("write", fmt.Errorf("%w: %s is a container", ErrTypeMismatch, t))
	}
	if n, ok := t.FixedSize(); ok && n != len(payload) {
		return b.fail("write", fmt.Errorf("%w: %s payload %d bytes, want %d", ErrInvalidLength, t, len(payload), n))
	}
	if t == TypeString && (len(payload) == 0 || payload[len(payload)-1] != 0) {
		return b.fail("write", fmt.Errorf("%w: string payload not NUL terminated", ErrInvalidLength))
	}
	return b.emit(t, payload)
}

// WriteValue copies an already encoded value, containers included.
func (b *Builder) WriteValue(v Value) error {
	if err := b.ready(); err != nil {
		return err
	}
	if !v.Type.Valid() {
		return b.fail("write", fmt.Errorf("%w: %d", ErrUnknownType, uint32(v.Type)))
	}
	return b.emit(v.Type, v.Body)
}

func (b *Builder) emit(t Type, payload []byte) error {
	if err := b.enterChild(t); err != nil {
		return b.fail("write", err)
	}
	if f := b.frames.top(); f != nil && (f.kind == TypeArray || f.kind == TypeChoice) {
		return b.emitElement(f, t, payload)
	}
	off, err := b.buf.Reserve(HeaderLen)
	if err != nil {
		return b.fail("write", err)
	}
	putHeader(b.buf.buf[off:off+HeaderLen], uint32(len(payload)), t)
	if err := b.buf.Write(payload); err != nil {
		return b.fail("write", err)
	}
	if err := b.buf.Pad(); err != nil {
		return b.fail("write", err)
	}
	return nil
}

// emitElement writes one header-less element. The first element's shape
// lands in the container's child header.
func (b *Builder) emitElement(f *frame, t Type, payload []byte) error {
	if len(payload) == 0 {
		return b.fail("write", fmt.Errorf("%w: zero-size %s element", ErrInvalidLength, t))
	}
	if f.elems == 0 {
		f.elem = Header{Size: uint32(len(payload)), Type: t}
		b.buf.PutUint32At(f.elemOff, f.elem.Size)
		b.buf.PutUint32At(f.elemOff+4, uint32(t))
	} else if t != f.elem.Type || uint32(len(payload)) != f.elem.Size {
		return b.fail("write", fmt.Errorf("%w: got %s/%d, want %s/%d",
			ErrElementTypeMismatch, t, len(payload), f.elem.Type, f.elem.Size))
	}
	if err := b.buf.Write(payload); err != nil {
		return b.fail("write", err)
	}
	f.elems++
	return nil
}

func (b *Builder) push(kind Type, body ...uint32) (*frame, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}
	if err := b.enterChild(kind); err != nil {
		return nil, b.fail("push", err)
	}
	off, err := b.buf.Reserve(HeaderLen + 4*len(body))
	if err != nil {
		return nil, b.fail("push", err)
	}
	putHeader(b.buf.buf[off:off+HeaderLen], 0, kind)
	for i, v := range body {
		b.buf.PutUint32At(off+HeaderLen+4*i, v)
	}
	b.frames.push(frame{kind: kind, header: off, body: off + HeaderLen})
	return b.frames.top(), nil
}

// PushStruct opens a Struct: ordered, unkeyed children.
func (b *Builder) PushStruct() error {
	_, err := b.push(TypeStruct)
	return err
}

// PushObject opens an Object of the given object type and id. Children
// are written as PushProperty followed by one value.
func (b *Builder) PushObject(objType, id uint32) error {
	_, err := b.push(TypeObject, objType, id)
	return err
}

// PushArray opens an Array. The first element fixes the element type and
// size for the rest.
func (b *Builder) PushArray() error {
	f, err := b.push(TypeArray, 0, 0)
	if err != nil {
		return err
	}
	f.elemOff = f.body
	return nil
}

// PushChoice opens a Choice. The first element is the default, the rest
// are alternatives interpreted according to kind.
func (b *Builder) PushChoice(kind ChoiceType, flags uint32) error {
	f, err := b.push(TypeChoice, uint32(kind), flags, 0, 0)
	if err != nil {
		return err
	}
	f.elemOff = f.body + 8
	return nil
}

// PushSequence opens a Sequence of timed controls. unit is carried
// verbatim and describes the control offsets.
func (b *Builder) PushSequence(unit uint32) error {
	_, err := b.push(TypeSequence, unit, 0)
	return err
}

// PushPod opens a Pod reference wrapping exactly one value.
func (b *Builder) PushPod() error {
	_, err := b.push(TypePod)
	return err
}

// PushProperty writes the key and flags of the next property of the
// Object on top of the stack. The next value written is its value.
func (b *Builder) PushProperty(key, flags uint32) error {
	if err := b.ready(); err != nil {
		return err
	}
	f := b.frames.top()
	if f == nil || f.kind != TypeObject {
		return b.fail("property", ErrNotInObjectContext)
	}
	if f.pending {
		return b.fail("property", ErrDanglingProperty)
	}
	if err := b.buf.WriteUint32(key); err != nil {
		return b.fail("property", err)
	}
	if err := b.buf.WriteUint32(flags); err != nil {
		return b.fail("property", err)
	}
	f.pending = true
	return nil
}

// PushControl writes the offset and type of the next control of the
// Sequence on top of the stack. The next value written is its value.
func (b *Builder) PushControl(offset uint32, t ControlType) error {
	if err := b.ready(); err != nil {
		return err
	}
	f := b.frames.top()
	if f == nil || f.kind != TypeSequence {
		return b.fail("control", ErrNotInSequence)
	}
	if f.pending {
		return b.fail("control", ErrDanglingProperty)
	}
	if err := b.buf.WriteUint32(offset); err != nil {
		return b.fail("control", err)
	}
	if err := b.buf.WriteUint32(uint32(t)); err != nil {
		return b.fail("control", err)
	}
	f.pending = true
	return nil
}

// Pop closes the innermost open container, patches its size and pads the
// stream to the next aligned offset. The returned Span covers header and
// payload.
func (b *Builder) Pop() (Span, error) {
	if err := b.ready(); err != nil {
		return Span{}, err
	}
	f, err := b.frames.pop()
	if err != nil {
		return Span{}, b.fail("pop", err)
	}
	if f.pending {
		return Span{}, b.fail("pop", ErrDanglingProperty)
	}
	size := b.buf.Len() - f.body
	b.buf.PutUint32At(f.header, uint32(size))
	if err := b.buf.Pad(); err != nil {
		return Span{}, b.fail("pop", err)
	}
	return Span{Offset: f.header, Len: HeaderLen + size, Type: f.kind}, nil
}

// Value returns a view of a closed span.
func (b *Builder) Value(s Span) (Value, error) {
	if b.buf == nil || s.Offset < 0 || s.Len < HeaderLen || s.Offset+s.Len > b.buf.Len() {
		return Value{}, ErrIndexOutOfRange
	}
	return NewParser(b.buf.Slice(s.Offset, s.Offset+s.Len)).Next()
}

func (b *Builder) WriteNone() error { return b.Write(None()) }

func (b *Builder) WriteBool(v bool) error { return b.Write(Bool(v)) }

func (b *Builder) WriteID(v uint32) error { return b.Write(ID(v)) }

func (b *Builder) WriteInt(v int32) error { return b.Write(Int(v)) }

func (b *Builder) WriteLong(v int64) error { return b.Write(Long(v)) }

func (b *Builder) WriteFloat(v float32) error { return b.Write(Float(v)) }

func (b *Builder) WriteDouble(v float64) error { return b.Write(Double(v)) }

// WriteString writes s followed by a NUL terminator. s must not contain NUL.
func (b *Builder) WriteString(s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		if err := b.ready(); err != nil {
			return err
		}
		return b.fail("write", fmt.Errorf("%w: string contains NUL", ErrInvalidLength))
	}
	return b.Write(String(s))
}

func (b *Builder) WriteBytes(v []byte) error { return b.Write(Bytes(v)) }

func (b *Builder) WriteRectangle(v Rectangle) error { return b.Write(Rect(v.Width, v.Height)) }

func (b *Builder) WriteFraction(v Fraction) error { return b.Write(Frac(v.Num, v.Denom)) }

func (b *Builder) WriteBitmap(v []byte) error { return b.Write(Bitmap(v)) }

func (b *Builder) WritePointer(v Pointer) error { return b.Write(Ptr(v.Type, v.Addr)) }

func (b *Builder) WriteFd(v int64) error { return b.Write(Fd(v)) }

// Write writes one scalar built by Int, Float, String and friends.
func (b *Builder) Write(s Scalar) error {
	return b.WriteScalar(s.Type, s.Payload)
}
