package pod

// Scalar is a ready-to-write leaf value.
type Scalar struct {
	Type    Type
	Payload []byte
}

// None creates an empty value.
func None() Scalar {
	return Scalar{Type: TypeNone}
}

// Bool creates a bool value, encoded as a 32-bit 0 or 1.
func Bool(v bool) Scalar {
	var n uint32
	if v {
		n = 1
	}
	return Scalar{Type: TypeBool, Payload: u32(n)}
}

// ID creates an enumeration id value.
func ID(v uint32) Scalar {
	return Scalar{Type: TypeID, Payload: u32(v)}
}

// Int creates a 32-bit signed integer value.
func Int(v int32) Scalar {
	return Scalar{Type: TypeInt, Payload: u32(uint32(v))}
}

// Long creates a 64-bit signed integer value.
func Long(v int64) Scalar {
	return Scalar{Type: TypeLong, Payload: u64(uint64(v))}
}

// Float creates a 32-bit IEEE 754 value.
func Float(v float32) Scalar {
	return Scalar{Type: TypeFloat, Payload: u32(f32bits(v))}
}

// Double creates a 64-bit IEEE 754 value.
func Double(v float64) Scalar {
	return Scalar{Type: TypeDouble, Payload: u64(f64bits(v))}
}

// String creates a NUL terminated string value.
func String(v string) Scalar {
	buf := make([]byte, len(v)+1)
	copy(buf, v)
	return Scalar{Type: TypeString, Payload: buf}
}

// Bytes creates an opaque byte value.
func Bytes(v []byte) Scalar {
	buf := make([]byte, len(v))
	copy(buf, v)
	return Scalar{Type: TypeBytes, Payload: buf}
}

// Rect creates a rectangle value.
func Rect(width, height uint32) Scalar {
	buf := make([]byte, 8)
	order.PutUint32(buf[0:4], width)
	order.PutUint32(buf[4:8], height)
	return Scalar{Type: TypeRectangle, Payload: buf}
}

// Frac creates a fraction value.
func Frac(num, denom uint32) Scalar {
	buf := make([]byte, 8)
	order.PutUint32(buf[0:4], num)
	order.PutUint32(buf[4:8], denom)
	return Scalar{Type: TypeFraction, Payload: buf}
}

// Bitmap creates a bitmap value.
func Bitmap(v []byte) Scalar {
	buf := make([]byte, len(v))
	copy(buf, v)
	return Scalar{Type: TypeBitmap, Payload: buf}
}

// Ptr creates a pointer value. The 4 bytes after the pointer type are
// reserved and always zero.
func Ptr(t uint32, addr uint64) Scalar {
	buf := make([]byte, 16)
	order.PutUint32(buf[0:4], t)
	order.PutUint64(buf[8:16], addr)
	return Scalar{Type: TypePointer, Payload: buf}
}

// Fd creates a file descriptor value.
func Fd(v int64) Scalar {
	return Scalar{Type: TypeFd, Payload: u64(uint64(v))}
}

// Item is anything Add can write: a Scalar or a composed container.
type Item interface {
	writeTo(b *Builder) error
}

func (s Scalar) writeTo(b *Builder) error { return b.Write(s) }

type structItem []Item

// StructOf composes a Struct holding items in order.
func StructOf(items ...Item) Item { return structItem(items) }

func (s structItem) writeTo(b *Builder) error {
	if err := b.PushStruct(); err != nil {
		return err
	}
	for _, it := range s {
		if err := it.writeTo(b); err != nil {
			return err
		}
	}
	_, err := b.Pop()
	return err
}

type arrayItem []Scalar

// ArrayOf composes an Array. Every element must share type and size.
func ArrayOf(elems ...Scalar) Item { return arrayItem(elems) }

func (a arrayItem) writeTo(b *Builder) error {
	if err := b.PushArray(); err != nil {
		return err
	}
	for _, e := range a {
		if err := b.Write(e); err != nil {
			return err
		}
	}
	_, err := b.Pop()
	return err
}

type choiceItem struct {
	kind   ChoiceType
	flags  uint32
	values []Scalar
}

// ChoiceOf composes a Choice; values[0] is the default.
func ChoiceOf(kind ChoiceType, values ...Scalar) Item {
	return choiceItem{kind: kind, values: values}
}

// FlaggedChoiceOf is ChoiceOf with an explicit flags word.
func FlaggedChoiceOf(kind ChoiceType, flags uint32, values ...Scalar) Item {
	return choiceItem{kind: kind, flags: flags, values: values}
}

func (c choiceItem) writeTo(b *Builder) error {
	if err := b.PushChoice(c.kind, c.flags); err != nil {
		return err
	}
	for _, v := range c.values {
		if err := b.Write(v); err != nil {
			return err
		}
	}
	_, err := b.Pop()
	return err
}

// PropItem is one keyed entry of a composed Object.
type PropItem struct {
	Key   uint32
	Flags uint32
	Value Item
}

// Prop composes a property without flags.
func Prop(key uint32, v Item) PropItem {
	return PropItem{Key: key, Value: v}
}

type objectItem struct {
	objType uint32
	id      uint32
	props   []PropItem
}

// ObjectOf composes an Object.
func ObjectOf(objType, id uint32, props ...PropItem) Item {
	return objectItem{objType: objType, id: id, props: props}
}

func (o objectItem) writeTo(b *Builder) error {
	if err := b.PushObject(o.objType, o.id); err != nil {
		return err
	}
	for _, p := range o.props {
		if err := b.PushProperty(p.Key, p.Flags); err != nil {
			return err
		}
		if err := p.Value.writeTo(b); err != nil {
			return err
		}
	}
	_, err := b.Pop()
	return err
}

// Add writes items in order into the current position of b.
func (b *Builder) Add(items ...Item) error {
	for _, it := range items {
		if err := it.writeTo(b); err != nil {
			return err
		}
	}
	return nil
}

// AddStruct writes a complete Struct and returns its span.
func (b *Builder) AddStruct(items ...Item) (Span, error) {
	start := b.Len()
	if err := structItem(items).writeTo(b); err != nil {
		return Span{}, err
	}
	return b.lastSpan(start, TypeStruct), nil
}

// AddObject writes a complete Object and returns its span.
func (b *Builder) AddObject(objType, id uint32, props ...PropItem) (Span, error) {
	start := b.Len()
	if err := (objectItem{objType: objType, id: id, props: props}).writeTo(b); err != nil {
		return Span{}, err
	}
	return b.lastSpan(start, TypeObject), nil
}

func (b *Builder) lastSpan(start int, t Type) Span {
	size := int(b.buf.Uint32At(start))
	return Span{Offset: start, Len: HeaderLen + size, Type: t}
}

// AddArray writes a complete Array and returns its span.
func (b *Builder) AddArray(elems ...Scalar) (Span, error) {
	start := b.Len()
	if err := arrayItem(elems).writeTo(b); err != nil {
		return Span{}, err
	}
	return b.lastSpan(start, TypeArray), nil
}
