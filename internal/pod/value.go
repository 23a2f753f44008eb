package pod

import (
	"bytes"
	"fmt"
	"math"
)

// Value is a decoded view of one encoded value. Body aliases the source
// buffer (capacity-limited, so appends never clobber it) and is only valid
// while that buffer is alive and unmodified.
type Value struct {
	Type Type
	Body []byte
}

// Size returns the payload length as declared on the wire.
func (v Value) Size() int { return len(v.Body) }

// Header returns the size/type prefix v was decoded from.
func (v Value) Header() Header {
	return Header{Size: uint32(len(v.Body)), Type: v.Type}
}

// Equal reports whether v and o have the same type and payload bytes.
func (v Value) Equal(o Value) bool {
	return v.Type == o.Type && bytes.Equal(v.Body, o.Body)
}

func (v Value) fixed(t Type) error {
	if v.Type != t {
		return fmt.Errorf("%w: got %s, want %s", ErrTypeMismatch, v.Type, t)
	}
	if n, _ := t.FixedSize(); len(v.Body) != n {
		return fmt.Errorf("%w: %s payload %d bytes", ErrInvalidLength, t, len(v.Body))
	}
	return nil
}

// Bool returns the value as bool.
func (v Value) Bool() (bool, error) {
	if err := v.fixed(TypeBool); err != nil {
		return false, err
	}
	return order.Uint32(v.Body) != 0, nil
}

// ID returns the value as an enumeration id.
func (v Value) ID() (uint32, error) {
	if err := v.fixed(TypeID); err != nil {
		return 0, err
	}
	return order.Uint32(v.Body), nil
}

// Int returns the value as int32.
func (v Value) Int() (int32, error) {
	if err := v.fixed(TypeInt); err != nil {
		return 0, err
	}
	return int32(order.Uint32(v.Body)), nil
}

// Long returns the value as int64.
func (v Value) Long() (int64, error) {
	if err := v.fixed(TypeLong); err != nil {
		return 0, err
	}
	return int64(order.Uint64(v.Body)), nil
}

// Float returns the value as float32.
func (v Value) Float() (float32, error) {
	if err := v.fixed(TypeFloat); err != nil {
		return 0, err
	}
	return math.Float32frombits(order.Uint32(v.Body)), nil
}

// Double returns the value as float64.
func (v Value) Double() (float64, error) {
	if err := v.fixed(TypeDouble); err != nil {
		return 0, err
	}
	return math.Float64frombits(order.Uint64(v.Body)), nil
}

// String returns the value as string, without its NUL terminator.
func (v Value) String() (string, error) {
	if v.Type != TypeString {
		return "", fmt.Errorf("%w: got %s, want %s", ErrTypeMismatch, v.Type, TypeString)
	}
	n := bytes.IndexByte(v.Body, 0)
	if n < 0 {
		return "", fmt.Errorf("%w: string not NUL terminated", ErrInvalidLength)
	}
	return string(v.Body[:n]), nil
}

// Bytes returns a copy of a Bytes payload.
func (v Value) Bytes() ([]byte, error) {
	if v.Type != TypeBytes {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrTypeMismatch, v.Type, TypeBytes)
	}
	return bytes.Clone(v.Body), nil
}

// Rectangle returns the value as Rectangle.
func (v Value) Rectangle() (Rectangle, error) {
	if err := v.fixed(TypeRectangle); err != nil {
		return Rectangle{}, err
	}
	return Rectangle{Width: order.Uint32(v.Body[0:4]), Height: order.Uint32(v.Body[4:8])}, nil
}

// Fraction returns the value as Fraction.
func (v Value) Fraction() (Fraction, error) {
	if err := v.fixed(TypeFraction); err != nil {
		return Fraction{}, err
	}
	return Fraction{Num: order.Uint32(v.Body[0:4]), Denom: order.Uint32(v.Body[4:8])}, nil
}

// Bitmap returns a copy of a Bitmap payload.
func (v Value) Bitmap() ([]byte, error) {
	if v.Type != TypeBitmap {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrTypeMismatch, v.Type, TypeBitmap)
	}
	return bytes.Clone(v.Body), nil
}

// Pointer returns the value as Pointer.
func (v Value) Pointer() (Pointer, error) {
	if err := v.fixed(TypePointer); err != nil {
		return Pointer{}, err
	}
	return Pointer{Type: order.Uint32(v.Body[0:4]), Addr: order.Uint64(v.Body[8:16])}, nil
}

// Fd returns the value as a file descriptor number.
func (v Value) Fd() (int64, error) {
	if err := v.fixed(TypeFd); err != nil {
		return 0, err
	}
	return int64(order.Uint64(v.Body)), nil
}

// Inner returns the single value wrapped by a Pod reference.
func (v Value) Inner() (Value, error) {
	if v.Type != TypePod {
		return Value{}, fmt.Errorf("%w: got %s, want %s", ErrTypeMismatch, v.Type, TypePod)
	}
	return NewParser(v.Body).Next()
}

// Enter returns a parser over the children of a container value.
func (v Value) Enter() (*Parser, error) {
	switch v.Type {
	case TypeStruct, TypePod:
		return &Parser{data: v.Body, kind: TypeStruct}, nil
	case TypeObject, TypeSequence:
		if len(v.Body) < 8 {
			return nil, fmt.Errorf("%w: %s body %d bytes", ErrTruncated, v.Type, len(v.Body))
		}
		return &Parser{data: v.Body[8:], kind: v.Type}, nil
	case TypeArray:
		if len(v.Body) < HeaderLen {
			return nil, fmt.Errorf("%w: array body %d bytes", ErrTruncated, len(v.Body))
		}
		return &Parser{data: v.Body[HeaderLen:], kind: TypeArray, elem: readHeader(v.Body)}, nil
	case TypeChoice:
		if len(v.Body) < 8+HeaderLen {
			return nil, fmt.Errorf("%w: choice body %d bytes", ErrTruncated, len(v.Body))
		}
		return &Parser{data: v.Body[8+HeaderLen:], kind: TypeChoice, elem: readHeader(v.Body[8:])}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotAContainer, v.Type)
	}
}

// numeric widens Id, Int, Long, Float and Double for range checks.
func (v Value) numeric() (float64, error) {
	switch v.Type {
	case TypeID:
		n, err := v.ID()
		return float64(n), err
	case TypeInt:
		n, err := v.Int()
		return float64(n), err
	case TypeLong:
		n, err := v.Long()
		return float64(n), err
	case TypeFloat:
		n, err := v.Float()
		return float64(n), err
	case TypeDouble:
		return v.Double()
	case TypeFraction:
		f, err := v.Fraction()
		if err != nil {
			return 0, err
		}
		if f.Denom == 0 {
			return 0, fmt.Errorf("%w: zero denominator", ErrInvalidLength)
		}
		return float64(f.Num) / float64(f.Denom), nil
	default:
		return 0, fmt.Errorf("%w: %s is not numeric", ErrTypeMismatch, v.Type)
	}
}

func (v Value) integral() bool {
	return v.Type == TypeID || v.Type == TypeInt || v.Type == TypeLong
}

// integer widens Id, Int and Long to int64 without loss.
func (v Value) integer() (int64, error) {
	switch v.Type {
	case TypeID:
		n, err := v.ID()
		return int64(n), err
	case TypeInt:
		n, err := v.Int()
		return int64(n), err
	case TypeLong:
		return v.Long()
	default:
		return 0, fmt.Errorf("%w: %s is not an integer", ErrTypeMismatch, v.Type)
	}
}

// bits returns integer payloads as unsigned bits for flag masks.
func (v Value) bits() (uint64, error) {
	switch v.Type {
	case TypeID, TypeInt:
		if err := v.fixed(v.Type); err != nil {
			return 0, err
		}
		return uint64(order.Uint32(v.Body)), nil
	case TypeLong:
		if err := v.fixed(v.Type); err != nil {
			return 0, err
		}
		return order.Uint64(v.Body), nil
	default:
		return 0, fmt.Errorf("%w: %s has no flag bits", ErrTypeMismatch, v.Type)
	}
}
