package pod

import (
	"errors"
	"fmt"
	"io"
)

// ParseStruct decodes the children of a Struct into dst in order. Each
// element of dst must be one of *bool, *uint32 (Id), *int32, *int64,
// *float32, *float64, *string, *[]byte, *Rectangle, *Fraction, *Pointer
// or *Value (any type, no conversion). Extra children are ignored;
// missing children fail with ErrTruncated.
func ParseStruct(v Value, dst ...any) error {
	s, err := v.Struct()
	if err != nil {
		return err
	}
	p := s.Iter()
	for i, d := range dst {
		child, err := p.Next()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: struct has %d children, want %d", ErrTruncated, i, len(dst))
		}
		if err != nil {
			return err
		}
		if err := assign(child, d); err != nil {
			return fmt.Errorf("struct child %d: %w", i, err)
		}
	}
	return nil
}

// PropTarget binds an object property key to a destination pointer.
type PropTarget struct {
	Key      uint32
	Dst      any
	Optional bool
}

// ParseObject decodes properties of an Object by key. objType 0 accepts
// any object type. Missing required properties fail with ErrMissingProperty.
func ParseObject(v Value, objType uint32, targets ...PropTarget) error {
	o, err := v.Object()
	if err != nil {
		return err
	}
	if objType != 0 && o.Type != objType {
		return fmt.Errorf("%w: object type %#x, want %#x", ErrTypeMismatch, o.Type, objType)
	}
	for _, t := range targets {
		prop, ok := o.Find(t.Key)
		if !ok {
			if t.Optional {
				continue
			}
			return fmt.Errorf("%w: %s", ErrMissingProperty, PropName(t.Key))
		}
		if err := assign(prop.Value, t.Dst); err != nil {
			return fmt.Errorf("property %s: %w", PropName(t.Key), err)
		}
	}
	return nil
}

func assign(v Value, dst any) error {
	var err error
	switch d := dst.(type) {
	case *Value:
		*d = v
	case *bool:
		*d, err = v.Bool()
	case *uint32:
		*d, err = v.ID()
	case *int32:
		*d, err = v.Int()
	case *int64:
		*d, err = v.Long()
	case *float32:
		*d, err = v.Float()
	case *float64:
		*d, err = v.Double()
	case *string:
		*d, err = v.String()
	case *[]byte:
		*d, err = v.Bytes()
	case *Rectangle:
		*d, err = v.Rectangle()
	case *Fraction:
		*d, err = v.Fraction()
	case *Pointer:
		*d, err = v.Pointer()
	default:
		return fmt.Errorf("%w: %T", ErrInvalidTarget, dst)
	}
	return err
}
