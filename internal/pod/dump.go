package pod

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Dump writes a human-readable tree of every value in data to w. Malformed
// values are printed in place and the first error is returned.
func Dump(w io.Writer, data []byte) error {
	d := &dumper{w: w}
	p := NewParser(data)
	for {
		off := p.Offset()
		v, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			d.fail(0, fmt.Errorf("offset %d: %w", off, err))
			break
		}
		d.value(0, v)
	}
	return d.err
}

// DumpValue writes the tree of a single decoded value to w.
func DumpValue(w io.Writer, v Value) error {
	d := &dumper{w: w}
	d.value(0, v)
	return d.err
}

// Sprint returns the dump of v as a string.
func Sprint(v Value) string {
	var buf bytes.Buffer
	_ = DumpValue(&buf, v)
	return buf.String()
}

type dumper struct {
	w   io.Writer
	err error
}

func (d *dumper) line(indent int, format string, args ...any) {
	_, err := fmt.Fprintf(d.w, "%s%s\n", strings.Repeat("  ", indent), fmt.Sprintf(format, args...))
	if err != nil && d.err == nil {
		d.err = err
	}
}

func (d *dumper) fail(indent int, err error) {
	d.line(indent, "<error: %v>", err)
	if d.err == nil {
		d.err = err
	}
}

func (d *dumper) value(indent int, v Value) {
	switch v.Type {
	case TypeStruct:
		s, err := v.Struct()
		if err != nil {
			d.fail(indent, err)
			return
		}
		d.line(indent, "Struct: size %d", v.Size())
		for child, err := range s.All() {
			if err != nil {
				d.fail(indent+1, err)
				return
			}
			d.value(indent+1, child)
		}
	case TypeObject:
		o, err := v.Object()
		if err != nil {
			d.fail(indent, err)
			return
		}
		d.line(indent, "Object: size %d, type %s, id %s", v.Size(), ObjectName(o.Type), ParamName(o.ID))
		for prop, err := range o.All() {
			if err != nil {
				d.fail(indent+1, err)
				return
			}
			d.line(indent+1, "Prop: key %s (%#x), flags %08x", PropName(prop.Key), prop.Key, prop.Flags)
			d.value(indent+2, prop.Value)
		}
	case TypeArray:
		a, err := v.Array()
		if err != nil {
			d.fail(indent, err)
			return
		}
		d.line(indent, "Array: child.size %d, child.type %s, n %d", a.Elem.Size, a.Elem.Type, a.Len())
		for elem, err := range a.All() {
			if err != nil {
				d.fail(indent+1, err)
				return
			}
			d.value(indent+1, elem)
		}
	case TypeChoice:
		c, err := v.Choice()
		if err != nil {
			d.fail(indent, err)
			return
		}
		d.line(indent, "Choice: type %s, flags %08x, child.size %d, child.type %s",
			c.Kind, c.Flags, c.Elem.Size, c.Elem.Type)
		for elem, err := range c.All() {
			if err != nil {
				d.fail(indent+1, err)
				return
			}
			d.value(indent+1, elem)
		}
	case TypeSequence:
		s, err := v.Sequence()
		if err != nil {
			d.fail(indent, err)
			return
		}
		d.line(indent, "Sequence: size %d, unit %d", v.Size(), s.Unit)
		for ctrl, err := range s.All() {
			if err != nil {
				d.fail(indent+1, err)
				return
			}
			d.line(indent+1, "Control: offset %d, type %s", ctrl.Offset, ctrl.Type)
			d.value(indent+2, ctrl.Value)
		}
	case TypePod:
		inner, err := v.Inner()
		if err != nil {
			d.fail(indent, err)
			return
		}
		d.line(indent, "Pod: size %d", v.Size())
		d.value(indent+1, inner)
	default:
		s, err := formatScalar(v)
		if err != nil {
			d.fail(indent, err)
			return
		}
		d.line(indent, "%s %s", v.Type, s)
	}
}

func formatScalar(v Value) (string, error) {
	switch v.Type {
	case TypeNone:
		return "null", nil
	case TypeBool:
		b, err := v.Bool()
		return fmt.Sprintf("%t", b), err
	case TypeID:
		n, err := v.ID()
		return fmt.Sprintf("%d", n), err
	case TypeInt:
		n, err := v.Int()
		return fmt.Sprintf("%d", n), err
	case TypeLong:
		n, err := v.Long()
		return fmt.Sprintf("%d", n), err
	case TypeFloat:
		f, err := v.Float()
		return fmt.Sprintf("%f", f), err
	case TypeDouble:
		f, err := v.Double()
		return fmt.Sprintf("%f", f), err
	case TypeString:
		s, err := v.String()
		return fmt.Sprintf("%q", s), err
	case TypeBytes, TypeBitmap:
		return fmt.Sprintf("[%d] %s", len(v.Body), hex.EncodeToString(v.Body)), nil
	case TypeRectangle:
		r, err := v.Rectangle()
		return fmt.Sprintf("%dx%d", r.Width, r.Height), err
	case TypeFraction:
		f, err := v.Fraction()
		return fmt.Sprintf("%d/%d", f.Num, f.Denom), err
	case TypePointer:
		p, err := v.Pointer()
		return fmt.Sprintf("type %d, %#x", p.Type, p.Addr), err
	case TypeFd:
		n, err := v.Fd()
		return fmt.Sprintf("%d", n), err
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownType, uint32(v.Type))
	}
}
