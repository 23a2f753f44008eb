package pod

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func valueOf(s Scalar) Value {
	return Value{Type: s.Type, Body: s.Payload}
}

func firstValue(t *testing.T, data []byte) Value {
	t.Helper()
	v, err := NewParser(data).Next()
	require.NoError(t, err)
	return v
}

func TestArrayStrideMatchesStructChildren(t *testing.T) {
	elems := []Scalar{Long(10), Long(-20), Long(30), Long(1 << 40)}
	items := make([]Item, len(elems))
	for i, e := range elems {
		items[i] = e
	}
	b := NewGrowingBuilder(0, 0)
	require.NoError(t, b.Add(ArrayOf(elems...), StructOf(items...)))

	p := NewParser(b.Bytes())
	av, err := p.Next()
	require.NoError(t, err)
	sv, err := p.Next()
	require.NoError(t, err)

	arr, err := av.Array()
	require.NoError(t, err)
	require.Equal(t, Header{Size: 8, Type: TypeLong}, arr.Elem)
	require.Equal(t, len(elems), arr.Len())

	structVals, err := Collect(mustStruct(t, sv).All())
	require.NoError(t, err)
	iterVals, err := Collect(arr.Iter().All())
	require.NoError(t, err)
	require.Len(t, iterVals, len(elems))

	for i := range elems {
		at, err := arr.At(i)
		require.NoError(t, err)
		require.True(t, at.Equal(structVals[i]), "element %d", i)
		require.True(t, at.Equal(iterVals[i]), "element %d", i)
		require.True(t, at.Equal(valueOf(elems[i])), "element %d", i)
	}

	_, err = arr.At(len(elems))
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = arr.At(-1)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestArrayRejectsRaggedBody(t *testing.T) {
	// child header says 4 byte Ints but 6 bytes follow
	data := words(14, uint32(TypeArray), 4, uint32(TypeInt), 1, 0)
	v := firstValue(t, data)
	_, err := v.Array()
	require.ErrorIs(t, err, ErrTruncated)
}

func TestArrayOfStrings(t *testing.T) {
	b := NewGrowingBuilder(0, 0)
	require.NoError(t, b.Add(ArrayOf(String("abc"), String("xyz"))))
	arr, err := firstValue(t, b.Bytes()).Array()
	require.NoError(t, err)
	require.Equal(t, 2, arr.Len())
	second, err := arr.At(1)
	require.NoError(t, err)
	s, err := second.String()
	require.NoError(t, err)
	require.Equal(t, "xyz", s)
}

func choiceFrom(t *testing.T, kind ChoiceType, values ...Scalar) Choice {
	t.Helper()
	b := NewGrowingBuilder(0, 0)
	require.NoError(t, b.Add(ChoiceOf(kind, values...)))
	c, err := firstValue(t, b.Bytes()).Choice()
	require.NoError(t, err)
	require.Equal(t, kind, c.Kind)
	return c
}

func TestChoiceResolve(t *testing.T) {
	rangeChoice := choiceFrom(t, ChoiceRange, Int(5), Int(0), Int(10))
	stepChoice := choiceFrom(t, ChoiceStep, Int(4), Int(0), Int(10), Int(2))
	enumChoice := choiceFrom(t, ChoiceEnum, ID(1), ID(1), ID(2), ID(5))
	flagsChoice := choiceFrom(t, ChoiceFlags, Int(0), Int(1), Int(4))
	noneChoice := choiceFrom(t, ChoiceNone, Int(3))
	rectChoice := choiceFrom(t, ChoiceRange, Rect(640, 480), Rect(1, 1), Rect(1920, 1080))
	rateChoice := choiceFrom(t, ChoiceRange, Frac(30, 1), Frac(1, 1), Frac(60, 1))
	longChoice := choiceFrom(t, ChoiceRange, Long(0), Long(0), Long(1<<62))
	longStep := choiceFrom(t, ChoiceStep, Long(0), Long(0), Long(1<<62), Long(3))

	cases := []struct {
		name      string
		choice    Choice
		candidate Scalar
		wantErr   error
	}{
		{"range-inside", rangeChoice, Int(7), nil},
		{"range-bound", rangeChoice, Int(10), nil},
		{"range-above", rangeChoice, Int(11), ErrChoiceRejected},
		{"range-type", rangeChoice, Float(7), ErrTypeMismatch},
		{"step-on", stepChoice, Int(6), nil},
		{"step-off", stepChoice, Int(5), ErrChoiceRejected},
		{"enum-member", enumChoice, ID(5), nil},
		{"enum-missing", enumChoice, ID(3), ErrChoiceRejected},
		{"flags-subset", flagsChoice, Int(5), nil},
		{"flags-extra", flagsChoice, Int(2), ErrChoiceRejected},
		{"none-default", noneChoice, Int(3), nil},
		{"none-other", noneChoice, Int(4), ErrChoiceRejected},
		{"rect-inside", rectChoice, Rect(1280, 720), nil},
		{"rect-outside", rectChoice, Rect(4096, 720), ErrChoiceRejected},
		{"fraction-inside", rateChoice, Frac(50, 1), nil},
		{"fraction-outside", rateChoice, Frac(120, 1), ErrChoiceRejected},
		// float64 cannot tell these apart from the bound or the step
		{"long-bound", longChoice, Long(1 << 62), nil},
		{"long-above", longChoice, Long(1<<62 + 1), ErrChoiceRejected},
		{"long-step-on", longStep, Long(3 << 60), nil},
		{"long-step-off", longStep, Long(3<<60 + 1), ErrChoiceRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cand := valueOf(tc.candidate)
			got, err := tc.choice.Resolve(&cand)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.True(t, got.Equal(cand))
		})
	}
}

func TestChoiceDefaultAndAlternatives(t *testing.T) {
	c := choiceFrom(t, ChoiceEnum, Int(2), Int(1), Int(2), Int(3))
	def, err := c.Resolve(nil)
	require.NoError(t, err)
	n, err := def.Int()
	require.NoError(t, err)
	require.Equal(t, int32(2), n)

	alts, err := c.Alternatives()
	require.NoError(t, err)
	require.Len(t, alts, 3)

	var seen []int32
	for v, err := range c.All() {
		require.NoError(t, err)
		n, err := v.Int()
		require.NoError(t, err)
		seen = append(seen, n)
	}
	require.Equal(t, []int32{2, 1, 2, 3}, seen)
}

func TestChoiceRangeNeedsBounds(t *testing.T) {
	c := choiceFrom(t, ChoiceRange, Int(5), Int(0))
	cand := valueOf(Int(1))
	_, err := c.Resolve(&cand)
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestChoiceKeepsFlagsWord(t *testing.T) {
	b := NewGrowingBuilder(0, 0)
	require.NoError(t, b.PushChoice(ChoiceEnum, 0xa5))
	require.NoError(t, b.WriteInt(1))
	span, err := b.Pop()
	require.NoError(t, err)
	// header + kind/flags + child header + one 4 byte element
	require.Equal(t, 8+8+8+4, span.Len)

	v, err := b.Value(span)
	require.NoError(t, err)
	c, err := v.Choice()
	require.NoError(t, err)
	require.Equal(t, uint32(0xa5), c.Flags)
	require.Equal(t, 1, c.Len())
}

func TestFlaggedChoiceOf(t *testing.T) {
	b := NewGrowingBuilder(0, 0)
	require.NoError(t, b.Add(FlaggedChoiceOf(ChoiceRange, 0x3, Int(5), Int(0), Int(10))))
	c, err := firstValue(t, b.Bytes()).Choice()
	require.NoError(t, err)
	require.Equal(t, ChoiceRange, c.Kind)
	require.Equal(t, uint32(0x3), c.Flags)
	require.Equal(t, 3, c.Len())

	b.Reset()
	require.NoError(t, b.Add(ChoiceOf(ChoiceNone, Int(5))))
	c, err = firstValue(t, b.Bytes()).Choice()
	require.NoError(t, err)
	require.Zero(t, c.Flags)
}

func TestArrayRejectsZeroSizeElementsOnRead(t *testing.T) {
	// element header claims 0 byte Nones but 8 bytes follow
	data := words(16, uint32(TypeArray), 0, uint32(TypeNone), 1, 2)
	v := firstValue(t, data)
	_, err := v.Array()
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestEqualReportsDecodeError(t *testing.T) {
	good := words(4, uint32(TypeInt), 1, 0)
	bad := append(words(4, uint32(TypeInt), 1, 0), words(64, uint32(TypeStruct))...)

	_, err := Equal(good, bad)
	require.ErrorIs(t, err, ErrTruncated)
	_, err = Equal(bad, good)
	require.ErrorIs(t, err, ErrTruncated)

	same, err := Equal(good, append(good, good...))
	require.NoError(t, err)
	require.False(t, same)
}

func TestSequenceControls(t *testing.T) {
	b := NewGrowingBuilder(0, 0)
	require.NoError(t, b.PushSequence(48000))
	require.NoError(t, b.PushControl(0, ControlProperties))
	_, err := b.AddObject(ObjectProps, ParamProps, Prop(PropVolume, Float(0.25)))
	require.NoError(t, err)
	require.NoError(t, b.PushControl(128, ControlMidi))
	require.NoError(t, b.WriteBytes([]byte{0x90, 0x40, 0x7f}))
	span, err := b.Pop()
	require.NoError(t, err)
	_, err = b.Finish()
	require.NoError(t, err)

	v, err := b.Value(span)
	require.NoError(t, err)
	seq, err := v.Sequence()
	require.NoError(t, err)
	require.Equal(t, uint32(48000), seq.Unit)

	var ctrls []Control
	for c, err := range seq.All() {
		require.NoError(t, err)
		ctrls = append(ctrls, c)
	}
	require.Len(t, ctrls, 2)
	require.Equal(t, ControlProperties, ctrls[0].Type)
	require.Equal(t, TypeObject, ctrls[0].Value.Type)
	vol, ok := FindValue(ctrls[0].Value, PropVolume)
	require.True(t, ok)
	f, err := vol.Float()
	require.NoError(t, err)
	require.Equal(t, float32(0.25), f)

	require.Equal(t, uint32(128), ctrls[1].Offset)
	require.Equal(t, ControlMidi, ctrls[1].Type)
	midi, err := ctrls[1].Value.Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte{0x90, 0x40, 0x7f}, midi)
}

func TestSequenceRequiresControl(t *testing.T) {
	b := NewGrowingBuilder(0, 0)
	require.ErrorIs(t, b.PushControl(0, ControlMidi), ErrNotInSequence)

	b.Reset()
	require.NoError(t, b.PushSequence(0))
	require.ErrorIs(t, b.WriteInt(1), ErrControlExpected)
}

func TestPodWrapsSingleValue(t *testing.T) {
	b := NewGrowingBuilder(0, 0)
	require.NoError(t, b.PushPod())
	_, err := b.AddStruct(Int(7), String("x"))
	require.NoError(t, err)
	span, err := b.Pop()
	require.NoError(t, err)

	v, err := b.Value(span)
	require.NoError(t, err)
	inner, err := v.Inner()
	require.NoError(t, err)
	require.Equal(t, TypeStruct, inner.Type)

	var n int32
	var s string
	require.NoError(t, ParseStruct(inner, &n, &s))
	require.Equal(t, int32(7), n)
	require.Equal(t, "x", s)

	b.Reset()
	require.NoError(t, b.PushPod())
	require.NoError(t, b.WriteInt(1))
	require.ErrorIs(t, b.WriteInt(2), ErrInvalidLength)
}

func TestWriteValueCopiesContainers(t *testing.T) {
	src := NewGrowingBuilder(0, 0)
	span, err := src.AddObject(ObjectProps, ParamProps,
		Prop(PropDevice, String("hw:1")),
		Prop(PropChannelVolumes, ArrayOf(Float(1), Float(0.5))),
	)
	require.NoError(t, err)
	obj, err := src.Value(span)
	require.NoError(t, err)

	dst := NewGrowingBuilder(0, 0)
	require.NoError(t, dst.PushStruct())
	require.NoError(t, dst.WriteValue(obj))
	_, err = dst.Pop()
	require.NoError(t, err)

	var copied Value
	require.NoError(t, ParseStruct(firstValue(t, dst.Bytes()), &copied))
	require.True(t, copied.Equal(obj))

	same, err := Equal(src.Bytes(), mustStruct(t, firstValue(t, dst.Bytes())).body)
	require.NoError(t, err)
	require.True(t, same)
}

func TestParseObjectTargets(t *testing.T) {
	b := NewGrowingBuilder(0, 0)
	span, err := b.AddObject(ObjectProps, ParamProps,
		Prop(PropDevice, String("hw:0")),
		Prop(PropRate, Int(48000)),
		Prop(PropMute, Bool(true)),
		Prop(PropLatencyOffset, Long(-1500)),
	)
	require.NoError(t, err)
	obj, err := b.Value(span)
	require.NoError(t, err)

	var (
		device string
		rate   int32
		mute   bool
		offset int64
		volume float32 = 1
	)
	require.NoError(t, ParseObject(obj, ObjectProps,
		PropTarget{Key: PropDevice, Dst: &device},
		PropTarget{Key: PropRate, Dst: &rate},
		PropTarget{Key: PropMute, Dst: &mute},
		PropTarget{Key: PropLatencyOffset, Dst: &offset},
		PropTarget{Key: PropVolume, Dst: &volume, Optional: true},
	))
	require.Equal(t, "hw:0", device)
	require.Equal(t, int32(48000), rate)
	require.True(t, mute)
	require.Equal(t, int64(-1500), offset)
	require.Equal(t, float32(1), volume)

	err = ParseObject(obj, ObjectProps, PropTarget{Key: PropVolume, Dst: &volume})
	require.ErrorIs(t, err, ErrMissingProperty)
	err = ParseObject(obj, ObjectFormat)
	require.ErrorIs(t, err, ErrTypeMismatch)
	err = ParseObject(obj, 0, PropTarget{Key: PropRate, Dst: &device})
	require.ErrorIs(t, err, ErrTypeMismatch)
	err = ParseObject(obj, 0, PropTarget{Key: PropRate, Dst: rate})
	require.ErrorIs(t, err, ErrInvalidTarget)
}

func TestParseStructShortAndLong(t *testing.T) {
	b := NewGrowingBuilder(0, 0)
	_, err := b.AddStruct(Int(1), Double(2.5), Rect(3, 4), Frac(5, 6), Ptr(1, 0x1000))
	require.NoError(t, err)
	v := firstValue(t, b.Bytes())

	var (
		i int32
		d float64
		r Rectangle
		f Fraction
		p Pointer
	)
	require.NoError(t, ParseStruct(v, &i, &d, &r, &f, &p))
	require.Equal(t, Rectangle{Width: 3, Height: 4}, r)
	require.Equal(t, Fraction{Num: 5, Denom: 6}, f)
	require.Equal(t, Pointer{Type: 1, Addr: 0x1000}, p)

	// fewer targets than children is fine
	require.NoError(t, ParseStruct(v, &i))

	var extra Value
	err = ParseStruct(v, &i, &d, &r, &f, &p, &extra)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestValueAccessorsCheckType(t *testing.T) {
	v := valueOf(Int(1))
	_, err := v.Float()
	require.ErrorIs(t, err, ErrTypeMismatch)
	_, err = v.String()
	require.ErrorIs(t, err, ErrTypeMismatch)

	short := Value{Type: TypeLong, Body: []byte{1, 2, 3, 4}}
	_, err = short.Long()
	require.ErrorIs(t, err, ErrInvalidLength)

	unterminated := Value{Type: TypeString, Body: []byte("abc")}
	_, err = unterminated.String()
	require.ErrorIs(t, err, ErrInvalidLength)
}

func TestBytesAccessorCopies(t *testing.T) {
	b := NewGrowingBuilder(0, 0)
	require.NoError(t, b.WriteBytes([]byte{1, 2, 3}))
	v := firstValue(t, b.Bytes())
	got, err := v.Bytes()
	require.NoError(t, err)
	got[0] = 9
	require.Equal(t, byte(1), v.Body[0])
}

func TestAlignmentOfEveryValue(t *testing.T) {
	b := NewGrowingBuilder(0, 0)
	require.NoError(t, b.Add(
		Bool(true),
		String("odd"),
		StructOf(Bytes([]byte{1}), StructOf(String("nested"), Int(2)), Long(3)),
		ObjectOf(ObjectProps, ParamProps,
			Prop(PropDevice, String("hw:0")),
			Prop(PropPeriods, StructOf(Int(1), Bitmap([]byte{1, 1, 0}))),
		),
		Frac(1, 2),
	))
	var walk func(t *testing.T, data []byte, base int)
	walk = func(t *testing.T, data []byte, base int) {
		p := NewParser(data)
		for {
			off := p.Offset()
			v, err := p.Next()
			if err == io.EOF {
				return
			}
			require.NoError(t, err)
			require.Zero(t, (base+off)%Alignment, "%s at %d", v.Type, base+off)
			switch v.Type {
			case TypeStruct:
				walk(t, v.Body, base+off+HeaderLen)
			case TypeObject:
				o, err := v.Object()
				require.NoError(t, err)
				it := o.Iter()
				for {
					poff := it.Offset()
					prop, err := it.NextProperty()
					if err == io.EOF {
						break
					}
					require.NoError(t, err)
					start := base + off + HeaderLen + 8 + poff
					require.Zero(t, start%Alignment, "property %s", PropName(prop.Key))
					if prop.Value.Type == TypeStruct {
						walk(t, prop.Value.Body, start+8+HeaderLen)
					}
				}
			}
		}
	}
	walk(t, b.Bytes(), 0)
	require.Zero(t, len(b.Bytes())%Alignment)
}

func TestPaddingHelpers(t *testing.T) {
	for n, want := range map[int]int{0: 0, 1: 7, 4: 4, 7: 1, 8: 0, 9: 7, 16: 0} {
		require.Equal(t, want, Padding(n), "padding of %d", n)
		require.Equal(t, n+want, Align(n), "align of %d", n)
	}
}

func TestDumpDemo(t *testing.T) {
	b := NewGrowingBuilder(0, 0)
	_, err := b.AddStruct(Int(5), Float(3.1415))
	require.NoError(t, err)
	_, err = b.AddObject(ObjectProps, ParamProps,
		Prop(PropDevice, String("hw:0")),
		Prop(PropFrequency, Float(440.0)),
	)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Dump(&out, b.Bytes()))
	want := "Struct: size 32\n" +
		"  Int 5\n" +
		"  Float 3.141500\n" +
		"Object: size 56, type Props, id Props\n" +
		"  Prop: key device (0x101), flags 00000000\n" +
		"    String \"hw:0\"\n" +
		"  Prop: key frequency (0x10002), flags 00000000\n" +
		"    Float 440.000000\n"
	require.Equal(t, want, out.String())
}

func TestDumpReportsMalformedInPlace(t *testing.T) {
	data := append(words(4, uint32(TypeInt), 1, 0), words(64, uint32(TypeStruct))...)
	var out bytes.Buffer
	err := Dump(&out, data)
	require.ErrorIs(t, err, ErrTruncated)
	require.Contains(t, out.String(), "Int 1\n")
	require.Contains(t, out.String(), "<error: offset 16:")
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestDumpReportsWriteError(t *testing.T) {
	b := NewGrowingBuilder(0, 0)
	_, err := b.AddStruct(Int(5), Float(3.1415))
	require.NoError(t, err)

	sentinel := errors.New("disk full")
	require.ErrorIs(t, Dump(failingWriter{sentinel}, b.Bytes()), sentinel)
	require.ErrorIs(t, DumpValue(failingWriter{sentinel}, firstValue(t, b.Bytes())), sentinel)
}

func TestChannelVolumesArrayInObject(t *testing.T) {
	b := NewGrowingBuilder(0, 0)
	span, err := b.AddObject(ObjectProps, ParamProps,
		Prop(PropMute, Bool(false)),
		Prop(PropChannelVolumes, ArrayOf(Float(1), Float(0.5), Float(0.125))),
	)
	require.NoError(t, err)
	obj, err := b.Value(span)
	require.NoError(t, err)

	v, ok := FindValue(obj, PropChannelVolumes)
	require.True(t, ok)
	arr, err := v.Array()
	require.NoError(t, err)
	require.Equal(t, TypeFloat, arr.Elem.Type)

	var vols []float32
	for elem, err := range arr.All() {
		require.NoError(t, err)
		f, err := elem.Float()
		require.NoError(t, err)
		vols = append(vols, f)
	}
	require.Equal(t, []float32{1, 0.5, 0.125}, vols)
}
