package pod

// frame tracks one open container. Offsets index into the builder's Buffer
// so a growing buffer may reallocate while frames are open.
type frame struct {
	kind   Type
	header int // offset of the container's size/type header
	body   int // offset right after the header

	// Array and Choice: the element shape, fixed by the first element.
	elem    Header
	elemOff int
	elems   int

	// Object and Sequence: a key/control has been written and awaits its value.
	pending bool
}

type frameStack []frame

func (s *frameStack) push(f frame) {
	*s = append(*s, f)
}

func (s *frameStack) pop() (frame, error) {
	n := len(*s)
	if n == 0 {
		return frame{}, ErrFrameStackUnderflow
	}
	f := (*s)[n-1]
	*s = (*s)[:n-1]
	return f, nil
}

func (s frameStack) top() *frame {
	if len(s) == 0 {
		return nil
	}
	return &s[len(s)-1]
}

func (s *frameStack) reset() {
	*s = (*s)[:0]
}

// Span is the byte range of a value inside the builder's buffer: header
// and payload, trailing padding excluded.
type Span struct {
	Offset int
	Len    int
	Type   Type
}
