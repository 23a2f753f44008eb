package pod

import (
	"encoding/binary"
	"math"
)

// Alignment is the boundary every value starts on.
const Alignment = 8

// HeaderLen is the size of the size/type prefix of every value.
const HeaderLen = 8

// order is the canonical byte order of every numeric field in the format.
var order = binary.LittleEndian

// Padding returns the number of zero bytes that follow a payload of n bytes.
func Padding(n int) int {
	return (Alignment - n%Alignment) % Alignment
}

// Align rounds n up to the next multiple of Alignment.
func Align(n int) int {
	return n + Padding(n)
}

// Buffer is an append-only byte sink. A fixed buffer writes into caller
// storage and never reallocates; a growing buffer doubles its storage on
// demand up to max bytes (0 means unlimited).
type Buffer struct {
	buf   []byte
	len   int
	grow  bool
	limit int
}

// NewFixedBuffer returns a Buffer over dst. len(dst) is the capacity.
func NewFixedBuffer(dst []byte) *Buffer {
	return &Buffer{buf: dst}
}

// NewGrowingBuffer returns a Buffer that owns its storage.
func NewGrowingBuffer(hint, max int) *Buffer {
	if hint <= 0 {
		hint = 1024
	}
	if max > 0 && hint > max {
		hint = max
	}
	return &Buffer{buf: make([]byte, hint), grow: true, limit: max}
}

// Bytes returns the bytes written so far.
func (b *Buffer) Bytes() []byte { return b.buf[:b.len] }

// Len returns the write cursor.
func (b *Buffer) Len() int { return b.len }

// Cap returns the current storage size.
func (b *Buffer) Cap() int { return len(b.buf) }

// Reset moves the cursor back to 0. Storage is kept.
func (b *Buffer) Reset() { b.len = 0 }

func (b *Buffer) ensure(n int) error {
	if len(b.buf)-b.len >= n {
		return nil
	}
	if !b.grow {
		return ErrOutOfSpace
	}
	need := b.len + n
	if b.limit > 0 && need > b.limit {
		return ErrOutOfSpace
	}
	newlen := len(b.buf)*2 + n
	if b.limit > 0 && newlen > b.limit {
		newlen = b.limit
	}
	newbuf := make([]byte, newlen)
	copy(newbuf, b.buf[:b.len])
	b.buf = newbuf
	return nil
}

// Reserve extends the buffer by n zeroed bytes and returns their offset.
func (b *Buffer) Reserve(n int) (int, error) {
	if err := b.ensure(n); err != nil {
		return 0, err
	}
	off := b.len
	clear(b.buf[off : off+n])
	b.len += n
	return off, nil
}

// Write appends p.
func (b *Buffer) Write(p []byte) error {
	if err := b.ensure(len(p)); err != nil {
		return err
	}
	b.len += copy(b.buf[b.len:], p)
	return nil
}

// WriteUint32 appends v in canonical byte order.
func (b *Buffer) WriteUint32(v uint32) error {
	if err := b.ensure(4); err != nil {
		return err
	}
	order.PutUint32(b.buf[b.len:], v)
	b.len += 4
	return nil
}

// Pad zero-fills up to the next aligned offset.
func (b *Buffer) Pad() error {
	n := Padding(b.len)
	if n == 0 {
		return nil
	}
	_, err := b.Reserve(n)
	return err
}

// PutUint32At overwrites the 4 bytes at off. off must lie inside the
// written region.
func (b *Buffer) PutUint32At(off int, v uint32) {
	order.PutUint32(b.buf[off:off+4], v)
}

// Uint32At reads the 4 bytes at off.
func (b *Buffer) Uint32At(off int) uint32 {
	return order.Uint32(b.buf[off : off+4])
}

// Slice returns the written bytes in [start, end).
func (b *Buffer) Slice(start, end int) []byte {
	return b.buf[start:end:end]
}

func putHeader(dst []byte, size uint32, t Type) {
	order.PutUint32(dst[0:4], size)
	order.PutUint32(dst[4:8], uint32(t))
}

func readHeader(src []byte) Header {
	return Header{
		Size: order.Uint32(src[0:4]),
		Type: Type(order.Uint32(src[4:8])),
	}
}

func u32(v uint32) []byte {
	buf := make([]byte, 4)
	order.PutUint32(buf, v)
	return buf
}

func u64(v uint64) []byte {
	buf := make([]byte, 8)
	order.PutUint64(buf, v)
	return buf
}

func f32bits(v float32) uint32 { return math.Float32bits(v) }

func f64bits(v float64) uint64 { return math.Float64bits(v) }
