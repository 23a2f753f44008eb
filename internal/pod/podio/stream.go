package podio

import (
	"io"
	"os"

	"github.com/danmuck/podwire/internal/diag"
	"github.com/danmuck/podwire/internal/pod"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Validate walks every top level value of data, descending into
// containers, and returns the offset of the first value that does not
// decode together with the error.
func Validate(data []byte) (int, error) {
	p := pod.NewParser(data)
	for {
		off := p.Offset()
		v, err := p.Next()
		if errors.Is(err, io.EOF) {
			return len(data), nil
		}
		if err != nil {
			return off, err
		}
		if err := pod.DumpValue(io.Discard, v); err != nil {
			return off, err
		}
	}
}

// Writer frames pod buffers onto a stream with increasing sequence
// numbers. It is not safe for concurrent use.
type Writer struct {
	w      io.Writer
	limits Limits
	seq    uint64
}

func NewWriter(w io.Writer, limits Limits) *Writer {
	return &Writer{w: w, limits: limits}
}

// WritePod frames one finished pod buffer.
func (w *Writer) WritePod(payload []byte, flags uint32) error {
	f := Frame{Header: Header{Seq: w.seq, Flags: flags}, Payload: payload}
	if err := WriteFrame(w.w, f, w.limits); err != nil {
		return err
	}
	w.seq++
	diag.RecordFrame("write", len(payload))
	return nil
}

// WriteBuilder frames the contents of a builder once all its containers
// are closed.
func (w *Writer) WriteBuilder(b *pod.Builder, flags uint32) error {
	n, err := b.Finish()
	if err != nil {
		return errors.Wrap(err, "podio: builder not finished")
	}
	return w.WritePod(b.Bytes()[:n], flags)
}

// Reader reads framed pod buffers and rejects payloads that do not decode.
// Rejected payloads are reported to the sink with their stream offset.
type Reader struct {
	r      io.Reader
	limits Limits
	sink   diag.Sink
	source string
	offset int64
}

func NewReader(r io.Reader, limits Limits, sink diag.Sink, source string) *Reader {
	return &Reader{r: r, limits: limits, sink: diag.OrNop(sink), source: source}
}

// Offset returns the stream offset of the next frame.
func (r *Reader) Offset() int64 { return r.offset }

// Next returns the next valid frame. io.EOF marks the end of the stream.
func (r *Reader) Next() (Frame, error) {
	start := r.offset
	f, err := ReadFrame(r.r, r.limits)
	if errors.Is(err, io.EOF) {
		return Frame{}, io.EOF
	}
	if err != nil {
		r.sink.Malformed(r.source, int(start), err)
		return Frame{}, err
	}
	r.offset += int64(f.Header.HeaderLen) + int64(f.Header.PayloadLen)
	diag.RecordFrame("read", len(f.Payload))

	payloadStart := int(start) + int(f.Header.HeaderLen)
	if off, err := Validate(f.Payload); err != nil {
		r.sink.Malformed(r.source, payloadStart+off, err)
		return f, errors.Wrapf(err, "podio: frame %d at offset %d", f.Header.Seq, payloadStart+off)
	}
	log.Debug().
		Str("source", r.source).
		Uint64("seq", f.Header.Seq).
		Int("payload_len", len(f.Payload)).
		Msg("pod frame read")
	return f, nil
}

// SaveDump writes a raw, unframed pod buffer to path.
func SaveDump(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "podio: save dump %s", path)
	}
	return nil
}

// LoadDump reads a raw pod buffer from path. Files over maxBytes are
// rejected; 0 disables the check.
func LoadDump(path string, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 {
		st, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrapf(err, "podio: stat dump %s", path)
		}
		if st.Size() > maxBytes {
			return nil, errors.Wrapf(ErrPayloadTooLarge, "%s is %d bytes", path, st.Size())
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "podio: load dump %s", path)
	}
	return data, nil
}
