package podio

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	FixedHeaderLen uint16 = 24
	Magic          uint32 = 0x504f4457 // "PODW"
	Version        uint16 = 1

	// FlagEndOfStream marks the last frame a writer intends to send.
	FlagEndOfStream uint32 = 0x01
)

var (
	ErrShortHeader       = errors.New("podio: short fixed header")
	ErrBadMagic          = errors.New("podio: bad magic")
	ErrVersion           = errors.New("podio: unsupported version")
	ErrHeaderLenTooSmall = errors.New("podio: header_len smaller than fixed header")
	ErrPayloadTooLarge   = errors.New("podio: payload too large")
	ErrUnalignedPayload  = errors.New("podio: payload length not 8 byte aligned")
)

// Header is the fixed stream header in front of every pod buffer. All
// fields are little-endian like the pod values they carry.
type Header struct {
	Magic      uint32
	Version    uint16
	HeaderLen  uint16
	Seq        uint64
	Flags      uint32
	PayloadLen uint32
}

// Frame is one pod buffer as it travels through a stream.
type Frame struct {
	Header  Header
	Payload []byte
}

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes uint32
}

func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: 8 * 1024 * 1024}
}

// ReadFrame reads one frame. A clean end of stream before the first header
// byte is reported as io.EOF.
func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var fixed [FixedHeaderLen]byte
	if n, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return Frame{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrShortHeader
		}
		return Frame{}, errors.Wrap(err, "podio: read header")
	}

	h, err := DecodeHeader(fixed[:])
	if err != nil {
		return Frame{}, err
	}
	if h.Magic != Magic {
		return Frame{}, errors.Wrapf(ErrBadMagic, "got %#08x", h.Magic)
	}
	if h.Version != Version {
		return Frame{}, errors.Wrapf(ErrVersion, "got %d", h.Version)
	}
	if h.HeaderLen < FixedHeaderLen {
		return Frame{}, ErrHeaderLenTooSmall
	}
	if h.PayloadLen > limits.MaxPayloadBytes {
		return Frame{}, errors.Wrapf(ErrPayloadTooLarge, "%d > %d", h.PayloadLen, limits.MaxPayloadBytes)
	}
	if h.PayloadLen%8 != 0 {
		return Frame{}, errors.Wrapf(ErrUnalignedPayload, "%d bytes", h.PayloadLen)
	}

	// header extensions from newer writers are skipped
	if extra := int64(h.HeaderLen - FixedHeaderLen); extra > 0 {
		if _, err := io.CopyN(io.Discard, r, extra); err != nil {
			return Frame{}, errors.Wrap(err, "podio: skip header extension")
		}
	}

	payload := make([]byte, h.PayloadLen)
	if h.PayloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, errors.Wrapf(err, "podio: read payload of frame %d", h.Seq)
		}
	}
	return Frame{Header: h, Payload: payload}, nil
}

// WriteFrame fills in magic, version and lengths and writes f.
func WriteFrame(w io.Writer, f Frame, limits Limits) error {
	if uint64(len(f.Payload)) > uint64(limits.MaxPayloadBytes) {
		return errors.Wrapf(ErrPayloadTooLarge, "%d > %d", len(f.Payload), limits.MaxPayloadBytes)
	}
	if len(f.Payload)%8 != 0 {
		return errors.Wrapf(ErrUnalignedPayload, "%d bytes", len(f.Payload))
	}

	h := f.Header
	h.Magic = Magic
	h.Version = Version
	h.HeaderLen = FixedHeaderLen
	h.PayloadLen = uint32(len(f.Payload))

	if _, err := w.Write(EncodeHeader(h)); err != nil {
		return errors.Wrap(err, "podio: write header")
	}
	if len(f.Payload) > 0 {
		if _, err := w.Write(f.Payload); err != nil {
			return errors.Wrapf(err, "podio: write payload of frame %d", h.Seq)
		}
	}
	return nil
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, FixedHeaderLen)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], h.HeaderLen)
	binary.LittleEndian.PutUint64(buf[8:16], h.Seq)
	binary.LittleEndian.PutUint32(buf[16:20], h.Flags)
	binary.LittleEndian.PutUint32(buf[20:24], h.PayloadLen)
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) != int(FixedHeaderLen) {
		return Header{}, errors.Errorf("podio: invalid fixed header length: %d", len(b))
	}
	return Header{
		Magic:      binary.LittleEndian.Uint32(b[0:4]),
		Version:    binary.LittleEndian.Uint16(b[4:6]),
		HeaderLen:  binary.LittleEndian.Uint16(b[6:8]),
		Seq:        binary.LittleEndian.Uint64(b[8:16]),
		Flags:      binary.LittleEndian.Uint32(b[16:20]),
		PayloadLen: binary.LittleEndian.Uint32(b[20:24]),
	}, nil
}
