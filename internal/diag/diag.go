// Package diag receives reports about malformed encoded data.
//
// Ownership boundary:
// - Decoders report what they rejected and where; they never retry or repair.
// - Sinks decide what a report turns into (a log line, a counter, nothing).
package diag

import (
	"errors"

	"github.com/danmuck/podwire/internal/pod"
)

// Sink is told about every malformed value a reader rejects. source names
// the stream (file path, pipe name) and offset is relative to its start.
type Sink interface {
	Malformed(source string, offset int, err error)
}

// Nop drops every report.
type Nop struct{}

func (Nop) Malformed(string, int, error) {}

// Multi fans one report out to several sinks in order.
type Multi []Sink

func (m Multi) Malformed(source string, offset int, err error) {
	for _, s := range m {
		if s != nil {
			s.Malformed(source, offset, err)
		}
	}
}

// OrNop returns s, or Nop when s is nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop{}
	}
	return s
}

// Reason maps an error onto a short, bounded label.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, pod.ErrTruncated):
		return "truncated"
	case errors.Is(err, pod.ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, pod.ErrInvalidLength):
		return "invalid_length"
	case errors.Is(err, pod.ErrTypeMismatch):
		return "type_mismatch"
	case errors.Is(err, pod.ErrPropertyExpected), errors.Is(err, pod.ErrControlExpected):
		return "bad_container"
	case errors.Is(err, pod.ErrMissingProperty):
		return "missing_property"
	default:
		return "other"
	}
}
