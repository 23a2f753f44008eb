package diag

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogSink writes one warning per report.
type LogSink struct {
	Logger *zerolog.Logger
}

// NewLogSink returns a sink on the global logger.
func NewLogSink() LogSink {
	return LogSink{}
}

func (s LogSink) Malformed(source string, offset int, err error) {
	logger := s.Logger
	if logger == nil {
		logger = &log.Logger
	}
	logger.Warn().
		Str("source", source).
		Int("offset", offset).
		Str("reason", Reason(err)).
		Err(err).
		Msg("malformed pod data")
}
