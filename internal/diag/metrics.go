package diag

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	malformedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "podwire",
			Subsystem: "decode",
			Name:      "malformed_total",
			Help:      "Malformed pod values rejected by readers.",
		},
		[]string{"source", "reason"},
	)
	frameBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "podwire",
			Subsystem: "stream",
			Name:      "payload_bytes_total",
			Help:      "Pod payload bytes moved through framed streams.",
		},
		[]string{"direction"},
	)
	frameCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "podwire",
			Subsystem: "stream",
			Name:      "frames_total",
			Help:      "Framed pod buffers moved through streams.",
		},
		[]string{"direction"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(malformedTotal, frameBytes, frameCount)
	})
}

// MetricsSink counts reports by source and reason.
type MetricsSink struct{}

// NewMetricsSink registers the collectors on first use.
func NewMetricsSink() MetricsSink {
	RegisterMetrics()
	return MetricsSink{}
}

func (MetricsSink) Malformed(source string, _ int, err error) {
	RegisterMetrics()
	malformedTotal.WithLabelValues(source, Reason(err)).Inc()
}

// RecordFrame counts one framed buffer; direction is "read" or "write".
func RecordFrame(direction string, payloadLen int) {
	RegisterMetrics()
	frameCount.WithLabelValues(direction).Inc()
	frameBytes.WithLabelValues(direction).Add(float64(payloadLen))
}
