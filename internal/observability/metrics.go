package observability

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/danmuck/roomwire/internal/protocol"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

var (
	registerOnce sync.Once

	sessionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "roomwire",
			Subsystem: "session",
			Name:      "active",
			Help:      "Currently open sessions.",
		},
		[]string{"node"},
	)
	sessionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "roomwire",
			Subsystem: "session",
			Name:      "duration_seconds",
			Help:      "Session lifetime in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		},
		[]string{"node"},
	)
	frames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomwire",
			Subsystem: "wire",
			Name:      "frames_total",
			Help:      "Frames sent or received.",
		},
		[]string{"node", "direction", "kind"},
	)
	exchangeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "roomwire",
			Subsystem: "wire",
			Name:      "exchange_duration_seconds",
			Help:      "Time from request decode to response flush.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "request", "response"},
	)
	joins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomwire",
			Subsystem: "registry",
			Name:      "joins_total",
			Help:      "Join attempts by outcome.",
		},
		[]string{"node", "outcome"},
	)
	decodeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomwire",
			Subsystem: "wire",
			Name:      "decode_failures_total",
			Help:      "Frames that failed to decode, by reason.",
		},
		[]string{"node", "reason"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(sessionsActive, sessionDuration, frames, exchangeDuration, joins, decodeFailures)
	})
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

func RecordSessionOpened(node string) {
	RegisterMetrics()
	sessionsActive.WithLabelValues(node).Inc()
}

func RecordSessionClosed(node string, lifetime time.Duration) {
	RegisterMetrics()
	sessionsActive.WithLabelValues(node).Dec()
	sessionDuration.WithLabelValues(node).Observe(lifetime.Seconds())
}

func RecordFrame(node, direction string, f protocol.Frame) {
	if f == nil {
		return
	}
	RegisterMetrics()
	frames.WithLabelValues(node, direction, f.Kind()).Inc()
}

func RecordJoin(node string, accepted bool) {
	RegisterMetrics()
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	joins.WithLabelValues(node, outcome).Inc()
}

// RecordDecodeFailure counts framing errors; transport errors are ignored.
func RecordDecodeFailure(node string, err error) {
	reason := DecodeFailureReason(err)
	if reason == "" {
		return
	}
	RegisterMetrics()
	decodeFailures.WithLabelValues(node, reason).Inc()
}

// DecodeFailureReason maps a framing error to its metric label, or "" when
// err is not a framing error.
func DecodeFailureReason(err error) string {
	switch {
	case err == nil || !protocol.IsDecodeError(err):
		return ""
	case errors.Is(err, protocol.ErrInvalidTag):
		return "invalid_tag"
	case errors.Is(err, protocol.ErrInvalidEncoding):
		return "invalid_encoding"
	case errors.Is(err, protocol.ErrUnexpectedEOF):
		return "unexpected_eof"
	default:
		return "other"
	}
}
