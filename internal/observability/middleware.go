package observability

import (
	"time"

	"github.com/danmuck/roomwire/internal/protocol"
	"github.com/rs/zerolog"
)

// ExchangeLogger logs one request/response exchange. Error responses log at
// warn, rejected joins at info, everything else at debug.
func ExchangeLogger(logger zerolog.Logger, req protocol.Request, resp protocol.Response, took time.Duration) {
	event := logger.Debug()
	switch resp.(type) {
	case protocol.Error:
		event = logger.Warn()
	case protocol.JoinReject:
		event = logger.Info()
	}
	event.
		Str("request", req.Kind()).
		Str("response", resp.Kind()).
		Dur("duration", took).
		Msg("roomd.exchange")
}

// ExchangeMetrics records counters for one request/response exchange.
func ExchangeMetrics(node string, req protocol.Request, resp protocol.Response, took time.Duration) {
	RegisterMetrics()
	RecordFrame(node, DirectionIn, req)
	RecordFrame(node, DirectionOut, resp)
	exchangeDuration.WithLabelValues(node, req.Kind(), resp.Kind()).Observe(took.Seconds())
	if _, ok := req.(protocol.Join); ok {
		_, accepted := resp.(protocol.Joined)
		RecordJoin(node, accepted)
	}
}
