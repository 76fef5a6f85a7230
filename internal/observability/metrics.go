package observability

import (
	"errors"
	"sync"

	"github.com/danmuck/tlvwire/internal/protocol"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	packetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tlvwire",
			Subsystem: "transport",
			Name:      "packets_total",
			Help:      "Packets moved through the transport.",
		},
		[]string{"direction", "type"},
	)
	packetBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tlvwire",
			Subsystem: "transport",
			Name:      "bytes_total",
			Help:      "Packet bytes moved through the transport.",
		},
		[]string{"direction"},
	)
	decodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tlvwire",
			Subsystem: "codec",
			Name:      "decode_errors_total",
			Help:      "Packets rejected by the decoder, by reason.",
		},
		[]string{"reason"},
	)
)

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(packetsTotal, packetBytes, decodeErrors)
	})
}

func RecordPacket(direction, packetType string, size int) {
	RegisterMetrics()
	packetsTotal.WithLabelValues(direction, packetType).Inc()
	packetBytes.WithLabelValues(direction).Add(float64(size))
}

func RecordDecodeError(err error) {
	RegisterMetrics()
	decodeErrors.WithLabelValues(DecodeErrorReason(err)).Inc()
}

// DecodeErrorReason maps a decode error onto a bounded label value.
func DecodeErrorReason(err error) string {
	switch {
	case errors.Is(err, protocol.ErrTruncatedInput):
		return "truncated_input"
	case errors.Is(err, protocol.ErrTruncatedValue):
		return "truncated_value"
	case errors.Is(err, protocol.ErrOversizedLength):
		return "oversized_length"
	case errors.Is(err, protocol.ErrTrailingGarbage):
		return "trailing_garbage"
	case errors.Is(err, protocol.ErrInvalidLength):
		return "invalid_length"
	default:
		return "other"
	}
}
