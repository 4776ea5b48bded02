package stream

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	feedMarketData   = "market_data"
	feedTradeUpdates = "trade_updates"
)

// metrics are the stream counters. A nil *metrics records nothing.
type metrics struct {
	framesReceived *prometheus.CounterVec
	messages       *prometheus.CounterVec
	decodeErrors   *prometheus.CounterVec
	authFailures   *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	return &metrics{
		framesReceived: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alpaca",
			Subsystem: "stream",
			Name:      "frames_received_total",
			Help:      "Number of text frames received after the handshake.",
		}, []string{"feed"})),
		messages: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alpaca",
			Subsystem: "stream",
			Name:      "messages_total",
			Help:      "Number of messages passed to the handler.",
		}, []string{"feed", "type"})),
		decodeErrors: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alpaca",
			Subsystem: "stream",
			Name:      "decode_errors_total",
			Help:      "Number of frames that could not be decoded.",
		}, []string{"feed"})),
		authFailures: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alpaca",
			Subsystem: "stream",
			Name:      "auth_failures_total",
			Help:      "Number of handshakes rejected by the server.",
		}, []string{"feed"})),
	}
}

// register returns the already registered collector if there is one
func register(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return c
}

func (m *metrics) frameReceived(feed string) {
	if m == nil {
		return
	}
	m.framesReceived.WithLabelValues(feed).Inc()
}

func (m *metrics) messageHandled(feed, typ string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(feed, typ).Inc()
}

func (m *metrics) decodeFailed(feed string) {
	if m == nil {
		return
	}
	m.decodeErrors.WithLabelValues(feed).Inc()
}

func (m *metrics) authFailed(feed string) {
	if m == nil {
		return
	}
	m.authFailures.WithLabelValues(feed).Inc()
}
