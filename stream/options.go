package stream

import (
	"context"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
)

// Option is a configuration option for both MarketDataStream and TradeUpdateStream
type Option interface {
	apply(*options)
}

// Transport selects the websocket library used for the connection
type Transport int

const (
	// TransportNhooyr uses nhooyr.io/websocket
	TransportNhooyr Transport = iota
	// TransportGorilla uses github.com/gorilla/websocket
	TransportGorilla
)

type options struct {
	logger     Logger
	baseURL    string
	registerer prometheus.Registerer

	connCreator func(ctx context.Context, u url.URL) (conn, error)
}

type funcOption struct {
	f func(*options)
}

func (fo *funcOption) apply(o *options) {
	fo.f(o)
}

func newFuncOption(f func(*options)) *funcOption {
	return &funcOption{
		f: f,
	}
}

// WithLogger configures the logger
func WithLogger(logger Logger) Option {
	return newFuncOption(func(o *options) {
		o.logger = logger
	})
}

// WithBaseURL configures the base URL. The path of the endpoint is appended to it,
// http and ws schemes connect with ws, everything else with wss.
func WithBaseURL(url string) Option {
	return newFuncOption(func(o *options) {
		o.baseURL = url
	})
}

// WithTransport configures the websocket library. The default is TransportNhooyr.
func WithTransport(t Transport) Option {
	return newFuncOption(func(o *options) {
		switch t {
		case TransportGorilla:
			o.connCreator = newGorillaWebsocketConn
		default:
			o.connCreator = newNhooyrWebsocketConn
		}
	})
}

// WithMetrics registers the stream counters with reg. Streams sharing a
// registerer share the counters.
func WithMetrics(reg prometheus.Registerer) Option {
	return newFuncOption(func(o *options) {
		o.registerer = reg
	})
}

func withConnCreator(connCreator func(ctx context.Context, u url.URL) (conn, error)) Option {
	return newFuncOption(func(o *options) {
		o.connCreator = connCreator
	})
}

func defaultOptions(baseURL string) *options {
	return &options{
		logger:      DefaultLogger(),
		baseURL:     baseURL,
		connCreator: newNhooyrWebsocketConn,
	}
}

func (o *options) applyAll(opts []Option) {
	for _, opt := range opts {
		opt.apply(o)
	}
	if o.logger == nil {
		o.logger = DefaultLogger()
	}
}
