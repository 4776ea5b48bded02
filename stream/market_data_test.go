package stream

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func withMockConn(mc *mockConn, urls chan<- url.URL) Option {
	return withConnCreator(func(_ context.Context, u url.URL) (conn, error) {
		if urls != nil {
			urls <- u
		}
		return mc, nil
	})
}

// acceptMarketData plays the server side of the handshake and returns the subscribe request
func acceptMarketData(t *testing.T, mc *mockConn) string {
	t.Helper()
	mc.sendText(`[{"T":"success","msg":"connected"}]`)
	expectWrite(t, mc)
	mc.sendText(`[{"T":"success","msg":"authenticated"}]`)
	sub := expectWrite(t, mc)
	mc.sendText(`[{"T":"subscription","trades":["AAPL"],"quotes":[],"bars":[]}]`)
	return sub
}

func collect(msgs *[]Message) MessageHandler {
	return MessageHandlerFunc(func(msg Message) {
		*msgs = append(*msgs, msg)
	})
}

func TestMarketDataStreamFlow(t *testing.T) {
	mc := newMockConn()
	s := NewStockStream(IEX, testCreds,
		WithLogger(zaptest.NewLogger(t).Sugar()), withMockConn(mc, nil)).
		SubscribeTrades("AAPL").
		SubscribeQuotes("MSFT", "SPY").
		SubscribeBars("*")

	var msgs []Message
	res := make(chan error, 1)
	go func() {
		res <- s.Start(context.Background(), collect(&msgs))
	}()

	sub := acceptMarketData(t, mc)
	assert.Equal(t, `{"action":"subscribe","trades":["AAPL"],"quotes":["MSFT","SPY"],"bars":["*"],`+
		`"dailyBars":[],"updatedBars":[]}`, sub)

	mc.sendText(`[{"T":"t","S":"AAPL","p":1,"s":2,"t":"2021-03-05T16:00:00Z"},{"T":"success","msg":"x"},` +
		`{"T":"q","S":"MSFT","bp":1,"bs":2,"ap":3,"as":4,"t":"2021-03-05T16:00:00Z"}]`)
	mc.sendText(`[]`)
	mc.readCh <- mockFrame{typ: messageOther}
	mc.sendText(`[{"T":"b","S":"SPY","o":1,"h":2,"l":0.5,"c":1.5,"v":10,"t":"2021-03-05T16:00:00Z","n":3,"vw":1.2}]`)
	mc.serverClose()

	select {
	case err := <-res:
		assert.ErrorIs(t, err, ErrConnectionClosed)
	case <-time.After(time.Second):
		require.Fail(t, "Start did not return")
	}
	assert.True(t, mc.isClosed())

	require.Len(t, msgs, 3)
	assert.Equal(t, "AAPL", msgs[0].(Trade).Symbol)
	assert.Equal(t, "MSFT", msgs[1].(Quote).Symbol)
	assert.Equal(t, "SPY", msgs[2].(Bar).Symbol)
}

func TestMarketDataStreamCloseAfterSubscribe(t *testing.T) {
	mc := newMockConn()
	s := NewCryptoStream(testCreds, withMockConn(mc, nil)).SubscribeTrades("BTC/USD")

	calls := 0
	res := make(chan error, 1)
	go func() {
		res <- s.Start(context.Background(), MessageHandlerFunc(func(Message) { calls++ }))
	}()
	acceptMarketData(t, mc)
	mc.serverClose()

	assert.ErrorIs(t, <-res, ErrConnectionClosed)
	assert.Zero(t, calls)
}

func TestMarketDataStreamDecodeError(t *testing.T) {
	mc := newMockConn()
	s := NewCryptoStream(testCreds, withMockConn(mc, nil))

	calls := 0
	res := make(chan error, 1)
	go func() {
		res <- s.Start(context.Background(), MessageHandlerFunc(func(Message) { calls++ }))
	}()
	acceptMarketData(t, mc)
	mc.sendText(`[{"T":"t","S":"BTC/USD","p":1,"s":1,"t":"2021-03-05T16:00:00Z"},{"T":"t","S":"ETH/USD"}]`)

	err := <-res
	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
	assert.Zero(t, calls)
	assert.True(t, mc.isClosed())
}

func TestMarketDataStreamAuthFailure(t *testing.T) {
	mc := newMockConn()
	s := NewStockStream(SIP, testCreds, withMockConn(mc, nil))

	res := make(chan error, 1)
	go func() {
		res <- s.Start(context.Background(), MessageHandlerFunc(func(Message) {}))
	}()
	mc.sendText(`[{"T":"success","msg":"connected"}]`)
	expectWrite(t, mc)
	mc.sendText(`[{"T":"error","code":402,"msg":"auth failed"}]`)

	err := <-res
	require.ErrorIs(t, err, ErrAuthFailed)
	assert.Contains(t, err.Error(), "auth failed")
	assert.True(t, mc.isClosed())
	assert.Empty(t, mc.writeCh, "nothing must be sent after a failed handshake")
}

func TestMarketDataStreamCancel(t *testing.T) {
	mc := newMockConn()
	s := NewStockStream(IEX, testCreds, withMockConn(mc, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	res := make(chan error, 1)
	go func() {
		res <- s.Start(ctx, MessageHandlerFunc(func(Message) {}))
	}()
	acceptMarketData(t, mc)
	cancel()

	select {
	case err := <-res:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		require.Fail(t, "Start did not return after cancel")
	}
	assert.True(t, mc.isClosed())
}

func TestMarketDataStreamSubscriptionSnapshot(t *testing.T) {
	mc := newMockConn()
	symbols := []string{"AAPL"}
	s := NewStockStream(IEX, testCreds, withMockConn(mc, nil)).SubscribeTrades(symbols...)
	// the setter copies its input
	symbols[0] = "MSFT"

	res := make(chan error, 1)
	go func() {
		res <- s.Start(context.Background(), MessageHandlerFunc(func(Message) {}))
	}()
	mc.sendText(`[{"T":"success","msg":"connected"}]`)
	expectWrite(t, mc)
	s.SubscribeTrades("TSLA").SubscribeQuotes("SPY")
	mc.sendText(`[{"T":"success","msg":"authenticated"}]`)

	assert.Equal(t, `{"action":"subscribe","trades":["AAPL"],"quotes":[],"bars":[],"dailyBars":[],"updatedBars":[]}`,
		expectWrite(t, mc))
	mc.serverClose()
	assert.ErrorIs(t, <-res, ErrConnectionClosed)
}

func TestMarketDataStreamSubscribeReplaces(t *testing.T) {
	mc := newMockConn()
	s := NewStockStream(SIP, testCreds, withMockConn(mc, nil)).
		SubscribeTrades("A").
		SubscribeTrades("B").
		SubscribeDailyBars("X", "Y").
		SubscribeUpdatedBars("Z")

	res := make(chan error, 1)
	go func() {
		res <- s.Start(context.Background(), MessageHandlerFunc(func(Message) {}))
	}()
	sub := acceptMarketData(t, mc)
	assert.Equal(t, `{"action":"subscribe","trades":["B"],"quotes":[],"bars":[],`+
		`"dailyBars":["X","Y"],"updatedBars":["Z"]}`, sub)
	mc.serverClose()
	assert.ErrorIs(t, <-res, ErrConnectionClosed)
}

func TestMarketDataStreamCancelledHandshakeIsNotAnError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	mc := newMockConn()
	s := NewStockStream(IEX, testCreds, WithLogger(zap.New(core).Sugar()), withMockConn(mc, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Start(ctx, MessageHandlerFunc(func(Message) {}))
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, mc.isClosed())
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet("stopped during handshake").Len())
}

func TestMarketDataStreamFailedDialIsAnError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewStockStream(IEX, testCreds, WithLogger(zap.New(core).Sugar()),
		withConnCreator(func(context.Context, url.URL) (conn, error) {
			return nil, &TransportError{Op: "dial", Err: errors.New("refused")}
		}))

	assert.Error(t, s.Start(context.Background(), MessageHandlerFunc(func(Message) {})))
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestMarketDataStreamStartCalledMultipleTimes(t *testing.T) {
	errDial := errors.New("dial failed")
	s := NewStockStream(IEX, testCreds, withConnCreator(func(context.Context, url.URL) (conn, error) {
		return nil, &TransportError{Op: "dial", Err: errDial}
	}))

	err := s.Start(context.Background(), MessageHandlerFunc(func(Message) {}))
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "dial", transportErr.Op)
	assert.ErrorIs(t, err, errDial)

	err = s.Start(context.Background(), MessageHandlerFunc(func(Message) {}))
	assert.ErrorIs(t, err, ErrStartCalledMultipleTimes)
}

func TestMarketDataStreamNilHandler(t *testing.T) {
	mc := newMockConn()
	s := NewCryptoStream(testCreds, withMockConn(mc, nil))

	assert.ErrorIs(t, s.Start(context.Background(), nil), ErrNilHandler)
	assert.ErrorIs(t, s.Start(context.Background(), MessageHandlerFunc(nil)), ErrNilHandler)

	// a rejected handler does not use up the stream
	res := make(chan error, 1)
	go func() {
		res <- s.Start(context.Background(), MessageHandlerFunc(func(Message) {}))
	}()
	acceptMarketData(t, mc)
	mc.serverClose()
	assert.ErrorIs(t, <-res, ErrConnectionClosed)
}

func TestMarketDataStreamURL(t *testing.T) {
	for _, tc := range []struct {
		name     string
		stream   func(opts ...Option) *MarketDataStream
		opts     []Option
		expected string
	}{
		{
			name:     "iex",
			stream:   func(opts ...Option) *MarketDataStream { return NewStockStream(IEX, testCreds, opts...) },
			expected: "wss://stream.data.alpaca.markets/v2/iex",
		},
		{
			name:     "delayed sip",
			stream:   func(opts ...Option) *MarketDataStream { return NewStockStream(DelayedSIP, testCreds, opts...) },
			expected: "wss://stream.data.alpaca.markets/v2/delayed_sip",
		},
		{
			name:     "crypto",
			stream:   func(opts ...Option) *MarketDataStream { return NewCryptoStream(testCreds, opts...) },
			expected: "wss://stream.data.alpaca.markets/v1beta3/crypto/us",
		},
		{
			name:     "http base url",
			stream:   func(opts ...Option) *MarketDataStream { return NewStockStream(TestFeed, testCreds, opts...) },
			opts:     []Option{WithBaseURL("http://localhost:8080/proxy")},
			expected: "ws://localhost:8080/proxy/test",
		},
		{
			name:     "https base url",
			stream:   func(opts ...Option) *MarketDataStream { return NewCryptoStream(testCreds, opts...) },
			opts:     []Option{WithBaseURL("https://example.com/crypto")},
			expected: "wss://example.com/crypto/us",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			urls := make(chan url.URL, 1)
			mc := newMockConn()
			mc.serverClose()
			s := tc.stream(append(tc.opts, withMockConn(mc, urls))...)

			err := s.Start(context.Background(), MessageHandlerFunc(func(Message) {}))
			assert.ErrorIs(t, err, ErrConnectionClosed)
			u := <-urls
			assert.Equal(t, tc.expected, u.String())
		})
	}
}

func TestMarketDataStreamInvalidBaseURL(t *testing.T) {
	s := NewStockStream(IEX, testCreds, WithBaseURL("http://192.168.0.%31/"))
	err := s.Start(context.Background(), MessageHandlerFunc(func(Message) {}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid base url")
}
