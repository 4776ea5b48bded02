package stream

import (
	"context"
	"fmt"

	"github.com/alpacahq/alpaca-api-client-go/common"
)

// Feed is the source of the stock market data
type Feed string

const (
	// IEX is the free Investors Exchange feed
	IEX Feed = "iex"
	// SIP is the consolidated feed of all US exchanges
	SIP Feed = "sip"
	// DelayedSIP is the SIP feed delayed by 15 minutes
	DelayedSIP Feed = "delayed_sip"
	// TestFeed streams fake data for the FAKEPACA symbol at any time of the day
	TestFeed Feed = "test"
)

const (
	stocksBaseURL  = "https://stream.data.alpaca.markets/v2"
	cryptoBaseURL  = "https://stream.data.alpaca.markets/v1beta3/crypto"
	cryptoLocation = "us"
)

type subscriptions struct {
	trades      []string
	quotes      []string
	bars        []string
	dailyBars   []string
	updatedBars []string
}

func (s subscriptions) clone() subscriptions {
	return subscriptions{
		trades:      copySymbols(s.trades),
		quotes:      copySymbols(s.quotes),
		bars:        copySymbols(s.bars),
		dailyBars:   copySymbols(s.dailyBars),
		updatedBars: copySymbols(s.updatedBars),
	}
}

func copySymbols(symbols []string) []string {
	if symbols == nil {
		return nil
	}
	res := make([]string, len(symbols))
	copy(res, symbols)
	return res
}

// MarketDataStream is a single market data session. Configure the subscriptions
// with the Subscribe methods, then call Start.
type MarketDataStream struct {
	*client

	path string
	sub  subscriptions
}

// NewStockStream returns a stream of the given stock feed
func NewStockStream(feed Feed, creds common.Credentials, opts ...Option) *MarketDataStream {
	return newMarketDataStream(stocksBaseURL, "/"+string(feed), creds, opts)
}

// NewCryptoStream returns a stream of the US crypto feed
func NewCryptoStream(creds common.Credentials, opts ...Option) *MarketDataStream {
	return newMarketDataStream(cryptoBaseURL, "/"+cryptoLocation, creds, opts)
}

func newMarketDataStream(baseURL, path string, creds common.Credentials, opts []Option) *MarketDataStream {
	o := defaultOptions(baseURL)
	o.applyAll(opts)
	return &MarketDataStream{
		client: newClient(feedMarketData, creds, o),
		path:   path,
	}
}

// SubscribeTrades replaces the symbols to receive trades of
func (s *MarketDataStream) SubscribeTrades(symbols ...string) *MarketDataStream {
	s.sub.trades = copySymbols(symbols)
	return s
}

// SubscribeQuotes replaces the symbols to receive quotes of
func (s *MarketDataStream) SubscribeQuotes(symbols ...string) *MarketDataStream {
	s.sub.quotes = copySymbols(symbols)
	return s
}

// SubscribeBars replaces the symbols to receive minute bars of
func (s *MarketDataStream) SubscribeBars(symbols ...string) *MarketDataStream {
	s.sub.bars = copySymbols(symbols)
	return s
}

// SubscribeDailyBars replaces the symbols to receive daily bars of
func (s *MarketDataStream) SubscribeDailyBars(symbols ...string) *MarketDataStream {
	s.sub.dailyBars = copySymbols(symbols)
	return s
}

// SubscribeUpdatedBars replaces the symbols to receive updated bars of
func (s *MarketDataStream) SubscribeUpdatedBars(symbols ...string) *MarketDataStream {
	s.sub.updatedBars = copySymbols(symbols)
	return s
}

// Start connects, authenticates, subscribes and then calls handler with every
// message until the connection ends. It blocks for the whole session and always
// returns a non-nil error: ErrConnectionClosed when the server closed the
// connection, ctx.Err() when ctx was cancelled.
//
// Start can be called only once. Subscribe calls after Start have no effect on the session.
func (s *MarketDataStream) Start(ctx context.Context, handler MessageHandler) error {
	if err := s.begin(isNilMessageHandler(handler)); err != nil {
		return err
	}
	sub := s.sub.clone()

	u, err := s.constructURL(s.path)
	if err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	conn, err := s.connect(ctx, u, marketDataAuthenticator{})
	if err != nil {
		return err
	}
	defer conn.close()

	if err := writeJSON(ctx, conn, subscribeRequest(sub)); err != nil {
		return s.terminated(ctx, err)
	}
	// the confirmation lists the active subscriptions, it is not checked
	if _, err := readText(ctx, conn); err != nil {
		return s.terminated(ctx, err)
	}
	s.logger.Infof("stream: subscribed to trades: %v, quotes: %v, bars: %v, daily bars: %v, updated bars: %v",
		sub.trades, sub.quotes, sub.bars, sub.dailyBars, sub.updatedBars)

	for {
		b, err := s.readFrame(ctx, conn)
		if err != nil {
			return s.terminated(ctx, err)
		}
		msgs, err := decodeMessages(b)
		if err != nil {
			s.metrics.decodeFailed(s.feed)
			return s.terminated(ctx, err)
		}
		for _, msg := range msgs {
			s.metrics.messageHandled(s.feed, msg.messageType())
			handler.HandleMessage(msg)
		}
	}
}
