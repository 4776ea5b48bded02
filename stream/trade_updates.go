package stream

import (
	"context"
	"fmt"

	"github.com/alpacahq/alpaca-api-client-go/common"
)

// AccountType selects the trading environment
type AccountType int

const (
	// Paper is the paper trading environment
	Paper AccountType = iota
	// Live is the live trading environment
	Live
)

const (
	paperBaseURL = "https://paper-api.alpaca.markets"
	liveBaseURL  = "https://api.alpaca.markets"
)

// TradeUpdateStream is a single session of the order updates of an account
type TradeUpdateStream struct {
	*client
}

// NewTradeUpdateStream returns a stream of the trade updates of the account the credentials belong to
func NewTradeUpdateStream(accountType AccountType, creds common.Credentials, opts ...Option) *TradeUpdateStream {
	baseURL := paperBaseURL
	if accountType == Live {
		baseURL = liveBaseURL
	}
	o := defaultOptions(baseURL)
	o.applyAll(opts)
	return &TradeUpdateStream{
		client: newClient(feedTradeUpdates, creds, o),
	}
}

// Start connects, authenticates, listens to trade updates and calls handler with
// each of them until the connection ends. Like MarketDataStream.Start it blocks
// and always returns a non-nil error.
func (s *TradeUpdateStream) Start(ctx context.Context, handler TradeUpdateHandler) error {
	if err := s.begin(isNilTradeUpdateHandler(handler)); err != nil {
		return err
	}

	u, err := s.constructURL("/stream")
	if err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	conn, err := s.connect(ctx, u, tradeUpdatesAuthenticator{})
	if err != nil {
		return err
	}
	defer conn.close()

	if err := writeJSON(ctx, conn, listenRequest{streams: []string{tradeUpdatesStream}}); err != nil {
		return s.terminated(ctx, err)
	}
	s.logger.Infof("stream: listening to %s", tradeUpdatesStream)

	for {
		b, err := s.readFrame(ctx, conn)
		if err != nil {
			return s.terminated(ctx, err)
		}
		tu, ok, err := decodeTradeUpdate(b)
		if err != nil {
			s.metrics.decodeFailed(s.feed)
			return s.terminated(ctx, err)
		}
		if !ok {
			continue
		}
		s.metrics.messageHandled(s.feed, tradeUpdatesStream)
		handler.HandleTradeUpdate(tu)
	}
}
