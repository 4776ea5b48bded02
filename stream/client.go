package stream

import (
	"context"
	"errors"
	"net/url"
	"sync/atomic"

	"github.com/alpacahq/alpaca-api-client-go/common"
)

// client holds what is common to the market data and the trade updates streams
type client struct {
	logger      Logger
	baseURL     string
	feed        string
	creds       common.Credentials
	metrics     *metrics
	connCreator func(ctx context.Context, u url.URL) (conn, error)

	started atomic.Bool
}

func newClient(feed string, creds common.Credentials, o *options) *client {
	return &client{
		logger:      o.logger,
		baseURL:     o.baseURL,
		feed:        feed,
		creds:       creds,
		metrics:     newMetrics(o.registerer),
		connCreator: o.connCreator,
	}
}

func (c *client) constructURL(path string) (url.URL, error) {
	scheme := "wss"
	ub, err := url.Parse(c.baseURL)
	if err != nil {
		return url.URL{}, err
	}
	switch ub.Scheme {
	case "http", "ws":
		scheme = "ws"
	}

	return url.URL{Scheme: scheme, Host: ub.Host, Path: ub.Path + path}, nil
}

// begin marks the stream as started and validates the handler
func (c *client) begin(handlerIsNil bool) error {
	if handlerIsNil {
		return ErrNilHandler
	}
	if !c.started.CompareAndSwap(false, true) {
		return ErrStartCalledMultipleTimes
	}
	return nil
}

// connect dials u and performs the handshake of a. The caller must close the returned conn.
func (c *client) connect(ctx context.Context, u url.URL, a authenticator) (conn, error) {
	c.logger.Infof("stream: connecting to %s", u.String())
	conn, err := c.connCreator(ctx, u)
	if err != nil {
		if ctx.Err() != nil {
			c.logger.Infof("stream: stopped while connecting to %s: %v", u.String(), err)
		} else {
			c.logger.Errorf("stream: failed to connect to %s: %v", u.String(), err)
		}
		return nil, err
	}
	if err := a.authenticate(ctx, conn, c.creds); err != nil {
		conn.close()
		switch {
		case errors.Is(err, ErrAuthFailed):
			c.metrics.authFailed(c.feed)
			c.logger.Errorf("stream: handshake failed: %v", err)
		case ctx.Err() != nil:
			c.logger.Infof("stream: stopped during handshake: %v", err)
		default:
			c.logger.Errorf("stream: handshake failed: %v", err)
		}
		return nil, err
	}
	c.logger.Infof("stream: authenticated")
	return conn, nil
}

// readFrame reads the next text frame of the session
func (c *client) readFrame(ctx context.Context, conn conn) ([]byte, error) {
	b, err := readText(ctx, conn)
	if err != nil {
		return nil, err
	}
	c.metrics.frameReceived(c.feed)
	return b, nil
}

// terminated logs the end of the session and returns err
func (c *client) terminated(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrConnectionClosed):
		c.logger.Infof("stream: connection closed by the server")
	case ctx.Err() != nil:
		c.logger.Infof("stream: stopped: %v", err)
	default:
		c.logger.Errorf("stream: terminated: %v", err)
	}
	return err
}
