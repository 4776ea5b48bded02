package stream

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/mailru/easyjson"
)

const (
	dialTimeout = 10 * time.Second
	writeWait   = 5 * time.Second
	// a frame may batch many trades, quotes and bars of wildcard subscriptions
	readLimit = 16 << 20
)

type messageType int

const (
	messageText messageType = iota + 1
	messageBinary
	messageOther
)

// conn is a websocket connection. Implementations answer pings while reading and
// return ErrConnectionClosed when the server sends a close frame.
type conn interface {
	close() error
	readMessage(ctx context.Context) (messageType, []byte, error)
	writeMessage(ctx context.Context, data []byte) error
}

// readText blocks until the next text frame arrives. Binary frames are accepted
// if they hold UTF-8 text, every other frame type is skipped.
func readText(ctx context.Context, c conn) ([]byte, error) {
	for {
		typ, data, err := c.readMessage(ctx)
		if err != nil {
			return nil, err
		}
		switch typ {
		case messageText:
			return data, nil
		case messageBinary:
			if !utf8.Valid(data) {
				return nil, ErrMalformedFrame
			}
			return data, nil
		}
	}
}

// writeJSON encodes v and writes it as a single text frame
func writeJSON(ctx context.Context, c conn, v easyjson.Marshaler) error {
	data, err := easyjson.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return c.writeMessage(ctx, data)
}
