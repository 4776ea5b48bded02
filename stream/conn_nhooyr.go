package stream

import (
	"context"
	"net/http"
	"net/url"

	"nhooyr.io/websocket"

	"github.com/alpacahq/alpaca-api-client-go/alpaca"
)

type nhooyrWebsocketConn struct {
	conn *websocket.Conn
}

// newNhooyrWebsocketConn creates a new nhooyr websocket connection
func newNhooyrWebsocketConn(ctx context.Context, u url.URL) (conn, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	reqHeader := http.Header{}
	reqHeader.Set("User-Agent", alpaca.Version())
	//nolint:bodyclose // According to its docs: you never need to close resp.Body yourself
	conn, _, err := websocket.Dial(ctxWithTimeout, u.String(), &websocket.DialOptions{
		CompressionMode: websocket.CompressionContextTakeover,
		HTTPHeader:      reqHeader,
	})
	if err != nil {
		return nil, &TransportError{Op: "dial", Err: err}
	}
	conn.SetReadLimit(readLimit)

	return &nhooyrWebsocketConn{conn: conn}, nil
}

// close closes the websocket connection
func (c *nhooyrWebsocketConn) close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}

// readMessage blocks until it reads a single data message. Pings are answered by the library.
func (c *nhooyrWebsocketConn) readMessage(ctx context.Context) (messageType, []byte, error) {
	typ, data, err := c.conn.Read(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}
		if websocket.CloseStatus(err) != -1 {
			return 0, nil, ErrConnectionClosed
		}
		return 0, nil, &TransportError{Op: "read", Err: err}
	}
	switch typ {
	case websocket.MessageText:
		return messageText, data, nil
	case websocket.MessageBinary:
		return messageBinary, data, nil
	}
	return messageOther, data, nil
}

// writeMessage writes a single text message
func (c *nhooyrWebsocketConn) writeMessage(ctx context.Context, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()

	if err := c.conn.Write(writeCtx, websocket.MessageText, data); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}
