package stream

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alpacahq/alpaca-api-client-go/alpaca"
)

type gorillaWebsocketConn struct {
	conn *websocket.Conn
}

// newGorillaWebsocketConn creates a new gorilla websocket connection
func newGorillaWebsocketConn(ctx context.Context, u url.URL) (conn, error) {
	dialer := websocket.Dialer{
		Proxy:             http.ProxyFromEnvironment,
		HandshakeTimeout:  dialTimeout,
		EnableCompression: true,
	}
	reqHeader := http.Header{}
	reqHeader.Set("User-Agent", alpaca.Version())
	//nolint:bodyclose // the response body is closed by the dialer on success
	conn, _, err := dialer.DialContext(ctx, u.String(), reqHeader)
	if err != nil {
		return nil, &TransportError{Op: "dial", Err: err}
	}
	conn.SetReadLimit(readLimit)

	return &gorillaWebsocketConn{conn: conn}, nil
}

// close sends a close frame and closes the underlying connection
func (c *gorillaWebsocketConn) close() error {
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	return c.conn.Close()
}

// readMessage blocks until it reads a single data message. Pings are answered by
// the default ping handler while reading.
func (c *gorillaWebsocketConn) readMessage(ctx context.Context) (messageType, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	typ, data, err := c.conn.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) {
			return 0, nil, ErrConnectionClosed
		}
		return 0, nil, &TransportError{Op: "read", Err: err}
	}
	switch typ {
	case websocket.TextMessage:
		return messageText, data, nil
	case websocket.BinaryMessage:
		return messageBinary, data, nil
	}
	return messageOther, data, nil
}

// writeMessage writes a single text message
func (c *gorillaWebsocketConn) writeMessage(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}
