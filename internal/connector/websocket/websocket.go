// Package websocket implements connector.Dialer over gorilla/websocket.
package websocket

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/crimson-sun/logstream/internal/connector"
)

const closeGrace = time.Second

// Dialer opens WebSocket stream connections.
type Dialer struct {
	dialer *websocket.Dialer
	header http.Header
}

// Option configures a Dialer.
type Option func(*Dialer)

// WithHandshakeTimeout bounds the opening handshake. Zero (the default)
// means no bound beyond the dial context.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(dl *Dialer) { dl.dialer.HandshakeTimeout = d }
}

// WithHeader sets extra handshake headers.
func WithHeader(h http.Header) Option {
	return func(dl *Dialer) { dl.header = h }
}

// New creates a Dialer.
func New(opts ...Option) *Dialer {
	d := &Dialer{
		dialer: &websocket.Dialer{
			Proxy:             http.ProxyFromEnvironment,
			EnableCompression: true,
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dial connects to target, a ws:// or wss:// URL.
func (d *Dialer) Dial(ctx context.Context, target string) (connector.Conn, error) {
	ws, resp, err := d.dialer.DialContext(ctx, target, d.header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial %s: %w (HTTP %d)", connector.RedactURL(target), err, resp.StatusCode)
		}
		return nil, fmt.Errorf("websocket dial %s: %w", connector.RedactURL(target), err)
	}
	return &Conn{ws: ws}, nil
}

// Conn adapts a gorilla connection to connector.Conn.
type Conn struct {
	ws        *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

// ReadMessage returns the payload of the next text or binary message.
func (c *Conn) ReadMessage() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	return data, err
}

// Close sends a normal-closure frame and closes the socket.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
