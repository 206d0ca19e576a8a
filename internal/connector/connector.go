package connector

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// StreamPath is the backend endpoint that fans out live log frames.
const StreamPath = "/api/logs/stream"

// Conn is an open stream connection delivering one JSON frame per message.
type Conn interface {
	// ReadMessage blocks until the next frame arrives. It returns an error
	// once the connection is closed by either side.
	ReadMessage() ([]byte, error)

	// Close tears the connection down. It is safe to call more than once.
	Close() error
}

// Dialer opens stream connections.
type Dialer interface {
	Dial(ctx context.Context, target string) (Conn, error)
}

// StreamURL builds <base>/api/logs/stream?service=<id>&token=<bearer>.
func StreamURL(base, serviceID, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + StreamPath)
	if err != nil {
		return "", fmt.Errorf("stream url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("stream url: unsupported scheme %q", u.Scheme)
	}
	q := u.Query()
	q.Set("service", serviceID)
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// RedactURL hides the token query parameter for logging.
func RedactURL(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "***")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
