package port

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"inflow/internal/models"
)

// JSONConn is the part of a websocket connection a Port needs. Both the
// gorilla client connection and the fiber server connection satisfy it.
type JSONConn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

type connPort struct {
	name   string
	conn   JSONConn
	mu     sync.Mutex
	closed atomic.Bool
}

// FromConn wraps a websocket connection as a Port. Writes are serialized;
// a single goroutine may Receive at a time.
func FromConn(name string, conn JSONConn) Port {
	return &connPort{name: name, conn: conn}
}

func (c *connPort) Name() string { return c.name }

func (c *connPort) Post(env models.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return ErrDisconnected
	}
	if err := c.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	return nil
}

func (c *connPort) Receive() (models.Envelope, error) {
	if c.closed.Load() {
		return models.Envelope{}, ErrDisconnected
	}
	var env models.Envelope
	if err := c.conn.ReadJSON(&env); err != nil {
		return models.Envelope{}, fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	return env, nil
}

func (c *connPort) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close()
}

// WebsocketDialer connects to a relay at BaseURL over /v2/channel/<name>.
type WebsocketDialer struct {
	BaseURL string
	Dialer  *websocket.Dialer
}

func NewWebsocketDialer(baseURL string) *WebsocketDialer {
	return &WebsocketDialer{BaseURL: baseURL, Dialer: websocket.DefaultDialer}
}

func (d *WebsocketDialer) Connect(ctx context.Context, name string) (Port, error) {
	target, err := ChannelURL(d.BaseURL, name)
	if err != nil {
		return nil, err
	}

	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s channel: %w", name, err)
	}
	return FromConn(name, conn), nil
}

// ChannelURL turns an http(s) relay address into the websocket URL of a channel.
func ChannelURL(baseURL, name string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "http", "ws", "":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported relay scheme %q", u.Scheme)
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/v2/channel/" + url.PathEscape(name)
	return u.String(), nil
}
