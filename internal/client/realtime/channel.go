// Package realtime keeps the console's websocket to the AlphaBase server open
// while a user is signed in and turns pushed events into alerts.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/atinyakov/alphabase/internal/client/session"
	"github.com/atinyakov/alphabase/internal/client/status"
	"github.com/atinyakov/alphabase/internal/models"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsPath             = "/ws"
	wsHandshakeTimeout = 10 * time.Second
	wsReadTimeout      = 90 * time.Second
)

// Defaults for Options.
const (
	DefaultReconnectAttempts = 5
	DefaultReconnectDelay    = 3 * time.Second
	DefaultAlertDuration     = 5 * time.Second
)

// ErrNoSession is returned by Connect when nobody is signed in.
var ErrNoSession = errors.New("realtime: no session")

// AlertSink displays an alert to the user.
type AlertSink func(title, message string, kind status.Kind, d time.Duration)

// Options tune a Channel. Zero values fall back to the defaults above.
type Options struct {
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	AlertDuration     time.Duration
	Dialer            *websocket.Dialer
}

// Channel is a websocket subscription to server events. After a dropped
// connection it redials up to ReconnectAttempts times, ReconnectDelay apart.
type Channel struct {
	url     string
	session *session.Store
	sink    AlertSink
	opts    Options
	log     *zap.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a channel for the server at baseURL (ws:// or wss://).
// sink may be nil, in which case alerts are only logged.
func New(baseURL string, sess *session.Store, sink AlertSink, opts Options, log *zap.Logger) *Channel {
	if opts.ReconnectAttempts <= 0 {
		opts.ReconnectAttempts = DefaultReconnectAttempts
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.AlertDuration <= 0 {
		opts.AlertDuration = DefaultAlertDuration
	}
	if opts.Dialer == nil {
		opts.Dialer = &websocket.Dialer{
			HandshakeTimeout: wsHandshakeTimeout,
			Proxy:            http.ProxyFromEnvironment,
		}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Channel{
		url:     strings.TrimRight(baseURL, "/") + wsPath,
		session: sess,
		sink:    sink,
		opts:    opts,
		log:     log,
	}
}

// Connect dials the server with the session's token and starts listening.
// An existing connection is closed first. ctx bounds the lifetime of the
// subscription, not just the dial.
func (c *Channel) Connect(ctx context.Context) error {
	c.Disconnect()

	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.mu.Lock()
	c.conn = conn
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	c.log.Info("realtime connected", zap.String("url", c.url))
	go c.run(runCtx, conn, done)
	return nil
}

// Disconnect closes the connection and stops reconnecting. It is a no-op
// when not connected.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	cancel, done, conn := c.cancel, c.done, c.conn
	c.cancel, c.done, c.conn = nil, nil, nil
	if cancel != nil {
		cancel()
	}
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}
	<-done
	c.log.Info("realtime disconnected")
}

// Connected reports whether a connection is currently open.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// ShowAlert displays an alert for d, or for the default alert duration when
// d is not positive.
func (c *Channel) ShowAlert(title, message string, kind status.Kind, d time.Duration) {
	if d <= 0 {
		d = c.opts.AlertDuration
	}
	c.log.Debug("alert", zap.String("title", title), zap.String("kind", string(kind)))
	if c.sink != nil {
		c.sink(title, message, kind, d)
	}
}

func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	token := c.session.Token()
	if token == "" {
		return nil, ErrNoSession
	}

	headers := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, resp, err := c.opts.Dialer.DialContext(ctx, c.url, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("ws dial failed: %s", resp.Status)
		}
		return nil, fmt.Errorf("ws dial failed: %w", err)
	}
	return conn, nil
}

func (c *Channel) run(ctx context.Context, conn *websocket.Conn, done chan struct{}) {
	stop := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		cur := c.conn
		c.mu.Unlock()
		if cur != nil {
			cur.Close()
		}
	})
	defer func() {
		stop()
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		close(done)
	}()

	for {
		c.read(conn)
		conn.Close()
		if ctx.Err() != nil {
			return
		}
		c.log.Warn("realtime connection lost")

		next := c.reconnect(ctx)
		if next == nil {
			return
		}
		conn = next
	}
}

func (c *Channel) read(conn *websocket.Conn) {
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	for {
		if err := conn.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
			return
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("realtime read ended", zap.Error(err))
			}
			return
		}
		c.handle(data)
	}
}

func (c *Channel) reconnect(ctx context.Context) *websocket.Conn {
	for attempt := 1; attempt <= c.opts.ReconnectAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.opts.ReconnectDelay):
		}

		conn, err := c.dial(ctx)
		if err != nil {
			c.log.Warn("realtime reconnect failed", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		c.mu.Lock()
		if ctx.Err() != nil {
			c.mu.Unlock()
			conn.Close()
			return nil
		}
		c.conn = conn
		c.mu.Unlock()

		c.log.Info("realtime reconnected", zap.Int("attempt", attempt))
		return conn
	}

	c.log.Error("realtime reconnect attempts exhausted", zap.Int("attempts", c.opts.ReconnectAttempts))
	c.ShowAlert("Connection Lost", "Realtime updates are unavailable", status.Warning, 0)
	return nil
}

func (c *Channel) handle(data []byte) {
	var ev models.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		c.log.Debug("ignoring malformed event", zap.Error(err))
		return
	}
	if ev.Title == "" && ev.Message == "" {
		return
	}

	title := ev.Title
	if title == "" {
		title = ev.Action
	}
	c.ShowAlert(title, ev.Message, kindOf(ev.Kind), 0)
}

func kindOf(k models.EventKind) status.Kind {
	switch k {
	case models.EventSuccess:
		return status.Success
	case models.EventWarning:
		return status.Warning
	case models.EventError:
		return status.Error
	default:
		return status.Info
	}
}
