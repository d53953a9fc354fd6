package realtime

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/menprac-cloud/menPrac-backend/config"
)

const (
	websocketRetryDelay = 200 * time.Millisecond
	websocketMaxRetries = 2
)

// Conn is the subset of *websocket.Conn the client needs. Tests substitute an
// in-memory implementation.
type Conn interface {
	WriteJSON(v interface{}) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	ReadMessage() (messageType int, p []byte, err error)
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client represents one live websocket connection bound to an authenticated
// clinician. The bound identity is fixed at the handshake and never changes
// for the lifetime of the connection.
type Client struct {
	ID     string
	UserID int64

	conn          Conn
	ctx           context.Context
	cfg           *config.WebSocketConfig
	lastActivity  atomic.Int64
	pingTicker    *time.Ticker
	activityTimer *time.Timer
	cancel        context.CancelFunc
	closed        bool
	mu            sync.Mutex
}

// NewClient creates a client for an upgraded connection.
func NewClient(id string, userID int64, conn Conn, cfg *config.WebSocketConfig) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		ID:     id,
		UserID: userID,
		conn:   conn,
		cfg:    cfg,
		cancel: cancel,
		ctx:    ctx,
	}
	c.lastActivity.Store(time.Now().Unix())
	return c
}

// WriteEvent writes an event to the websocket with bounded retry. A write
// that still fails after the retries is the caller's signal that the
// transport is broken; the delivery is simply lost.
func (c *Client) WriteEvent(event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	operation := func() error {
		return c.conn.WriteJSON(event)
	}

	backoffStrategy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(websocketRetryDelay),
			websocketMaxRetries,
		),
		c.ctx,
	)

	return backoff.Retry(operation, backoffStrategy)
}

// UpdateActivity updates the last activity timestamp and resets the timeout
// timer. This should only be called for actual client messages, not pong
// responses.
func (c *Client) UpdateActivity() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastActivity.Store(time.Now().Unix())

	if c.activityTimer != nil {
		c.activityTimer.Stop()
		c.activityTimer = time.AfterFunc(
			time.Duration(c.cfg.ActivityTimeout)*time.Second,
			c.onActivityTimeout,
		)
	}
}

// LastActivityTime returns the time of last activity.
func (c *Client) LastActivityTime() time.Time {
	return time.Unix(c.lastActivity.Load(), 0)
}

// StartTimers arms the inactivity timeout and the ping loop.
func (c *Client) StartTimers() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.activityTimer = time.AfterFunc(
		time.Duration(c.cfg.ActivityTimeout)*time.Second,
		c.onActivityTimeout,
	)

	c.pingTicker = time.NewTicker(
		time.Duration(c.cfg.PingInterval) * time.Second,
	)
	go c.pingLoop()
}

func (c *Client) pingLoop() {
	defer c.pingTicker.Stop()

	for {
		select {
		case <-c.pingTicker.C:
			if err := c.sendPing(); err != nil {
				log.Printf("Failed to send ping to %s: %v", c.ID, err)
				c.Close(websocket.CloseInternalServerErr, "Ping failure")
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) onActivityTimeout() {
	log.Printf("Connection %s timed out", c.ID)
	c.Close(websocket.ClosePolicyViolation, "Inactivity timeout")
}

func (c *Client) sendPing() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn.WriteControl(
		websocket.PingMessage,
		[]byte{},
		time.Now().Add(time.Duration(c.cfg.WriteTimeout)*time.Second),
	)
}

// UpdateLastSeen updates only the timestamp (for pong responses).
// Does NOT reset the activity timer.
func (c *Client) UpdateLastSeen() {
	c.lastActivity.Store(time.Now().Unix())
}

// PongHandler returns a pong handler function based on configuration.
func (c *Client) PongHandler() func(string) error {
	return func(string) error {
		if c.cfg.KeepAlive {
			c.UpdateActivity() // Reset timeout timer
		} else {
			c.UpdateLastSeen() // Just update timestamp
		}
		return nil
	}
}

// Done is closed when the client's context is cancelled.
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close tears the connection down. Closing twice is a no-op; disconnect
// cleanup must never fail loudly.
func (c *Client) Close(code int, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.pingTicker != nil {
		c.pingTicker.Stop()
	}
	if c.activityTimer != nil {
		c.activityTimer.Stop()
	}
	if c.cancel != nil {
		c.cancel()
	}

	writeTimeout := time.Duration(c.cfg.WriteTimeout) * time.Second
	err := c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text),
		time.Now().Add(writeTimeout),
	)
	if err != nil {
		log.Printf("Error sending close message: %v", err)
	}

	return c.conn.Close()
}
