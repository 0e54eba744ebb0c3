package realtime

import (
	"log/slog"
	"math"
	"sync"
	"time"
)

// Reconnecting realtime client. One instance is constructed by the
// application's composition root and shared; there is no package-level
// singleton so tests can build independent clients.

const (
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultReconnectBase     = 5 * time.Second
	DefaultReconnectGrowth   = 1.5
	DefaultMaxReconnects     = 10
	// Backoff is clamped so late attempts do not wait unboundedly long.
	DefaultReconnectCeiling = 2 * time.Minute
)

// Config tunes a Client. Zero values fall back to the defaults above.
type Config struct {
	// Endpoint is the websocket base address; the auth token is appended
	// as a query credential on every dial.
	Endpoint string
	// UserID identifies the local session in the synthesized peer-online
	// message emitted on open. Optional.
	UserID string

	HeartbeatInterval time.Duration
	ReconnectBase     time.Duration
	ReconnectGrowth   float64
	MaxReconnects     int
	ReconnectCeiling  time.Duration

	// Dial overrides the transport factory. Defaults to DialWebSocket.
	Dial   Dialer
	Logger *slog.Logger
}

// Client owns the single active transport and its authenticated session.
// It reconnects with exponential backoff after unintended closes, sends a
// periodic heartbeat while open, and fans incoming messages out to handlers
// registered through On. The handler registry survives reconnects.
type Client struct {
	endpoint string
	userID   string
	dial     Dialer
	logger   *slog.Logger

	heartbeatInterval time.Duration
	reconnectBase     time.Duration
	reconnectGrowth   float64
	maxReconnects     int
	reconnectCeiling  time.Duration

	dispatcher *Dispatcher

	mu             sync.Mutex
	conn           Transport
	token          string // last-used token, reused on automatic reconnects
	attempts       int    // reconnect attempts since last successful open
	closedByUser   bool   // suppresses reconnection after Disconnect
	connected      bool
	gen            uint64 // bumped on every open/cleanup so stale callbacks bail out
	reconnectTimer *time.Timer
	heartbeatStop  chan struct{}
}

// NewClient builds a disconnected client. Call Connect to open the session.
func NewClient(cfg Config) *Client {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.ReconnectBase <= 0 {
		cfg.ReconnectBase = DefaultReconnectBase
	}
	if cfg.ReconnectGrowth <= 1 {
		cfg.ReconnectGrowth = DefaultReconnectGrowth
	}
	if cfg.MaxReconnects <= 0 {
		cfg.MaxReconnects = DefaultMaxReconnects
	}
	if cfg.ReconnectCeiling <= 0 {
		cfg.ReconnectCeiling = DefaultReconnectCeiling
	}
	if cfg.Dial == nil {
		cfg.Dial = DialWebSocket
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		endpoint:          cfg.Endpoint,
		userID:            cfg.UserID,
		dial:              cfg.Dial,
		logger:            cfg.Logger,
		heartbeatInterval: cfg.HeartbeatInterval,
		reconnectBase:     cfg.ReconnectBase,
		reconnectGrowth:   cfg.ReconnectGrowth,
		maxReconnects:     cfg.MaxReconnects,
		reconnectCeiling:  cfg.ReconnectCeiling,
		dispatcher:        NewDispatcher(cfg.Logger),
	}
}

// On registers handler for msgType (Wildcard for all types) and returns a
// disposer that removes exactly that registration.
func (c *Client) On(msgType MessageType, handler Handler) DisposeFunc {
	return c.dispatcher.On(msgType, handler)
}

// IsConnected reports whether the transport is currently open.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Connect opens the session with the given token. No-op if already open.
// Dial failures are not returned: they are routed into the reconnect
// scheduler, which keeps retrying with the stored token.
func (c *Client) Connect(token string) {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return
	}
	c.closedByUser = false
	c.token = token
	// Only one path may create a transport: a pending reconnect timer is
	// superseded by an explicit Connect.
	c.cancelReconnectLocked()
	c.mu.Unlock()

	c.open(token)
}

// Disconnect closes the session and suppresses automatic reconnection until
// the next Connect. It synchronously stops the heartbeat, cancels any pending
// reconnect timer, and resets the attempt counter. Idempotent.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.closedByUser = true
	c.attempts = 0
	c.cleanupLocked()
	c.mu.Unlock()
}

// Send serializes msg and writes it to the transport. While disconnected the
// message is dropped with a logged warning; there is no outbound queue, so
// callers must not assume delivery. The returned error is non-nil only when
// the payload cannot be serialized.
func (c *Client) Send(msg *Message) error {
	data, err := msg.ToJSON()
	if err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	open := c.connected
	c.mu.Unlock()

	if !open || conn == nil {
		c.logger.Warn("dropping message, transport not open", "type", msg.Type)
		return nil
	}
	if err := conn.WriteMessage(data); err != nil {
		// The read loop observes the broken transport and drives recovery.
		c.logger.Warn("write failed", "type", msg.Type, "error", err)
	}
	return nil
}

func (c *Client) open(token string) {
	conn, err := c.dial(c.endpoint, token)
	if err != nil {
		c.logger.Warn("connect failed", "endpoint", c.endpoint, "error", err)
		c.scheduleReconnect()
		return
	}

	c.mu.Lock()
	if c.closedByUser || c.conn != nil {
		// Disconnected while dialing, or another transport won the race.
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.connected = true
	c.attempts = 0
	c.gen++
	gen := c.gen
	c.startHeartbeatLocked()
	c.mu.Unlock()

	c.logger.Info("connected", "endpoint", c.endpoint)
	// Local bookkeeping only; the peer learns about us from the server.
	c.dispatcher.Dispatch(NewPeerPresence(TypePeerOnline, c.userID))

	go c.readLoop(conn, gen)
}

func (c *Client) readLoop(conn Transport, gen uint64) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			// Transport errors are logged only; the close below is what
			// drives recovery, so errors never double-schedule reconnects.
			c.logger.Debug("transport closed", "error", err)
			c.handleClose(gen)
			return
		}
		c.handleMessage(data)
	}
}

func (c *Client) handleMessage(data []byte) {
	msg, err := MessageFromJSON(data)
	if err != nil {
		c.logger.Warn("discarding malformed message", "error", err)
		return
	}
	if msg.Type == TypeHeartbeatPong {
		// Keep-alive replies are consumed here, never forwarded.
		return
	}
	c.dispatcher.Dispatch(msg)
}

func (c *Client) handleClose(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		// Stale read loop from a transport cleanup already handled.
		c.mu.Unlock()
		return
	}
	intentional := c.closedByUser
	c.cleanupLocked()
	c.mu.Unlock()

	if !intentional {
		c.scheduleReconnect()
	}
}

// scheduleReconnect retries connection establishment after an unintended
// close. Attempt n waits base × growth^(n-1), clamped to the ceiling. Once
// maxReconnects is reached the client goes idle until Disconnect resets the
// counter and Connect is called again.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closedByUser {
		return
	}
	if c.attempts >= c.maxReconnects {
		c.logger.Error("giving up on reconnection", "attempts", c.attempts)
		return
	}
	c.attempts++
	delay := c.backoffDelay(c.attempts)
	token := c.token

	c.cancelReconnectLocked()
	c.logger.Info("scheduling reconnect", "attempt", c.attempts, "delay", delay)
	c.reconnectTimer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		// The timer may already be in flight when Disconnect runs, so the
		// intentionally-closed flag is re-checked before acting.
		if c.closedByUser {
			c.mu.Unlock()
			return
		}
		c.reconnectTimer = nil
		c.mu.Unlock()
		c.open(token)
	})
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	d := time.Duration(float64(c.reconnectBase) * math.Pow(c.reconnectGrowth, float64(attempt-1)))
	if d > c.reconnectCeiling {
		d = c.reconnectCeiling
	}
	return d
}

// cleanupLocked stops the heartbeat, cancels any pending reconnect timer and
// drops the transport. Idempotent; runs before every reconnect attempt and on
// Disconnect. Caller holds c.mu.
func (c *Client) cleanupLocked() {
	c.stopHeartbeatLocked()
	c.cancelReconnectLocked()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false
	c.gen++
}

func (c *Client) cancelReconnectLocked() {
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
}

func (c *Client) startHeartbeatLocked() {
	stop := make(chan struct{})
	c.heartbeatStop = stop
	gen := c.gen

	go func() {
		ticker := time.NewTicker(c.heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.mu.Lock()
				// The timer can fire just after a close; only ping while
				// this transport is still the live one.
				if gen != c.gen || !c.connected || c.conn == nil {
					c.mu.Unlock()
					return
				}
				conn := c.conn
				c.mu.Unlock()

				data, _ := NewHeartbeat(TypeHeartbeatPing).ToJSON()
				if err := conn.WriteMessage(data); err != nil {
					c.logger.Warn("heartbeat write failed", "error", err)
				}
			}
		}
	}()
}

func (c *Client) stopHeartbeatLocked() {
	if c.heartbeatStop != nil {
		close(c.heartbeatStop)
		c.heartbeatStop = nil
	}
}
