package feed

import (
	"encoding/json"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gobet-client/logger"
)

const (
	// DefaultReconnectInterval is the delay before the first reconnect attempt.
	DefaultReconnectInterval = 1 * time.Second

	// DefaultMaxReconnectInterval caps the reconnect delay.
	DefaultMaxReconnectInterval = 30 * time.Second

	// DefaultReconnectDecay is the growth factor of the reconnect delay.
	DefaultReconnectDecay = 1.5

	// DefaultConnectTimeout is how long a single connection attempt may take
	// before it is aborted and retried.
	DefaultConnectTimeout = 2 * time.Second
)

// ErrInvalidState is returned by Send when the client holds no connection
// and no reconnect is pending. It is a local usage fault, not a transport
// failure: transport failures are retried internally and surfaced only via
// the OnClose/OnError callbacks.
var ErrInvalidState = errors.New("feed: no connection and no reconnect pending")

// State is the connection state of the client.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// Client is a websocket client that transparently re-establishes its
// connection after failure. The event stream seen by the owner typically
// looks like:
//
//	OnConnecting, OnOpen, OnMessage..., OnClose, OnConnecting, OnOpen, ...
//
// until Close is called, which is terminal. Messages sent while a reconnect
// is pending are queued and drained once the connection opens.
type Client struct {
	URL string

	ReconnectInterval    time.Duration
	MaxReconnectInterval time.Duration
	ReconnectDecay       float64
	ConnectTimeout       time.Duration

	// MaxReconnectAttempts limits retries; 0 means unlimited.
	MaxReconnectAttempts int

	// Callbacks. Assign before Connect; they are invoked from the client's
	// internal goroutines, never concurrently with each other for a single
	// connection's read stream.
	OnConnecting func()
	OnOpen       func()
	OnMessage    func(text string)
	OnClose      func(code int, reason string)
	OnError      func(err error)

	mu             sync.Mutex
	conn           *websocket.Conn
	state          State
	forced         bool
	attempts       int
	pending        [][]byte
	reconnectTimer *time.Timer

	writeMu sync.Mutex
}

// NewClient creates a client for the given ws(s) URL with default
// reconnect tuning.
func NewClient(url string) *Client {
	return &Client{
		URL:                  url,
		ReconnectInterval:    DefaultReconnectInterval,
		MaxReconnectInterval: DefaultMaxReconnectInterval,
		ReconnectDecay:       DefaultReconnectDecay,
		ConnectTimeout:       DefaultConnectTimeout,
	}
}

// CurrentState reports the connection state.
func (c *Client) CurrentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RetryDelay returns the backoff delay used before reconnect attempt n:
// min(ReconnectInterval * ReconnectDecay^n, MaxReconnectInterval).
func (c *Client) RetryDelay(attempt int) time.Duration {
	delay := time.Duration(float64(c.ReconnectInterval) * math.Pow(c.ReconnectDecay, float64(attempt)))
	if delay > c.MaxReconnectInterval {
		return c.MaxReconnectInterval
	}
	return delay
}

// Connect starts the connection loop. It returns immediately; the outcome
// is reported through the callbacks. Calling Connect after Close starts a
// fresh loop.
func (c *Client) Connect() {
	c.mu.Lock()
	c.forced = false
	c.state = StateConnecting
	c.attempts = 0
	c.mu.Unlock()

	c.emitConnecting()
	go c.dial()
}

func (c *Client) dial() {
	logger.Printf("[Feed] Connecting to %s...", c.URL)

	dialer := websocket.Dialer{HandshakeTimeout: c.ConnectTimeout}
	conn, _, err := dialer.Dial(c.URL, nil)
	if err != nil {
		logger.Errorf("[Feed] Connection attempt failed: %v", err)
		c.emitError(err)
		c.scheduleReconnect()
		return
	}

	c.mu.Lock()
	if c.forced {
		// Close raced with the dial; discard the late connection.
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.state = StateOpen
	c.attempts = 0
	queued := c.pending
	c.pending = nil
	c.mu.Unlock()

	logger.Printf("[Feed] Connected to %s", c.URL)
	c.emitOpen()

	for _, msg := range queued {
		if err := c.writeMessage(conn, msg); err != nil {
			logger.Errorf("[Feed] Failed to send queued message: %v", err)
		}
	}

	c.readLoop(conn)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			code, reason := closeDetails(err)

			c.mu.Lock()
			forced := c.forced
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			conn.Close()

			if forced {
				c.emitClose(code, reason)
				return
			}

			logger.Errorf("[Feed] Connection closed: %s", CloseCodeText(code))
			c.emitClose(code, reason)
			c.scheduleReconnect()
			return
		}
		if c.OnMessage != nil {
			c.OnMessage(string(data))
		}
	}
}

func closeDetails(err error) (int, string) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text
	}
	return websocket.CloseAbnormalClosure, err.Error()
}

func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.forced {
		c.state = StateClosed
		c.mu.Unlock()
		return
	}
	if c.MaxReconnectAttempts > 0 && c.attempts >= c.MaxReconnectAttempts {
		logger.Errorf("[Feed] Giving up after %d reconnect attempts", c.attempts)
		c.state = StateClosed
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	delay := c.RetryDelay(c.attempts)
	c.attempts++
	c.reconnectTimer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		forced := c.forced
		c.mu.Unlock()
		if forced {
			return
		}
		c.dial()
	})
	c.mu.Unlock()

	logger.Printf("[Feed] Reconnecting in %v...", delay)
	c.emitConnecting()
}

// Send transmits a text frame, queueing it if a reconnect is pending.
// It returns ErrInvalidState when the client is fully disconnected.
func (c *Client) Send(text string) error {
	c.mu.Lock()
	switch {
	case c.state == StateOpen && c.conn != nil:
		conn := c.conn
		c.mu.Unlock()
		return c.writeMessage(conn, []byte(text))
	case c.state == StateConnecting:
		c.pending = append(c.pending, []byte(text))
		c.mu.Unlock()
		return nil
	default:
		c.mu.Unlock()
		return ErrInvalidState
	}
}

// SendJSON encodes v and sends it as a text frame.
func (c *Client) SendJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Send(string(data))
}

func (c *Client) writeMessage(conn *websocket.Conn, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Close shuts the connection down for good: no further reconnect attempts
// are made until Connect is called again. Queued messages are dropped.
func (c *Client) Close() error {
	c.mu.Lock()
	c.forced = true
	c.state = StateClosed
	c.pending = nil
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()

	return conn.Close()
}

// Refresh drops the current connection without marking it forced, so the
// normal reconnect path brings it back up. Used when silent data loss is
// suspected. Returns false when there was no connection to drop.
func (c *Client) Refresh() bool {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return false
	}
	conn.Close()
	return true
}

func (c *Client) emitConnecting() {
	if c.OnConnecting != nil {
		c.OnConnecting()
	}
}

func (c *Client) emitOpen() {
	if c.OnOpen != nil {
		c.OnOpen()
	}
}

func (c *Client) emitClose(code int, reason string) {
	if c.OnClose != nil {
		c.OnClose(code, reason)
	}
}

func (c *Client) emitError(err error) {
	if c.OnError != nil {
		c.OnError(err)
	}
}
