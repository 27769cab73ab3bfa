package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chainwatch/chainwatch/internal/dashboard"
)

const (
	writeTimeout    = 10 * time.Second
	livenessTimeout = 60 * time.Second
	pingInterval    = 30 * time.Second
)

var (
	// ErrNotConnected is returned by senders while no connection is up.
	ErrNotConnected = errors.New("client: not connected")
	// ErrRetriesExhausted ends the connection loop once the reconnect
	// policy refuses further attempts.
	ErrRetriesExhausted = errors.New("client: reconnect attempts exhausted")
)

// Dialer opens one WebSocket connection. Tests substitute scripted
// dialers; the default uses gorilla's dialer.
type Dialer func(ctx context.Context, url string) (*websocket.Conn, error)

func defaultDial(ctx context.Context, rawURL string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, rawURL, nil)
	return conn, err
}

// Options tunes a Client beyond the server URL.
type Options struct {
	// Token is appended to the dial URL for servers that require auth.
	Token string
	// Policy spaces reconnection attempts; nil means the default fixed
	// interval, retrying forever.
	Policy *ReconnectPolicy
	// Dial overrides the WebSocket dialer.
	Dial Dialer
	// UpdateBuffer sizes the update channel (default 16).
	UpdateBuffer int
}

// Client keeps one live connection to a chainwatch server, feeds every
// inbound frame through a Reconciler, and reconnects on loss. After
// each connect it requests a fresh dashboard snapshot; the server keeps
// no backlog, so that request is the only way to catch up.
type Client struct {
	url    string
	token  string
	policy *ReconnectPolicy
	dial   Dialer
	rec    *Reconciler

	updates chan Update
	done    chan struct{}

	mu      sync.Mutex
	writeMu sync.Mutex // serialises conn writes (commands, pings)
	conn    *websocket.Conn
	state   ConnState
	cancel  context.CancelFunc
	started bool
	closed  bool
}

// New creates a client for the given ws:// URL. Start must be called
// before updates flow.
func New(rawURL string, opts Options) *Client {
	policy := opts.Policy
	if policy == nil {
		policy = NewReconnectPolicy(DefaultReconnectDelay, 0, nil)
	}
	dial := opts.Dial
	if dial == nil {
		dial = defaultDial
	}
	buffer := opts.UpdateBuffer
	if buffer <= 0 {
		buffer = 16
	}
	return &Client{
		url:     rawURL,
		token:   opts.Token,
		policy:  policy,
		dial:    dial,
		rec:     NewReconciler(),
		updates: make(chan Update, buffer),
		done:    make(chan struct{}),
		state:   StateIdle,
	}
}

// Start launches the connection loop. The update channel closes when
// the loop exits: on Close, context cancellation, or policy
// exhaustion.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	go c.run(ctx)
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	defer close(c.updates)

	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}

		attempt++
		c.setState(ctx, StateConnecting, nil)
		conn, err := c.dial(ctx, c.dialURL())
		if err != nil {
			slog.Debug("dial failed", "url", c.url, "error", err)
			if !c.retry(ctx, attempt, err) {
				return
			}
			continue
		}

		attempt = 0
		c.setConn(conn)
		c.setState(ctx, StateConnected, nil)

		// Fresh state after every connect; there is no server backlog.
		if err := c.RequestDashboardData(); err != nil {
			slog.Debug("snapshot request failed", "error", err)
		}

		pingCtx, stopPing := context.WithCancel(ctx)
		go c.pingLoop(pingCtx, conn)
		readErr := c.readFrames(ctx, conn)
		stopPing()

		c.setConn(nil)
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		if !c.retry(ctx, attempt, readErr) {
			return
		}
	}
}

// retry reports the Disconnected transition and waits out the policy
// delay. It returns false when the loop should stop.
func (c *Client) retry(ctx context.Context, attempt int, cause error) bool {
	if !c.policy.Allow(attempt + 1) {
		c.setState(ctx, StateDisconnected, ErrRetriesExhausted)
		return false
	}
	c.setState(ctx, StateDisconnected, cause)
	return c.policy.Wait(ctx) == nil
}

func (c *Client) readFrames(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadDeadline(time.Now().Add(livenessTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(livenessTimeout))
		return nil
	})
	conn.SetPingHandler(func(payload string) error {
		conn.SetReadDeadline(time.Now().Add(livenessTimeout))
		err := conn.WriteControl(websocket.PongMessage, []byte(payload), time.Now().Add(writeTimeout))
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})

	for {
		conn.SetReadDeadline(time.Now().Add(livenessTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.consume(ctx, data)
	}
}

// consume discriminates one inbound frame: domain events carry
// event_type, everything else is a status message keyed by type.
func (c *Client) consume(ctx context.Context, data []byte) {
	var probe struct {
		EventType string `json:"event_type"`
		Type      string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		c.push(ctx, DecodeFailed{Err: fmt.Errorf("client: decode frame: %w", err)})
		return
	}

	switch {
	case probe.EventType != "":
		var ev WireEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.push(ctx, DecodeFailed{Err: fmt.Errorf("client: decode event: %w", err)})
			return
		}
		applied, err := c.rec.Apply(ev)
		if err != nil {
			c.push(ctx, DecodeFailed{Err: err})
			return
		}
		if applied {
			c.push(ctx, EventApplied{Type: ev.Type, TargetID: ev.TargetID})
		}

	case probe.Type == "pong":
		// Reply to our own application-level ping; nothing to apply.

	case probe.Type == "dashboard_data":
		var st StatusFrame
		if err := json.Unmarshal(data, &st); err != nil {
			c.push(ctx, DecodeFailed{Err: fmt.Errorf("client: decode snapshot: %w", err)})
			return
		}
		var d dashboard.Data
		if err := json.Unmarshal(st.Data, &d); err != nil {
			c.push(ctx, DecodeFailed{Err: fmt.Errorf("client: decode snapshot: %w", err)})
			return
		}
		c.rec.ApplySnapshot(d)
		c.push(ctx, SnapshotLoaded{})

	case probe.Type != "":
		var st StatusFrame
		if err := json.Unmarshal(data, &st); err != nil {
			c.push(ctx, DecodeFailed{Err: fmt.Errorf("client: decode status: %w", err)})
			return
		}
		c.push(ctx, StatusReceived{Status: st})

	default:
		c.push(ctx, DecodeFailed{Err: errors.New("client: frame has neither event_type nor type")})
	}
}

// pingLoop keeps the connection warm between data frames. The server
// answers protocol pings automatically, which refreshes our read
// deadline through the pong handler.
func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *Client) push(ctx context.Context, u Update) {
	select {
	case c.updates <- u:
	case <-ctx.Done():
	}
}

func (c *Client) setState(ctx context.Context, state ConnState, err error) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	c.push(ctx, ConnectionChanged{State: state, Err: err})
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

// dialURL appends the auth token, which the server accepts as a query
// parameter on the upgrade request.
func (c *Client) dialURL() string {
	if c.token == "" {
		return c.url
	}
	u, err := url.Parse(c.url)
	if err != nil {
		return c.url
	}
	q := u.Query()
	q.Set("token", c.token)
	u.RawQuery = q.Encode()
	return u.String()
}

// Updates is the notification feed for the dashboard loop. It closes
// when the connection loop exits.
func (c *Client) Updates() <-chan Update {
	return c.updates
}

// State returns a copy of the reconciled dashboard state.
func (c *Client) State() Snapshot {
	return c.rec.Snapshot()
}

// ConnState reports the current connection state.
func (c *Client) ConnState() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RequestDashboardData asks the server for a full state snapshot.
func (c *Client) RequestDashboardData() error {
	return c.send(map[string]any{"type": "get_dashboard_data"})
}

// AcknowledgeAlert marks an alert as seen without clearing it.
func (c *Client) AcknowledgeAlert(alertID string) error {
	return c.send(map[string]any{"type": "acknowledge_alert", "alert_id": alertID})
}

// ResolveAlert clears an alert from the active board.
func (c *Client) ResolveAlert(alertID string) error {
	return c.send(map[string]any{"type": "resolve_alert", "alert_id": alertID})
}

// SendUserRequest submits free-form input for staged processing.
func (c *Client) SendUserRequest(input string, requestContext map[string]any, userID string) error {
	msg := map[string]any{"type": "user_request", "user_input": input}
	if len(requestContext) > 0 {
		msg["context"] = requestContext
	}
	if userID != "" {
		msg["user_id"] = userID
	}
	return c.send(msg)
}

// Ping sends an application-level ping.
func (c *Client) Ping() error {
	return c.send(map[string]any{"type": "ping"})
}

func (c *Client) send(msg map[string]any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(msg)
}

// Close tears the connection down and waits for the loop to exit; no
// state is reapplied after it returns. Closing twice is safe.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		started := c.started
		c.mu.Unlock()
		if started {
			<-c.done
		}
		return
	}
	c.closed = true
	started := c.started
	cancel := c.cancel
	conn := c.conn
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
	if started {
		<-c.done
	}
}
