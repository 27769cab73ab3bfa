package ws

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

var (
	// ErrSessionClosed is returned by Enqueue once a close has begun.
	ErrSessionClosed = errors.New("ws: session closed")
	// ErrQueueFull is returned by Enqueue when the send queue is at
	// capacity; the caller treats this as a slow-consumer disconnect.
	ErrQueueFull = errors.New("ws: send queue full")
)

type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

var stateNames = map[State]string{
	StateConnecting: "connecting",
	StateOpen:       "open",
	StateClosing:    "closing",
	StateClosed:     "closed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// SessionOptions tunes one subscriber session. Zero values fall back to
// the defaults below.
type SessionOptions struct {
	QueueSize       int
	PingInterval    time.Duration
	LivenessTimeout time.Duration
	DrainGrace      time.Duration
	Clock           clockwork.Clock
}

func (o SessionOptions) withDefaults() SessionOptions {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.LivenessTimeout <= 0 {
		o.LivenessTimeout = 60 * time.Second
	}
	if o.DrainGrace <= 0 {
		o.DrainGrace = 5 * time.Second
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	return o
}

// Session owns one client connection: its send queue, its liveness
// probing, and its lifecycle Connecting -> Open -> Closing -> Closed.
// All transport writes happen on the session's own write pump so a stuck
// or dead peer only ever stalls its own goroutine.
type Session struct {
	id       string
	conn     *websocket.Conn
	registry *Registry
	opts     SessionOptions

	send     chan []byte
	state    atomic.Int32
	lastSeen atomic.Int64

	closing chan struct{}
	done    chan struct{}
	closeMu sync.Mutex
	once    sync.Once
}

// NewSession wraps an upgraded connection. The session starts in
// Connecting; call Start to register it and begin delivery.
func NewSession(conn *websocket.Conn, registry *Registry, opts SessionOptions) *Session {
	opts = opts.withDefaults()
	s := &Session{
		id:       uuid.NewString(),
		conn:     conn,
		registry: registry,
		opts:     opts,
		send:     make(chan []byte, opts.QueueSize),
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.state.Store(int32(StateConnecting))
	s.touch()
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	return State(s.state.Load())
}

// LastSeen reports the time of the last successful write or pong.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Done is closed once the session reaches Closed.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) touch() {
	s.lastSeen.Store(s.opts.Clock.Now().UnixNano())
}

// Start registers the session and begins draining its queue. It fails if
// the registry is full, in which case the session is closed.
func (s *Session) Start() error {
	if s.State() != StateConnecting {
		return ErrSessionClosed
	}
	if err := s.registry.Add(s); err != nil {
		s.finish()
		return err
	}
	s.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen))
	go s.writePump()
	return nil
}

// Enqueue appends a frame to the send queue without blocking. After a
// close has begun new frames are rejected with ErrSessionClosed; a full
// queue yields ErrQueueFull and the caller is expected to abort the
// session rather than drop frames from the middle of the stream.
func (s *Session) Enqueue(msg []byte) error {
	if s.State() != StateOpen {
		return ErrSessionClosed
	}
	select {
	case s.send <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close begins a graceful shutdown: already-queued frames are flushed
// for at most DrainGrace before the connection closes.
func (s *Session) Close() {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()

	switch s.State() {
	case StateOpen:
		s.state.Store(int32(StateClosing))
		close(s.closing)
	case StateConnecting:
		s.finish()
	}
}

// Abort tears the session down immediately, discarding queued frames.
func (s *Session) Abort() {
	s.finish()
}

func (s *Session) finish() {
	s.once.Do(func() {
		s.state.Store(int32(StateClosed))
		s.registry.Remove(s)
		s.conn.Close()
		close(s.done)
	})
}

func (s *Session) writePump() {
	ticker := s.opts.Clock.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()
	defer s.finish()

	for {
		select {
		case msg := <-s.send:
			if err := s.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.Chan():
			if err := s.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.closing:
			s.drainQueue()
			return
		case <-s.done:
			return
		}
	}
}

// drainQueue flushes pending frames until the queue is empty or the
// grace period runs out, then sends a close frame.
func (s *Session) drainQueue() {
	grace := s.opts.Clock.NewTimer(s.opts.DrainGrace)
	defer grace.Stop()

	for {
		select {
		case msg := <-s.send:
			if err := s.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-grace.Chan():
			return
		default:
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (s *Session) write(messageType int, data []byte) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(messageType, data); err != nil {
		return err
	}
	s.touch()
	return nil
}

// ReadLoop consumes inbound frames until the connection dies, resetting
// the liveness deadline on every frame and pong. It blocks; the caller
// runs it on the connection's handler goroutine. A read failure closes
// the session.
func (s *Session) ReadLoop(handle func([]byte)) {
	defer s.finish()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(s.opts.LivenessTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.touch()
		return s.conn.SetReadDeadline(time.Now().Add(s.opts.LivenessTimeout))
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(s.opts.LivenessTimeout))
		if handle != nil {
			handle(msg)
		}
	}
}
