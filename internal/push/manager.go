package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/phrazzld/taskdash/internal/events"
)

// Observer is notified about connectivity changes and receives the
// user-visible log lines describing each transition.
type Observer interface {
	SetConnectionIndicator(connected bool)
	AppendLog(line string)
}

// Options configures a Manager.
type Options struct {
	// URL is the ws:// or wss:// endpoint of the push channel
	URL string

	// Dialer opens connections; defaults to a gorilla/websocket dialer
	Dialer Dialer

	// Emitter receives every classified frame
	Emitter events.EventEmitter

	// Observer receives connectivity and log notifications
	Observer Observer

	Policy Policy

	// PongWait bounds how long the connection may stay silent (no frames,
	// no pings) before it is considered dead
	PongWait time.Duration

	// WriteWait bounds each outgoing frame
	WriteWait time.Duration

	Logger *slog.Logger
}

// Manager owns a single push connection and its reconnection policy.
type Manager struct {
	url       string
	dialer    Dialer
	emitter   events.EventEmitter
	observer  Observer
	policy    Policy
	pongWait  time.Duration
	writeWait time.Duration
	logger    *slog.Logger
	afterFunc func(time.Duration, func()) Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// writeMu serializes writers; gorilla allows one concurrent writer.
	writeMu sync.Mutex

	mu       sync.Mutex
	conn     Conn
	gen      uint64
	state    State
	phase    Phase
	attempts int
	dialing  bool
	closed   bool
	pending  Timer
}

// NewManager creates a Manager. It does not connect; call Connect.
func NewManager(opts Options) *Manager {
	if opts.Dialer == nil {
		opts.Dialer = NewWebsocketDialer(10*time.Second, nil)
	}
	if opts.Policy.Interval <= 0 {
		opts.Policy.Interval = DefaultPolicy().Interval
	}
	if opts.Policy.MaxAttempts < 0 {
		opts.Policy.MaxAttempts = 0
	}
	if opts.PongWait <= 0 {
		opts.PongWait = 60 * time.Second
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		url:       opts.URL,
		dialer:    opts.Dialer,
		emitter:   opts.Emitter,
		observer:  opts.Observer,
		policy:    opts.Policy,
		pongWait:  opts.PongWait,
		writeWait: opts.WriteWait,
		logger:    opts.Logger.With("component", "push_manager"),
		afterFunc: realAfterFunc,
		ctx:       ctx,
		cancel:    cancel,
		state:     StateClosed,
		phase:     PhaseIdle,
	}
}

// Status returns a snapshot of the connection and policy state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		State:       m.state,
		Connected:   m.state == StateOpen,
		Phase:       m.phase,
		Attempts:    m.attempts,
		MaxAttempts: m.policy.MaxAttempts,
		URL:         m.url,
	}
}

// Connected reports whether the channel is open.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateOpen
}

// Connect dials the push channel. It is a no-op while a connection is open
// or a dial is in flight, so stray concurrent calls never create a second
// socket. A failed dial counts as a close and runs the reconnection policy;
// the dial error is also returned to the caller.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	if m.dialing || m.conn != nil {
		m.mu.Unlock()
		m.logger.Debug("connect ignored, connection already open or in progress")
		return nil
	}
	m.dialing = true
	m.mu.Unlock()

	m.logger.Info("dialing push channel", "url", m.url)
	conn, err := m.dialer.Dial(ctx, m.url)

	m.mu.Lock()
	m.dialing = false
	if err != nil {
		intentional := m.closed
		m.state = StateClosed
		m.mu.Unlock()

		if intentional {
			m.logger.Debug("dial abandoned, push channel closed", "error", err)
			return fmt.Errorf("%w: %w", ErrManagerClosed, err)
		}
		err = fmt.Errorf("%w: %w", ErrTransport, err)
		m.handleError(err)
		m.afterDisconnect(err, false)
		return err
	}
	if m.closed {
		m.mu.Unlock()
		_ = conn.Close()
		return ErrManagerClosed
	}
	m.gen++
	gen := m.gen
	m.conn = conn
	m.state = StateOpen
	m.phase = PhaseConnected
	m.attempts = 0
	// Reserved here so a Close that slips in before handleOpen still waits
	// for it.
	m.wg.Add(1)
	m.mu.Unlock()

	m.handleOpen(conn, gen)
	return nil
}

// Send JSON-encodes v and writes it if the channel is open. Otherwise it
// does nothing: there is no queue and no error is surfaced.
func (m *Manager) Send(v interface{}) {
	m.mu.Lock()
	conn := m.conn
	open := m.state == StateOpen
	m.mu.Unlock()

	if !open || conn == nil {
		m.logger.Debug("send skipped, push channel not open")
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		m.logger.Warn("failed to encode outgoing frame", "error", err)
		return
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(m.writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		m.logger.Warn("failed to write outgoing frame", "error", err)
	}
}

// Close tears the channel down for good: any pending reconnect is cancelled
// and no further attempts are made. Close blocks until the read loop exits;
// do not call it from an Observer or event handler.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
	conn := m.conn
	m.cancel()
	m.mu.Unlock()

	m.logger.Info("closing push channel")

	var err error
	if conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(m.writeWait))
		err = conn.Close()
	}

	m.wg.Wait()

	m.mu.Lock()
	m.conn = nil
	m.state = StateClosed
	m.phase = PhaseStopped
	m.mu.Unlock()

	return err
}

// handleOpen runs once per successful dial. It owns the wait group slot
// reserved by Connect and either hands it to the read loop or releases it
// when the manager was closed in the meantime.
func (m *Manager) handleOpen(conn Conn, gen uint64) {
	_ = conn.SetReadDeadline(time.Now().Add(m.pongWait))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(m.pongWait))
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(m.writeWait))
		if err == nil || errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	m.mu.Lock()
	stale := m.closed || gen != m.gen
	m.mu.Unlock()
	if stale {
		m.wg.Done()
		return
	}

	m.logger.Info("push channel connected", "url", m.url)
	m.notifyConnectivity(true)
	m.appendLog("push channel connected")

	go m.readLoop(conn, gen)
}

func (m *Manager) readLoop(conn Conn, gen uint64) {
	defer m.wg.Done()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.mu.Lock()
			intentional := m.closed
			m.mu.Unlock()

			if !intentional && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				m.handleError(fmt.Errorf("%w: %w", ErrTransport, err))
			}
			m.handleClose(gen, err)
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(m.pongWait))
		_ = m.handleMessage(m.ctx, data)
	}
}

// handleMessage classifies one frame and emits it. Malformed frames are
// logged and dropped; they never affect connection state.
func (m *Manager) handleMessage(ctx context.Context, data []byte) error {
	kind, err := Classify(data)
	if err != nil {
		m.logger.Warn("dropping push frame", "error", err, "bytes", len(data))
		m.appendLog("dropped malformed push frame")
		return err
	}

	event := events.NewEvent(kind, data)
	if kind == events.KindConnection {
		m.logger.Info("push channel notice", "message", NoticeMessage(data), "event_id", event.ID)
	}

	if m.emitter == nil {
		return nil
	}
	if err := m.emitter.EmitEvent(ctx, event); err != nil {
		m.logger.Warn("push event handler failed", "error", err, "event_id", event.ID, "event_kind", kind)
		return err
	}
	return nil
}

// handleError logs a transport failure. Reconnection is driven by the close
// that follows, never by the error itself.
func (m *Manager) handleError(err error) {
	m.logger.Warn("push channel error", "error", err)
	m.appendLog(fmt.Sprintf("push channel error: %v", err))
}

// handleClose runs when the read loop for connection gen ends.
func (m *Manager) handleClose(gen uint64, cause error) {
	m.mu.Lock()
	if gen != m.gen || m.conn == nil {
		m.mu.Unlock()
		return
	}
	conn := m.conn
	m.conn = nil
	m.state = StateClosed
	intentional := m.closed
	m.mu.Unlock()

	_ = conn.Close()
	m.afterDisconnect(fmt.Errorf("%w: %w", ErrConnectionLost, cause), intentional)
}

func (m *Manager) afterDisconnect(cause error, intentional bool) {
	m.logger.Info("push channel disconnected", "cause", cause, "intentional", intentional)
	m.notifyConnectivity(false)
	m.appendLog("push channel disconnected")

	if intentional {
		m.mu.Lock()
		m.phase = PhaseStopped
		m.mu.Unlock()
		return
	}
	m.scheduleReconnect()
}

// scheduleReconnect applies the policy after a close.
func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if m.pending != nil {
		m.mu.Unlock()
		return
	}
	maxAttempts := m.policy.MaxAttempts
	if m.attempts >= maxAttempts {
		m.phase = PhaseGivenUp
		attempts := m.attempts
		m.mu.Unlock()

		m.logger.Warn("giving up on push channel", "error", ErrReconnectExhausted, "attempts", attempts)
		m.appendLog("reconnect attempts exhausted, giving up")
		return
	}
	m.attempts++
	n := m.attempts
	m.phase = PhaseDisconnected
	m.pending = m.afterFunc(m.policy.Interval, m.fireReconnect)
	m.mu.Unlock()

	m.logger.Info("scheduling reconnect",
		"attempt", n,
		"max_attempts", maxAttempts,
		"delay", m.policy.Interval)
	m.appendLog(fmt.Sprintf("reconnect attempt %d/%d", n, maxAttempts))
}

func (m *Manager) fireReconnect() {
	m.mu.Lock()
	m.pending = nil
	closed := m.closed
	m.mu.Unlock()

	if closed {
		return
	}
	if err := m.Connect(m.ctx); err != nil {
		m.logger.Debug("reconnect attempt failed", "error", err)
	}
}

func (m *Manager) notifyConnectivity(connected bool) {
	if m.observer != nil {
		m.observer.SetConnectionIndicator(connected)
	}
}

func (m *Manager) appendLog(line string) {
	if m.observer != nil {
		m.observer.AppendLog(line)
	}
}
