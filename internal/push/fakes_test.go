package push

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// fakeConn is an in-memory Conn. Frames pushed with deliver are returned by
// ReadMessage; drop makes the next read fail as if the network went away.
type fakeConn struct {
	frames chan []byte
	done   chan struct{}
	once   sync.Once

	mu       sync.Mutex
	written  [][]byte
	controls []int
	closed   bool
	ping     func(string) error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
}

func (c *fakeConn) deliver(frame string) {
	c.frames <- []byte(frame)
}

func (c *fakeConn) drop() {
	c.once.Do(func() { close(c.done) })
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case <-c.done:
		return 0, nil, &websocket.CloseError{Code: websocket.CloseAbnormalClosure, Text: "connection dropped"}
	default:
	}
	select {
	case data := <-c.frames:
		return websocket.TextMessage, data, nil
	case <-c.done:
		return 0, nil, &websocket.CloseError{Code: websocket.CloseAbnormalClosure, Text: "connection dropped"}
	}
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	c.written = append(c.written, data)
	return nil
}

func (c *fakeConn) WriteControl(messageType int, _ []byte, _ time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controls = append(c.controls, messageType)
	return nil
}

func (c *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) SetPingHandler(h func(string) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ping = h
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.drop()
	return nil
}

func (c *fakeConn) Written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.written))
	for i, w := range c.written {
		out[i] = string(w)
	}
	return out
}

func (c *fakeConn) Controls() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.controls...)
}

var errRefused = errors.New("connection refused")

// fakeDialer hands out queued connections in order and refuses once the
// queue is empty.
type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	dials int
}

func (d *fakeDialer) queue(conns ...*fakeConn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.conns = append(d.conns, conns...)
}

func (d *fakeDialer) Dial(_ context.Context, _ string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if len(d.conns) == 0 {
		return nil, errRefused
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	return c, nil
}

func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// manualClock replaces time.AfterFunc so tests decide when a scheduled
// reconnect fires.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, delay: d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Pending returns the timers that have neither fired nor been stopped.
func (c *manualClock) Pending() []*manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// Scheduled returns how many timers were ever created.
func (c *manualClock) Scheduled() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// FireNext runs the oldest pending timer synchronously.
func (c *manualClock) FireNext() bool {
	c.mu.Lock()
	var next *manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			next = t
			break
		}
	}
	if next != nil {
		next.fired = true
	}
	c.mu.Unlock()

	if next == nil {
		return false
	}
	next.fn()
	return true
}

// gatedConn holds its first SetReadDeadline call until release is closed,
// which parks the manager between the dial and the open notification.
type gatedConn struct {
	*fakeConn
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedConn() *gatedConn {
	return &gatedConn{
		fakeConn: newFakeConn(),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (c *gatedConn) SetReadDeadline(time.Time) error {
	first := false
	c.once.Do(func() { first = true })
	if first {
		close(c.entered)
		<-c.release
	}
	return nil
}

// stallingDialer blocks every dial until its context is cancelled.
type stallingDialer struct {
	entered chan struct{}
}

func (d *stallingDialer) Dial(ctx context.Context, _ string) (Conn, error) {
	close(d.entered)
	<-ctx.Done()
	return nil, ctx.Err()
}

type dialerFunc func(ctx context.Context, url string) (Conn, error)

func (f dialerFunc) Dial(ctx context.Context, url string) (Conn, error) { return f(ctx, url) }
