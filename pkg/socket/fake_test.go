package socket_test

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/opst/mlconsole/pkg/logger"
	"github.com/opst/mlconsole/pkg/socket"
	"github.com/opst/mlconsole/pkg/utils/retry"
)

type fakeConn struct {
	in     chan socket.Frame
	closed chan struct{}
	once   sync.Once

	mu  sync.Mutex
	out []socket.Frame
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan socket.Frame, 16), closed: make(chan struct{})}
}

func (c *fakeConn) ReadFrame() (socket.Frame, error) {
	select {
	case f := <-c.in:
		return f, nil
	case <-c.closed:
		return socket.Frame{}, io.EOF
	}
}

func (c *fakeConn) WriteFrame(f socket.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, f)
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) IsClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Push sends a frame from the server side.
func (c *fakeConn) Push(t *testing.T, event string, data any) {
	t.Helper()
	b, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	c.in <- socket.Frame{Event: event, Data: b}
}

// Sent returns frames written by the client.
func (c *fakeConn) Sent() []socket.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]socket.Frame{}, c.out...)
}

type dialResult struct {
	conn socket.Conn
	err  error
}

// fakeDialer blocks each Dial until a result is fed.
type fakeDialer struct {
	results chan dialResult

	mu     sync.Mutex
	tokens []string
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{results: make(chan dialResult)}
}

func (d *fakeDialer) Dial(ctx context.Context, url string, token string) (socket.Conn, error) {
	d.mu.Lock()
	d.tokens = append(d.tokens, token)
	d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-d.results:
		if r.err != nil {
			return nil, r.err
		}
		return r.conn, nil
	}
}

func (d *fakeDialer) Tokens() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string{}, d.tokens...)
}

func (d *fakeDialer) Accept(t *testing.T, conn socket.Conn) {
	t.Helper()
	select {
	case d.results <- dialResult{conn: conn}:
	case <-time.After(3 * time.Second):
		t.Fatal("nobody dials")
	}
}

func (d *fakeDialer) Refuse(t *testing.T, err error) {
	t.Helper()
	select {
	case d.results <- dialResult{err: err}:
	case <-time.After(3 * time.Second):
		t.Fatal("nobody dials")
	}
}

func newTestSocket(d socket.Dialer, opts ...socket.Option) *socket.Socket {
	opts = append([]socket.Option{
		socket.WithDialer(d),
		socket.WithReconnect(5, retry.Policy{Initial: time.Millisecond}),
		socket.WithLogger(logger.Null()),
	}, opts...)
	return socket.New("ws://example.invalid/ws", opts...)
}

func waitConnected(t *testing.T, s *socket.Socket) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.WaitConnected(ctx); err != nil {
		t.Fatalf("not connected: %s", err)
	}
}

// eventually fails t when cond does not hold in a few seconds.
func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition is not satisfied in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// recorder is a listener remembering what it receives.
type recorder struct {
	*socket.Listener
	ch chan json.RawMessage
}

func newRecorder() recorder {
	ch := make(chan json.RawMessage, 64)
	return recorder{
		Listener: socket.NewListener(func(data json.RawMessage) { ch <- data }),
		ch:       ch,
	}
}

func (r recorder) Next(t *testing.T) json.RawMessage {
	t.Helper()
	select {
	case d := <-r.ch:
		return d
	case <-time.After(3 * time.Second):
		t.Fatal("no event is received")
		return nil
	}
}

func (r recorder) None(t *testing.T) {
	t.Helper()
	select {
	case d := <-r.ch:
		t.Fatalf("unexpected event: %s", d)
	case <-time.After(30 * time.Millisecond):
	}
}
