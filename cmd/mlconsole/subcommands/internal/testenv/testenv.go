// Package testenv builds command.Session for tests of subcommands.
//
// The session has a fake event channel which tests can push events into.
package testenv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
	"github.com/opst/mlconsole/pkg/api/types/events"
	"github.com/opst/mlconsole/pkg/logger"
	"github.com/opst/mlconsole/pkg/rest"
	"github.com/opst/mlconsole/pkg/socket"
	"github.com/opst/mlconsole/pkg/store"
	"github.com/opst/mlconsole/pkg/utils/retry"
)

var errRefused = errors.New("fake server does not accept more links")

// Conn is a server side of a fake event channel.
type Conn struct {
	in     chan socket.Frame
	closed chan struct{}
	once   sync.Once

	mu  sync.Mutex
	out []socket.Frame
}

func newConn() *Conn {
	return &Conn{in: make(chan socket.Frame, 64), closed: make(chan struct{})}
}

func (c *Conn) ReadFrame() (socket.Frame, error) {
	select {
	case f := <-c.in:
		return f, nil
	case <-c.closed:
		return socket.Frame{}, io.EOF
	}
}

func (c *Conn) WriteFrame(f socket.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, f)
	return nil
}

// Close breaks the link.
func (c *Conn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// Push sends an event from the server.
func (c *Conn) Push(t *testing.T, event string, payload any) {
	t.Helper()
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	c.in <- socket.Frame{Event: event, Data: b}
}

// Subscribed tells whether the client has subscribed to the event and not left yet.
func (c *Conn) Subscribed(event string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	in := false
	for _, f := range c.out {
		i := events.Intent{}
		if err := json.Unmarshal(f.Data, &i); err != nil || i.EventName() != event {
			continue
		}
		switch f.Event {
		case events.Subscribe:
			in = true
		case events.Unsubscribe:
			in = false
		}
	}
	return in
}

// WaitSubscribed blocks until the client subscribes to the event.
func (c *Conn) WaitSubscribed(t *testing.T, event string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !c.Subscribed(event) {
		if time.Now().After(deadline) {
			t.Fatalf("%s is not subscribed", event)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// Env is a session for a test and what it is built of.
type Env struct {
	Session *command.Session
	Conn    *Conn

	// what the command prints as results.
	Out *bytes.Buffer

	// what the command logs.
	Log *bytes.Buffer
}

// New returns an Env whose session uses client.
//
// The event channel accepts only one link. Once Conn is closed, the socket gives up.
func New(t *testing.T, client rest.Client) *Env {
	t.Helper()
	conn := newConn()
	var dialed sync.Once
	sock := socket.New(
		"ws://mlconsole.invalid/ws",
		socket.WithDialer(socket.DialerFunc(func(ctx context.Context, _ string, _ string) (socket.Conn, error) {
			var ret socket.Conn
			dialed.Do(func() { ret = conn })
			if ret == nil {
				return nil, errRefused
			}
			return ret, nil
		})),
		socket.WithReconnect(1, retry.Policy{Initial: time.Millisecond}),
		socket.WithLogger(logger.Null()),
	)
	t.Cleanup(func() {
		sock.Disconnect()
		conn.Close()
	})

	out := new(bytes.Buffer)
	l := logger.Null()
	return &Env{
		Session: command.NewSession(client, store.NewGlobal(store.WithLogger(l)), socket.NewShared(sock), l, out),
		Conn:    conn,
		Out:     out,
		Log:     new(bytes.Buffer),
	}
}

// Logger returns a logger writing into e.Log.
func (e *Env) Logger() *log.Logger {
	return log.New(e.Log, "", 0)
}
