package socket_test

import (
	"context"
	"testing"

	"github.com/opst/mlconsole/pkg/socket"
)

func TestShared(t *testing.T) {
	t.Run("it connects on the first handle and disconnects on the last release", func(t *testing.T) {
		dialer := newFakeDialer()
		s := newTestSocket(dialer)
		testee := socket.NewShared(s)
		ctx := context.Background()

		a, err := testee.Acquire(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if s.State() != socket.StateConnecting {
			t.Errorf("not connecting: %s", s.State())
		}
		conn := newFakeConn()
		dialer.Accept(t, conn)
		waitConnected(t, a.Socket())

		b, err := testee.Acquire(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if testee.Refs() != 2 {
			t.Errorf("refs = %d, want 2", testee.Refs())
		}

		a.Release()
		a.Release()
		if testee.Refs() != 1 || !s.IsConnected() {
			t.Errorf("released too much: refs = %d, state = %s", testee.Refs(), s.State())
		}

		b.Release()
		if testee.Refs() != 0 || s.State() != socket.StateDisconnected || !conn.IsClosed() {
			t.Errorf("not disconnected: refs = %d, state = %s", testee.Refs(), s.State())
		}
	})

	t.Run("it does not take a reference when the context is done", func(t *testing.T) {
		s := newTestSocket(newFakeDialer())
		testee := socket.NewShared(s)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := testee.Acquire(ctx); err == nil {
			t.Error("no error")
		}
		if testee.Refs() != 0 || s.State() != socket.StateDisconnected {
			t.Errorf("unexpected: refs = %d, state = %s", testee.Refs(), s.State())
		}
	})
}
