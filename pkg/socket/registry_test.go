package socket_test

import (
	"encoding/json"
	"testing"

	"github.com/opst/mlconsole/pkg/api/types/events"
	"github.com/opst/mlconsole/pkg/socket"
)

// intentsOf returns intents sent as the event.
func intentsOf(t *testing.T, frames []socket.Frame, event string) []events.Intent {
	t.Helper()
	ret := []events.Intent{}
	for _, f := range frames {
		if f.Event != event {
			continue
		}
		i := events.Intent{}
		if err := json.Unmarshal(f.Data, &i); err != nil {
			t.Fatal(err)
		}
		ret = append(ret, i)
	}
	return ret
}

func connectedRegistry(t *testing.T) (*socket.Registry, *fakeDialer, *fakeConn) {
	t.Helper()
	dialer := newFakeDialer()
	s := newTestSocket(dialer)
	t.Cleanup(s.Disconnect)
	r := socket.NewRegistry(s)
	t.Cleanup(r.Close)

	s.Connect()
	conn := newFakeConn()
	dialer.Accept(t, conn)
	waitConnected(t, s)
	return r, dialer, conn
}

func TestRegistry_Subscribe(t *testing.T) {
	for name, testcase := range map[string]struct {
		subscribe func(r *socket.Registry, l *socket.Listener)
		want      events.Intent
		event     string
	}{
		"experiment": {
			subscribe: func(r *socket.Registry, l *socket.Listener) { r.SubscribeToExperiment("exp-1", l) },
			want:      events.Intent{Type: events.Experiment, Id: "exp-1"},
			event:     "experiment:exp-1",
		},
		"dataset": {
			subscribe: func(r *socket.Registry, l *socket.Listener) { r.SubscribeToDataset("ds-1", l) },
			want:      events.Intent{Type: events.Dataset, Id: "ds-1"},
			event:     "dataset:ds-1",
		},
		"notifications": {
			subscribe: func(r *socket.Registry, l *socket.Listener) { r.SubscribeToNotifications(l) },
			want:      events.Intent{Type: events.Notifications},
			event:     "notification",
		},
	} {
		t.Run("it sends subscribe and listens to "+name, func(t *testing.T) {
			r, _, conn := connectedRegistry(t)
			rec := newRecorder()
			testcase.subscribe(r, rec.Listener)

			got := intentsOf(t, conn.Sent(), events.Subscribe)
			if len(got) != 1 || got[0] != testcase.want {
				t.Errorf("unexpected subscriptions: %+v", got)
			}

			conn.Push(t, testcase.event, map[string]string{"type": "notification"})
			rec.Next(t)
		})
	}
}

func TestRegistry_Unsubscribe(t *testing.T) {
	t.Run("it keeps other listeners of the same resource", func(t *testing.T) {
		r, _, conn := connectedRegistry(t)
		a, b := newRecorder(), newRecorder()
		r.SubscribeToExperiment("exp-1", a.Listener)
		r.SubscribeToExperiment("exp-1", b.Listener)

		r.UnsubscribeFromExperiment("exp-1", a.Listener)

		if got := intentsOf(t, conn.Sent(), events.Unsubscribe); len(got) != 0 {
			t.Errorf("unsubscribe is sent while a listener remains: %+v", got)
		}
		conn.Push(t, "experiment:exp-1", map[string]string{})
		b.Next(t)
		a.None(t)
	})

	t.Run("it sends unsubscribe when the last listener leaves", func(t *testing.T) {
		r, _, conn := connectedRegistry(t)
		a, b := newRecorder(), newRecorder()
		r.SubscribeToDataset("ds-1", a.Listener)
		r.SubscribeToDataset("ds-1", b.Listener)

		r.UnsubscribeFromDataset("ds-1", a.Listener)
		r.UnsubscribeFromDataset("ds-1", b.Listener)

		got := intentsOf(t, conn.Sent(), events.Unsubscribe)
		want := events.Intent{Type: events.Dataset, Id: "ds-1"}
		if len(got) != 1 || got[0] != want {
			t.Errorf("unexpected unsubscriptions: %+v", got)
		}
		if r.Socket().HasListeners("dataset:ds-1") {
			t.Error("listeners are left")
		}
	})

	t.Run("it removes all listeners of the resource and sends unsubscribe for nil", func(t *testing.T) {
		r, _, conn := connectedRegistry(t)
		a, b, other := newRecorder(), newRecorder(), newRecorder()
		r.SubscribeToExperiment("exp-1", a.Listener)
		r.SubscribeToExperiment("exp-1", b.Listener)
		r.SubscribeToExperiment("exp-2", other.Listener)

		r.UnsubscribeFromExperiment("exp-1", nil)

		got := intentsOf(t, conn.Sent(), events.Unsubscribe)
		want := events.Intent{Type: events.Experiment, Id: "exp-1"}
		if len(got) != 1 || got[0] != want {
			t.Errorf("unexpected unsubscriptions: %+v", got)
		}
		if r.Socket().HasListeners("experiment:exp-1") {
			t.Error("listeners are left")
		}
		if !r.Socket().HasListeners("experiment:exp-2") {
			t.Error("listener of another resource is removed")
		}
		conn.Push(t, "experiment:exp-1", map[string]string{})
		conn.Push(t, "experiment:exp-2", map[string]string{})
		other.Next(t)
		a.None(t)
		b.None(t)
	})

	t.Run("it does nothing for a listener not subscribed", func(t *testing.T) {
		r, _, conn := connectedRegistry(t)
		a := newRecorder()
		r.SubscribeToNotifications(a.Listener)

		r.UnsubscribeFromNotifications(newRecorder().Listener)

		if got := intentsOf(t, conn.Sent(), events.Unsubscribe); len(got) != 0 {
			t.Errorf("unexpected unsubscriptions: %+v", got)
		}
		if !r.Socket().HasListeners("notification") {
			t.Error("listener is removed")
		}
	})
}

func TestRegistry_Resubscribe(t *testing.T) {
	t.Run("it sends subscriptions made before connection on connect", func(t *testing.T) {
		dialer := newFakeDialer()
		s := newTestSocket(dialer)
		defer s.Disconnect()
		r := socket.NewRegistry(s)
		defer r.Close()

		s.Connect()
		r.SubscribeToExperiment("exp-1", newRecorder().Listener)
		conn := newFakeConn()
		dialer.Accept(t, conn)

		eventually(t, func() bool { return len(intentsOf(t, conn.Sent(), events.Subscribe)) == 1 })
		got := intentsOf(t, conn.Sent(), events.Subscribe)
		if want := (events.Intent{Type: events.Experiment, Id: "exp-1"}); got[0] != want {
			t.Errorf("unexpected subscription: %+v", got)
		}
	})

	t.Run("it sends subscriptions again on reconnection, except removed ones", func(t *testing.T) {
		r, dialer, first := connectedRegistry(t)
		keep, gone := newRecorder(), newRecorder()
		r.SubscribeToExperiment("exp-1", keep.Listener)
		r.SubscribeToDataset("ds-1", gone.Listener)
		r.UnsubscribeFromDataset("ds-1", gone.Listener)

		first.Close()
		second := newFakeConn()
		dialer.Accept(t, second)

		eventually(t, func() bool { return len(intentsOf(t, second.Sent(), events.Subscribe)) == 1 })
		got := intentsOf(t, second.Sent(), events.Subscribe)
		if want := (events.Intent{Type: events.Experiment, Id: "exp-1"}); got[0] != want {
			t.Errorf("unexpected subscription: %+v", got)
		}

		second.Push(t, "experiment:exp-1", map[string]string{})
		keep.Next(t)
	})
}
