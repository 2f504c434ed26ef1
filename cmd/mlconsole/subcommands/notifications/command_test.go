package notifications_test

import (
	"context"
	"errors"
	"flag"
	"strings"
	"testing"
	"time"

	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
	"github.com/opst/mlconsole/cmd/mlconsole/subcommands/internal/testenv"
	"github.com/opst/mlconsole/cmd/mlconsole/subcommands/notifications"
	"github.com/opst/mlconsole/pkg/api/types/events"
	"github.com/opst/mlconsole/pkg/rest/mock"
	"github.com/opst/mlconsole/pkg/socket"
)

func run(t *testing.T, env *testenv.Env, args ...string) <-chan error {
	t.Helper()
	testee := notifications.NewWatch()
	fs := flag.NewFlagSet(testee.Name(), flag.ContinueOnError)
	testee.SetFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() {
		done <- testee.Execute(context.Background(), env.Logger(), env.Session, fs.Args())
	}()
	return done
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("it does not return")
		return nil
	}
}

func notification(title string, action *events.Action) events.Notification {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
	return events.Notification{
		Envelope: events.Envelope{Type: events.TypeNotification, Timestamp: &ts},
		Level:    events.Success,
		Title:    title,
		Message:  "message of " + title,
		Action:   action,
	}
}

func TestWatch(t *testing.T) {
	t.Run("it prints notifications in order and exits after --count", func(t *testing.T) {
		env := testenv.New(t, mock.New(t))
		done := run(t, env, "--count", "2")

		env.Conn.WaitSubscribed(t, "notification")
		env.Conn.Push(t, "notification", notification("first", nil))
		env.Conn.Push(t, "notification", notification("second", &events.Action{Label: "open", URL: "/experiments/exp-1"}))

		if err := wait(t, done); err != nil {
			t.Fatal(err)
		}
		expected := strings.Join([]string{
			"2024-06-01 12:00:00 [success] first: message of first",
			"2024-06-01 12:00:00 [success] second: message of second",
			"    open: /experiments/exp-1",
			"",
		}, "\n")
		if got := env.Out.String(); got != expected {
			t.Errorf("output:\n===actual===\n%s\n===expected===\n%s", got, expected)
		}
		if got := env.Session.Global.UnreadCount(); got != 2 {
			t.Errorf("unread count: (actual, expected) = (%d, 2)", got)
		}
	})

	t.Run("it returns an error when the event channel is lost", func(t *testing.T) {
		env := testenv.New(t, mock.New(t))
		done := run(t, env)

		env.Conn.WaitSubscribed(t, "notification")
		env.Conn.Close()

		if err := wait(t, done); !errors.Is(err, socket.ErrClosed) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("it returns ErrUsage for negative --count", func(t *testing.T) {
		env := testenv.New(t, mock.New(t))
		if err := wait(t, run(t, env, "--count", "-1")); !errors.Is(err, command.ErrUsage) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
