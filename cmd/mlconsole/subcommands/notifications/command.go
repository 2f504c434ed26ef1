// Package notifications holds "mlconsole notifications" command.
package notifications

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
	"github.com/opst/mlconsole/pkg/api/types/events"
	"github.com/opst/mlconsole/pkg/socket"
	"github.com/opst/mlconsole/pkg/store"
)

// Watch prints notifications pushed from the server.
type Watch struct {
	count int
}

func NewWatch() *Watch {
	return &Watch{}
}

func (*Watch) Name() string { return "notifications" }

func (*Watch) Help() command.Help {
	return command.Help{
		Synopsis: "print notifications pushed from the server",
		Detail: `
Print notifications as they come, until interrupted.

With --count N, it exits after N notifications.
`,
		Example: `
{{ .Command }}
{{ .Command }} --count 1
`,
	}
}

func (c *Watch) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.count, "count", 0, "exit after receiving this many notifications. 0 means no limit")
}

func (c *Watch) Execute(ctx context.Context, l *log.Logger, s *command.Session, args []string) error {
	if len(args) != 0 {
		return command.ErrUsage
	}
	if c.count < 0 {
		return fmt.Errorf("%w: --count should not be negative", command.ErrUsage)
	}

	r, err := s.Live()
	if err != nil {
		return err
	}
	defer r.Close()

	view, err := r.Mount(ctx)
	if err != nil {
		return err
	}
	defer view.Unmount()

	closed := make(chan struct{})
	closeOnce := sync.OnceFunc(func() { close(closed) })
	defer s.Socket().Watch(func(st socket.State) {
		if st == socket.StateClosed {
			closeOnce()
		}
	})()

	// the store has stamped the notification when a message is passed.
	arrived := make(chan struct{}, 64)
	view.WatchNotifications(func(m events.Message) {
		if _, ok := m.(events.Notification); ok {
			arrived <- struct{}{}
		}
	})

	printed := 0
	seen := map[string]struct{}{}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-closed:
			return fmt.Errorf("event channel is lost: %w", socket.ErrClosed)
		case <-arrived:
		}

		ns := s.Global.Notifications()
		// oldest first
		for i := len(ns) - 1; 0 <= i; i-- {
			n := ns[i]
			if _, ok := seen[n.Id]; ok {
				continue
			}
			seen[n.Id] = struct{}{}
			write(s.Out, n)
			printed += 1
			if c.count != 0 && c.count <= printed {
				return nil
			}
		}
	}
}

func write(w io.Writer, n store.Notification) {
	title := n.Title
	if title == "" {
		title = string(n.Level)
	}
	fmt.Fprintf(w, "%s [%s] %s: %s\n", n.CreatedAt.Local().Format(time.DateTime), n.Level, title, n.Message)
	if n.Action != nil {
		fmt.Fprintf(w, "    %s: %s\n", n.Action.Label, n.Action.URL)
	}
}
