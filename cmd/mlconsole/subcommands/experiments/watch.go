package experiments

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	pb "github.com/cheggaaa/pb/v3"
	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
	"github.com/opst/mlconsole/pkg/api/types/events"
	"github.com/opst/mlconsole/pkg/api/types/experiments"
	"github.com/opst/mlconsole/pkg/live"
	"github.com/opst/mlconsole/pkg/socket"
	"github.com/opst/mlconsole/pkg/store"
)

var ErrExperimentFailed = errors.New("experiment failed")

const progressBar pb.ProgressBarTemplate = `{{ string . "prefix" }}{{ counters . }} {{ bar . }} {{ percent . }} {{ string . "loss" }}`

// Watch follows progress of an experiment until it terminates.
type Watch struct {
	progressOut io.Writer
}

type WatchOption func(*Watch) *Watch

// WithProgressOut sets where the progress bar is drawn. Default is stderr.
func WithProgressOut(w io.Writer) WatchOption {
	return func(c *Watch) *Watch {
		c.progressOut = w
		return c
	}
}

func NewWatch(opts ...WatchOption) *Watch {
	c := &Watch{progressOut: os.Stderr}
	for _, o := range opts {
		c = o(c)
	}
	return c
}

func (*Watch) Name() string { return "watch" }

func (*Watch) Help() command.Help {
	return command.Help{
		Synopsis: "follow training progress of an experiment",
		Args:     "<EXPERIMENT_ID>",
		Detail: `
Show progress of the experiment pushed from the server, until it completes, fails or is stopped.

It exits with non-zero status when the experiment fails or the event channel is lost.
`,
		Example: "{{ .Command }} exp-001",
	}
}

func (*Watch) SetFlags(*flag.FlagSet) {}

func (c *Watch) Execute(ctx context.Context, l *log.Logger, s *command.Session, args []string) error {
	id, err := oneId(args)
	if err != nil {
		return err
	}

	exps := store.NewExperiments(s.Client, store.WithLogger(s.Logger), store.WithInferRunning(true))
	if err := exps.FetchDetail(ctx, id); err != nil {
		return err
	}
	detail, _ := exps.Selected()
	fmt.Fprintf(s.Out, "%s (%s): %s\n", detail.Id, detail.Name, detail.Status)
	if detail.Status.Terminal() {
		return result(detail.Status)
	}

	r, err := s.Live(live.WithExperiments(exps))
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

	bar := progressBar.New(0)
	bar.SetWriter(c.progressOut)
	bar.Set("prefix", id+" ")
	if p := detail.Progress; p != nil {
		bar.SetTotal(int64(p.TotalEpochs))
		bar.SetCurrent(int64(p.CurrentEpoch))
	}
	bar.Start()
	defer bar.Finish()

	terminated := make(chan experiments.Status, 1)
	view.WatchExperiment(id, func(m events.Message) {
		switch m := m.(type) {
		case events.ExperimentProgress:
			p, ok := exps.Progress()[id]
			if !ok {
				return
			}
			bar.SetTotal(int64(p.TotalEpochs))
			bar.SetCurrent(int64(p.CurrentEpoch))
			bar.Set("loss", fmt.Sprintf("loss=%.4f", p.Loss))
		case events.ExperimentStatus:
			d, ok := exps.Selected()
			if !ok || d.Id != id || d.Status != m.Status {
				// older than what is applied.
				return
			}
			fmt.Fprintf(s.Out, "%s: %s\n", id, m.Status)
			if m.Status.Terminal() {
				select {
				case terminated <- m.Status:
				default:
				}
			}
		}
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-closed:
		return fmt.Errorf("event channel is lost: %w", socket.ErrClosed)
	case st := <-terminated:
		if st == experiments.Completed {
			bar.SetCurrent(bar.Total())
		}
		return result(st)
	}
}

func result(st experiments.Status) error {
	if st == experiments.Failed {
		return ErrExperimentFailed
	}
	return nil
}
