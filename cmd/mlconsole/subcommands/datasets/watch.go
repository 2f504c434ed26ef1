package datasets

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
	"github.com/opst/mlconsole/pkg/api/types/datasets"
	"github.com/opst/mlconsole/pkg/api/types/events"
	"github.com/opst/mlconsole/pkg/live"
	"github.com/opst/mlconsole/pkg/socket"
	"github.com/opst/mlconsole/pkg/store"
)

var ErrDatasetBlocked = errors.New("dataset is blocked by the quality gate")

// Watch waits for the quality gate of a dataset.
type Watch struct{}

func NewWatch() *Watch {
	return &Watch{}
}

func (*Watch) Name() string { return "watch" }

func (*Watch) Help() command.Help {
	return command.Help{
		Synopsis: "wait for the quality gate of a dataset",
		Args:     "<DATASET_ID>",
		Detail: `
Wait until the quality gate of the dataset decides, and print the result.

It exits with non-zero status when the dataset is blocked.
`,
		Example: "{{ .Command }} ds-001",
	}
}

func (*Watch) SetFlags(*flag.FlagSet) {}

func (c *Watch) Execute(ctx context.Context, l *log.Logger, s *command.Session, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return fmt.Errorf("%w: one DATASET_ID is required", command.ErrUsage)
	}
	id := args[0]

	ds := store.NewDatasets(s.Client, store.WithLogger(s.Logger))
	if err := ds.FetchDetail(ctx, id); err != nil {
		return err
	}
	detail, _ := ds.Selected()
	if detail.Status != datasets.Draft {
		printGate(s, detail.Id, detail.Status, detail.QualityGate.BlockReasons)
		return verdict(detail.Status)
	}
	fmt.Fprintf(s.Out, "%s (%s): waiting for the quality gate\n", detail.Id, detail.Name)

	r, err := s.Live(live.WithDatasets(ds))
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

	decided := make(chan events.QualityGate, 1)
	view.WatchDataset(id, func(m events.Message) {
		if g, ok := m.(events.QualityGate); ok {
			select {
			case decided <- g:
			default:
			}
		}
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-closed:
		return fmt.Errorf("event channel is lost: %w", socket.ErrClosed)
	case g := <-decided:
		st := g.DatasetStatus()
		printGate(s, id, st, reasons(g.Details))
		return verdict(st)
	}
}

func printGate(s *command.Session, id string, st datasets.Status, reasons []string) {
	fmt.Fprintf(s.Out, "%s: %s\n", id, st)
	for _, r := range reasons {
		fmt.Fprintf(s.Out, "  - %s\n", r)
	}
}

// reasons picks "blockReasons" out of details of a quality gate event.
func reasons(details map[string]any) []string {
	raw, ok := details["blockReasons"].([]any)
	if !ok {
		return nil
	}
	ret := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok && strings.TrimSpace(s) != "" {
			ret = append(ret, s)
		}
	}
	return ret
}

func verdict(st datasets.Status) error {
	if st == datasets.Blocked {
		return ErrDatasetBlocked
	}
	return nil
}
