// Package dashboard holds "mlconsole dashboard" command.
package dashboard

import (
	"context"
	"flag"
	"log"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
	"github.com/opst/mlconsole/pkg/api/types/experiments"
	"github.com/opst/mlconsole/pkg/store"
	"golang.org/x/sync/errgroup"
)

// RecentItems is how many latest items are shown per resource.
const RecentItems = 3

type Dashboard struct{}

func New() *Dashboard {
	return &Dashboard{}
}

func (*Dashboard) Name() string { return "dashboard" }

func (*Dashboard) Help() command.Help {
	return command.Help{
		Synopsis: "show an overview of models, datasets, experiments and reports",
		Example:  "{{ .Command }}",
	}
}

func (*Dashboard) SetFlags(*flag.FlagSet) {}

type row struct {
	resource string
	total    int
	recent   []string
}

func (*Dashboard) Execute(ctx context.Context, l *log.Logger, s *command.Session, args []string) error {
	if len(args) != 0 {
		return command.ErrUsage
	}
	opts := []store.Option{store.WithLogger(s.Logger), store.WithPageSize(RecentItems)}
	mods := store.NewModels(s.Client, opts...)
	dss := store.NewDatasets(s.Client, opts...)
	exps := store.NewExperiments(s.Client, opts...)
	running := store.NewExperiments(s.Client, opts...)
	rps := store.NewReports(s.Client, opts...)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return mods.FetchList(ctx) })
	eg.Go(func() error { return dss.FetchList(ctx) })
	eg.Go(func() error { return exps.FetchList(ctx) })
	eg.Go(func() error {
		return running.SetFilters(ctx, store.Filters{"status": string(experiments.Running)})
	})
	eg.Go(func() error { return rps.FetchList(ctx) })
	if err := eg.Wait(); err != nil {
		return err
	}

	rows := []row{
		summarize("models", mods.List),
		summarize("datasets", dss.List),
		summarize("experiments", exps.List),
		summarize("running experiments", running.List),
		summarize("reports", rps.List),
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(s.Out)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"RESOURCE", "TOTAL", "RECENT"})
	for _, r := range rows {
		recent := "-"
		if len(r.recent) != 0 {
			recent = strings.Join(r.recent, ", ")
		}
		tw.AppendRow(table.Row{r.resource, r.total, recent})
	}
	tw.Render()
	return nil
}

func summarize[T store.Entity](name string, l *store.List[T]) row {
	snap := l.Snapshot()
	r := row{resource: name, total: snap.Page.Total}
	for _, item := range snap.Items {
		r.recent = append(r.recent, item.ID())
	}
	return r
}
