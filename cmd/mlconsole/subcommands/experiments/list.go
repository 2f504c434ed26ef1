package experiments

import (
	"context"
	"flag"
	"log"

	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
	"github.com/opst/mlconsole/cmd/mlconsole/subcommands/internal/listing"
	"github.com/opst/mlconsole/pkg/api/types/experiments"
	"github.com/opst/mlconsole/pkg/store"
)

type List struct {
	listing listing.Flags
	status  string
	task    string
}

func NewList() *List {
	return &List{}
}

func (*List) Name() string { return "list" }

func (*List) Help() command.Help {
	return command.Help{
		Synopsis: "list experiments",
		Example: `
{{ .Command }} --status running
{{ .Command }} --task translation --page 2 --format json
`,
	}
}

func (c *List) SetFlags(f *flag.FlagSet) {
	c.listing.SetFlags(f, store.DefaultPageSize)
	f.StringVar(&c.status, "status", "", "show experiments in the status. pending|running|completed|failed|stopped")
	f.StringVar(&c.task, "task", "", "show experiments of the task")
}

func (c *List) Execute(ctx context.Context, l *log.Logger, s *command.Session, args []string) error {
	if len(args) != 0 {
		return command.ErrUsage
	}
	if err := c.listing.Verify(); err != nil {
		return err
	}
	filters := store.Filters{}
	if c.status != "" {
		st, err := experiments.AsStatus(c.status)
		if err != nil {
			return err
		}
		filters["status"] = string(st)
	}
	if c.task != "" {
		filters["task"] = c.task
	}

	exps := store.NewExperiments(
		s.Client, store.WithLogger(s.Logger), store.WithPageSize(c.listing.PageSize),
	)
	if err := listing.Fetch(ctx, exps.List, filters, c.listing.Page); err != nil {
		return err
	}

	return listing.Print(s.Out, c.listing.Format, exps.Snapshot(), []listing.Column[experiments.Summary]{
		{Header: "ID", Value: func(e experiments.Summary) any { return e.Id }},
		{Header: "NAME", Value: func(e experiments.Summary) any { return e.Name }},
		{Header: "TASK", Value: func(e experiments.Summary) any { return e.Task }},
		{Header: "STATUS", Value: func(e experiments.Summary) any { return e.Status }},
		{Header: "BEST SCORE", Value: func(e experiments.Summary) any { return listing.PFloat(e.BestScore) }},
		{Header: "CREATED", Value: func(e experiments.Summary) any { return listing.Time(e.CreatedAt) }},
	})
}
