package datasets

import (
	"context"
	"flag"
	"log"

	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
	"github.com/opst/mlconsole/cmd/mlconsole/subcommands/internal/listing"
	"github.com/opst/mlconsole/pkg/api/types/datasets"
	"github.com/opst/mlconsole/pkg/store"
)

type List struct {
	listing listing.Flags
	status  string
	typ     string
}

func NewList() *List {
	return &List{}
}

func (*List) Name() string { return "list" }

func (*List) Help() command.Help {
	return command.Help{
		Synopsis: "list datasets",
		Example: `
{{ .Command }} --status blocked
{{ .Command }} --type synthetic --format json
`,
	}
}

func (c *List) SetFlags(f *flag.FlagSet) {
	c.listing.SetFlags(f, store.DefaultPageSize)
	f.StringVar(&c.status, "status", "", "show datasets in the status. draft|passed|blocked")
	f.StringVar(&c.typ, "type", "", "show datasets of the type. human|synthetic|mixed")
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
		st, err := asStatus(c.status)
		if err != nil {
			return err
		}
		filters["status"] = string(st)
	}
	if c.typ != "" {
		t, err := asType(c.typ)
		if err != nil {
			return err
		}
		filters["type"] = string(t)
	}

	ds := store.NewDatasets(s.Client, store.WithLogger(s.Logger), store.WithPageSize(c.listing.PageSize))
	if err := listing.Fetch(ctx, ds.List, filters, c.listing.Page); err != nil {
		return err
	}

	return listing.Print(s.Out, c.listing.Format, ds.Snapshot(), []listing.Column[datasets.Summary]{
		{Header: "ID", Value: func(d datasets.Summary) any { return d.Id }},
		{Header: "NAME", Value: func(d datasets.Summary) any { return d.Name }},
		{Header: "VERSION", Value: func(d datasets.Summary) any { return d.Version }},
		{Header: "TYPE", Value: func(d datasets.Summary) any { return d.Type }},
		{Header: "DIRECTION", Value: func(d datasets.Summary) any { return d.LanguageDirection }},
		{Header: "STATUS", Value: func(d datasets.Summary) any { return d.Status }},
		{Header: "CREATED", Value: func(d datasets.Summary) any { return listing.Time(d.CreatedAt) }},
	})
}
