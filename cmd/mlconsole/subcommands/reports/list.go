package reports

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
	"github.com/opst/mlconsole/cmd/mlconsole/subcommands/internal/listing"
	"github.com/opst/mlconsole/pkg/api/types/reports"
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
		Synopsis: "list reports",
		Example: `
{{ .Command }} --status published
{{ .Command }} --type comparison --format json
`,
	}
}

func (c *List) SetFlags(f *flag.FlagSet) {
	c.listing.SetFlags(f, store.DefaultReportsPageSize)
	f.StringVar(&c.status, "status", "", "show reports in the status. draft|published|generating")
	f.StringVar(&c.typ, "type", "", "show reports of the type. performance|comparison|analysis|summary")
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
		switch st := reports.Status(c.status); st {
		case reports.Draft, reports.Published, reports.Generating:
			filters["status"] = string(st)
		default:
			return fmt.Errorf("%w: unknown report status: %q", command.ErrUsage, c.status)
		}
	}
	if c.typ != "" {
		switch t := reports.Type(c.typ); t {
		case reports.Performance, reports.ComparisonType, reports.Analysis, reports.SummaryType:
			filters["type"] = string(t)
		default:
			return fmt.Errorf("%w: unknown report type: %q", command.ErrUsage, c.typ)
		}
	}

	rs := store.NewReports(s.Client, store.WithLogger(s.Logger), store.WithPageSize(c.listing.PageSize))
	if err := listing.Fetch(ctx, rs.List, filters, c.listing.Page); err != nil {
		return err
	}

	return listing.Print(s.Out, c.listing.Format, rs.Snapshot(), []listing.Column[reports.Summary]{
		{Header: "ID", Value: func(r reports.Summary) any { return r.Id }},
		{Header: "TITLE", Value: func(r reports.Summary) any { return r.Title }},
		{Header: "TYPE", Value: func(r reports.Summary) any { return r.Type }},
		{Header: "STATUS", Value: func(r reports.Summary) any { return r.Status }},
		{Header: "EXPERIMENT", Value: func(r reports.Summary) any { return r.ExperimentId }},
		{Header: "TAGS", Value: func(r reports.Summary) any { return strings.Join(r.Tags, ",") }},
		{Header: "PUBLISHED", Value: func(r reports.Summary) any { return listing.PTime(r.PublishedAt) }},
	})
}
