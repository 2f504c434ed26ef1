package reports

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
	"github.com/opst/mlconsole/pkg/store"
)

type Publish struct{}

func NewPublish() *Publish {
	return &Publish{}
}

func (*Publish) Name() string { return "publish" }

func (*Publish) Help() command.Help {
	return command.Help{
		Synopsis: "publish a report",
		Args:     "<REPORT_ID>",
		Example:  "{{ .Command }} report-001",
	}
}

func (*Publish) SetFlags(*flag.FlagSet) {}

func (*Publish) Execute(ctx context.Context, l *log.Logger, s *command.Session, args []string) error {
	id, err := oneId(args)
	if err != nil {
		return err
	}
	rs := store.NewReports(s.Client, store.WithLogger(s.Logger))
	r, err := rs.Publish(ctx, id)
	if err != nil {
		return err
	}

	at := "-"
	if r.PublishedAt != nil {
		at = r.PublishedAt.Format(time.RFC3339)
	}
	fmt.Fprintf(s.Out, "%s: %s (at %s)\n", r.Id, r.Status, at)
	return nil
}
