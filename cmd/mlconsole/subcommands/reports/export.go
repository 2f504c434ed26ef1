package reports

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
	"github.com/opst/mlconsole/pkg/api/types/reports"
	"github.com/opst/mlconsole/pkg/store"
)

type Export struct {
	format string
	output string
	force  bool
}

func NewExport() *Export {
	return &Export{}
}

func (*Export) Name() string { return "export" }

func (*Export) Help() command.Help {
	return command.Help{
		Synopsis: "export a report as a document",
		Args:     "<REPORT_ID>",
		Detail: `
Download the report rendered by the server.

Without --output, the document is written to stdout.
`,
		Example: `
{{ .Command }} --format html --output ./report.html report-001
{{ .Command }} --format pdf report-001 > report.pdf
`,
	}
}

func (c *Export) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", string(reports.HTML), "document format. pdf|docx|html")
	f.StringVar(&c.output, "output", "", "file to write the document to")
	f.BoolVar(&c.force, "force", false, "overwrite the output file if it exists")
}

func (c *Export) Execute(ctx context.Context, l *log.Logger, s *command.Session, args []string) error {
	id, err := oneId(args)
	if err != nil {
		return err
	}
	format := reports.ExportFormat(c.format)
	switch format {
	case reports.PDF, reports.DOCX, reports.HTML:
	default:
		return fmt.Errorf("%w: unknown format %q", command.ErrUsage, c.format)
	}

	rs := store.NewReports(s.Client, store.WithLogger(s.Logger))
	if c.output == "" {
		_, err := rs.Export(ctx, id, format, s.Out)
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if c.force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(c.output, flags, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s exists. use --force to overwrite: %w", c.output, err)
		}
		return err
	}
	n, err := rs.Export(ctx, id, format, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(c.output)
		return err
	}
	l.Printf("%d bytes are written to %s", n, c.output)
	return nil
}
