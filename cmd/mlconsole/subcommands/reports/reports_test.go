package reports_test

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
	"github.com/opst/mlconsole/cmd/mlconsole/subcommands/internal/testenv"
	"github.com/opst/mlconsole/cmd/mlconsole/subcommands/reports"
	"github.com/opst/mlconsole/pkg/api/types/paging"
	types "github.com/opst/mlconsole/pkg/api/types/reports"
	"github.com/opst/mlconsole/pkg/rest/mock"
)

func parse(t *testing.T, c command.Command, args ...string) []string {
	t.Helper()
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatal(err)
	}
	return fs.Args()
}

func emptyList(ctx context.Context, q paging.Query) (paging.Page[types.Summary], error) {
	return paging.Page[types.Summary]{Items: []types.Summary{}, Page: q.Page, PageSize: q.PageSize}, nil
}

func TestList(t *testing.T) {
	t.Run("it uses the page size for reports and sends filters", func(t *testing.T) {
		client := mock.New(t)
		client.Impl.ListReports = emptyList
		env := testenv.New(t, client)

		testee := reports.NewList()
		args := parse(t, testee, "--status", "published", "--type", "summary")
		if err := testee.Execute(context.Background(), env.Logger(), env.Session, args); err != nil {
			t.Fatal(err)
		}
		if len(client.Calls.ListReports) != 1 {
			t.Fatalf("unexpected calls: %+v", client.Calls.ListReports)
		}
		q := client.Calls.ListReports[0]
		if q.PageSize != 10 || q.Filters["status"] != "published" || q.Filters["type"] != "summary" {
			t.Errorf("unexpected query: %+v", q)
		}
		if !strings.Contains(env.Out.String(), "(no items)") {
			t.Errorf("unexpected output: %q", env.Out)
		}
	})

	t.Run("it returns ErrUsage when the type is unknown", func(t *testing.T) {
		env := testenv.New(t, mock.New(t))
		testee := reports.NewList()
		args := parse(t, testee, "--type", "poem")
		if err := testee.Execute(context.Background(), env.Logger(), env.Session, args); !errors.Is(err, command.ErrUsage) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestPublish(t *testing.T) {
	t.Run("it publishes the report and prints when", func(t *testing.T) {
		at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		client := mock.New(t)
		client.Impl.PublishReport = func(ctx context.Context, id string) (types.Summary, error) {
			return types.Summary{Id: id, Status: types.Published, PublishedAt: &at}, nil
		}
		client.Impl.ListReports = emptyList
		env := testenv.New(t, client)

		if err := reports.NewPublish().Execute(context.Background(), env.Logger(), env.Session, []string{"report-1"}); err != nil {
			t.Fatal(err)
		}
		if got := client.Calls.PublishReport; len(got) != 1 || got[0] != "report-1" {
			t.Errorf("unexpected calls: %v", got)
		}
		if out := env.Out.String(); out != "report-1: published (at 2024-06-01T12:00:00Z)\n" {
			t.Errorf("unexpected output: %q", out)
		}
	})

	t.Run("it returns the error of the server", func(t *testing.T) {
		expected := errors.New("report is generating")
		client := mock.New(t)
		client.Impl.PublishReport = func(ctx context.Context, id string) (types.Summary, error) {
			return types.Summary{}, expected
		}
		env := testenv.New(t, client)

		err := reports.NewPublish().Execute(context.Background(), env.Logger(), env.Session, []string{"report-1"})
		if !errors.Is(err, expected) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestExport(t *testing.T) {
	const doc = "<html><body>report</body></html>"
	exporter := func(ctx context.Context, id string, format types.ExportFormat, w io.Writer) (int64, error) {
		n, err := io.WriteString(w, doc)
		return int64(n), err
	}

	t.Run("it writes the document to stdout without --output", func(t *testing.T) {
		client := mock.New(t)
		client.Impl.ExportReport = exporter
		env := testenv.New(t, client)

		testee := reports.NewExport()
		args := parse(t, testee, "report-1")
		if err := testee.Execute(context.Background(), env.Logger(), env.Session, args); err != nil {
			t.Fatal(err)
		}
		if env.Out.String() != doc {
			t.Errorf("unexpected output: %q", env.Out)
		}
		expected := mock.ExportReportArgs{Id: "report-1", Format: types.HTML}
		if got := client.Calls.ExportReport; len(got) != 1 || got[0] != expected {
			t.Errorf("unexpected calls: %+v", got)
		}
	})

	t.Run("it writes the document to the file", func(t *testing.T) {
		client := mock.New(t)
		client.Impl.ExportReport = exporter
		env := testenv.New(t, client)
		out := filepath.Join(t.TempDir(), "report.pdf")

		testee := reports.NewExport()
		args := parse(t, testee, "--format", "pdf", "--output", out, "report-1")
		if err := testee.Execute(context.Background(), env.Logger(), env.Session, args); err != nil {
			t.Fatal(err)
		}
		got, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != doc {
			t.Errorf("unexpected content: %q", got)
		}
		if client.Calls.ExportReport[0].Format != types.PDF {
			t.Errorf("unexpected format: %s", client.Calls.ExportReport[0].Format)
		}
	})

	t.Run("it does not overwrite the file without --force", func(t *testing.T) {
		env := testenv.New(t, mock.New(t))
		out := filepath.Join(t.TempDir(), "report.html")
		if err := os.WriteFile(out, []byte("keep"), 0o644); err != nil {
			t.Fatal(err)
		}

		testee := reports.NewExport()
		args := parse(t, testee, "--output", out, "report-1")
		if err := testee.Execute(context.Background(), env.Logger(), env.Session, args); !errors.Is(err, os.ErrExist) {
			t.Errorf("unexpected error: %v", err)
		}
		if got, _ := os.ReadFile(out); string(got) != "keep" {
			t.Errorf("file is overwritten: %q", got)
		}
	})

	t.Run("it removes the file when the export fails", func(t *testing.T) {
		client := mock.New(t)
		client.Impl.ExportReport = func(ctx context.Context, id string, format types.ExportFormat, w io.Writer) (int64, error) {
			return 0, errors.New("fake error")
		}
		env := testenv.New(t, client)
		out := filepath.Join(t.TempDir(), "report.html")

		testee := reports.NewExport()
		args := parse(t, testee, "--output", out, "report-1")
		if err := testee.Execute(context.Background(), env.Logger(), env.Session, args); err == nil {
			t.Fatal("no error")
		}
		if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("file is left: %v", err)
		}
	})

	t.Run("it returns ErrUsage for unknown formats", func(t *testing.T) {
		env := testenv.New(t, mock.New(t))
		testee := reports.NewExport()
		args := parse(t, testee, "--format", "txt", "report-1")
		if err := testee.Execute(context.Background(), env.Logger(), env.Session, args); !errors.Is(err, command.ErrUsage) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
