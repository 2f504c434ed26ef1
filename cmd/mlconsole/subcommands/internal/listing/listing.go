// Package listing prints pages of stores.
package listing

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
	"github.com/opst/mlconsole/pkg/store"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Flags are flags common to list commands.
type Flags struct {
	Page     int
	PageSize int
	Format   string
}

// SetFlags registers --page, --page-size and --format with defaults.
func (f *Flags) SetFlags(fs *flag.FlagSet, pageSize int) {
	f.Page, f.PageSize, f.Format = 1, pageSize, FormatTable
	fs.IntVar(&f.Page, "page", f.Page, "page number, from 1")
	fs.IntVar(&f.PageSize, "page-size", f.PageSize, "items per page")
	fs.StringVar(&f.Format, "format", f.Format, "output format. table|json")
}

// Verify returns command.ErrUsage for invalid flags.
func (f Flags) Verify() error {
	if f.Page < 1 || f.PageSize < 1 {
		return fmt.Errorf("%w: --page and --page-size should be positive", command.ErrUsage)
	}
	if f.Format != FormatTable && f.Format != FormatJSON {
		return fmt.Errorf("%w: unknown format %q", command.ErrUsage, f.Format)
	}
	return nil
}

// Fetch loads the page of l with filters.
//
// When both of filters and page are given, the first page is fetched on the way.
func Fetch[T store.Entity](ctx context.Context, l *store.List[T], filters store.Filters, page int) error {
	if len(filters) != 0 {
		if err := l.SetFilters(ctx, filters); err != nil {
			return err
		}
		if page <= 1 {
			return nil
		}
		return l.SetPage(ctx, page)
	}
	if page <= 1 {
		return l.FetchList(ctx)
	}
	return l.SetPage(ctx, page)
}

// Column is a column of tables.
type Column[T any] struct {
	Header string
	Value  func(T) any
}

// Print writes the snapshot in format.
//
// In json, it is an object with "items", "page", "pageSize" and "total".
func Print[T any](w io.Writer, format string, snap store.Snapshot[T], columns []Column[T]) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Items    []T `json:"items"`
			Page     int `json:"page"`
			PageSize int `json:"pageSize"`
			Total    int `json:"total"`
		}{snap.Items, snap.Page.Current, snap.Page.Size, snap.Page.Total})
	}

	if len(snap.Items) == 0 {
		_, err := fmt.Fprintln(w, "(no items)")
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c.Header
	}
	t.AppendHeader(header)
	for _, item := range snap.Items {
		row := make(table.Row, len(columns))
		for i, c := range columns {
			row[i] = c.Value(item)
		}
		t.AppendRow(row)
	}
	t.Render()

	_, err := fmt.Fprintf(
		w, "page %d/%d (%d items)\n",
		snap.Page.Current, max(1, pages(snap.Page.Total, snap.Page.Size)), snap.Page.Total,
	)
	return err
}

func pages(total, size int) int {
	if size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Time formats t in local time. Zero time is "-".
func Time(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// PTime is Time for optional values.
func PTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return Time(*t)
}

// PFloat formats optional values.
func PFloat(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'f', 4, 64)
}
