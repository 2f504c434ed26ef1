package store

import (
	"context"
	"io"

	"github.com/opst/mlconsole/pkg/api/types/reports"
	"github.com/opst/mlconsole/pkg/rest"
)

// DefaultReportsPageSize is the page size of Reports.
const DefaultReportsPageSize = 10

// Reports is a store of reports.
type Reports struct {
	*state
	*List[reports.Summary]
	*Selection[reports.Detail]

	client rest.ReportsClient
}

func NewReports(client rest.ReportsClient, opts ...Option) *Reports {
	conf := newConfig(DefaultReportsPageSize, KeepStale, opts)
	st := newState(conf.log)
	return &Reports{
		state:     st,
		List:      newList(st, "reports", client.ListReports, conf),
		Selection: newSelection(st, "reports", client.GetReport),
		client:    client,
	}
}

func (r *Reports) Create(ctx context.Context, spec reports.Spec) (reports.Summary, error) {
	return r.mutate(ctx, func() (reports.Summary, error) { return r.client.CreateReport(ctx, spec) })
}

func (r *Reports) Update(ctx context.Context, id string, change reports.Change) (reports.Summary, error) {
	return r.mutate(ctx, func() (reports.Summary, error) { return r.client.UpdateReport(ctx, id, change) })
}

func (r *Reports) Publish(ctx context.Context, id string) (reports.Summary, error) {
	return r.mutate(ctx, func() (reports.Summary, error) { return r.client.PublishReport(ctx, id) })
}

func (r *Reports) Delete(ctx context.Context, id string) error {
	if err := exec(r.state, func() error { return r.client.DeleteReport(ctx, id) }); err != nil {
		return err
	}
	unselect(r.state, r.Selection, id)
	r.FetchList(ctx)
	return nil
}

// Export writes the report rendered in format into w.
func (r *Reports) Export(ctx context.Context, id string, format reports.ExportFormat, w io.Writer) (int64, error) {
	return do(r.state, func() (int64, error) { return r.client.ExportReport(ctx, id, format, w) })
}

// mutate runs op, and refreshes the list on success.
//
// When the changed report is selected, its summary part is replaced.
func (r *Reports) mutate(ctx context.Context, op func() (reports.Summary, error)) (reports.Summary, error) {
	r.begin()
	s, err := op()
	r.settle(func() error {
		if err != nil {
			return err
		}
		r.Selection.patch(s.Id, func(d *reports.Detail) { d.Summary = s })
		return nil
	})
	if err != nil {
		return reports.Summary{}, err
	}
	r.FetchList(ctx)
	return s, nil
}
