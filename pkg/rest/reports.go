package rest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/opst/mlconsole/pkg/api/types/paging"
	"github.com/opst/mlconsole/pkg/api/types/reports"
)

func (c *client) ListReports(ctx context.Context, q paging.Query) (paging.Page[reports.Summary], error) {
	var page paging.Page[reports.Summary]
	if err := fetchJson(
		c, ctx, http.MethodGet, q.Values(), nil, &page,
		MessageFor{
			Rejected:     "[BUG] client is not compatible with the server",
			ServerFailed: "server error: cannot list reports",
		},
		"reports",
	); err != nil {
		return paging.Page[reports.Summary]{}, err
	}
	return page, nil
}

func (c *client) GetReport(ctx context.Context, id string) (reports.Detail, error) {
	var detail reports.Detail
	if err := fetchJson(
		c, ctx, http.MethodGet, nil, nil, &detail,
		MessageFor{
			Rejected:     fmt.Sprintf("report %s is not found", id),
			ServerFailed: "server error: cannot get a report",
		},
		"reports", id,
	); err != nil {
		return reports.Detail{}, err
	}
	return detail, nil
}

func (c *client) CreateReport(ctx context.Context, spec reports.Spec) (reports.Summary, error) {
	var created reports.Summary
	if err := fetchJson(
		c, ctx, http.MethodPost, nil, spec, &created,
		MessageFor{
			Rejected:     "invalid report",
			ServerFailed: "server error: cannot create a report",
		},
		"reports",
	); err != nil {
		return reports.Summary{}, err
	}
	return created, nil
}

func (c *client) UpdateReport(ctx context.Context, id string, change reports.Change) (reports.Summary, error) {
	var updated reports.Summary
	if err := fetchJson(
		c, ctx, http.MethodPut, nil, change, &updated,
		MessageFor{
			Rejected:     fmt.Sprintf("report %s cannot be updated", id),
			ServerFailed: "server error: cannot update a report",
		},
		"reports", id,
	); err != nil {
		return reports.Summary{}, err
	}
	return updated, nil
}

func (c *client) PublishReport(ctx context.Context, id string) (reports.Summary, error) {
	var published reports.Summary
	if err := fetchJson(
		c, ctx, http.MethodPost, nil, nil, &published,
		MessageFor{
			Rejected:     fmt.Sprintf("report %s cannot be published", id),
			ServerFailed: "server error: cannot publish a report",
		},
		"reports", id, "publish",
	); err != nil {
		return reports.Summary{}, err
	}
	return published, nil
}

func (c *client) ExportReport(ctx context.Context, id string, format reports.ExportFormat, w io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url.Values{"format": {string(format)}}, nil, "reports", id, "export")
	if err != nil {
		return 0, err
	}
	req.Header.Del("Accept")

	resp, err := c.do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := unmarshalStreamResponse(
		resp,
		MessageFor{
			Rejected:     fmt.Sprintf("report %s cannot be exported as %s", id, format),
			ServerFailed: "server error: cannot export a report",
		},
	)
	if err != nil {
		return 0, err
	}
	return io.Copy(w, body)
}

func (c *client) DeleteReport(ctx context.Context, id string) error {
	return c.fetchNothing(
		ctx, http.MethodDelete, nil,
		MessageFor{
			Rejected:     fmt.Sprintf("report %s cannot be deleted", id),
			ServerFailed: "server error: cannot delete a report",
		},
		"reports", id,
	)
}
