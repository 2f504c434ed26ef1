package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/opst/mlconsole/pkg/api/types/experiments"
	"github.com/opst/mlconsole/pkg/api/types/paging"
)

func (c *client) ListExperiments(ctx context.Context, q paging.Query) (paging.Page[experiments.Summary], error) {
	var page paging.Page[experiments.Summary]
	if err := fetchJson(
		c, ctx, http.MethodGet, q.Values(), nil, &page,
		MessageFor{
			Rejected:     "[BUG] client is not compatible with the server",
			ServerFailed: "server error: cannot list experiments",
		},
		"experiments",
	); err != nil {
		return paging.Page[experiments.Summary]{}, err
	}
	return page, nil
}

func (c *client) GetExperiment(ctx context.Context, id string) (experiments.Detail, error) {
	var detail experiments.Detail
	if err := fetchJson(
		c, ctx, http.MethodGet, nil, nil, &detail,
		MessageFor{
			Rejected:     fmt.Sprintf("experiment %s is not found", id),
			ServerFailed: "server error: cannot get an experiment",
		},
		"experiments", id,
	); err != nil {
		return experiments.Detail{}, err
	}
	return detail, nil
}

func (c *client) CreateExperiment(ctx context.Context, spec experiments.Spec) (experiments.Summary, error) {
	var created experiments.Summary
	if err := fetchJson(
		c, ctx, http.MethodPost, nil, spec, &created,
		MessageFor{
			Rejected:     "invalid experiment",
			ServerFailed: "server error: cannot create an experiment",
		},
		"experiments",
	); err != nil {
		return experiments.Summary{}, err
	}
	return created, nil
}

// experimentAction posts to /experiments/:id/:action .
func (c *client) experimentAction(ctx context.Context, id string, action string, body any) (experiments.Summary, error) {
	var updated experiments.Summary
	if err := fetchJson(
		c, ctx, http.MethodPost, nil, body, &updated,
		MessageFor{
			Rejected:     fmt.Sprintf("experiment %s cannot %s", id, action),
			ServerFailed: fmt.Sprintf("server error: cannot %s an experiment", action),
		},
		"experiments", id, action,
	); err != nil {
		return experiments.Summary{}, err
	}
	return updated, nil
}

func (c *client) StartExperiment(ctx context.Context, id string) (experiments.Summary, error) {
	return c.experimentAction(ctx, id, "start", nil)
}

func (c *client) StopExperiment(ctx context.Context, id string) (experiments.Summary, error) {
	return c.experimentAction(ctx, id, "stop", nil)
}

func (c *client) CloneExperiment(ctx context.Context, id string, modifications map[string]any) (experiments.Summary, error) {
	return c.experimentAction(ctx, id, "clone", map[string]any{"modifications": modifications})
}

func (c *client) GetExperimentLogs(ctx context.Context, id string, limit int, offset int) ([]experiments.LogEntry, error) {
	q := url.Values{}
	if 0 < limit {
		q.Set("limit", strconv.Itoa(limit))
	}
	if 0 < offset {
		q.Set("offset", strconv.Itoa(offset))
	}

	logs := make([]experiments.LogEntry, 0, max(limit, 0))
	if err := fetchJson(
		c, ctx, http.MethodGet, q, nil, &logs,
		MessageFor{
			Rejected:     fmt.Sprintf("logs of experiment %s are not found", id),
			ServerFailed: "server error: cannot get logs",
		},
		"experiments", id, "logs",
	); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *client) DeleteExperiment(ctx context.Context, id string) error {
	return c.fetchNothing(
		ctx, http.MethodDelete, nil,
		MessageFor{
			Rejected:     fmt.Sprintf("experiment %s cannot be deleted", id),
			ServerFailed: "server error: cannot delete an experiment",
		},
		"experiments", id,
	)
}
