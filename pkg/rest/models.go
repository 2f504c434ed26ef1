package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/opst/mlconsole/pkg/api/types/models"
	"github.com/opst/mlconsole/pkg/api/types/paging"
)

func (c *client) ListModels(ctx context.Context, q paging.Query) (paging.Page[models.Summary], error) {
	var page paging.Page[models.Summary]
	if err := fetchJson(
		c, ctx, http.MethodGet, q.Values(), nil, &page,
		MessageFor{
			Rejected:     "[BUG] client is not compatible with the server",
			ServerFailed: "server error: cannot list models",
		},
		"models",
	); err != nil {
		return paging.Page[models.Summary]{}, err
	}
	return page, nil
}

func (c *client) GetModel(ctx context.Context, id string) (models.Detail, error) {
	var detail models.Detail
	if err := fetchJson(
		c, ctx, http.MethodGet, nil, nil, &detail,
		MessageFor{
			Rejected:     fmt.Sprintf("model %s is not found", id),
			ServerFailed: "server error: cannot get a model",
		},
		"models", id,
	); err != nil {
		return models.Detail{}, err
	}
	return detail, nil
}

func (c *client) CreateModel(ctx context.Context, spec models.Spec) (models.Summary, error) {
	var created models.Summary
	if err := fetchJson(
		c, ctx, http.MethodPost, nil, spec, &created,
		MessageFor{
			Rejected:     "invalid model",
			ServerFailed: "server error: cannot create a model",
		},
		"models",
	); err != nil {
		return models.Summary{}, err
	}
	return created, nil
}

func (c *client) RunProbe(ctx context.Context, id string) (models.BaselineProbe, error) {
	var probe models.BaselineProbe
	if err := fetchJson(
		c, ctx, http.MethodPost, nil, nil, &probe,
		MessageFor{
			Rejected:     fmt.Sprintf("model %s cannot be probed", id),
			ServerFailed: "server error: probe failed",
		},
		"models", id, "probe",
	); err != nil {
		return models.BaselineProbe{}, err
	}
	return probe, nil
}

func (c *client) UpdateModelStatus(ctx context.Context, id string, status models.Status) (models.Summary, error) {
	var updated models.Summary
	if err := fetchJson(
		c, ctx, http.MethodPatch, nil, map[string]models.Status{"status": status}, &updated,
		MessageFor{
			Rejected:     fmt.Sprintf("status of model %s cannot be %s", id, status),
			ServerFailed: "server error: cannot update a model",
		},
		"models", id, "status",
	); err != nil {
		return models.Summary{}, err
	}
	return updated, nil
}

func (c *client) DeleteModel(ctx context.Context, id string) error {
	return c.fetchNothing(
		ctx, http.MethodDelete, nil,
		MessageFor{
			Rejected:     fmt.Sprintf("model %s cannot be deleted", id),
			ServerFailed: "server error: cannot delete a model",
		},
		"models", id,
	)
}
