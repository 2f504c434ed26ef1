package rest

import (
	"context"
	"net/http"

	"github.com/opst/mlconsole/pkg/api/types/evaluations"
	"github.com/opst/mlconsole/pkg/api/types/paging"
)

func (c *client) ListEvaluations(ctx context.Context, q paging.Query) (paging.Page[evaluations.Evaluation], error) {
	var page paging.Page[evaluations.Evaluation]
	if err := fetchJson(
		c, ctx, http.MethodGet, q.Values(), nil, &page,
		MessageFor{
			Rejected:     "[BUG] client is not compatible with the server",
			ServerFailed: "server error: cannot list evaluations",
		},
		"evaluations",
	); err != nil {
		return paging.Page[evaluations.Evaluation]{}, err
	}
	return page, nil
}
