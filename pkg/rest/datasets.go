package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/opst/mlconsole/pkg/api/types/datasets"
	"github.com/opst/mlconsole/pkg/api/types/paging"
)

func (c *client) ListDatasets(ctx context.Context, q paging.Query) (paging.Page[datasets.Summary], error) {
	var page paging.Page[datasets.Summary]
	if err := fetchJson(
		c, ctx, http.MethodGet, q.Values(), nil, &page,
		MessageFor{
			Rejected:     "[BUG] client is not compatible with the server",
			ServerFailed: "server error: cannot list datasets",
		},
		"datasets",
	); err != nil {
		return paging.Page[datasets.Summary]{}, err
	}
	return page, nil
}

func (c *client) GetDataset(ctx context.Context, id string) (datasets.Detail, error) {
	var detail datasets.Detail
	if err := fetchJson(
		c, ctx, http.MethodGet, nil, nil, &detail,
		MessageFor{
			Rejected:     fmt.Sprintf("dataset %s is not found", id),
			ServerFailed: "server error: cannot get a dataset",
		},
		"datasets", id,
	); err != nil {
		return datasets.Detail{}, err
	}
	return detail, nil
}

// progressReader reports how much of size has been read, in percent.
//
// The same percentage is reported once.
type progressReader struct {
	r        io.Reader
	size     int64
	read     int64
	reported int
	report   func(int)
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	pr.read += int64(n)
	if 0 < pr.size {
		percent := int(min(pr.read*100/pr.size, 100))
		if pr.reported < percent {
			pr.reported = percent
			pr.report(percent)
		}
	}
	return n, err
}

func (c *client) UploadDataset(
	ctx context.Context, filename string, file io.Reader, size int64,
	meta datasets.UploadMetadata, onProgress func(percent int),
) (datasets.Summary, error) {
	if onProgress == nil {
		onProgress = func(int) {}
	}
	metajson, err := json.Marshal(meta)
	if err != nil {
		return datasets.Summary{}, err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := func() error {
			if err := mw.WriteField("metadata", string(metajson)); err != nil {
				return err
			}
			part, err := mw.CreateFormFile("file", filename)
			if err != nil {
				return err
			}
			src := &progressReader{r: file, size: size, report: onProgress}
			if _, err := io.Copy(part, src); err != nil {
				return err
			}
			return mw.Close()
		}()
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apipath("datasets"), pr)
	if err != nil {
		pr.CloseWithError(err)
		return datasets.Summary{}, err
	}
	defer pr.Close()
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return datasets.Summary{}, err
	}
	defer resp.Body.Close()

	var created datasets.Summary
	if err := unmarshalJsonResponse(
		resp, &created,
		MessageFor{
			Rejected:     "dataset is rejected",
			ServerFailed: serverError(resp),
		},
	); err != nil {
		return datasets.Summary{}, err
	}
	return created, nil
}

func (c *client) EstimateGeneration(ctx context.Context, config datasets.GenerateConfig) (datasets.GenerateEstimate, error) {
	var estimate datasets.GenerateEstimate
	if err := fetchJson(
		c, ctx, http.MethodPost, nil, config, &estimate,
		MessageFor{
			Rejected:     "invalid generation config",
			ServerFailed: "server error: cannot estimate generation",
		},
		"datasets", "generate", "estimate",
	); err != nil {
		return datasets.GenerateEstimate{}, err
	}
	return estimate, nil
}

func (c *client) GenerateDataset(ctx context.Context, config datasets.GenerateConfig) (datasets.GenerateTask, error) {
	var task datasets.GenerateTask
	if err := fetchJson(
		c, ctx, http.MethodPost, nil, config, &task,
		MessageFor{
			Rejected:     "invalid generation config",
			ServerFailed: "server error: cannot start generation",
		},
		"datasets", "generate",
	); err != nil {
		return datasets.GenerateTask{}, err
	}
	return task, nil
}

func (c *client) GetQualityGate(ctx context.Context, id string) (datasets.QualityGateResult, error) {
	var result datasets.QualityGateResult
	if err := fetchJson(
		c, ctx, http.MethodGet, nil, nil, &result,
		MessageFor{
			Rejected:     fmt.Sprintf("quality gate of dataset %s is not found", id),
			ServerFailed: "server error: cannot get quality gate",
		},
		"datasets", id, "quality-gate",
	); err != nil {
		return datasets.QualityGateResult{}, err
	}
	return result, nil
}

func (c *client) SubmitReview(ctx context.Context, id string, review datasets.Review) error {
	return c.fetchNothing(
		ctx, http.MethodPost, review,
		MessageFor{
			Rejected:     fmt.Sprintf("review for dataset %s is rejected", id),
			ServerFailed: "server error: cannot submit review",
		},
		"datasets", id, "review",
	)
}

func (c *client) DeleteDataset(ctx context.Context, id string) error {
	return c.fetchNothing(
		ctx, http.MethodDelete, nil,
		MessageFor{
			Rejected:     fmt.Sprintf("dataset %s cannot be deleted", id),
			ServerFailed: "server error: cannot delete a dataset",
		},
		"datasets", id,
	)
}
