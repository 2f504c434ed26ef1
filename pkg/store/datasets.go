package store

import (
	"context"
	"io"

	"github.com/opst/mlconsole/pkg/api/types/datasets"
	"github.com/opst/mlconsole/pkg/rest"
)

// Datasets is a store of datasets.
type Datasets struct {
	*state
	*List[datasets.Summary]
	*Selection[datasets.Detail]

	client rest.DatasetsClient

	uploadProgress int
	generateConfig *datasets.GenerateConfig
	estimate       *datasets.GenerateEstimate
}

func NewDatasets(client rest.DatasetsClient, opts ...Option) *Datasets {
	conf := newConfig(DefaultPageSize, KeepStale, opts)
	st := newState(conf.log)
	return &Datasets{
		state:     st,
		List:      newList(st, "datasets", client.ListDatasets, conf),
		Selection: newSelection(st, "datasets", client.GetDataset),
		client:    client,
	}
}

// UploadProgress is the percentage of the last upload. It is 100 after a successful upload.
func (d *Datasets) UploadProgress() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.uploadProgress
}

// Upload sends a dataset file, and refreshes the list.
//
// size is the length of file in bytes; when it is not positive, progress is not tracked.
func (d *Datasets) Upload(
	ctx context.Context, filename string, file io.Reader, size int64, meta datasets.UploadMetadata,
) (datasets.Summary, error) {
	d.mu.Lock()
	d.uploadProgress = 0
	d.mu.Unlock()

	d.begin()
	created, err := d.client.UploadDataset(ctx, filename, file, size, meta, func(percent int) {
		d.mu.Lock()
		d.uploadProgress = percent
		d.mu.Unlock()
		d.notify()
	})
	d.settle(func() error {
		if err != nil {
			d.uploadProgress = 0
			return err
		}
		d.uploadProgress = 100
		return nil
	})
	if err != nil {
		return datasets.Summary{}, err
	}

	d.FetchList(ctx)
	return created, nil
}

// GenerateConfig returns the config of generation set by SetGenerateConfig.
func (d *Datasets) GenerateConfig() (datasets.GenerateConfig, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.generateConfig == nil {
		return datasets.GenerateConfig{}, false
	}
	return *d.generateConfig, true
}

// SetGenerateConfig keeps a config of generation being edited. nil clears it.
func (d *Datasets) SetGenerateConfig(c *datasets.GenerateConfig) {
	d.mu.Lock()
	if c == nil {
		d.generateConfig = nil
	} else {
		v := *c
		d.generateConfig = &v
	}
	d.mu.Unlock()
	d.notify()
}

// Estimate returns the result of the last GenerateEstimate.
func (d *Datasets) Estimate() (datasets.GenerateEstimate, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.estimate == nil {
		return datasets.GenerateEstimate{}, false
	}
	return *d.estimate, true
}

// GenerateEstimate asks the cost of generating a synthetic dataset.
func (d *Datasets) GenerateEstimate(ctx context.Context, config datasets.GenerateConfig) (datasets.GenerateEstimate, error) {
	d.begin()
	est, err := d.client.EstimateGeneration(ctx, config)
	d.settle(func() error {
		if err != nil {
			return err
		}
		d.estimate = &est
		return nil
	})
	return est, err
}

// Generate starts generating a synthetic dataset. It returns the id of the task.
func (d *Datasets) Generate(ctx context.Context, config datasets.GenerateConfig) (string, error) {
	task, err := do(d.state, func() (datasets.GenerateTask, error) {
		return d.client.GenerateDataset(ctx, config)
	})
	if err != nil {
		return "", err
	}
	return task.TaskId, nil
}

// FetchQualityGate gets the quality gate result of the dataset.
//
// When the dataset is selected, its result is replaced.
func (d *Datasets) FetchQualityGate(ctx context.Context, id string) (datasets.QualityGateResult, error) {
	d.begin()
	gate, err := d.client.GetQualityGate(ctx, id)
	d.settle(func() error {
		if err != nil {
			return err
		}
		d.Selection.patch(id, func(dd *datasets.Detail) { dd.QualityGate = gate })
		return nil
	})
	return gate, err
}

// SubmitReview sends a sampling review of the dataset, and refreshes its detail.
func (d *Datasets) SubmitReview(ctx context.Context, id string, review datasets.Review) error {
	if err := exec(d.state, func() error { return d.client.SubmitReview(ctx, id, review) }); err != nil {
		return err
	}
	d.FetchDetail(ctx, id)
	return nil
}

// Delete removes the dataset, and refreshes the list.
func (d *Datasets) Delete(ctx context.Context, id string) error {
	if err := exec(d.state, func() error { return d.client.DeleteDataset(ctx, id) }); err != nil {
		return err
	}
	unselect(d.state, d.Selection, id)
	d.FetchList(ctx)
	return nil
}

// UpdateStatus patches status of the dataset in the list and the selection.
//
// It returns false when neither has the dataset.
func (d *Datasets) UpdateStatus(id string, status datasets.Status) bool {
	d.mu.Lock()
	inList := d.List.patch(id, func(s *datasets.Summary) { s.Status = status })
	inDetail := d.Selection.patch(id, func(dd *datasets.Detail) { dd.Status = status })
	d.mu.Unlock()

	if inList || inDetail {
		d.notify()
	}
	return inList || inDetail
}
