package store

import (
	"context"

	"github.com/opst/mlconsole/pkg/api/types/models"
	"github.com/opst/mlconsole/pkg/rest"
)

// Models is a store of models.
type Models struct {
	*state
	*List[models.Summary]
	*Selection[models.Detail]

	client rest.ModelsClient
}

func NewModels(client rest.ModelsClient, opts ...Option) *Models {
	conf := newConfig(DefaultPageSize, KeepStale, opts)
	st := newState(conf.log)
	return &Models{
		state:     st,
		List:      newList(st, "models", client.ListModels, conf),
		Selection: newSelection(st, "models", client.GetModel),
		client:    client,
	}
}

// Create registers a model, and refreshes the list.
func (m *Models) Create(ctx context.Context, spec models.Spec) (models.Summary, error) {
	created, err := do(m.state, func() (models.Summary, error) {
		return m.client.CreateModel(ctx, spec)
	})
	if err != nil {
		return models.Summary{}, err
	}
	m.FetchList(ctx)
	return created, nil
}

// RunProbe checks baseline behaviour of the model.
//
// When the model is selected, its probe result is replaced.
func (m *Models) RunProbe(ctx context.Context, id string) (models.BaselineProbe, error) {
	m.begin()
	probe, err := m.client.RunProbe(ctx, id)
	m.settle(func() error {
		if err != nil {
			return err
		}
		m.Selection.patch(id, func(d *models.Detail) {
			p := probe
			d.BaselineProbe = &p
		})
		return nil
	})
	return probe, err
}

// UpdateStatus changes status of the model, and patches the list and the selection.
func (m *Models) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	m.begin()
	updated, err := m.client.UpdateModelStatus(ctx, id, status)
	m.settle(func() error {
		if err != nil {
			return err
		}
		m.List.patch(id, func(s *models.Summary) { *s = updated })
		m.Selection.patch(id, func(d *models.Detail) { d.Summary = updated })
		return nil
	})
	return err
}

// Delete removes the model, and refreshes the list.
//
// When the model is selected, the selection is cleared.
func (m *Models) Delete(ctx context.Context, id string) error {
	if err := exec(m.state, func() error { return m.client.DeleteModel(ctx, id) }); err != nil {
		return err
	}
	unselect(m.state, m.Selection, id)
	m.FetchList(ctx)
	return nil
}

// unselect clears the selection when its id is id.
func unselect[D Entity](st *state, s *Selection[D], id string) {
	st.mu.Lock()
	hit := s.selectedId() == id
	if hit {
		s.selected = nil
		s.issued += 1
	}
	st.mu.Unlock()
	if hit {
		st.notify()
	}
}
