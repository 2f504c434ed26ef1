package store

import (
	"context"
	"maps"

	"github.com/opst/mlconsole/pkg/api/types/experiments"
	"github.com/opst/mlconsole/pkg/rest"
)

// Experiments is a store of experiments.
//
// It also keeps the latest progress of running experiments, fed by UpdateProgress.
type Experiments struct {
	*state
	*List[experiments.Summary]
	*Selection[experiments.Detail]

	client       rest.ExperimentsClient
	inferRunning bool

	progress map[string]experiments.Progress

	// the last sequence number applied per experiment.
	marks map[string]mark
}

type mark struct {
	seq uint64

	// whether the last applied status is terminal.
	terminal bool
}

func NewExperiments(client rest.ExperimentsClient, opts ...Option) *Experiments {
	conf := newConfig(DefaultPageSize, KeepStale, opts)
	st := newState(conf.log)
	return &Experiments{
		state:        st,
		List:         newList(st, "experiments", client.ListExperiments, conf),
		Selection:    newSelection(st, "experiments", client.GetExperiment),
		client:       client,
		inferRunning: conf.inferRunning,
		progress:     map[string]experiments.Progress{},
		marks:        map[string]mark{},
	}
}

// Progress returns a copy of progress of experiments not terminated.
func (e *Experiments) Progress() map[string]experiments.Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return maps.Clone(e.progress)
}

// UpdateProgress records progress of the experiment.
//
// The selected detail is patched when it is the experiment. When the store infers status
// from progress, the list entry of the experiment becomes running.
//
// seq is a sequence number of the event, or 0 when unknown.
// An event older than one already applied is ignored.
// So is any progress for an experiment whose terminal status has been applied,
// until a newer non-terminal status arrives or the experiment is started again.
// It returns whether the progress is applied.
func (e *Experiments) UpdateProgress(id string, p experiments.Progress, seq uint64) bool {
	e.mu.Lock()
	m := e.marks[id]
	if seq != 0 && seq <= m.seq {
		e.mu.Unlock()
		e.log.Debugf("experiments: progress of %s (seq = %d) is outdated. ignored", id, seq)
		return false
	}
	if m.terminal {
		e.mu.Unlock()
		e.log.Debugf("experiments: %s has terminated. progress (seq = %d) is ignored", id, seq)
		return false
	}
	if seq != 0 {
		m.seq = seq
		e.marks[id] = m
	}

	e.progress[id] = p
	e.Selection.patch(id, func(d *experiments.Detail) {
		pp := p
		d.Progress = &pp
	})
	if e.inferRunning {
		e.List.patch(id, func(s *experiments.Summary) { s.Status = experiments.Running })
	}
	e.mu.Unlock()

	e.notify()
	return true
}

// UpdateStatus records status of the experiment into the list and the selected detail.
//
// For terminal statuses, progress of the experiment is forgotten.
// seq is handled as in UpdateProgress. It returns whether the status is applied.
func (e *Experiments) UpdateStatus(id string, status experiments.Status, seq uint64) bool {
	e.mu.Lock()
	m := e.marks[id]
	if seq != 0 && seq <= m.seq {
		e.mu.Unlock()
		e.log.Debugf("experiments: status of %s (seq = %d) is outdated. ignored", id, seq)
		return false
	}
	if seq != 0 {
		m.seq = seq
	}
	m.terminal = status.Terminal()
	if m.seq == 0 && !m.terminal {
		delete(e.marks, id)
	} else {
		e.marks[id] = m
	}

	e.List.patch(id, func(s *experiments.Summary) { s.Status = status })
	e.Selection.patch(id, func(d *experiments.Detail) { d.Status = status })
	if status.Terminal() {
		delete(e.progress, id)
	}
	e.mu.Unlock()

	e.notify()
	return true
}

// Create registers an experiment, and refreshes the list.
func (e *Experiments) Create(ctx context.Context, spec experiments.Spec) (experiments.Summary, error) {
	created, err := do(e.state, func() (experiments.Summary, error) {
		return e.client.CreateExperiment(ctx, spec)
	})
	if err != nil {
		return experiments.Summary{}, err
	}
	e.FetchList(ctx)
	return created, nil
}

// Start starts the experiment, and refreshes its detail.
func (e *Experiments) Start(ctx context.Context, id string) error {
	if _, err := do(e.state, func() (experiments.Summary, error) {
		return e.client.StartExperiment(ctx, id)
	}); err != nil {
		return err
	}

	e.mu.Lock()
	if m, ok := e.marks[id]; ok {
		m.terminal = false
		e.marks[id] = m
	}
	e.mu.Unlock()

	e.FetchDetail(ctx, id)
	return nil
}

// Stop stops the experiment, and refreshes its detail.
func (e *Experiments) Stop(ctx context.Context, id string) error {
	if _, err := do(e.state, func() (experiments.Summary, error) {
		return e.client.StopExperiment(ctx, id)
	}); err != nil {
		return err
	}
	e.FetchDetail(ctx, id)
	return nil
}

// Clone creates an experiment from another, and refreshes the list.
//
// modifications are applied to the config of the new experiment. It can be nil.
func (e *Experiments) Clone(ctx context.Context, id string, modifications map[string]any) (experiments.Summary, error) {
	cloned, err := do(e.state, func() (experiments.Summary, error) {
		return e.client.CloneExperiment(ctx, id, modifications)
	})
	if err != nil {
		return experiments.Summary{}, err
	}
	e.FetchList(ctx)
	return cloned, nil
}

// FetchLogs gets logs of the experiment. When it is selected, its logs are replaced.
func (e *Experiments) FetchLogs(ctx context.Context, id string, limit int, offset int) ([]experiments.LogEntry, error) {
	e.begin()
	logs, err := e.client.GetExperimentLogs(ctx, id, limit, offset)
	e.settle(func() error {
		if err != nil {
			return err
		}
		e.Selection.patch(id, func(d *experiments.Detail) {
			d.Logs = append([]experiments.LogEntry{}, logs...)
		})
		return nil
	})
	return logs, err
}

// Delete removes the experiment, and refreshes the list.
func (e *Experiments) Delete(ctx context.Context, id string) error {
	if err := exec(e.state, func() error { return e.client.DeleteExperiment(ctx, id) }); err != nil {
		return err
	}

	e.mu.Lock()
	delete(e.progress, id)
	delete(e.marks, id)
	e.mu.Unlock()

	unselect(e.state, e.Selection, id)
	e.FetchList(ctx)
	return nil
}
