package store

import (
	"github.com/opst/mlconsole/pkg/api/types/evaluations"
	"github.com/opst/mlconsole/pkg/rest"
)

// Evaluations is a store of evaluation results.
//
// Unlike other stores, its list is cleared when fetching fails.
type Evaluations struct {
	*state
	*List[evaluations.Evaluation]

	pageSize int
}

func NewEvaluations(client rest.EvaluationsClient, opts ...Option) *Evaluations {
	conf := newConfig(DefaultPageSize, ClearOnFailure, opts)
	st := newState(conf.log)
	return &Evaluations{
		state:    st,
		List:     newList(st, "evaluations", client.ListEvaluations, conf),
		pageSize: conf.pageSize,
	}
}

// Reset brings the store back to the initial state.
func (e *Evaluations) Reset() {
	e.mu.Lock()
	e.err = nil
	e.List.issued += 1
	e.List.snap = Snapshot[evaluations.Evaluation]{
		Items:   []evaluations.Evaluation{},
		Page:    Page{Current: 1, Size: e.pageSize},
		Filters: Filters{},
	}
	e.mu.Unlock()
	e.notify()
}
