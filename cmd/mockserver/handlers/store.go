package handlers

import (
	"sync"

	"github.com/google/uuid"
	"github.com/opst/mlconsole/pkg/api/types/reports"
	"github.com/opst/mlconsole/pkg/api/types/settings"
	"github.com/opst/mlconsole/pkg/configs/mockserver"
)

// Store is in-memory state of the mock server.
//
// It is safe for concurrent use.
type Store struct {
	mu          sync.Mutex
	reports     []reports.Detail
	system      settings.System
	preferences settings.Preferences

	newId func() string
}

type StoreOption func(*Store)

// WithIdGenerator replaces the generator of ids of created entities.
func WithIdGenerator(f func() string) StoreOption {
	return func(s *Store) { s.newId = f }
}

func NewStore(seed mockserver.Seed, opts ...StoreOption) *Store {
	s := &Store{newId: uuid.NewString}
	for _, o := range opts {
		o(s)
	}
	s.Reset(seed)
	return s
}

// Reset discards every change and restarts from seed.
func (s *Store) Reset(seed mockserver.Seed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append([]reports.Detail{}, seed.Reports...)
	s.system = seed.System
	s.preferences = seed.Preferences
}

// Reports returns reports matched with pred, in the order of the seed.
func (s *Store) Reports(pred func(reports.Summary) bool) []reports.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := []reports.Summary{}
	for _, r := range s.reports {
		if pred == nil || pred(r.Summary) {
			ret = append(ret, r.Summary)
		}
	}
	return ret
}

func (s *Store) Report(id string) (reports.Detail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reports {
		if r.Id == id {
			return r, true
		}
	}
	return reports.Detail{}, false
}

// AddReport appends a new report with a fresh id.
func (s *Store) AddReport(r reports.Detail) reports.Detail {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Id = "report-" + s.newId()
	s.reports = append(s.reports, r)
	return r
}

// UpdateReport applies f to the report with id. It returns false when no such report.
func (s *Store) UpdateReport(id string, f func(*reports.Detail) error) (reports.Detail, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reports {
		if s.reports[i].Id != id {
			continue
		}
		r := s.reports[i]
		if err := f(&r); err != nil {
			return s.reports[i], true, err
		}
		s.reports[i] = r
		return r, true, nil
	}
	return reports.Detail{}, false, nil
}

func (s *Store) DeleteReport(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reports {
		if s.reports[i].Id == id {
			s.reports = append(s.reports[:i], s.reports[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) System() settings.System {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.system
}

func (s *Store) UpdateSystem(c settings.SystemChange) settings.System {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.system = s.system.Apply(c)
	return s.system
}

func (s *Store) Preferences() settings.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preferences
}

func (s *Store) UpdatePreferences(c settings.PreferencesChange) settings.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferences = s.preferences.Apply(c)
	return s.preferences
}
