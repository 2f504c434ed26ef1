package store

import "context"

// Selection is a slot of the detail record selected in a store.
type Selection[D Entity] struct {
	st    *state
	fetch func(context.Context, string) (D, error)
	name  string

	selected *D
	issued   uint64
}

func newSelection[D Entity](st *state, name string, fetch func(context.Context, string) (D, error)) *Selection[D] {
	return &Selection[D]{st: st, name: name, fetch: fetch}
}

// Selected returns the detail record. ok is false when nothing is selected.
func (s *Selection[D]) Selected() (d D, ok bool) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if s.selected == nil {
		return d, false
	}
	return *s.selected, true
}

// SetSelected replaces the detail record. nil clears it.
//
// Detail fetches in flight are discarded.
func (s *Selection[D]) SetSelected(d *D) {
	s.st.mu.Lock()
	s.issued += 1
	if d == nil {
		s.selected = nil
	} else {
		v := *d
		s.selected = &v
	}
	s.st.mu.Unlock()
	s.st.notify()
}

// FetchDetail gets the record with id and selects it.
//
// On failure, the error is recorded and returned, and the selection is left as is.
func (s *Selection[D]) FetchDetail(ctx context.Context, id string) error {
	s.st.begin()

	s.st.mu.Lock()
	s.issued += 1
	ticket := s.issued
	s.st.mu.Unlock()

	d, err := s.fetch(ctx, id)

	stale := false
	s.st.settle(func() error {
		if ticket != s.issued {
			stale = true
			return nil
		}
		if err != nil {
			return err
		}
		s.selected = &d
		return nil
	})

	if stale {
		s.st.log.Debugf("%s: stale response is discarded", s.name)
		return nil
	}
	if err != nil {
		s.st.log.Warnf("%s: cannot fetch %s: %s", s.name, id, err)
		return err
	}
	return nil
}

// patch applies fn to the selected record when its id is id.
//
// s.st.mu should be held.
func (s *Selection[D]) patch(id string, fn func(*D)) bool {
	if s.selected == nil || (*s.selected).ID() != id {
		return false
	}
	fn(s.selected)
	return true
}

// selectedId returns the id of the selected record, or "".
//
// s.st.mu should be held.
func (s *Selection[D]) selectedId() string {
	if s.selected == nil {
		return ""
	}
	return (*s.selected).ID()
}
