package store

import (
	"context"
	"maps"

	"github.com/opst/mlconsole/pkg/api/types/paging"
)

// List is a paged resource list kept in a store.
type List[T Entity] struct {
	st     *state
	fetch  func(context.Context, paging.Query) (paging.Page[T], error)
	policy FailurePolicy
	name   string

	snap   Snapshot[T]
	issued uint64
}

func newList[T Entity](
	st *state, name string,
	fetch func(context.Context, paging.Query) (paging.Page[T], error),
	conf config,
) *List[T] {
	return &List[T]{
		st:     st,
		name:   name,
		fetch:  fetch,
		policy: *conf.policy,
		snap: Snapshot[T]{
			Items:   []T{},
			Page:    Page{Current: 1, Size: conf.pageSize},
			Filters: Filters{},
		},
	}
}

// Snapshot returns a copy of the current page.
func (l *List[T]) Snapshot() Snapshot[T] {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return l.snap.clone()
}

// FetchList gets the page with the current pagination and filters.
//
// On failure, the error is recorded and returned. The snapshot is left or cleared
// following the FailurePolicy.
// When another FetchList starts before the response, the response is discarded
// and FetchList returns nil.
func (l *List[T]) FetchList(ctx context.Context) error {
	l.st.begin()

	l.st.mu.Lock()
	l.issued += 1
	ticket := l.issued
	q := paging.Query{
		Page:     l.snap.Page.Current,
		PageSize: l.snap.Page.Size,
		Filters:  maps.Clone(l.snap.Filters),
	}
	l.st.mu.Unlock()

	page, err := l.fetch(ctx, q)

	stale := false
	l.st.settle(func() error {
		if ticket != l.issued {
			stale = true
			return nil
		}
		if err != nil {
			if l.policy == ClearOnFailure {
				l.snap.Items = []T{}
				l.snap.Page.Total = 0
			}
			return err
		}
		items := page.Items
		if l.snap.Page.Size < len(items) {
			items = items[:l.snap.Page.Size]
		}
		l.snap.Items = append([]T{}, items...)
		l.snap.Page.Total = page.Total
		return nil
	})

	if stale {
		l.st.log.Debugf("%s: stale response is discarded", l.name)
		return nil
	}
	if err != nil {
		l.st.log.Warnf("%s: cannot fetch list: %s", l.name, err)
		return err
	}
	return nil
}

// SetFilters merges partial into the filters, resets the page to 1 and fetches the list.
//
// An empty value in partial unsets the key.
func (l *List[T]) SetFilters(ctx context.Context, partial Filters) error {
	l.st.mu.Lock()
	next := maps.Clone(l.snap.Filters)
	for k, v := range partial {
		if v == "" {
			delete(next, k)
		} else {
			next[k] = v
		}
	}
	l.snap.Filters = next
	l.snap.Page.Current = 1
	l.st.mu.Unlock()

	return l.FetchList(ctx)
}

// SetPage moves to the n-th page (1-origin) and fetches the list.
func (l *List[T]) SetPage(ctx context.Context, n int) error {
	if n < 1 {
		n = 1
	}
	l.st.mu.Lock()
	l.snap.Page.Current = n
	l.st.mu.Unlock()

	return l.FetchList(ctx)
}

// SetPageSize changes the page size, resets the page to 1 and fetches the list.
func (l *List[T]) SetPageSize(ctx context.Context, n int) error {
	if n < 1 {
		n = 1
	}
	l.st.mu.Lock()
	l.snap.Page.Size = n
	l.snap.Page.Current = 1
	l.st.mu.Unlock()

	return l.FetchList(ctx)
}

// patch applies fn to the item with id. It returns false when the page does not have it.
//
// l.st.mu should be held.
func (l *List[T]) patch(id string, fn func(*T)) bool {
	for i := range l.snap.Items {
		if l.snap.Items[i].ID() == id {
			fn(&l.snap.Items[i])
			return true
		}
	}
	return false
}
