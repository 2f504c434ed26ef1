// Package store holds client-side state of console resources.
//
// Each store keeps a page of a resource list (Snapshot), at most one detail record,
// and the progress of operations (Loading and Error).
// Stores are safe for concurrent use. REST calls run without holding locks,
// and a response is discarded when a newer request of the same kind has been issued.
package store

import (
	"errors"
	"maps"
	"sync"

	"github.com/opst/mlconsole/pkg/errors/cui"
	"github.com/opst/mlconsole/pkg/logger"
	"github.com/opst/mlconsole/pkg/rest"
)

// DefaultPageSize is the page size of stores other than Reports.
const DefaultPageSize = 20

// Page is a pagination state of a Snapshot.
type Page struct {
	// 1-origin page number.
	Current int

	Size int

	// number of items in the server.
	Total int
}

// Filters are conditions of listing. A key with empty value means "unset".
type Filters map[string]string

// Snapshot is a page of a resource list.
//
// len(Items) <= Page.Size holds.
type Snapshot[T any] struct {
	Items   []T
	Page    Page
	Filters Filters
}

func (s Snapshot[T]) clone() Snapshot[T] {
	return Snapshot[T]{
		Items:   append([]T{}, s.Items...),
		Page:    s.Page,
		Filters: maps.Clone(s.Filters),
	}
}

// FailurePolicy decides how a Snapshot looks after a list fetch fails.
type FailurePolicy int

const (
	// items and pagination are left as they were.
	KeepStale FailurePolicy = iota

	// items are emptied and total is zeroed.
	ClearOnFailure
)

// Entity is a record with an identifier.
type Entity interface {
	ID() string
}

type config struct {
	log          logger.Logger
	pageSize     int
	policy       *FailurePolicy
	inferRunning bool
}

type Option func(*config) *config

func WithLogger(l logger.Logger) Option {
	return func(c *config) *config {
		c.log = l
		return c
	}
}

// WithPageSize sets the initial page size.
func WithPageSize(n int) Option {
	return func(c *config) *config {
		c.pageSize = n
		return c
	}
}

// WithFailurePolicy overrides the store's default FailurePolicy.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(c *config) *config {
		c.policy = &p
		return c
	}
}

// WithInferRunning sets whether Experiments marks an experiment running on its progress.
//
// It is effective only for Experiments. Default is true.
func WithInferRunning(b bool) Option {
	return func(c *config) *config {
		c.inferRunning = b
		return c
	}
}

func newConfig(pageSize int, policy FailurePolicy, opts []Option) config {
	c := &config{
		log:          logger.Default("store"),
		pageSize:     pageSize,
		inferRunning: true,
	}
	for _, o := range opts {
		c = o(c)
	}
	if c.policy == nil {
		c.policy = &policy
	}
	if c.pageSize <= 0 {
		c.pageSize = pageSize
	}
	return *c
}

// state is the part common to all stores.
type state struct {
	mu        sync.Mutex
	loading   int
	err       error
	observers map[int]func()
	observer  int
	log       logger.Logger
}

func newState(log logger.Logger) *state {
	return &state{observers: map[int]func(){}, log: log}
}

// Loading tells whether any operation is in flight.
func (s *state) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return 0 < s.loading
}

// Error returns the failure of the latest operation, if any.
//
// Authorization failures are not recorded here.
func (s *state) Error() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *state) ClearError() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
	s.notify()
}

// OnChange registers fn to be called after each change of the store.
//
// It returns a function to unregister fn.
func (s *state) OnChange(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer += 1
	id := s.observer
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

func (s *state) notify() {
	s.mu.Lock()
	obs := make([]func(), 0, len(s.observers))
	for _, o := range s.observers {
		obs = append(obs, o)
	}
	s.mu.Unlock()

	for _, o := range obs {
		o()
	}
}

// begin marks an operation started. The error is reset.
func (s *state) begin() {
	s.mu.Lock()
	s.loading += 1
	s.err = nil
	s.mu.Unlock()
	s.notify()
}

// settle marks an operation finished, and records the error returned from apply.
//
// apply is called with s.mu held.
func (s *state) settle(apply func() error) {
	s.mu.Lock()
	err := apply()
	s.loading -= 1
	if err != nil {
		if errors.Is(err, rest.ErrUnauthorized) {
			s.log.Debugf("unauthorized. left to the session hook: %s", err)
		} else {
			s.log.Debugf("operation failed: %s", cui.Verbose(err))
			s.err = err
		}
	}
	s.mu.Unlock()
	s.notify()
}

// do runs op as an operation of the store.
func do[R any](s *state, op func() (R, error)) (R, error) {
	s.begin()
	r, err := op()
	s.settle(func() error { return err })
	return r, err
}

// exec runs op as an operation of the store.
func exec(s *state, op func() error) error {
	_, err := do(s, func() (struct{}, error) { return struct{}{}, op() })
	return err
}
