// Package live applies events pushed from the event channel to stores.
//
// A Reconciler decodes pushed payloads and routes them:
//
//   - experiment progress and status go to store.Experiments,
//   - quality gate results go to store.Datasets as dataset status,
//   - notifications go to store.Global.
//
// Views receive updates between Mount and Unmount.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/opst/mlconsole/pkg/api/types/events"
	"github.com/opst/mlconsole/pkg/logger"
	"github.com/opst/mlconsole/pkg/socket"
	"github.com/opst/mlconsole/pkg/store"
)

type Reconciler struct {
	shared *socket.Shared
	reg    *socket.Registry

	experiments *store.Experiments
	datasets    *store.Datasets
	global      *store.Global

	log     logger.Logger
	now     func() time.Time
	unwatch func()

	// follow serializes changes of feeds with (un)subscriptions.
	follow sync.Mutex
	mu     sync.Mutex
	feeds  map[string]*feed // event name -> feed
	nextId int
}

// feed is the single store-applying listener of an event name,
// shared by every watch on it.
type feed struct {
	l   *socket.Listener
	fns map[int]func(events.Message) // watch id -> callback (may be nil)
}

type Option func(*Reconciler) *Reconciler

func WithExperiments(e *store.Experiments) Option {
	return func(r *Reconciler) *Reconciler {
		r.experiments = e
		return r
	}
}

func WithDatasets(d *store.Datasets) Option {
	return func(r *Reconciler) *Reconciler {
		r.datasets = d
		return r
	}
}

// WithGlobal sets the store receiving notifications.
// Its event channel status follows the socket.
func WithGlobal(g *store.Global) Option {
	return func(r *Reconciler) *Reconciler {
		r.global = g
		return r
	}
}

func WithLogger(l logger.Logger) Option {
	return func(r *Reconciler) *Reconciler {
		r.log = l
		return r
	}
}

func New(shared *socket.Shared, opts ...Option) *Reconciler {
	r := &Reconciler{
		shared:  shared,
		reg:     socket.NewRegistry(shared.Socket()),
		log:     logger.Default("live"),
		now:     time.Now,
		unwatch: func() {},
		feeds:   map[string]*feed{},
	}
	for _, o := range opts {
		r = o(r)
	}

	if g := r.global; g != nil {
		s := shared.Socket()
		r.unwatch = s.Watch(func(st socket.State) {
			g.SetWSConnected(st == socket.StateConnected)
		})
		g.SetWSConnected(s.IsConnected())
	}
	return r
}

// Close stops following the socket. Views mounted are left as they are.
func (r *Reconciler) Close() {
	r.unwatch()
	r.reg.Close()
}

// Apply routes msg to the store for it.
//
// Messages for stores not given are ignored.
func (r *Reconciler) Apply(msg events.Message) {
	switch m := msg.(type) {
	case events.ExperimentProgress:
		if r.experiments != nil {
			r.experiments.UpdateProgress(m.ExperimentId, m.Progress(r.now()), m.Sequence())
		}
	case events.ExperimentStatus:
		if r.experiments != nil {
			r.experiments.UpdateStatus(m.ExperimentId, m.Status, m.Sequence())
		}
	case events.QualityGate:
		if r.datasets != nil {
			r.datasets.UpdateStatus(m.DatasetId, m.DatasetStatus())
		}
	case events.Notification:
		if r.global != nil {
			r.global.AddNotification(m)
		}
	default:
		r.log.Warnf("unsupported message: %T", msg)
	}
}

// listener returns a new listener which applies pushed payloads once,
// then passes them to each watch of f.
func (r *Reconciler) listener(event string, f *feed) *socket.Listener {
	return socket.NewListener(func(data json.RawMessage) {
		msg, err := events.Decode(data)
		if err != nil {
			if errors.Is(err, events.ErrUnknownType) {
				r.log.Debugf("%s: %s", event, err)
			} else {
				r.log.Warnf("%s: malformed payload: %s", event, err)
			}
			return
		}
		r.Apply(msg)

		r.mu.Lock()
		fns := make([]func(events.Message), 0, len(f.fns))
		for _, fn := range f.fns {
			if fn != nil {
				fns = append(fns, fn)
			}
		}
		r.mu.Unlock()
		for _, fn := range fns {
			fn(msg)
		}
	})
}

// watch adds fn to the feed of event, subscribing the feed when it is the first watch.
//
// It returns a function to remove fn. The feed is unsubscribed with its last watch.
func (r *Reconciler) watch(
	event string,
	subscribe func(*socket.Listener),
	unsubscribe func(*socket.Listener),
	fn func(events.Message),
) func() {
	r.follow.Lock()
	defer r.follow.Unlock()

	r.mu.Lock()
	f, ok := r.feeds[event]
	if !ok {
		f = &feed{fns: map[int]func(events.Message){}}
		f.l = r.listener(event, f)
		r.feeds[event] = f
	}
	r.nextId++
	id := r.nextId
	f.fns[id] = fn
	r.mu.Unlock()

	// Disconnect drops listeners of the socket. Such a feed is subscribed again.
	if !ok || !r.reg.Socket().HasListeners(event) {
		subscribe(f.l)
	}

	return func() {
		r.follow.Lock()
		defer r.follow.Unlock()

		r.mu.Lock()
		delete(f.fns, id)
		last := len(f.fns) == 0 && r.feeds[event] == f
		if last {
			delete(r.feeds, event)
		}
		r.mu.Unlock()

		if last {
			unsubscribe(f.l)
		}
	}
}

// View is a consumer of live updates.
//
// While any View is mounted, the socket is kept connected.
type View struct {
	r      *Reconciler
	handle *socket.Handle

	mu      sync.Mutex
	cancels []func()
	done    bool
}

// Mount starts a view. The socket is connected if this is the first view.
func (r *Reconciler) Mount(ctx context.Context) (*View, error) {
	h, err := r.shared.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &View{r: r, handle: h}, nil
}

// Unmount stops all watches of the view and releases the socket.
// Calling it twice is the same as once.
func (v *View) Unmount() {
	v.mu.Lock()
	if v.done {
		v.mu.Unlock()
		return
	}
	v.done = true
	cancels := v.cancels
	v.cancels = nil
	v.mu.Unlock()

	for _, c := range cancels {
		c()
	}
	v.handle.Release()
}

// WatchExperiment receives progress and status of the experiment.
//
// fn, when not nil, is called with each message after the store is updated.
// Stores are updated once per message however many views watch it.
// It returns a function to stop watching.
func (v *View) WatchExperiment(id string, fn func(events.Message)) func() {
	reg := v.r.reg
	return v.keep(v.r.watch(
		events.Intent{Type: events.Experiment, Id: id}.EventName(),
		func(l *socket.Listener) { reg.SubscribeToExperiment(id, l) },
		func(l *socket.Listener) { reg.UnsubscribeFromExperiment(id, l) },
		fn,
	))
}

// WatchDataset receives quality gate results of the dataset.
func (v *View) WatchDataset(id string, fn func(events.Message)) func() {
	reg := v.r.reg
	return v.keep(v.r.watch(
		events.Intent{Type: events.Dataset, Id: id}.EventName(),
		func(l *socket.Listener) { reg.SubscribeToDataset(id, l) },
		func(l *socket.Listener) { reg.UnsubscribeFromDataset(id, l) },
		fn,
	))
}

// WatchNotifications receives notifications.
func (v *View) WatchNotifications(fn func(events.Message)) func() {
	reg := v.r.reg
	return v.keep(v.r.watch(
		events.Intent{Type: events.Notifications}.EventName(),
		reg.SubscribeToNotifications,
		reg.UnsubscribeFromNotifications,
		fn,
	))
}

// keep remembers cancel to be called on Unmount, and returns it wrapped to be called once.
func (v *View) keep(cancel func()) func() {
	once := sync.OnceFunc(cancel)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.done {
		once()
		return once
	}
	v.cancels = append(v.cancels, once)
	return once
}
