package socket

import (
	"sync"

	"github.com/opst/mlconsole/pkg/api/types/events"
)

// Registry enrolls views to resources on the event channel.
//
// Subscriptions are fire-and-forget: the server does not acknowledge them.
// When a link is (re)established, Registry sends subscribe again for each resource
// which still has listeners.
type Registry struct {
	s *Socket

	mu      sync.Mutex
	intents map[string]events.Intent // event name -> intent
	unwatch func()
}

func NewRegistry(s *Socket) *Registry {
	r := &Registry{s: s, intents: map[string]events.Intent{}}
	r.unwatch = s.Watch(func(st State) {
		if st == StateConnected {
			r.resubscribe()
		}
	})
	return r
}

// Socket returns the socket which r sends intents through.
func (r *Registry) Socket() *Socket {
	return r.s
}

func (r *Registry) SubscribeToExperiment(id string, l *Listener) {
	r.subscribe(events.Intent{Type: events.Experiment, Id: id}, l)
}

// UnsubscribeFromExperiment removes l from the experiment, or all listeners of it when l is nil.
func (r *Registry) UnsubscribeFromExperiment(id string, l *Listener) {
	r.unsubscribe(events.Intent{Type: events.Experiment, Id: id}, l)
}

func (r *Registry) SubscribeToDataset(id string, l *Listener) {
	r.subscribe(events.Intent{Type: events.Dataset, Id: id}, l)
}

func (r *Registry) UnsubscribeFromDataset(id string, l *Listener) {
	r.unsubscribe(events.Intent{Type: events.Dataset, Id: id}, l)
}

func (r *Registry) SubscribeToNotifications(l *Listener) {
	r.subscribe(events.Intent{Type: events.Notifications}, l)
}

func (r *Registry) UnsubscribeFromNotifications(l *Listener) {
	r.unsubscribe(events.Intent{Type: events.Notifications}, l)
}

// Close stops resubscribing on reconnection. Listeners are left as they are.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unwatch != nil {
		r.unwatch()
		r.unwatch = nil
	}
}

func (r *Registry) subscribe(intent events.Intent, l *Listener) {
	name := intent.EventName()

	r.mu.Lock()
	r.intents[name] = intent
	r.mu.Unlock()

	r.s.On(name, l)

	// while not connected, the subscription is sent by resubscribe on connect.
	if r.s.IsConnected() {
		r.s.Emit(events.Subscribe, intent)
	}
}

// unsubscribe removes l from the resource.
//
// The unsubscribe intent is sent only when the resource has no listener left,
// so other views keep receiving. A nil l removes every listener of the resource.
func (r *Registry) unsubscribe(intent events.Intent, l *Listener) {
	name := intent.EventName()

	r.s.Off(name, l)
	if l != nil && r.s.HasListeners(name) {
		return
	}

	r.mu.Lock()
	delete(r.intents, name)
	r.mu.Unlock()

	if r.s.IsConnected() {
		r.s.Emit(events.Unsubscribe, intent)
	}
}

func (r *Registry) resubscribe() {
	r.mu.Lock()
	intents := make([]events.Intent, 0, len(r.intents))
	for name, intent := range r.intents {
		if !r.s.HasListeners(name) {
			// listeners have been dropped by Disconnect.
			delete(r.intents, name)
			continue
		}
		intents = append(intents, intent)
	}
	r.mu.Unlock()

	for _, intent := range intents {
		r.s.Emit(events.Subscribe, intent)
	}
}
