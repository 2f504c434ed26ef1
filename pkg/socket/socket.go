// Package socket is a client of the event channel.
//
// A Socket owns one physical link at a time and redials it when it breaks.
// Listeners are registered per event name and called in the order frames arrive.
package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/opst/mlconsole/pkg/logger"
	"github.com/opst/mlconsole/pkg/utils/retry"
)

// names of lifecycle events.
const (
	// dispatched when a link is established. data is null.
	EventConnect = "connect"

	// dispatched when a link is lost or closed. data is {"reason": "..."}.
	EventDisconnect = "disconnect"

	// dispatched when dialing fails. data is {"message": "...", "attempts": N}.
	EventConnectError = "connect_error"
)

// ErrClosed is returned from WaitConnected when the socket gives up reconnecting or is disconnected.
var ErrClosed = errors.New("socket is closed")

type State int

const (
	// no session. Connect has not been called, or Disconnect has been called.
	StateDisconnected State = iota

	// dialing, or waiting to redial.
	StateConnecting

	StateConnected

	// gave up reconnecting. Listeners are kept for the next Connect.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Listener is a callback for events.
//
// Listeners are identified by pointer: registering the same *Listener twice for an event
// is the same as once, and Off removes only that pointer.
type Listener struct {
	fn func(data json.RawMessage)
}

func NewListener(fn func(data json.RawMessage)) *Listener {
	return &Listener{fn: fn}
}

// TokenSource returns the credential used for the next dial.
type TokenSource func() string

type config struct {
	dialer      Dialer
	token       TokenSource
	maxAttempts int
	backoff     retry.Policy
	log         logger.Logger
}

type Option func(*config) *config

func WithDialer(d Dialer) Option {
	return func(c *config) *config {
		c.dialer = d
		return c
	}
}

// WithToken sets where credentials come from. It is read once per dial.
func WithToken(t TokenSource) Option {
	return func(c *config) *config {
		c.token = t
		return c
	}
}

// WithReconnect sets how many consecutive dial failures are tolerated, and waits between dials.
func WithReconnect(maxAttempts int, backoff retry.Policy) Option {
	return func(c *config) *config {
		c.maxAttempts = maxAttempts
		c.backoff = backoff
		return c
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *config) *config {
		c.log = l
		return c
	}
}

const (
	DefaultMaxReconnectAttempts = 5
	DefaultReconnectDelay       = 3 * time.Second
	DefaultMaxReconnectDelay    = 30 * time.Second
	DefaultReconnectJitter      = 0.2
)

// Socket is a reconnecting client of the event channel.
type Socket struct {
	url string
	config

	mu        sync.Mutex
	state     State
	attempts  int
	sess      *session
	listeners map[string][]*Listener
	watchers  map[int]func(State)
	watcherId int
	pending   []State // state changes not notified yet
	flushing  bool
	changed   chan struct{} // closed and replaced on each state change
}

// session is a lifetime between Connect and Disconnect (or giving up).
type session struct {
	cancel context.CancelFunc
	conn   Conn
}

func New(url string, opts ...Option) *Socket {
	c := &config{
		dialer:      WebsocketDialer{},
		token:       func() string { return "" },
		maxAttempts: DefaultMaxReconnectAttempts,
		backoff: retry.Policy{
			Initial:    DefaultReconnectDelay,
			Multiplier: 2,
			Max:        DefaultMaxReconnectDelay,
			Jitter:     DefaultReconnectJitter,
		},
		log: logger.Default("socket"),
	}
	for _, o := range opts {
		c = o(c)
	}
	return &Socket{
		url:       url,
		config:    *c,
		listeners: map[string][]*Listener{},
		watchers:  map[int]func(State){},
		changed:   make(chan struct{}),
	}
}

// Connect starts a session in background. It does not wait for the link.
//
// While connecting or connected, it does nothing.
func (s *Socket) Connect() {
	s.mu.Lock()
	if s.state == StateConnecting || s.state == StateConnected {
		s.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{cancel: cancel}
	s.sess = sess
	s.attempts = 0
	s.setState(StateConnecting)
	s.mu.Unlock()

	s.flush()
	go s.run(ctx, sess)
}

// IsConnected tells whether the physical link is up now.
func (s *Socket) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateConnected
}

func (s *Socket) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ReconnectAttempts is the number of consecutive dial failures in the current session.
func (s *Socket) ReconnectAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// WaitConnected blocks until the link is up.
//
// It returns ErrClosed when the socket is disconnected or gives up, or ctx.Err().
func (s *Socket) WaitConnected(ctx context.Context) error {
	for {
		s.mu.Lock()
		state, changed := s.state, s.changed
		s.mu.Unlock()

		switch state {
		case StateConnected:
			return nil
		case StateDisconnected, StateClosed:
			return ErrClosed
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

// Disconnect closes the link and ends the session. Listeners are dropped.
//
// Later Emit and On do nothing until the next Connect.
func (s *Socket) Disconnect() {
	s.mu.Lock()
	sess := s.sess
	if sess == nil {
		if s.state == StateClosed {
			// gave up already. only releases listeners.
			s.listeners = map[string][]*Listener{}
			s.setState(StateDisconnected)
			s.mu.Unlock()
			s.flush()
			return
		}
		s.mu.Unlock()
		s.log.Warnf("disconnect: socket has no session")
		return
	}
	conn := sess.conn
	s.sess = nil
	s.attempts = 0
	wasConnected := s.state == StateConnected
	s.setState(StateDisconnected)
	listeners := s.listeners[EventDisconnect]
	s.listeners = map[string][]*Listener{}
	s.mu.Unlock()

	sess.cancel()
	if conn != nil {
		conn.Close()
	}

	if wasConnected {
		data := mustMarshal(map[string]string{"reason": "client disconnect"})
		for _, l := range listeners {
			l.fn(data)
		}
	}
	s.flush()
}

// On registers l for event.
//
// Without a session, it does nothing but logging.
func (s *Socket) On(event string, l *Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess == nil && s.state == StateDisconnected {
		s.log.Warnf("on %s: socket is not connected. listener is not registered", event)
		return
	}
	for _, r := range s.listeners[event] {
		if r == l {
			return
		}
	}
	s.listeners[event] = append(s.listeners[event], l)
}

// Off removes l from event. When l is nil, all listeners of event are removed.
func (s *Socket) Off(event string, l *Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l == nil {
		delete(s.listeners, event)
		return
	}
	ls := s.listeners[event]
	for i, r := range ls {
		if r != l {
			continue
		}
		rest := append(append([]*Listener{}, ls[:i]...), ls[i+1:]...)
		if len(rest) == 0 {
			delete(s.listeners, event)
		} else {
			s.listeners[event] = rest
		}
		return
	}
}

// HasListeners tells whether event has any listener.
func (s *Socket) HasListeners(event string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return 0 < len(s.listeners[event])
}

// Emit sends an event with payload, when connected.
//
// Otherwise it does nothing but logging. Emitted events are not resent.
func (s *Socket) Emit(event string, payload any) {
	s.mu.Lock()
	var conn Conn
	if s.state == StateConnected && s.sess != nil {
		conn = s.sess.conn
	}
	s.mu.Unlock()

	if conn == nil {
		s.log.Warnf("emit %s: socket is not connected. dropped", event)
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Errorf("emit %s: payload cannot be marshalled: %s", event, err)
		return
	}
	if err := conn.WriteFrame(Frame{Event: event, Data: data}); err != nil {
		s.log.Warnf("emit %s: %s", event, err)
	}
}

// Watch registers fn to be called with the new state on each state change.
//
// Watchers survive Disconnect. It returns a function to unregister fn.
func (s *Socket) Watch(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcherId += 1
	id := s.watcherId
	s.watchers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers, id)
	}
}

// setState changes state and queues a notification to watchers. Deliver it with flush.
//
// s.mu should be held.
func (s *Socket) setState(st State) {
	if s.state == st {
		return
	}
	s.state = st
	close(s.changed)
	s.changed = make(chan struct{})
	s.pending = append(s.pending, st)
}

// flush notifies watchers of queued state changes, in the order of the changes.
//
// When another goroutine is flushing, it leaves the queue to that goroutine.
// s.mu should not be held.
func (s *Socket) flush() {
	s.mu.Lock()
	if s.flushing {
		s.mu.Unlock()
		return
	}
	s.flushing = true
	for 0 < len(s.pending) {
		st := s.pending[0]
		s.pending = s.pending[1:]
		watchers := make([]func(State), 0, len(s.watchers))
		for _, w := range s.watchers {
			watchers = append(watchers, w)
		}
		s.mu.Unlock()

		for _, w := range watchers {
			w(st)
		}

		s.mu.Lock()
	}
	s.flushing = false
	s.mu.Unlock()
}

// dispatch calls listeners of the event with data.
func (s *Socket) dispatch(event string, data json.RawMessage) {
	s.mu.Lock()
	listeners := append([]*Listener{}, s.listeners[event]...)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(data)
	}
}

func (s *Socket) run(ctx context.Context, sess *session) {
	backoff := retry.JitteredBackoff(s.backoff)

	for {
		conn, err := s.dialer.Dial(ctx, s.url, s.token())
		if ctx.Err() != nil {
			if conn != nil {
				conn.Close()
			}
			return
		}
		if err != nil {
			if s.failed(sess, err) {
				return
			}
			if err := backoff(ctx); err != nil {
				return
			}
			continue
		}

		if !s.established(sess, conn) {
			conn.Close()
			return
		}
		backoff = retry.JitteredBackoff(s.backoff)

		err = s.receive(ctx, conn)
		conn.Close()
		if ctx.Err() != nil {
			return
		}
		s.lost(sess, err)

		if err := backoff(ctx); err != nil {
			return
		}
	}
}

// failed records a dial failure. It returns true when the socket gives up.
func (s *Socket) failed(sess *session, err error) bool {
	s.mu.Lock()
	if s.sess != sess {
		s.mu.Unlock()
		return true
	}
	s.attempts += 1
	attempts := s.attempts
	giveup := s.maxAttempts <= attempts
	if giveup {
		s.sess = nil
		s.setState(StateClosed)
	}
	s.mu.Unlock()

	s.log.Warnf("connect error (attempt %d/%d): %s", attempts, s.maxAttempts, err)
	s.dispatch(EventConnectError, mustMarshal(map[string]any{
		"message": err.Error(), "attempts": attempts,
	}))
	if giveup {
		s.log.Errorf("gave up reconnecting after %d attempts", attempts)
		sess.cancel()
	}
	s.flush()
	return giveup
}

// established records a new link. It returns false when the session is over.
func (s *Socket) established(sess *session, conn Conn) bool {
	s.mu.Lock()
	if s.sess != sess {
		s.mu.Unlock()
		return false
	}
	sess.conn = conn
	s.attempts = 0
	s.setState(StateConnected)
	s.mu.Unlock()

	s.log.Infof("connected to %s", s.url)
	s.flush()
	s.dispatch(EventConnect, json.RawMessage("null"))
	return true
}

func (s *Socket) lost(sess *session, err error) {
	s.mu.Lock()
	if s.sess != sess {
		s.mu.Unlock()
		return
	}
	sess.conn = nil
	s.setState(StateConnecting)
	s.mu.Unlock()

	s.log.Warnf("link lost: %v", err)
	s.dispatch(EventDisconnect, mustMarshal(map[string]string{"reason": "transport close"}))
	s.flush()
}

// receive reads frames until the link breaks, dispatching them in order.
func (s *Socket) receive(ctx context.Context, conn Conn) error {
	for {
		f, err := conn.ReadFrame()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrMalformedFrame) {
			s.log.Warnf("%s", err)
			continue
		}
		if err != nil {
			return err
		}
		s.dispatch(f.Event, f.Data)
	}
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
