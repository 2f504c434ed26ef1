package store

import (
	"crypto/rand"
	"io"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/opst/mlconsole/pkg/api/types/events"
)

// MaxNotifications is the number of notifications Global keeps.
const MaxNotifications = 100

// Notification is a notification received by the console.
type Notification struct {
	// time-sortable unique id (ULID).
	Id string

	Level     events.Level
	Title     string
	Message   string
	Action    *events.Action
	CreatedAt time.Time
	Read      bool
}

type User struct {
	Id     string
	Name   string
	Email  string
	Avatar string
}

// Global is a store of the session: the user, notifications and the event channel status.
type Global struct {
	st *state

	notifications []Notification // newest first
	unread        int
	user          *User
	authenticated bool
	wsConnected   bool
	onLogout      []func()

	now     func() time.Time
	entropy io.Reader
}

func NewGlobal(opts ...Option) *Global {
	conf := newConfig(DefaultPageSize, KeepStale, opts)
	return &Global{
		st:            newState(conf.log),
		notifications: []Notification{},
		now:           time.Now,
		entropy:       ulid.Monotonic(rand.Reader, 0),
	}
}

// OnChange registers fn to be called after each change. It returns a function to unregister fn.
func (g *Global) OnChange(fn func()) func() {
	return g.st.OnChange(fn)
}

// AddNotification keeps n as an unread notification, and returns it.
//
// Only the newest MaxNotifications notifications are kept.
func (g *Global) AddNotification(n events.Notification) Notification {
	g.st.mu.Lock()
	now := g.now()
	created := now
	if n.Timestamp != nil {
		created = *n.Timestamp
	}
	added := Notification{
		Id:        ulid.MustNew(ulid.Timestamp(now), g.entropy).String(),
		Level:     n.Level,
		Title:     n.Title,
		Message:   n.Message,
		Action:    n.Action,
		CreatedAt: created,
	}

	g.notifications = append([]Notification{added}, g.notifications...)
	g.unread += 1
	if MaxNotifications < len(g.notifications) {
		for _, dropped := range g.notifications[MaxNotifications:] {
			if !dropped.Read {
				g.unread -= 1
			}
		}
		g.notifications = g.notifications[:MaxNotifications]
	}
	g.st.mu.Unlock()

	g.st.notify()
	return added
}

// Notifications returns kept notifications, newest first.
func (g *Global) Notifications() []Notification {
	g.st.mu.Lock()
	defer g.st.mu.Unlock()
	return append([]Notification{}, g.notifications...)
}

func (g *Global) UnreadCount() int {
	g.st.mu.Lock()
	defer g.st.mu.Unlock()
	return g.unread
}

// MarkRead marks the notification read. Unknown ids are ignored.
func (g *Global) MarkRead(id string) {
	g.st.mu.Lock()
	changed := false
	for i := range g.notifications {
		n := &g.notifications[i]
		if n.Id == id && !n.Read {
			n.Read = true
			g.unread -= 1
			changed = true
			break
		}
	}
	g.st.mu.Unlock()

	if changed {
		g.st.notify()
	}
}

func (g *Global) MarkAllRead() {
	g.st.mu.Lock()
	for i := range g.notifications {
		g.notifications[i].Read = true
	}
	g.unread = 0
	g.st.mu.Unlock()
	g.st.notify()
}

func (g *Global) ClearNotifications() {
	g.st.mu.Lock()
	g.notifications = []Notification{}
	g.unread = 0
	g.st.mu.Unlock()
	g.st.notify()
}

// SetUser sets the user signed in. nil clears it.
func (g *Global) SetUser(u *User) {
	g.st.mu.Lock()
	if u == nil {
		g.user = nil
	} else {
		v := *u
		g.user = &v
	}
	g.st.mu.Unlock()
	g.st.notify()
}

func (g *Global) User() (User, bool) {
	g.st.mu.Lock()
	defer g.st.mu.Unlock()
	if g.user == nil {
		return User{}, false
	}
	return *g.user, true
}

func (g *Global) SetAuthenticated(b bool) {
	g.st.mu.Lock()
	g.authenticated = b
	g.st.mu.Unlock()
	g.st.notify()
}

func (g *Global) IsAuthenticated() bool {
	g.st.mu.Lock()
	defer g.st.mu.Unlock()
	return g.authenticated
}

// OnLogout registers fn to be called on Logout.
func (g *Global) OnLogout(fn func()) {
	g.st.mu.Lock()
	defer g.st.mu.Unlock()
	g.onLogout = append(g.onLogout, fn)
}

// Logout ends the session: the user is cleared, and functions registered by OnLogout are called.
func (g *Global) Logout() {
	g.st.mu.Lock()
	g.user = nil
	g.authenticated = false
	hooks := append([]func(){}, g.onLogout...)
	g.st.mu.Unlock()

	g.st.log.Infof("session is ended")
	for _, h := range hooks {
		h()
	}
	g.st.notify()
}

// SetWSConnected records whether the event channel is connected.
func (g *Global) SetWSConnected(b bool) {
	g.st.mu.Lock()
	changed := g.wsConnected != b
	g.wsConnected = b
	g.st.mu.Unlock()
	if changed {
		g.st.notify()
	}
}

func (g *Global) WSConnected() bool {
	g.st.mu.Lock()
	defer g.st.mu.Unlock()
	return g.wsConnected
}
