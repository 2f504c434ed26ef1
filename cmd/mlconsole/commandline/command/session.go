package command

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	glog "github.com/labstack/gommon/log"
	"github.com/opst/mlconsole/pkg/configs/console"
	"github.com/opst/mlconsole/pkg/live"
	"github.com/opst/mlconsole/pkg/logger"
	"github.com/opst/mlconsole/pkg/rest"
	"github.com/opst/mlconsole/pkg/socket"
	"github.com/opst/mlconsole/pkg/store"
	"github.com/opst/mlconsole/pkg/utils/retry"
)

// ErrNoEventChannel is returned from Session.Live when the session has no event channel.
var ErrNoEventChannel = errors.New("event channel is not configured")

// Session is what commands work with: a REST client, the global store and the event channel.
type Session struct {
	Client rest.Client
	Global *store.Global

	// diagnostics of the client library.
	Logger logger.Logger

	// where results are printed.
	Out io.Writer

	shared *socket.Shared
}

// NewSession builds a Session from parts. shared can be nil.
func NewSession(client rest.Client, global *store.Global, shared *socket.Shared, l logger.Logger, out io.Writer) *Session {
	if l == nil {
		l = logger.Null()
	}
	if out == nil {
		out = os.Stdout
	}
	return &Session{Client: client, Global: global, Logger: l, Out: out, shared: shared}
}

// Open opens a Session for a profile.
//
// A 401 response from the server logs the session out, which disconnects the event channel.
func Open(prof *console.Profile, l *log.Logger, verbose bool) (*Session, error) {
	lvl := glog.WARN
	if verbose {
		lvl = glog.DEBUG
	}
	lib := logger.WithLevel("mlconsole", l.Writer(), lvl)

	global := store.NewGlobal(store.WithLogger(lib))
	client, err := rest.NewClient(prof, rest.WithUnauthorizedHook(global.Logout))
	if err != nil {
		return nil, err
	}

	if exp, err := prof.TokenExpiry(); err != nil {
		lib.Debugf("token is not a JWT: %s", err)
	} else if !exp.IsZero() && exp.Before(time.Now()) {
		l.Printf("WARNING: the token has expired at %s", exp.Format(time.RFC3339))
	}

	url, err := prof.EventURL()
	if err != nil {
		return nil, err
	}
	tcc, err := prof.TLSConfig()
	if err != nil {
		return nil, err
	}
	rc := prof.Reconnect.WithDefaults()
	sock := socket.New(
		url,
		socket.WithDialer(socket.WebsocketDialer{
			Dialer: &websocket.Dialer{
				Proxy:            http.ProxyFromEnvironment,
				HandshakeTimeout: prof.RequestTimeout(),
				TLSClientConfig:  tcc,
			},
		}),
		socket.WithToken(prof.Credential),
		socket.WithReconnect(rc.MaxAttempts, retry.Policy{
			Initial: rc.Delay, Multiplier: 2, Max: rc.MaxDelay, Jitter: rc.Jitter,
		}),
		socket.WithLogger(lib),
	)
	global.OnLogout(sock.Disconnect)
	global.SetAuthenticated(prof.Credential() != "")

	return NewSession(client, global, socket.NewShared(sock), lib, os.Stdout), nil
}

// Live returns a reconciler applying pushed events to stores given by opts.
//
// Close it after use.
func (s *Session) Live(opts ...live.Option) (*live.Reconciler, error) {
	if s.shared == nil {
		return nil, ErrNoEventChannel
	}
	opts = append([]live.Option{live.WithGlobal(s.Global), live.WithLogger(s.Logger)}, opts...)
	return live.New(s.shared, opts...), nil
}

// Socket returns the event channel. It is nil when the session has none.
func (s *Session) Socket() *socket.Socket {
	if s.shared == nil {
		return nil
	}
	return s.shared.Socket()
}

// Close disconnects the event channel if no one uses it.
func (s *Session) Close() {
	if s.shared == nil {
		return
	}
	if s.shared.Refs() == 0 && s.shared.Socket().State() != socket.StateDisconnected {
		s.shared.Socket().Disconnect()
	}
}
