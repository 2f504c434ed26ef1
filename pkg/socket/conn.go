package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrUnauthorized is returned from Dial when the server rejects the credential.
var ErrUnauthorized = errors.New("event channel rejected the credential")

// ErrMalformedFrame is returned from ReadFrame for a message which is not a frame.
// The link is still usable after that.
var ErrMalformedFrame = errors.New("malformed frame")

// Frame is a unit of messages on the event channel.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Conn is a physical link of the event channel.
type Conn interface {
	// ReadFrame blocks until the next frame arrives or the link breaks.
	ReadFrame() (Frame, error)

	// WriteFrame sends a frame. It is safe to call concurrently with ReadFrame.
	WriteFrame(Frame) error

	Close() error
}

// Dialer opens a link.
type Dialer interface {
	// Dial connects to url, presenting token (when not empty) as a bearer credential.
	Dial(ctx context.Context, url string, token string) (Conn, error)
}

// DialerFunc is a function implementing Dialer.
type DialerFunc func(ctx context.Context, url string, token string) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, url string, token string) (Conn, error) {
	return f(ctx, url, token)
}

// WebsocketDialer dials websocket endpoints. Frames are JSON text messages.
type WebsocketDialer struct {
	// underlying dialer. nil means websocket.DefaultDialer.
	Dialer *websocket.Dialer

	// deadline of each write. 0 means 10 seconds.
	WriteTimeout time.Duration

	// interval of pings. The link is considered broken when no pong comes within 2 intervals.
	// 0 means 25 seconds, negative means no ping.
	PingInterval time.Duration
}

func (d WebsocketDialer) Dial(ctx context.Context, url string, token string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	ws, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, err)
		}
		return nil, err
	}

	writeTimeout := d.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	ping := d.PingInterval
	if ping == 0 {
		ping = 25 * time.Second
	}

	c := &wsConn{ws: ws, writeTimeout: writeTimeout, done: make(chan struct{})}
	if 0 < ping {
		c.keepalive(ping)
	}
	return c, nil
}

type wsConn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	wmu       sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

func (c *wsConn) keepalive(interval time.Duration) {
	c.ws.SetReadDeadline(time.Now().Add(2 * interval))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(2 * interval))
	})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.done:
				return
			case <-ticker.C:
				if err := c.ws.WriteControl(
					websocket.PingMessage, nil, time.Now().Add(c.writeTimeout),
				); err != nil {
					return
				}
			}
		}
	}()
}

func (c *wsConn) ReadFrame() (Frame, error) {
	for {
		typ, msg, err := c.ws.ReadMessage()
		if err != nil {
			return Frame{}, err
		}
		if typ != websocket.TextMessage {
			continue
		}
		f := Frame{}
		if err := json.Unmarshal(msg, &f); err != nil {
			return Frame{}, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
		}
		return f, nil
	}
}

func (c *wsConn) WriteFrame(f Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

func (c *wsConn) Close() error {
	err := error(nil)
	c.closeOnce.Do(func() {
		close(c.done)
		c.wmu.Lock()
		c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.wmu.Unlock()
		err = c.ws.Close()
	})
	return err
}
