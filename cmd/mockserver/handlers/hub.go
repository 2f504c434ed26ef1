package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/opst/mlconsole/pkg/api/types/events"
	"github.com/opst/mlconsole/pkg/socket"
)

// Hub is the event channel endpoint of the mock server.
//
// Clients send "subscribe" and "unsubscribe" frames carrying events.Intent,
// and receive frames published to the event names they subscribe.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*peer]struct{}
}

type peer struct {
	ws   *websocket.Conn
	send chan socket.Frame

	// event names subscribed. guarded by Hub.mu.
	topics map[string]struct{}
}

// backlog of frames per client. Frames beyond that are dropped.
const peerBacklog = 64

const writeTimeout = 10 * time.Second

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: map[*peer]struct{}{},
	}
}

// Handler upgrades the request and serves the client until it leaves.
func (h *Hub) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			// upgrader has responded already.
			c.Logger().Warnf("websocket upgrade failed: %s", err)
			return nil
		}

		p := &peer{ws: ws, send: make(chan socket.Frame, peerBacklog), topics: map[string]struct{}{}}
		h.mu.Lock()
		h.clients[p] = struct{}{}
		h.mu.Unlock()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for f := range p.send {
				ws.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := ws.WriteJSON(f); err != nil {
					c.Logger().Debugf("websocket write failed: %s", err)
					ws.Close()
					// drain until the reader unregisters p.
					for range p.send {
					}
					return
				}
			}
		}()

		for {
			typ, msg, err := ws.ReadMessage()
			if err != nil {
				break
			}
			if typ != websocket.TextMessage {
				continue
			}
			f := socket.Frame{}
			if err := json.Unmarshal(msg, &f); err != nil {
				c.Logger().Warnf("websocket: malformed frame: %s", err)
				continue
			}
			h.handle(c.Logger(), p, f)
		}

		h.mu.Lock()
		delete(h.clients, p)
		close(p.send)
		h.mu.Unlock()
		<-done
		ws.Close()
		return nil
	}
}

func (h *Hub) handle(logger echo.Logger, p *peer, f socket.Frame) {
	switch f.Event {
	case events.Subscribe, events.Unsubscribe:
	default:
		logger.Debugf("websocket: ignore frame %q", f.Event)
		return
	}

	intent := events.Intent{}
	if err := json.Unmarshal(f.Data, &intent); err != nil {
		logger.Warnf("websocket: malformed %s: %s", f.Event, err)
		return
	}
	topic := intent.EventName()

	h.mu.Lock()
	defer h.mu.Unlock()
	if f.Event == events.Subscribe {
		p.topics[topic] = struct{}{}
	} else {
		delete(p.topics, topic)
	}
	logger.Debugf("websocket: %s %s", f.Event, topic)
}

// Publish sends payload to clients subscribing topic.
//
// It returns the number of clients which the frame is queued for.
func (h *Hub) Publish(topic string, payload any) (int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	f := socket.Frame{Event: topic, Data: data}

	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for p := range h.clients {
		if _, ok := p.topics[topic]; !ok {
			continue
		}
		select {
		case p.send <- f:
			n += 1
		default:
		}
	}
	return n, nil
}

// Subscribed returns ids of resources of typ subscribed by any client, in order.
func (h *Hub) Subscribed(typ events.ResourceType) []string {
	prefix := events.Intent{Type: typ}.EventName()

	h.mu.Lock()
	defer h.mu.Unlock()
	seen := map[string]struct{}{}
	for p := range h.clients {
		for t := range p.topics {
			if id, ok := strings.CutPrefix(t, prefix); ok && id != "" {
				seen[id] = struct{}{}
			}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
