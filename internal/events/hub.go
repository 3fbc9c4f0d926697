// Package events broadcasts job lifecycle transitions to connected
// websocket subscribers, for live dashboards and for integration tests
// that want to observe dispatch ordering without polling /health. It
// implements scheduler.Observer but is read-only with respect to
// scheduling: a slow or vanished subscriber can never block dispatch.
package events

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/fisherhq/fisher/internal/jobs"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Event is the wire shape sent to subscribers.
type Event struct {
	Type       string `json:"type"`
	ScriptName string `json:"script_name"`
	Target     string `json:"target,omitempty"`
	Priority   int    `json:"priority,omitempty"`
	Success    bool   `json:"success,omitempty"`
}

const clientBuffer = 32

type client struct {
	send chan Event
}

// Hub fans out Events to every connected client over a bounded,
// non-blocking per-client queue: a client that falls behind has its
// oldest buffered event dropped rather than stalling the broadcaster.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("events: websocket upgrade failed")
		return
	}
	defer conn.Close()

	c := &client{send: make(chan Event, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
	}()

	for ev := range c.send {
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
}

func (h *Hub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			select {
			case <-c.send:
			default:
			}
			select {
			case c.send <- ev:
			default:
			}
		}
	}
}

func (h *Hub) OnSubmit(scriptName string, priority int, queued int) {
	h.broadcast(Event{Type: "submitted", ScriptName: scriptName, Priority: priority})
}

func (h *Hub) OnDispatch(scriptName string, workerID int) {
	h.broadcast(Event{Type: "dispatched", ScriptName: scriptName})
}

func (h *Hub) OnJobEnded(scriptName string, output *jobs.Output) {
	h.broadcast(Event{Type: "completed", ScriptName: scriptName, Success: output.Success})
}

func (h *Hub) OnCascade(sourceScript, targetScript string) {
	h.broadcast(Event{Type: "cascade", ScriptName: sourceScript, Target: targetScript})
}

func (h *Hub) OnReload(ok bool) {
	h.broadcast(Event{Type: "reload", Success: ok})
}
