// Package livecall exposes the call session coordinator over a
// websocket. Clients drive the call with JSON control frames and stream
// caller audio as binary frames; the server pushes state snapshots after
// every change.
package livecall

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"callassist/internal/session"
	"callassist/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// command is a client control frame.
type command struct {
	Type     string `json:"type"`
	Mode     string `json:"mode,omitempty"`
	Language string `json:"language,omitempty"`
	Text     string `json:"text,omitempty"`
}

// event is a server frame.
type event struct {
	Type         string                `json:"type"`
	Message      string                `json:"message,omitempty"`
	State        *session.Snapshot     `json:"state,omitempty"`
	Capabilities *session.Capabilities `json:"capabilities,omitempty"`
}

// client is one websocket connection with serialized writes.
type client struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *client) send(e event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(e)
}

// Handler upgrades /ws/call connections and relays between the socket
// and the coordinator.
type Handler struct {
	coord *session.Coordinator
	log   *slog.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHandler(coord *session.Coordinator, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		coord: coord,
		log:   log,
		upgrader: websocket.Upgrader{
			// The app serves a single local demo user.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Broadcast pushes a snapshot to every connected client. Wire it to the
// coordinator's OnChange hook.
func (h *Handler) Broadcast(snap session.Snapshot) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.send(event{Type: "state", State: &snap}); err != nil {
			h.drop(c)
		}
	}
}

// Serve handles one websocket connection for its whole lifetime.
func (h *Handler) Serve(c *gin.Context) {
	log := logger.FromGin(c)
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "err", err)
		return
	}
	cl := &client{ws: ws}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	defer h.drop(cl)

	caps := h.coord.Capabilities()
	snap := h.coord.Snapshot()
	if err := cl.send(event{Type: "hello", Capabilities: &caps, State: &snap}); err != nil {
		return
	}

	for {
		kind, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		switch kind {
		case websocket.BinaryMessage:
			if err := h.coord.SendAudio(data); err != nil && !errors.Is(err, session.ErrNoActiveCall) {
				log.Warn("audio frame dropped", "err", err)
			}
		case websocket.TextMessage:
			var cmd command
			if err := json.Unmarshal(data, &cmd); err != nil {
				_ = cl.send(event{Type: "error", Message: "malformed control frame"})
				continue
			}
			h.dispatch(cl, cmd)
		}
	}
}

func (h *Handler) dispatch(cl *client, cmd command) {
	var (
		snap session.Snapshot
		err  error
	)
	switch cmd.Type {
	case "start":
		snap, err = h.coord.StartCall(cmd.Mode, cmd.Language)
	case "end":
		snap, err = h.coord.EndCall()
	case "text":
		snap, err = h.coord.SubmitTextResponse(cmd.Text)
	case "voice":
		snap, err = h.coord.SubmitVoiceResponse()
	case "toggle_voice":
		snap, err = h.coord.ToggleVoiceResponseMode()
	default:
		_ = cl.send(event{Type: "error", Message: "unknown command " + cmd.Type})
		return
	}
	if err != nil {
		_ = cl.send(event{Type: "error", Message: err.Error()})
		return
	}
	_ = cl.send(event{Type: "state", State: &snap})
}

// drop unregisters a client. When the last client disconnects the call
// ends too: nobody is left to hear the caller or answer them.
func (h *Handler) drop(cl *client) {
	h.mu.Lock()
	_, ok := h.clients[cl]
	if ok {
		delete(h.clients, cl)
	}
	last := ok && len(h.clients) == 0
	h.mu.Unlock()

	if !ok {
		return
	}
	cl.ws.Close()
	if last {
		// EndCall fires OnChange, which re-enters Broadcast and takes
		// h.mu; the call must happen outside the lock.
		if _, err := h.coord.EndCall(); err != nil && !errors.Is(err, session.ErrNoActiveCall) {
			h.log.Warn("ending call on disconnect failed", "err", err)
		}
	}
}
