package relay

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler upgrades requests and attaches each connection to the hub and relay
type WebSocketHandler struct {
	hub            *Hub
	relay          *Relay
	upgrader       websocket.Upgrader
	maxMessageSize int64
}

// NewWebSocketHandler creates the /ws endpoint. checkOrigin decides which browser
// origins may connect.
func NewWebSocketHandler(hub *Hub, relay *Relay, checkOrigin func(*http.Request) bool, maxMessageSize int64) *WebSocketHandler {
	return &WebSocketHandler{
		hub:   hub,
		relay: relay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		maxMessageSize: maxMessageSize,
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("websocket upgrade failed", "origin", r.Header.Get("Origin"), "error", err)
		return
	}

	client := newClient(uuid.NewString(), conn, r.RemoteAddr)
	h.hub.add(client)

	h.hub.wg.Add(2)
	go func() {
		defer h.hub.wg.Done()
		client.writePump()
	}()

	h.relay.Connect(client.id)

	go func() {
		defer h.hub.wg.Done()
		client.readPump(h.maxMessageSize, func(frame []byte) {
			h.relay.Dispatch(h.hub.ctx, client.id, frame)
		})
		h.hub.remove(client)
		h.relay.Disconnect(client.id)
	}()
}
