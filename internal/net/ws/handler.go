package ws

import (
	nethttp "net/http"

	"github.com/gorilla/websocket"

	"navwalk/internal/telemetry"
)

type HandlerConfig struct {
	Logger telemetry.Logger
}

// Handler upgrades viewer connections and attaches them to a Hub. Viewers
// are read-only; inbound frames are discarded until the socket closes.
type Handler struct {
	hub      *Hub
	logger   telemetry.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(nil)
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		hub:      hub,
		logger:   logger,
		upgrader: upgrader,
	}
}

func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}

	id, err := h.hub.Subscribe(conn)
	if err != nil {
		h.logger.Printf("failed to subscribe %s: %v", r.RemoteAddr, err)
		conn.Close()
		return
	}
	defer h.hub.Unsubscribe(id)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
