package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"pollroom/internal/session"
	"pollroom/pkg/logger"
)

// SocketHandler upgrades clients onto the event channel and hands their
// connections to the session coordinator.
type SocketHandler struct {
	coordinator *session.Coordinator
	upgrader    websocket.Upgrader
	log         *logger.Logger
}

// NewSocketHandler creates the websocket handler. allowedOrigins
// mirrors the CORS configuration; "*" admits any origin.
func NewSocketHandler(coordinator *session.Coordinator, allowedOrigins []string, log *logger.Logger) *SocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &SocketHandler{
		coordinator: coordinator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowed["*"] {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
		},
		log: log,
	}
}

// Serve handles GET /ws
func (h *SocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := session.NewClient(uuid.NewString(), conn, h.log)
	h.log.Debug("client connected", zap.String("connection_id", client.ID))

	h.coordinator.Connect(client)

	go client.WritePump()
	go client.ReadPump(h.coordinator.Dispatch, h.coordinator.Disconnect)
}
