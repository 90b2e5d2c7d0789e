package ws

import (
	"log"
	"net/http"
	"strings"

	"jobboard/internal/domain/identity"

	"github.com/gorilla/websocket"
)

// Authenticator turns the token passed on the upgrade request into an actor.
type Authenticator func(token string) (identity.Actor, error)

// Handler upgrades authenticated requests and subscribes the connection to the
// caller's application events. It is a plain http.Handler so it can be mounted
// through the fiber adaptor or served directly.
type Handler struct {
	hub    *Hub
	auth   Authenticator
	logger *log.Logger
}

func NewHandler(hub *Hub, auth Authenticator, logger *log.Logger) *Handler {
	return &Handler{hub: hub, auth: auth, logger: logger}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.hub == nil || h.auth == nil {
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		token = bearerToken(r.Header.Get("Authorization"))
	}
	if token == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	actor, err := h.auth(token)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Printf("[WS] upgrade error user_id=%s err=%v", actor.ID, err)
		}
		return
	}

	client := NewClient(h.hub, conn, actor.ID)
	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
