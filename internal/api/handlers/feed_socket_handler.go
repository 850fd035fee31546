package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/isdelr/sample-app/internal/auth"
	ws "github.com/isdelr/sample-app/internal/websocket"
	"github.com/rs/zerolog/log"
)

// FeedSocketHandler upgrades signed-in users to a live feed websocket.
type FeedSocketHandler struct {
	hub      *ws.Hub
	auth     *auth.Helper
	upgrader websocket.Upgrader
}

// NewFeedSocketHandler creates a new FeedSocketHandler. Cross-origin upgrades
// are refused unless the origin is in allowedOrigins.
func NewFeedSocketHandler(hub *ws.Hub, helper *auth.Helper, allowedOrigins []string) *FeedSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &FeedSocketHandler{
		hub:  hub,
		auth: helper,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowed[origin] {
					return true
				}
				return origin == "http://"+r.Host || origin == "https://"+r.Host
			},
		},
	}
}

// Serve handles the WebSocket connection request.
func (h *FeedSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	user := h.auth.CurrentUser(r)
	if user == nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, user.ID)
	if !h.hub.Register(client) {
		conn.Close()
		return
	}
	log.Debug().Str("user_id", user.ID).Msg("Live feed client connected")

	go client.WritePump()
	go client.ReadPump()
}
