package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/venturelink/messaging/internal/realtime"
)

// PresenceHandler exposes read-only presence queries over HTTP.
type PresenceHandler struct {
	hub *realtime.Hub
}

func NewPresenceHandler(hub *realtime.Hub) *PresenceHandler {
	return &PresenceHandler{hub: hub}
}

func (h *PresenceHandler) Online(c *gin.Context) {
	users := h.hub.Presence().OnlineUsers()
	out := make([]string, len(users))
	for i, id := range users {
		out[i] = id.String()
	}
	c.JSON(http.StatusOK, gin.H{"online": out})
}

func (h *PresenceHandler) Status(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	status, custom, online := h.hub.Presence().StatusOf(id)
	if !online {
		c.JSON(http.StatusOK, gin.H{"user_id": id.String(), "status": "offline"})
		return
	}

	resp := gin.H{"user_id": id.String(), "status": string(status)}
	if custom != "" {
		resp["status_message"] = custom
	}
	c.JSON(http.StatusOK, resp)
}
