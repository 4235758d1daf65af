package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/venturelink/messaging/internal/handlers/dto"
	"github.com/venturelink/messaging/internal/messaging"
	"github.com/venturelink/messaging/internal/middleware"
	"github.com/venturelink/messaging/internal/models"
)

// MessageHandler is the HTTP surface of the message store. It parses, calls
// the service, maps errors and hands domain events to Events.
type MessageHandler struct {
	svc    *messaging.Service
	events *Events
	log    *zap.Logger
}

func NewMessageHandler(svc *messaging.Service, events *Events, log *zap.Logger) *MessageHandler {
	return &MessageHandler{svc: svc, events: events, log: log}
}

func (h *MessageHandler) Send(c *gin.Context) {
	p := middleware.Principal(c)

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := messaging.CreateMessageInput{
		Content:   req.Content,
		Type:      models.MessageType(req.Type),
		Priority:  models.Priority(req.Priority),
		IsPrivate: req.IsPrivate,
		Metadata:  req.Metadata,
	}
	if req.ThreadID != nil {
		id, err := uuid.Parse(*req.ThreadID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid thread id"})
			return
		}
		in.ThreadID = &id
	}
	for _, raw := range req.RecipientIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipient id"})
			return
		}
		in.RecipientIDs = append(in.RecipientIDs, id)
	}
	if req.ReplyToID != nil {
		id, err := uuid.Parse(*req.ReplyToID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reply_to id"})
			return
		}
		in.ReplyToID = &id
	}

	msg, err := h.svc.CreateMessage(c.Request.Context(), p, in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.events.MessageCreated(msg, uuid.Nil)
	c.JSON(http.StatusCreated, dto.FormatMessage(msg))
}

func (h *MessageHandler) Get(c *gin.Context) {
	p := middleware.Principal(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	msg, err := h.svc.GetMessage(c.Request.Context(), p, id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.FormatMessage(msg))
}

func (h *MessageHandler) Update(c *gin.Context) {
	p := middleware.Principal(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.svc.EditMessage(c.Request.Context(), p, id, req.Content)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.events.MessageUpdated(msg)
	c.JSON(http.StatusOK, dto.FormatMessage(msg))
}

func (h *MessageHandler) Delete(c *gin.Context) {
	p := middleware.Principal(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.DeleteMessageRequest
	c.ShouldBindJSON(&req) // body optional

	msg, err := h.svc.GetMessage(c.Request.Context(), p, id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	if err := h.svc.SoftDeleteMessage(c.Request.Context(), p, id, req.Reason); err != nil {
		writeError(c, h.log, err)
		return
	}

	h.events.MessageDeleted(msg.ThreadID, id)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	p := middleware.Principal(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	msg, err := h.svc.MarkRead(c.Request.Context(), p, id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.events.MessageRead(msg, p.ID)
	c.Status(http.StatusNoContent)
}

func (h *MessageHandler) MarkUnread(c *gin.Context) {
	p := middleware.Principal(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.MarkUnread(c.Request.Context(), p, id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MessageHandler) ToggleStar(c *gin.Context) {
	p := middleware.Principal(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	starred, err := h.svc.ToggleStar(c.Request.Context(), p, id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"starred": starred})
}

func (h *MessageHandler) ToggleReaction(c *gin.Context) {
	p := middleware.Principal(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, present, err := h.svc.ToggleReaction(c.Request.Context(), p, id, req.Emoji)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.events.ReactionToggled(msg, p.ID, req.Emoji, present)
	c.JSON(http.StatusOK, gin.H{"emoji": req.Emoji, "present": present})
}

func (h *MessageHandler) AddAttachment(c *gin.Context) {
	p := middleware.Principal(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.AttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	att, err := h.svc.AddAttachment(c.Request.Context(), p, id, messaging.AttachmentInput{
		OriginalFilename: req.OriginalFilename,
		FileSize:         req.FileSize,
		MimeType:         req.MimeType,
		URL:              req.URL,
		ThumbnailURL:     req.ThumbnailURL,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FormatAttachment(att))
}

// ListThreadMessages pages a thread's history, oldest first.
func (h *MessageHandler) ListThreadMessages(c *gin.Context) {
	p := middleware.Principal(c)
	threadID, ok := parseID(c, "id")
	if !ok {
		return
	}

	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	var beforeID *uuid.UUID
	if before := c.Query("before"); before != "" {
		if id, err := uuid.Parse(before); err == nil {
			beforeID = &id
		}
	}

	msgs, err := h.svc.ListMessages(c.Request.Context(), p, threadID, limit, beforeID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": dto.FormatMessages(msgs),
		"has_more": len(msgs) == limit,
	})
}

// Search runs the filtered global feed, newest first.
func (h *MessageHandler) Search(c *gin.Context) {
	p := middleware.Principal(c)

	q := messaging.SearchQuery{
		Text:     c.Query("q"),
		HasFiles: c.Query("has_attachments") == "true",
	}
	if raw := c.Query("sender_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.SenderID = &id
		}
	}
	if raw := c.Query("thread_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.ThreadID = &id
		}
	}
	if raw := c.Query("type"); raw != "" {
		t := models.MessageType(raw)
		q.Type = &t
	}
	if raw := c.Query("priority"); raw != "" {
		pr := models.Priority(raw)
		q.Priority = &pr
	}
	if raw := c.Query("after"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			q.After = &t
		}
	}
	if raw := c.Query("before"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			q.Before = &t
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			q.Limit = parsed
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			q.Offset = parsed
		}
	}

	msgs, err := h.svc.SearchMessages(c.Request.Context(), p, q)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": dto.FormatMessages(msgs)})
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}
