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

type ThreadHandler struct {
	svc    *messaging.Service
	events *Events
	log    *zap.Logger
}

func NewThreadHandler(svc *messaging.Service, events *Events, log *zap.Logger) *ThreadHandler {
	return &ThreadHandler{svc: svc, events: events, log: log}
}

func (h *ThreadHandler) Create(c *gin.Context) {
	p := middleware.Principal(c)

	var req dto.CreateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := messaging.CreateThreadInput{
		Title:                req.Title,
		Description:          req.Description,
		Type:                 models.ThreadType(req.Type),
		IsPrivate:            req.IsPrivate,
		AutoArchiveAfterDays: req.AutoArchiveAfterDays,
	}
	for _, raw := range req.ParticipantIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid participant id"})
			return
		}
		in.ParticipantIDs = append(in.ParticipantIDs, id)
	}
	if req.ProjectID != nil {
		id, err := uuid.Parse(*req.ProjectID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
			return
		}
		in.ProjectID = &id
	}
	if req.MeetingID != nil {
		id, err := uuid.Parse(*req.MeetingID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting id"})
			return
		}
		in.MeetingID = &id
	}

	thread, err := h.svc.CreateThread(c.Request.Context(), p, in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FormatThread(thread))
}

func (h *ThreadHandler) Get(c *gin.Context) {
	p := middleware.Principal(c)
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	thread, err := h.svc.GetThread(c.Request.Context(), p, id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.FormatThread(thread))
}

func (h *ThreadHandler) List(c *gin.Context) {
	p := middleware.Principal(c)

	limit, offset := 50, 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			offset = parsed
		}
	}
	includeArchived := c.Query("include_archived") == "true"

	threads, err := h.svc.ListThreads(c.Request.Context(), p, includeArchived, limit, offset)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": dto.FormatThreads(threads)})
}

func (h *ThreadHandler) AddParticipant(c *gin.Context) {
	p := middleware.Principal(c)
	threadID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.ParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	targetID, _ := uuid.Parse(req.UserID)

	thread, sys, err := h.svc.AddParticipant(c.Request.Context(), p, threadID, targetID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.events.ParticipantAdded(thread, sys, targetID)
	c.JSON(http.StatusOK, dto.FormatThread(thread))
}

func (h *ThreadHandler) RemoveParticipant(c *gin.Context) {
	p := middleware.Principal(c)
	threadID, ok := parseID(c, "id")
	if !ok {
		return
	}
	targetID, ok := parseID(c, "userID")
	if !ok {
		return
	}

	thread, sys, err := h.svc.RemoveParticipant(c.Request.Context(), p, threadID, targetID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.events.ParticipantRemoved(thread, sys, targetID)
	c.JSON(http.StatusOK, dto.FormatThread(thread))
}

func (h *ThreadHandler) Archive(c *gin.Context) {
	h.setArchived(c, true)
}

func (h *ThreadHandler) Unarchive(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *ThreadHandler) setArchived(c *gin.Context, archived bool) {
	p := middleware.Principal(c)
	threadID, ok := parseID(c, "id")
	if !ok {
		return
	}

	thread, err := h.svc.SetThreadArchived(c.Request.Context(), p, threadID, archived)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.FormatThread(thread))
}

func (h *ThreadHandler) GetPreference(c *gin.Context) {
	p := middleware.Principal(c)

	pref, err := h.svc.GetPreference(c.Request.Context(), p)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.PreferenceResponse{
		PushEnabled:              pref.PushEnabled,
		EmailEnabled:             pref.EmailEnabled,
		SMSEnabled:               pref.SMSEnabled,
		InactiveThresholdMinutes: int(pref.InactiveThreshold / time.Minute),
	})
}

func (h *ThreadHandler) SavePreference(c *gin.Context) {
	p := middleware.Principal(c)

	var req dto.PreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pref := models.NotificationPreference{
		PushEnabled:       req.PushEnabled,
		EmailEnabled:      req.EmailEnabled,
		SMSEnabled:        req.SMSEnabled,
		InactiveThreshold: time.Duration(req.InactiveThresholdMinutes) * time.Minute,
	}
	if err := h.svc.SavePreference(c.Request.Context(), p, pref); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
