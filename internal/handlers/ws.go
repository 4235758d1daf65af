package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/venturelink/messaging/internal/access"
	"github.com/venturelink/messaging/internal/apperr"
	"github.com/venturelink/messaging/internal/messaging"
	"github.com/venturelink/messaging/internal/middleware"
	"github.com/venturelink/messaging/internal/models"
	"github.com/venturelink/messaging/internal/realtime"
)

// WSHandler upgrades connections and processes inbound frames. It is the
// websocket twin of MessageHandler: same service calls, same Events fan-out.
type WSHandler struct {
	hub      *realtime.Hub
	svc      *messaging.Service
	events   *Events
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewWSHandler(hub *realtime.Hub, svc *messaging.Service, events *Events, log *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		svc:    svc,
		events: events,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict to the frontend origin before exposing publicly
				return true
			},
		},
	}
}

// HandleWebSocket upgrades the request, registers the client and joins it to
// its personal room, its role room and every thread it participates in, then
// announces presence.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	p := middleware.Principal(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := realtime.NewClient(h.hub, conn, p.ID, p.Role)
	wentOnline := h.hub.Register(client)

	h.hub.JoinRoom(client, realtime.PersonalRoom(p.ID))
	h.hub.JoinRoom(client, realtime.RoleRoom(p.Role))

	threads, err := h.svc.ListThreads(context.Background(), p, false, 100, 0)
	if err != nil {
		h.log.Warn("thread auto-join failed", zap.String("user_id", p.ID.String()), zap.Error(err))
	} else {
		for _, t := range threads {
			h.hub.JoinRoom(client, realtime.ThreadRoom(t.ID))
		}
	}

	if wentOnline {
		h.hub.BroadcastPresence(p.ID)
	}

	go client.WritePump()
	go client.ReadPump(h)
}

// HandleFrame dispatches one client frame.
func (h *WSHandler) HandleFrame(client *realtime.Client, f *realtime.Frame) error {
	p := access.Principal{ID: client.UserID, Role: client.Role}
	ctx := context.Background()

	switch f.Event {
	case realtime.EventSendMessage:
		return h.handleSend(ctx, p, f)

	case realtime.EventEditMessage:
		return h.handleEdit(ctx, p, f)

	case realtime.EventDeleteMessage:
		return h.handleDelete(ctx, p, f)

	case realtime.EventMarkRead:
		return h.handleMarkRead(ctx, p, f)

	case realtime.EventToggleReaction:
		return h.handleToggleReaction(ctx, p, f)

	case realtime.EventJoinRoom:
		return h.handleJoinRoom(ctx, p, client, f)

	case realtime.EventLeaveRoom:
		room, err := realtime.ParseRoomKey(f.Room)
		if err != nil {
			return realtime.ErrInvalidFrame
		}
		h.hub.LeaveRoom(client, room)
		return nil

	case realtime.EventTyping:
		return h.handleTyping(client, f)

	case realtime.EventSetStatus:
		return h.handleSetStatus(client, f)

	default:
		h.log.Debug("unknown frame event", zap.String("event", f.Event))
		return nil
	}
}

func (h *WSHandler) handleSend(ctx context.Context, p access.Principal, f *realtime.Frame) error {
	var payload struct {
		ThreadID     *string                `json:"thread_id"`
		RecipientIDs []string               `json:"recipient_ids"`
		Content      string                 `json:"content"`
		Type         string                 `json:"type"`
		Priority     string                 `json:"priority"`
		ReplyToID    *string                `json:"reply_to_id"`
		Metadata     map[string]interface{} `json:"metadata"`
	}
	if err := json.Unmarshal(f.Data, &payload); err != nil {
		return realtime.ErrInvalidFrame
	}

	in := messaging.CreateMessageInput{
		Content:  payload.Content,
		Type:     models.MessageType(payload.Type),
		Priority: models.Priority(payload.Priority),
		Metadata: payload.Metadata,
	}
	if payload.ThreadID != nil {
		id, err := uuid.Parse(*payload.ThreadID)
		if err != nil {
			return apperr.Validation("invalid thread id")
		}
		in.ThreadID = &id
	}
	for _, raw := range payload.RecipientIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperr.Validation("invalid recipient id")
		}
		in.RecipientIDs = append(in.RecipientIDs, id)
	}
	if payload.ReplyToID != nil {
		id, err := uuid.Parse(*payload.ReplyToID)
		if err != nil {
			return apperr.Validation("invalid reply_to id")
		}
		in.ReplyToID = &id
	}

	msg, err := h.svc.CreateMessage(ctx, p, in)
	if err != nil {
		return err
	}
	h.events.MessageCreated(msg, uuid.Nil)
	return nil
}

func (h *WSHandler) handleEdit(ctx context.Context, p access.Principal, f *realtime.Frame) error {
	var payload struct {
		MessageID string `json:"message_id"`
		Content   string `json:"content"`
	}
	if err := json.Unmarshal(f.Data, &payload); err != nil {
		return realtime.ErrInvalidFrame
	}
	id, err := uuid.Parse(payload.MessageID)
	if err != nil {
		return apperr.Validation("invalid message id")
	}

	msg, err := h.svc.EditMessage(ctx, p, id, payload.Content)
	if err != nil {
		return err
	}
	h.events.MessageUpdated(msg)
	return nil
}

func (h *WSHandler) handleDelete(ctx context.Context, p access.Principal, f *realtime.Frame) error {
	var payload struct {
		MessageID string `json:"message_id"`
		Reason    string `json:"reason"`
	}
	if err := json.Unmarshal(f.Data, &payload); err != nil {
		return realtime.ErrInvalidFrame
	}
	id, err := uuid.Parse(payload.MessageID)
	if err != nil {
		return apperr.Validation("invalid message id")
	}

	msg, err := h.svc.GetMessage(ctx, p, id)
	if err != nil {
		return err
	}
	if err := h.svc.SoftDeleteMessage(ctx, p, id, payload.Reason); err != nil {
		return err
	}
	h.events.MessageDeleted(msg.ThreadID, id)
	return nil
}

func (h *WSHandler) handleMarkRead(ctx context.Context, p access.Principal, f *realtime.Frame) error {
	var payload struct {
		MessageID string `json:"message_id"`
	}
	if err := json.Unmarshal(f.Data, &payload); err != nil {
		return realtime.ErrInvalidFrame
	}
	id, err := uuid.Parse(payload.MessageID)
	if err != nil {
		return apperr.Validation("invalid message id")
	}

	msg, err := h.svc.MarkRead(ctx, p, id)
	if err != nil {
		return err
	}
	h.events.MessageRead(msg, p.ID)
	return nil
}

func (h *WSHandler) handleToggleReaction(ctx context.Context, p access.Principal, f *realtime.Frame) error {
	var payload struct {
		MessageID string `json:"message_id"`
		Emoji     string `json:"emoji"`
	}
	if err := json.Unmarshal(f.Data, &payload); err != nil {
		return realtime.ErrInvalidFrame
	}
	id, err := uuid.Parse(payload.MessageID)
	if err != nil {
		return apperr.Validation("invalid message id")
	}

	msg, present, err := h.svc.ToggleReaction(ctx, p, id, payload.Emoji)
	if err != nil {
		return err
	}
	h.events.ReactionToggled(msg, p.ID, payload.Emoji, present)
	return nil
}

func (h *WSHandler) handleJoinRoom(ctx context.Context, p access.Principal, client *realtime.Client, f *realtime.Frame) error {
	room, err := realtime.ParseRoomKey(f.Room)
	if err != nil {
		return realtime.ErrInvalidFrame
	}

	var thread *models.Thread
	if room.Kind == realtime.RoomThread {
		// GetThread runs the read-access check itself; CanJoinRoom then
		// re-applies it uniformly across room kinds.
		thread, err = h.svc.GetThread(ctx, p, room.ThreadID)
		if err != nil {
			return err
		}
	}
	if err := access.CanJoinRoom(p, room, thread); err != nil {
		return err
	}

	h.hub.JoinRoom(client, room)
	return nil
}

func (h *WSHandler) handleTyping(client *realtime.Client, f *realtime.Frame) error {
	room, err := realtime.ParseRoomKey(f.Room)
	if err != nil {
		return realtime.ErrInvalidFrame
	}
	if !client.InRoom(room) {
		return realtime.ErrNotInRoom
	}

	h.hub.Broadcast(room, realtime.EventUserTyping, map[string]string{
		"user_id": client.UserID.String(),
	}, client.ID)
	return nil
}

func (h *WSHandler) handleSetStatus(client *realtime.Client, f *realtime.Frame) error {
	var payload struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(f.Data, &payload); err != nil {
		return realtime.ErrInvalidFrame
	}

	status := realtime.Status(payload.Status)
	if !realtime.ValidStatus(status) {
		return apperr.Validation("unknown status %q", payload.Status)
	}

	if !h.hub.Presence().SetStatus(client.UserID, status, payload.Message) {
		return apperr.Business("cannot set status while offline")
	}
	h.hub.BroadcastPresence(client.UserID)
	return nil
}
