package handlers

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/venturelink/messaging/internal/handlers/dto"
	"github.com/venturelink/messaging/internal/models"
	"github.com/venturelink/messaging/internal/notify"
	"github.com/venturelink/messaging/internal/realtime"
)

// Events fans domain events out to live rooms and hands offline recipients
// to the fallback dispatcher. Both the HTTP and websocket transports go
// through here so the two paths stay consistent.
type Events struct {
	hub        *realtime.Hub
	dispatcher *notify.Dispatcher
	log        *zap.Logger
}

func NewEvents(hub *realtime.Hub, dispatcher *notify.Dispatcher, log *zap.Logger) *Events {
	return &Events{hub: hub, dispatcher: dispatcher, log: log}
}

// MessageCreated broadcasts new_message to the thread room, then dispatches
// fallback notifications for recipients the broadcast could not reach. The
// dispatch runs detached so a slow provider never stalls the send.
func (e *Events) MessageCreated(msg *models.Message, excludeConn uuid.UUID) {
	room := realtime.ThreadRoom(msg.ThreadID)
	e.hub.Broadcast(room, realtime.EventNewMessage, dto.FormatMessage(msg), excludeConn)

	recipients := e.fallbackRecipients(msg)
	if len(recipients) > 0 {
		go e.dispatcher.DispatchOffline(context.Background(), msg, recipients)
	}
}

func (e *Events) MessageUpdated(msg *models.Message) {
	e.hub.Broadcast(realtime.ThreadRoom(msg.ThreadID), realtime.EventMessageUpdated,
		dto.FormatMessage(msg), uuid.Nil)
}

func (e *Events) MessageDeleted(threadID, messageID uuid.UUID) {
	e.hub.Broadcast(realtime.ThreadRoom(threadID), realtime.EventMessageDeleted,
		map[string]string{"message_id": messageID.String()}, uuid.Nil)
}

func (e *Events) MessageRead(msg *models.Message, readerID uuid.UUID) {
	e.hub.Broadcast(realtime.ThreadRoom(msg.ThreadID), realtime.EventMessageRead,
		map[string]string{
			"message_id": msg.ID.String(),
			"user_id":    readerID.String(),
		}, uuid.Nil)
}

func (e *Events) ReactionToggled(msg *models.Message, userID uuid.UUID, emoji string, present bool) {
	e.hub.Broadcast(realtime.ThreadRoom(msg.ThreadID), realtime.EventReactionToggled,
		map[string]interface{}{
			"message_id": msg.ID.String(),
			"user_id":    userID.String(),
			"emoji":      emoji,
			"present":    present,
		}, uuid.Nil)
}

func (e *Events) ParticipantAdded(thread *models.Thread, sys *models.Message, targetID uuid.UUID) {
	e.hub.Broadcast(realtime.ThreadRoom(thread.ID), realtime.EventParticipantAdded,
		map[string]interface{}{
			"thread_id":      thread.ID.String(),
			"user_id":        targetID.String(),
			"system_message": dto.FormatMessage(sys),
		}, uuid.Nil)
}

func (e *Events) ParticipantRemoved(thread *models.Thread, sys *models.Message, targetID uuid.UUID) {
	e.hub.Broadcast(realtime.ThreadRoom(thread.ID), realtime.EventParticipantRemoved,
		map[string]interface{}{
			"thread_id":      thread.ID.String(),
			"user_id":        targetID.String(),
			"system_message": dto.FormatMessage(sys),
		}, uuid.Nil)
}

// fallbackRecipients prefers the explicit recipient list and falls back to
// the thread participant set.
func (e *Events) fallbackRecipients(msg *models.Message) []uuid.UUID {
	if len(msg.Recipients) > 0 {
		ids := make([]uuid.UUID, 0, len(msg.Recipients))
		for _, r := range msg.Recipients {
			ids = append(ids, r.ID)
		}
		return ids
	}
	return msg.Thread.ParticipantIDs()
}
