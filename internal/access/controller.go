// Package access is the authorization gate consulted before every thread or
// room operation. Decisions are pure functions over the principal and the
// already-loaded thread/message rows; nothing here touches storage or has
// side effects, so callers must run the check before mutating anything.
package access

import (
	"github.com/google/uuid"

	"github.com/venturelink/messaging/internal/apperr"
	"github.com/venturelink/messaging/internal/models"
	"github.com/venturelink/messaging/internal/realtime"
)

// Principal is the authenticated caller supplied by the identity layer.
type Principal struct {
	ID   uuid.UUID
	Role models.Role
}

func (p Principal) Admin() bool { return p.Role == models.RoleAdmin }

// CanReadThread allows admins and listed participants.
func CanReadThread(p Principal, t *models.Thread) error {
	if p.Admin() {
		return nil
	}
	if !t.HasParticipant(p.ID) {
		return apperr.Permission("not a participant of thread %s", t.ID)
	}
	return nil
}

// CanPostToThread mirrors read access: whoever may read a thread may post to
// it, archived threads excepted.
func CanPostToThread(p Principal, t *models.Thread) error {
	if err := CanReadThread(p, t); err != nil {
		return err
	}
	if t.IsArchived {
		return apperr.Business("thread %s is archived", t.ID)
	}
	return nil
}

// CanManageThread gates participant changes and metadata edits: the creator
// or a privileged role, never on direct threads.
func CanManageThread(p Principal, t *models.Thread) error {
	if t.Type == models.ThreadDirect {
		return apperr.Business("direct threads have a fixed participant pair")
	}
	if p.Admin() || p.Role.Privileged() || t.CreatedBy == p.ID {
		return nil
	}
	return apperr.Permission("only the thread creator or a privileged role may manage thread %s", t.ID)
}

// CanRemoveParticipant layers the creator-removal rule on top of
// CanManageThread: the creator leaves only by their own hand.
func CanRemoveParticipant(p Principal, t *models.Thread, target uuid.UUID) error {
	if err := CanManageThread(p, t); err != nil {
		return err
	}
	if target == t.CreatedBy && p.ID != t.CreatedBy {
		return apperr.Business("the thread creator can only be removed by themself")
	}
	return nil
}

// CanEditMessage is sender-only; the time window is enforced by the message
// store as a business rule.
func CanEditMessage(p Principal, m *models.Message) error {
	if m.SenderID != p.ID {
		return apperr.Permission("only the sender may edit a message")
	}
	return nil
}

// CanDeleteMessage is sender-only, same split as CanEditMessage.
func CanDeleteMessage(p Principal, m *models.Message) error {
	if m.SenderID != p.ID {
		return apperr.Permission("only the sender may delete a message")
	}
	return nil
}

// CanJoinRoom gates live room membership. The thread argument is required
// for thread rooms and ignored otherwise.
func CanJoinRoom(p Principal, room realtime.Room, t *models.Thread) error {
	if p.Admin() {
		return nil
	}
	switch room.Kind {
	case realtime.RoomPersonal:
		if room.UserID != p.ID {
			return apperr.Permission("cannot join another user's personal room")
		}
		return nil
	case realtime.RoomThread:
		if t == nil || t.ID != room.ThreadID {
			return apperr.NotFound("thread %s", room.ThreadID)
		}
		return CanReadThread(p, t)
	case realtime.RoomRole:
		if room.Role != p.Role {
			return apperr.Permission("cannot join another role's broadcast room")
		}
		return nil
	}
	return apperr.Validation("unknown room kind")
}
