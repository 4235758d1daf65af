package realtime

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/venturelink/messaging/internal/models"
)

// RoomKind tags the three broadcast targets. Rooms are ephemeral string-keyed
// targets for live delivery, never persisted.
type RoomKind int

const (
	RoomPersonal RoomKind = iota
	RoomThread
	RoomRole
)

// Room is a typed room descriptor. Authorization and fan-out decisions work
// on the descriptor; the string key exists only at the wire boundary.
type Room struct {
	Kind     RoomKind
	UserID   uuid.UUID
	ThreadID uuid.UUID
	Role     models.Role
}

func PersonalRoom(userID uuid.UUID) Room {
	return Room{Kind: RoomPersonal, UserID: userID}
}

func ThreadRoom(threadID uuid.UUID) Room {
	return Room{Kind: RoomThread, ThreadID: threadID}
}

func RoleRoom(role models.Role) Room {
	return Room{Kind: RoomRole, Role: role}
}

// Key returns the canonical wire name: user:{id}, thread:{id} or role:{role}.
func (r Room) Key() string {
	switch r.Kind {
	case RoomPersonal:
		return "user:" + r.UserID.String()
	case RoomThread:
		return "thread:" + r.ThreadID.String()
	case RoomRole:
		return "role:" + string(r.Role)
	}
	return ""
}

var ErrBadRoomKey = errors.New("malformed room key")

// ParseRoomKey is the inverse of Key.
func ParseRoomKey(key string) (Room, error) {
	prefix, rest, ok := strings.Cut(key, ":")
	if !ok || rest == "" {
		return Room{}, ErrBadRoomKey
	}
	switch prefix {
	case "user":
		id, err := uuid.Parse(rest)
		if err != nil {
			return Room{}, ErrBadRoomKey
		}
		return PersonalRoom(id), nil
	case "thread":
		id, err := uuid.Parse(rest)
		if err != nil {
			return Room{}, ErrBadRoomKey
		}
		return ThreadRoom(id), nil
	case "role":
		if !models.ValidRole(models.Role(rest)) {
			return Room{}, ErrBadRoomKey
		}
		return RoleRoom(models.Role(rest)), nil
	}
	return Room{}, ErrBadRoomKey
}
