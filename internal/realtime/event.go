package realtime

import (
	"encoding/json"
	"time"
)

// Server-pushed event names.
const (
	EventNewMessage         = "new_message"
	EventMessageUpdated     = "message_updated"
	EventMessageDeleted     = "message_deleted"
	EventMessageRead        = "message_read"
	EventReactionToggled    = "reaction_toggled"
	EventParticipantAdded   = "participant_added"
	EventParticipantRemoved = "participant_removed"
	EventPresenceChanged    = "user_presence_changed"
	EventUserTyping         = "user_typing"
	EventRoomMembers        = "room_members"
	EventError              = "error"
	EventPing               = "ping"
)

// Client-sent event names.
const (
	EventSendMessage    = "send_message"
	EventEditMessage    = "edit_message"
	EventDeleteMessage  = "delete_message"
	EventMarkRead       = "mark_read"
	EventToggleReaction = "toggle_reaction"
	EventJoinRoom       = "join_room"
	EventLeaveRoom      = "leave_room"
	EventTyping         = "typing"
	EventSetStatus      = "set_status"
	EventPong           = "pong"
)

// Frame is the wire envelope in both directions. Ids travel as strings and
// the timestamp is ISO-8601 UTC.
type Frame struct {
	Event     string          `json:"event"`
	Room      string          `json:"room,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

func EncodeFrame(event string, room string, payload interface{}) ([]byte, error) {
	f := Frame{
		Event:     event,
		Room:      room,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		f.Data = data
	}
	return json.Marshal(f)
}
