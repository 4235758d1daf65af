package realtime

import (
	"testing"

	"github.com/google/uuid"

	"github.com/venturelink/messaging/internal/models"
)

func TestRoomKeyRoundTrip(t *testing.T) {
	userID := uuid.New()
	threadID := uuid.New()

	rooms := []Room{
		PersonalRoom(userID),
		ThreadRoom(threadID),
		RoleRoom(models.RoleAdmin),
		RoleRoom(models.RoleEntrepreneur),
	}

	for _, room := range rooms {
		parsed, err := ParseRoomKey(room.Key())
		if err != nil {
			t.Fatalf("ParseRoomKey(%q): %v", room.Key(), err)
		}
		if parsed != room {
			t.Errorf("round trip of %q: got %+v, want %+v", room.Key(), parsed, room)
		}
	}
}

func TestParseRoomKeyRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"user",
		"user:",
		"user:not-a-uuid",
		"thread:123",
		"role:superuser",
		"channel:" + uuid.NewString(),
	}

	for _, key := range bad {
		if _, err := ParseRoomKey(key); err == nil {
			t.Errorf("ParseRoomKey(%q): expected error", key)
		}
	}
}
