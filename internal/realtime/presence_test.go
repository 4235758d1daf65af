package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPresenceTransitionsOnceAcrossConnections(t *testing.T) {
	tr := NewTracker()
	user := uuid.New()
	connA := uuid.New()
	connB := uuid.New()

	if !tr.Connect(user, connA) {
		t.Fatal("first connection should transition the user online")
	}
	if tr.Connect(user, connB) {
		t.Fatal("second connection should not re-trigger the online transition")
	}
	if !tr.IsOnline(user) {
		t.Fatal("user should be online with two connections")
	}

	if tr.Disconnect(user, connA) {
		t.Fatal("closing one of two connections should not go offline")
	}
	if !tr.IsOnline(user) {
		t.Fatal("user should still be online with one connection left")
	}

	if !tr.Disconnect(user, connB) {
		t.Fatal("closing the last connection should transition the user offline")
	}
	if tr.IsOnline(user) {
		t.Fatal("user should be offline after the last disconnect")
	}
}

func TestPresenceDisconnectUnknownUser(t *testing.T) {
	tr := NewTracker()
	if tr.Disconnect(uuid.New(), uuid.New()) {
		t.Fatal("disconnect of an unknown user must not report an offline transition")
	}
}

func TestPresenceSetStatus(t *testing.T) {
	tr := NewTracker()
	user := uuid.New()

	if tr.SetStatus(user, StatusAway, "lunch") {
		t.Fatal("SetStatus must fail for an offline user")
	}

	tr.Connect(user, uuid.New())
	if !tr.SetStatus(user, StatusAway, "lunch") {
		t.Fatal("SetStatus should succeed for an online user")
	}

	status, custom, ok := tr.StatusOf(user)
	if !ok || status != StatusAway || custom != "lunch" {
		t.Fatalf("StatusOf = (%s, %q, %v), want (away, lunch, true)", status, custom, ok)
	}
}

func TestPresenceTouchUpdatesActivity(t *testing.T) {
	tr := NewTracker()
	user := uuid.New()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	tr.now = func() time.Time { return current }

	tr.Connect(user, uuid.New())

	current = base.Add(5 * time.Minute)
	tr.Touch(user)

	got, ok := tr.LastActivity(user)
	if !ok {
		t.Fatal("LastActivity: user should be known")
	}
	if !got.Equal(base.Add(5 * time.Minute)) {
		t.Fatalf("LastActivity = %v, want %v", got, base.Add(5*time.Minute))
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusOnline, StatusAway, StatusBusy, StatusDND} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%s) = false", s)
		}
	}
	if ValidStatus("offline") {
		t.Error("offline is derived, never declared")
	}
	if ValidStatus("sleeping") {
		t.Error("unknown status accepted")
	}
}
