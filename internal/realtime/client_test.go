package realtime

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/venturelink/messaging/internal/apperr"
)

func recvErrorPayload(t *testing.T, c *Client) map[string]string {
	t.Helper()
	f := recvFrame(t, c)
	if f.Event != EventError {
		t.Fatalf("event = %s, want %s", f.Event, EventError)
	}
	var payload map[string]string
	if err := json.Unmarshal(f.Data, &payload); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	return payload
}

func TestSendErrorCarriesKind(t *testing.T) {
	h := newTestHub()
	c := testClient(h, uuid.New())

	c.SendError(apperr.Permission("not a thread participant"))
	payload := recvErrorPayload(t, c)
	if payload["kind"] != "permission" {
		t.Errorf("kind = %q, want permission", payload["kind"])
	}
	if payload["error"] != "not a thread participant" {
		t.Errorf("error = %q", payload["error"])
	}

	c.SendError(apperr.Validation("unknown status"))
	if payload := recvErrorPayload(t, c); payload["kind"] != "validation" {
		t.Errorf("kind = %q, want validation", payload["kind"])
	}
}

func TestSendErrorClassifiesTransportErrors(t *testing.T) {
	h := newTestHub()
	c := testClient(h, uuid.New())

	c.SendError(ErrInvalidFrame)
	if payload := recvErrorPayload(t, c); payload["kind"] != "validation" {
		t.Errorf("invalid frame kind = %q, want validation", payload["kind"])
	}

	c.SendError(ErrBadRoomKey)
	if payload := recvErrorPayload(t, c); payload["kind"] != "validation" {
		t.Errorf("bad room key kind = %q, want validation", payload["kind"])
	}

	c.SendError(ErrNotInRoom)
	if payload := recvErrorPayload(t, c); payload["kind"] != "permission" {
		t.Errorf("not-in-room kind = %q, want permission", payload["kind"])
	}
}
