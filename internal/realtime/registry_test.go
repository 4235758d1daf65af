package realtime

import (
	"testing"

	"github.com/google/uuid"
)

func TestRegistryJoinLeave(t *testing.T) {
	r := NewRegistry()
	conn := uuid.New()
	room := ThreadRoom(uuid.New())

	if r.InRoom(conn, room) {
		t.Fatal("connection should not be in room before Join")
	}

	r.Join(conn, room)
	if !r.InRoom(conn, room) {
		t.Fatal("connection should be in room after Join")
	}
	if got := r.MembersOf(room); len(got) != 1 || got[0] != conn {
		t.Fatalf("MembersOf = %v, want [%s]", got, conn)
	}

	r.Leave(conn, room)
	if r.InRoom(conn, room) {
		t.Fatal("connection should not be in room after Leave")
	}
	if got := r.MembersOf(room); len(got) != 0 {
		t.Fatalf("MembersOf after Leave = %v, want empty", got)
	}
}

func TestRegistryJoinIsIdempotent(t *testing.T) {
	r := NewRegistry()
	conn := uuid.New()
	room := ThreadRoom(uuid.New())

	r.Join(conn, room)
	r.Join(conn, room)

	if got := r.MembersOf(room); len(got) != 1 {
		t.Fatalf("double Join produced %d members, want 1", len(got))
	}
}

func TestRegistryLeaveAll(t *testing.T) {
	r := NewRegistry()
	conn := uuid.New()
	other := uuid.New()

	roomA := ThreadRoom(uuid.New())
	roomB := ThreadRoom(uuid.New())
	personal := PersonalRoom(uuid.New())

	r.Join(conn, roomA)
	r.Join(conn, roomB)
	r.Join(conn, personal)
	r.Join(other, roomA)

	left := r.LeaveAll(conn)
	if len(left) != 3 {
		t.Fatalf("LeaveAll returned %d rooms, want 3", len(left))
	}

	if len(r.RoomsOf(conn)) != 0 {
		t.Error("connection still has rooms after LeaveAll")
	}
	if !r.InRoom(other, roomA) {
		t.Error("LeaveAll removed an unrelated connection")
	}
	if r.InRoom(conn, roomA) || r.InRoom(conn, roomB) || r.InRoom(conn, personal) {
		t.Error("connection still in a room after LeaveAll")
	}
}

func TestRegistryLeaveAllUnknownConn(t *testing.T) {
	r := NewRegistry()
	if left := r.LeaveAll(uuid.New()); left != nil {
		t.Fatalf("LeaveAll of unknown connection = %v, want nil", left)
	}
}
