package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Registry is the bidirectional {room key <-> connection id} index. Pure
// bookkeeping with no I/O, guarded by a single mutex. It is rebuilt from
// scratch after a restart: reconnecting clients rejoin their rooms.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[uuid.UUID]struct{}
	byConn map[uuid.UUID]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]map[uuid.UUID]struct{}),
		byConn: make(map[uuid.UUID]map[string]struct{}),
	}
}

func (r *Registry) Join(connID uuid.UUID, room Room) {
	key := room.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[key]; !ok {
		r.rooms[key] = make(map[uuid.UUID]struct{})
	}
	r.rooms[key][connID] = struct{}{}

	if _, ok := r.byConn[connID]; !ok {
		r.byConn[connID] = make(map[string]struct{})
	}
	r.byConn[connID][key] = struct{}{}
}

func (r *Registry) Leave(connID uuid.UUID, room Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveKey(connID, room.Key())
}

// LeaveAll removes the connection from every room it joined and returns the
// rooms it was in. Called on disconnect.
func (r *Registry) LeaveAll(connID uuid.UUID) []Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys, ok := r.byConn[connID]
	if !ok {
		return nil
	}
	left := make([]Room, 0, len(keys))
	for key := range keys {
		if room, err := ParseRoomKey(key); err == nil {
			left = append(left, room)
		}
		r.leaveKey(connID, key)
	}
	return left
}

func (r *Registry) leaveKey(connID uuid.UUID, key string) {
	if members, ok := r.rooms[key]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, key)
		}
	}
	if keys, ok := r.byConn[connID]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(r.byConn, connID)
		}
	}
}

func (r *Registry) MembersOf(room Room) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[room.Key()]
	out := make([]uuid.UUID, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

func (r *Registry) RoomsOf(connID uuid.UUID) []Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := r.byConn[connID]
	out := make([]Room, 0, len(keys))
	for key := range keys {
		if room, err := ParseRoomKey(key); err == nil {
			out = append(out, room)
		}
	}
	return out
}

func (r *Registry) InRoom(connID uuid.UUID, room Room) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys, ok := r.byConn[connID]
	if !ok {
		return false
	}
	_, ok = keys[room.Key()]
	return ok
}
