package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOnline Status = "online"
	StatusAway   Status = "away"
	StatusBusy   Status = "busy"
	StatusDND    Status = "dnd"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusOnline, StatusAway, StatusBusy, StatusDND:
		return true
	}
	return false
}

type presenceEntry struct {
	conns        map[uuid.UUID]struct{}
	status       Status
	custom       string
	lastActivity time.Time
}

// Tracker derives user-level presence from connection lifecycles. A user is
// online while at least one connection is open; the offline transition fires
// exactly once, when the last connection closes. Ephemeral by design.
type Tracker struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*presenceEntry
	now   func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{users: make(map[uuid.UUID]*presenceEntry), now: time.Now}
}

// Connect records a new connection. Returns true when this transitioned the
// user from offline to online.
func (t *Tracker) Connect(userID, connID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.users[userID]
	if !ok {
		t.users[userID] = &presenceEntry{
			conns:        map[uuid.UUID]struct{}{connID: {}},
			status:       StatusOnline,
			lastActivity: t.now(),
		}
		return true
	}
	e.conns[connID] = struct{}{}
	e.lastActivity = t.now()
	return false
}

// Disconnect drops a connection. Returns true when this transitioned the
// user to offline.
func (t *Tracker) Disconnect(userID, connID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.users[userID]
	if !ok {
		return false
	}
	delete(e.conns, connID)
	if len(e.conns) == 0 {
		delete(t.users, userID)
		return true
	}
	return false
}

// SetStatus declares away/busy/dnd (or back to online) for an online user.
// Returns false when the user has no open connection.
func (t *Tracker) SetStatus(userID uuid.UUID, status Status, custom string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.users[userID]
	if !ok {
		return false
	}
	e.status = status
	e.custom = custom
	e.lastActivity = t.now()
	return true
}

// Touch bumps the user's last-activity timestamp.
func (t *Tracker) Touch(userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.users[userID]; ok {
		e.lastActivity = t.now()
	}
}

func (t *Tracker) IsOnline(userID uuid.UUID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.users[userID]
	return ok
}

// StatusOf returns the declared status and custom message; ok is false for
// offline users.
func (t *Tracker) StatusOf(userID uuid.UUID) (Status, string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.users[userID]
	if !ok {
		return "", "", false
	}
	return e.status, e.custom, true
}

func (t *Tracker) LastActivity(userID uuid.UUID) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.users[userID]
	if !ok {
		return time.Time{}, false
	}
	return e.lastActivity, true
}

func (t *Tracker) OnlineUsers() []uuid.UUID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(t.users))
	for id := range t.users {
		out = append(out, id)
	}
	return out
}
