package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ThreadType string

const (
	ThreadDirect  ThreadType = "direct"
	ThreadGroup   ThreadType = "group"
	ThreadProject ThreadType = "project"
	ThreadMeeting ThreadType = "meeting"
	ThreadSupport ThreadType = "support"
)

func ValidThreadType(t ThreadType) bool {
	switch t {
	case ThreadDirect, ThreadGroup, ThreadProject, ThreadMeeting, ThreadSupport:
		return true
	}
	return false
}

const MaxThreadParticipants = 100

type Thread struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Title       string     `gorm:"not null"`
	Description *string
	Type        ThreadType `gorm:"not null;check:type IN ('direct','group','project','meeting','support')"`
	IsPrivate   bool       `gorm:"default:false"`
	IsArchived  bool       `gorm:"default:false;index"`

	// DirectKey is the unordered participant pair for direct threads,
	// unique so get-or-create cannot race into duplicates. Empty for
	// every other thread type.
	DirectKey *string `gorm:"uniqueIndex"`

	CreatedBy uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProjectID *uuid.UUID `gorm:"type:uuid;index"`
	MeetingID *uuid.UUID `gorm:"type:uuid;index"`

	AutoArchiveAfterDays *int
	LastActivityAt       time.Time  `gorm:"index"`
	LastMessageID        *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Participants []User    `gorm:"many2many:thread_participants"`
	Messages     []Message `gorm:"foreignKey:ThreadID"`
}

// DirectKeyFor builds the canonical unordered-pair key for a direct thread.
func DirectKeyFor(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if x > y {
		x, y = y, x
	}
	return x + ":" + y
}

func (t *Thread) HasParticipant(userID uuid.UUID) bool {
	for _, p := range t.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

func (t *Thread) ParticipantIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.Participants))
	for _, p := range t.Participants {
		ids = append(ids, p.ID)
	}
	return ids
}

func (t *Thread) DisplayTitle() string {
	if t.Type != ThreadDirect || t.Title != "" {
		return t.Title
	}
	names := make([]string, 0, len(t.Participants))
	for _, p := range t.Participants {
		names = append(names, p.Username)
	}
	return strings.Join(names, ", ")
}
