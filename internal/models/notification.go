package models

import (
	"time"

	"github.com/google/uuid"
)

type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

type NotificationStatus string

const (
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

// Notification is the audit record of one fallback delivery attempt.
type Notification struct {
	ID          uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MessageID   uuid.UUID          `gorm:"type:uuid;not null;index"`
	ThreadID    uuid.UUID          `gorm:"type:uuid;not null;index"`
	RecipientID uuid.UUID          `gorm:"type:uuid;not null;index"`
	Channel     Channel            `gorm:"not null"`
	Status      NotificationStatus `gorm:"not null"`
	Error       *string
	CreatedAt   time.Time
}
