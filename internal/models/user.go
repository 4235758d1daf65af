package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleEntrepreneur Role = "entrepreneur"
	RoleAlly         Role = "ally"
	RoleClient       Role = "client"
)

// Privileged reports whether the role may bypass participant-management
// restrictions and gets the elevated send quota.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleAlly
}

func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleEntrepreneur, RoleAlly, RoleClient:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Role         Role      `gorm:"not null;default:'client';check:role IN ('admin','entrepreneur','ally','client')"`
	DisplayName  string
	AvatarURL    string
	LastSeenAt   time.Time
	CreatedAt    time.Time
}

// NotificationPreference holds per-channel opt-in flags for fallback
// notifications. A missing row means the defaults below.
type NotificationPreference struct {
	UserID            uuid.UUID     `gorm:"type:uuid;primaryKey"`
	PushEnabled       bool          `gorm:"default:true"`
	EmailEnabled      bool          `gorm:"default:true"`
	SMSEnabled        bool          `gorm:"default:false"`
	InactiveThreshold time.Duration `gorm:"default:1800000000000"` // 30m in ns
	UpdatedAt         time.Time
}

func DefaultPreference(userID uuid.UUID) NotificationPreference {
	return NotificationPreference{
		UserID:            userID,
		PushEnabled:       true,
		EmailEnabled:      true,
		SMSEnabled:        false,
		InactiveThreshold: 30 * time.Minute,
	}
}
