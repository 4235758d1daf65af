package models

import (
	"time"

	"github.com/google/uuid"
)

// AllowedEmojis is the fixed reaction set accepted on the wire.
var AllowedEmojis = map[string]bool{
	"👍": true, "👎": true, "❤️": true, "😂": true, "😮": true,
	"😢": true, "😡": true, "🎉": true, "👏": true, "🔥": true,
}

type Reaction struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Emoji     string    `gorm:"primaryKey"`
	CreatedAt time.Time
}

// ReadReceipt is the per-(user, message) read record. Read state never lives
// on the message row itself, so concurrent readers do not contend.
type ReadReceipt struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReadAt    time.Time `gorm:"not null"`
}

// StarMark is the per-(user, message) star record.
type StarMark struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
}
