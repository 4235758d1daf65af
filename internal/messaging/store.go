package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/venturelink/messaging/internal/models"
)

// Store is the persistence boundary of the message core. The gorm
// implementation lives in internal/database; tests use an in-memory fake.
type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)

	CreateThread(ctx context.Context, t *models.Thread, participantIDs []uuid.UUID) error
	GetThread(ctx context.Context, id uuid.UUID) (*models.Thread, error)
	FindDirectThread(ctx context.Context, directKey string) (*models.Thread, error)
	ListThreads(ctx context.Context, userID uuid.UUID, includeArchived bool, limit, offset int) ([]models.Thread, error)
	CountActiveThreadsBy(ctx context.Context, creatorID uuid.UUID) (int64, error)
	SetThreadArchived(ctx context.Context, threadID uuid.UUID, archived bool) error
	AddParticipant(ctx context.Context, threadID, userID uuid.UUID) error
	RemoveParticipant(ctx context.Context, threadID, userID uuid.UUID) error

	// CreateMessage persists the message, its explicit recipient links and
	// the thread's last_activity/last_message update in one transaction.
	CreateMessage(ctx context.Context, m *models.Message, recipientIDs []uuid.UUID) error
	GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error)
	// UpdateMessageContent applies an edit with an optimistic check on the
	// previous updated_at; a concurrent edit surfaces as ConflictError.
	UpdateMessageContent(ctx context.Context, id uuid.UUID, content string, editedAt time.Time, prevUpdatedAt time.Time) error
	SoftDeleteMessage(ctx context.Context, id, by uuid.UUID, reason *string, at time.Time) error
	ListMessages(ctx context.Context, threadID uuid.UUID, limit int, beforeID *uuid.UUID) ([]models.Message, error)
	SearchMessages(ctx context.Context, q SearchQuery) ([]models.Message, error)

	UpsertReadReceipt(ctx context.Context, messageID, userID uuid.UUID, at time.Time) error
	DeleteReadReceipt(ctx context.Context, messageID, userID uuid.UUID) error
	// ToggleStar / ToggleReaction return the resulting state: true when the
	// mark now exists.
	ToggleStar(ctx context.Context, messageID, userID uuid.UUID) (bool, error)
	ToggleReaction(ctx context.Context, messageID, userID uuid.UUID, emoji string) (bool, error)

	AddAttachment(ctx context.Context, a *models.Attachment, promoteTo models.MessageType) error

	GetPreference(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error)
	SavePreference(ctx context.Context, p *models.NotificationPreference) error
}

// SearchQuery is the structured filter set for search_messages. Principal
// scoping (participant threads only) is applied by the store.
type SearchQuery struct {
	UserID   uuid.UUID
	Admin    bool
	Text     string
	SenderID *uuid.UUID
	ThreadID *uuid.UUID
	Type     *models.MessageType
	Priority *models.Priority
	After    *time.Time
	Before   *time.Time
	HasFiles bool
	Limit    int
	Offset   int
}

// Counter is the atomic increment-with-expiry collaborator used for send
// and thread-creation quotas. Backed by redis in production.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}
