package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/venturelink/messaging/internal/apperr"
	"github.com/venturelink/messaging/internal/messaging"
	"github.com/venturelink/messaging/internal/models"
)

// CreateMessage persists the message, its explicit recipient links and the
// thread activity update atomically. A failed send never partially persists.
func (d *Database) CreateMessage(ctx context.Context, m *models.Message, recipientIDs []uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Recipients", "Thread", "Sender").Create(m).Error; err != nil {
			return wrapErr(err, "message %s", m.ID)
		}

		if len(recipientIDs) > 0 {
			var recipients []models.User
			if err := tx.Where("id IN ?", recipientIDs).Find(&recipients).Error; err != nil {
				return wrapErr(err, "recipients")
			}
			if len(recipients) != len(recipientIDs) {
				return apperr.NotFound("one or more recipients do not exist")
			}
			if err := tx.Model(m).Association("Recipients").Append(&recipients); err != nil {
				return wrapErr(err, "recipients of message %s", m.ID)
			}
		}

		err := tx.Model(&models.Thread{}).
			Where("id = ?", m.ThreadID).
			Updates(map[string]interface{}{
				"last_activity_at": m.CreatedAt,
				"last_message_id":  m.ID,
				"updated_at":       m.CreatedAt,
			}).Error
		return wrapErr(err, "thread %s", m.ThreadID)
	})
}

func (d *Database) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var msg models.Message
	err := d.db.WithContext(ctx).
		Preload("Sender").
		Preload("Recipients").
		Preload("Attachments").
		Preload("Reactions").
		Preload("ReadReceipts").
		First(&msg, "id = ?", id).Error
	if err != nil {
		return nil, wrapErr(err, "message %s", id)
	}
	return &msg, nil
}

// UpdateMessageContent applies an edit guarded by an optimistic check on the
// previous updated_at: of two concurrent edits one wins, the other gets
// ConflictError instead of interleaved writes.
func (d *Database) UpdateMessageContent(ctx context.Context, id uuid.UUID, content string, editedAt time.Time, prevUpdatedAt time.Time) error {
	res := d.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ? AND updated_at = ? AND deleted_at IS NULL", id, prevUpdatedAt).
		Updates(map[string]interface{}{
			"content":    content,
			"is_edited":  true,
			"edited_at":  editedAt,
			"updated_at": editedAt,
		})
	if res.Error != nil {
		return wrapErr(res.Error, "message %s", id)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("message %s changed concurrently", id)
	}
	return nil
}

func (d *Database) SoftDeleteMessage(ctx context.Context, id, by uuid.UUID, reason *string, at time.Time) error {
	res := d.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{
			"deleted_at":      at,
			"deleted_by":      by,
			"deletion_reason": reason,
			"updated_at":      at,
		})
	if res.Error != nil {
		return wrapErr(res.Error, "message %s", id)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("message %s", id)
	}
	return nil
}

// ListMessages pages a thread, oldest first, soft-deleted rows excluded.
// With beforeID set it returns the page ending just before that message.
func (d *Database) ListMessages(ctx context.Context, threadID uuid.UUID, limit int, beforeID *uuid.UUID) ([]models.Message, error) {
	var messages []models.Message

	q := d.db.WithContext(ctx).
		Where("thread_id = ? AND deleted_at IS NULL", threadID)

	if beforeID != nil {
		var before models.Message
		if err := d.db.WithContext(ctx).First(&before, "id = ?", beforeID).Error; err == nil {
			q = q.Where("created_at < ?", before.CreatedAt)
		}
	}

	err := q.Order("created_at DESC").
		Limit(limit).
		Preload("Sender").
		Preload("Attachments").
		Preload("Reactions").
		Find(&messages).Error
	if err != nil {
		return nil, wrapErr(err, "messages of thread %s", threadID)
	}

	// Reverse so the page reads oldest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// SearchMessages runs the filtered global search, newest first, scoped to
// threads the principal participates in unless they are an admin.
func (d *Database) SearchMessages(ctx context.Context, q messaging.SearchQuery) ([]models.Message, error) {
	dbq := d.db.WithContext(ctx).Model(&models.Message{}).
		Where("messages.deleted_at IS NULL")

	if !q.Admin {
		dbq = dbq.
			Joins("JOIN thread_participants tp ON tp.thread_id = messages.thread_id").
			Where("tp.user_id = ?", q.UserID)
	}
	if q.Text != "" {
		dbq = dbq.Where("messages.content ILIKE ?", "%"+q.Text+"%")
	}
	if q.SenderID != nil {
		dbq = dbq.Where("messages.sender_id = ?", q.SenderID)
	}
	if q.ThreadID != nil {
		dbq = dbq.Where("messages.thread_id = ?", q.ThreadID)
	}
	if q.Type != nil {
		dbq = dbq.Where("messages.type = ?", q.Type)
	}
	if q.Priority != nil {
		dbq = dbq.Where("messages.priority = ?", q.Priority)
	}
	if q.After != nil {
		dbq = dbq.Where("messages.created_at >= ?", q.After)
	}
	if q.Before != nil {
		dbq = dbq.Where("messages.created_at <= ?", q.Before)
	}
	if q.HasFiles {
		dbq = dbq.Where("EXISTS (SELECT 1 FROM attachments a WHERE a.message_id = messages.id)")
	}

	var messages []models.Message
	err := dbq.Order("messages.created_at DESC").
		Limit(q.Limit).Offset(q.Offset).
		Preload("Sender").
		Find(&messages).Error
	if err != nil {
		return nil, wrapErr(err, "message search")
	}
	return messages, nil
}
