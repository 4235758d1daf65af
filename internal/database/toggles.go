package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/venturelink/messaging/internal/models"
)

// UpsertReadReceipt records a per-(user, message) read; replaying it only
// refreshes the timestamp, so at-least-once callers stay idempotent.
func (d *Database) UpsertReadReceipt(ctx context.Context, messageID, userID uuid.UUID, at time.Time) error {
	receipt := models.ReadReceipt{MessageID: messageID, UserID: userID, ReadAt: at}
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"read_at"}),
	}).Create(&receipt).Error
	return wrapErr(err, "read receipt for message %s", messageID)
}

func (d *Database) DeleteReadReceipt(ctx context.Context, messageID, userID uuid.UUID) error {
	err := d.db.WithContext(ctx).
		Delete(&models.ReadReceipt{}, "message_id = ? AND user_id = ?", messageID, userID).Error
	return wrapErr(err, "read receipt for message %s", messageID)
}

// ToggleStar flips the star mark inside a transaction and returns the
// resulting state.
func (d *Database) ToggleStar(ctx context.Context, messageID, userID uuid.UUID) (bool, error) {
	var present bool
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var star models.StarMark
		err := tx.First(&star, "message_id = ? AND user_id = ?", messageID, userID).Error
		switch {
		case err == nil:
			present = false
			return tx.Delete(&star).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			present = true
			return tx.Create(&models.StarMark{
				MessageID: messageID,
				UserID:    userID,
				CreatedAt: tx.NowFunc(),
			}).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, wrapErr(err, "star on message %s", messageID)
	}
	return present, nil
}

// ToggleReaction flips the (user, message, emoji) triple; toggling twice
// returns to the original state and never duplicates.
func (d *Database) ToggleReaction(ctx context.Context, messageID, userID uuid.UUID, emoji string) (bool, error) {
	var present bool
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reaction models.Reaction
		err := tx.First(&reaction,
			"message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).Error
		switch {
		case err == nil:
			present = false
			return tx.Delete(&reaction).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			present = true
			return tx.Create(&models.Reaction{
				MessageID: messageID,
				UserID:    userID,
				Emoji:     emoji,
				CreatedAt: tx.NowFunc(),
			}).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, wrapErr(err, "reaction on message %s", messageID)
	}
	return present, nil
}

// AddAttachment inserts the metadata row and promotes the message type when
// the first media attachment lands on a text message.
func (d *Database) AddAttachment(ctx context.Context, a *models.Attachment, promoteTo models.MessageType) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(a).Error; err != nil {
			return wrapErr(err, "attachment %s", a.Filename)
		}
		err := tx.Model(&models.Message{}).
			Where("id = ?", a.MessageID).
			Update("type", promoteTo).Error
		return wrapErr(err, "message %s", a.MessageID)
	})
}
