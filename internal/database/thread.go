package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/venturelink/messaging/internal/models"
)

func (d *Database) CreateThread(ctx context.Context, t *models.Thread, participantIDs []uuid.UUID) error {
	// Participants are already resolved to rows by the service; gorm links
	// them through thread_participants in the same insert.
	return wrapErr(d.db.WithContext(ctx).Create(t).Error, "thread %s", t.ID)
}

func (d *Database) GetThread(ctx context.Context, id uuid.UUID) (*models.Thread, error) {
	var thread models.Thread
	err := d.db.WithContext(ctx).Preload("Participants").First(&thread, "id = ?", id).Error
	if err != nil {
		return nil, wrapErr(err, "thread %s", id)
	}
	return &thread, nil
}

func (d *Database) FindDirectThread(ctx context.Context, directKey string) (*models.Thread, error) {
	var thread models.Thread
	err := d.db.WithContext(ctx).Preload("Participants").
		First(&thread, "direct_key = ?", directKey).Error
	if err != nil {
		return nil, wrapErr(err, "direct thread %s", directKey)
	}
	return &thread, nil
}

func (d *Database) ListThreads(ctx context.Context, userID uuid.UUID, includeArchived bool, limit, offset int) ([]models.Thread, error) {
	var threads []models.Thread
	q := d.db.WithContext(ctx).
		Joins("JOIN thread_participants tp ON tp.thread_id = threads.id").
		Where("tp.user_id = ?", userID)
	if !includeArchived {
		q = q.Where("threads.is_archived = false")
	}
	err := q.Order("threads.last_activity_at DESC").
		Limit(limit).Offset(offset).
		Preload("Participants").
		Find(&threads).Error
	if err != nil {
		return nil, wrapErr(err, "threads of user %s", userID)
	}
	return threads, nil
}

func (d *Database) CountActiveThreadsBy(ctx context.Context, creatorID uuid.UUID) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&models.Thread{}).
		Where("created_by = ? AND is_archived = false", creatorID).
		Count(&count).Error
	if err != nil {
		return 0, wrapErr(err, "thread count for %s", creatorID)
	}
	return count, nil
}

func (d *Database) SetThreadArchived(ctx context.Context, threadID uuid.UUID, archived bool) error {
	err := d.db.WithContext(ctx).Model(&models.Thread{}).
		Where("id = ?", threadID).
		Update("is_archived", archived).Error
	return wrapErr(err, "thread %s", threadID)
}

func (d *Database) AddParticipant(ctx context.Context, threadID, userID uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var thread models.Thread
		if err := tx.First(&thread, "id = ?", threadID).Error; err != nil {
			return wrapErr(err, "thread %s", threadID)
		}
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return wrapErr(err, "user %s", userID)
		}
		if err := tx.Model(&thread).Association("Participants").Append(&user); err != nil {
			return wrapErr(err, "participant %s", userID)
		}
		return nil
	})
}

func (d *Database) RemoveParticipant(ctx context.Context, threadID, userID uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var thread models.Thread
		if err := tx.First(&thread, "id = ?", threadID).Error; err != nil {
			return wrapErr(err, "thread %s", threadID)
		}
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return wrapErr(err, "user %s", userID)
		}
		if err := tx.Model(&thread).Association("Participants").Delete(&user); err != nil {
			return wrapErr(err, "participant %s", userID)
		}
		return nil
	})
}
