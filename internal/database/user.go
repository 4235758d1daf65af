package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/venturelink/messaging/internal/models"
)

func (d *Database) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := d.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, wrapErr(err, "user %s", id)
	}
	return &user, nil
}

func (d *Database) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := d.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, wrapErr(err, "user %s", email)
	}
	return &user, nil
}

func (d *Database) CreateUser(ctx context.Context, user *models.User) error {
	return wrapErr(d.db.WithContext(ctx).Create(user).Error, "user %s", user.Username)
}

func (d *Database) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	var users []models.User
	if err := d.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, wrapErr(err, "users")
	}
	return users, nil
}

func (d *Database) TouchLastSeen(ctx context.Context, id uuid.UUID) error {
	err := d.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_seen_at", d.db.NowFunc()).Error
	return wrapErr(err, "user %s", id)
}

func (d *Database) GetPreference(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error) {
	var pref models.NotificationPreference
	if err := d.db.WithContext(ctx).First(&pref, "user_id = ?", userID).Error; err != nil {
		return nil, wrapErr(err, "preference for user %s", userID)
	}
	return &pref, nil
}

func (d *Database) SavePreference(ctx context.Context, p *models.NotificationPreference) error {
	return wrapErr(d.db.WithContext(ctx).Save(p).Error, "preference for user %s", p.UserID)
}

func (d *Database) RecordNotification(ctx context.Context, n *models.Notification) error {
	return wrapErr(d.db.WithContext(ctx).Create(n).Error, "notification for message %s", n.MessageID)
}
