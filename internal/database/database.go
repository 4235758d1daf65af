// Package database is the gorm/postgres implementation of the messaging
// store interfaces. It is the single source of truth for persisted entities;
// conflicting concurrent writes are settled here, not in memory.
package database

import (
	"errors"
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/venturelink/messaging/internal/apperr"
	"github.com/venturelink/messaging/internal/models"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func Connect() (*Database, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Thread{},
		&models.Message{},
		&models.Attachment{},
		&models.Reaction{},
		&models.ReadReceipt{},
		&models.StarMark{},
		&models.NotificationPreference{},
		&models.Notification{},
	); err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

// wrapErr maps gorm errors onto the apperr taxonomy.
func wrapErr(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	what := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound("%s", what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Conflict("%s already exists", what)
	default:
		return apperr.Storage(err, what)
	}
}
