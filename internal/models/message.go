package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type MessageType string

const (
	MessageText         MessageType = "text"
	MessageFile         MessageType = "file"
	MessageImage        MessageType = "image"
	MessageAudio        MessageType = "audio"
	MessageVideo        MessageType = "video"
	MessageSystem       MessageType = "system"
	MessageNotification MessageType = "notification"
)

func ValidMessageType(t MessageType) bool {
	switch t {
	case MessageText, MessageFile, MessageImage, MessageAudio, MessageVideo,
		MessageSystem, MessageNotification:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

const (
	MaxContentLength      = 10000
	MaxExplicitRecipients = 50
	EditWindow            = 15 * time.Minute
	DeleteWindow          = time.Hour
)

type Message struct {
	ID       uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ThreadID uuid.UUID   `gorm:"type:uuid;not null;index:idx_messages_thread_created,priority:1"`
	SenderID uuid.UUID   `gorm:"type:uuid;not null;index"`
	Content  string      `gorm:"type:text;not null"`
	Type     MessageType `gorm:"not null;default:'text'"`
	Priority Priority    `gorm:"not null;default:'normal'"`

	IsPrivate  bool `gorm:"default:false"`
	IsArchived bool `gorm:"default:false"`

	ReplyToID *uuid.UUID `gorm:"type:uuid;index"`

	IsEdited bool `gorm:"default:false"`
	EditedAt *time.Time

	DeletedAt      *time.Time `gorm:"index"`
	DeletedBy      *uuid.UUID `gorm:"type:uuid"`
	DeletionReason *string

	ScheduledSendAt *time.Time
	AutoDeleteAt    *time.Time

	Metadata datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"index:idx_messages_thread_created,priority:2"`
	UpdatedAt time.Time

	Sender       User          `gorm:"foreignKey:SenderID"`
	Thread       Thread        `gorm:"foreignKey:ThreadID"`
	ReplyTo      *Message      `gorm:"foreignKey:ReplyToID"`
	Recipients   []User        `gorm:"many2many:message_recipients"`
	Attachments  []Attachment  `gorm:"foreignKey:MessageID"`
	Reactions    []Reaction    `gorm:"foreignKey:MessageID"`
	ReadReceipts []ReadReceipt `gorm:"foreignKey:MessageID"`
}

func (m *Message) Deleted() bool { return m.DeletedAt != nil }

// EditableAt reports whether the sender may still edit at the given time.
func (m *Message) EditableAt(now time.Time) bool {
	return now.Sub(m.CreatedAt) <= EditWindow
}

// DeletableAt reports whether the sender may still soft-delete at the given time.
func (m *Message) DeletableAt(now time.Time) bool {
	return now.Sub(m.CreatedAt) <= DeleteWindow
}

// PromotedType returns the message type a text message should take when an
// attachment of the given category is added. Non-text messages keep their type.
func (m *Message) PromotedType(category FileType) MessageType {
	if m.Type != MessageText {
		return m.Type
	}
	switch category {
	case FileImage:
		return MessageImage
	case FileAudio:
		return MessageAudio
	case FileVideo:
		return MessageVideo
	default:
		return MessageFile
	}
}
