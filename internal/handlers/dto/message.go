// Package dto defines the wire shapes. Every id is an opaque string and
// every timestamp is ISO-8601 UTC.
package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/venturelink/messaging/internal/models"
)

type SendMessageRequest struct {
	ThreadID     *string                `json:"thread_id"`
	RecipientIDs []string               `json:"recipient_ids"`
	Content      string                 `json:"content" binding:"required"`
	Type         string                 `json:"type"`
	Priority     string                 `json:"priority"`
	IsPrivate    bool                   `json:"is_private"`
	ReplyToID    *string                `json:"reply_to_id"`
	Metadata     map[string]interface{} `json:"metadata"`
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type DeleteMessageRequest struct {
	Reason string `json:"reason"`
}

type ReactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

type AttachmentRequest struct {
	OriginalFilename string  `json:"original_filename" binding:"required"`
	FileSize         int64   `json:"file_size" binding:"required"`
	MimeType         string  `json:"mime_type"`
	URL              string  `json:"url" binding:"required"`
	ThumbnailURL     *string `json:"thumbnail_url"`
}

type UserInfo struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

type AttachmentResponse struct {
	ID               string  `json:"id"`
	OriginalFilename string  `json:"original_filename"`
	FileSize         int64   `json:"file_size"`
	FileType         string  `json:"file_type"`
	MimeType         string  `json:"mime_type,omitempty"`
	URL              string  `json:"url"`
	ThumbnailURL     *string `json:"thumbnail_url,omitempty"`
}

type ReactionResponse struct {
	UserID string `json:"user_id"`
	Emoji  string `json:"emoji"`
}

type MessageResponse struct {
	ID        string  `json:"id"`
	ThreadID  string  `json:"thread_id"`
	SenderID  string  `json:"sender_id"`
	Content   string  `json:"content"`
	Type      string  `json:"type"`
	Priority  string  `json:"priority"`
	IsPrivate bool    `json:"is_private"`
	IsEdited  bool    `json:"is_edited"`
	EditedAt  *string `json:"edited_at,omitempty"`
	ReplyToID *string `json:"reply_to_id,omitempty"`
	CreatedAt string  `json:"created_at"`

	Sender      *UserInfo            `json:"sender,omitempty"`
	Attachments []AttachmentResponse `json:"attachments,omitempty"`
	Reactions   []ReactionResponse   `json:"reactions,omitempty"`
	ReadBy      []string             `json:"read_by,omitempty"`
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func tsPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := ts(*t)
	return &s
}

func FormatUser(u *models.User) *UserInfo {
	return &UserInfo{
		ID:          u.ID.String(),
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		AvatarURL:   u.AvatarURL,
	}
}

func FormatAttachment(a *models.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:               a.ID.String(),
		OriginalFilename: a.OriginalFilename,
		FileSize:         a.FileSize,
		FileType:         string(a.FileType),
		MimeType:         a.MimeType,
		URL:              a.URL,
		ThumbnailURL:     a.ThumbnailURL,
	}
}

func FormatMessage(m *models.Message) MessageResponse {
	resp := MessageResponse{
		ID:        m.ID.String(),
		ThreadID:  m.ThreadID.String(),
		SenderID:  m.SenderID.String(),
		Content:   m.Content,
		Type:      string(m.Type),
		Priority:  string(m.Priority),
		IsPrivate: m.IsPrivate,
		IsEdited:  m.IsEdited,
		EditedAt:  tsPtr(m.EditedAt),
		CreatedAt: ts(m.CreatedAt),
	}
	if m.ReplyToID != nil {
		s := m.ReplyToID.String()
		resp.ReplyToID = &s
	}
	if m.Sender.ID != uuid.Nil {
		resp.Sender = FormatUser(&m.Sender)
	}
	for i := range m.Attachments {
		resp.Attachments = append(resp.Attachments, FormatAttachment(&m.Attachments[i]))
	}
	for _, r := range m.Reactions {
		resp.Reactions = append(resp.Reactions, ReactionResponse{
			UserID: r.UserID.String(),
			Emoji:  r.Emoji,
		})
	}
	for _, rr := range m.ReadReceipts {
		resp.ReadBy = append(resp.ReadBy, rr.UserID.String())
	}
	return resp
}

func FormatMessages(msgs []models.Message) []MessageResponse {
	out := make([]MessageResponse, len(msgs))
	for i := range msgs {
		out[i] = FormatMessage(&msgs[i])
	}
	return out
}
