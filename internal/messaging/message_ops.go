package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/venturelink/messaging/internal/access"
	"github.com/venturelink/messaging/internal/apperr"
	"github.com/venturelink/messaging/internal/models"
)

// CreateMessageInput carries everything a send may specify. A send targets
// an existing thread via ThreadID or derives one from RecipientIDs (direct
// get-or-create for one recipient, a new group thread otherwise). When both
// are set the thread wins and the recipients narrow the fallback
// notification audience. RecipientIDs is capped at MaxExplicitRecipients in
// either role.
type CreateMessageInput struct {
	ThreadID     *uuid.UUID
	RecipientIDs []uuid.UUID
	Content      string
	Type         models.MessageType
	Priority     models.Priority
	IsPrivate    bool
	ReplyToID    *uuid.UUID
	Metadata     map[string]interface{}
	ScheduledAt  *time.Time
	AutoDeleteAt *time.Time
}

func (s *Service) CreateMessage(ctx context.Context, p access.Principal, in CreateMessageInput) (*models.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, apperr.Validation("message content is required")
	}
	if len(content) > models.MaxContentLength {
		return nil, apperr.Validation("message content exceeds %d characters", models.MaxContentLength)
	}

	msgType := in.Type
	if msgType == "" {
		msgType = models.MessageText
	}
	if !models.ValidMessageType(msgType) {
		return nil, apperr.Validation("unknown message type %q", msgType)
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	if !models.ValidPriority(priority) {
		return nil, apperr.Validation("unknown priority %q", priority)
	}
	if len(in.RecipientIDs) > models.MaxExplicitRecipients {
		return nil, apperr.Validation("at most %d explicit recipients allowed", models.MaxExplicitRecipients)
	}

	thread, err := s.resolveTargetThread(ctx, p, in)
	if err != nil {
		return nil, err
	}
	if err := access.CanPostToThread(p, thread); err != nil {
		return nil, err
	}

	if in.ReplyToID != nil {
		parent, err := s.store.GetMessage(ctx, *in.ReplyToID)
		if err != nil {
			return nil, err
		}
		if parent.ThreadID != thread.ID {
			return nil, apperr.Validation("reply target belongs to a different thread")
		}
	}

	// Quota is charged only once the send is authorized; a rejected attempt
	// never consumes a slot.
	if err := s.checkSendQuota(ctx, p); err != nil {
		return nil, err
	}

	now := s.now()
	msg := &models.Message{
		ID:              uuid.New(),
		ThreadID:        thread.ID,
		SenderID:        p.ID,
		Content:         content,
		Type:            msgType,
		Priority:        priority,
		IsPrivate:       in.IsPrivate,
		ReplyToID:       in.ReplyToID,
		ScheduledSendAt: in.ScheduledAt,
		AutoDeleteAt:    in.AutoDeleteAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.Metadata != nil {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, apperr.Validation("metadata is not serializable")
		}
		msg.Metadata = raw
	}

	if err := s.store.CreateMessage(ctx, msg, in.RecipientIDs); err != nil {
		return nil, err
	}
	s.metrics.MessagesCreated.Inc()

	s.log.Info("message created",
		zap.String("message_id", msg.ID.String()),
		zap.String("thread_id", thread.ID.String()),
		zap.String("sender_id", p.ID.String()))

	msg.Thread = *thread
	return msg, nil
}

func (s *Service) checkSendQuota(ctx context.Context, p access.Principal) error {
	quota := s.limits.SendPerHour
	if p.Role.Privileged() {
		quota = s.limits.PrivilegedSendPerHour
	}
	count, err := s.counter.Incr(ctx, "send:"+p.ID.String(), time.Hour)
	if err != nil {
		return apperr.Storage(err, "rate limit counter unavailable")
	}
	if count > quota {
		return apperr.RateLimit("send quota of %d messages per hour exceeded", quota)
	}
	return nil
}

func (s *Service) resolveTargetThread(ctx context.Context, p access.Principal, in CreateMessageInput) (*models.Thread, error) {
	switch {
	case in.ThreadID != nil:
		return s.store.GetThread(ctx, *in.ThreadID)

	case len(in.RecipientIDs) > 0:
		if len(in.RecipientIDs) == 1 {
			if in.RecipientIDs[0] == p.ID {
				return nil, apperr.Validation("cannot send a direct message to yourself")
			}
			return s.getOrCreateDirectThread(ctx, p, in.RecipientIDs[0])
		}
		return s.CreateThread(ctx, p, CreateThreadInput{
			Title:          "Group conversation",
			Type:           models.ThreadGroup,
			ParticipantIDs: in.RecipientIDs,
		})

	default:
		return nil, apperr.Validation("either thread_id or recipient_ids must be supplied")
	}
}

// EditMessage rewrites the content, sender-only and only within the edit
// window. Concurrent edits are serialized by an optimistic updated_at check.
func (s *Service) EditMessage(ctx context.Context, p access.Principal, messageID uuid.UUID, newContent string) (*models.Message, error) {
	content := strings.TrimSpace(newContent)
	if content == "" {
		return nil, apperr.Validation("message content is required")
	}
	if len(content) > models.MaxContentLength {
		return nil, apperr.Validation("message content exceeds %d characters", models.MaxContentLength)
	}

	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.Deleted() {
		return nil, apperr.NotFound("message %s", messageID)
	}
	if err := access.CanEditMessage(p, msg); err != nil {
		return nil, err
	}

	now := s.now()
	if !msg.EditableAt(now) {
		return nil, apperr.Business("edit window of %s has expired", models.EditWindow)
	}

	if err := s.store.UpdateMessageContent(ctx, messageID, content, now, msg.UpdatedAt); err != nil {
		return nil, err
	}

	msg.Content = content
	msg.IsEdited = true
	msg.EditedAt = &now
	msg.UpdatedAt = now
	return msg, nil
}

// SoftDeleteMessage marks the message deleted, sender-only within the delete
// window. The row stays queryable for audit; listings exclude it.
func (s *Service) SoftDeleteMessage(ctx context.Context, p access.Principal, messageID uuid.UUID, reason string) error {
	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.Deleted() {
		return apperr.NotFound("message %s", messageID)
	}
	if err := access.CanDeleteMessage(p, msg); err != nil {
		return err
	}

	now := s.now()
	if !msg.DeletableAt(now) {
		return apperr.Business("delete window of %s has expired", models.DeleteWindow)
	}

	var r *string
	if reason != "" {
		r = &reason
	}
	return s.store.SoftDeleteMessage(ctx, messageID, p.ID, r, now)
}

// GetMessage loads one visible message after a read-access check.
func (s *Service) GetMessage(ctx context.Context, p access.Principal, messageID uuid.UUID) (*models.Message, error) {
	return s.loadVisibleMessage(ctx, p, messageID)
}

// MarkRead records the per-viewer read receipt. Idempotent.
func (s *Service) MarkRead(ctx context.Context, p access.Principal, messageID uuid.UUID) (*models.Message, error) {
	msg, err := s.loadVisibleMessage(ctx, p, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpsertReadReceipt(ctx, messageID, p.ID, s.now()); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Service) MarkUnread(ctx context.Context, p access.Principal, messageID uuid.UUID) error {
	if _, err := s.loadVisibleMessage(ctx, p, messageID); err != nil {
		return err
	}
	return s.store.DeleteReadReceipt(ctx, messageID, p.ID)
}

// ToggleStar flips the per-viewer star and returns the resulting state.
func (s *Service) ToggleStar(ctx context.Context, p access.Principal, messageID uuid.UUID) (bool, error) {
	if _, err := s.loadVisibleMessage(ctx, p, messageID); err != nil {
		return false, err
	}
	return s.store.ToggleStar(ctx, messageID, p.ID)
}

// ToggleReaction flips the (user, message, emoji) triple and returns the
// resulting state. The emoji must be in the allow-list.
func (s *Service) ToggleReaction(ctx context.Context, p access.Principal, messageID uuid.UUID, emoji string) (*models.Message, bool, error) {
	if !models.AllowedEmojis[emoji] {
		return nil, false, apperr.Validation("emoji %q is not in the allowed set", emoji)
	}
	msg, err := s.loadVisibleMessage(ctx, p, messageID)
	if err != nil {
		return nil, false, err
	}
	present, err := s.store.ToggleReaction(ctx, messageID, p.ID, emoji)
	if err != nil {
		return nil, false, err
	}
	return msg, present, nil
}

// AttachmentInput is the metadata handed over by the blob-storage
// collaborator after it accepted the bytes.
type AttachmentInput struct {
	OriginalFilename string
	FileSize         int64
	MimeType         string
	URL              string
	ThumbnailURL     *string
}

// AddAttachment records attachment metadata and promotes a text message to
// the matching media type on its first attachment.
func (s *Service) AddAttachment(ctx context.Context, p access.Principal, messageID uuid.UUID, in AttachmentInput) (*models.Attachment, error) {
	if in.FileSize <= 0 {
		return nil, apperr.Validation("attachment size must be positive")
	}
	if in.FileSize > models.MaxAttachmentSize {
		return nil, apperr.Validation("attachment exceeds the %d byte limit", models.MaxAttachmentSize)
	}
	category, ok := models.CategoryForFilename(in.OriginalFilename)
	if !ok {
		return nil, apperr.Validation("file extension of %q is not allowed", in.OriginalFilename)
	}

	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.Deleted() {
		return nil, apperr.NotFound("message %s", messageID)
	}
	if msg.SenderID != p.ID {
		return nil, apperr.Permission("only the sender may attach files")
	}

	att := &models.Attachment{
		ID:               uuid.New(),
		MessageID:        messageID,
		Filename:         fmt.Sprintf("%s-%s", messageID, uuid.New()),
		OriginalFilename: in.OriginalFilename,
		FileSize:         in.FileSize,
		FileType:         category,
		MimeType:         in.MimeType,
		URL:              in.URL,
		ThumbnailURL:     in.ThumbnailURL,
		UploadedAt:       s.now(),
	}

	if err := s.store.AddAttachment(ctx, att, msg.PromotedType(category)); err != nil {
		return nil, err
	}
	return att, nil
}

// ListMessages pages a thread's visible messages, oldest first.
func (s *Service) ListMessages(ctx context.Context, p access.Principal, threadID uuid.UUID, limit int, beforeID *uuid.UUID) ([]models.Message, error) {
	thread, err := s.store.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if err := access.CanReadThread(p, thread); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.ListMessages(ctx, threadID, limit, beforeID)
}

// SearchMessages runs a principal-scoped filtered search, newest first.
func (s *Service) SearchMessages(ctx context.Context, p access.Principal, q SearchQuery) ([]models.Message, error) {
	q.UserID = p.ID
	q.Admin = p.Admin()
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 50
	}
	return s.store.SearchMessages(ctx, q)
}

func (s *Service) loadVisibleMessage(ctx context.Context, p access.Principal, messageID uuid.UUID) (*models.Message, error) {
	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.Deleted() {
		return nil, apperr.NotFound("message %s", messageID)
	}
	thread, err := s.store.GetThread(ctx, msg.ThreadID)
	if err != nil {
		return nil, err
	}
	if err := access.CanReadThread(p, thread); err != nil {
		return nil, err
	}
	return msg, nil
}
