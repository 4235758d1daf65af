package messaging

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/venturelink/messaging/internal/apperr"
	"github.com/venturelink/messaging/internal/metrics"
	"github.com/venturelink/messaging/internal/models"
)

// memStore is the in-memory Store used across the service tests. It mirrors
// the database semantics that matter here: typed not-found/conflict errors,
// the optimistic edit check and the unique direct key.
type memStore struct {
	users     map[uuid.UUID]models.User
	threads   map[uuid.UUID]*models.Thread
	messages  map[uuid.UUID]*models.Message
	reactions map[string]bool
	stars     map[string]bool
	receipts  map[string]time.Time
	prefs     map[uuid.UUID]models.NotificationPreference
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[uuid.UUID]models.User),
		threads:   make(map[uuid.UUID]*models.Thread),
		messages:  make(map[uuid.UUID]*models.Message),
		reactions: make(map[string]bool),
		stars:     make(map[string]bool),
		receipts:  make(map[string]time.Time),
		prefs:     make(map[uuid.UUID]models.NotificationPreference),
	}
}

func (s *memStore) addUser(role models.Role) models.User {
	u := models.User{ID: uuid.New(), Username: "user-" + uuid.NewString()[:8], Role: role}
	s.users[u.ID] = u
	return u
}

func (s *memStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user %s", id)
	}
	return &u, nil
}

func (s *memStore) GetUsersByIDs(_ context.Context, ids []uuid.UUID) ([]models.User, error) {
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *memStore) CreateThread(_ context.Context, t *models.Thread, _ []uuid.UUID) error {
	if t.DirectKey != nil {
		for _, existing := range s.threads {
			if existing.DirectKey != nil && *existing.DirectKey == *t.DirectKey {
				return apperr.Conflict("direct thread already exists")
			}
		}
	}
	cp := *t
	s.threads[t.ID] = &cp
	return nil
}

func (s *memStore) GetThread(_ context.Context, id uuid.UUID) (*models.Thread, error) {
	t, ok := s.threads[id]
	if !ok {
		return nil, apperr.NotFound("thread %s", id)
	}
	cp := *t
	cp.Participants = append([]models.User(nil), t.Participants...)
	return &cp, nil
}

func (s *memStore) FindDirectThread(_ context.Context, directKey string) (*models.Thread, error) {
	for _, t := range s.threads {
		if t.DirectKey != nil && *t.DirectKey == directKey {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("direct thread %s", directKey)
}

func (s *memStore) ListThreads(_ context.Context, userID uuid.UUID, includeArchived bool, limit, offset int) ([]models.Thread, error) {
	var out []models.Thread
	for _, t := range s.threads {
		if !t.HasParticipant(userID) {
			continue
		}
		if t.IsArchived && !includeArchived {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivityAt.After(out[j].LastActivityAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) CountActiveThreadsBy(_ context.Context, creatorID uuid.UUID) (int64, error) {
	var n int64
	for _, t := range s.threads {
		if t.CreatedBy == creatorID && !t.IsArchived {
			n++
		}
	}
	return n, nil
}

func (s *memStore) SetThreadArchived(_ context.Context, threadID uuid.UUID, archived bool) error {
	t, ok := s.threads[threadID]
	if !ok {
		return apperr.NotFound("thread %s", threadID)
	}
	t.IsArchived = archived
	return nil
}

func (s *memStore) AddParticipant(_ context.Context, threadID, userID uuid.UUID) error {
	t, ok := s.threads[threadID]
	if !ok {
		return apperr.NotFound("thread %s", threadID)
	}
	u, ok := s.users[userID]
	if !ok {
		return apperr.NotFound("user %s", userID)
	}
	t.Participants = append(t.Participants, u)
	return nil
}

func (s *memStore) RemoveParticipant(_ context.Context, threadID, userID uuid.UUID) error {
	t, ok := s.threads[threadID]
	if !ok {
		return apperr.NotFound("thread %s", threadID)
	}
	kept := t.Participants[:0]
	for _, u := range t.Participants {
		if u.ID != userID {
			kept = append(kept, u)
		}
	}
	t.Participants = kept
	return nil
}

func (s *memStore) CreateMessage(_ context.Context, m *models.Message, recipientIDs []uuid.UUID) error {
	t, ok := s.threads[m.ThreadID]
	if !ok {
		return apperr.NotFound("thread %s", m.ThreadID)
	}
	cp := *m
	for _, id := range recipientIDs {
		if u, ok := s.users[id]; ok {
			cp.Recipients = append(cp.Recipients, u)
		}
	}
	s.messages[m.ID] = &cp
	t.LastActivityAt = m.CreatedAt
	id := m.ID
	t.LastMessageID = &id
	return nil
}

func (s *memStore) GetMessage(_ context.Context, id uuid.UUID) (*models.Message, error) {
	m, ok := s.messages[id]
	if !ok {
		return nil, apperr.NotFound("message %s", id)
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) UpdateMessageContent(_ context.Context, id uuid.UUID, content string, editedAt, prevUpdatedAt time.Time) error {
	m, ok := s.messages[id]
	if !ok || m.DeletedAt != nil {
		return apperr.NotFound("message %s", id)
	}
	if !m.UpdatedAt.Equal(prevUpdatedAt) {
		return apperr.Conflict("message %s was modified concurrently", id)
	}
	m.Content = content
	m.IsEdited = true
	m.EditedAt = &editedAt
	m.UpdatedAt = editedAt
	return nil
}

func (s *memStore) SoftDeleteMessage(_ context.Context, id, by uuid.UUID, reason *string, at time.Time) error {
	m, ok := s.messages[id]
	if !ok || m.DeletedAt != nil {
		return apperr.NotFound("message %s", id)
	}
	m.DeletedAt = &at
	m.DeletedBy = &by
	m.DeletionReason = reason
	return nil
}

func (s *memStore) ListMessages(_ context.Context, threadID uuid.UUID, limit int, beforeID *uuid.UUID) ([]models.Message, error) {
	var cutoff *time.Time
	if beforeID != nil {
		if b, ok := s.messages[*beforeID]; ok {
			cutoff = &b.CreatedAt
		}
	}
	var out []models.Message
	for _, m := range s.messages {
		if m.ThreadID != threadID || m.DeletedAt != nil {
			continue
		}
		if cutoff != nil && !m.CreatedAt.Before(*cutoff) {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *memStore) SearchMessages(_ context.Context, q SearchQuery) ([]models.Message, error) {
	var out []models.Message
	for _, m := range s.messages {
		if m.DeletedAt != nil {
			continue
		}
		if !q.Admin {
			t, ok := s.threads[m.ThreadID]
			if !ok || !t.HasParticipant(q.UserID) {
				continue
			}
		}
		if q.Text != "" && !strings.Contains(strings.ToLower(m.Content), strings.ToLower(q.Text)) {
			continue
		}
		if q.SenderID != nil && m.SenderID != *q.SenderID {
			continue
		}
		if q.ThreadID != nil && m.ThreadID != *q.ThreadID {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func receiptKey(messageID, userID uuid.UUID) string {
	return messageID.String() + ":" + userID.String()
}

func (s *memStore) UpsertReadReceipt(_ context.Context, messageID, userID uuid.UUID, at time.Time) error {
	s.receipts[receiptKey(messageID, userID)] = at
	return nil
}

func (s *memStore) DeleteReadReceipt(_ context.Context, messageID, userID uuid.UUID) error {
	delete(s.receipts, receiptKey(messageID, userID))
	return nil
}

func (s *memStore) ToggleStar(_ context.Context, messageID, userID uuid.UUID) (bool, error) {
	key := receiptKey(messageID, userID)
	if s.stars[key] {
		delete(s.stars, key)
		return false, nil
	}
	s.stars[key] = true
	return true, nil
}

func (s *memStore) ToggleReaction(_ context.Context, messageID, userID uuid.UUID, emoji string) (bool, error) {
	key := receiptKey(messageID, userID) + ":" + emoji
	if s.reactions[key] {
		delete(s.reactions, key)
		return false, nil
	}
	s.reactions[key] = true
	return true, nil
}

func (s *memStore) AddAttachment(_ context.Context, a *models.Attachment, promoteTo models.MessageType) error {
	m, ok := s.messages[a.MessageID]
	if !ok {
		return apperr.NotFound("message %s", a.MessageID)
	}
	m.Attachments = append(m.Attachments, *a)
	m.Type = promoteTo
	return nil
}

func (s *memStore) GetPreference(_ context.Context, userID uuid.UUID) (*models.NotificationPreference, error) {
	p, ok := s.prefs[userID]
	if !ok {
		return nil, apperr.NotFound("preference for %s", userID)
	}
	return &p, nil
}

func (s *memStore) SavePreference(_ context.Context, p *models.NotificationPreference) error {
	s.prefs[p.UserID] = *p
	return nil
}

// memCounter is a deterministic Counter; windows are ignored.
type memCounter struct {
	counts map[string]int64
}

func newMemCounter() *memCounter {
	return &memCounter{counts: make(map[string]int64)}
}

func (c *memCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.counts[key]++
	return c.counts[key], nil
}

func newTestService(store *memStore, limits Limits) *Service {
	return NewService(store, newMemCounter(), zap.NewNop(), metrics.New(), limits)
}
