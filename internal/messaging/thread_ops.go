package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/venturelink/messaging/internal/access"
	"github.com/venturelink/messaging/internal/apperr"
	"github.com/venturelink/messaging/internal/models"
)

type CreateThreadInput struct {
	Title                string
	Description          *string
	Type                 models.ThreadType
	IsPrivate            bool
	ParticipantIDs       []uuid.UUID
	ProjectID            *uuid.UUID
	MeetingID            *uuid.UUID
	AutoArchiveAfterDays *int
}

// CreateThread creates a conversation container. Direct threads are
// get-or-create keyed on the unordered participant pair; calling twice for
// the same pair returns the same thread.
func (s *Service) CreateThread(ctx context.Context, p access.Principal, in CreateThreadInput) (*models.Thread, error) {
	if !models.ValidThreadType(in.Type) {
		return nil, apperr.Validation("unknown thread type %q", in.Type)
	}

	ids := dedupeIDs(append([]uuid.UUID{p.ID}, in.ParticipantIDs...))
	if len(ids) < 1 {
		return nil, apperr.Validation("a thread needs at least one participant")
	}
	if len(ids) > models.MaxThreadParticipants {
		return nil, apperr.Conflict("participant count exceeds the cap of %d", models.MaxThreadParticipants)
	}

	if in.Type == models.ThreadDirect {
		if len(ids) != 2 {
			return nil, apperr.Validation("a direct thread has exactly two participants")
		}
		other := ids[0]
		if other == p.ID {
			other = ids[1]
		}
		return s.getOrCreateDirectThread(ctx, p, other)
	}

	// Recipients must exist before we link them.
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(users) != len(ids) {
		return nil, apperr.NotFound("one or more participants do not exist")
	}

	active, err := s.store.CountActiveThreadsBy(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if active >= s.limits.MaxActiveThreads {
		return nil, apperr.Conflict("active thread quota of %d reached", s.limits.MaxActiveThreads)
	}

	now := s.now()
	thread := &models.Thread{
		ID:                   uuid.New(),
		Title:                in.Title,
		Description:          in.Description,
		Type:                 in.Type,
		IsPrivate:            in.IsPrivate,
		CreatedBy:            p.ID,
		ProjectID:            in.ProjectID,
		MeetingID:            in.MeetingID,
		AutoArchiveAfterDays: in.AutoArchiveAfterDays,
		LastActivityAt:       now,
		CreatedAt:            now,
		UpdatedAt:            now,
		Participants:         users,
	}
	if err := s.store.CreateThread(ctx, thread, ids); err != nil {
		return nil, err
	}

	s.log.Info("thread created",
		zap.String("thread_id", thread.ID.String()),
		zap.String("type", string(thread.Type)),
		zap.Int("participants", len(ids)))
	return thread, nil
}

func (s *Service) getOrCreateDirectThread(ctx context.Context, p access.Principal, other uuid.UUID) (*models.Thread, error) {
	key := models.DirectKeyFor(p.ID, other)

	existing, err := s.store.FindDirectThread(ctx, key)
	if err == nil {
		return existing, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	users, err := s.store.GetUsersByIDs(ctx, []uuid.UUID{p.ID, other})
	if err != nil {
		return nil, err
	}
	if len(users) != 2 {
		return nil, apperr.NotFound("user %s", other)
	}

	now := s.now()
	thread := &models.Thread{
		ID:             uuid.New(),
		Title:          "",
		Type:           models.ThreadDirect,
		IsPrivate:      true,
		DirectKey:      &key,
		CreatedBy:      p.ID,
		LastActivityAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
		Participants:   users,
	}
	if err := s.store.CreateThread(ctx, thread, []uuid.UUID{p.ID, other}); err != nil {
		// Two concurrent first messages can race on the unique direct key;
		// the loser picks up the winner's row.
		if apperr.Is(err, apperr.KindConflict) {
			return s.store.FindDirectThread(ctx, key)
		}
		return nil, err
	}
	return thread, nil
}

func (s *Service) GetThread(ctx context.Context, p access.Principal, threadID uuid.UUID) (*models.Thread, error) {
	thread, err := s.store.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if err := access.CanReadThread(p, thread); err != nil {
		return nil, err
	}
	return thread, nil
}

func (s *Service) ListThreads(ctx context.Context, p access.Principal, includeArchived bool, limit, offset int) ([]models.Thread, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.ListThreads(ctx, p.ID, includeArchived, limit, offset)
}

// AddParticipant links a user into a group-class thread and records the
// membership change as a system message, which the caller broadcasts.
func (s *Service) AddParticipant(ctx context.Context, p access.Principal, threadID, targetID uuid.UUID) (*models.Thread, *models.Message, error) {
	thread, err := s.store.GetThread(ctx, threadID)
	if err != nil {
		return nil, nil, err
	}
	if err := access.CanManageThread(p, thread); err != nil {
		return nil, nil, err
	}
	if thread.HasParticipant(targetID) {
		return nil, nil, apperr.Conflict("user %s is already a participant", targetID)
	}
	if len(thread.Participants) >= models.MaxThreadParticipants {
		return nil, nil, apperr.Conflict("participant count exceeds the cap of %d", models.MaxThreadParticipants)
	}

	target, err := s.store.GetUser(ctx, targetID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.store.AddParticipant(ctx, threadID, targetID); err != nil {
		return nil, nil, err
	}

	sys, err := s.recordSystemMessage(ctx, p, thread,
		fmt.Sprintf("%s joined the conversation", target.Username))
	if err != nil {
		return nil, nil, err
	}

	thread.Participants = append(thread.Participants, *target)
	return thread, sys, nil
}

// RemoveParticipant unlinks a user. The creator can only be removed by
// themself; direct threads never change membership.
func (s *Service) RemoveParticipant(ctx context.Context, p access.Principal, threadID, targetID uuid.UUID) (*models.Thread, *models.Message, error) {
	thread, err := s.store.GetThread(ctx, threadID)
	if err != nil {
		return nil, nil, err
	}
	// Self-removal needs no management rights.
	if p.ID == targetID && p.ID != thread.CreatedBy {
		if thread.Type == models.ThreadDirect {
			return nil, nil, apperr.Business("direct threads have a fixed participant pair")
		}
	} else if err := access.CanRemoveParticipant(p, thread, targetID); err != nil {
		return nil, nil, err
	}
	if !thread.HasParticipant(targetID) {
		return nil, nil, apperr.NotFound("user %s is not a participant", targetID)
	}

	target, err := s.store.GetUser(ctx, targetID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.store.RemoveParticipant(ctx, threadID, targetID); err != nil {
		return nil, nil, err
	}

	sys, err := s.recordSystemMessage(ctx, p, thread,
		fmt.Sprintf("%s left the conversation", target.Username))
	if err != nil {
		return nil, nil, err
	}

	kept := thread.Participants[:0]
	for _, u := range thread.Participants {
		if u.ID != targetID {
			kept = append(kept, u)
		}
	}
	thread.Participants = kept
	return thread, sys, nil
}

// SetThreadArchived flips manual archival. Unarchiving reopens posting.
func (s *Service) SetThreadArchived(ctx context.Context, p access.Principal, threadID uuid.UUID, archived bool) (*models.Thread, error) {
	thread, err := s.store.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if err := access.CanManageThread(p, thread); err != nil {
		return nil, err
	}
	if err := s.store.SetThreadArchived(ctx, threadID, archived); err != nil {
		return nil, err
	}
	thread.IsArchived = archived
	return thread, nil
}

func (s *Service) GetPreference(ctx context.Context, p access.Principal) (*models.NotificationPreference, error) {
	pref, err := s.store.GetPreference(ctx, p.ID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			def := models.DefaultPreference(p.ID)
			return &def, nil
		}
		return nil, err
	}
	return pref, nil
}

func (s *Service) SavePreference(ctx context.Context, p access.Principal, pref models.NotificationPreference) error {
	pref.UserID = p.ID
	if pref.InactiveThreshold <= 0 {
		pref.InactiveThreshold = 30 * time.Minute
	}
	pref.UpdatedAt = s.now()
	return s.store.SavePreference(ctx, &pref)
}

func (s *Service) recordSystemMessage(ctx context.Context, p access.Principal, thread *models.Thread, text string) (*models.Message, error) {
	now := s.now()
	msg := &models.Message{
		ID:        uuid.New(),
		ThreadID:  thread.ID,
		SenderID:  p.ID,
		Content:   text,
		Type:      models.MessageSystem,
		Priority:  models.PriorityNormal,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateMessage(ctx, msg, nil); err != nil {
		return nil, err
	}
	return msg, nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
