package dto

import (
	"github.com/venturelink/messaging/internal/models"
)

type CreateThreadRequest struct {
	Title                string   `json:"title"`
	Description          *string  `json:"description"`
	Type                 string   `json:"type" binding:"required,oneof=direct group project meeting support"`
	IsPrivate            bool     `json:"is_private"`
	ParticipantIDs       []string `json:"participant_ids" binding:"required,min=1"`
	ProjectID            *string  `json:"project_id"`
	MeetingID            *string  `json:"meeting_id"`
	AutoArchiveAfterDays *int     `json:"auto_archive_after_days"`
}

type ParticipantRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

type ThreadResponse struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	Description          *string    `json:"description,omitempty"`
	Type                 string     `json:"type"`
	IsPrivate            bool       `json:"is_private"`
	IsArchived           bool       `json:"is_archived"`
	CreatedBy            string     `json:"created_by"`
	ProjectID            *string    `json:"project_id,omitempty"`
	MeetingID            *string    `json:"meeting_id,omitempty"`
	AutoArchiveAfterDays *int       `json:"auto_archive_after_days,omitempty"`
	LastActivityAt       string     `json:"last_activity_at"`
	LastMessageID        *string    `json:"last_message_id,omitempty"`
	CreatedAt            string     `json:"created_at"`
	Participants         []UserInfo `json:"participants,omitempty"`
}

type PreferenceRequest struct {
	PushEnabled              bool `json:"push_enabled"`
	EmailEnabled             bool `json:"email_enabled"`
	SMSEnabled               bool `json:"sms_enabled"`
	InactiveThresholdMinutes int  `json:"inactive_threshold_minutes"`
}

type PreferenceResponse struct {
	PushEnabled              bool `json:"push_enabled"`
	EmailEnabled             bool `json:"email_enabled"`
	SMSEnabled               bool `json:"sms_enabled"`
	InactiveThresholdMinutes int  `json:"inactive_threshold_minutes"`
}

func FormatThread(t *models.Thread) ThreadResponse {
	resp := ThreadResponse{
		ID:                   t.ID.String(),
		Title:                t.DisplayTitle(),
		Description:          t.Description,
		Type:                 string(t.Type),
		IsPrivate:            t.IsPrivate,
		IsArchived:           t.IsArchived,
		CreatedBy:            t.CreatedBy.String(),
		AutoArchiveAfterDays: t.AutoArchiveAfterDays,
		LastActivityAt:       ts(t.LastActivityAt),
		CreatedAt:            ts(t.CreatedAt),
	}
	if t.ProjectID != nil {
		s := t.ProjectID.String()
		resp.ProjectID = &s
	}
	if t.MeetingID != nil {
		s := t.MeetingID.String()
		resp.MeetingID = &s
	}
	if t.LastMessageID != nil {
		s := t.LastMessageID.String()
		resp.LastMessageID = &s
	}
	for i := range t.Participants {
		resp.Participants = append(resp.Participants, *FormatUser(&t.Participants[i]))
	}
	return resp
}

func FormatThreads(threads []models.Thread) []ThreadResponse {
	out := make([]ThreadResponse, len(threads))
	for i := range threads {
		out[i] = FormatThread(&threads[i])
	}
	return out
}
