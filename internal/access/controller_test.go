package access

import (
	"testing"

	"github.com/google/uuid"

	"github.com/venturelink/messaging/internal/apperr"
	"github.com/venturelink/messaging/internal/models"
	"github.com/venturelink/messaging/internal/realtime"
)

func groupThread(creator uuid.UUID, participants ...uuid.UUID) *models.Thread {
	t := &models.Thread{
		ID:        uuid.New(),
		Type:      models.ThreadGroup,
		CreatedBy: creator,
	}
	for _, id := range append([]uuid.UUID{creator}, participants...) {
		t.Participants = append(t.Participants, models.User{ID: id})
	}
	return t
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", kind)
	}
	if !apperr.Is(err, kind) {
		t.Fatalf("error kind = %v, want %v (%v)", apperr.KindOf(err), kind, err)
	}
}

func TestCanReadThread(t *testing.T) {
	member := Principal{ID: uuid.New(), Role: models.RoleClient}
	stranger := Principal{ID: uuid.New(), Role: models.RoleClient}
	admin := Principal{ID: uuid.New(), Role: models.RoleAdmin}

	thread := groupThread(uuid.New(), member.ID)

	if err := CanReadThread(member, thread); err != nil {
		t.Errorf("participant denied: %v", err)
	}
	if err := CanReadThread(admin, thread); err != nil {
		t.Errorf("admin denied: %v", err)
	}
	wantKind(t, CanReadThread(stranger, thread), apperr.KindPermission)
}

func TestCanPostToArchivedThread(t *testing.T) {
	member := Principal{ID: uuid.New(), Role: models.RoleEntrepreneur}
	thread := groupThread(uuid.New(), member.ID)
	thread.IsArchived = true

	wantKind(t, CanPostToThread(member, thread), apperr.KindBusiness)
}

func TestCanManageThread(t *testing.T) {
	creator := Principal{ID: uuid.New(), Role: models.RoleClient}
	ally := Principal{ID: uuid.New(), Role: models.RoleAlly}
	member := Principal{ID: uuid.New(), Role: models.RoleClient}

	thread := groupThread(creator.ID, ally.ID, member.ID)

	if err := CanManageThread(creator, thread); err != nil {
		t.Errorf("creator denied: %v", err)
	}
	if err := CanManageThread(ally, thread); err != nil {
		t.Errorf("privileged role denied: %v", err)
	}
	wantKind(t, CanManageThread(member, thread), apperr.KindPermission)
}

func TestCanManageDirectThread(t *testing.T) {
	creator := Principal{ID: uuid.New(), Role: models.RoleAdmin}
	thread := groupThread(creator.ID)
	thread.Type = models.ThreadDirect

	// Even an admin cannot change a direct thread's participant pair.
	wantKind(t, CanManageThread(creator, thread), apperr.KindBusiness)
}

func TestCanRemoveParticipantCreatorRule(t *testing.T) {
	creator := Principal{ID: uuid.New(), Role: models.RoleClient}
	ally := Principal{ID: uuid.New(), Role: models.RoleAlly}

	thread := groupThread(creator.ID, ally.ID)

	wantKind(t, CanRemoveParticipant(ally, thread, creator.ID), apperr.KindBusiness)

	if err := CanRemoveParticipant(creator, thread, creator.ID); err != nil {
		t.Errorf("creator removing themself denied: %v", err)
	}
	if err := CanRemoveParticipant(creator, thread, ally.ID); err != nil {
		t.Errorf("creator removing a member denied: %v", err)
	}
}

func TestCanEditAndDeleteMessageSenderOnly(t *testing.T) {
	sender := Principal{ID: uuid.New(), Role: models.RoleClient}
	other := Principal{ID: uuid.New(), Role: models.RoleAdmin}
	msg := &models.Message{ID: uuid.New(), SenderID: sender.ID}

	if err := CanEditMessage(sender, msg); err != nil {
		t.Errorf("sender denied edit: %v", err)
	}
	wantKind(t, CanEditMessage(other, msg), apperr.KindPermission)

	if err := CanDeleteMessage(sender, msg); err != nil {
		t.Errorf("sender denied delete: %v", err)
	}
	wantKind(t, CanDeleteMessage(other, msg), apperr.KindPermission)
}

func TestCanJoinRoom(t *testing.T) {
	p := Principal{ID: uuid.New(), Role: models.RoleEntrepreneur}
	thread := groupThread(uuid.New(), p.ID)

	if err := CanJoinRoom(p, realtime.PersonalRoom(p.ID), nil); err != nil {
		t.Errorf("own personal room denied: %v", err)
	}
	wantKind(t, CanJoinRoom(p, realtime.PersonalRoom(uuid.New()), nil), apperr.KindPermission)

	if err := CanJoinRoom(p, realtime.ThreadRoom(thread.ID), thread); err != nil {
		t.Errorf("own thread room denied: %v", err)
	}
	wantKind(t, CanJoinRoom(p, realtime.ThreadRoom(uuid.New()), thread), apperr.KindNotFound)

	if err := CanJoinRoom(p, realtime.RoleRoom(models.RoleEntrepreneur), nil); err != nil {
		t.Errorf("own role room denied: %v", err)
	}
	wantKind(t, CanJoinRoom(p, realtime.RoleRoom(models.RoleAdmin), nil), apperr.KindPermission)
}
