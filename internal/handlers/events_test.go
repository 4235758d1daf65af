package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/venturelink/messaging/internal/apperr"
	"github.com/venturelink/messaging/internal/metrics"
	"github.com/venturelink/messaging/internal/models"
	"github.com/venturelink/messaging/internal/notify"
	"github.com/venturelink/messaging/internal/realtime"
)

// eventsStore is the slice of persistence the dispatcher touches, in memory.
// RecordNotification runs on the detached dispatch goroutine, hence the lock.
type eventsStore struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*models.User
	records []models.Notification
}

func newEventsStore() *eventsStore {
	return &eventsStore{users: make(map[uuid.UUID]*models.User)}
}

func (s *eventsStore) addUser(role models.Role, lastSeen time.Time) models.User {
	u := models.User{
		ID:         uuid.New(),
		Username:   fmt.Sprintf("user-%d", len(s.users)+1),
		Role:       role,
		LastSeenAt: lastSeen,
	}
	s.users[u.ID] = &u
	return u
}

func (s *eventsStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user %s", id)
	}
	return u, nil
}

func (s *eventsStore) GetPreference(_ context.Context, userID uuid.UUID) (*models.NotificationPreference, error) {
	return nil, apperr.NotFound("preference for %s", userID)
}

func (s *eventsStore) RecordNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *n)
	return nil
}

func (s *eventsStore) recorded() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.records))
	copy(out, s.records)
	return out
}

type memDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (d *memDeduper) First(_ context.Context, key string, _ time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen == nil {
		d.seen = make(map[string]bool)
	}
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

type delivery struct {
	recipient uuid.UUID
	msg       *models.Message
}

// channelSender hands deliveries to the test over a channel so the detached
// dispatch goroutine can be awaited without sleeping.
type channelSender struct {
	ch chan delivery
}

func newChannelSender() *channelSender {
	return &channelSender{ch: make(chan delivery, 8)}
}

func (s *channelSender) Send(_ context.Context, recipient *models.User, msg *models.Message) error {
	s.ch <- delivery{recipient: recipient.ID, msg: msg}
	return nil
}

func (s *channelSender) waitOne(t *testing.T) delivery {
	t.Helper()
	select {
	case d := <-s.ch:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("no fallback delivery arrived")
		return delivery{}
	}
}

func (s *channelSender) expectNone(t *testing.T) {
	t.Helper()
	select {
	case d := <-s.ch:
		t.Fatalf("unexpected delivery to %s", d.recipient)
	case <-time.After(50 * time.Millisecond):
	}
}

type eventsFixture struct {
	hub    *realtime.Hub
	store  *eventsStore
	push   *channelSender
	email  *channelSender
	sms    *channelSender
	events *Events
}

func newEventsFixture() *eventsFixture {
	hub := realtime.NewHub(zap.NewNop(), metrics.New())
	store := newEventsStore()
	push := newChannelSender()
	email := newChannelSender()
	sms := newChannelSender()
	d := notify.NewDispatcher(store, hub, &memDeduper{}, push, email, sms, zap.NewNop(), metrics.New())
	return &eventsFixture{
		hub:    hub,
		store:  store,
		push:   push,
		email:  email,
		sms:    sms,
		events: NewEvents(hub, d, zap.NewNop()),
	}
}

func liveClient(h *realtime.Hub, userID uuid.UUID) *realtime.Client {
	return &realtime.Client{
		ID:     uuid.New(),
		UserID: userID,
		Role:   models.RoleClient,
		Send:   make(chan []byte, 64),
		Hub:    h,
	}
}

func nextFrame(t *testing.T, c *realtime.Client) *realtime.Frame {
	t.Helper()
	select {
	case data := <-c.Send:
		var f realtime.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		return &f
	default:
		t.Fatal("no frame queued")
		return nil
	}
}

func drainClient(c *realtime.Client) {
	for {
		select {
		case <-c.Send:
		default:
			return
		}
	}
}

// A recipient live in the thread room gets the broadcast and nothing else;
// an offline participant gets exactly one push carrying the message.
func TestMessageCreatedFanOut(t *testing.T) {
	fx := newEventsFixture()
	now := time.Now()

	sender := fx.store.addUser(models.RoleEntrepreneur, now)
	joined := fx.store.addUser(models.RoleClient, now)
	offline := fx.store.addUser(models.RoleClient, now)

	thread := models.Thread{
		ID:           uuid.New(),
		Title:        "Funding round",
		Type:         models.ThreadGroup,
		CreatedBy:    sender.ID,
		Participants: []models.User{sender, joined, offline},
	}

	conn := liveClient(fx.hub, joined.ID)
	fx.hub.Register(conn)
	fx.hub.JoinRoom(conn, realtime.ThreadRoom(thread.ID))
	drainClient(conn)

	msg := &models.Message{
		ID:        uuid.New(),
		ThreadID:  thread.ID,
		SenderID:  sender.ID,
		Content:   "term sheet is up",
		Type:      models.MessageText,
		Priority:  models.PriorityNormal,
		CreatedAt: now,
		UpdatedAt: now,
		Thread:    thread,
	}

	fx.events.MessageCreated(msg, uuid.Nil)

	f := nextFrame(t, conn)
	if f.Event != realtime.EventNewMessage {
		t.Fatalf("event = %s, want %s", f.Event, realtime.EventNewMessage)
	}
	var body struct {
		ID       string `json:"id"`
		ThreadID string `json:"thread_id"`
	}
	if err := json.Unmarshal(f.Data, &body); err != nil {
		t.Fatalf("unmarshal broadcast body: %v", err)
	}
	if body.ID != msg.ID.String() || body.ThreadID != thread.ID.String() {
		t.Fatalf("broadcast carries %s/%s, want %s/%s", body.ID, body.ThreadID, msg.ID, thread.ID)
	}

	got := fx.push.waitOne(t)
	if got.recipient != offline.ID {
		t.Fatalf("push went to %s, want %s", got.recipient, offline.ID)
	}
	if got.msg.ID != msg.ID {
		t.Fatalf("push carries message %s, want %s", got.msg.ID, msg.ID)
	}
	fx.push.expectNone(t)
	fx.email.expectNone(t)
	fx.sms.expectNone(t)

	deadline := time.Now().Add(2 * time.Second)
	for {
		recs := fx.store.recorded()
		if len(recs) > 0 {
			r := recs[0]
			if r.MessageID != msg.ID || r.ThreadID != thread.ID ||
				r.RecipientID != offline.ID || r.Channel != models.ChannelPush {
				t.Fatalf("audit record = %+v", r)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no audit record written")
		}
		time.Sleep(10 * time.Millisecond)
	}

	for _, r := range fx.store.recorded() {
		if r.RecipientID == joined.ID {
			t.Fatalf("live room member got a fallback on %s", r.Channel)
		}
	}
}

// An explicit recipient list narrows the fallback audience below the full
// participant set.
func TestMessageCreatedExplicitRecipients(t *testing.T) {
	fx := newEventsFixture()
	now := time.Now()

	sender := fx.store.addUser(models.RoleEntrepreneur, now)
	target := fx.store.addUser(models.RoleClient, now)
	bystander := fx.store.addUser(models.RoleClient, now)

	thread := models.Thread{
		ID:           uuid.New(),
		Title:        "Board update",
		Type:         models.ThreadGroup,
		CreatedBy:    sender.ID,
		Participants: []models.User{sender, target, bystander},
	}

	msg := &models.Message{
		ID:         uuid.New(),
		ThreadID:   thread.ID,
		SenderID:   sender.ID,
		Content:    "for your eyes",
		Type:       models.MessageText,
		Priority:   models.PriorityNormal,
		CreatedAt:  now,
		UpdatedAt:  now,
		Thread:     thread,
		Recipients: []models.User{target},
	}

	fx.events.MessageCreated(msg, uuid.Nil)

	got := fx.push.waitOne(t)
	if got.recipient != target.ID {
		t.Fatalf("push went to %s, want %s", got.recipient, target.ID)
	}
	fx.push.expectNone(t)
}
