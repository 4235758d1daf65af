// Package notify bridges live broadcast with queued push/email/SMS fallback
// for recipients that no open socket can reach. Delivery here is best
// effort: failures are logged and counted, never retried and never allowed
// to fail the originating send.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/venturelink/messaging/internal/apperr"
	"github.com/venturelink/messaging/internal/metrics"
	"github.com/venturelink/messaging/internal/models"
	"github.com/venturelink/messaging/internal/realtime"
)

// Sender is one outbound channel collaborator (push, email or SMS).
type Sender interface {
	Send(ctx context.Context, recipient *models.User, msg *models.Message) error
}

// Presence answers the dispatch-time liveness check. Presence is re-checked
// here, not trusted from send time, so a recipient who went offline between
// the two still gets the fallback.
type Presence interface {
	UserOnline(userID uuid.UUID) bool
	UserInRoom(userID uuid.UUID, room realtime.Room) bool
}

// Deduper makes dispatch idempotent per (message, recipient, channel) under
// at-least-once queue redelivery. First returns true exactly once per key.
type Deduper interface {
	First(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Store is the slice of persistence the dispatcher needs.
type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetPreference(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error)
	RecordNotification(ctx context.Context, n *models.Notification) error
}

type Dispatcher struct {
	store    Store
	presence Presence
	dedup    Deduper

	push  Sender
	email Sender
	sms   Sender

	limiter *rate.Limiter
	log     *zap.Logger
	metrics *metrics.Metrics

	dedupTTL time.Duration
	timeout  time.Duration
	now      func() time.Time
}

func NewDispatcher(store Store, presence Presence, dedup Deduper, push, email, sms Sender, log *zap.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		store:    store,
		presence: presence,
		dedup:    dedup,
		push:     push,
		email:    email,
		sms:      sms,
		limiter:  rate.NewLimiter(rate.Limit(50), 100),
		log:      log,
		metrics:  m,
		dedupTTL: 24 * time.Hour,
		timeout:  30 * time.Second,
		now:      time.Now,
	}
}

// DispatchOffline fans fallback notifications out to every recipient not
// currently live in the thread room. Safe to call in a goroutine; it bounds
// itself with its own timeout and never returns an error to the sender path.
func (d *Dispatcher) DispatchOffline(ctx context.Context, msg *models.Message, recipients []uuid.UUID) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	room := realtime.ThreadRoom(msg.ThreadID)

	for _, recipientID := range recipients {
		if recipientID == msg.SenderID {
			continue
		}
		// Live in the room means the broadcast already reached them.
		if d.presence.UserOnline(recipientID) && d.presence.UserInRoom(recipientID, room) {
			d.metrics.NotificationsSkipped.Inc()
			continue
		}
		d.dispatchTo(ctx, msg, recipientID)
	}
}

func (d *Dispatcher) dispatchTo(ctx context.Context, msg *models.Message, recipientID uuid.UUID) {
	user, err := d.store.GetUser(ctx, recipientID)
	if err != nil {
		d.log.Warn("notification recipient lookup failed",
			zap.String("recipient_id", recipientID.String()),
			zap.Error(err))
		return
	}

	pref, err := d.store.GetPreference(ctx, recipientID)
	if err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			d.log.Warn("notification preference lookup failed",
				zap.String("recipient_id", recipientID.String()),
				zap.Error(err))
			return
		}
		def := models.DefaultPreference(recipientID)
		pref = &def
	}

	if pref.PushEnabled {
		d.sendOn(ctx, models.ChannelPush, d.push, user, msg)
	}
	if pref.EmailEnabled && d.inactiveBeyond(user, pref.InactiveThreshold) {
		d.sendOn(ctx, models.ChannelEmail, d.email, user, msg)
	}
	if pref.SMSEnabled && msg.Priority == models.PriorityUrgent {
		d.sendOn(ctx, models.ChannelSMS, d.sms, user, msg)
	}
}

// sendOn pushes one notification on one channel. A failure here is isolated:
// it is logged, recorded and counted, and the remaining channels and
// recipients proceed.
func (d *Dispatcher) sendOn(ctx context.Context, channel models.Channel, sender Sender, user *models.User, msg *models.Message) {
	if sender == nil {
		return
	}

	key := "notif:" + msg.ID.String() + ":" + user.ID.String() + ":" + string(channel)
	first, err := d.dedup.First(ctx, key, d.dedupTTL)
	if err != nil {
		d.log.Warn("notification dedup check failed", zap.String("key", key), zap.Error(err))
		return
	}
	if !first {
		d.metrics.NotificationsSkipped.Inc()
		return
	}

	if err := d.limiter.Wait(ctx); err != nil {
		d.log.Warn("notification throttle interrupted", zap.Error(err))
		return
	}

	record := &models.Notification{
		MessageID:   msg.ID,
		ThreadID:    msg.ThreadID,
		RecipientID: user.ID,
		Channel:     channel,
		Status:      models.NotificationSent,
		CreatedAt:   d.now(),
	}

	if err := sender.Send(ctx, user, msg); err != nil {
		errText := err.Error()
		record.Status = models.NotificationFailed
		record.Error = &errText
		d.metrics.NotificationsFailed.WithLabelValues(string(channel)).Inc()
		d.log.Warn("notification send failed",
			zap.String("channel", string(channel)),
			zap.String("message_id", msg.ID.String()),
			zap.String("recipient_id", user.ID.String()),
			zap.Error(err))
	} else {
		d.metrics.NotificationsEnqueued.WithLabelValues(string(channel)).Inc()
	}

	if err := d.store.RecordNotification(ctx, record); err != nil {
		d.log.Warn("notification audit record failed", zap.Error(err))
	}
}

func (d *Dispatcher) inactiveBeyond(user *models.User, threshold time.Duration) bool {
	if user.LastSeenAt.IsZero() {
		return true
	}
	return d.now().Sub(user.LastSeenAt) >= threshold
}
