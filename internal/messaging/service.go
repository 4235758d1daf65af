// Package messaging is the sole owner of message, thread, attachment and
// reaction state transitions. All operations return typed errors from
// internal/apperr; nothing here retries, and the transport layer maps error
// kinds to status codes.
package messaging

import (
	"time"

	"go.uber.org/zap"

	"github.com/venturelink/messaging/internal/metrics"
)

// Limits holds the quota knobs. Zero values fall back to defaults.
type Limits struct {
	SendPerHour           int64
	PrivilegedSendPerHour int64
	MaxActiveThreads      int64
}

func (l Limits) withDefaults() Limits {
	if l.SendPerHour == 0 {
		l.SendPerHour = 200
	}
	if l.PrivilegedSendPerHour == 0 {
		l.PrivilegedSendPerHour = 1000
	}
	if l.MaxActiveThreads == 0 {
		l.MaxActiveThreads = 50
	}
	return l
}

type Service struct {
	store   Store
	counter Counter
	log     *zap.Logger
	metrics *metrics.Metrics
	limits  Limits
	now     func() time.Time
}

func NewService(store Store, counter Counter, log *zap.Logger, m *metrics.Metrics, limits Limits) *Service {
	return &Service{
		store:   store,
		counter: counter,
		log:     log,
		metrics: m,
		limits:  limits.withDefaults(),
		now:     time.Now,
	}
}
