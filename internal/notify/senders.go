package notify

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/venturelink/messaging/internal/models"
)

// RedisDeduper implements Deduper with SETNX + TTL.
type RedisDeduper struct {
	rdb *redis.Client
}

func NewRedisDeduper(rdb *redis.Client) *RedisDeduper {
	return &RedisDeduper{rdb: rdb}
}

func (d *RedisDeduper) First(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return d.rdb.SetNX(ctx, key, 1, ttl).Result()
}

// LogSender stands in for an external provider: it accepts the notification
// and logs it. Swap in the real push/email/SMS client behind the same
// interface in deployment.
type LogSender struct {
	channel models.Channel
	log     *zap.Logger
}

func NewLogSender(channel models.Channel, log *zap.Logger) *LogSender {
	return &LogSender{channel: channel, log: log}
}

func (s *LogSender) Send(ctx context.Context, recipient *models.User, msg *models.Message) error {
	s.log.Info("notification dispatched",
		zap.String("channel", string(s.channel)),
		zap.String("recipient_id", recipient.ID.String()),
		zap.String("message_id", msg.ID.String()),
		zap.String("thread_id", msg.ThreadID.String()),
		zap.String("priority", string(msg.Priority)))
	return nil
}
