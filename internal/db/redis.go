package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// UpdatesChannel is the pub/sub channel report lifecycle updates are
// published on for downstream consumers (feed refreshers, notifiers).
const UpdatesChannel = "reportserve:updates"

// RedisStore wraps a redis client and context for operations.
type RedisStore struct {
	Client *redis.Client
	Ctx    context.Context
}

// InitRedis initializes a Redis client and returns a RedisStore.
func InitRedis(addr string) (*RedisStore, error) {
	rs := &RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: addr}),
		Ctx:    context.Background(),
	}

	// Add OpenTelemetry instrumentation to Redis client
	if err := redisotel.InstrumentTracing(rs.Client); err != nil {
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}

	if err := rs.Client.Ping(rs.Ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	zap.L().Info("Connected to Redis", zap.String("addr", addr))
	return rs, nil
}

// IncrementSubmission increments the reporter's submission counter inside
// the rolling window. A TTL of window is applied on first increment. Returns
// the current count so callers can enforce spam ceilings.
func (r *RedisStore) IncrementSubmission(reporterID string, window time.Duration) (int64, error) {
	key := fmt.Sprintf("submissions:%s", reporterID)
	val, err := r.Client.Incr(r.Ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if val == 1 {
		r.Client.Expire(r.Ctx, key, window)
	}
	return val, nil
}

// IncrementDailyCount increments the daily counter for a report category.
// A 24h TTL is applied on first set.
func (r *RedisStore) IncrementDailyCount(category string) error {
	key := fmt.Sprintf("reports:category:%s:%s", category, time.Now().Format("2006-01-02"))
	val, err := r.Client.Incr(r.Ctx, key).Result()
	if err != nil {
		return err
	}
	if val == 1 {
		r.Client.Expire(r.Ctx, key, 24*time.Hour)
	}
	return nil
}

// GetDailyCount returns today's submission count for a category.
func (r *RedisStore) GetDailyCount(category string) int64 {
	key := fmt.Sprintf("reports:category:%s:%s", category, time.Now().Format("2006-01-02"))
	n, _ := r.Client.Get(r.Ctx, key).Int64()
	return n
}

// updateMessage is the wire shape published on UpdatesChannel.
type updateMessage struct {
	Kind      string    `json:"kind"` // report, trend, alert
	ID        string    `json:"id"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}

// PublishUpdate publishes a lifecycle update for subscribers. Publish
// failures are logged, not surfaced; the update feed is advisory.
func (r *RedisStore) PublishUpdate(kind, id, event string) {
	msg, err := json.Marshal(updateMessage{Kind: kind, ID: id, Event: event, Timestamp: time.Now()})
	if err != nil {
		return
	}
	if err := r.Client.Publish(r.Ctx, UpdatesChannel, msg).Err(); err != nil {
		zap.L().Warn("failed to publish update", zap.Error(err), zap.String("kind", kind), zap.String("id", id))
	}
}

// Close closes the underlying client.
func (r *RedisStore) Close() {
	if err := r.Client.Close(); err != nil {
		zap.L().Warn("failed to close redis client", zap.Error(err))
	}
}
