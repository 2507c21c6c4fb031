package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// RedisSessionStore keeps conversation history in Redis so sessions survive
// worker restarts and are shared across instances. History is stored whole
// as a JSON array under a per-user key with a sliding TTL.
type RedisSessionStore struct {
	redis    *redis.Client
	capacity int
	ttl      time.Duration
	tracer   trace.Tracer
}

func NewRedisSessionStore(client *redis.Client, capacity int, ttl time.Duration) *RedisSessionStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if capacity <= 0 {
		capacity = defaultSessionCapacity
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisSessionStore{
		redis:    client,
		capacity: capacity,
		ttl:      ttl,
		tracer:   otel.Tracer("vendibot.internal.conversation.sessions"),
	}
}

func (s *RedisSessionStore) Append(ctx context.Context, userID string, msgs ...ChatMessage) error {
	ctx, span := s.tracer.Start(ctx, "conversation.session_append")
	defer span.End()

	history, err := s.load(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	history = append(history, msgs...)
	if over := len(history) - s.capacity; over > 0 {
		history = history[over:]
	}

	data, err := json.Marshal(history)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(userID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) History(ctx context.Context, userID string) ([]ChatMessage, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.session_history")
	defer span.End()

	history, err := s.load(ctx, userID)
	if err != nil {
		span.RecordError(err)
	}
	return history, err
}

func (s *RedisSessionStore) Clear(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("conversation: failed to clear session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) load(ctx context.Context, userID string) ([]ChatMessage, error) {
	data, err := s.redis.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: failed to load session: %w", err)
	}

	var history []ChatMessage
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("conversation: failed to decode session: %w", err)
	}
	return history, nil
}

func sessionKey(userID string) string {
	return fmt.Sprintf("session:%s", userID)
}
