package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RedisStore keeps one JSON snapshot per session so any API replica can
// serve the next turn.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisStore creates a redis-backed session store. ttl <= 0 means
// DefaultSessionTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("chat: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("healthcare.internal.chat.store"),
	}
}

// Create stores a new session, failing if the id is already taken.
func (s *RedisStore) Create(ctx context.Context, session *Session) error {
	ctx, span := s.tracer.Start(ctx, "chat.create_session")
	defer span.End()
	span.SetAttributes(attribute.String("healthcare.chat_session_id", session.ID))

	data, err := json.Marshal(session)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to marshal session: %w", err)
	}
	ok, err := s.redis.SetNX(ctx, sessionKey(session.ID), data, s.ttl).Result()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to create session: %w", err)
	}
	if !ok {
		return fmt.Errorf("chat: session %s already exists", session.ID)
	}
	return nil
}

// Get loads the session and slides its expiry.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "chat.load_session")
	defer span.End()
	span.SetAttributes(attribute.String("healthcare.chat_session_id", id))

	data, err := s.redis.GetEx(ctx, sessionKey(id), s.ttl).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("chat: failed to load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("chat: failed to decode session: %w", err)
	}
	return &session, nil
}

// Save overwrites a live snapshot and refreshes the expiry. A deleted or
// expired session is not recreated.
func (s *RedisStore) Save(ctx context.Context, session *Session) error {
	ctx, span := s.tracer.Start(ctx, "chat.save_session")
	defer span.End()
	span.SetAttributes(attribute.String("healthcare.chat_session_id", session.ID))

	data, err := json.Marshal(session)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to marshal session: %w", err)
	}
	ok, err := s.redis.SetXX(ctx, sessionKey(session.ID), data, s.ttl).Result()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to persist session: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes the snapshot.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "chat.delete_session")
	defer span.End()

	if err := s.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to delete session: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("chat:session:%s", id)
}

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
