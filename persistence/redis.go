package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deckstream/deckstream/deck"
)

const defaultRedisKey = "deckstream:sessions"

// RedisStore persists the session list as a single JSON document under one
// Redis key. Suitable when the deck should survive host restarts or be
// shared across instances.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKey overrides the Redis key the document is stored under.
func WithKey(key string) RedisOption {
	return func(s *RedisStore) {
		s.key = key
	}
}

// WithTTL sets an expiration on the session document. Zero, the default,
// means the document never expires.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore creates a Redis-backed session store.
//
// Example:
//
//	store := persistence.NewRedisStore(
//	    redis.NewClient(&redis.Options{Addr: "localhost:6379"}),
//	    persistence.WithKey("myapp:sessions"),
//	)
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	store := &RedisStore{
		client: client,
		key:    defaultRedisKey,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// SaveSessions writes the full session list to Redis.
func (s *RedisStore) SaveSessions(ctx context.Context, sessions []deck.Session) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("marshal sessions: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// LoadSessions reads the session list from Redis. A missing key returns an
// empty list.
func (s *RedisStore) LoadSessions(ctx context.Context) ([]deck.Session, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	var sessions []deck.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("parse session document: %w", err)
	}
	return sessions, nil
}
