package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// sessionKeyPrefix namespaces session keys in a shared Redis.
const sessionKeyPrefix = "shopmarketer:session:"

// RedisStore keeps session state as JSON values with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to the Redis instance at url and verifies it answers.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		slog.Error("RedisStore.NewRedisStore: invalid Redis URL", "error", err)
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("RedisStore.NewRedisStore: ping failed", "addr", redisOpts.Addr, "error", err)
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", redisOpts.Addr, err)
	}
	slog.Debug("RedisStore.NewRedisStore: connected", "addr", redisOpts.Addr, "db", redisOpts.DB)
	return NewRedisStoreWithClient(client, ttl), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Load implements Store. Reading a session refreshes its TTL.
func (s *RedisStore) Load(ctx context.Context, id string) (*State, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}
	key := s.key(id)
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return newState(id, time.Now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var st State
	if err := json.Unmarshal([]byte(val), &st); err != nil {
		slog.Warn("RedisStore.Load: discarding undecodable session", "error", err)
		return newState(id, time.Now()), nil
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		slog.Warn("RedisStore.Load: failed to refresh TTL", "error", err)
	}
	return &st, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, st *State) error {
	if st == nil || st.ID == "" {
		return ErrEmptySessionID
	}
	st.UpdatedAt = time.Now()
	if st.CreatedAt.IsZero() {
		st.CreatedAt = st.UpdatedAt
	}
	val, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(st.ID), val, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(id string) string {
	return sessionKeyPrefix + id
}
