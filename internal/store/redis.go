package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/chadiek/talkpdf/internal/chat"
)

// RedisStore persists the snapshot under a single Redis key. SET is atomic,
// so a concurrent Load sees either the previous or the new snapshot, never a
// partial one.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// Load implements chat.Store.
func (s *RedisStore) Load(ctx context.Context) (*chat.Snapshot, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: redis get: %w", err)
	}
	var snap chat.Snapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		return nil, fmt.Errorf("store: decode redis snapshot: %w", err)
	}
	return &snap, nil
}

// Save implements chat.Store.
func (s *RedisStore) Save(ctx context.Context, snap *chat.Snapshot) error {
	blob, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, blob, 0).Err(); err != nil {
		return fmt.Errorf("store: redis set: %w", err)
	}
	return nil
}
