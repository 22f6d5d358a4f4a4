package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisStore keeps slots as JSON strings without expiry, shared by every
// server instance.
type RedisStore struct {
	rdb   *redis.Client
	scope string
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Scoped returns a store on the same client whose keys are prefixed with
// scope, so that slots for different locations do not collide.
func (s *RedisStore) Scoped(scope string) *RedisStore {
	return &RedisStore{rdb: s.rdb, scope: scope}
}

func (s *RedisStore) key(date string) string {
	if s.scope == "" {
		return SlotKey(date)
	}
	return s.scope + ":" + SlotKey(date)
}

func (s *RedisStore) LoadTimings(ctx context.Context, date string) (*Entry, error) {
	val, err := s.rdb.Get(ctx, s.key(date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key(date), err)
	}

	var entry Entry
	if err := json.Unmarshal(val, &entry); err != nil {
		return nil, nil
	}
	return &entry, nil
}

func (s *RedisStore) SaveTimings(ctx context.Context, e *Entry) error {
	if e == nil || e.Date == "" {
		return errors.New("cache entry has no date")
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(e.Date), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key(e.Date), err)
	}
	return nil
}
