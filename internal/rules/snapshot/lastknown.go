package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/qiniu/ruleview/internal/config"
)

// LastKnownStore keeps the last successfully fetched copy of each side of
// each source so a failing upstream degrades to stale data.
type LastKnownStore interface {
	Save(ctx context.Context, key string, v any) error
	// Load decodes the stored value into v and reports whether one existed.
	Load(ctx context.Context, key string, v any) (bool, error)
}

// NoopStore stores nothing.
type NoopStore struct{}

func (NoopStore) Save(context.Context, string, any) error         { return nil }
func (NoopStore) Load(context.Context, string, any) (bool, error) { return false, nil }

// RedisStore keeps last-known copies as JSON strings with a TTL.
type RedisStore struct {
	R      *redis.Client
	TTL    time.Duration
	Prefix string
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{R: rdb, TTL: ttl, Prefix: "ruleview:lastknown:"}
}

func (s *RedisStore) Save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.R.Set(ctx, s.Prefix+key, data, s.TTL).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, key string, v any) (bool, error) {
	data, err := s.R.Get(ctx, s.Prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// NewRedisClientFromConfig constructs a redis client from app config. It
// returns nil when no address is configured.
func NewRedisClientFromConfig(c *config.RedisConfig) *redis.Client {
	if c == nil || c.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})
}

// NewLastKnownStore picks the Redis store when a client is available.
func NewLastKnownStore(rdb *redis.Client, ttl time.Duration) LastKnownStore {
	if rdb == nil {
		return NoopStore{}
	}
	return NewRedisStore(rdb, ttl)
}

func lastKnownKey(side, sourceKey string) string {
	return side + ":" + sourceKey
}
