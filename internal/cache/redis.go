package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps one browsing session's entries in a single hash, so the whole
// session can expire or be ended at once while entries themselves carry no TTL.
type Redis struct {
	rdb       *redis.Client
	sessionID string
	ttl       time.Duration
}

// NewRedis binds a cache to sessionID. A zero ttl keeps the session until End.
func NewRedis(rdb *redis.Client, sessionID string, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, sessionID: sessionID, ttl: ttl}
}

func (r *Redis) key() string {
	return "session:" + r.sessionID
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.rdb.HGet(ctx, r.key(), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget %s: %w", key, err)
	}
	return b, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, r.key(), key, value)
	if r.ttl > 0 {
		pipe.Expire(ctx, r.key(), r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	return nil
}

// Touch extends the session lifetime without writing.
func (r *Redis) Touch(ctx context.Context) error {
	if r.ttl <= 0 {
		return nil
	}
	return r.rdb.Expire(ctx, r.key(), r.ttl).Err()
}

// End drops every entry of the session.
func (r *Redis) End(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key()).Err()
}
