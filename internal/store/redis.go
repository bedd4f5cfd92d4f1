package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis keeps each snapshot under its own key. SET replaces the value
// atomically so readers never observe a partial document.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb, prefix: "session:"}
}

// NewRedisFromURL parses a redis:// URL and checks connectivity.
func NewRedisFromURL(ctx context.Context, url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedis(rdb), nil
}

func (r *Redis) Save(ctx context.Context, sessionID string, snap Snapshot) error {
	doc, err := Encode(snap)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.prefix+sessionID, doc, 0).Err()
}

func (r *Redis) Load(ctx context.Context, sessionID string) (Snapshot, error) {
	doc, err := r.rdb.Get(ctx, r.prefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("redis load %s: %w", sessionID, err)
	}
	return Decode(doc)
}

func (r *Redis) Clear(ctx context.Context, sessionID string) error {
	return r.rdb.Del(ctx, r.prefix+sessionID).Err()
}

func (r *Redis) Ping(ctx context.Context) error { return r.rdb.Ping(ctx).Err() }

func (r *Redis) Close() error { return r.rdb.Close() }
