package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis keeps one version counter per view. Readers only look under the
// current version, so bumping the counter orphans older entries until their
// TTL, including ones written late under a version read before the bump.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

func NewRedis(rdb *redis.Client, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) versionKey(view View) string {
	return fmt.Sprintf("%s:v:%s", r.prefix, view)
}

func (r *Redis) version(ctx context.Context, view View) (int64, error) {
	v, err := r.rdb.Get(ctx, r.versionKey(view)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (r *Redis) entryKey(view View, version int64, key string) string {
	return fmt.Sprintf("%s:%s:%d:%s", r.prefix, view, version, key)
}

func (r *Redis) Get(ctx context.Context, view View, key string) ([]byte, int64, error) {
	ver, err := r.version(ctx, view)
	if err != nil {
		return nil, 0, err
	}
	data, err := r.rdb.Get(ctx, r.entryKey(view, ver, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ver, ErrMiss
	}
	return data, ver, err
}

func (r *Redis) Set(ctx context.Context, view View, key string, gen int64, data []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, r.entryKey(view, gen, key), data, ttl).Err()
}

func (r *Redis) Invalidate(ctx context.Context, views ...View) error {
	pipe := r.rdb.TxPipeline()
	for _, v := range views {
		pipe.Incr(ctx, r.versionKey(v))
	}
	_, err := pipe.Exec(ctx)
	return err
}
