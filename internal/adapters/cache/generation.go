package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrGenerationChanged is returned by SetIfGeneration when the generation
// moved between the caller's read and the write.
var ErrGenerationChanged = errors.New("cache: generation changed")

// generationTTL outlives every cached value guarded by a generation key.
const generationTTL = 24 * time.Hour

// ReadGeneration returns the counter stored at genKey, zero when absent.
func ReadGeneration(ctx context.Context, rdb *redis.Client, genKey string) (uint64, error) {
	gen, err := rdb.Get(ctx, genKey).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// BumpGeneration advances genKey and deletes keys in one transaction.
func BumpGeneration(ctx context.Context, rdb *redis.Client, genKey string, keys ...string) error {
	pipe := rdb.TxPipeline()
	pipe.Incr(ctx, genKey)
	pipe.Expire(ctx, genKey, generationTTL)
	if len(keys) > 0 {
		pipe.Del(ctx, keys...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// SetIfGeneration writes key only while genKey still holds want. The check
// and the write run under WATCH, so a concurrent BumpGeneration aborts it.
func SetIfGeneration(ctx context.Context, rdb *redis.Client, genKey string, want uint64, key string, value []byte, ttl time.Duration) error {
	err := rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != want {
			return ErrGenerationChanged
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, ttl)
			return nil
		})
		return err
	}, genKey)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrGenerationChanged
	}
	return err
}
