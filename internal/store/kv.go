package store

import (
	"context"
	"errors"
	"time"

	"iotcare-data/internal/common/config"

	"github.com/go-redis/redis/v8"
)

var ErrMiss = errors.New("cache miss")

// NewRedisClient 创建Redis客户端
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Ping 测试Redis连接
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

type KV interface {
	Get(ctx context.Context, key string) (string, error)
	// SetIfUnchanged 仅当 guard 的当前值仍为 want（"" 表示不存在）时写入 key
	SetIfUnchanged(ctx context.Context, guard, want, key, value string, ttl time.Duration) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
	Del(ctx context.Context, keys ...string) error
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

type RedisKV struct {
	c *redis.Client
}

func NewRedisKV(c *redis.Client) *RedisKV { return &RedisKV{c: c} }

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.c.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

// SetIfUnchanged WATCH guard 后在 MULTI 中写入；guard 被并发修改时返回 false
func (r *RedisKV) SetIfUnchanged(ctx context.Context, guard, want, key, value string, ttl time.Duration) (bool, error) {
	written := false
	err := r.c.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, guard).Result()
		if err == redis.Nil {
			cur, err = "", nil
		}
		if err != nil {
			return err
		}
		if cur != want {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, ttl)
			return nil
		})
		written = err == nil
		return err
	}, guard)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return written, nil
}

func (r *RedisKV) Incr(ctx context.Context, key string) (int64, error) {
	return r.c.Incr(ctx, key).Result()
}

func (r *RedisKV) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.c.Del(ctx, keys...).Err()
}

func (r *RedisKV) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		k, next, err := r.c.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}
