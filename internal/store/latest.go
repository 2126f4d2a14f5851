package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	latestPrefix = "iotcare:latest"
	genPrefix    = "iotcare:latest-gen"
)

// LatestCache 每个 (kind, key) 最新一条记录的 JSON 缓存
// 写路径（create/update/delete）递增代数并失效，读路径 read-through；
// 回填只在读库前取得的代数未变时生效
type LatestCache struct {
	kv  KV
	ttl time.Duration
}

// NewLatestCache ttl<=0 时使用 60s
func NewLatestCache(kv KV, ttl time.Duration) *LatestCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &LatestCache{kv: kv, ttl: ttl}
}

func latestKey(kind, key string) string {
	return fmt.Sprintf("%s:%s:%s", latestPrefix, kind, key)
}

func genKey(kind, key string) string {
	return fmt.Sprintf("%s:%s:%s", genPrefix, kind, key)
}

// Get 命中时解码到 dest 并返回 true
func (c *LatestCache) Get(ctx context.Context, kind, key string, dest any) (bool, error) {
	raw, err := c.kv.Get(ctx, latestKey(kind, key))
	if errors.Is(err, ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		// 损坏的条目按未命中处理并删除
		_ = c.kv.Del(ctx, latestKey(kind, key))
		return false, nil
	}
	return true, nil
}

// Generation 读库前调用；返回值交给 Fill
func (c *LatestCache) Generation(ctx context.Context, kind, key string) (string, error) {
	gen, err := c.kv.Get(ctx, genKey(kind, key))
	if errors.Is(err, ErrMiss) {
		return "", nil
	}
	return gen, err
}

// Fill 回填缓存；期间发生过 Invalidate 时放弃写入并返回 false
func (c *LatestCache) Fill(ctx context.Context, kind, key, gen string, v any) (bool, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode latest %s/%s: %w", kind, key, err)
	}
	return c.kv.SetIfUnchanged(ctx, genKey(kind, key), gen, latestKey(kind, key), string(b), c.ttl)
}

// Invalidate 先递增代数，使进行中的 Fill 失效，再删除条目
func (c *LatestCache) Invalidate(ctx context.Context, kind, key string) error {
	if _, err := c.kv.Incr(ctx, genKey(kind, key)); err != nil {
		return err
	}
	return c.kv.Del(ctx, latestKey(kind, key))
}

// Purge 删除所有缓存条目，返回删除数量；启动时调用，避免使用外部修改前的旧值
func (c *LatestCache) Purge(ctx context.Context) (int, error) {
	keys, err := c.kv.ScanKeys(ctx, latestPrefix+":*")
	if err != nil {
		return 0, err
	}
	if err := c.kv.Del(ctx, keys...); err != nil {
		return 0, err
	}
	return len(keys), nil
}
