// Package wiring resolves a record kind or identity entity to a service bound
// to one pooled database session.
package wiring

import (
	"context"
	"sort"
	"sync"

	"iotcare-data/internal/apperr"
	"iotcare-data/internal/repository"

	"go.uber.org/zap"
)

// SessionSource 连接池抽象（repository.Pool）
type SessionSource interface {
	Acquire(ctx context.Context) (repository.Session, func() error, error)
}

var _ SessionSource = (*repository.Pool)(nil)

// AdapterFactory 基于会话构造 Repository
type AdapterFactory func(sess repository.Session) any

// ServiceFactory 基于 Repository 构造 Service
type ServiceFactory func(adapter any) any

// Registry 按 key（记录类型 slug 或身份实体名）注册的两张工厂表
type Registry struct {
	pool     SessionSource
	logger   *zap.Logger
	mu       sync.RWMutex
	adapters map[string]AdapterFactory
	services map[string]ServiceFactory
}

// NewRegistry 创建空的 Registry
func NewRegistry(pool SessionSource, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		pool:     pool,
		logger:   logger,
		adapters: make(map[string]AdapterFactory),
		services: make(map[string]ServiceFactory),
	}
}

// Register 注册（或覆盖）一个 key 的工厂
func (r *Registry) Register(key string, adapter AdapterFactory, svc ServiceFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[key] = adapter
	r.services[key] = svc
}

// Has key 是否已注册
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.adapters[key]
	return ok
}

// Keys 已注册的 key，排序
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.adapters))
	for k := range r.adapters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Open 借出会话并构造 Repository 与 Service；调用方必须 Close 返回的 Scope
func (r *Registry) Open(ctx context.Context, key string) (*Scope, error) {
	r.mu.RLock()
	adapter, ok := r.adapters[key]
	svc := r.services[key]
	r.mu.RUnlock()
	if !ok {
		return nil, apperr.NotFound("", "unknown record kind "+key)
	}

	sess, release, err := r.pool.Acquire(ctx)
	if err != nil {
		r.logger.Error("Acquire session failed", zap.String("key", key), zap.Error(err))
		return nil, apperr.Persistence(key, err)
	}
	scope := &Scope{Key: key, release: release, logger: r.logger}
	scope.Service = svc(adapter(sess))
	return scope, nil
}

// Scope 一次请求（或一条 MQTT 消息）持有的服务及其会话
type Scope struct {
	Key     string
	Service any

	release func() error
	once    sync.Once
	logger  *zap.Logger
}

// Close 归还会话；可重复调用
func (s *Scope) Close() error {
	var err error
	s.once.Do(func() {
		if s.release == nil {
			return
		}
		if err = s.release(); err != nil {
			s.logger.Warn("Release session failed", zap.String("key", s.Key), zap.Error(err))
		}
	})
	return err
}
