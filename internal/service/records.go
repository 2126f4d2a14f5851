package service

import (
	"context"
	"fmt"
	"time"

	"iotcare-data/internal/apperr"
	"iotcare-data/internal/domain"
	"iotcare-data/internal/metrics"
	"iotcare-data/internal/repository"
	"iotcare-data/internal/store"

	"go.uber.org/zap"
)

// RecordRepository 单一记录类型的持久化契约（由 repository.TimeSeriesRepository 实现）
type RecordRepository[R domain.Record, P any] interface {
	Kind() *domain.Kind
	Create(ctx context.Context, rec *R) (*R, error)
	Get(ctx context.Context, key string, at time.Time) (*R, error)
	Latest(ctx context.Context, key string) (*R, error)
	List(ctx context.Context, q repository.ListQuery) ([]R, error)
	Series(ctx context.Context, q repository.SeriesQuery) ([]R, bool, error)
	Update(ctx context.Context, key string, at time.Time, patch *P) (*R, error)
	Delete(ctx context.Context, key string, at time.Time) (bool, error)
	Statistics(ctx context.Context, key string, start, end *time.Time) (*repository.Statistics, error)
}

var _ RecordRepository[domain.RelayLog, domain.RelayPatch] = (*repository.TimeSeriesRepository[domain.RelayLog, domain.RelayPatch])(nil)

// Decoder 由 HTTP / MQTT 边界提供的请求体解码函数；解码失败应返回 ParseError
type Decoder func(dst any) error

// Records 类型擦除后的通用记录契约，HTTP 与 MQTT 通过它处理任意记录类型
type Records interface {
	Kind() *domain.Kind
	CreateFrom(ctx context.Context, decode Decoder, source string) (any, error)
	GetAny(ctx context.Context, key string, at time.Time) (any, error)
	LatestAny(ctx context.Context, key string) (any, error)
	ListAny(ctx context.Context, req ListRequest) (any, error)
	UpdateFrom(ctx context.Context, key string, at time.Time, decode Decoder) (any, error)
	Delete(ctx context.Context, key string, at time.Time) error
	Statistics(ctx context.Context, key string, start, end *time.Time) (*repository.Statistics, error)
}

// EmergencyNotifier Emergency 快照的外部通知
type EmergencyNotifier interface {
	NotifyEmergency(ctx context.Context, snap *domain.HomeStateSnapshot) error
}

// Deps 所有服务共享的依赖
type Deps struct {
	Logger     *zap.Logger
	Cache      *store.LatestCache // nil 表示不缓存
	Notifier   EmergencyNotifier  // nil 表示不通知
	Now        func() time.Time
	Production bool
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

func (d Deps) logger() *zap.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return zap.NewNop()
}

// RecordService 通用记录服务：校验、缓存、指标，然后委托 Repository
type RecordService[R domain.Record, P any] struct {
	repo   RecordRepository[R, P]
	kind   *domain.Kind
	deps   Deps
	logger *zap.Logger

	derive      func(st *repository.Statistics)
	afterCreate func(ctx context.Context, rec *R)
}

// Option RecordService 的可选行为
type Option[R domain.Record, P any] func(*RecordService[R, P])

// WithDerived 在统计结果上追加派生指标
func WithDerived[R domain.Record, P any](fn func(st *repository.Statistics)) Option[R, P] {
	return func(s *RecordService[R, P]) { s.derive = fn }
}

// WithAfterCreate 创建成功后的回调，失败只记录日志
func WithAfterCreate[R domain.Record, P any](fn func(ctx context.Context, rec *R)) Option[R, P] {
	return func(s *RecordService[R, P]) { s.afterCreate = fn }
}

// NewRecordService 创建通用记录服务
func NewRecordService[R domain.Record, P any](repo RecordRepository[R, P], deps Deps, opts ...Option[R, P]) *RecordService[R, P] {
	s := &RecordService[R, P]{
		repo:   repo,
		kind:   repo.Kind(),
		deps:   deps,
		logger: deps.logger().With(zap.String("kind", repo.Kind().Slug)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Records = (*RecordService[domain.RelayLog, domain.RelayPatch])(nil)

func (s *RecordService[R, P]) Kind() *domain.Kind { return s.kind }

// Create 校验并持久化；source 用于指标（http / mqtt）
func (s *RecordService[R, P]) Create(ctx context.Context, rec *R, source string) (*R, error) {
	// 1. 参数验证
	if err := domain.ValidateRecord(s.kind.Slug, *rec); err != nil {
		return nil, err
	}

	// 2. 调用 Repository
	out, err := s.repo.Create(ctx, rec)
	if err != nil {
		s.logFailure("Create", (*rec).Identity(), err)
		return nil, err
	}
	metrics.RecordIngested(s.kind.Slug, source)

	// 3. 失效 latest 缓存
	s.invalidate(ctx, (*out).Identity().Key)

	if s.afterCreate != nil {
		s.afterCreate(ctx, out)
	}
	return out, nil
}

// Get 按 identity 查询，不存在返回 NotFound
func (s *RecordService[R, P]) Get(ctx context.Context, key string, at time.Time) (*R, error) {
	rec, err := s.repo.Get(ctx, key, at)
	if err != nil {
		s.logFailure("Get", domain.Identity{Key: key, Time: at}, err)
		return nil, err
	}
	if rec == nil {
		s.logger.Warn("Record not found", zap.String("key", key), zap.Time("time", at))
		return nil, s.notFound(key, &at)
	}
	return rec, nil
}

// Latest 最新一条记录；启用缓存时 read-through
func (s *RecordService[R, P]) Latest(ctx context.Context, key string) (*R, error) {
	gen, fill := "", false
	if s.deps.Cache != nil {
		var cached R
		hit, err := s.deps.Cache.Get(ctx, s.kind.Slug, key, &cached)
		if err != nil {
			s.logger.Warn("Latest cache read failed", zap.String("key", key), zap.Error(err))
		}
		metrics.CacheLookup(s.kind.Slug, hit)
		if hit {
			if d, ok := any(&cached).(domain.Decorator); ok {
				d.Decorate()
			}
			return &cached, nil
		}
		// 代数须在读库之前取得
		if gen, err = s.deps.Cache.Generation(ctx, s.kind.Slug, key); err != nil {
			s.logger.Warn("Latest cache generation read failed", zap.String("key", key), zap.Error(err))
		} else {
			fill = true
		}
	}

	rec, err := s.repo.Latest(ctx, key)
	if err != nil {
		s.logFailure("Latest", domain.Identity{Key: key}, err)
		return nil, err
	}
	if rec == nil {
		return nil, s.notFound(key, nil)
	}

	if fill {
		if _, err := s.deps.Cache.Fill(ctx, s.kind.Slug, key, gen, rec); err != nil {
			s.logger.Warn("Latest cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return rec, nil
}

// List 窗口与过滤查询，按 time DESC 排序
func (s *RecordService[R, P]) List(ctx context.Context, req ListRequest) ([]R, error) {
	// 1. 参数验证
	if err := CheckPaging(s.kind.Slug, req.Limit, req.Offset); err != nil {
		return nil, err
	}
	if err := CheckWindow(s.kind.Slug, req.Start, req.End); err != nil {
		return nil, err
	}

	// 2. 调用 Repository
	items, err := s.repo.List(ctx, repository.ListQuery{
		Key:     req.Key,
		Start:   req.Start,
		End:     req.End,
		Filters: req.Filters,
		Limit:   req.Limit,
		Offset:  req.Offset,
	})
	if err != nil {
		if !apperr.Is(err, apperr.KindValidation) {
			s.logger.Error("List failed", zap.String("key", req.Key), zap.Error(err))
		}
		return nil, err
	}
	return items, nil
}

// Update 部分更新；未出现的字段保持不变
func (s *RecordService[R, P]) Update(ctx context.Context, key string, at time.Time, patch *P) (*R, error) {
	if err := domain.ValidatePatch(s.kind.Slug, patch); err != nil {
		return nil, err
	}
	rec, err := s.repo.Update(ctx, key, at, patch)
	if err != nil {
		s.logFailure("Update", domain.Identity{Key: key, Time: at}, err)
		return nil, err
	}
	if rec == nil {
		return nil, s.notFound(key, &at)
	}
	s.invalidate(ctx, key)
	return rec, nil
}

// Delete 删除；不存在返回 NotFound
func (s *RecordService[R, P]) Delete(ctx context.Context, key string, at time.Time) error {
	ok, err := s.repo.Delete(ctx, key, at)
	if err != nil {
		s.logFailure("Delete", domain.Identity{Key: key, Time: at}, err)
		return err
	}
	if !ok {
		return s.notFound(key, &at)
	}
	s.invalidate(ctx, key)
	return nil
}

// Statistics 窗口内聚合；部分记录类型追加派生指标
func (s *RecordService[R, P]) Statistics(ctx context.Context, key string, start, end *time.Time) (*repository.Statistics, error) {
	if err := CheckWindow(s.kind.Slug, start, end); err != nil {
		return nil, err
	}
	st, err := s.repo.Statistics(ctx, key, start, end)
	if err != nil {
		s.logger.Error("Statistics failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	if s.derive != nil {
		st.Derived = map[string]any{}
		s.derive(st)
	}
	return st, nil
}

// Window 分析用窗口扫描，结果按时间升序
// scan 只需给出过滤与比较条件；truncated 表示窗口内更早的匹配记录被截掉
func (s *RecordService[R, P]) Window(ctx context.Context, req WindowRequest, scan repository.SeriesQuery) ([]R, bool, error) {
	if err := CheckWindow(s.kind.Slug, req.Start, req.End); err != nil {
		return nil, false, err
	}
	if req.Limit != 0 {
		if err := CheckPaging(s.kind.Slug, req.Limit, 0); err != nil {
			return nil, false, err
		}
	}
	scan.Key, scan.Start, scan.End = req.Key, req.Start, req.End
	items, truncated, err := s.repo.Series(ctx, scan)
	if err != nil {
		if !apperr.Is(err, apperr.KindValidation) {
			s.logger.Error("Series failed", zap.String("key", req.Key), zap.Error(err))
		}
		return nil, false, err
	}
	if truncated {
		s.logger.Warn("Series truncated",
			zap.String("key", req.Key),
			zap.Int("rows", len(items)),
		)
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, truncated, nil
}

// CreateFrom 解码后创建
func (s *RecordService[R, P]) CreateFrom(ctx context.Context, decode Decoder, source string) (any, error) {
	var rec R
	if err := decode(&rec); err != nil {
		return nil, err
	}
	return s.Create(ctx, &rec, source)
}

func (s *RecordService[R, P]) GetAny(ctx context.Context, key string, at time.Time) (any, error) {
	return s.Get(ctx, key, at)
}

func (s *RecordService[R, P]) LatestAny(ctx context.Context, key string) (any, error) {
	return s.Latest(ctx, key)
}

func (s *RecordService[R, P]) ListAny(ctx context.Context, req ListRequest) (any, error) {
	return s.List(ctx, req)
}

// UpdateFrom 解码补丁后更新
func (s *RecordService[R, P]) UpdateFrom(ctx context.Context, key string, at time.Time, decode Decoder) (any, error) {
	var patch P
	if err := decode(&patch); err != nil {
		return nil, err
	}
	return s.Update(ctx, key, at, &patch)
}

func (s *RecordService[R, P]) invalidate(ctx context.Context, key string) {
	if s.deps.Cache == nil {
		return
	}
	if err := s.deps.Cache.Invalidate(ctx, s.kind.Slug, key); err != nil {
		s.logger.Warn("Latest cache invalidate failed", zap.String("key", key), zap.Error(err))
	}
}

// tooManyRows 未指定 limit 的明细扫描超过上限时拒绝，不返回部分结果
func (s *RecordService[R, P]) tooManyRows() error {
	return apperr.Validation(s.kind.Slug, "limit",
		fmt.Sprintf("is required when the window holds more than %d matching records", repository.MaxSeriesRows))
}

func (s *RecordService[R, P]) notFound(key string, at *time.Time) error {
	detail := s.kind.KeyColumn + " " + key
	if at != nil {
		detail += " at " + at.UTC().Format(time.RFC3339Nano)
	}
	return apperr.NotFound(s.kind.Slug, detail+" not found")
}

// logFailure 业务错误（校验、冲突）只记 Warn，持久化错误记 Error
func (s *RecordService[R, P]) logFailure(op string, id domain.Identity, err error) {
	fields := []zap.Field{zap.String("key", id.Key), zap.Error(err)}
	if !id.Time.IsZero() {
		fields = append(fields, zap.Time("time", id.Time))
	}
	if apperr.KindOf(err) == apperr.KindPersistence {
		s.logger.Error(op+" failed", fields...)
		return
	}
	s.logger.Warn(op+" rejected", fields...)
}
