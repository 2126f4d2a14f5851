package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"iotcare-data/internal/apperr"
	"iotcare-data/internal/domain"

	"github.com/jmoiron/sqlx"
)

const (
	// MaxListLimit list 查询的硬上限
	MaxListLimit = 1000
	// MaxSeriesRows 分析用窗口扫描的硬上限，可容纳 86400 秒窗口内的 1Hz 采样
	MaxSeriesRows = 100000
)

// ListQuery 时序列表查询条件
type ListQuery struct {
	Key     string // device_id 或 user_id，空表示不过滤
	Start   *time.Time
	End     *time.Time
	Filters map[string]any // 仅允许 Kind.Filters 中声明的列
	Limit   int
	Offset  int
}

// Bound 单列比较条件，Op 只允许 >=、<=、=
type Bound struct {
	Column string
	Op     string
	Value  any
}

// SeriesQuery 分析用窗口扫描条件
type SeriesQuery struct {
	Key     string
	Start   *time.Time
	End     *time.Time
	Filters map[string]any
	Where   []Bound // 全部满足
	AnyOf   []Bound // 至少满足一个
	Limit   int     // 0 或超过 MaxSeriesRows 时取 MaxSeriesRows
}

// TimeSeriesRepository 单一记录类型的时序数据访问
// R 为记录结构体，P 为补丁结构体
type TimeSeriesRepository[R domain.Record, P any] struct {
	sess    Session
	kind    *domain.Kind
	cols    string
	columns map[string]bool
}

// NewTimeSeriesRepository 创建时序 Repository，kind 必须已注册
func NewTimeSeriesRepository[R domain.Record, P any](sess Session, kind string) *TimeSeriesRepository[R, P] {
	var zero R
	names := columnNames(columnsOf(reflect.TypeOf(zero)))
	columns := make(map[string]bool, len(names))
	for _, n := range names {
		columns[n] = true
	}
	return &TimeSeriesRepository[R, P]{
		sess:    sess,
		kind:    domain.MustKind(kind),
		cols:    strings.Join(names, ", "),
		columns: columns,
	}
}

// Kind 记录类型描述
func (r *TimeSeriesRepository[R, P]) Kind() *domain.Kind { return r.kind }

// Create 插入一条记录并返回落库后的记录
func (r *TimeSeriesRepository[R, P]) Create(ctx context.Context, rec *R) (*R, error) {
	if p, ok := any(rec).(domain.Preparer); ok {
		p.Prepare()
	}
	cols, args := insertArgs(rec)
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		r.kind.Table, strings.Join(cols, ", "), placeholders(1, len(args)), r.cols,
	)

	var out R
	err := withTx(ctx, r.sess, func(tx *sqlx.Tx) error {
		return tx.QueryRowxContext(ctx, query, args...).StructScan(&out)
	})
	if err != nil {
		return nil, normalize(r.kind.Slug, fmt.Errorf("insert %s: %w", r.kind.Table, err))
	}
	decorate(&out)
	return &out, nil
}

// Get 按 (key, time) 查询；不存在时返回 nil, nil
func (r *TimeSeriesRepository[R, P]) Get(ctx context.Context, key string, at time.Time) (*R, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1 AND time = $2",
		r.cols, r.kind.Table, r.kind.KeyColumn,
	)
	return r.one(ctx, r.sess, query, key, at)
}

// Latest 该 key 下时间最新的记录；不存在时返回 nil, nil
func (r *TimeSeriesRepository[R, P]) Latest(ctx context.Context, key string) (*R, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1 ORDER BY time DESC LIMIT 1",
		r.cols, r.kind.Table, r.kind.KeyColumn,
	)
	return r.one(ctx, r.sess, query, key)
}

// List 窗口与等值过滤，按 time DESC, key ASC 排序
func (r *TimeSeriesRepository[R, P]) List(ctx context.Context, q ListQuery) ([]R, error) {
	limit := q.Limit
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	where, args, err := r.buildWhereClause(q.Key, q.Start, q.End, q.Filters)
	if err != nil {
		return nil, err
	}
	argN := len(args) + 1
	query := fmt.Sprintf(
		"SELECT %s FROM %s%s ORDER BY time DESC, %s ASC LIMIT $%d OFFSET $%d",
		r.cols, r.kind.Table, where, r.kind.KeyColumn, argN, argN+1,
	)
	args = append(args, limit, q.Offset)
	return r.many(ctx, query, args...)
}

// Series 窗口内满足条件的记录，按时间降序，最多 limit 条
// truncated 为 true 表示还有更早的匹配记录未返回
func (r *TimeSeriesRepository[R, P]) Series(ctx context.Context, q SeriesQuery) ([]R, bool, error) {
	where, args, err := r.buildWhereClause(q.Key, q.Start, q.End, q.Filters)
	if err != nil {
		return nil, false, err
	}
	conds, args, err := r.boundConds(args, q.Where, q.AnyOf)
	if err != nil {
		return nil, false, err
	}
	if len(conds) > 0 {
		if where == "" {
			where = " WHERE " + strings.Join(conds, " AND ")
		} else {
			where += " AND " + strings.Join(conds, " AND ")
		}
	}

	limit := MaxSeriesRows
	if q.Limit > 0 && q.Limit < limit {
		limit = q.Limit
	}
	query := fmt.Sprintf(
		"SELECT %s FROM %s%s ORDER BY time DESC LIMIT %d",
		r.cols, r.kind.Table, where, limit+1,
	)
	items, err := r.many(ctx, query, args...)
	if err != nil {
		return nil, false, err
	}
	if len(items) > limit {
		return items[:limit], true, nil
	}
	return items, false, nil
}

// boundConds Where 逐条 AND，AnyOf 合并为一个括号内的 OR
func (r *TimeSeriesRepository[R, P]) boundConds(args []any, where, anyOf []Bound) ([]string, []any, error) {
	render := func(b Bound) (string, error) {
		if !r.columns[b.Column] {
			return "", apperr.Validation(r.kind.Slug, b.Column, "is not a column")
		}
		switch b.Op {
		case ">=", "<=", "=":
		default:
			return "", fmt.Errorf("unsupported operator %q on %s", b.Op, b.Column)
		}
		args = append(args, b.Value)
		return fmt.Sprintf("%s %s $%d", b.Column, b.Op, len(args)), nil
	}

	var conds []string
	for _, b := range where {
		c, err := render(b)
		if err != nil {
			return nil, nil, err
		}
		conds = append(conds, c)
	}
	if len(anyOf) > 0 {
		alts := make([]string, 0, len(anyOf))
		for _, b := range anyOf {
			c, err := render(b)
			if err != nil {
				return nil, nil, err
			}
			alts = append(alts, c)
		}
		conds = append(conds, "("+strings.Join(alts, " OR ")+")")
	}
	return conds, args, nil
}

// Update 按补丁更新；记录不存在时返回 nil, nil
func (r *TimeSeriesRepository[R, P]) Update(ctx context.Context, key string, at time.Time, patch *P) (*R, error) {
	sets, args := setClause(patch, 3)
	if len(sets) == 0 {
		return r.Get(ctx, key, at)
	}
	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = $1 AND time = $2 RETURNING %s",
		r.kind.Table, strings.Join(sets, ", "), r.kind.KeyColumn, r.cols,
	)
	args = append([]any{key, at}, args...)

	var out *R
	err := withTx(ctx, r.sess, func(tx *sqlx.Tx) error {
		rec, err := r.one(ctx, tx, query, args...)
		out = rec
		return err
	})
	if err != nil {
		return nil, normalize(r.kind.Slug, err)
	}
	return out, nil
}

// Delete 删除记录；返回是否有行被删除
func (r *TimeSeriesRepository[R, P]) Delete(ctx context.Context, key string, at time.Time) (bool, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1 AND time = $2", r.kind.Table, r.kind.KeyColumn)

	var affected int64
	err := withTx(ctx, r.sess, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query, key, at)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, normalize(r.kind.Slug, fmt.Errorf("delete %s: %w", r.kind.Table, err))
	}
	return affected > 0, nil
}

// buildWhereClause 构建 WHERE 子句；过滤列必须在 Kind.Filters 中声明
func (r *TimeSeriesRepository[R, P]) buildWhereClause(key string, start, end *time.Time, filters map[string]any) (string, []any, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if key != "" {
		add(r.kind.KeyColumn+" = $%d", key)
	}
	if start != nil {
		add("time >= $%d", *start)
	}
	if end != nil {
		add("time <= $%d", *end)
	}
	for _, f := range r.kind.Filters {
		v, ok := filters[f.Param]
		if !ok {
			continue
		}
		add(f.Param+" = $%d", v)
	}
	for param := range filters {
		if _, ok := r.kind.HasFilter(param); !ok {
			return "", nil, apperr.Validation(r.kind.Slug, param, "is not a supported filter")
		}
	}

	if len(where) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(where, " AND "), args, nil
}

func (r *TimeSeriesRepository[R, P]) one(ctx context.Context, q querier, query string, args ...any) (*R, error) {
	var out R
	err := q.QueryRowxContext(ctx, query, args...).StructScan(&out)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, normalize(r.kind.Slug, fmt.Errorf("query %s: %w", r.kind.Table, err))
	}
	decorate(&out)
	return &out, nil
}

func (r *TimeSeriesRepository[R, P]) many(ctx context.Context, query string, args ...any) ([]R, error) {
	rows, err := r.sess.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, normalize(r.kind.Slug, fmt.Errorf("query %s: %w", r.kind.Table, err))
	}
	defer rows.Close()

	out := []R{}
	for rows.Next() {
		var rec R
		if err := rows.StructScan(&rec); err != nil {
			return nil, normalize(r.kind.Slug, fmt.Errorf("scan %s: %w", r.kind.Table, err))
		}
		decorate(&rec)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, normalize(r.kind.Slug, err)
	}
	return out, nil
}

func decorate(rec any) {
	if d, ok := rec.(domain.Decorator); ok {
		d.Decorate()
	}
}
