package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// NumericStats 非空数值列的聚合
type NumericStats struct {
	Count int64    `json:"count"`
	Min   *float64 `json:"min"`
	Avg   *float64 `json:"avg"`
	Max   *float64 `json:"max"`
}

// Statistics 窗口内的聚合结果，列集合由 Kind.Stats 决定
type Statistics struct {
	Key          string                      `json:"key"`
	StartTime    *time.Time                  `json:"start_time"`
	EndTime      *time.Time                  `json:"end_time"`
	TotalRecords int64                       `json:"total_records"`
	FirstTime    *time.Time                  `json:"first_time"`
	LastTime     *time.Time                  `json:"last_time"`
	Numeric      map[string]NumericStats     `json:"numeric"`
	Flags        map[string]int64            `json:"flags"`
	Groups       map[string]map[string]int64 `json:"groups"`
	Distinct     map[string]int64            `json:"distinct"`
	Derived      map[string]any              `json:"derived,omitempty"`
}

// Statistics 一次聚合查询 + 每个分组列一次 GROUP BY 查询
func (r *TimeSeriesRepository[R, P]) Statistics(ctx context.Context, key string, start, end *time.Time) (*Statistics, error) {
	spec := r.kind.Stats
	where, args, err := r.buildWhereClause(key, start, end, nil)
	if err != nil {
		return nil, err
	}

	selects := []string{"COUNT(*)", "MIN(time)", "MAX(time)"}
	for _, c := range spec.Numeric {
		selects = append(selects,
			fmt.Sprintf("COUNT(%s)", c),
			fmt.Sprintf("MIN(%s)::float8", c),
			fmt.Sprintf("AVG(%s)::float8", c),
			fmt.Sprintf("MAX(%s)::float8", c),
		)
	}
	for _, c := range spec.Flags {
		selects = append(selects, fmt.Sprintf("COUNT(*) FILTER (WHERE %s)", c))
	}
	for _, c := range spec.Distinct {
		selects = append(selects, fmt.Sprintf("COUNT(DISTINCT %s)", c))
	}
	query := fmt.Sprintf("SELECT %s FROM %s%s", strings.Join(selects, ", "), r.kind.Table, where)

	st := &Statistics{
		Key:       key,
		StartTime: start,
		EndTime:   end,
		Numeric:   map[string]NumericStats{},
		Flags:     map[string]int64{},
		Groups:    map[string]map[string]int64{},
		Distinct:  map[string]int64{},
	}

	var first, last sql.NullTime
	numeric := make([]struct {
		count         int64
		min, avg, max sql.NullFloat64
	}, len(spec.Numeric))
	flags := make([]int64, len(spec.Flags))
	distinct := make([]int64, len(spec.Distinct))

	dest := []any{&st.TotalRecords, &first, &last}
	for i := range numeric {
		dest = append(dest, &numeric[i].count, &numeric[i].min, &numeric[i].avg, &numeric[i].max)
	}
	for i := range flags {
		dest = append(dest, &flags[i])
	}
	for i := range distinct {
		dest = append(dest, &distinct[i])
	}

	if err := r.sess.QueryRowxContext(ctx, query, args...).Scan(dest...); err != nil {
		return nil, normalize(r.kind.Slug, fmt.Errorf("statistics %s: %w", r.kind.Table, err))
	}

	if first.Valid {
		st.FirstTime = &first.Time
	}
	if last.Valid {
		st.LastTime = &last.Time
	}
	for i, c := range spec.Numeric {
		n := numeric[i]
		st.Numeric[c] = NumericStats{
			Count: n.count,
			Min:   nullFloat(n.min),
			Avg:   nullFloat(n.avg),
			Max:   nullFloat(n.max),
		}
	}
	for i, c := range spec.Flags {
		st.Flags[c] = flags[i]
	}
	for i, c := range spec.Distinct {
		st.Distinct[c] = distinct[i]
	}

	for _, c := range spec.Groups {
		counts, err := r.groupCounts(ctx, c, where, args)
		if err != nil {
			return nil, err
		}
		st.Groups[c] = counts
	}
	return st, nil
}

func (r *TimeSeriesRepository[R, P]) groupCounts(ctx context.Context, col, where string, args []any) (map[string]int64, error) {
	cond := " WHERE " + col + " IS NOT NULL"
	if where != "" {
		cond = where + " AND " + col + " IS NOT NULL"
	}
	query := fmt.Sprintf("SELECT %s::text, COUNT(*) FROM %s%s GROUP BY %s ORDER BY %s", col, r.kind.Table, cond, col, col)

	rows, err := r.sess.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, normalize(r.kind.Slug, fmt.Errorf("group %s.%s: %w", r.kind.Table, col, err))
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var k string
		var n int64
		if err := rows.Scan(&k, &n); err != nil {
			return nil, normalize(r.kind.Slug, err)
		}
		out[k] = n
	}
	return out, normalize(r.kind.Slug, rows.Err())
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
