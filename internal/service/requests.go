package service

import (
	"time"

	"iotcare-data/internal/analytics"
	"iotcare-data/internal/apperr"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000

	DefaultAnalysisWindow = 3600
	MinAnalysisWindow     = 60
	MaxAnalysisWindow     = 86400
)

// ListRequest 列表查询请求
type ListRequest struct {
	Key     string         // device_id（home-state 为 user_id），可选
	Start   *time.Time     // 可选
	End     *time.Time     // 可选
	Filters map[string]any // 已按 Kind.Filters 类型解析
	Limit   int            // 1..1000
	Offset  int            // >= 0
}

// WindowRequest 带时间窗口的分析请求
type WindowRequest struct {
	Key   string
	Start *time.Time
	End   *time.Time
	Limit int // 0 表示不截断
}

// AnalysisRequest 滚动窗口分析请求；窗口为 [end-AnalysisWindow, end]，end 缺省为当前时间
type AnalysisRequest struct {
	Key            string
	End            *time.Time
	AnalysisWindow int // 秒，0 表示默认 3600
}

// CheckPaging limit 1..1000，offset >= 0
func CheckPaging(record string, limit, offset int) error {
	if limit < 1 || limit > MaxLimit {
		return apperr.Validation(record, "limit", "must be within 1..1000")
	}
	if offset < 0 {
		return apperr.Validation(record, "offset", "must be >= 0")
	}
	return nil
}

// CheckWindow 闭区间，start 不得晚于 end
func CheckWindow(record string, start, end *time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return apperr.Validation(record, "start_time", "must not be after end_time")
	}
	return nil
}

// CheckAnalysisWindow 60..86400 秒
func CheckAnalysisWindow(record string, seconds int) error {
	if seconds < MinAnalysisWindow || seconds > MaxAnalysisWindow {
		return apperr.Validation(record, "analysis_window", "must be within 60..86400")
	}
	return nil
}

func (r AnalysisRequest) window(record string, now time.Time) (analytics.Window, error) {
	seconds := r.AnalysisWindow
	if seconds == 0 {
		seconds = DefaultAnalysisWindow
	}
	if err := CheckAnalysisWindow(record, seconds); err != nil {
		return analytics.Window{}, err
	}
	end := now
	if r.End != nil {
		end = *r.End
	}
	return analytics.Window{Start: end.Add(-time.Duration(seconds) * time.Second), End: end}, nil
}
