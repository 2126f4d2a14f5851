// Package analytics 传感器时间序列的纯计算（告警、模式、趋势），不访问数据库
package analytics

import (
	"math"
	"sort"
	"time"
)

// HourCount 某小时内的事件数
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// peakHours 按事件数降序取前 n 个小时；同数时小时小者在前
func peakHours(times []time.Time, n int) []HourCount {
	counts := map[int]int{}
	for _, t := range times {
		counts[t.UTC().Hour()]++
	}
	out := make([]HourCount, 0, len(counts))
	for h, c := range counts {
		out = append(out, HourCount{Hour: h, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Hour < out[j].Hour
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// perHour 窗口内每小时的事件频率
func perHour(total int, windowSeconds int) float64 {
	if windowSeconds <= 0 {
		return 0
	}
	return round2(float64(total) / (float64(windowSeconds) / 3600))
}

func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var v float64
	for _, x := range xs {
		v += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(v / float64(len(xs)))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func countStrings(values []*string) map[string]int {
	out := map[string]int{}
	for _, v := range values {
		if v != nil && *v != "" {
			out[*v]++
		}
	}
	return out
}

func isTrue(b *bool) bool { return b != nil && *b }
