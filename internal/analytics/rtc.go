package analytics

import (
	"math"
	"strings"
	"time"

	"iotcare-data/internal/domain"
)

// SyncStats RTC 同步统计
type SyncStats struct {
	DeviceID     string         `json:"device_id"`
	TotalRecords int            `json:"total_records"`
	SyncSources  map[string]int `json:"sync_sources"`
	AvgDriftMs   float64        `json:"avg_drift_ms"`
	MaxDriftMs   int64          `json:"max_drift_ms"`
	MinDriftMs   int64          `json:"min_drift_ms"`
	DriftSamples int            `json:"drift_samples"`
	Truncated    bool           `json:"truncated"`
}

// RTCSyncStats 同步来源计数与漂移的均值/极值
func RTCSyncStats(deviceID string, samples []domain.RTCStatus) SyncStats {
	s := SyncStats{DeviceID: deviceID, TotalRecords: len(samples), SyncSources: map[string]int{}}
	var sum float64
	for _, r := range samples {
		if r.SyncSource != nil && *r.SyncSource != "" {
			s.SyncSources[*r.SyncSource]++
		}
		if r.DriftMs == nil {
			continue
		}
		v := *r.DriftMs
		if s.DriftSamples == 0 || v > s.MaxDriftMs {
			s.MaxDriftMs = v
		}
		if s.DriftSamples == 0 || v < s.MinDriftMs {
			s.MinDriftMs = v
		}
		sum += float64(v)
		s.DriftSamples++
	}
	if s.DriftSamples > 0 {
		s.AvgDriftMs = round2(sum / float64(s.DriftSamples))
	}
	return s
}

// DriftAnalysis RTC 漂移分析
type DriftAnalysis struct {
	DeviceID        string   `json:"device_id"`
	DriftTrend      string   `json:"drift_trend"`
	DriftRate       float64  `json:"drift_rate_ms_per_hour"`
	StabilityScore  int      `json:"stability_score"`
	StdDeviation    float64  `json:"std_deviation"`
	TotalSamples    int      `json:"total_samples"`
	Recommendations []string `json:"recommendations"`
	Truncated       bool     `json:"truncated"`
}

// RTCDriftAnalysis 相邻样本间的漂移速率（ms/小时），按其标准差评估稳定性
func RTCDriftAnalysis(deviceID string, samples []domain.RTCStatus) DriftAnalysis {
	a := DriftAnalysis{DeviceID: deviceID, DriftTrend: "stable"}
	if len(samples) == 0 {
		a.Recommendations = []string{"not enough data"}
		return a
	}

	var withDrift []domain.RTCStatus
	for _, r := range samples {
		if r.DriftMs != nil {
			withDrift = append(withDrift, r)
		}
	}
	if len(withDrift) < 2 {
		a.DriftTrend = "insufficient_data"
		a.Recommendations = []string{"more drift samples are needed"}
		return a
	}
	sortByTime(withDrift, func(r domain.RTCStatus) time.Time { return r.Time }, false)

	var rates []float64
	for i := 1; i < len(withDrift); i++ {
		hours := withDrift[i].Time.Sub(withDrift[i-1].Time).Hours()
		if hours <= 0 {
			continue
		}
		rates = append(rates, float64(*withDrift[i].DriftMs-*withDrift[i-1].DriftMs)/hours)
	}
	if len(rates) == 0 {
		a.Recommendations = []string{"no drift change observed"}
		return a
	}

	avg, std := meanStd(rates)
	a.DriftRate = round2(avg)
	a.StdDeviation = round2(std)
	a.TotalSamples = len(rates)
	switch {
	case std < 10:
		a.StabilityScore, a.DriftTrend = 90, "very_stable"
	case std < 50:
		a.StabilityScore, a.DriftTrend = 70, "stable"
	case std < 100:
		a.StabilityScore, a.DriftTrend = 50, "moderate"
	default:
		a.StabilityScore, a.DriftTrend = 30, "unstable"
	}
	switch {
	case a.StabilityScore < 50:
		a.Recommendations = []string{"shorten the RTC sync period", "use a more accurate time source"}
	case a.StabilityScore < 70:
		a.Recommendations = []string{"schedule regular RTC syncs"}
	default:
		a.Recommendations = []string{"current sync settings are adequate"}
	}
	return a
}

const (
	HealthHealthy  = "healthy"
	HealthWarning  = "warning"
	HealthCritical = "critical"
	HealthUnknown  = "unknown"
)

// SyncHealth 时间同步健康状态
type SyncHealth struct {
	DeviceID        string     `json:"device_id"`
	HealthStatus    string     `json:"health_status"`
	LastSync        *time.Time `json:"last_sync"`
	DriftLevel      string     `json:"drift_level"`
	SyncQuality     string     `json:"sync_quality"`
	CurrentDriftMs  *int64     `json:"current_drift_ms"`
	SyncSource      *string    `json:"sync_source"`
	Recommendations []string   `json:"recommendations"`
}

var preciseSources = map[string]bool{"ntp": true, "gps": true, "atomic": true}

// RTCSyncHealth 根据最新样本评估：漂移绝对值决定等级，距上次同步的时长可升级告警，
// 同步来源修正同步质量
func RTCSyncHealth(deviceID string, latest *domain.RTCStatus, now time.Time) SyncHealth {
	h := SyncHealth{DeviceID: deviceID, Recommendations: []string{}}
	if latest == nil {
		h.HealthStatus, h.DriftLevel, h.SyncQuality = HealthUnknown, HealthUnknown, HealthUnknown
		h.Recommendations = append(h.Recommendations, "no RTC status reported; verify the device clock reporting")
		return h
	}
	last := latest.Time
	h.LastSync = &last
	h.CurrentDriftMs = latest.DriftMs
	h.SyncSource = latest.SyncSource
	h.HealthStatus = HealthHealthy

	h.DriftLevel, h.SyncQuality = "low", "good"
	if latest.DriftMs != nil {
		drift := math.Abs(float64(*latest.DriftMs))
		switch {
		case drift < 1000:
			h.DriftLevel, h.SyncQuality = "very_low", "excellent"
		case drift < 5000:
			h.DriftLevel, h.SyncQuality = "low", "good"
		case drift < 30000:
			h.DriftLevel, h.SyncQuality = "moderate", "fair"
			h.HealthStatus = HealthWarning
			h.Recommendations = append(h.Recommendations, "shorten the sync period")
		default:
			h.DriftLevel, h.SyncQuality = "high", "poor"
			h.HealthStatus = HealthCritical
			h.Recommendations = append(h.Recommendations,
				"resync the RTC immediately", "use a more accurate time source")
		}
	}

	since := now.Sub(latest.Time)
	switch {
	case since > 24*time.Hour:
		if h.HealthStatus == HealthHealthy {
			h.HealthStatus = HealthCritical
		}
		h.Recommendations = append(h.Recommendations, "no sync for over 24 hours")
	case since > time.Hour:
		if h.HealthStatus == HealthHealthy {
			h.HealthStatus = HealthWarning
		}
		h.Recommendations = append(h.Recommendations, "schedule regular RTC syncs")
	}

	if latest.SyncSource == nil || *latest.SyncSource == "" {
		return h
	}
	switch source := strings.ToLower(*latest.SyncSource); {
	case preciseSources[source]:
		if h.SyncQuality == "good" {
			h.SyncQuality = "excellent"
		}
	case source == "manual" || source == "unknown":
		if h.SyncQuality == "good" {
			h.SyncQuality = "poor"
		}
		h.Recommendations = append(h.Recommendations, "use a more accurate sync source")
	}
	return h
}
