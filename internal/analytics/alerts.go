package analytics

import (
	"time"

	"iotcare-data/internal/domain"
)

const (
	LevelHigh   = "HIGH"
	LevelMedium = "MEDIUM"
)

// GasAlert 高浓度告警
type GasAlert struct {
	Time         time.Time `json:"timestamp"`
	PPMValue     float64   `json:"ppm_value"`
	GasType      *string   `json:"gas_type"`
	ThresholdPPM float64   `json:"threshold_ppm"`
	AlertLevel   string    `json:"alert_level"`
}

// GasAlertReport 高浓度告警汇总
type GasAlertReport struct {
	DeviceID     string     `json:"device_id"`
	ThresholdPPM float64    `json:"threshold_ppm"`
	TotalAlerts  int        `json:"total_alerts"`
	HighCount    int        `json:"high_count"`
	MediumCount  int        `json:"medium_count"`
	Alerts       []GasAlert `json:"alerts"`
	Truncated    bool       `json:"truncated"`
}

// HighConcentrationAlerts ppm >= threshold 的读数；超过两倍阈值为 HIGH，其余 MEDIUM
func HighConcentrationAlerts(deviceID string, readings []domain.GasReading, threshold float64) GasAlertReport {
	rep := GasAlertReport{DeviceID: deviceID, ThresholdPPM: threshold, Alerts: []GasAlert{}}
	for _, r := range readings {
		if r.PPMValue == nil || *r.PPMValue < threshold {
			continue
		}
		level := LevelMedium
		if *r.PPMValue > 2*threshold {
			level = LevelHigh
			rep.HighCount++
		} else {
			rep.MediumCount++
		}
		rep.Alerts = append(rep.Alerts, GasAlert{
			Time:         r.Time,
			PPMValue:     *r.PPMValue,
			GasType:      r.GasType,
			ThresholdPPM: threshold,
			AlertLevel:   level,
		})
	}
	rep.TotalAlerts = len(rep.Alerts)
	return rep
}

// NoiseAlert 噪音超限
type NoiseAlert struct {
	Time        time.Time `json:"timestamp"`
	DBValue     float64   `json:"db_value"`
	ThresholdDB float64   `json:"threshold_db"`
	ExceededBy  float64   `json:"exceeded_by"`
}

type NoiseAlertReport struct {
	DeviceID    string       `json:"device_id"`
	ThresholdDB float64      `json:"threshold_db"`
	TotalAlerts int          `json:"total_alerts"`
	MaxDB       *float64     `json:"max_db"`
	Alerts      []NoiseAlert `json:"alerts"`
	Truncated   bool         `json:"truncated"`
}

// NoiseAlerts db_value >= threshold 的读数
func NoiseAlerts(deviceID string, readings []domain.SoundReading, threshold float64) NoiseAlertReport {
	rep := NoiseAlertReport{DeviceID: deviceID, ThresholdDB: threshold, Alerts: []NoiseAlert{}}
	for _, r := range readings {
		if r.DBValue == nil || *r.DBValue < threshold {
			continue
		}
		v := *r.DBValue
		if rep.MaxDB == nil || v > *rep.MaxDB {
			rep.MaxDB = &v
		}
		rep.Alerts = append(rep.Alerts, NoiseAlert{
			Time:        r.Time,
			DBValue:     v,
			ThresholdDB: threshold,
			ExceededBy:  round2(v - threshold),
		})
	}
	rep.TotalAlerts = len(rep.Alerts)
	return rep
}

// NoiseLevel 平均分贝的等级
func NoiseLevel(avgDB float64) string {
	switch {
	case avgDB < 30:
		return "very_quiet"
	case avgDB < 50:
		return "quiet"
	case avgDB < 70:
		return "moderate"
	case avgDB < 90:
		return "loud"
	default:
		return "very_loud"
	}
}

// FlameDetection 边缘火焰检测事件
type FlameDetection struct {
	Time       time.Time   `json:"timestamp"`
	Confidence *float64    `json:"confidence"`
	AlertLevel *string     `json:"alert_level"`
	RawPayload domain.JSON `json:"raw_payload"`
}

type FlameDetectionReport struct {
	DeviceID       string           `json:"device_id"`
	TotalAlerts    int              `json:"total_alerts"`
	HighAlertCount int              `json:"high_alert_count"`
	Alerts         []FlameDetection `json:"alerts"`
	Truncated      bool             `json:"truncated"`
}

// FlameDetections flame_detected=true 的事件，最新在前
func FlameDetections(deviceID string, events []domain.EdgeFlameEvent) FlameDetectionReport {
	rep := FlameDetectionReport{DeviceID: deviceID, Alerts: []FlameDetection{}}
	for _, e := range newestFirst(events, func(e domain.EdgeFlameEvent) time.Time { return e.Time }) {
		if !isTrue(e.FlameDetected) {
			continue
		}
		if e.AlertLevel != nil && *e.AlertLevel == "high" {
			rep.HighAlertCount++
		}
		rep.Alerts = append(rep.Alerts, FlameDetection{
			Time:       e.Time,
			Confidence: e.Confidence,
			AlertLevel: e.AlertLevel,
			RawPayload: e.RawPayload,
		})
	}
	rep.TotalAlerts = len(rep.Alerts)
	return rep
}

// ReedActivation 门磁吸合事件
type ReedActivation struct {
	Time             time.Time `json:"timestamp"`
	Confidence       *float64  `json:"confidence"`
	MagneticStrength *float64  `json:"magnetic_strength"`
	ProcessingTime   *float64  `json:"processing_time"`
}

type ReedActivationReport struct {
	DeviceID         string           `json:"device_id"`
	TotalActivations int              `json:"total_activations"`
	Activations      []ReedActivation `json:"activations"`
	Truncated        bool             `json:"truncated"`
}

// ReedActivations switch_state=true 的事件，最新在前
func ReedActivations(deviceID string, events []domain.EdgeReedEvent) ReedActivationReport {
	rep := ReedActivationReport{DeviceID: deviceID, Activations: []ReedActivation{}}
	for _, e := range newestFirst(events, func(e domain.EdgeReedEvent) time.Time { return e.Time }) {
		if !isTrue(e.SwitchState) {
			continue
		}
		rep.Activations = append(rep.Activations, ReedActivation{
			Time:             e.Time,
			Confidence:       e.Confidence,
			MagneticStrength: e.MagneticStrength,
			ProcessingTime:   e.ProcessingTime,
		})
	}
	rep.TotalActivations = len(rep.Activations)
	return rep
}

// CardRead 一次刷卡
type CardRead struct {
	Time        time.Time `json:"timestamp"`
	ReadSuccess *bool     `json:"read_success"`
	CardType    *string   `json:"card_type"`
}

type CardHistoryReport struct {
	DeviceID       string                `json:"device_id"`
	TotalRecords   int                   `json:"total_records"`
	UniqueCards    int                   `json:"unique_cards"`
	FilteredByCard bool                  `json:"filtered_by_card"`
	CardHistory    map[string][]CardRead `json:"card_history"`
	Truncated      bool                  `json:"truncated"`
}

// CardHistory 按卡号分组的刷卡记录，组内最新在前；无卡号的记录只计入总数
func CardHistory(deviceID string, reads []domain.RFIDReading, cardFilter string) CardHistoryReport {
	rep := CardHistoryReport{
		DeviceID:       deviceID,
		FilteredByCard: cardFilter != "",
		CardHistory:    map[string][]CardRead{},
	}
	for _, r := range newestFirst(reads, func(r domain.RFIDReading) time.Time { return r.Time }) {
		if cardFilter != "" && (r.CardID == nil || *r.CardID != cardFilter) {
			continue
		}
		rep.TotalRecords++
		if r.CardID == nil || *r.CardID == "" {
			continue
		}
		rep.CardHistory[*r.CardID] = append(rep.CardHistory[*r.CardID], CardRead{
			Time:        r.Time,
			ReadSuccess: r.ReadSuccess,
			CardType:    r.CardType,
		})
	}
	rep.UniqueCards = len(rep.CardHistory)
	return rep
}

// HighPriorityButtons priority >= 2 的按钮事件，最新在前
func HighPriorityButtons(events []domain.ButtonEvent) []domain.ButtonEvent {
	out := []domain.ButtonEvent{}
	for _, e := range newestFirst(events, func(e domain.ButtonEvent) time.Time { return e.Time }) {
		e.Decorate()
		if e.Priority >= 2 {
			out = append(out, e)
		}
	}
	return out
}

// ExtremeTemperatures 极端温度读数，最新在前
func ExtremeTemperatures(readings []domain.TemperatureReading) []domain.TemperatureDerived {
	out := []domain.TemperatureDerived{}
	for _, r := range newestFirst(readings, func(r domain.TemperatureReading) time.Time { return r.Time }) {
		if r.TemperatureCelsius == nil || !domain.IsExtremeTemperature(*r.TemperatureCelsius) {
			continue
		}
		out = append(out, domain.DeriveTemperature(r))
	}
	return out
}

// SnapshotAlert 单个快照的环境告警
type SnapshotAlert struct {
	Time       time.Time `json:"timestamp"`
	AlertLevel *string   `json:"alert_level"`
	Alerts     []string  `json:"alerts"`
}

type EnvironmentalAlertReport struct {
	UserID         string          `json:"user_id"`
	TotalSnapshots int             `json:"total_snapshots"`
	AlertSnapshots int             `json:"alert_snapshots"`
	Snapshots      []SnapshotAlert `json:"snapshots"`
	Truncated      bool            `json:"truncated"`
}

// EnvironmentalAlerts 含环境告警的快照，最新在前
func EnvironmentalAlerts(userID string, snaps []domain.HomeStateSnapshot) EnvironmentalAlertReport {
	rep := EnvironmentalAlertReport{UserID: userID, TotalSnapshots: len(snaps), Snapshots: []SnapshotAlert{}}
	for _, s := range newestFirst(snaps, func(s domain.HomeStateSnapshot) time.Time { return s.Time }) {
		alerts := s.EnvironmentalAlerts()
		if len(alerts) == 0 {
			continue
		}
		rep.Snapshots = append(rep.Snapshots, SnapshotAlert{Time: s.Time, AlertLevel: s.AlertLevel, Alerts: alerts})
	}
	rep.AlertSnapshots = len(rep.Snapshots)
	return rep
}

// newestFirst 按时间降序排列的副本
func newestFirst[T any](in []T, at func(T) time.Time) []T {
	out := make([]T, len(in))
	copy(out, in)
	sortByTime(out, at, true)
	return out
}
