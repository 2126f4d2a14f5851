package analytics

import (
	"math"
	"sort"
	"time"

	"iotcare-data/internal/domain"
)

// Window 分析窗口 [Start, End]
type Window struct {
	Start time.Time
	End   time.Time
}

// Seconds 窗口长度（秒）
func (w Window) Seconds() int { return int(w.End.Sub(w.Start) / time.Second) }

func sortByTime[T any](s []T, at func(T) time.Time, desc bool) {
	sort.SliceStable(s, func(i, j int) bool {
		if desc {
			return at(s[i]).After(at(s[j]))
		}
		return at(s[i]).Before(at(s[j]))
	})
}

// MotionPatterns 人体红外运动模式
type MotionPatterns struct {
	DeviceID          string         `json:"device_id"`
	AnalysisWindow    int            `json:"analysis_window_seconds"`
	TotalMotions      int            `json:"total_motions"`
	MotionFrequency   float64        `json:"motion_frequency"`
	PeakHours         []HourCount    `json:"peak_hours"`
	DirectionPatterns map[string]int `json:"direction_patterns"`
	SpeedPatterns     map[string]int `json:"speed_patterns"`
	Truncated         bool           `json:"truncated"`
}

// PIRMotionPatterns 只统计 motion_detected=true 的事件；速度 <1 slow，<3 medium，其余 fast
func PIRMotionPatterns(deviceID string, events []domain.EdgePIREvent, w Window) MotionPatterns {
	p := MotionPatterns{
		DeviceID:          deviceID,
		AnalysisWindow:    w.Seconds(),
		PeakHours:         []HourCount{},
		DirectionPatterns: map[string]int{},
		SpeedPatterns:     map[string]int{"slow": 0, "medium": 0, "fast": 0},
	}
	var times []time.Time
	var dirs []*string
	for _, e := range events {
		if !isTrue(e.MotionDetected) {
			continue
		}
		times = append(times, e.Time)
		dirs = append(dirs, e.MotionDirection)
		if e.MotionSpeed != nil {
			switch {
			case *e.MotionSpeed < 1:
				p.SpeedPatterns["slow"]++
			case *e.MotionSpeed < 3:
				p.SpeedPatterns["medium"]++
			default:
				p.SpeedPatterns["fast"]++
			}
		}
	}
	p.TotalMotions = len(times)
	if p.TotalMotions == 0 {
		return p
	}
	p.MotionFrequency = perHour(p.TotalMotions, p.AnalysisWindow)
	p.PeakHours = peakHours(times, 3)
	p.DirectionPatterns = countStrings(dirs)
	return p
}

// DetectionPeriod 连续检测到物体的区间
type DetectionPeriod struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Duration float64   `json:"duration_seconds"`
}

// ProximityPatterns 红外反射传感器运动模式
type ProximityPatterns struct {
	DeviceID        string            `json:"device_id"`
	AnalysisWindow  int               `json:"analysis_window_seconds"`
	TotalRecords    int               `json:"total_records"`
	MotionPattern   string            `json:"motion_pattern"`
	DetectionCount  int               `json:"detection_count"`
	PeriodCount     int               `json:"detection_periods"`
	AvgDuration     float64           `json:"avg_duration_seconds"`
	DetectionPeriod []DetectionPeriod `json:"detection_periods_detail"`
	Truncated       bool              `json:"truncated"`
}

// TCRT5000MotionPatterns 把连续的 object_detected=true 合并为区间；
// 区间在下一条 false 读数处结束，末尾未结束的区间截止到窗口终点
func TCRT5000MotionPatterns(deviceID string, readings []domain.TCRT5000Reading, w Window) ProximityPatterns {
	p := ProximityPatterns{
		DeviceID:        deviceID,
		AnalysisWindow:  w.Seconds(),
		TotalRecords:    len(readings),
		DetectionPeriod: []DetectionPeriod{},
	}
	if len(readings) == 0 {
		p.MotionPattern = "no_data"
		return p
	}
	sorted := make([]domain.TCRT5000Reading, len(readings))
	copy(sorted, readings)
	sortByTime(sorted, func(r domain.TCRT5000Reading) time.Time { return r.Time }, false)

	var start *time.Time
	for _, r := range sorted {
		detected := isTrue(r.ObjectDetected)
		if detected {
			p.DetectionCount++
		}
		switch {
		case detected && start == nil:
			t := r.Time
			start = &t
		case !detected && start != nil:
			p.DetectionPeriod = append(p.DetectionPeriod, period(*start, r.Time))
			start = nil
		}
	}
	if p.DetectionCount == 0 {
		p.MotionPattern = "no_motion"
		return p
	}
	if start != nil {
		p.DetectionPeriod = append(p.DetectionPeriod, period(*start, w.End))
	}

	p.PeriodCount = len(p.DetectionPeriod)
	switch {
	case p.PeriodCount == 0:
		p.MotionPattern = "continuous_detection"
	case p.PeriodCount == 1:
		p.MotionPattern = "single_motion"
	case p.PeriodCount <= 3:
		p.MotionPattern = "sparse_motion"
	default:
		p.MotionPattern = "frequent_motion"
	}
	var total float64
	for _, d := range p.DetectionPeriod {
		total += d.Duration
	}
	if p.PeriodCount > 0 {
		p.AvgDuration = round2(total / float64(p.PeriodCount))
	}
	return p
}

func period(start, end time.Time) DetectionPeriod {
	return DetectionPeriod{Start: start, End: end, Duration: end.Sub(start).Seconds()}
}

// DistanceTrends 超声波距离趋势
type DistanceTrends struct {
	DeviceID       string   `json:"device_id"`
	AnalysisWindow int      `json:"analysis_window_seconds"`
	TotalRecords   int      `json:"total_records"`
	Trend          string   `json:"trend"`
	AvgChange      float64  `json:"avg_change_cm"`
	StdDeviation   float64  `json:"std_deviation"`
	MinDistance    *float64 `json:"min_distance_cm"`
	MaxDistance    *float64 `json:"max_distance_cm"`
	Alerts         []string `json:"alerts"`
	Truncated      bool     `json:"truncated"`
}

// UltrasonicDistanceTrends 只使用 measurement_valid=true 的读数，按相邻差值的均值分类
func UltrasonicDistanceTrends(deviceID string, readings []domain.UltrasonicReading, w Window) DistanceTrends {
	d := DistanceTrends{DeviceID: deviceID, AnalysisWindow: w.Seconds(), Alerts: []string{}}

	var valid []domain.UltrasonicReading
	for _, r := range readings {
		if isTrue(r.MeasurementValid) {
			valid = append(valid, r)
		}
	}
	d.TotalRecords = len(valid)
	switch {
	case len(valid) == 0:
		d.Trend = "no_data"
		return d
	case len(valid) < 2:
		d.Trend = "insufficient_data"
		return d
	}
	sortByTime(valid, func(r domain.UltrasonicReading) time.Time { return r.Time }, false)

	var distances []float64
	for _, r := range valid {
		if r.DistanceCm != nil {
			distances = append(distances, *r.DistanceCm)
		}
	}
	if len(distances) < 2 {
		d.Trend = "insufficient_distance_data"
		return d
	}

	changes := make([]float64, 0, len(distances)-1)
	lo, hi := distances[0], distances[0]
	for i := 1; i < len(distances); i++ {
		changes = append(changes, distances[i]-distances[i-1])
		lo = math.Min(lo, distances[i])
		hi = math.Max(hi, distances[i])
	}
	avg, std := meanStd(changes)
	d.AvgChange = round2(avg)
	d.StdDeviation = round2(std)
	d.MinDistance, d.MaxDistance = &lo, &hi

	switch {
	case math.Abs(avg) < 1:
		d.Trend = "stable"
	case avg > 5:
		d.Trend = "increasing_rapidly"
	case avg > 1:
		d.Trend = "increasing_slowly"
	case avg < -5:
		d.Trend = "decreasing_rapidly"
	default:
		d.Trend = "decreasing_slowly"
	}
	if math.Abs(avg) > 10 {
		d.Alerts = append(d.Alerts, "rapid distance change")
	}
	if std > 20 {
		d.Alerts = append(d.Alerts, "unstable distance measurement")
	}
	return d
}

// TiltTrends 倾斜趋势
type TiltTrends struct {
	DeviceID          string         `json:"device_id"`
	AnalysisWindow    int            `json:"analysis_window_seconds"`
	TotalTilts        int            `json:"total_tilts"`
	TiltFrequency     float64        `json:"tilt_frequency"`
	PeakHours         []HourCount    `json:"peak_hours"`
	AngleTrends       map[string]int `json:"angle_trends"`
	DirectionPatterns map[string]int `json:"direction_patterns"`
	Truncated         bool           `json:"truncated"`
}

// EdgeTiltTrends 只统计 tilt_detected=true；角度 <15 low，<45 medium，其余 high
func EdgeTiltTrends(deviceID string, events []domain.EdgeTiltEvent, w Window) TiltTrends {
	t := TiltTrends{
		DeviceID:          deviceID,
		AnalysisWindow:    w.Seconds(),
		PeakHours:         []HourCount{},
		AngleTrends:       map[string]int{"low": 0, "medium": 0, "high": 0},
		DirectionPatterns: map[string]int{},
	}
	var times []time.Time
	var dirs []*string
	for _, e := range events {
		if !isTrue(e.TiltDetected) {
			continue
		}
		times = append(times, e.Time)
		dirs = append(dirs, e.TiltDirection)
		if e.TiltAngle != nil {
			switch {
			case *e.TiltAngle < 15:
				t.AngleTrends["low"]++
			case *e.TiltAngle < 45:
				t.AngleTrends["medium"]++
			default:
				t.AngleTrends["high"]++
			}
		}
	}
	t.TotalTilts = len(times)
	if t.TotalTilts == 0 {
		return t
	}
	t.TiltFrequency = perHour(t.TotalTilts, t.AnalysisWindow)
	t.PeakHours = peakHours(times, 3)
	t.DirectionPatterns = countStrings(dirs)
	return t
}
