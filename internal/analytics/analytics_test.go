package analytics

import (
	"testing"
	"time"

	"iotcare-data/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }
func str(v string) *string   { return &v }
func yes() *bool             { b := true; return &b }
func no() *bool              { b := false; return &b }

var base = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func at(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }

func TestHighConcentrationAlerts(t *testing.T) {
	readings := []domain.GasReading{
		{Time: at(0), PPMValue: f64(99)},
		{Time: at(1), PPMValue: f64(100)},
		{Time: at(2), PPMValue: f64(200)},
		{Time: at(3), PPMValue: f64(201)},
		{Time: at(4)},
	}
	rep := HighConcentrationAlerts("mq7-1", readings, 100)
	assert.Equal(t, 3, rep.TotalAlerts)
	assert.Equal(t, 1, rep.HighCount)
	assert.Equal(t, 2, rep.MediumCount)
	assert.Equal(t, LevelMedium, rep.Alerts[1].AlertLevel)
	assert.Equal(t, LevelHigh, rep.Alerts[2].AlertLevel)
}

func TestNoiseAlertsAndLevel(t *testing.T) {
	rep := NoiseAlerts("s1", []domain.SoundReading{
		{Time: at(0), DBValue: f64(65)},
		{Time: at(1), DBValue: f64(82.5)},
	}, 70)
	require.Len(t, rep.Alerts, 1)
	assert.Equal(t, 12.5, rep.Alerts[0].ExceededBy)
	assert.Equal(t, 82.5, *rep.MaxDB)

	assert.Equal(t, "very_quiet", NoiseLevel(29.9))
	assert.Equal(t, "quiet", NoiseLevel(30))
	assert.Equal(t, "moderate", NoiseLevel(50))
	assert.Equal(t, "loud", NoiseLevel(70))
	assert.Equal(t, "very_loud", NoiseLevel(90))
}

func TestFlameAndReedNewestFirst(t *testing.T) {
	flames := FlameDetections("f1", []domain.EdgeFlameEvent{
		{Time: at(0), FlameDetected: yes(), AlertLevel: str("high")},
		{Time: at(5), FlameDetected: no()},
		{Time: at(9), FlameDetected: yes(), AlertLevel: str("low")},
	})
	require.Equal(t, 2, flames.TotalAlerts)
	assert.Equal(t, at(9), flames.Alerts[0].Time)
	assert.Equal(t, 1, flames.HighAlertCount)

	reed := ReedActivations("r1", []domain.EdgeReedEvent{
		{Time: at(1), SwitchState: yes()},
		{Time: at(2), SwitchState: no()},
		{Time: at(3), SwitchState: yes()},
	})
	require.Equal(t, 2, reed.TotalActivations)
	assert.Equal(t, at(3), reed.Activations[0].Time)
}

func TestCardHistory(t *testing.T) {
	reads := []domain.RFIDReading{
		{Time: at(0), CardID: str("A"), ReadSuccess: yes()},
		{Time: at(1), CardID: str("B"), ReadSuccess: no()},
		{Time: at(2), CardID: str("A"), ReadSuccess: yes()},
		{Time: at(3)},
	}
	rep := CardHistory("rf", reads, "")
	assert.Equal(t, 4, rep.TotalRecords)
	assert.Equal(t, 2, rep.UniqueCards)
	assert.Len(t, rep.CardHistory["A"], 2)
	assert.Equal(t, at(2), rep.CardHistory["A"][0].Time)

	rep = CardHistory("rf", reads, "B")
	assert.True(t, rep.FilteredByCard)
	assert.Equal(t, 1, rep.TotalRecords)
	assert.Equal(t, 1, rep.UniqueCards)
}

func TestPIRMotionPatterns(t *testing.T) {
	w := Window{Start: base, End: base.Add(2 * time.Hour)}
	events := []domain.EdgePIREvent{
		{Time: at(0), MotionDetected: yes(), MotionDirection: str("left"), MotionSpeed: f64(0.5)},
		{Time: at(10), MotionDetected: yes(), MotionDirection: str("left"), MotionSpeed: f64(2)},
		{Time: at(70), MotionDetected: yes(), MotionDirection: str("right"), MotionSpeed: f64(4)},
		{Time: at(80), MotionDetected: no()},
	}
	p := PIRMotionPatterns("pir", events, w)
	assert.Equal(t, 7200, p.AnalysisWindow)
	assert.Equal(t, 3, p.TotalMotions)
	assert.Equal(t, 1.5, p.MotionFrequency)
	assert.Equal(t, []HourCount{{Hour: 8, Count: 2}, {Hour: 9, Count: 1}}, p.PeakHours)
	assert.Equal(t, map[string]int{"left": 2, "right": 1}, p.DirectionPatterns)
	assert.Equal(t, map[string]int{"slow": 1, "medium": 1, "fast": 1}, p.SpeedPatterns)

	empty := PIRMotionPatterns("pir", nil, w)
	assert.Equal(t, 0, empty.TotalMotions)
	assert.Empty(t, empty.PeakHours)
}

func TestTCRT5000MotionPatterns(t *testing.T) {
	w := Window{Start: base, End: at(60)}

	assert.Equal(t, "no_data", TCRT5000MotionPatterns("t", nil, w).MotionPattern)
	assert.Equal(t, "no_motion", TCRT5000MotionPatterns("t", []domain.TCRT5000Reading{
		{Time: at(1), ObjectDetected: no()},
	}, w).MotionPattern)

	p := TCRT5000MotionPatterns("t", []domain.TCRT5000Reading{
		{Time: at(2), ObjectDetected: no()},
		{Time: at(0), ObjectDetected: yes()},
		{Time: at(1), ObjectDetected: yes()},
	}, w)
	assert.Equal(t, "single_motion", p.MotionPattern)
	assert.Equal(t, 2, p.DetectionCount)
	assert.Equal(t, 120.0, p.AvgDuration)

	// an open period runs to the window end
	p = TCRT5000MotionPatterns("t", []domain.TCRT5000Reading{
		{Time: at(0), ObjectDetected: yes()}, {Time: at(1), ObjectDetected: no()},
		{Time: at(2), ObjectDetected: yes()}, {Time: at(3), ObjectDetected: no()},
		{Time: at(4), ObjectDetected: yes()}, {Time: at(5), ObjectDetected: no()},
		{Time: at(50), ObjectDetected: yes()},
	}, w)
	assert.Equal(t, "frequent_motion", p.MotionPattern)
	require.Len(t, p.DetectionPeriod, 4)
	assert.Equal(t, 600.0, p.DetectionPeriod[3].Duration)
}

func TestUltrasonicDistanceTrends(t *testing.T) {
	w := Window{Start: base, End: at(60)}
	mk := func(vals ...float64) []domain.UltrasonicReading {
		out := make([]domain.UltrasonicReading, len(vals))
		for i, v := range vals {
			out[i] = domain.UltrasonicReading{Time: at(i), DistanceCm: f64(v), MeasurementValid: yes()}
		}
		return out
	}
	assert.Equal(t, "no_data", UltrasonicDistanceTrends("u", nil, w).Trend)
	assert.Equal(t, "insufficient_data", UltrasonicDistanceTrends("u", mk(10), w).Trend)
	assert.Equal(t, "stable", UltrasonicDistanceTrends("u", mk(100, 100.5, 100), w).Trend)
	assert.Equal(t, "increasing_slowly", UltrasonicDistanceTrends("u", mk(100, 103, 106), w).Trend)
	assert.Equal(t, "decreasing_rapidly", UltrasonicDistanceTrends("u", mk(100, 90, 80), w).Trend)

	d := UltrasonicDistanceTrends("u", mk(100, 150, 200), w)
	assert.Equal(t, "increasing_rapidly", d.Trend)
	assert.Equal(t, 50.0, d.AvgChange)
	assert.Contains(t, d.Alerts, "rapid distance change")

	invalid := mk(100, 300)
	invalid[1].MeasurementValid = no()
	assert.Equal(t, "insufficient_data", UltrasonicDistanceTrends("u", invalid, w).Trend)
}

func TestEdgeTiltTrends(t *testing.T) {
	w := Window{Start: base, End: at(60)}
	tt := EdgeTiltTrends("tilt", []domain.EdgeTiltEvent{
		{Time: at(0), TiltDetected: yes(), TiltAngle: f64(10), TiltDirection: str("forward")},
		{Time: at(1), TiltDetected: yes(), TiltAngle: f64(30)},
		{Time: at(2), TiltDetected: yes(), TiltAngle: f64(60)},
		{Time: at(3), TiltDetected: no(), TiltAngle: f64(80)},
	}, w)
	assert.Equal(t, 3, tt.TotalTilts)
	assert.Equal(t, 3.0, tt.TiltFrequency)
	assert.Equal(t, map[string]int{"low": 1, "medium": 1, "high": 1}, tt.AngleTrends)
	assert.Equal(t, map[string]int{"forward": 1}, tt.DirectionPatterns)
}

func TestRTCSyncStats(t *testing.T) {
	s := RTCSyncStats("rtc", []domain.RTCStatus{
		{Time: at(0), DriftMs: i64(-20), SyncSource: str("ntp")},
		{Time: at(1), DriftMs: i64(40), SyncSource: str("ntp")},
		{Time: at(2), SyncSource: str("manual")},
	})
	assert.Equal(t, 3, s.TotalRecords)
	assert.Equal(t, map[string]int{"ntp": 2, "manual": 1}, s.SyncSources)
	assert.Equal(t, 10.0, s.AvgDriftMs)
	assert.Equal(t, int64(40), s.MaxDriftMs)
	assert.Equal(t, int64(-20), s.MinDriftMs)
	assert.Equal(t, 2, s.DriftSamples)
}

func TestRTCDriftAnalysis(t *testing.T) {
	a := RTCDriftAnalysis("rtc", nil)
	assert.Equal(t, "stable", a.DriftTrend)
	assert.NotEmpty(t, a.Recommendations)

	a = RTCDriftAnalysis("rtc", []domain.RTCStatus{{Time: at(0), DriftMs: i64(1)}})
	assert.Equal(t, "insufficient_data", a.DriftTrend)

	hourly := []domain.RTCStatus{
		{Time: base, DriftMs: i64(0)},
		{Time: base.Add(time.Hour), DriftMs: i64(5)},
		{Time: base.Add(2 * time.Hour), DriftMs: i64(10)},
	}
	a = RTCDriftAnalysis("rtc", hourly)
	assert.Equal(t, "very_stable", a.DriftTrend)
	assert.Equal(t, 90, a.StabilityScore)
	assert.Equal(t, 5.0, a.DriftRate)
	assert.Equal(t, 2, a.TotalSamples)

	erratic := []domain.RTCStatus{
		{Time: base, DriftMs: i64(0)},
		{Time: base.Add(time.Hour), DriftMs: i64(500)},
		{Time: base.Add(2 * time.Hour), DriftMs: i64(0)},
	}
	a = RTCDriftAnalysis("rtc", erratic)
	assert.Equal(t, "unstable", a.DriftTrend)
	assert.Equal(t, 30, a.StabilityScore)
	assert.Len(t, a.Recommendations, 2)
}

func TestRTCSyncHealth(t *testing.T) {
	now := base.Add(10 * time.Minute)

	h := RTCSyncHealth("rtc", nil, now)
	assert.Equal(t, HealthUnknown, h.HealthStatus)
	assert.Equal(t, HealthUnknown, h.DriftLevel)
	assert.Nil(t, h.LastSync)

	h = RTCSyncHealth("rtc", &domain.RTCStatus{Time: base, DriftMs: i64(3000), SyncSource: str("NTP")}, now)
	assert.Equal(t, HealthHealthy, h.HealthStatus)
	assert.Equal(t, "low", h.DriftLevel)
	assert.Equal(t, "excellent", h.SyncQuality)

	h = RTCSyncHealth("rtc", &domain.RTCStatus{Time: base, DriftMs: i64(3000), SyncSource: str("manual")}, now)
	assert.Equal(t, "poor", h.SyncQuality)
	assert.NotEmpty(t, h.Recommendations)

	h = RTCSyncHealth("rtc", &domain.RTCStatus{Time: base, DriftMs: i64(-12000)}, now)
	assert.Equal(t, HealthWarning, h.HealthStatus)
	assert.Equal(t, "moderate", h.DriftLevel)

	h = RTCSyncHealth("rtc", &domain.RTCStatus{Time: base, DriftMs: i64(500)}, base.Add(25*time.Hour))
	assert.Equal(t, HealthCritical, h.HealthStatus)
	assert.Equal(t, "very_low", h.DriftLevel)

	h = RTCSyncHealth("rtc", &domain.RTCStatus{Time: base, DriftMs: i64(500)}, base.Add(2*time.Hour))
	assert.Equal(t, HealthWarning, h.HealthStatus)
}

func TestHighPriorityButtons(t *testing.T) {
	out := HighPriorityButtons([]domain.ButtonEvent{
		{Time: at(0), EventType: str(domain.EventMedicationCheck)},
		{Time: at(1), EventType: str(domain.EventAssistanceRequest)},
		{Time: at(2), EventType: str(domain.EventCrisisAcknowledged)},
	})
	require.Len(t, out, 2)
	assert.Equal(t, 3, out[0].Priority)
	assert.Equal(t, 2, out[1].Priority)
}

func TestEnvironmentalAlerts(t *testing.T) {
	rep := EnvironmentalAlerts("u", []domain.HomeStateSnapshot{
		{Time: at(0), KitchenMQ5GasPPM: f64(150)},
		{Time: at(1), KitchenMQ5GasPPM: f64(10)},
		{Time: at(2), BedroomMQ7COPPM: f64(80), BathroomTempCelsius: f64(45)},
	})
	assert.Equal(t, 3, rep.TotalSnapshots)
	require.Equal(t, 2, rep.AlertSnapshots)
	assert.Equal(t, at(2), rep.Snapshots[0].Time)
	assert.Len(t, rep.Snapshots[0].Alerts, 2)
}

func TestExtremeTemperatures(t *testing.T) {
	out := ExtremeTemperatures([]domain.TemperatureReading{
		{Time: at(0), TemperatureCelsius: f64(-1)},
		{Time: at(1), TemperatureCelsius: f64(22)},
		{Time: at(2), TemperatureCelsius: f64(51), HumidityPercent: f64(40)},
	})
	require.Len(t, out, 2)
	assert.Equal(t, at(2), out[0].Time)
	assert.NotNil(t, out[0].HeatIndex)
}
