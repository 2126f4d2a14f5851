package service

import (
	"context"
	"errors"
	"time"

	"iotcare-data/internal/analytics"
	"iotcare-data/internal/apperr"
	"iotcare-data/internal/domain"
	"iotcare-data/internal/repository"

	"go.uber.org/zap"
)

const (
	DefaultGasThresholdPPM  = 100.0
	DefaultNoiseThresholdDB = 80.0
)

// truncate limit<=0 表示不截断
func truncate[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}

func ratio(n, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// GasService mq5 / mq7
type GasService struct {
	*RecordService[domain.GasReading, domain.GasPatch]
}

func NewGasService(repo RecordRepository[domain.GasReading, domain.GasPatch], deps Deps) *GasService {
	return &GasService{NewRecordService(repo, deps)}
}

// HighConcentrationAlerts ppm >= threshold 的读数
func (s *GasService) HighConcentrationAlerts(ctx context.Context, req WindowRequest, threshold float64) (*analytics.GasAlertReport, error) {
	if threshold <= 0 {
		return nil, apperr.Validation(s.kind.Slug, "threshold_ppm", "must be > 0")
	}
	readings, truncated, err := s.Window(ctx, req, repository.SeriesQuery{
		Where: []repository.Bound{{Column: "ppm_value", Op: ">=", Value: threshold}},
	})
	if err != nil {
		return nil, err
	}
	rep := analytics.HighConcentrationAlerts(req.Key, readings, threshold)
	rep.Alerts = truncate(rep.Alerts, req.Limit)
	rep.Truncated = truncated
	return &rep, nil
}

// SoundService 声音传感器
type SoundService struct {
	*RecordService[domain.SoundReading, domain.SoundPatch]
}

func NewSoundService(repo RecordRepository[domain.SoundReading, domain.SoundPatch], deps Deps) *SoundService {
	return &SoundService{NewRecordService(repo, deps, WithDerived[domain.SoundReading, domain.SoundPatch](func(st *repository.Statistics) {
		db := st.Numeric["db_value"]
		switch {
		case st.TotalRecords == 0:
			st.Derived["noise_level"] = "quiet"
		case db.Avg == nil:
			st.Derived["noise_level"] = "unknown"
		default:
			st.Derived["noise_level"] = analytics.NoiseLevel(*db.Avg)
		}
	}))}
}

// NoiseAlerts db_value >= threshold，threshold 0..200
func (s *SoundService) NoiseAlerts(ctx context.Context, req WindowRequest, threshold float64) (*analytics.NoiseAlertReport, error) {
	if threshold < 0 || threshold > 200 {
		return nil, apperr.Validation(s.kind.Slug, "threshold_db", "must be within 0..200")
	}
	readings, truncated, err := s.Window(ctx, req, repository.SeriesQuery{
		Where: []repository.Bound{{Column: "db_value", Op: ">=", Value: threshold}},
	})
	if err != nil {
		return nil, err
	}
	rep := analytics.NoiseAlerts(req.Key, readings, threshold)
	rep.Alerts = truncate(rep.Alerts, req.Limit)
	rep.Truncated = truncated
	return &rep, nil
}

func NewLoadCellService(repo RecordRepository[domain.LoadCellReading, domain.LoadCellPatch], deps Deps) *RecordService[domain.LoadCellReading, domain.LoadCellPatch] {
	return NewRecordService(repo, deps, WithDerived[domain.LoadCellReading, domain.LoadCellPatch](func(st *repository.Statistics) {
		st.Derived["calibration_rate"] = ratio(st.Flags["calibrated"], st.TotalRecords)
	}))
}

// EdgeFlameService 边缘火焰检测
type EdgeFlameService struct {
	*RecordService[domain.EdgeFlameEvent, domain.EdgeFlamePatch]
}

func NewEdgeFlameService(repo RecordRepository[domain.EdgeFlameEvent, domain.EdgeFlamePatch], deps Deps) *EdgeFlameService {
	return &EdgeFlameService{NewRecordService(repo, deps, WithDerived[domain.EdgeFlameEvent, domain.EdgeFlamePatch](func(st *repository.Statistics) {
		st.Derived["high_alert_count"] = st.Groups["alert_level"]["high"]
	}))}
}

func (s *EdgeFlameService) FlameDetections(ctx context.Context, req WindowRequest) (*analytics.FlameDetectionReport, error) {
	events, truncated, err := s.Window(ctx, req, repository.SeriesQuery{Filters: map[string]any{"flame_detected": true}})
	if err != nil {
		return nil, err
	}
	rep := analytics.FlameDetections(req.Key, events)
	rep.Alerts = truncate(rep.Alerts, req.Limit)
	rep.Truncated = truncated
	return &rep, nil
}

// EdgeReedService 边缘门磁
type EdgeReedService struct {
	*RecordService[domain.EdgeReedEvent, domain.EdgeReedPatch]
}

func NewEdgeReedService(repo RecordRepository[domain.EdgeReedEvent, domain.EdgeReedPatch], deps Deps) *EdgeReedService {
	return &EdgeReedService{NewRecordService(repo, deps)}
}

func (s *EdgeReedService) Activations(ctx context.Context, req WindowRequest) (*analytics.ReedActivationReport, error) {
	events, truncated, err := s.Window(ctx, req, repository.SeriesQuery{Filters: map[string]any{"switch_state": true}})
	if err != nil {
		return nil, err
	}
	rep := analytics.ReedActivations(req.Key, events)
	rep.Activations = truncate(rep.Activations, req.Limit)
	rep.Truncated = truncated
	return &rep, nil
}

// EdgePIRService 边缘人体红外
type EdgePIRService struct {
	*RecordService[domain.EdgePIREvent, domain.EdgePIRPatch]
}

func NewEdgePIRService(repo RecordRepository[domain.EdgePIREvent, domain.EdgePIRPatch], deps Deps) *EdgePIRService {
	return &EdgePIRService{NewRecordService(repo, deps)}
}

func (s *EdgePIRService) MotionPatterns(ctx context.Context, req AnalysisRequest) (*analytics.MotionPatterns, error) {
	w, err := req.window(s.kind.Slug, s.deps.now())
	if err != nil {
		return nil, err
	}
	events, truncated, err := s.Window(ctx, WindowRequest{Key: req.Key, Start: &w.Start, End: &w.End},
		repository.SeriesQuery{Filters: map[string]any{"motion_detected": true}})
	if err != nil {
		return nil, err
	}
	rep := analytics.PIRMotionPatterns(req.Key, events, w)
	rep.Truncated = truncated
	return &rep, nil
}

// EdgeTiltService 边缘倾斜
type EdgeTiltService struct {
	*RecordService[domain.EdgeTiltEvent, domain.EdgeTiltPatch]
}

func NewEdgeTiltService(repo RecordRepository[domain.EdgeTiltEvent, domain.EdgeTiltPatch], deps Deps) *EdgeTiltService {
	return &EdgeTiltService{NewRecordService(repo, deps)}
}

func (s *EdgeTiltService) TiltTrends(ctx context.Context, req AnalysisRequest) (*analytics.TiltTrends, error) {
	w, err := req.window(s.kind.Slug, s.deps.now())
	if err != nil {
		return nil, err
	}
	events, truncated, err := s.Window(ctx, WindowRequest{Key: req.Key, Start: &w.Start, End: &w.End},
		repository.SeriesQuery{Filters: map[string]any{"tilt_detected": true}})
	if err != nil {
		return nil, err
	}
	rep := analytics.EdgeTiltTrends(req.Key, events, w)
	rep.Truncated = truncated
	return &rep, nil
}

// TCRT5000Service 红外反射接近传感器
type TCRT5000Service struct {
	*RecordService[domain.TCRT5000Reading, domain.TCRT5000Patch]
}

func NewTCRT5000Service(repo RecordRepository[domain.TCRT5000Reading, domain.TCRT5000Patch], deps Deps) *TCRT5000Service {
	return &TCRT5000Service{NewRecordService(repo, deps)}
}

func (s *TCRT5000Service) MotionPatterns(ctx context.Context, req AnalysisRequest) (*analytics.ProximityPatterns, error) {
	w, err := req.window(s.kind.Slug, s.deps.now())
	if err != nil {
		return nil, err
	}
	readings, truncated, err := s.Window(ctx, WindowRequest{Key: req.Key, Start: &w.Start, End: &w.End}, repository.SeriesQuery{})
	if err != nil {
		return nil, err
	}
	rep := analytics.TCRT5000MotionPatterns(req.Key, readings, w)
	rep.Truncated = truncated
	return &rep, nil
}

// UltrasonicService 超声波测距
type UltrasonicService struct {
	*RecordService[domain.UltrasonicReading, domain.UltrasonicPatch]
}

func NewUltrasonicService(repo RecordRepository[domain.UltrasonicReading, domain.UltrasonicPatch], deps Deps) *UltrasonicService {
	return &UltrasonicService{NewRecordService(repo, deps)}
}

func (s *UltrasonicService) DistanceTrends(ctx context.Context, req AnalysisRequest) (*analytics.DistanceTrends, error) {
	w, err := req.window(s.kind.Slug, s.deps.now())
	if err != nil {
		return nil, err
	}
	readings, truncated, err := s.Window(ctx, WindowRequest{Key: req.Key, Start: &w.Start, End: &w.End}, repository.SeriesQuery{})
	if err != nil {
		return nil, err
	}
	rep := analytics.UltrasonicDistanceTrends(req.Key, readings, w)
	rep.Truncated = truncated
	return &rep, nil
}

// RFIDService 刷卡
type RFIDService struct {
	*RecordService[domain.RFIDReading, domain.RFIDPatch]
}

func NewRFIDService(repo RecordRepository[domain.RFIDReading, domain.RFIDPatch], deps Deps) *RFIDService {
	return &RFIDService{NewRecordService(repo, deps, WithDerived[domain.RFIDReading, domain.RFIDPatch](func(st *repository.Statistics) {
		st.Derived["unique_cards"] = st.Distinct["card_id"]
		st.Derived["read_success_rate"] = ratio(st.Flags["read_success"], st.TotalRecords)
	}))}
}

// CardHistory cardID 为空时返回全部卡
func (s *RFIDService) CardHistory(ctx context.Context, req WindowRequest, cardID string) (*analytics.CardHistoryReport, error) {
	var scan repository.SeriesQuery
	if cardID != "" {
		scan.Filters = map[string]any{"card_id": cardID}
	}
	reads, truncated, err := s.Window(ctx, req, scan)
	if err != nil {
		return nil, err
	}
	rep := analytics.CardHistory(req.Key, reads, cardID)
	rep.Truncated = truncated
	return &rep, nil
}

// RTCService 设备 RTC 状态
type RTCService struct {
	*RecordService[domain.RTCStatus, domain.RTCPatch]
}

func NewRTCService(repo RecordRepository[domain.RTCStatus, domain.RTCPatch], deps Deps) *RTCService {
	return &RTCService{NewRecordService(repo, deps)}
}

func (s *RTCService) SyncStats(ctx context.Context, req WindowRequest) (*analytics.SyncStats, error) {
	samples, truncated, err := s.Window(ctx, req, repository.SeriesQuery{})
	if err != nil {
		return nil, err
	}
	rep := analytics.RTCSyncStats(req.Key, samples)
	rep.Truncated = truncated
	return &rep, nil
}

func (s *RTCService) DriftAnalysis(ctx context.Context, req WindowRequest) (*analytics.DriftAnalysis, error) {
	samples, truncated, err := s.Window(ctx, req, repository.SeriesQuery{})
	if err != nil {
		return nil, err
	}
	rep := analytics.RTCDriftAnalysis(req.Key, samples)
	rep.Truncated = truncated
	return &rep, nil
}

// Health 没有任何状态记录时返回 unknown，而不是 NotFound
func (s *RTCService) Health(ctx context.Context, deviceID string) (*analytics.SyncHealth, error) {
	latest, err := s.Latest(ctx, deviceID)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}
	rep := analytics.RTCSyncHealth(deviceID, latest, s.deps.now())
	return &rep, nil
}

// TemperatureService 温湿度
type TemperatureService struct {
	*RecordService[domain.TemperatureReading, domain.TemperaturePatch]
}

func NewTemperatureService(repo RecordRepository[domain.TemperatureReading, domain.TemperaturePatch], deps Deps) *TemperatureService {
	return &TemperatureService{NewRecordService(repo, deps)}
}

// Derived 最新读数及其派生值
func (s *TemperatureService) Derived(ctx context.Context, deviceID string) (*domain.TemperatureDerived, error) {
	latest, err := s.Latest(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	d := domain.DeriveTemperature(*latest)
	return &d, nil
}

// Extreme ≤0 或 ≥50 的读数，最新在前
func (s *TemperatureService) Extreme(ctx context.Context, req WindowRequest) ([]domain.TemperatureDerived, error) {
	readings, truncated, err := s.Window(ctx, req, repository.SeriesQuery{
		AnyOf: []repository.Bound{
			{Column: "temperature_celsius", Op: "<=", Value: domain.FreezingCelsius},
			{Column: "temperature_celsius", Op: ">=", Value: domain.ExtremeHeatCelsius},
		},
		Limit: req.Limit,
	})
	if err != nil {
		return nil, err
	}
	if truncated && req.Limit == 0 {
		return nil, s.tooManyRows()
	}
	return truncate(analytics.ExtremeTemperatures(readings), req.Limit), nil
}

// ButtonService 呼叫按钮
type ButtonService struct {
	*RecordService[domain.ButtonEvent, domain.ButtonPatch]
}

func NewButtonService(repo RecordRepository[domain.ButtonEvent, domain.ButtonPatch], deps Deps) *ButtonService {
	return &ButtonService{NewRecordService(repo, deps)}
}

// HighPriority priority >= 2，最新在前
func (s *ButtonService) HighPriority(ctx context.Context, req WindowRequest) ([]domain.ButtonEvent, error) {
	events, truncated, err := s.Window(ctx, req, repository.SeriesQuery{
		AnyOf: []repository.Bound{
			{Column: "event_type", Op: "=", Value: domain.EventCrisisAcknowledged},
			{Column: "event_type", Op: "=", Value: domain.EventAssistanceRequest},
		},
		Limit: req.Limit,
	})
	if err != nil {
		return nil, err
	}
	if truncated && req.Limit == 0 {
		return nil, s.tooManyRows()
	}
	return truncate(analytics.HighPriorityButtons(events), req.Limit), nil
}

// HomeStateService 家庭状态快照
type HomeStateService struct {
	*RecordService[domain.HomeStateSnapshot, domain.HomeStatePatch]
}

func NewHomeStateService(repo RecordRepository[domain.HomeStateSnapshot, domain.HomeStatePatch], deps Deps) *HomeStateService {
	s := &HomeStateService{}
	s.RecordService = NewRecordService(repo, deps, WithAfterCreate[domain.HomeStateSnapshot, domain.HomeStatePatch](
		func(ctx context.Context, snap *domain.HomeStateSnapshot) { s.notifyIfEmergency(ctx, snap) },
	))
	return s
}

func (s *HomeStateService) EnvironmentalAlerts(ctx context.Context, req WindowRequest) (*analytics.EnvironmentalAlertReport, error) {
	snaps, truncated, err := s.Window(ctx, req, repository.SeriesQuery{})
	if err != nil {
		return nil, err
	}
	rep := analytics.EnvironmentalAlerts(req.Key, snaps)
	rep.Snapshots = truncate(rep.Snapshots, req.Limit)
	rep.Truncated = truncated
	return &rep, nil
}

// ChangeAlertLevel 由外部决策写入的告警等级
func (s *HomeStateService) ChangeAlertLevel(ctx context.Context, userID string, at time.Time, in domain.AlertLevelInput) (*domain.HomeStateSnapshot, error) {
	if err := domain.ValidateStruct(s.kind.Slug, in); err != nil {
		return nil, err
	}
	level := in.AlertLevel
	snap, err := s.Update(ctx, userID, at, &domain.HomeStatePatch{AlertLevel: &level, AlertReason: in.Reason})
	if err != nil {
		return nil, err
	}
	s.notifyIfEmergency(ctx, snap)
	return snap, nil
}

func (s *HomeStateService) notifyIfEmergency(ctx context.Context, snap *domain.HomeStateSnapshot) {
	if s.deps.Notifier == nil || !snap.IsEmergency() {
		return
	}
	if err := s.deps.Notifier.NotifyEmergency(ctx, snap); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("NotifyEmergency failed",
			zap.String("user_id", snap.UserID),
			zap.Time("time", snap.Time),
			zap.Error(err),
		)
	}
}
