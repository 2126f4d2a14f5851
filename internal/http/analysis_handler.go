package httpapi

import (
	"context"
	"net/http"

	"iotcare-data/internal/domain"
	"iotcare-data/internal/service"

	"github.com/gorilla/mux"
)

// windowRequest start_time、end_time 与可选 limit（0 表示不截断）
func windowRequest(r *http.Request, key string) (service.WindowRequest, error) {
	q := r.URL.Query()
	start, end, err := timeWindow(q)
	if err != nil {
		return service.WindowRequest{}, err
	}
	limit, err := queryInt(q, "limit", 0)
	if err != nil {
		return service.WindowRequest{}, err
	}
	if _, given := q["limit"]; given {
		if err := service.CheckPaging("", limit, 0); err != nil {
			return service.WindowRequest{}, err
		}
	}
	return service.WindowRequest{Key: key, Start: start, End: end, Limit: limit}, nil
}

// analysisRequest analysis_window 默认 3600 秒，窗口截止于 end_time（缺省为当前时间）
func analysisRequest(r *http.Request, kind, key string) (service.AnalysisRequest, error) {
	q := r.URL.Query()
	end, err := optionalTime(q, "end_time")
	if err != nil {
		return service.AnalysisRequest{}, err
	}
	seconds, err := queryInt(q, "analysis_window", service.DefaultAnalysisWindow)
	if err != nil {
		return service.AnalysisRequest{}, err
	}
	if err := service.CheckAnalysisWindow(kind, seconds); err != nil {
		return service.AnalysisRequest{}, err
	}
	return service.AnalysisRequest{Key: key, End: end, AnalysisWindow: seconds}, nil
}

// windowed 解析窗口参数后以具体服务类型执行 fn；fixedKind 为空时取路由变量 kind
func windowed[S any](h *Handler, fixedKind string, fn func(ctx context.Context, svc S, req service.WindowRequest) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		kind := kindOf(r, fixedKind)
		key := vars["device_id"]
		if key == "" {
			key = vars["user_id"]
		}
		req, err := windowRequest(r, key)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		h.serve(w, r, kind, http.StatusOK, func(svc any) (any, error) {
			typed, err := expect[S](svc, kind)
			if err != nil {
				return nil, err
			}
			return fn(r.Context(), typed, req)
		})
	}
}

// analysed analysis_window 类分析
func analysed[S any](h *Handler, kind string, fn func(ctx context.Context, svc S, req service.AnalysisRequest) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := analysisRequest(r, kind, mux.Vars(r)["device_id"])
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		h.serve(w, r, kind, http.StatusOK, func(svc any) (any, error) {
			typed, err := expect[S](svc, kind)
			if err != nil {
				return nil, err
			}
			return fn(r.Context(), typed, req)
		})
	}
}

func kindOf(r *http.Request, fixed string) string {
	if fixed != "" {
		return fixed
	}
	return mux.Vars(r)["kind"]
}

// registerAnalysisRoutes 必须先于通用的 /{kind}/{device_id}/{timestamp} 注册
func (h *Handler) registerAnalysisRoutes(api *mux.Router) {
	get := func(path string, fn http.HandlerFunc) {
		api.HandleFunc(path, fn).Methods(http.MethodGet)
	}

	get("/{kind:mq5|mq7}/{device_id}/alerts/high-concentration", h.HighConcentrationAlerts)
	get("/sound/{device_id}/alerts/noise", h.NoiseAlerts)
	get("/edge-flame/{device_id}/alerts/flame-detection", windowed(h, domain.KindEdgeFlame,
		func(ctx context.Context, svc *service.EdgeFlameService, req service.WindowRequest) (any, error) {
			return svc.FlameDetections(ctx, req)
		}))
	get("/edge-pir/{device_id}/analysis/motion-patterns", analysed(h, domain.KindEdgePIR,
		func(ctx context.Context, svc *service.EdgePIRService, req service.AnalysisRequest) (any, error) {
			return svc.MotionPatterns(ctx, req)
		}))
	get("/tcrt5000/{device_id}/analysis/motion-patterns", analysed(h, domain.KindTCRT5000,
		func(ctx context.Context, svc *service.TCRT5000Service, req service.AnalysisRequest) (any, error) {
			return svc.MotionPatterns(ctx, req)
		}))
	get("/ultrasonic/{device_id}/analysis/distance-trends", analysed(h, domain.KindUltrasonic,
		func(ctx context.Context, svc *service.UltrasonicService, req service.AnalysisRequest) (any, error) {
			return svc.DistanceTrends(ctx, req)
		}))
	get("/edge-reed/{device_id}/history/activations", windowed(h, domain.KindEdgeReed,
		func(ctx context.Context, svc *service.EdgeReedService, req service.WindowRequest) (any, error) {
			return svc.Activations(ctx, req)
		}))
	get("/edge-tilt/{device_id}/analysis/tilt-trends", analysed(h, domain.KindEdgeTilt,
		func(ctx context.Context, svc *service.EdgeTiltService, req service.AnalysisRequest) (any, error) {
			return svc.TiltTrends(ctx, req)
		}))
	get("/rfid/{device_id}/history", h.RFIDCardHistory)
	get("/device-rtc/{device_id}/stats/sync", windowed(h, domain.KindDeviceRTC,
		func(ctx context.Context, svc *service.RTCService, req service.WindowRequest) (any, error) {
			return svc.SyncStats(ctx, req)
		}))
	get("/device-rtc/{device_id}/stats/drift", windowed(h, domain.KindDeviceRTC,
		func(ctx context.Context, svc *service.RTCService, req service.WindowRequest) (any, error) {
			return svc.DriftAnalysis(ctx, req)
		}))
	get("/device-rtc/{device_id}/health", h.RTCHealth)
	get("/temperature/{device_id}/derived", h.TemperatureDerived)
	get("/temperature/{device_id}/extreme", windowed(h, domain.KindTemperature,
		func(ctx context.Context, svc *service.TemperatureService, req service.WindowRequest) (any, error) {
			return svc.Extreme(ctx, req)
		}))
	get("/button/{device_id}/high-priority", windowed(h, domain.KindButton,
		func(ctx context.Context, svc *service.ButtonService, req service.WindowRequest) (any, error) {
			return svc.HighPriority(ctx, req)
		}))
	get("/home-state/{user_id}/environmental-alerts", windowed(h, domain.KindHomeState,
		func(ctx context.Context, svc *service.HomeStateService, req service.WindowRequest) (any, error) {
			return svc.EnvironmentalAlerts(ctx, req)
		}))
	api.HandleFunc("/home-state/{user_id}/{timestamp}/alert-level", h.ChangeAlertLevel).Methods(http.MethodPut)
}

// HighConcentrationAlerts GET /{mq5|mq7}/{device_id}/alerts/high-concentration?threshold_ppm
func (h *Handler) HighConcentrationAlerts(w http.ResponseWriter, r *http.Request) {
	threshold, err := queryFloat(r.URL.Query(), "threshold_ppm", service.DefaultGasThresholdPPM)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	windowed(h, "", func(ctx context.Context, svc *service.GasService, req service.WindowRequest) (any, error) {
		return svc.HighConcentrationAlerts(ctx, req, threshold)
	})(w, r)
}

func (h *Handler) NoiseAlerts(w http.ResponseWriter, r *http.Request) {
	threshold, err := queryFloat(r.URL.Query(), "threshold_db", service.DefaultNoiseThresholdDB)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	windowed(h, domain.KindSound, func(ctx context.Context, svc *service.SoundService, req service.WindowRequest) (any, error) {
		return svc.NoiseAlerts(ctx, req, threshold)
	})(w, r)
}

func (h *Handler) RFIDCardHistory(w http.ResponseWriter, r *http.Request) {
	cardID := r.URL.Query().Get("card_id")
	windowed(h, domain.KindRFID, func(ctx context.Context, svc *service.RFIDService, req service.WindowRequest) (any, error) {
		return svc.CardHistory(ctx, req, cardID)
	})(w, r)
}

func (h *Handler) RTCHealth(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["device_id"]
	h.serve(w, r, domain.KindDeviceRTC, http.StatusOK, func(svc any) (any, error) {
		rtc, err := expect[*service.RTCService](svc, domain.KindDeviceRTC)
		if err != nil {
			return nil, err
		}
		return rtc.Health(r.Context(), deviceID)
	})
}

func (h *Handler) TemperatureDerived(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["device_id"]
	h.serve(w, r, domain.KindTemperature, http.StatusOK, func(svc any) (any, error) {
		temp, err := expect[*service.TemperatureService](svc, domain.KindTemperature)
		if err != nil {
			return nil, err
		}
		return temp.Derived(r.Context(), deviceID)
	})
}

// ChangeAlertLevel PUT /home-state/{user_id}/{timestamp}/alert-level
func (h *Handler) ChangeAlertLevel(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	at, err := pathTimestamp(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var in domain.AlertLevelInput
	if err := bodyDecoder(r, h.maxBodyBytes)(&in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.serve(w, r, domain.KindHomeState, http.StatusOK, func(svc any) (any, error) {
		hs, err := expect[*service.HomeStateService](svc, domain.KindHomeState)
		if err != nil {
			return nil, err
		}
		return hs.ChangeAlertLevel(r.Context(), userID, at, in)
	})
}
