package httpapi

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"iotcare-data/internal/domain"
	"iotcare-data/internal/metrics"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RouterConfig 构造路由所需的依赖
type RouterConfig struct {
	Handler        *Handler
	Logger         *zap.Logger
	ServiceName    string
	Version        string
	AllowedOrigins []string
	RateLimiter    *RateLimiter // nil 表示不限流
	TrustedProxies TrustedProxies
	RequestTimeout time.Duration
}

// NewRouter 注册全部路由与中间件
// 中间件顺序：recover → 请求日志 → 指标 → CORS → 限流
func NewRouter(cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()
	r.Use(Recover(cfg.Logger), RequestLogging(cfg.Logger, cfg.TrustedProxies), Metrics, NewCORS(cfg.AllowedOrigins).Handler, cfg.RateLimiter.Handler)
	r.NotFoundHandler = fallback(cfg, http.StatusNotFound)
	r.MethodNotAllowedHandler = fallback(cfg, http.StatusMethodNotAllowed)

	r.HandleFunc("/health", health(cfg)).Methods(http.MethodGet)
	r.HandleFunc("/", root(cfg)).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	if cfg.RequestTimeout > 0 {
		api.Use(timeout(cfg.RequestTimeout))
	}
	h := cfg.Handler

	// 身份实体
	api.HandleFunc("/users", h.CreateUser).Methods(http.MethodPost)
	api.HandleFunc("/users/create", h.CreateUser).Methods(http.MethodPost)
	api.HandleFunc("/users/list", h.ListUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/{user_id}", h.GetUser).Methods(http.MethodGet)
	api.HandleFunc("/users/{user_id}", h.UpdateUser).Methods(http.MethodPut)
	api.HandleFunc("/users/{user_id}", h.DeleteUser).Methods(http.MethodDelete)
	api.HandleFunc("/users/{user_id}/role", h.ChangeUserRole).Methods(http.MethodPut)
	api.HandleFunc("/users/{user_id}/devices", h.ListUserDevices).Methods(http.MethodGet)

	api.HandleFunc("/devices", h.RegisterDevice).Methods(http.MethodPost)
	api.HandleFunc("/devices", h.ListDevices).Methods(http.MethodGet)
	api.HandleFunc("/devices/{device_id}", h.GetDevice).Methods(http.MethodGet)
	api.HandleFunc("/devices/{device_id}", h.UpdateDevice).Methods(http.MethodPut)
	api.HandleFunc("/devices/{device_id}", h.DeleteDevice).Methods(http.MethodDelete)
	api.HandleFunc("/devices/{device_id}/assign", h.AssignDevice).Methods(http.MethodPost)
	api.HandleFunc("/devices/{device_id}/unassign", h.UnassignDevice).Methods(http.MethodPost)
	api.HandleFunc("/devices/{device_id}/status", h.DeviceStatus).Methods(http.MethodGet)

	api.HandleFunc("/user-profiles", h.ListProfiles).Methods(http.MethodGet)
	api.HandleFunc("/user-profiles/gender/{gender}", h.ListProfilesByGender).Methods(http.MethodGet)
	api.HandleFunc("/user-profiles/age-range/{min_age}/{max_age}", h.ListProfilesByAge).Methods(http.MethodGet)
	api.HandleFunc("/user-profiles/search/medical-history", h.SearchMedicalHistory).Methods(http.MethodGet)
	api.HandleFunc("/user-profiles/{user_id}", h.CreateProfile).Methods(http.MethodPost)
	api.HandleFunc("/user-profiles/{user_id}", h.GetProfile).Methods(http.MethodGet)
	api.HandleFunc("/user-profiles/{user_id}", h.UpdateProfile).Methods(http.MethodPut)
	api.HandleFunc("/user-profiles/{user_id}", h.DeleteProfile).Methods(http.MethodDelete)

	api.HandleFunc("/user-relationships", h.CreateRelationship).Methods(http.MethodPost)
	api.HandleFunc("/user-relationships", h.ListRelationships).Methods(http.MethodGet)
	api.HandleFunc("/user-relationships/user/{user_id}/as-subject", h.ListRelationshipsAsSubject).Methods(http.MethodGet)
	api.HandleFunc("/user-relationships/user/{user_id}/as-target", h.ListRelationshipsAsTarget).Methods(http.MethodGet)
	api.HandleFunc("/user-relationships/type/{relationship_type}", h.ListRelationshipsByType).Methods(http.MethodGet)
	api.HandleFunc("/user-relationships/{relationship_id}", h.GetRelationship).Methods(http.MethodGet)
	api.HandleFunc("/user-relationships/{relationship_id}/status", h.UpdateRelationshipStatus).Methods(http.MethodPut)
	api.HandleFunc("/user-relationships/{relationship_id}", h.DeleteRelationship).Methods(http.MethodDelete)

	// 分析路由先于通用记录路由
	h.registerAnalysisRoutes(api)

	// 通用记录路由
	k := "/{kind:" + kindPattern() + "}"
	api.HandleFunc(k+"/create", h.CreateRecord).Methods(http.MethodPost)
	api.HandleFunc(k+"/list", h.ListRecords).Methods(http.MethodGet)
	api.HandleFunc(k+"/export", h.ExportRecords).Methods(http.MethodGet)
	api.HandleFunc(k+"/latest/{device_id}", h.LatestRecord).Methods(http.MethodGet)
	api.HandleFunc(k+"/{device_id}/statistics", h.RecordStatistics).Methods(http.MethodGet)
	api.HandleFunc(k+"/{device_id}/{timestamp}", h.GetRecord).Methods(http.MethodGet)
	api.HandleFunc(k+"/{device_id}/{timestamp}", h.UpdateRecord).Methods(http.MethodPut)
	api.HandleFunc(k+"/{device_id}/{timestamp}", h.DeleteRecord).Methods(http.MethodDelete)

	return r
}

// kindPattern 已知记录类型 slug 的路由正则
func kindPattern() string {
	slugs := domain.KindSlugs()
	quoted := make([]string, len(slugs))
	for i, s := range slugs {
		quoted[i] = regexp.QuoteMeta(s)
	}
	return strings.Join(quoted, "|")
}

func timeout(d time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func health(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "healthy",
			"service":   cfg.ServiceName,
			"version":   cfg.Version,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func root(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"message": cfg.ServiceName + " Service",
			"version": cfg.Version,
			"health":  "/health",
		})
	}
}

// fallback 未匹配路由同样返回 {error, detail, path}
func fallback(cfg RouterConfig, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			NewCORS(cfg.AllowedOrigins).Handler(http.NotFoundHandler()).ServeHTTP(w, r)
			return
		}
		name := "NotFound"
		if status == http.StatusMethodNotAllowed {
			name = "MethodNotAllowed"
		}
		writeJSON(w, status, ErrorBody{
			Error:  name,
			Detail: http.StatusText(status),
			Path:   r.URL.Path,
		})
	})
}
