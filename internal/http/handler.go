package httpapi

import (
	"net/http"
	"time"

	"iotcare-data/internal/apperr"
	"iotcare-data/internal/wiring"

	"go.uber.org/zap"
)

const defaultMaxBodyBytes = 1 << 20

// Handler 所有 API 路由共享的依赖
type Handler struct {
	reg          *wiring.Registry
	logger       *zap.Logger
	maxBodyBytes int64
	now          func() time.Time
}

// NewHandler maxBodyBytes<=0 时使用 1 MiB
func NewHandler(reg *wiring.Registry, logger *zap.Logger, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &Handler{
		reg:          reg,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// serve 打开 key 对应的 Scope，执行 fn 并写出结果；每条路径都会关闭 Scope
func (h *Handler) serve(w http.ResponseWriter, r *http.Request, key string, status int, fn func(svc any) (any, error)) {
	scope, err := h.reg.Open(r.Context(), key)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	defer scope.Close()

	out, err := fn(scope.Service)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, out)
}

// expect 服务类型断言失败说明路由与注册表不一致
func expect[T any](svc any, key string) (T, error) {
	typed, ok := svc.(T)
	if !ok {
		var zero T
		return zero, apperr.NotFound("", "operation not supported for "+key)
	}
	return typed, nil
}
