package httpapi

import (
	"net/http"

	"iotcare-data/internal/apperr"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorBody 统一错误响应
type ErrorBody struct {
	Error         string `json:"error"`
	Detail        string `json:"detail"`
	Path          string `json:"path"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// writeError 把 apperr 映射为 HTTP 响应；500 只返回固定文案与 correlation_id，原因只写日志
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	body := ErrorBody{
		Error:  string(kind),
		Detail: apperr.PublicDetail(err),
		Path:   r.URL.Path,
	}
	if kind == apperr.KindPersistence {
		body.CorrelationID = uuid.NewString()
		logger.Error("Request failed",
			zap.String("correlation_id", body.CorrelationID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, kind.Status(), body)
}
