package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"iotcare-data/internal/apperr"
	"iotcare-data/internal/domain"
	"iotcare-data/internal/service"

	"github.com/gorilla/mux"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// bodyDecoder 严格解码：未知字段、类型不匹配、非法 JSON 均为 ParseError
func bodyDecoder(r *http.Request, maxBytes int64) service.Decoder {
	return func(dst any) error {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
		if err != nil {
			return apperr.Parse("cannot read request body", err)
		}
		if int64(len(body)) > maxBytes {
			return apperr.Parse("request body too large", nil)
		}
		return decodeStrict(body, dst)
	}
}

func decodeStrict(body []byte, dst any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return apperr.Parse("request body is empty", nil)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Parse(describeDecodeError(err), err)
	}
	if dec.More() {
		return apperr.Parse("request body must contain a single JSON object", nil)
	}
	return nil
}

func describeDecodeError(err error) string {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		timeErr   *time.ParseError
	)
	switch {
	case errors.As(err, &syntaxErr):
		return "malformed JSON at offset " + strconv.FormatInt(syntaxErr.Offset, 10)
	case errors.As(err, &typeErr):
		return "field " + typeErr.Field + " must be " + typeErr.Type.String()
	case errors.As(err, &timeErr):
		return "invalid timestamp " + strconv.Quote(timeErr.Value)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return "unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ")
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "malformed JSON: unexpected end of input"
	default:
		return err.Error()
	}
}

// parseTimestamp RFC3339；查询串中的 '+' 会被解码成空格，这里还原
func parseTimestamp(field, raw string) (time.Time, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), " ", "+")
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, apperr.Parse(field+" must be an RFC3339 timestamp", err)
	}
	return t.UTC(), nil
}

func pathTimestamp(r *http.Request) (time.Time, error) {
	return parseTimestamp("timestamp", mux.Vars(r)["timestamp"])
}

func optionalTime(q url.Values, field string) (*time.Time, error) {
	raw := q.Get(field)
	if raw == "" {
		return nil, nil
	}
	t, err := parseTimestamp(field, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// timeWindow start_time / end_time
func timeWindow(q url.Values) (start, end *time.Time, err error) {
	if start, err = optionalTime(q, "start_time"); err != nil {
		return nil, nil, err
	}
	if end, err = optionalTime(q, "end_time"); err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

// queryInt 缺省返回 def；非整数为 ParseError，范围由 service 校验
func queryInt(q url.Values, field string, def int) (int, error) {
	raw := q.Get(field)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Parse(field+" must be an integer", err)
	}
	return v, nil
}

func queryFloat(q url.Values, field string, def float64) (float64, error) {
	raw := q.Get(field)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperr.Parse(field+" must be a number", err)
	}
	return v, nil
}

// paging limit 默认 100，offset 默认 0
func paging(q url.Values) (limit, offset int, err error) {
	if limit, err = queryInt(q, "limit", service.DefaultLimit); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(q, "offset", 0); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// kindFilters 只解析记录类型声明过的过滤参数，其余查询参数忽略
func kindFilters(kind *domain.Kind, q url.Values) (map[string]any, error) {
	filters := map[string]any{}
	for _, f := range kind.Filters {
		raw := q.Get(f.Param)
		if raw == "" {
			continue
		}
		switch f.Type {
		case domain.FilterInt:
			v, err := strconv.Atoi(raw)
			if err != nil {
				return nil, apperr.Parse(f.Param+" must be an integer", err)
			}
			filters[f.Param] = v
		case domain.FilterBool:
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, apperr.Parse(f.Param+" must be a boolean", err)
			}
			filters[f.Param] = v
		case domain.FilterFloat:
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, apperr.Parse(f.Param+" must be a number", err)
			}
			filters[f.Param] = v
		default:
			filters[f.Param] = raw
		}
	}
	if len(filters) == 0 {
		return nil, nil
	}
	return filters, nil
}
