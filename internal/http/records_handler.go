package httpapi

import (
	"net/http"

	"iotcare-data/internal/domain"
	"iotcare-data/internal/service"

	"github.com/gorilla/mux"
)

// 通用记录路由：/api/v1/{kind}/...

func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	h.serve(w, r, kind, http.StatusCreated, func(svc any) (any, error) {
		recs, err := expect[service.Records](svc, kind)
		if err != nil {
			return nil, err
		}
		return recs.CreateFrom(r.Context(), bodyDecoder(r, h.maxBodyBytes), "http")
	})
}

func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	req, err := listRequest(domain.MustKind(kind), r, service.DefaultLimit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.serve(w, r, kind, http.StatusOK, func(svc any) (any, error) {
		recs, err := expect[service.Records](svc, kind)
		if err != nil {
			return nil, err
		}
		return recs.ListAny(r.Context(), req)
	})
}

func (h *Handler) LatestRecord(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := vars["kind"]
	h.serve(w, r, kind, http.StatusOK, func(svc any) (any, error) {
		recs, err := expect[service.Records](svc, kind)
		if err != nil {
			return nil, err
		}
		return recs.LatestAny(r.Context(), vars["device_id"])
	})
}

func (h *Handler) RecordStatistics(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := vars["kind"]
	start, end, err := timeWindow(r.URL.Query())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.serve(w, r, kind, http.StatusOK, func(svc any) (any, error) {
		recs, err := expect[service.Records](svc, kind)
		if err != nil {
			return nil, err
		}
		return recs.Statistics(r.Context(), vars["device_id"], start, end)
	})
}

func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := vars["kind"]
	at, err := pathTimestamp(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.serve(w, r, kind, http.StatusOK, func(svc any) (any, error) {
		recs, err := expect[service.Records](svc, kind)
		if err != nil {
			return nil, err
		}
		return recs.GetAny(r.Context(), vars["device_id"], at)
	})
}

func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := vars["kind"]
	at, err := pathTimestamp(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.serve(w, r, kind, http.StatusOK, func(svc any) (any, error) {
		recs, err := expect[service.Records](svc, kind)
		if err != nil {
			return nil, err
		}
		return recs.UpdateFrom(r.Context(), vars["device_id"], at, bodyDecoder(r, h.maxBodyBytes))
	})
}

func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := vars["kind"]
	at, err := pathTimestamp(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.serve(w, r, kind, http.StatusNoContent, func(svc any) (any, error) {
		recs, err := expect[service.Records](svc, kind)
		if err != nil {
			return nil, err
		}
		return nil, recs.Delete(r.Context(), vars["device_id"], at)
	})
}

// ExportRecords 列表查询结果导出为 xlsx；limit 缺省为 1000
func (h *Handler) ExportRecords(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	req, err := listRequest(domain.MustKind(kind), r, service.MaxLimit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	scope, err := h.reg.Open(r.Context(), kind)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	defer scope.Close()

	recs, err := expect[service.Records](scope.Service, kind)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	items, err := recs.ListAny(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	data, err := ExportWorkbook(kind, items)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+kind+`-`+h.now().Format("20060102T150405Z")+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// listRequest 路径之后依次解析窗口、过滤、分页
func listRequest(kind *domain.Kind, r *http.Request, defaultLimit int) (service.ListRequest, error) {
	q := r.URL.Query()
	start, end, err := timeWindow(q)
	if err != nil {
		return service.ListRequest{}, err
	}
	filters, err := kindFilters(kind, q)
	if err != nil {
		return service.ListRequest{}, err
	}
	limit, err := queryInt(q, "limit", defaultLimit)
	if err != nil {
		return service.ListRequest{}, err
	}
	offset, err := queryInt(q, "offset", 0)
	if err != nil {
		return service.ListRequest{}, err
	}
	return service.ListRequest{
		Key:     q.Get(kind.KeyColumn),
		Start:   start,
		End:     end,
		Filters: filters,
		Limit:   limit,
		Offset:  offset,
	}, nil
}
