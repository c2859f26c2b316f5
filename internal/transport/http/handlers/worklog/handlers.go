package worklogshandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"farmoffice/internal/domain/audit"
	"farmoffice/internal/domain/auth"
	"farmoffice/internal/domain/worklog"
	"farmoffice/internal/transport/http/api"
	"farmoffice/internal/transport/http/middleware"
	"farmoffice/internal/transport/http/shared"
)

const (
	entityWorkLog       = "worklog"
	idempotencyEndpoint = "worklogs.create"
)

type Recorder interface {
	RecordWorkLogs(count int)
}

type Handler struct {
	Store       worklog.StoreAPI
	Audit       audit.Recorder
	Permissions middleware.PermissionStore
	Idempotency middleware.IdempotencyBackend
	Metrics     Recorder
	Logger      *zap.Logger
}

func NewHandler(store worklog.StoreAPI, recorder audit.Recorder, perms middleware.PermissionStore, idem middleware.IdempotencyBackend, metrics Recorder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Store: store, Audit: recorder, Permissions: perms, Idempotency: idem, Metrics: metrics, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/worklogs", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermWorkLogsRead, h.Permissions)).Get("/", h.handleListRange)
		r.With(middleware.RequirePermission(auth.PermWorkLogsRead, h.Permissions)).Get("/by-month", h.handleListMonth)
		r.With(
			middleware.RequirePermission(auth.PermWorkLogsWrite, h.Permissions),
			middleware.Idempotent(h.Idempotency, idempotencyEndpoint),
		).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermWorkLogsWrite, h.Permissions)).Delete("/{id}", h.handleDelete)
	})
}

type entryRequest struct {
	Date               string   `json:"date"`
	WorkerName         string   `json:"workerName"`
	Status             string   `json:"status"`
	Details            string   `json:"details"`
	Farm               string   `json:"farm"`
	ProductionQuantity *float64 `json:"productionQuantity"`
	UnitPrice          *float64 `json:"unitPrice"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload []entryRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "request body must be an array of work-log entries", requestID)
		return
	}

	entries := make([]worklog.Entry, len(payload))
	for i, item := range payload {
		entries[i] = worklog.Entry{
			Date:               item.Date,
			WorkerName:         item.WorkerName,
			Status:             item.Status,
			Details:            item.Details,
			Farm:               item.Farm,
			ProductionQuantity: item.ProductionQuantity,
			UnitPrice:          item.UnitPrice,
		}
	}
	worklog.Normalize(entries)
	if issues := worklog.Validate(entries); len(issues) > 0 {
		validator := shared.NewValidator()
		for _, issue := range issues {
			validator.Add(issue.Field, issue.Reason)
		}
		validator.Reject(w, requestID)
		return
	}

	created, err := h.Store.CreateBatch(r.Context(), entries)
	if err != nil {
		h.Logger.Error("worklog batch insert failed", zap.Error(err), zap.Int("entries", len(entries)), zap.String("requestId", requestID))
		api.Fail(w, http.StatusInternalServerError, "worklog_create_failed", "failed to store work-log entries", requestID)
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordWorkLogs(len(created))
	}

	ids := make([]string, len(created))
	for i, entry := range created {
		ids[i] = entry.ID
	}
	h.record(r, audit.ActionCreate, "", nil, map[string]any{"count": len(created), "ids": ids})
	api.Created(w, created, requestID)
}

func (h *Handler) handleListRange(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	startDate := r.URL.Query().Get("startDate")
	endDate := r.URL.Query().Get("endDate")

	validator := shared.NewValidator()
	validator.DayRange(startDate, endDate)
	if validator.Reject(w, requestID) {
		return
	}

	entries, err := h.Store.FindInRange(r.Context(), startDate, endDate)
	if err != nil {
		h.Logger.Error("worklog range query failed", zap.Error(err), zap.String("requestId", requestID))
		api.Fail(w, http.StatusInternalServerError, "worklog_list_failed", "failed to list work-log entries", requestID)
		return
	}
	api.Success(w, entries, requestID)
}

func (h *Handler) handleListMonth(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	year, yearOK := shared.QueryInt(r, "year")
	month, monthOK := shared.QueryInt(r, "month")
	if _, err := worklog.MonthPrefix(year, month); !yearOK || !monthOK || err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_month", "year and month are required", requestID)
		return
	}

	entries, err := h.Store.FindByMonth(r.Context(), year, month)
	if err != nil {
		h.Logger.Error("worklog month query failed", zap.Error(err), zap.String("requestId", requestID))
		api.Fail(w, http.StatusInternalServerError, "worklog_list_failed", "failed to list work-log entries", requestID)
		return
	}
	api.Success(w, entries, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	deleted, err := h.Store.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, worklog.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "work-log entry not found", requestID)
		return
	}
	if err != nil {
		h.Logger.Error("worklog delete failed", zap.Error(err), zap.String("requestId", requestID))
		api.Fail(w, http.StatusInternalServerError, "worklog_delete_failed", "failed to delete work-log entry", requestID)
		return
	}
	h.record(r, audit.ActionDelete, deleted.ID, deleted, nil)
	api.Success(w, map[string]string{"id": deleted.ID}, requestID)
}

func (h *Handler) record(r *http.Request, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	err := h.Audit.Record(r.Context(), audit.Change{
		ActorID:    user.UserID,
		Action:     entityWorkLog + "." + action,
		EntityType: entityWorkLog,
		EntityID:   entityID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         shared.ClientIP(r),
		Before:     before,
		After:      after,
	})
	if err != nil {
		h.Logger.Warn("audit record failed", zap.Error(err), zap.String("entityType", entityWorkLog))
	}
}
