package reportshandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"farmoffice/internal/domain/auth"
	"farmoffice/internal/domain/reports"
	"farmoffice/internal/domain/worklog"
	"farmoffice/internal/transport/http/api"
	"farmoffice/internal/transport/http/middleware"
	"farmoffice/internal/transport/http/shared"
)

type Handler struct {
	Service     *reports.Service
	Permissions middleware.PermissionStore
	Logger      *zap.Logger
}

func NewHandler(service *reports.Service, perms middleware.PermissionStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: service, Permissions: perms, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermWorkLogsRead, h.Permissions))
		r.Get("/daily", h.handleDaily)
		r.Get("/monthly", h.handleMonthly)
	})
}

func (h *Handler) handleDaily(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	report, err := h.Service.Daily(r.Context(), r.URL.Query().Get("date"))
	if errors.Is(err, reports.ErrInvalidDate) {
		validator := shared.NewValidator()
		validator.Add("date", "must be a valid date in YYYY-MM-DD format")
		validator.Reject(w, requestID)
		return
	}
	if err != nil {
		h.Logger.Error("daily report failed", zap.Error(err), zap.String("requestId", requestID))
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build report", requestID)
		return
	}
	api.Success(w, report, requestID)
}

func (h *Handler) handleMonthly(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	year, yearOK := shared.QueryInt(r, "year")
	month, monthOK := shared.QueryInt(r, "month")
	if !yearOK || !monthOK {
		api.Fail(w, http.StatusBadRequest, "invalid_month", "year and month are required", requestID)
		return
	}
	report, err := h.Service.Monthly(r.Context(), year, month)
	if errors.Is(err, worklog.ErrInvalidMonth) {
		api.Fail(w, http.StatusBadRequest, "invalid_month", "year and month are required", requestID)
		return
	}
	if err != nil {
		h.Logger.Error("monthly report failed", zap.Error(err), zap.String("requestId", requestID))
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build report", requestID)
		return
	}
	api.Success(w, report, requestID)
}
