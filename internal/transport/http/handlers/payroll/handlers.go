package payrollhandler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"farmoffice/internal/domain/auth"
	"farmoffice/internal/domain/payroll"
	"farmoffice/internal/transport/http/api"
	"farmoffice/internal/transport/http/middleware"
	"farmoffice/internal/transport/http/shared"
)

type Computer interface {
	Compute(ctx context.Context, query payroll.Query) (payroll.Result, error)
}

type Handler struct {
	Service     Computer
	Permissions middleware.PermissionStore
	Logger      *zap.Logger
}

func NewHandler(service Computer, perms middleware.PermissionStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: service, Permissions: perms, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermPayrollRead, h.Permissions))
		r.Get("/", h.handleCompute)
		r.Get("/summary", h.handleSummary)
		r.Get("/export.csv", h.handleExportCSV)
		r.Get("/export.pdf", h.handleExportPDF)
	})
}

// parseQuery reads startDate, endDate and category. All three must be present;
// an unrecognised category means every worker.
func parseQuery(w http.ResponseWriter, r *http.Request) (payroll.Query, bool) {
	values := r.URL.Query()
	query := payroll.Query{
		StartDate: strings.TrimSpace(values.Get("startDate")),
		EndDate:   strings.TrimSpace(values.Get("endDate")),
		Category:  payroll.ParseCategory(values.Get("category")),
	}

	validator := shared.NewValidator()
	validator.DayRange(query.StartDate, query.EndDate)
	validator.Required("category", values.Get("category"), "is required")
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return payroll.Query{}, false
	}
	return query, true
}

func (h *Handler) compute(w http.ResponseWriter, r *http.Request) (payroll.Query, payroll.Result, bool) {
	query, ok := parseQuery(w, r)
	if !ok {
		return payroll.Query{}, nil, false
	}
	result, err := h.Service.Compute(r.Context(), query)
	if err != nil {
		requestID := middleware.GetRequestID(r.Context())
		h.Logger.Error("payroll compute failed",
			zap.Error(err),
			zap.String("startDate", query.StartDate),
			zap.String("endDate", query.EndDate),
			zap.String("requestId", requestID),
		)
		api.Fail(w, http.StatusInternalServerError, "payroll_failed", "failed to compute payroll", requestID)
		return payroll.Query{}, nil, false
	}
	return query, result, true
}

func (h *Handler) handleCompute(w http.ResponseWriter, r *http.Request) {
	_, result, ok := h.compute(w, r)
	if !ok {
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	query, result, ok := h.compute(w, r)
	if !ok {
		return
	}
	api.Success(w, payroll.Summarize(query, result), middleware.GetRequestID(r.Context()))
}

func exportName(query payroll.Query, ext string) string {
	return fmt.Sprintf("folha-%s-%s-%s.%s", query.StartDate, query.EndDate, query.Category, ext)
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	query, result, ok := h.compute(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := payroll.WriteCSV(&buf, result); err != nil {
		h.Logger.Error("payroll csv export failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export payroll", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+exportName(query, "csv"))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.Logger.Warn("payroll csv write failed", zap.Error(err))
	}
}

func (h *Handler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	query, result, ok := h.compute(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := payroll.WritePDF(&buf, query, result); err != nil {
		h.Logger.Error("payroll pdf export failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to export payroll", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+exportName(query, "pdf"))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.Logger.Warn("payroll pdf write failed", zap.Error(err))
	}
}
