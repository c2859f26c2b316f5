package corehandler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"farmoffice/internal/domain/audit"
	"farmoffice/internal/domain/auth"
	"farmoffice/internal/domain/core"
	"farmoffice/internal/transport/http/api"
	"farmoffice/internal/transport/http/middleware"
	"farmoffice/internal/transport/http/shared"
)

type Handler struct {
	Store       core.StoreAPI
	Audit       audit.Recorder
	Permissions middleware.PermissionStore
	Logger      *zap.Logger
}

func NewHandler(store core.StoreAPI, recorder audit.Recorder, perms middleware.PermissionStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Store: store, Audit: recorder, Permissions: perms, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/farms", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermFarmsRead, h.Permissions)).Get("/", h.handleListFarms)
		r.With(middleware.RequirePermission(auth.PermFarmsWrite, h.Permissions)).Post("/", h.handleCreateFarm)
		r.Route("/{id}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermFarmsRead, h.Permissions)).Get("/", h.handleGetFarm)
			r.With(middleware.RequirePermission(auth.PermFarmsWrite, h.Permissions)).Put("/", h.handleUpdateFarm)
			r.With(middleware.RequirePermission(auth.PermFarmsWrite, h.Permissions)).Delete("/", h.handleDeleteFarm)
		})
	})
	r.Route("/services", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermServicesRead, h.Permissions)).Get("/", h.handleListServices)
		r.With(middleware.RequirePermission(auth.PermServicesWrite, h.Permissions)).Post("/", h.handleCreateService)
		r.Route("/{id}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermServicesRead, h.Permissions)).Get("/", h.handleGetService)
			r.With(middleware.RequirePermission(auth.PermServicesWrite, h.Permissions)).Put("/", h.handleUpdateService)
			r.With(middleware.RequirePermission(auth.PermServicesWrite, h.Permissions)).Delete("/", h.handleDeleteService)
		})
	})
	r.Route("/workers", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermWorkersRead, h.Permissions)).Get("/", h.handleListWorkers)
		r.With(middleware.RequirePermission(auth.PermWorkersWrite, h.Permissions)).Post("/", h.handleCreateWorker)
		r.Route("/{id}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermWorkersRead, h.Permissions)).Get("/", h.handleGetWorker)
			r.With(middleware.RequirePermission(auth.PermWorkersWrite, h.Permissions)).Put("/", h.handleUpdateWorker)
			r.With(middleware.RequirePermission(auth.PermWorkersWrite, h.Permissions)).Delete("/", h.handleDeleteWorker)
		})
	})
}

type farmRequest struct {
	Name   string `json:"name"`
	Owner  string `json:"owner"`
	City   string `json:"city"`
	Active *bool  `json:"active"`
}

type serviceRequest struct {
	Name   string   `json:"name"`
	Price  *float64 `json:"price"`
	Active *bool    `json:"active"`
}

type workerRequest struct {
	Name               string `json:"name"`
	Active             *bool  `json:"active"`
	Registered         bool   `json:"registered"`
	RegisteredAt       string `json:"registeredAt"`
	NumberOfDependents int    `json:"numberOfDependents"`
}

func activeOrDefault(value *bool) bool {
	return value == nil || *value
}

func (h *Handler) record(r *http.Request, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	err := h.Audit.Record(r.Context(), audit.Change{
		ActorID:    user.UserID,
		Action:     "core." + entityType + "." + action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         shared.ClientIP(r),
		Before:     before,
		After:      after,
	})
	if err != nil {
		h.Logger.Warn("audit record failed",
			zap.Error(err),
			zap.String("entityType", entityType),
			zap.String("entityId", entityID),
		)
	}
}

// failStore maps store errors to responses; label names the entity in messages.
func (h *Handler) failStore(w http.ResponseWriter, r *http.Request, err error, label, code string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, core.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", label+" not found", requestID)
	case errors.Is(err, core.ErrDuplicate):
		api.Fail(w, http.StatusConflict, label+"_exists", label+" already exists", requestID)
	default:
		h.Logger.Error("core store failed", zap.Error(err), zap.String("code", code), zap.String("requestId", requestID))
		api.Fail(w, http.StatusInternalServerError, code, "failed to process "+label, requestID)
	}
}

func (h *Handler) handleListFarms(w http.ResponseWriter, r *http.Request) {
	farms, err := h.Store.ListFarms(r.Context())
	if err != nil {
		h.failStore(w, r, err, "farm", "farm_list_failed")
		return
	}
	api.Success(w, farms, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetFarm(w http.ResponseWriter, r *http.Request) {
	farm, err := h.Store.GetFarm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.failStore(w, r, err, "farm", "farm_get_failed")
		return
	}
	api.Success(w, farm, middleware.GetRequestID(r.Context()))
}

func decodeFarm(w http.ResponseWriter, r *http.Request) (core.Farm, bool) {
	var payload farmRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return core.Farm{}, false
	}
	validator := shared.NewValidator()
	validator.Required("name", payload.Name, "is required")
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return core.Farm{}, false
	}
	return core.Farm{
		Name:   strings.TrimSpace(payload.Name),
		Owner:  strings.TrimSpace(payload.Owner),
		City:   strings.TrimSpace(payload.City),
		Active: activeOrDefault(payload.Active),
	}, true
}

func (h *Handler) handleCreateFarm(w http.ResponseWriter, r *http.Request) {
	farm, ok := decodeFarm(w, r)
	if !ok {
		return
	}
	created, err := h.Store.CreateFarm(r.Context(), farm)
	if err != nil {
		h.failStore(w, r, err, "farm", "farm_create_failed")
		return
	}
	h.record(r, audit.ActionCreate, core.EntityFarm, created.ID, nil, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateFarm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	before, err := h.Store.GetFarm(r.Context(), id)
	if err != nil {
		h.failStore(w, r, err, "farm", "farm_update_failed")
		return
	}
	farm, ok := decodeFarm(w, r)
	if !ok {
		return
	}
	farm.ID = id
	updated, err := h.Store.UpdateFarm(r.Context(), farm)
	if err != nil {
		h.failStore(w, r, err, "farm", "farm_update_failed")
		return
	}
	h.record(r, audit.ActionUpdate, core.EntityFarm, id, before, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteFarm(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Store.DeleteFarm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.failStore(w, r, err, "farm", "farm_delete_failed")
		return
	}
	h.record(r, audit.ActionDelete, core.EntityFarm, deleted.ID, deleted, nil)
	api.Success(w, map[string]string{"id": deleted.ID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.Store.ListServices(r.Context())
	if err != nil {
		h.failStore(w, r, err, "service", "service_list_failed")
		return
	}
	api.Success(w, services, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetService(w http.ResponseWriter, r *http.Request) {
	service, err := h.Store.GetService(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.failStore(w, r, err, "service", "service_get_failed")
		return
	}
	api.Success(w, service, middleware.GetRequestID(r.Context()))
}

func decodeService(w http.ResponseWriter, r *http.Request) (core.Service, bool) {
	var payload serviceRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return core.Service{}, false
	}
	validator := shared.NewValidator()
	validator.Required("name", payload.Name, "is required")
	if payload.Price == nil {
		validator.Add("price", "is required")
	} else {
		validator.NonNegative("price", *payload.Price)
	}
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return core.Service{}, false
	}
	return core.Service{
		Name:   strings.TrimSpace(payload.Name),
		Price:  *payload.Price,
		Active: activeOrDefault(payload.Active),
	}, true
}

func (h *Handler) handleCreateService(w http.ResponseWriter, r *http.Request) {
	service, ok := decodeService(w, r)
	if !ok {
		return
	}
	created, err := h.Store.CreateService(r.Context(), service)
	if err != nil {
		h.failStore(w, r, err, "service", "service_create_failed")
		return
	}
	h.record(r, audit.ActionCreate, core.EntityService, created.ID, nil, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	before, err := h.Store.GetService(r.Context(), id)
	if err != nil {
		h.failStore(w, r, err, "service", "service_update_failed")
		return
	}
	service, ok := decodeService(w, r)
	if !ok {
		return
	}
	service.ID = id
	updated, err := h.Store.UpdateService(r.Context(), service)
	if err != nil {
		h.failStore(w, r, err, "service", "service_update_failed")
		return
	}
	h.record(r, audit.ActionUpdate, core.EntityService, id, before, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Store.DeleteService(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.failStore(w, r, err, "service", "service_delete_failed")
		return
	}
	h.record(r, audit.ActionDelete, core.EntityService, deleted.ID, deleted, nil)
	api.Success(w, map[string]string{"id": deleted.ID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListWorkers(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	workers, err := h.Store.ListWorkers(r.Context())
	if err != nil {
		h.failStore(w, r, err, "worker", "worker_list_failed")
		return
	}
	for i := range workers {
		core.FilterWorkerFields(&workers[i], user)
	}
	api.Success(w, workers, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetWorker(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	worker, err := h.Store.GetWorker(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.failStore(w, r, err, "worker", "worker_get_failed")
		return
	}
	core.FilterWorkerFields(&worker, user)
	api.Success(w, worker, middleware.GetRequestID(r.Context()))
}

func decodeWorker(w http.ResponseWriter, r *http.Request) (core.Worker, bool) {
	var payload workerRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return core.Worker{}, false
	}
	validator := shared.NewValidator()
	validator.Required("name", payload.Name, "is required")
	validator.NonNegative("numberOfDependents", float64(payload.NumberOfDependents))
	var registeredAt *time.Time
	if strings.TrimSpace(payload.RegisteredAt) != "" {
		if parsed, ok := validator.Day("registeredAt", payload.RegisteredAt); ok {
			registeredAt = &parsed
		}
	}
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return core.Worker{}, false
	}
	return core.Worker{
		Name:         strings.TrimSpace(payload.Name),
		Active:       activeOrDefault(payload.Active),
		Registered:   payload.Registered,
		RegisteredAt: registeredAt,
		Dependents:   payload.NumberOfDependents,
	}, true
}

func (h *Handler) handleCreateWorker(w http.ResponseWriter, r *http.Request) {
	worker, ok := decodeWorker(w, r)
	if !ok {
		return
	}
	created, err := h.Store.CreateWorker(r.Context(), worker)
	if err != nil {
		h.failStore(w, r, err, "worker", "worker_create_failed")
		return
	}
	h.record(r, audit.ActionCreate, core.EntityWorker, created.ID, nil, created)
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateWorker(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	before, err := h.Store.GetWorker(r.Context(), id)
	if err != nil {
		h.failStore(w, r, err, "worker", "worker_update_failed")
		return
	}
	worker, ok := decodeWorker(w, r)
	if !ok {
		return
	}
	worker.ID = id
	updated, err := h.Store.UpdateWorker(r.Context(), worker)
	if err != nil {
		h.failStore(w, r, err, "worker", "worker_update_failed")
		return
	}
	h.record(r, audit.ActionUpdate, core.EntityWorker, id, before, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteWorker(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Store.DeleteWorker(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.failStore(w, r, err, "worker", "worker_delete_failed")
		return
	}
	h.record(r, audit.ActionDelete, core.EntityWorker, deleted.ID, deleted, nil)
	api.Success(w, map[string]string{"id": deleted.ID}, middleware.GetRequestID(r.Context()))
}
