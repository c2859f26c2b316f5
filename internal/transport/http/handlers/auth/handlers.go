package authhandler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"farmoffice/internal/domain/audit"
	"farmoffice/internal/domain/auth"
	"farmoffice/internal/transport/http/api"
	"farmoffice/internal/transport/http/middleware"
	"farmoffice/internal/transport/http/shared"
)

const minPasswordLength = 6

const entityUser = "user"

type Handler struct {
	Auth        *auth.Service
	Permissions middleware.PermissionStore
	Audit       audit.Recorder
	Logger      *zap.Logger
}

func NewHandler(service *auth.Service, perms middleware.PermissionStore, recorder audit.Recorder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Auth: service, Permissions: perms, Audit: recorder, Logger: logger}
}

// RegisterPublicRoutes mounts the endpoints reachable without a token.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/auth/setup", h.HandleSetupStatus)
	r.Post("/auth/setup", h.HandleSetup)
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/logout", h.HandleLogout)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireUser).Get("/me", h.HandleMe)
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermUsersManage, h.Permissions))
		r.Get("/", h.handleListUsers)
		r.Post("/", h.handleCreateUser)
		r.Put("/{id}", h.handleUpdateUser)
		r.Delete("/{id}", h.handleDeleteUser)
	})
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type userView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Login string `json:"login,omitempty"`
	Role  string `json:"role"`
}

func viewOf(user auth.User) userView {
	return userView{ID: user.ID, Name: user.Name, Login: user.Login, Role: user.Role}
}

func (h *Handler) HandleSetupStatus(w http.ResponseWriter, r *http.Request) {
	required, err := h.Auth.SetupRequired(r.Context())
	if err != nil {
		h.Logger.Error("setup status failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "setup_status_failed", "failed to check setup status", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]bool{"setupRequired": required}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload auth.NewUser
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if !validateNewUser(w, requestID, payload, false) {
		return
	}

	session, err := h.Auth.Setup(r.Context(), payload)
	if err != nil {
		h.failAuth(w, r, err, "setup_failed")
		return
	}
	h.record(r, session.User.ID, audit.ActionCreate, session.User.ID, nil, viewOf(session.User))
	api.Created(w, map[string]any{
		"token":     session.Token,
		"expiresAt": session.ExpiresAt,
		"user":      viewOf(session.User),
	}, requestID)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	validator.Required("login", payload.Login, "is required")
	validator.Required("password", payload.Password, "is required")
	if validator.Reject(w, requestID) {
		return
	}

	session, err := h.Auth.Login(r.Context(), payload.Login, payload.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			h.Logger.Error("login failed", zap.Error(err), zap.String("requestId", requestID))
		}
		h.failAuth(w, r, err, "login_failed")
		return
	}
	api.Success(w, map[string]any{
		"token":     session.Token,
		"expiresAt": session.ExpiresAt,
		"user":      userView{ID: session.User.ID, Name: session.User.Name, Role: session.User.Role},
	}, requestID)
}

// HandleLogout acknowledges the request; tokens are stateless and expire on
// their own.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	stored, err := h.Auth.GetUser(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"user":        viewOf(stored),
		"permissions": auth.RolePermissions[stored.Role],
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Auth.ListUsers(r.Context())
	if err != nil {
		h.failAuth(w, r, err, "user_list_failed")
		return
	}
	out := make([]userView, 0, len(users))
	for _, user := range users {
		out = append(out, viewOf(user))
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload auth.NewUser
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if !validateNewUser(w, requestID, payload, true) {
		return
	}

	created, err := h.Auth.CreateUser(r.Context(), payload)
	if err != nil {
		h.failAuth(w, r, err, "user_create_failed")
		return
	}
	actor, _ := middleware.GetUser(r.Context())
	h.record(r, actor.UserID, audit.ActionCreate, created.ID, nil, viewOf(created))
	api.Created(w, viewOf(created), requestID)
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "id")
	before, err := h.Auth.GetUser(r.Context(), id)
	if err != nil {
		h.failAuth(w, r, err, "user_update_failed")
		return
	}

	var payload auth.UserUpdate
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	validator.Required("name", payload.Name, "is required")
	validator.Required("login", payload.Login, "is required")
	validator.OneOf("role", payload.Role, "must be Admin or Operador", auth.RoleAdmin, auth.RoleOperator)
	validator.Required("role", payload.Role, "is required")
	if payload.Password != "" && len(payload.Password) < minPasswordLength {
		validator.Add("password", "must have at least 6 characters")
	}
	if validator.Reject(w, requestID) {
		return
	}

	updated, err := h.Auth.UpdateUser(r.Context(), id, payload)
	if err != nil {
		h.failAuth(w, r, err, "user_update_failed")
		return
	}
	actor, _ := middleware.GetUser(r.Context())
	h.record(r, actor.UserID, audit.ActionUpdate, id, viewOf(before), viewOf(updated))
	api.Success(w, viewOf(updated), requestID)
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actor, _ := middleware.GetUser(r.Context())
	before, err := h.Auth.GetUser(r.Context(), id)
	if err != nil {
		h.failAuth(w, r, err, "user_delete_failed")
		return
	}
	if err := h.Auth.DeleteUser(r.Context(), actor.UserID, id); err != nil {
		h.failAuth(w, r, err, "user_delete_failed")
		return
	}
	h.record(r, actor.UserID, audit.ActionDelete, id, viewOf(before), nil)
	api.Success(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func validateNewUser(w http.ResponseWriter, requestID string, payload auth.NewUser, roleAllowed bool) bool {
	validator := shared.NewValidator()
	validator.Required("name", payload.Name, "is required")
	validator.Required("login", payload.Login, "is required")
	if len(strings.TrimSpace(payload.Password)) < minPasswordLength {
		validator.Add("password", "must have at least 6 characters")
	}
	if roleAllowed {
		validator.OneOf("role", payload.Role, "must be Admin or Operador", auth.RoleAdmin, auth.RoleOperator)
	}
	return !validator.Reject(w, requestID)
}

func (h *Handler) failAuth(w http.ResponseWriter, r *http.Request, err error, code string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
	case errors.Is(err, auth.ErrSetupDone):
		api.Fail(w, http.StatusConflict, "setup_done", "initial setup already completed", requestID)
	case errors.Is(err, auth.ErrLoginTaken):
		api.Fail(w, http.StatusConflict, "login_taken", "login already in use", requestID)
	case errors.Is(err, auth.ErrInvalidRole):
		api.Fail(w, http.StatusBadRequest, "invalid_role", "role must be Admin or Operador", requestID)
	case errors.Is(err, auth.ErrUserNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", requestID)
	case errors.Is(err, auth.ErrSelfDelete):
		api.Fail(w, http.StatusBadRequest, "self_delete", "cannot delete the current user", requestID)
	default:
		h.Logger.Error("auth request failed", zap.Error(err), zap.String("code", code), zap.String("requestId", requestID))
		api.Fail(w, http.StatusInternalServerError, code, "failed to process request", requestID)
	}
}

func (h *Handler) record(r *http.Request, actorID, action, userID string, before, after any) {
	if h.Audit == nil {
		return
	}
	err := h.Audit.Record(r.Context(), audit.Change{
		ActorID:    actorID,
		Action:     "auth." + entityUser + "." + action,
		EntityType: entityUser,
		EntityID:   userID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         shared.ClientIP(r),
		Before:     before,
		After:      after,
	})
	if err != nil {
		h.Logger.Warn("audit record failed", zap.Error(err), zap.String("entityId", userID))
	}
}
