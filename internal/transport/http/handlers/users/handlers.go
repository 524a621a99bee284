package usershandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"erp/internal/domain/audit"
	"erp/internal/domain/authz"
	"erp/internal/domain/identity"
	"erp/internal/transport/http/api"
	"erp/internal/transport/http/middleware"
	"erp/internal/transport/http/shared"
)

type Handler struct {
	Users *identity.Service
	Audit *audit.Service
}

func NewHandler(users *identity.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Users: users, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequireOperation(authz.OpUsersList)).Get("/", h.handleList)
		r.With(middleware.RequireOperation(authz.OpRolesManage)).Get("/roles", h.handleRoleCounts)
		r.Get("/{userID}", h.handleGet)
		r.With(middleware.RequireOperation(authz.OpUserManage)).Put("/{userID}", h.handleUpdate)
		r.With(middleware.RequireOperation(authz.OpUserManage)).Post("/{userID}/activate", h.handleActivate)
		r.With(middleware.RequireOperation(authz.OpUserManage)).Post("/{userID}/deactivate", h.handleDeactivate)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	users, err := h.Users.List(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "users_list_failed", "failed to list users", requestID)
		return
	}
	api.Success(w, users, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	userID := chi.URLParam(r, "userID")

	if err := authz.Authorize(actor, authz.OpUserView, userID); err != nil {
		api.Fail(w, http.StatusForbidden, "permission_denied", "insufficient permissions", requestID)
		return
	}

	user, err := h.Users.Get(r.Context(), userID)
	if errors.Is(err, identity.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_get_failed", "failed to load user", requestID)
		return
	}
	api.Success(w, user, requestID)
}

type updatePayload struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"`
	Role      string `json:"role,omitempty"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	userID := chi.URLParam(r, "userID")

	var payload updatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	if payload.Role != "" {
		v.Enum("role", payload.Role, authz.Roles, "must be a known role")
	}
	if payload.Password != "" && len(payload.Password) < 8 {
		v.Add("password", "must be at least 8 characters")
	}
	if v.Reject(w, requestID) {
		return
	}

	err := h.Users.Update(r.Context(), userID, identity.UpdateInput{
		FirstName: strings.TrimSpace(payload.FirstName),
		LastName:  strings.TrimSpace(payload.LastName),
		Email:     strings.ToLower(strings.TrimSpace(payload.Email)),
		Password:  payload.Password,
		Role:      strings.ToLower(strings.TrimSpace(payload.Role)),
	})
	switch {
	case errors.Is(err, identity.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", requestID)
		return
	case errors.Is(err, identity.ErrDuplicate):
		api.Fail(w, http.StatusConflict, "duplicate", "email already in use", requestID)
		return
	case errors.Is(err, identity.ErrInvalidRole):
		api.Fail(w, http.StatusBadRequest, "validation_error", "unknown role", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "user_update_failed", "failed to update user", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), actor.UserID, "user.update", "user", userID, "", requestID, shared.ClientIP(r)); err != nil {
		slog.Warn("audit user.update failed", "err", err)
	}
	api.Success(w, map[string]string{"id": userID}, requestID)
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	userID := chi.URLParam(r, "userID")

	err := h.Users.SetActive(r.Context(), userID, actor.UserID, active)
	switch {
	case errors.Is(err, identity.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", requestID)
		return
	case errors.Is(err, identity.ErrSelfDeactivate):
		api.Fail(w, http.StatusConflict, "invalid_state", "cannot deactivate your own account", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "user_update_failed", "failed to update user", requestID)
		return
	}

	action := "user.deactivate"
	if active {
		action = "user.activate"
	}
	if err := h.Audit.Record(r.Context(), actor.UserID, action, "user", userID, "", requestID, shared.ClientIP(r)); err != nil {
		slog.Warn("audit "+action+" failed", "err", err)
	}
	api.Success(w, map[string]any{"id": userID, "isActive": active}, requestID)
}

func (h *Handler) handleRoleCounts(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	counts, err := h.Users.RoleCounts(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "roles_failed", "failed to load role counts", requestID)
		return
	}
	api.Success(w, counts, requestID)
}
