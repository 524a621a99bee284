package authhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"erp/internal/auth"
	"erp/internal/domain/audit"
	"erp/internal/domain/authz"
	"erp/internal/domain/identity"
	"erp/internal/transport/http/api"
	"erp/internal/transport/http/middleware"
	"erp/internal/transport/http/shared"
)

type Handler struct {
	Users     *identity.Service
	Audit     *audit.Service
	JWTSecret string
	TokenTTL  time.Duration
}

func NewHandler(users *identity.Service, auditSvc *audit.Service, jwtSecret string, tokenTTL time.Duration) *Handler {
	return &Handler{Users: users, Audit: auditSvc, JWTSecret: jwtSecret, TokenTTL: tokenTTL}
}

// RegisterPublicRoutes mounts the unauthenticated endpoints. Login sits
// behind the rate limiter configured by the server.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/logout", h.handleLogout)
		r.With(middleware.RequireOperation(authz.OpUserManage)).Post("/register", h.handleRegister)
		r.Post("/mfa/setup", h.handleMFASetup)
		r.Post("/mfa/enable", h.handleMFAEnable)
		r.Post("/mfa/disable", h.handleMFADisable)
	})
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	if payload.Email == "" || payload.Password == "" {
		api.Fail(w, http.StatusBadRequest, "validation_error", "email and password are required", requestID)
		return
	}

	user, err := h.Users.FindActiveByEmail(r.Context(), payload.Email)
	if errors.Is(err, identity.ErrNotFound) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to sign in", requestID)
		return
	}
	if auth.CheckPassword(user.PasswordHash, payload.Password) != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", requestID)
		return
	}

	if user.MFAEnabled {
		if payload.MFACode == "" {
			api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", requestID)
			return
		}
		if user.MFASecret == "" || !totp.Validate(payload.MFACode, user.MFASecret) {
			api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", requestID)
			return
		}
	}

	token, err := auth.GenerateToken(h.JWTSecret, auth.Claims{UserID: user.ID, Role: user.Role}, h.TokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), user.ID, "auth.login", "user", user.ID, "", requestID, shared.ClientIP(r)); err != nil {
		slog.Warn("audit auth.login failed", "err", err)
	}
	api.Success(w, map[string]any{
		"token":     token,
		"expiresIn": int(h.TokenTTL.Seconds()),
		"userId":    user.ID,
		"role":      user.Role,
	}, requestID)
}

// handleLogout exists for client symmetry. Tokens are stateless, so the
// server only records the event; the client discards the token.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	if err := h.Audit.Record(r.Context(), user.UserID, "auth.logout", "user", user.UserID, "", requestID, shared.ClientIP(r)); err != nil {
		slog.Warn("audit auth.logout failed", "err", err)
	}
	api.Success(w, map[string]string{"status": "logged out"}, requestID)
}

type registerPayload struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload registerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("username", payload.Username, "username is required")
	v.Required("email", payload.Email, "email is required")
	v.Required("password", payload.Password, "password is required")
	v.Enum("role", payload.Role, authz.Roles, "must be a known role")
	if len(payload.Password) > 0 && len(payload.Password) < 8 {
		v.Add("password", "must be at least 8 characters")
	}
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.Users.Register(r.Context(), identity.RegisterInput{
		Username:  strings.TrimSpace(payload.Username),
		Email:     strings.ToLower(strings.TrimSpace(payload.Email)),
		FirstName: strings.TrimSpace(payload.FirstName),
		LastName:  strings.TrimSpace(payload.LastName),
		Password:  payload.Password,
		Role:      strings.ToLower(strings.TrimSpace(payload.Role)),
	})
	switch {
	case errors.Is(err, identity.ErrDuplicate):
		api.Fail(w, http.StatusConflict, "duplicate", "username or email already exists", requestID)
		return
	case errors.Is(err, identity.ErrInvalidRole):
		api.Fail(w, http.StatusBadRequest, "validation_error", "unknown role", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "register_failed", "failed to register user", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), actor.UserID, "user.register", "user", id, "role="+payload.Role, requestID, shared.ClientIP(r)); err != nil {
		slog.Warn("audit user.register failed", "err", err)
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

func (h *Handler) handleMFASetup(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "ERP",
		AccountName: user.UserID,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to generate mfa secret", requestID)
		return
	}

	if err := h.Users.UpdateMFASecret(r.Context(), user.UserID, key.Secret(), false); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to store mfa secret", requestID)
		return
	}
	api.Success(w, map[string]string{
		"secret": key.Secret(),
		"url":    key.URL(),
	}, requestID)
}

type mfaCodePayload struct {
	Code string `json:"code"`
}

func (h *Handler) handleMFAEnable(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var payload mfaCodePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	account, err := h.Users.Get(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_enable_failed", "failed to load user", requestID)
		return
	}
	secret, err := h.Users.MFASecret(r.Context(), user.UserID)
	if err != nil || secret == "" {
		api.Fail(w, http.StatusBadRequest, "mfa_missing", "mfa setup required", requestID)
		return
	}
	if !totp.Validate(payload.Code, secret) {
		api.Fail(w, http.StatusBadRequest, "mfa_invalid", "invalid mfa code", requestID)
		return
	}

	if err := h.Users.UpdateMFASecret(r.Context(), user.UserID, secret, true); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_enable_failed", "failed to enable mfa", requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "auth.mfa.enable", "user", account.ID, "", requestID, shared.ClientIP(r)); err != nil {
		slog.Warn("audit auth.mfa.enable failed", "err", err)
	}
	api.Success(w, map[string]bool{"mfaEnabled": true}, requestID)
}

func (h *Handler) handleMFADisable(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	if err := h.Users.UpdateMFASecret(r.Context(), user.UserID, "", false); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_disable_failed", "failed to disable mfa", requestID)
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "auth.mfa.disable", "user", user.UserID, "", requestID, shared.ClientIP(r)); err != nil {
		slog.Warn("audit auth.mfa.disable failed", "err", err)
	}
	api.Success(w, map[string]bool{"mfaEnabled": false}, requestID)
}
