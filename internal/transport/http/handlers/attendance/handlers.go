package attendancehandler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"erp/internal/domain/attendance"
	"erp/internal/transport/http/api"
	"erp/internal/transport/http/middleware"
	"erp/internal/transport/http/shared"
)

type Handler struct {
	Attendance *attendance.Service
}

func NewHandler(att *attendance.Service) *Handler {
	return &Handler{Attendance: att}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/check-in", h.handleCheckIn)
		r.Post("/check-out", h.handleCheckOut)
	})
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	rec, err := h.Attendance.CheckIn(r.Context(), user.UserID)
	switch {
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		api.Fail(w, http.StatusConflict, "already_checked_in", "already checked in today", requestID)
		return
	case errors.Is(err, attendance.ErrNoEmployee):
		api.Fail(w, http.StatusNotFound, "not_found", "no employee record for this account", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "check_in_failed", "failed to check in", requestID)
		return
	}
	api.Created(w, rec, requestID)
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	rec, err := h.Attendance.CheckOut(r.Context(), user.UserID)
	switch {
	case errors.Is(err, attendance.ErrNoCheckIn):
		api.Fail(w, http.StatusConflict, "no_check_in", "no open check-in for today", requestID)
		return
	case errors.Is(err, attendance.ErrNoEmployee):
		api.Fail(w, http.StatusNotFound, "not_found", "no employee record for this account", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "check_out_failed", "failed to check out", requestID)
		return
	}
	api.Success(w, rec, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var from, to *time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := shared.ParseDate(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "validation_error", "from must be a valid date", requestID)
			return
		}
		from = &parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := shared.ParseDate(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "validation_error", "to must be a valid date", requestID)
			return
		}
		to = &parsed
	}

	records, err := h.Attendance.ListVisible(r.Context(), user, from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_failed", "failed to list attendance", requestID)
		return
	}
	api.Success(w, records, requestID)
}
