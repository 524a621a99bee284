package payrollhandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"erp/internal/domain/audit"
	"erp/internal/domain/authz"
	"erp/internal/domain/payroll"
	"erp/internal/transport/http/api"
	"erp/internal/transport/http/middleware"
	"erp/internal/transport/http/shared"
)

type Handler struct {
	Payroll *payroll.Service
	Audit   *audit.Service
}

func NewHandler(pay *payroll.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Payroll: pay, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{payrollID}", h.handleGet)
		r.Get("/{payrollID}/payslip", h.handlePayslip)
		r.With(middleware.RequireOperation(authz.OpPayrollGenerate)).Post("/generate", h.handleGenerate)
		r.With(middleware.RequireOperation(authz.OpPayrollProcess)).Post("/{payrollID}/pay", h.handleProcessPayment)
	})
}

type generatePayload struct {
	EmployeeID string  `json:"employeeId"`
	Month      string  `json:"month"`
	Overtime   float64 `json:"overtime"`
	Bonus      float64 `json:"bonus"`
	Tax        float64 `json:"tax"`
	Insurance  float64 `json:"insurance"`
	Other      float64 `json:"otherDeductions"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload generatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "employeeId is required")
	month, _ := v.Month("month", payload.Month)
	if v.Reject(w, requestID) {
		return
	}

	record, err := h.Payroll.Generate(r.Context(), payroll.GenerateInput{
		EmployeeID: payload.EmployeeID,
		Month:      month,
		Overtime:   payload.Overtime,
		Bonus:      payload.Bonus,
		Tax:        payload.Tax,
		Insurance:  payload.Insurance,
		Other:      payload.Other,
	})
	switch {
	case errors.Is(err, payroll.ErrNoEmployee):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	case errors.Is(err, payroll.ErrDuplicate):
		api.Fail(w, http.StatusConflict, "duplicate", "payroll already generated for this month", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "payroll_generate_failed", "failed to generate payroll", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), actor.UserID, "payroll.generate", "payroll", record.ID, record.Month, requestID, shared.ClientIP(r)); err != nil {
		slog.Warn("audit payroll.generate failed", "err", err)
	}
	api.Created(w, record, requestID)
}

func (h *Handler) handleProcessPayment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	payrollID := chi.URLParam(r, "payrollID")

	record, err := h.Payroll.ProcessPayment(r.Context(), payrollID)
	switch {
	case errors.Is(err, payroll.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "payroll record not found", requestID)
		return
	case errors.Is(err, payroll.ErrAlreadyPaid):
		api.Fail(w, http.StatusConflict, "invalid_state", "payroll already processed", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "payroll_process_failed", "failed to process payment", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), actor.UserID, "payroll.pay", "payroll", payrollID, record.Month, requestID, shared.ClientIP(r)); err != nil {
		slog.Warn("audit payroll.pay failed", "err", err)
	}
	api.Success(w, record, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	records, err := h.Payroll.ListVisible(r.Context(), user, r.URL.Query().Get("month"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_list_failed", "failed to list payroll", requestID)
		return
	}
	api.Success(w, records, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	payrollID := chi.URLParam(r, "payrollID")

	record, ok := h.loadAuthorized(w, r, user, payrollID, requestID)
	if !ok {
		return
	}
	api.Success(w, record, requestID)
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	payrollID := chi.URLParam(r, "payrollID")

	record, ok := h.loadAuthorized(w, r, user, payrollID, requestID)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payslip-%s.pdf", record.Month))
	if err := payroll.WritePayslip(w, record); err != nil {
		slog.Warn("payslip render failed", "err", err, "payrollId", payrollID)
	}
}

// loadAuthorized fetches the record and enforces view access: broad payroll
// readers or the employee the record pays.
func (h *Handler) loadAuthorized(w http.ResponseWriter, r *http.Request, user authz.Principal, payrollID, requestID string) (payroll.Payroll, bool) {
	record, err := h.Payroll.Get(r.Context(), payrollID)
	if errors.Is(err, payroll.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "payroll record not found", requestID)
		return record, false
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_get_failed", "failed to load payroll", requestID)
		return record, false
	}

	ownerID, err := h.Payroll.OwnerUserID(r.Context(), payrollID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_get_failed", "failed to load payroll", requestID)
		return record, false
	}
	if err := authz.Authorize(user, authz.OpPayrollView, ownerID); err != nil {
		api.Fail(w, http.StatusForbidden, "permission_denied", "insufficient permissions", requestID)
		return record, false
	}
	return record, true
}
