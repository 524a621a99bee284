package workflowhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"erp/internal/domain/audit"
	"erp/internal/domain/authz"
	"erp/internal/domain/workflow"
	"erp/internal/transport/http/api"
	"erp/internal/transport/http/middleware"
	"erp/internal/transport/http/shared"
)

type Handler struct {
	Workflows *workflow.Service
	Audit     *audit.Service
}

func NewHandler(workflows *workflow.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Workflows: workflows, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/workflows", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{workflowID}", h.handleGet)
		r.Post("/leave", h.handleSubmitLeave)
		r.Post("/expense", h.handleSubmitExpense)
		r.Post("/{workflowID}/approve", h.handleApprove)
		r.Post("/{workflowID}/reject", h.handleReject)
		r.Post("/{workflowID}/cancel", h.handleCancel)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	requests, err := h.Workflows.ListVisible(r.Context(), user)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "workflows_failed", "failed to list workflows", requestID)
		return
	}
	api.Success(w, requests, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	workflowID := chi.URLParam(r, "workflowID")

	req, err := h.Workflows.Get(r.Context(), workflowID)
	if errors.Is(err, workflow.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "workflow not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "workflow_get_failed", "failed to load workflow", requestID)
		return
	}

	// Assignees see requests routed to them even without broad visibility.
	if user.UserID != req.AssigneeID {
		if err := authz.Authorize(user, authz.OpWorkflowView, req.RequesterID); err != nil {
			api.Fail(w, http.StatusForbidden, "permission_denied", "insufficient permissions", requestID)
			return
		}
	}
	api.Success(w, req, requestID)
}

type leavePayload struct {
	LeaveType string `json:"leaveType"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Reason    string `json:"reason"`
}

func (h *Handler) handleSubmitLeave(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload leavePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("leaveType", payload.LeaveType, "leaveType is required")
	startDate, _ := v.Date("startDate", payload.StartDate)
	endDate, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", startDate, "endDate", endDate)
	if v.Reject(w, requestID) {
		return
	}

	req, err := h.Workflows.SubmitLeaveRequest(r.Context(), user.UserID, workflow.LeaveInput{
		LeaveType: strings.TrimSpace(payload.LeaveType),
		StartDate: startDate,
		EndDate:   endDate,
		Reason:    strings.TrimSpace(payload.Reason),
	})
	if errors.Is(err, workflow.ErrNoApprover) {
		api.Fail(w, http.StatusBadRequest, "validation_error", "no eligible approver for this request", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "workflow_submit_failed", "failed to submit leave request", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "workflow.submit", "workflow", req.ID, req.Title, requestID, shared.ClientIP(r)); err != nil {
		slog.Warn("audit workflow.submit failed", "err", err)
	}
	api.Created(w, req, requestID)
}

type expensePayload struct {
	Amount      float64 `json:"amount"`
	ExpenseDate string  `json:"expenseDate"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

func (h *Handler) handleSubmitExpense(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload expensePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("category", payload.Category, "category is required")
	v.Positive("amount", payload.Amount, "must be greater than zero")
	expenseDate, _ := v.Date("expenseDate", payload.ExpenseDate)
	if v.Reject(w, requestID) {
		return
	}

	req, err := h.Workflows.SubmitExpenseClaim(r.Context(), user.UserID, workflow.ExpenseInput{
		Amount:      payload.Amount,
		ExpenseDate: expenseDate,
		Category:    strings.TrimSpace(payload.Category),
		Description: strings.TrimSpace(payload.Description),
	})
	if errors.Is(err, workflow.ErrNoApprover) {
		api.Fail(w, http.StatusBadRequest, "validation_error", "no eligible approver for this request", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "workflow_submit_failed", "failed to submit expense claim", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "workflow.submit", "workflow", req.ID, req.Title, requestID, shared.ClientIP(r)); err != nil {
		slog.Warn("audit workflow.submit failed", "err", err)
	}
	api.Created(w, req, requestID)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, workflow.StatusApproved)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, workflow.StatusRejected)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, outcome string) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	workflowID := chi.URLParam(r, "workflowID")

	req, err := h.Workflows.Decide(r.Context(), workflowID, user.UserID, outcome)
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "workflow not found", requestID)
		return
	case errors.Is(err, workflow.ErrNotAssignee):
		api.Fail(w, http.StatusForbidden, "permission_denied", "only the assignee may decide this request", requestID)
		return
	case errors.Is(err, workflow.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "workflow is no longer pending", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "workflow_decide_failed", "failed to decide workflow", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "workflow."+outcome, "workflow", workflowID, "", requestID, shared.ClientIP(r)); err != nil {
		slog.Warn("audit workflow decide failed", "err", err)
	}
	api.Success(w, req, requestID)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	workflowID := chi.URLParam(r, "workflowID")

	req, err := h.Workflows.Cancel(r.Context(), workflowID, user.UserID)
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "workflow not found", requestID)
		return
	case errors.Is(err, workflow.ErrNotRequester):
		api.Fail(w, http.StatusForbidden, "permission_denied", "only the requester may cancel this request", requestID)
		return
	case errors.Is(err, workflow.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "workflow is no longer pending", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "workflow_cancel_failed", "failed to cancel workflow", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "workflow.cancel", "workflow", workflowID, "", requestID, shared.ClientIP(r)); err != nil {
		slog.Warn("audit workflow.cancel failed", "err", err)
	}
	api.Success(w, req, requestID)
}
