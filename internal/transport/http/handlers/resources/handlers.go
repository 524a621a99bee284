package resourceshandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"erp/internal/domain/audit"
	"erp/internal/domain/authz"
	"erp/internal/domain/resources"
	"erp/internal/transport/http/api"
	"erp/internal/transport/http/middleware"
	"erp/internal/transport/http/shared"
)

type Handler struct {
	Resources *resources.Service
	Audit     *audit.Service
}

func NewHandler(res *resources.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Resources: res, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/resources", func(r chi.Router) {
		r.With(middleware.RequireOperation(authz.OpResourceInventory)).Get("/", h.handleList)
		r.With(middleware.RequireOperation(authz.OpResourceInventory)).Get("/inventory", h.handleInventory)
		r.With(middleware.RequireOperation(authz.OpResourceAdd)).Post("/", h.handleAdd)
		r.With(middleware.RequireOperation(authz.OpResourceAllocate)).Post("/{resourceID}/allocate", h.handleAllocate)
	})
	r.Route("/allocations", func(r chi.Router) {
		r.With(middleware.RequireOperation(authz.OpAllocationsList)).Get("/", h.handleListAllocations)
		r.With(middleware.RequireOperation(authz.OpResourceReturn)).Post("/{allocationID}/return", h.handleReturn)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	list, err := h.Resources.List(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "resources_failed", "failed to list resources", requestID)
		return
	}
	api.Success(w, list, requestID)
}

func (h *Handler) handleInventory(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	report, err := h.Resources.Inventory(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "inventory_failed", "failed to build inventory report", requestID)
		return
	}
	api.Success(w, report, requestID)
}

type addPayload struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Quantity int      `json:"quantity"`
	UnitCost *float64 `json:"unitCost"`
	Notes    string   `json:"notes"`
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload addPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	v.Required("category", payload.Category, "category is required")
	v.PositiveInt("quantity", payload.Quantity, "must be greater than zero")
	if payload.UnitCost != nil && *payload.UnitCost < 0 {
		v.Add("unitCost", "must not be negative")
	}
	if v.Reject(w, requestID) {
		return
	}

	res, err := h.Resources.Add(r.Context(), resources.AddInput{
		Name:     strings.TrimSpace(payload.Name),
		Category: strings.TrimSpace(payload.Category),
		Quantity: payload.Quantity,
		UnitCost: payload.UnitCost,
		Notes:    strings.TrimSpace(payload.Notes),
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "resource_add_failed", "failed to add resource", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), actor.UserID, "resource.add", "resource", res.ID, res.Name, requestID, shared.ClientIP(r)); err != nil {
		slog.Warn("audit resource.add failed", "err", err)
	}
	api.Created(w, res, requestID)
}

type allocatePayload struct {
	EmployeeID string `json:"employeeId"`
	Quantity   int    `json:"quantity"`
}

func (h *Handler) handleAllocate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	resourceID := chi.URLParam(r, "resourceID")

	var payload allocatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "employeeId is required")
	v.PositiveInt("quantity", payload.Quantity, "must be greater than zero")
	if v.Reject(w, requestID) {
		return
	}

	alloc, err := h.Resources.Allocate(r.Context(), resourceID, payload.EmployeeID, payload.Quantity)
	var stockErr *resources.InsufficientStockError
	switch {
	case errors.Is(err, resources.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", requestID)
		return
	case errors.As(err, &stockErr):
		api.FailWithDetails(w, http.StatusConflict, "insufficient_stock", stockErr.Error(),
			map[string]int{"requested": stockErr.Requested, "available": stockErr.Available}, requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "allocate_failed", "failed to allocate resource", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), actor.UserID, "resource.allocate", "allocation", alloc.ID, alloc.ResourceName, requestID, shared.ClientIP(r)); err != nil {
		slog.Warn("audit resource.allocate failed", "err", err)
	}
	api.Created(w, alloc, requestID)
}

type returnPayload struct {
	Damaged bool `json:"damaged"`
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	allocationID := chi.URLParam(r, "allocationID")

	// The body is optional; an empty POST is a plain intact return.
	var payload returnPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	alloc, err := h.Resources.Return(r.Context(), allocationID, payload.Damaged)
	switch {
	case errors.Is(err, resources.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "allocation not found", requestID)
		return
	case errors.Is(err, resources.ErrNotAllocated):
		api.Fail(w, http.StatusConflict, "invalid_state", "allocation already closed", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "return_failed", "failed to return allocation", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), actor.UserID, "resource.return", "allocation", allocationID, "", requestID, shared.ClientIP(r)); err != nil {
		slog.Warn("audit resource.return failed", "err", err)
	}
	api.Success(w, alloc, requestID)
}

func (h *Handler) handleListAllocations(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	allocations, err := h.Resources.ListAllocations(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "allocations_failed", "failed to list allocations", requestID)
		return
	}
	api.Success(w, allocations, requestID)
}
