package directoryhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"erp/internal/domain/audit"
	"erp/internal/domain/authz"
	"erp/internal/domain/directory"
	"erp/internal/transport/http/api"
	"erp/internal/transport/http/middleware"
	"erp/internal/transport/http/shared"
)

type Handler struct {
	Directory *directory.Service
	Audit     *audit.Service
}

func NewHandler(dir *directory.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Directory: dir, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/departments", func(r chi.Router) {
		r.With(middleware.RequireOperation(authz.OpEmployeesList)).Get("/", h.handleListDepartments)
		r.With(middleware.RequireOperation(authz.OpEmployeeManage)).Post("/", h.handleCreateDepartment)
	})
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequireOperation(authz.OpEmployeesList)).Get("/", h.handleListEmployees)
		r.Get("/{employeeID}", h.handleGetEmployee)
		r.With(middleware.RequireOperation(authz.OpEmployeeManage)).Post("/", h.handleCreateEmployee)
		r.With(middleware.RequireOperation(authz.OpEmployeeManage)).Put("/{employeeID}", h.handleUpdateEmployee)
	})
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	departments, err := h.Directory.ListDepartments(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "departments_failed", "failed to list departments", requestID)
		return
	}
	api.Success(w, departments, requestID)
}

type departmentPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload departmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.Directory.CreateDepartment(r.Context(), strings.TrimSpace(payload.Name), strings.TrimSpace(payload.Description))
	if errors.Is(err, directory.ErrDuplicateName) {
		api.Fail(w, http.StatusConflict, "duplicate", "department name already exists", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "department_create_failed", "failed to create department", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), actor.UserID, "department.create", "department", id, payload.Name, requestID, shared.ClientIP(r)); err != nil {
		slog.Warn("audit department.create failed", "err", err)
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	employees, err := h.Directory.ListEmployees(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employees_failed", "failed to list employees", requestID)
		return
	}
	api.Success(w, employees, requestID)
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	emp, err := h.Directory.GetEmployee(r.Context(), employeeID)
	if errors.Is(err, directory.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_get_failed", "failed to load employee", requestID)
		return
	}

	// Ownership is resolved through the linked user account.
	if err := authz.Authorize(actor, authz.OpEmployeeView, emp.UserID); err != nil {
		api.Fail(w, http.StatusForbidden, "permission_denied", "insufficient permissions", requestID)
		return
	}
	api.Success(w, emp, requestID)
}

type employeePayload struct {
	UserID           string   `json:"userId"`
	DepartmentID     string   `json:"departmentId"`
	Position         string   `json:"position"`
	HireDate         string   `json:"hireDate"`
	EmploymentStatus string   `json:"employmentStatus"`
	Salary           *float64 `json:"salary"`
	ManagerID        string   `json:"managerId"`
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	payload, input, ok := h.decodeEmployee(w, r, requestID, true)
	if !ok {
		return
	}

	id, err := h.Directory.CreateEmployee(r.Context(), input)
	switch {
	case errors.Is(err, directory.ErrEmployeeForUser):
		api.Fail(w, http.StatusConflict, "duplicate", "user already has an employee record", requestID)
		return
	case errors.Is(err, directory.ErrUnknownDepartment):
		api.Fail(w, http.StatusBadRequest, "validation_error", "unknown department or manager", requestID)
		return
	case errors.Is(err, directory.ErrManagerCycle):
		api.Fail(w, http.StatusConflict, "invalid_state", "manager assignment would create a cycle", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "employee_create_failed", "failed to create employee", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), actor.UserID, "employee.create", "employee", id, payload.Position, requestID, shared.ClientIP(r)); err != nil {
		slog.Warn("audit employee.create failed", "err", err)
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	_, input, ok := h.decodeEmployee(w, r, requestID, false)
	if !ok {
		return
	}

	err := h.Directory.UpdateEmployee(r.Context(), employeeID, input)
	switch {
	case errors.Is(err, directory.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	case errors.Is(err, directory.ErrUnknownDepartment):
		api.Fail(w, http.StatusBadRequest, "validation_error", "unknown department or manager", requestID)
		return
	case errors.Is(err, directory.ErrManagerCycle):
		api.Fail(w, http.StatusConflict, "invalid_state", "manager assignment would create a cycle", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "employee_update_failed", "failed to update employee", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), actor.UserID, "employee.update", "employee", employeeID, "", requestID, shared.ClientIP(r)); err != nil {
		slog.Warn("audit employee.update failed", "err", err)
	}
	api.Success(w, map[string]string{"id": employeeID}, requestID)
}

func (h *Handler) decodeEmployee(w http.ResponseWriter, r *http.Request, requestID string, requireUser bool) (employeePayload, directory.EmployeeInput, bool) {
	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return payload, directory.EmployeeInput{}, false
	}

	v := shared.NewValidator()
	if requireUser {
		v.Required("userId", payload.UserID, "userId is required")
	}
	if payload.EmploymentStatus != "" {
		v.Enum("employmentStatus", payload.EmploymentStatus, directory.EmploymentStatuses, "must be a known employment status")
	}
	input := directory.EmployeeInput{
		UserID:           payload.UserID,
		DepartmentID:     payload.DepartmentID,
		Position:         strings.TrimSpace(payload.Position),
		EmploymentStatus: payload.EmploymentStatus,
		Salary:           payload.Salary,
		ManagerID:        payload.ManagerID,
	}
	if payload.HireDate != "" {
		if hireDate, ok := v.Date("hireDate", payload.HireDate); ok {
			input.HireDate = &hireDate
		}
	}
	if v.Reject(w, requestID) {
		return payload, directory.EmployeeInput{}, false
	}
	return payload, input, true
}
