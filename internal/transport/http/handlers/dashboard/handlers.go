package dashboardhandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"erp/internal/domain/attendance"
	"erp/internal/domain/authz"
	"erp/internal/domain/directory"
	"erp/internal/domain/identity"
	"erp/internal/domain/payroll"
	"erp/internal/domain/resources"
	"erp/internal/domain/workflow"
	"erp/internal/transport/http/api"
	"erp/internal/transport/http/middleware"
)

type Handler struct {
	Users      *identity.Service
	Directory  *directory.Service
	Attendance *attendance.Service
	Workflows  *workflow.Service
	Resources  *resources.Service
	Payroll    *payroll.Service
}

func NewHandler(users *identity.Service, dir *directory.Service, att *attendance.Service,
	workflows *workflow.Service, res *resources.Service, pay *payroll.Service) *Handler {
	return &Handler{
		Users:      users,
		Directory:  dir,
		Attendance: att,
		Workflows:  workflows,
		Resources:  res,
		Payroll:    pay,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.handleDashboard)
}

// handleDashboard returns a small landing summary. Every authenticated user
// gets their pending approvals and latest payslip; the staffing and stock
// figures are reserved for roles with the matching visibility.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	pending, err := h.Workflows.CountPendingForAssignee(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard", requestID)
		return
	}

	summary := map[string]any{
		"pendingApprovals": pending,
	}

	latest, err := h.Payroll.LatestForUser(r.Context(), user.UserID)
	switch {
	case err == nil:
		summary["latestPayroll"] = latest
	case !errors.Is(err, payroll.ErrNotFound):
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard", requestID)
		return
	}

	if authz.Can(user, authz.OpAttendanceViewAll, "") {
		present, err := h.Attendance.PresentToday(r.Context())
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard", requestID)
			return
		}
		summary["presentToday"] = present
	}
	if authz.Can(user, authz.OpEmployeesList, "") {
		employees, err := h.Directory.CountEmployees(r.Context())
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard", requestID)
			return
		}
		departments, err := h.Directory.CountDepartments(r.Context())
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard", requestID)
			return
		}
		summary["totalEmployees"] = employees
		summary["departments"] = departments
	}
	if authz.Can(user, authz.OpResourceInventory, "") {
		lowStock, err := h.Resources.LowStockCount(r.Context())
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard", requestID)
			return
		}
		summary["lowStockResources"] = lowStock
	}
	if authz.Can(user, authz.OpUsersList, "") {
		counts, err := h.Users.RoleCounts(r.Context())
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard", requestID)
			return
		}
		summary["roleCounts"] = counts
	}

	api.Success(w, summary, requestID)
}
