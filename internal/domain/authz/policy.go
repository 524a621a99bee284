package authz

import "errors"

var ErrPermissionDenied = errors.New("permission denied")

type Operation string

const (
	OpUsersList          Operation = "users.list"
	OpUserView           Operation = "users.view"
	OpUserManage         Operation = "users.manage"
	OpRolesManage        Operation = "roles.manage"
	OpEmployeesList      Operation = "employees.list"
	OpEmployeeView       Operation = "employees.view"
	OpEmployeeManage     Operation = "employees.manage"
	OpAttendanceViewAll  Operation = "attendance.view_all"
	OpAttendanceView     Operation = "attendance.view"
	OpWorkflowsViewAll   Operation = "workflows.view_all"
	OpWorkflowView       Operation = "workflows.view"
	OpPayrollViewAll     Operation = "payroll.view_all"
	OpPayrollView        Operation = "payroll.view"
	OpPayrollGenerate    Operation = "payroll.generate"
	OpPayrollProcess     Operation = "payroll.process"
	OpFinanceView        Operation = "finance.view"
	OpFinanceCreate      Operation = "finance.create"
	OpResourceAdd        Operation = "resources.add"
	OpResourceAllocate   Operation = "resources.allocate"
	OpResourceReturn     Operation = "resources.return"
	OpResourceInventory  Operation = "resources.inventory"
	OpAllocationsList    Operation = "resources.allocations"
	OpAuditView          Operation = "audit.view"
)

type Principal struct {
	UserID string
	Role   string
}

// roleAllow lists the roles permitted to perform each operation regardless of
// record ownership. Operations absent from the map are admin-only.
var roleAllow = map[Operation][]string{
	OpUsersList:         {RoleAdmin, RoleHR},
	OpUserView:          {RoleAdmin, RoleHR},
	OpEmployeesList:     {RoleAdmin, RoleHR, RoleManager},
	OpEmployeeView:      {RoleAdmin, RoleHR, RoleManager},
	OpEmployeeManage:    {RoleAdmin, RoleHR},
	OpAttendanceViewAll: {RoleAdmin, RoleHR, RoleManager},
	OpWorkflowsViewAll:  {RoleAdmin, RoleManager, RoleHR},
	OpWorkflowView:      {RoleAdmin, RoleManager, RoleHR},
	OpPayrollViewAll:    {RoleAdmin, RoleFinance, RoleHR},
	OpPayrollView:       {RoleAdmin, RoleFinance, RoleHR},
	OpPayrollGenerate:   {RoleAdmin, RoleFinance, RoleHR},
	OpPayrollProcess:    {RoleAdmin, RoleFinance},
	OpFinanceView:       {RoleAdmin, RoleFinance},
	OpFinanceCreate:     {RoleAdmin, RoleFinance},
	OpResourceAdd:       {RoleAdmin, RoleManager},
	OpResourceAllocate:  {RoleAdmin, RoleManager},
	OpResourceReturn:    {RoleAdmin, RoleManager},
	OpResourceInventory: {RoleAdmin, RoleManager},
	OpAllocationsList:   {RoleAdmin, RoleManager},
}

// selfService marks operations a principal may always perform against records
// they own. Finance operations are deliberately excluded: transaction access
// is role-gated with no ownership override.
var selfService = map[Operation]bool{
	OpUserView:       true,
	OpEmployeeView:   true,
	OpAttendanceView: true,
	OpWorkflowView:   true,
	OpPayrollView:    true,
}

// Can evaluates the access policy for one operation. ownerID identifies the
// user owning the target record, or is empty when the operation targets a
// record class. Rules are checked in precedence order: admin, self-access,
// role allow-list, deny.
func Can(p Principal, op Operation, ownerID string) bool {
	if p.Role == RoleAdmin {
		return true
	}
	if ownerID != "" && ownerID == p.UserID && selfService[op] {
		return true
	}
	for _, role := range roleAllow[op] {
		if p.Role == role {
			return true
		}
	}
	return false
}

// Authorize is the error-returning form of Can for service-layer callers.
func Authorize(p Principal, op Operation, ownerID string) error {
	if !Can(p, op, ownerID) {
		return ErrPermissionDenied
	}
	return nil
}
