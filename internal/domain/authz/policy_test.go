package authz

import "testing"

func TestAdminAllowsEverything(t *testing.T) {
	admin := Principal{UserID: "u1", Role: RoleAdmin}
	ops := []Operation{
		OpUsersList, OpUserView, OpUserManage, OpRolesManage,
		OpEmployeesList, OpEmployeeView, OpEmployeeManage,
		OpAttendanceViewAll, OpAttendanceView,
		OpWorkflowsViewAll, OpWorkflowView,
		OpPayrollViewAll, OpPayrollView, OpPayrollGenerate, OpPayrollProcess,
		OpFinanceView, OpFinanceCreate,
		OpResourceAdd, OpResourceAllocate, OpResourceReturn, OpResourceInventory, OpAllocationsList,
		OpAuditView,
	}
	for _, op := range ops {
		if !Can(admin, op, "") {
			t.Fatalf("admin denied %s", op)
		}
		if !Can(admin, op, "someone-else") {
			t.Fatalf("admin denied %s on foreign record", op)
		}
	}
}

func TestSelfAccessOverridesRoleList(t *testing.T) {
	emp := Principal{UserID: "u2", Role: RoleEmployee}

	if !Can(emp, OpPayrollView, "u2") {
		t.Fatal("employee denied own payroll")
	}
	if Can(emp, OpPayrollView, "u3") {
		t.Fatal("employee allowed foreign payroll")
	}
	if !Can(emp, OpWorkflowView, "u2") {
		t.Fatal("employee denied own workflow")
	}
	if !Can(emp, OpAttendanceView, "u2") {
		t.Fatal("employee denied own attendance")
	}
}

func TestFinanceHasNoSelfAccessOverride(t *testing.T) {
	emp := Principal{UserID: "u2", Role: RoleEmployee}
	if Can(emp, OpFinanceView, "u2") {
		t.Fatal("finance view must not be self-accessible")
	}
	if Can(emp, OpFinanceCreate, "u2") {
		t.Fatal("finance create must not be self-accessible")
	}
	fin := Principal{UserID: "u4", Role: RoleFinance}
	if !Can(fin, OpFinanceView, "") {
		t.Fatal("finance role denied transactions")
	}
}

func TestRoleAllowLists(t *testing.T) {
	cases := []struct {
		role string
		op   Operation
		want bool
	}{
		{RoleHR, OpUsersList, true},
		{RoleManager, OpUsersList, false},
		{RoleEmployee, OpUsersList, false},
		{RoleManager, OpEmployeeView, true},
		{RoleFinance, OpEmployeeView, false},
		{RoleFinance, OpPayrollViewAll, true},
		{RoleHR, OpPayrollViewAll, true},
		{RoleHR, OpPayrollProcess, false},
		{RoleFinance, OpPayrollProcess, true},
		{RoleManager, OpResourceAllocate, true},
		{RoleHR, OpResourceAllocate, false},
		{RoleManager, OpWorkflowsViewAll, true},
		{RoleFinance, OpWorkflowsViewAll, false},
		{RoleHR, OpUserManage, false},
		{RoleManager, OpAuditView, false},
	}
	for _, tc := range cases {
		p := Principal{UserID: "u9", Role: tc.role}
		if got := Can(p, tc.op, ""); got != tc.want {
			t.Fatalf("Can(%s, %s) = %v, want %v", tc.role, tc.op, got, tc.want)
		}
	}
}

func TestPolicyIsDeterministic(t *testing.T) {
	p := Principal{UserID: "u5", Role: RoleManager}
	first := Can(p, OpResourceAllocate, "")
	for i := 0; i < 100; i++ {
		if Can(p, OpResourceAllocate, "") != first {
			t.Fatal("policy decision changed between evaluations")
		}
	}
}

func TestAuthorizeReturnsPermissionDenied(t *testing.T) {
	p := Principal{UserID: "u6", Role: RoleEmployee}
	if err := Authorize(p, OpFinanceView, ""); err != ErrPermissionDenied {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if err := Authorize(p, OpPayrollView, "u6"); err != nil {
		t.Fatalf("expected nil for self payroll view, got %v", err)
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range Roles {
		if !ValidRole(role) {
			t.Fatalf("role %s reported invalid", role)
		}
	}
	if ValidRole("superuser") {
		t.Fatal("unknown role reported valid")
	}
}
