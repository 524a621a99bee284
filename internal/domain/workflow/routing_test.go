package workflow

import "testing"

func TestResolveAssigneeLeavePrefersManager(t *testing.T) {
	c := Candidates{ManagerUserID: "m1", HRUserID: "h1", AdminUserID: "a1"}
	if got := ResolveAssignee(TypeLeaveRequest, c); got != "m1" {
		t.Fatalf("expected manager, got %q", got)
	}
}

func TestResolveAssigneeLeaveFallsBackToHRThenAdmin(t *testing.T) {
	c := Candidates{HRUserID: "h1", AdminUserID: "a1"}
	if got := ResolveAssignee(TypeLeaveRequest, c); got != "h1" {
		t.Fatalf("expected hr fallback, got %q", got)
	}
	c = Candidates{AdminUserID: "a1"}
	if got := ResolveAssignee(TypeLeaveRequest, c); got != "a1" {
		t.Fatalf("expected admin fallback, got %q", got)
	}
	if got := ResolveAssignee(TypeLeaveRequest, Candidates{}); got != "" {
		t.Fatalf("expected unroutable, got %q", got)
	}
}

func TestResolveAssigneeExpenseIgnoresManagerAndHR(t *testing.T) {
	c := Candidates{ManagerUserID: "m1", HRUserID: "h1", FinanceUserID: "f1", AdminUserID: "a1"}
	if got := ResolveAssignee(TypeExpenseClaim, c); got != "f1" {
		t.Fatalf("expected finance, got %q", got)
	}
	c = Candidates{ManagerUserID: "m1", HRUserID: "h1", AdminUserID: "a1"}
	if got := ResolveAssignee(TypeExpenseClaim, c); got != "a1" {
		t.Fatalf("expected admin fallback, got %q", got)
	}
}

func TestResolveAssigneeUnknownType(t *testing.T) {
	c := Candidates{ManagerUserID: "m1", AdminUserID: "a1"}
	if got := ResolveAssignee("travel_request", c); got != "" {
		t.Fatalf("expected no assignee for unknown type, got %q", got)
	}
}

func TestTerminalStatuses(t *testing.T) {
	if terminal(StatusPending) {
		t.Fatal("pending must not be terminal")
	}
	for _, status := range []string{StatusApproved, StatusRejected, StatusCancelled} {
		if !terminal(status) {
			t.Fatalf("%s must be terminal", status)
		}
	}
}
