package workflow

// Candidates holds the user ids eligible to approve a request, in the roles
// routing may fall back to. Empty fields mean no such user exists.
type Candidates struct {
	ManagerUserID string
	HRUserID      string
	FinanceUserID string
	AdminUserID   string
}

// ResolveAssignee picks the approver for a new request. Leave requests route
// to the requester's manager, then HR, then an admin. Expense claims route to
// finance, then an admin. Empty means unroutable; submission must reject the
// request rather than persist it without an approver.
func ResolveAssignee(workflowType string, c Candidates) string {
	switch workflowType {
	case TypeLeaveRequest:
		if c.ManagerUserID != "" {
			return c.ManagerUserID
		}
		if c.HRUserID != "" {
			return c.HRUserID
		}
		return c.AdminUserID
	case TypeExpenseClaim:
		if c.FinanceUserID != "" {
			return c.FinanceUserID
		}
		return c.AdminUserID
	}
	return ""
}
