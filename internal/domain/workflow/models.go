package workflow

import "time"

const (
	TypeLeaveRequest = "leave_request"
	TypeExpenseClaim = "expense_claim"

	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// Request is the shared approval envelope. Exactly one of Leave or Expense is
// populated, matching Type.
type Request struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	RequesterID string          `json:"requesterId"`
	AssigneeID  string          `json:"assigneeId"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	Leave       *LeaveDetails   `json:"leave,omitempty"`
	Expense     *ExpenseDetails `json:"expense,omitempty"`
}

type LeaveDetails struct {
	LeaveType string    `json:"leaveType"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

type ExpenseDetails struct {
	Amount      float64   `json:"amount"`
	ExpenseDate time.Time `json:"expenseDate"`
	Category    string    `json:"category"`
	Reimbursed  bool      `json:"reimbursed"`
}

func terminal(status string) bool {
	return status == StatusApproved || status == StatusRejected || status == StatusCancelled
}
