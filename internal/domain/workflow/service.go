package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"erp/internal/domain/authz"
	"erp/internal/domain/directory"
	"erp/internal/domain/identity"
)

type Service struct {
	DB        *pgxpool.Pool
	Directory *directory.Service
	Users     *identity.Service
}

func New(db *pgxpool.Pool, dir *directory.Service, users *identity.Service) *Service {
	return &Service{DB: db, Directory: dir, Users: users}
}

type LeaveInput struct {
	LeaveType string
	StartDate time.Time
	EndDate   time.Time
	Reason    string
}

func (s *Service) SubmitLeaveRequest(ctx context.Context, requesterID string, input LeaveInput) (Request, error) {
	managerUserID, err := s.Directory.ManagerUserID(ctx, requesterID)
	if err != nil {
		return Request{}, err
	}
	hrUserID, err := s.Users.FirstUserWithRole(ctx, authz.RoleHR)
	if err != nil {
		return Request{}, err
	}
	adminUserID, err := s.Users.FirstUserWithRole(ctx, authz.RoleAdmin)
	if err != nil {
		return Request{}, err
	}

	assigneeID := ResolveAssignee(TypeLeaveRequest, Candidates{
		ManagerUserID: managerUserID,
		HRUserID:      hrUserID,
		AdminUserID:   adminUserID,
	})
	if assigneeID == "" {
		return Request{}, ErrNoApprover
	}
	if assigneeID == requesterID {
		// A requester must never approve their own request; skip to the next
		// fallback in the chain.
		assigneeID = ResolveAssignee(TypeLeaveRequest, Candidates{
			HRUserID:    skipSelf(hrUserID, requesterID),
			AdminUserID: skipSelf(adminUserID, requesterID),
		})
		if assigneeID == "" {
			return Request{}, ErrNoApprover
		}
	}

	req := Request{
		Type:        TypeLeaveRequest,
		Title:       fmt.Sprintf("Leave Request: %s", input.LeaveType),
		Description: input.Reason,
		RequesterID: requesterID,
		AssigneeID:  assigneeID,
		Status:      StatusPending,
		Leave: &LeaveDetails{
			LeaveType: input.LeaveType,
			StartDate: input.StartDate,
			EndDate:   input.EndDate,
		},
	}

	err = s.DB.QueryRow(ctx, `
    INSERT INTO workflows (workflow_type, title, description, requester_id, assignee_id, status, leave_type, start_date, end_date)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING id, created_at
  `, req.Type, req.Title, req.Description, req.RequesterID, req.AssigneeID, req.Status,
		input.LeaveType, input.StartDate, input.EndDate).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return Request{}, err
	}
	return req, nil
}

type ExpenseInput struct {
	Amount      float64
	ExpenseDate time.Time
	Category    string
	Description string
}

func (s *Service) SubmitExpenseClaim(ctx context.Context, requesterID string, input ExpenseInput) (Request, error) {
	financeUserID, err := s.Users.FirstUserWithRole(ctx, authz.RoleFinance)
	if err != nil {
		return Request{}, err
	}
	adminUserID, err := s.Users.FirstUserWithRole(ctx, authz.RoleAdmin)
	if err != nil {
		return Request{}, err
	}

	assigneeID := ResolveAssignee(TypeExpenseClaim, Candidates{
		FinanceUserID: skipSelf(financeUserID, requesterID),
		AdminUserID:   skipSelf(adminUserID, requesterID),
	})
	if assigneeID == "" {
		return Request{}, ErrNoApprover
	}

	req := Request{
		Type:        TypeExpenseClaim,
		Title:       fmt.Sprintf("Expense Claim: %s - $%.2f", input.Category, input.Amount),
		Description: input.Description,
		RequesterID: requesterID,
		AssigneeID:  assigneeID,
		Status:      StatusPending,
		Expense: &ExpenseDetails{
			Amount:      input.Amount,
			ExpenseDate: input.ExpenseDate,
			Category:    input.Category,
		},
	}

	err = s.DB.QueryRow(ctx, `
    INSERT INTO workflows (workflow_type, title, description, requester_id, assignee_id, status, amount, expense_date, category, reimbursed)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,false)
    RETURNING id, created_at
  `, req.Type, req.Title, req.Description, req.RequesterID, req.AssigneeID, req.Status,
		input.Amount, input.ExpenseDate, input.Category).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return Request{}, err
	}
	return req, nil
}

// Decide moves a pending request to approved or rejected. The status check
// and update run in one transaction with the row locked, so a duplicate
// decide observes the terminal status instead of overwriting it.
func (s *Service) Decide(ctx context.Context, workflowID, deciderID, outcome string) (Request, error) {
	if outcome != StatusApproved && outcome != StatusRejected {
		return Request{}, fmt.Errorf("invalid outcome %q", outcome)
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var workflowType, assigneeID, status string
	err = tx.QueryRow(ctx, `
    SELECT workflow_type, COALESCE(assignee_id::text, ''), status
    FROM workflows
    WHERE id = $1
    FOR UPDATE
  `, workflowID).Scan(&workflowType, &assigneeID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, err
	}

	if assigneeID != deciderID {
		return Request{}, ErrNotAssignee
	}
	if terminal(status) {
		return Request{}, ErrInvalidState
	}

	if _, err := tx.Exec(ctx, `
    UPDATE workflows
    SET status = $1, completed_at = now(), updated_at = now()
    WHERE id = $2
  `, outcome, workflowID); err != nil {
		return Request{}, err
	}

	if workflowType == TypeExpenseClaim && outcome == StatusApproved {
		if _, err := tx.Exec(ctx, "UPDATE workflows SET reimbursed = true WHERE id = $1", workflowID); err != nil {
			return Request{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}
	return s.Get(ctx, workflowID)
}

// Cancel lets the requester withdraw a pending request. Cancelled is terminal.
func (s *Service) Cancel(ctx context.Context, workflowID, requesterID string) (Request, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var ownerID, status string
	err = tx.QueryRow(ctx, `
    SELECT requester_id::text, status
    FROM workflows
    WHERE id = $1
    FOR UPDATE
  `, workflowID).Scan(&ownerID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, err
	}

	if ownerID != requesterID {
		return Request{}, ErrNotRequester
	}
	if terminal(status) {
		return Request{}, ErrInvalidState
	}

	if _, err := tx.Exec(ctx, `
    UPDATE workflows
    SET status = $1, completed_at = now(), updated_at = now()
    WHERE id = $2
  `, StatusCancelled, workflowID); err != nil {
		return Request{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}
	return s.Get(ctx, workflowID)
}

const requestColumns = `
    id, workflow_type, title, COALESCE(description, ''),
    requester_id::text, COALESCE(assignee_id::text, ''), status,
    created_at, completed_at,
    leave_type, start_date, end_date,
    amount, expense_date, category, reimbursed`

func (s *Service) Get(ctx context.Context, workflowID string) (Request, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+requestColumns+`
    FROM workflows
    WHERE id = $1
  `, workflowID)
	req, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return req, ErrNotFound
	}
	return req, err
}

// ListVisible returns the requests the principal may see: their own and those
// assigned to them, or everything for admin, manager and HR. Breadth of
// visibility grants no decision authority.
func (s *Service) ListVisible(ctx context.Context, p authz.Principal) ([]Request, error) {
	query := `
    SELECT ` + requestColumns + `
    FROM workflows
  `
	var args []any
	if !authz.Can(p, authz.OpWorkflowsViewAll, "") {
		query += " WHERE requester_id = $1 OR assignee_id = $1"
		args = append(args, p.UserID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}

func (s *Service) CountPendingForAssignee(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM workflows WHERE assignee_id = $1 AND status = $2
  `, userID, StatusPending).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (Request, error) {
	var req Request
	var leaveType *string
	var startDate, endDate, expenseDate *time.Time
	var amount *float64
	var category *string
	var reimbursed *bool

	err := row.Scan(
		&req.ID, &req.Type, &req.Title, &req.Description,
		&req.RequesterID, &req.AssigneeID, &req.Status,
		&req.CreatedAt, &req.CompletedAt,
		&leaveType, &startDate, &endDate,
		&amount, &expenseDate, &category, &reimbursed,
	)
	if err != nil {
		return req, err
	}

	switch req.Type {
	case TypeLeaveRequest:
		details := LeaveDetails{}
		if leaveType != nil {
			details.LeaveType = *leaveType
		}
		if startDate != nil {
			details.StartDate = *startDate
		}
		if endDate != nil {
			details.EndDate = *endDate
		}
		req.Leave = &details
	case TypeExpenseClaim:
		details := ExpenseDetails{}
		if amount != nil {
			details.Amount = *amount
		}
		if expenseDate != nil {
			details.ExpenseDate = *expenseDate
		}
		if category != nil {
			details.Category = *category
		}
		if reimbursed != nil {
			details.Reimbursed = *reimbursed
		}
		req.Expense = &details
	}
	return req, nil
}

func skipSelf(candidateID, requesterID string) string {
	if candidateID == requesterID {
		return ""
	}
	return candidateID
}
