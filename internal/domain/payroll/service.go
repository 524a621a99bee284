package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"erp/internal/domain/authz"
)

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

type GenerateInput struct {
	EmployeeID string
	Month      string // YYYY-MM
	Overtime   float64
	Bonus      float64
	Tax        float64
	Insurance  float64
	Other      float64
}

// Generate creates one payroll record per employee per month. Base salary
// comes from the employee profile; the unique (employee_id, month) index
// rejects a second run for the same month.
func (s *Service) Generate(ctx context.Context, input GenerateInput) (Payroll, error) {
	var base float64
	var name string
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(e.salary, 0), u.first_name || ' ' || u.last_name
    FROM employees e
    JOIN users u ON u.id = e.user_id
    WHERE e.id = $1
  `, input.EmployeeID).Scan(&base, &name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payroll{}, ErrNoEmployee
	}
	if err != nil {
		return Payroll{}, err
	}

	net := NetSalary(Components{
		BaseSalary: base,
		Overtime:   input.Overtime,
		Bonus:      input.Bonus,
		Tax:        input.Tax,
		Insurance:  input.Insurance,
		Other:      input.Other,
	})

	p := Payroll{
		EmployeeID:      input.EmployeeID,
		EmployeeName:    name,
		Month:           input.Month,
		BaseSalary:      base,
		Overtime:        input.Overtime,
		Bonus:           input.Bonus,
		TaxDeduction:    input.Tax,
		InsuranceDeduct: input.Insurance,
		OtherDeductions: input.Other,
		NetSalary:       net,
		Status:          StatusPending,
	}
	err = s.DB.QueryRow(ctx, `
    INSERT INTO payrolls (employee_id, month, base_salary, overtime, bonus,
                          tax_deduction, insurance_deduction, other_deductions,
                          net_salary, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING id, created_at
  `, p.EmployeeID, p.Month, p.BaseSalary, p.Overtime, p.Bonus,
		p.TaxDeduction, p.InsuranceDeduct, p.OtherDeductions, p.NetSalary, p.Status).
		Scan(&p.ID, &p.CreatedAt)
	if isUniqueViolation(err) {
		return Payroll{}, ErrDuplicate
	}
	if err != nil {
		return Payroll{}, err
	}
	return p, nil
}

// ProcessPayment flips a pending record to paid. Paid is terminal.
func (s *Service) ProcessPayment(ctx context.Context, payrollID string) (Payroll, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Payroll{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status string
	err = tx.QueryRow(ctx,
		"SELECT status FROM payrolls WHERE id = $1 FOR UPDATE", payrollID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payroll{}, ErrNotFound
	}
	if err != nil {
		return Payroll{}, err
	}
	if status == StatusPaid {
		return Payroll{}, ErrAlreadyPaid
	}

	if _, err := tx.Exec(ctx, `
    UPDATE payrolls SET status = $1, paid_at = now() WHERE id = $2
  `, StatusPaid, payrollID); err != nil {
		return Payroll{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Payroll{}, err
	}
	return s.Get(ctx, payrollID)
}

const payrollColumns = `
    p.id, p.employee_id, u.first_name || ' ' || u.last_name, p.month, p.base_salary, p.overtime, p.bonus,
    p.tax_deduction, p.insurance_deduction, p.other_deductions,
    p.net_salary, p.status, p.created_at, p.paid_at`

func (s *Service) Get(ctx context.Context, payrollID string) (Payroll, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+payrollColumns+`
    FROM payrolls p
    JOIN employees e ON e.id = p.employee_id
    JOIN users u ON u.id = e.user_id
    WHERE p.id = $1
  `, payrollID)
	p, err := scanPayroll(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

// OwnerUserID maps a payroll record to the user account it pays, for
// self-access checks.
func (s *Service) OwnerUserID(ctx context.Context, payrollID string) (string, error) {
	var userID string
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(e.user_id::text, '')
    FROM payrolls p
    JOIN employees e ON e.id = p.employee_id
    WHERE p.id = $1
  `, payrollID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return userID, err
}

// LatestForUser returns the newest payroll record paying the given user
// account, for the dashboard summary.
func (s *Service) LatestForUser(ctx context.Context, userID string) (Payroll, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+payrollColumns+`
    FROM payrolls p
    JOIN employees e ON e.id = p.employee_id
    JOIN users u ON u.id = e.user_id
    WHERE e.user_id = $1
    ORDER BY p.month DESC
    LIMIT 1
  `, userID)
	p, err := scanPayroll(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

// ListVisible scopes payroll history to the principal: admins, HR and
// finance see everything, everyone else only their own records.
func (s *Service) ListVisible(ctx context.Context, p authz.Principal, month string) ([]Payroll, error) {
	query := `
    SELECT ` + payrollColumns + `
    FROM payrolls p
    JOIN employees e ON e.id = p.employee_id
    JOIN users u ON u.id = e.user_id
    WHERE 1=1
  `
	var args []any
	if !authz.Can(p, authz.OpPayrollViewAll, "") {
		args = append(args, p.UserID)
		query += fmt.Sprintf(" AND e.user_id = $%d", len(args))
	}
	if month != "" {
		args = append(args, month)
		query += fmt.Sprintf(" AND p.month = $%d", len(args))
	}
	query += " ORDER BY p.month DESC, u.last_name, u.first_name"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Payroll
	for rows.Next() {
		rec, err := scanPayroll(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayroll(row rowScanner) (Payroll, error) {
	var p Payroll
	err := row.Scan(&p.ID, &p.EmployeeID, &p.EmployeeName, &p.Month,
		&p.BaseSalary, &p.Overtime, &p.Bonus,
		&p.TaxDeduction, &p.InsuranceDeduct, &p.OtherDeductions,
		&p.NetSalary, &p.Status, &p.CreatedAt, &p.PaidAt)
	return p, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
