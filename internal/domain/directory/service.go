package directory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

func (s *Service) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, COALESCE(description, ''), created_at
    FROM departments
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt); err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, nil
}

func (s *Service) CreateDepartment(ctx context.Context, name, description string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO departments (name, description)
    VALUES ($1,$2)
    RETURNING id
  `, name, description).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrDuplicateName
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

const employeeColumns = `
    e.id, COALESCE(e.user_id::text, ''), u.first_name, u.last_name, u.email,
    COALESCE(e.department_id::text, ''), COALESCE(d.name, ''),
    COALESCE(e.position, ''), e.hire_date, e.employment_status, e.salary,
    COALESCE(e.manager_id::text, ''), e.created_at, e.updated_at`

func (s *Service) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+employeeColumns+`
    FROM employees e
    JOIN users u ON e.user_id = u.id
    LEFT JOIN departments d ON e.department_id = d.id
    ORDER BY u.last_name, u.first_name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, nil
}

func (s *Service) GetEmployee(ctx context.Context, employeeID string) (Employee, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+employeeColumns+`
    FROM employees e
    JOIN users u ON e.user_id = u.id
    LEFT JOIN departments d ON e.department_id = d.id
    WHERE e.id = $1
  `, employeeID)
	emp, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return emp, ErrNotFound
	}
	return emp, err
}

func (s *Service) EmployeeByUserID(ctx context.Context, userID string) (Employee, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+employeeColumns+`
    FROM employees e
    JOIN users u ON e.user_id = u.id
    LEFT JOIN departments d ON e.department_id = d.id
    WHERE e.user_id = $1
  `, userID)
	emp, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return emp, ErrNotFound
	}
	return emp, err
}

// ManagerUserID resolves the user id behind an employee's manager. Empty when
// the employee has no manager or the manager has no linked user.
func (s *Service) ManagerUserID(ctx context.Context, userID string) (string, error) {
	var managerUserID string
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(m.user_id::text, '')
    FROM employees e
    JOIN employees m ON e.manager_id = m.id
    WHERE e.user_id = $1
  `, userID).Scan(&managerUserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return managerUserID, nil
}

type EmployeeInput struct {
	UserID           string
	DepartmentID     string
	Position         string
	HireDate         *time.Time
	EmploymentStatus string
	Salary           *float64
	ManagerID        string
}

func (s *Service) CreateEmployee(ctx context.Context, input EmployeeInput) (string, error) {
	if input.ManagerID != "" {
		if err := s.checkManagerCycle(ctx, "", input.ManagerID); err != nil {
			return "", err
		}
	}
	status := input.EmploymentStatus
	if status == "" {
		status = EmploymentActive
	}

	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (user_id, department_id, position, hire_date, employment_status, salary, manager_id)
    VALUES ($1, NULLIF($2,'')::uuid, $3, $4, $5, $6, NULLIF($7,'')::uuid)
    RETURNING id
  `, input.UserID, input.DepartmentID, input.Position, input.HireDate, status, input.Salary, input.ManagerID).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrEmployeeForUser
	}
	if isForeignKeyViolation(err) {
		return "", ErrUnknownDepartment
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Service) UpdateEmployee(ctx context.Context, employeeID string, input EmployeeInput) error {
	if input.ManagerID != "" {
		if err := s.checkManagerCycle(ctx, employeeID, input.ManagerID); err != nil {
			return err
		}
	}

	tag, err := s.DB.Exec(ctx, `
    UPDATE employees
    SET department_id = NULLIF($1,'')::uuid,
        position = $2,
        hire_date = COALESCE($3, hire_date),
        employment_status = $4,
        salary = COALESCE($5, salary),
        manager_id = NULLIF($6,'')::uuid,
        updated_at = now()
    WHERE id = $7
  `, input.DepartmentID, input.Position, input.HireDate, input.EmploymentStatus, input.Salary, input.ManagerID, employeeID)
	if isForeignKeyViolation(err) {
		return ErrUnknownDepartment
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) checkManagerCycle(ctx context.Context, employeeID, managerID string) error {
	rows, err := s.DB.Query(ctx, "SELECT id, COALESCE(manager_id::text, '') FROM employees")
	if err != nil {
		return err
	}
	defer rows.Close()

	managers := map[string]string{}
	for rows.Next() {
		var id, manager string
		if err := rows.Scan(&id, &manager); err != nil {
			return err
		}
		managers[id] = manager
	}

	if wouldCreateCycle(managers, employeeID, managerID) {
		return ErrManagerCycle
	}
	return nil
}

func (s *Service) CountEmployees(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees").Scan(&count)
	return count, err
}

func (s *Service) CountDepartments(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM departments").Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (Employee, error) {
	var emp Employee
	err := row.Scan(
		&emp.ID, &emp.UserID, &emp.FirstName, &emp.LastName, &emp.Email,
		&emp.DepartmentID, &emp.DepartmentName,
		&emp.Position, &emp.HireDate, &emp.EmploymentStatus, &emp.Salary,
		&emp.ManagerID, &emp.CreatedAt, &emp.UpdatedAt,
	)
	return emp, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
