package attendance

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"erp/internal/domain/authz"
	"erp/internal/domain/directory"
)

type Service struct {
	DB        *pgxpool.Pool
	Directory *directory.Service
}

func New(db *pgxpool.Pool, dir *directory.Service) *Service {
	return &Service{DB: db, Directory: dir}
}

// CheckIn opens today's attendance record for the caller's employee profile.
// The unique (employee_id, date) index is the guard against double check-in,
// so concurrent calls cannot both succeed.
func (s *Service) CheckIn(ctx context.Context, userID string) (Record, error) {
	emp, err := s.Directory.EmployeeByUserID(ctx, userID)
	if errors.Is(err, directory.ErrNotFound) {
		return Record{}, ErrNoEmployee
	}
	if err != nil {
		return Record{}, err
	}

	now := time.Now().UTC()
	var rec Record
	rec.EmployeeID = emp.ID
	rec.EmployeeName = emp.FirstName + " " + emp.LastName
	err = s.DB.QueryRow(ctx, `
    INSERT INTO attendance (employee_id, date, status, check_in)
    VALUES ($1, $2::date, $3, $4)
    RETURNING id, date, status, check_in
  `, emp.ID, now, StatusPresent, now).Scan(&rec.ID, &rec.Date, &rec.Status, &rec.CheckIn)
	if isUniqueViolation(err) {
		return Record{}, ErrAlreadyCheckedIn
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// CheckOut closes today's open record and stamps the worked hours.
func (s *Service) CheckOut(ctx context.Context, userID string) (Record, error) {
	emp, err := s.Directory.EmployeeByUserID(ctx, userID)
	if errors.Is(err, directory.ErrNotFound) {
		return Record{}, ErrNoEmployee
	}
	if err != nil {
		return Record{}, err
	}

	now := time.Now().UTC()
	var rec Record
	rec.EmployeeID = emp.ID
	rec.EmployeeName = emp.FirstName + " " + emp.LastName
	var checkOut time.Time
	err = s.DB.QueryRow(ctx, `
    UPDATE attendance
    SET check_out = $1,
        worked_hours = ROUND(EXTRACT(EPOCH FROM ($1 - check_in))::numeric / 3600, 2)
    WHERE employee_id = $2 AND date = $3::date AND check_out IS NULL
    RETURNING id, date, status, check_in, check_out, worked_hours
  `, now, emp.ID, now).Scan(&rec.ID, &rec.Date, &rec.Status, &rec.CheckIn, &checkOut, &rec.WorkedHours)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNoCheckIn
	}
	if err != nil {
		return Record{}, err
	}
	rec.CheckOut = &checkOut
	return rec, nil
}

// ListVisible returns attendance history scoped to the principal: admins, HR
// and managers see every employee, everyone else sees only their own rows.
func (s *Service) ListVisible(ctx context.Context, p authz.Principal, from, to *time.Time) ([]Record, error) {
	query := `
    SELECT a.id, a.employee_id, u.first_name || ' ' || u.last_name, a.date, a.status, a.check_in, a.check_out,
           COALESCE(a.worked_hours, 0)
    FROM attendance a
    JOIN employees e ON e.id = a.employee_id
    JOIN users u ON u.id = e.user_id
    WHERE 1=1
  `
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if !authz.Can(p, authz.OpAttendanceViewAll, "") {
		query += " AND e.user_id = " + arg(p.UserID)
	}
	if from != nil {
		query += " AND a.date >= " + arg(*from)
	}
	if to != nil {
		query += " AND a.date <= " + arg(*to)
	}
	query += " ORDER BY a.date DESC, a.check_in DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.EmployeeName, &rec.Date, &rec.Status,
			&rec.CheckIn, &rec.CheckOut, &rec.WorkedHours); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// PresentToday counts employees with an open or closed record for today.
func (s *Service) PresentToday(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM attendance WHERE date = CURRENT_DATE").Scan(&count)
	return count, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
