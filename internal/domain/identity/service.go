package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"erp/internal/auth"
	"erp/internal/domain/authz"
)

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

type AuthUser struct {
	ID           string
	Role         string
	PasswordHash string
	MFAEnabled   bool
	MFASecret    string
}

func (s *Service) FindActiveByEmail(ctx context.Context, email string) (AuthUser, error) {
	var out AuthUser
	err := s.DB.QueryRow(ctx, `
    SELECT id, role, password_hash, mfa_enabled, COALESCE(mfa_secret, '')
    FROM users
    WHERE email = $1 AND is_active = true
  `, email).Scan(&out.ID, &out.Role, &out.PasswordHash, &out.MFAEnabled, &out.MFASecret)
	if errors.Is(err, pgx.ErrNoRows) {
		return out, ErrNotFound
	}
	return out, err
}

type RegisterInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	Role      string
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (string, error) {
	if !authz.ValidRole(input.Role) {
		return "", ErrInvalidRole
	}
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return "", err
	}

	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO users (username, email, first_name, last_name, password_hash, role)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, input.Username, input.Email, input.FirstName, input.LastName, hash, input.Role).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrDuplicate
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Service) Get(ctx context.Context, userID string) (User, error) {
	var u User
	err := s.DB.QueryRow(ctx, `
    SELECT id, username, email, first_name, last_name, role, is_active, created_at, updated_at
    FROM users
    WHERE id = $1
  `, userID).Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, username, email, first_name, last_name, role, is_active, created_at, updated_at
    FROM users
    ORDER BY username
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

type UpdateInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
}

// Update applies admin edits to a user record. Password and role are only
// touched when non-empty.
func (s *Service) Update(ctx context.Context, userID string, input UpdateInput) error {
	if input.Role != "" && !authz.ValidRole(input.Role) {
		return ErrInvalidRole
	}

	tag, err := s.DB.Exec(ctx, `
    UPDATE users
    SET first_name = $1, last_name = $2, email = $3, updated_at = now()
    WHERE id = $4
  `, input.FirstName, input.LastName, input.Email, userID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			return err
		}
		if _, err := s.DB.Exec(ctx, "UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2", hash, userID); err != nil {
			return err
		}
	}
	if input.Role != "" {
		if _, err := s.DB.Exec(ctx, "UPDATE users SET role = $1, updated_at = now() WHERE id = $2", input.Role, userID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) SetActive(ctx context.Context, userID, actorID string, active bool) error {
	if !active && userID == actorID {
		return ErrSelfDeactivate
	}
	tag, err := s.DB.Exec(ctx, "UPDATE users SET is_active = $1, updated_at = now() WHERE id = $2", active, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) RoleCounts(ctx context.Context) ([]RoleCount, error) {
	counts := map[string]int{}
	rows, err := s.DB.Query(ctx, "SELECT role, COUNT(1) FROM users GROUP BY role")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		counts[role] = n
	}

	out := make([]RoleCount, 0, len(authz.Roles))
	for _, role := range authz.Roles {
		out = append(out, RoleCount{Role: role, Users: counts[role]})
	}
	return out, nil
}

// FirstUserWithRole returns the id of an arbitrary active user holding the
// role, preferring the earliest created. Used by workflow routing.
func (s *Service) FirstUserWithRole(ctx context.Context, role string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    SELECT id FROM users
    WHERE role = $1 AND is_active = true
    ORDER BY created_at
    LIMIT 1
  `, role).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return id, err
}

func (s *Service) MFASecret(ctx context.Context, userID string) (string, error) {
	var secret string
	err := s.DB.QueryRow(ctx, "SELECT COALESCE(mfa_secret, '') FROM users WHERE id = $1", userID).Scan(&secret)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return secret, err
}

func (s *Service) UpdateMFASecret(ctx context.Context, userID, secret string, enabled bool) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_secret = $1, mfa_enabled = $2, updated_at = now() WHERE id = $3", secret, enabled, userID)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
