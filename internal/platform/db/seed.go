package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"erp/internal/auth"
	"erp/internal/domain/authz"
	"erp/internal/platform/config"
)

// Seed creates the bootstrap admin account if no admin exists yet. Safe to
// run on every start.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	var admins int
	if err := pool.QueryRow(ctx,
		"SELECT COUNT(1) FROM users WHERE role = $1", authz.RoleAdmin).Scan(&admins); err != nil {
		return err
	}
	if admins > 0 {
		return nil
	}

	password := cfg.SeedAdminPassword
	if password == "" {
		if cfg.Environment == "production" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD is required to seed the first admin")
		}
		password = "admin123"
		slog.Warn("seeding admin with default password; change it immediately")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	email := cfg.SeedAdminEmail
	if email == "" {
		email = "admin@example.com"
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO users (username, email, first_name, last_name, password_hash, role)
    VALUES ($1, $2, 'System', 'Admin', $3, $4)
    ON CONFLICT (username) DO NOTHING
  `, strings.TrimSpace(cfg.SeedAdminUsername), strings.ToLower(email), hash, authz.RoleAdmin)
	if err != nil {
		return err
	}

	slog.Info("seeded admin account", "username", cfg.SeedAdminUsername)
	return nil
}
