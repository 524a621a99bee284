package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"erp/internal/domain/attendance"
	"erp/internal/domain/audit"
	"erp/internal/domain/directory"
	"erp/internal/domain/finance"
	"erp/internal/domain/identity"
	"erp/internal/domain/payroll"
	"erp/internal/domain/resources"
	"erp/internal/domain/workflow"
	"erp/internal/platform/config"
	attendancehandler "erp/internal/transport/http/handlers/attendance"
	audithandler "erp/internal/transport/http/handlers/audit"
	authhandler "erp/internal/transport/http/handlers/auth"
	dashboardhandler "erp/internal/transport/http/handlers/dashboard"
	directoryhandler "erp/internal/transport/http/handlers/directory"
	financehandler "erp/internal/transport/http/handlers/finance"
	payrollhandler "erp/internal/transport/http/handlers/payroll"
	resourceshandler "erp/internal/transport/http/handlers/resources"
	usershandler "erp/internal/transport/http/handlers/users"
	workflowhandler "erp/internal/transport/http/handlers/workflow"
	"erp/internal/transport/http/middleware"
)

const loginRateLimit = 10

// App wires the domain services and the HTTP surface.
type App struct {
	Config config.Config
	DB     *pgxpool.Pool

	Users      *identity.Service
	Directory  *directory.Service
	Attendance *attendance.Service
	Workflows  *workflow.Service
	Resources  *resources.Service
	Payroll    *payroll.Service
	Finance    *finance.Service
	Audit      *audit.Service
}

func New(cfg config.Config, pool *pgxpool.Pool) *App {
	users := identity.New(pool)
	dir := directory.New(pool)
	return &App{
		Config:     cfg,
		DB:         pool,
		Users:      users,
		Directory:  dir,
		Attendance: attendance.New(pool, dir),
		Workflows:  workflow.New(pool, dir, users),
		Resources:  resources.New(pool),
		Payroll:    payroll.New(pool),
		Finance:    finance.New(pool),
		Audit:      audit.New(pool),
	}
}

func (a *App) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(a.Config.Environment == "production"))
	router.Use(middleware.BodyLimit(a.Config.MaxBodyBytes))
	router.Use(middleware.Auth(a.Config.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	authH := authhandler.NewHandler(a.Users, a.Audit, a.Config.JWTSecret, a.Config.TokenTTL)

	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(loginRateLimit, time.Minute, middleware.UsernameOrIPKey("email")))
			authH.RegisterPublicRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			authH.RegisterRoutes(r)
			usershandler.NewHandler(a.Users, a.Audit).RegisterRoutes(r)
			directoryhandler.NewHandler(a.Directory, a.Audit).RegisterRoutes(r)
			attendancehandler.NewHandler(a.Attendance).RegisterRoutes(r)
			workflowhandler.NewHandler(a.Workflows, a.Audit).RegisterRoutes(r)
			resourceshandler.NewHandler(a.Resources, a.Audit).RegisterRoutes(r)
			payrollhandler.NewHandler(a.Payroll, a.Audit).RegisterRoutes(r)
			financehandler.NewHandler(a.Finance, a.Audit).RegisterRoutes(r)
			audithandler.NewHandler(a.Audit).RegisterRoutes(r)
			dashboardhandler.NewHandler(a.Users, a.Directory, a.Attendance, a.Workflows, a.Resources, a.Payroll).RegisterRoutes(r)
		})
	})

	return router
}
