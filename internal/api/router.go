package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/campuslock/lockerd/internal/api/handler"
	"github.com/campuslock/lockerd/internal/api/middleware"
	"github.com/campuslock/lockerd/internal/services/audit"
	"github.com/campuslock/lockerd/internal/services/auth"
	"github.com/campuslock/lockerd/internal/services/rental"
	"github.com/campuslock/lockerd/internal/services/waitlist"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger           *slog.Logger
	AuthService      *auth.Service
	RentalController *rental.Controller
	WaitlistService  *waitlist.Service
	AuditService     *audit.Service
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	accountHandler := handler.NewAccountHandler(cfg.AuthService)
	lockerHandler := handler.NewLockerHandler(cfg.RentalController)
	waitlistHandler := handler.NewWaitlistHandler(cfg.WaitlistService)
	adminHandler := handler.NewAdminHandler(cfg.AuthService, cfg.RentalController, cfg.AuditService)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	adminMiddleware := middleware.RequireAdmin()
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Account routes (no auth required for registering/logging in)
	api.HandleFunc("/accounts/register", accountHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/accounts/login", accountHandler.Login).Methods(http.MethodPost)

	// Protected account routes
	accounts := api.PathPrefix("/accounts").Subrouter()
	accounts.Use(authMiddleware)
	accounts.HandleFunc("/logout", accountHandler.Logout).Methods(http.MethodPost)
	accounts.HandleFunc("/me", accountHandler.GetMe).Methods(http.MethodGet)

	// Locker routes (all require auth)
	lockers := api.PathPrefix("/lockers").Subrouter()
	lockers.Use(authMiddleware)
	lockers.HandleFunc("", lockerHandler.List).Methods(http.MethodGet)
	lockers.HandleFunc("/{id}", lockerHandler.Get).Methods(http.MethodGet)
	lockers.HandleFunc("/{id}/rent", lockerHandler.Rent).Methods(http.MethodPost)
	lockers.HandleFunc("/{id}/return", lockerHandler.Return).Methods(http.MethodPost)
	lockers.HandleFunc("/{id}/access-code", lockerHandler.GenerateAccessCode).Methods(http.MethodPost)
	lockers.HandleFunc("/{id}/access-code/verify", lockerHandler.VerifyAccessCode).Methods(http.MethodPost)

	// Waitlist routes (all require auth)
	waitlistRoutes := api.PathPrefix("/waitlist").Subrouter()
	waitlistRoutes.Use(authMiddleware)
	waitlistRoutes.HandleFunc("", waitlistHandler.Join).Methods(http.MethodPost)
	waitlistRoutes.HandleFunc("", waitlistHandler.List).Methods(http.MethodGet)

	// Admin routes (auth + admin role)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(authMiddleware)
	admin.Use(adminMiddleware)
	admin.HandleFunc("/lockers/{id}/force-return", adminHandler.ForceReturn).Methods(http.MethodPost)
	admin.HandleFunc("/lockers/{id}/status", adminHandler.UpdateLockerStatus).Methods(http.MethodPatch)
	admin.HandleFunc("/users", adminHandler.ListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}", adminHandler.RemoveUser).Methods(http.MethodDelete)
	admin.HandleFunc("/audit-log", adminHandler.ListAuditLog).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
