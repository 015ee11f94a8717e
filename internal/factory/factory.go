package factory

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/campuslock/lockerd/internal/dependencies/clock"
	"github.com/campuslock/lockerd/internal/dependencies/random"
	"github.com/campuslock/lockerd/internal/services/audit"
	"github.com/campuslock/lockerd/internal/services/auth"
	"github.com/campuslock/lockerd/internal/services/rental"
	"github.com/campuslock/lockerd/internal/services/waitlist"
	"github.com/campuslock/lockerd/internal/storage"
	"github.com/campuslock/lockerd/internal/storage/memory"
	redisstorage "github.com/campuslock/lockerd/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	AuditService     *audit.Service
	AuthService      *auth.Service
	WaitlistService  *waitlist.Service
	RentalController *rental.Controller
	Sweeper          *rental.Sweeper
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// RentalConfig holds configuration for the rental controller (optional)
	// If zero value, defaults to rental.DefaultConfig()
	RentalConfig rental.Config
	// SweepInterval is how often the overdue sweep runs (optional)
	// If zero, defaults to rental.DefaultSweepInterval
	SweepInterval time.Duration
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	return newWithDependencies(store, clk, rnd, cfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg.SessionDuration = auth.DefaultConfig().SessionDuration
	}

	rentalCfg := cfg.RentalConfig
	if rentalCfg.TotalLockers == 0 {
		rentalCfg = rental.DefaultConfig()
	}

	// Create services
	auditService := audit.New(store, clk, logger)
	authService := auth.New(store, auditService, clk, rnd, authCfg, logger)
	waitlistService := waitlist.New(store, auditService, logger)
	rentalController := rental.NewController(store, waitlistService, auditService, clk, rnd, rentalCfg, logger)
	sweeper := rental.NewSweeper(rentalController, cfg.SweepInterval, logger)

	return &App{
		Storage:          store,
		Clock:            clk,
		Random:           rnd,
		AuditService:     auditService,
		AuthService:      authService,
		WaitlistService:  waitlistService,
		RentalController: rentalController,
		Sweeper:          sweeper,
	}
}
