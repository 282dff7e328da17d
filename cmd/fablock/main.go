// FabLock Core - Makerspace Access Control
//
// This is the main entry point for the FabLock Core application.
// FabLock is the backend for a fab-lab access control system:
//   - Door and tool controllers speak a line-oriented machine protocol
//   - Members identify with RFID cards or phone numbers
//   - Qualifications gate which tools each member may switch on
//   - Admins manage the whole lot over a JSON API
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/rbining/fablock-core/migrations"

	"github.com/rbining/fablock-core/internal/access"
	"github.com/rbining/fablock-core/internal/api"
	"github.com/rbining/fablock-core/internal/auth"
	"github.com/rbining/fablock-core/internal/device"
	"github.com/rbining/fablock-core/internal/infrastructure/config"
	"github.com/rbining/fablock-core/internal/infrastructure/database"
	"github.com/rbining/fablock-core/internal/infrastructure/logging"
	"github.com/rbining/fablock-core/internal/qualification"
	"github.com/rbining/fablock-core/internal/user"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting FabLock Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Wire repositories
	adminRepo := auth.NewAdminRepository(db.DB)
	deviceRepo := device.NewRepository(db.DB)
	toolRepo := device.NewToolRepository(db.DB)
	userRepo := user.NewRepository(db.DB)
	qualificationRepo := qualification.NewRepository(db.DB)

	// Seed the initial admin account on first boot
	if _, seedErr := auth.SeedAdmin(ctx, adminRepo, log.Logger); seedErr != nil {
		return fmt.Errorf("seeding admin account: %w", seedErr)
	}

	// Build the authentication and permission layers
	authenticator := auth.NewAuthenticator(adminRepo, deviceRepo)
	resolver := access.NewResolver(deviceRepo, toolRepo, userRepo)

	// Start the API server (machine protocol + admin API)
	server, err := api.New(api.Deps{
		Config:         cfg.API,
		Security:       cfg.Security,
		Logger:         log,
		Authenticator:  authenticator,
		Resolver:       resolver,
		Admins:         adminRepo,
		Devices:        deviceRepo,
		Tools:          toolRepo,
		Users:          userRepo,
		Qualifications: qualificationRepo,
		Version:        version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()
	log.Info("API server started",
		"host", cfg.API.Host,
		"port", cfg.API.Port,
		"tls", cfg.API.TLS.Enabled,
	)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server (drains in-flight requests)
	// 2. Database

	log.Info("FabLock Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses FABLOCK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("FABLOCK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, server *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	return nil
}
