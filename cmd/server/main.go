package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/tinytitans-bjj/community-backend/internal/config"
	"github.com/tinytitans-bjj/community-backend/internal/database"
	"github.com/tinytitans-bjj/community-backend/internal/handlers"
	"github.com/tinytitans-bjj/community-backend/internal/identity"
	"github.com/tinytitans-bjj/community-backend/internal/logging"
	"github.com/tinytitans-bjj/community-backend/internal/repository"
	"github.com/tinytitans-bjj/community-backend/internal/routes"
	"github.com/tinytitans-bjj/community-backend/internal/services"
	"github.com/tinytitans-bjj/community-backend/internal/storage"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logLevel := logging.ParseLevel(cfg.LogLevel)
	logging.Setup(logLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Store
	var (
		db     *gorm.DB
		store  repository.Store
		dbPing handlers.Pinger
	)
	switch cfg.DBDriver {
	case "memory":
		slog.Warn("using in-memory store; data is lost on restart")
		store = repository.NewMemoryStore()
	default:
		var err error
		db, err = database.Connect(cfg)
		if err != nil {
			slog.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		if err := database.Migrate(db); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}
		store = repository.NewGormStore(db)
		dbPing = func(context.Context) error { return database.Ping(db) }
	}

	// PostgreSQL log handler (ERROR+ async batch)
	var pgLogHandler *logging.PGHandler
	cleanupDone := make(chan struct{})
	if db != nil {
		pgLogHandler = logging.NewPGHandler(db)
		logging.Setup(logLevel, logging.Sink{Handler: pgLogHandler, MinLevel: slog.LevelError})
		logging.StartCleanup(logging.PruneSystemLogs(db), cfg.LogRetention, 24*time.Hour, cleanupDone)
	}

	// Object storage
	objects, err := storage.NewFromConfig(ctx, storage.Config{
		Type: cfg.StorageType,
		S3: storage.S3Options{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicBaseURL:   cfg.MediaPublicBaseURL,
		},
		MemoryBaseURL: cfg.MediaPublicBaseURL,
	})
	if err != nil {
		slog.Error("object storage init failed", "type", cfg.StorageType, "error", err)
		os.Exit(1)
	}

	// Services
	policy := identity.PolicyFromCSV(cfg.AdminEmails, cfg.AdminUserIDs)
	clock := services.RealClock{}
	throttle := services.NewPinThrottle(cfg.PinMaxAttempts, cfg.PinLockoutBase, cfg.PinLockoutMax, clock)
	sweepDone := make(chan struct{})
	throttle.StartSweeper(10*time.Minute, sweepDone)

	gate := services.NewAccessGate(store, policy, throttle, cfg.PinGrantTTL, clock)
	locations := services.NewLocationService(store, 0)
	discussions := services.NewDiscussionService(store, gate, policy, objects,
		services.NewContentFilter(services.BannedWords), clock,
		services.DiscussionConfig{MaxImageBytes: cfg.MediaMaxImageBytes})
	moderation := services.NewModerationService(store, policy, discussions)

	if cfg.LocationsFile != "" {
		seeds, err := config.LoadLocationSeeds(cfg.LocationsFile)
		if err != nil {
			slog.Error("failed to load locations file", "error", err)
			os.Exit(1)
		}
		created, err := locations.Seed(ctx, seeds)
		if err != nil {
			slog.Error("location seeding failed", "error", err)
			os.Exit(1)
		}
		slog.Info("locations seeded", "created", created, "listed", len(seeds))
	}

	// Sentry error tracking
	var extra []fiber.Handler
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
			extra = append(extra, sentryfiber.New(sentryfiber.Options{
				Repanic:         true,
				WaitForDelivery: false,
			}))
		}
	}

	// Fiber app and routes
	app := routes.NewApp(cfg, extra...)
	routes.Setup(app, cfg, policy, routes.Handlers{
		Health:     handlers.NewHealthHandler(dbPing, objects.Ping),
		Access:     handlers.NewAccessHandler(gate),
		Discussion: handlers.NewDiscussionHandler(discussions, policy),
		Media:      handlers.NewMediaHandler(discussions),
		Moderation: handlers.NewModerationHandler(moderation, policy),
		Location:   handlers.NewLocationHandler(locations),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "db_driver", cfg.DBDriver, "storage", cfg.StorageType)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(sweepDone)
	close(cleanupDone)
	if pgLogHandler != nil {
		pgLogHandler.Stop()
	}
	sentry.Flush(2 * time.Second)

	// Close database connections
	if db != nil {
		if err := database.Close(db); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}
