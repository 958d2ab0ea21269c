package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appbilling "github.com/studioops/backend/internal/application/billing"
	"github.com/studioops/backend/internal/domain/billing"
	"github.com/studioops/backend/internal/infrastructure/auth"
	"github.com/studioops/backend/internal/infrastructure/config"
	"github.com/studioops/backend/internal/infrastructure/logger"
	"github.com/studioops/backend/internal/infrastructure/migration"
	"github.com/studioops/backend/internal/infrastructure/notification"
	"github.com/studioops/backend/internal/infrastructure/persistence"
	"github.com/studioops/backend/internal/infrastructure/telemetry"
	"github.com/studioops/backend/internal/interfaces/http/handler"
	"github.com/studioops/backend/internal/interfaces/http/middleware"
	"github.com/studioops/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting StudioOps backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	if cfg.Database.MigrateOnStart {
		if err := runMigrations(cfg, log); err != nil {
			log.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	// Repositories
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	quoteRepo := persistence.NewGormQuoteRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	ledgerRepo := persistence.NewGormPaymentLedgerRepository(db.DB)

	// Notifications: published to Redis when enabled, logged otherwise
	var notifier billing.Notifier
	if cfg.Notification.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}()
		notifier = notification.NewRedisNotifier(redisClient, cfg.Notification.Channel)
		log.Info("Redis notifier enabled", zap.String("channel", cfg.Notification.Channel))
	} else {
		notifier = notification.NewLogNotifier(log)
	}

	// Application services
	quoteService := appbilling.NewQuoteService(quoteRepo, customerRepo, notifier, log)
	synthesizer := appbilling.NewInvoiceSynthesizer(quoteRepo, invoiceRepo, notifier, log)
	invoiceService := appbilling.NewInvoiceService(invoiceRepo, ledgerRepo, customerRepo, synthesizer, notifier, log)
	paymentReconciler := appbilling.NewPaymentReconciler(invoiceRepo, quoteRepo, ledgerRepo, customerRepo, notifier, log)

	// HTTP layer
	jwtService := auth.NewJWTService(cfg.JWT)
	requireAuth := middleware.RequireAuth(jwtService)
	requireAdmin := middleware.RequireAdmin()

	r := router.New(cfg, log)
	r.Register(
		handler.NewHealthHandler(db),
		handler.NewQuoteHandler(quoteService, requireAuth, requireAdmin),
		handler.NewInvoiceHandler(invoiceService, paymentReconciler, requireAuth, requireAdmin),
	)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        r.Engine(),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

func runMigrations(cfg *config.Config, log *zap.Logger) error {
	m, err := migration.NewFromURL(cfg.Database.DSN(), cfg.Database.MigrationsPath, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Error("Error closing migrator", zap.Error(err))
		}
	}()
	return m.Up()
}
