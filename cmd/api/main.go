package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"crm-sync-api/internal/client"
	"crm-sync-api/internal/config"
	"crm-sync-api/internal/database"
	"crm-sync-api/internal/job"
	"crm-sync-api/internal/metrics"
	"crm-sync-api/internal/repository"
	"crm-sync-api/internal/router"
	"crm-sync-api/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logger.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// Set Gin mode
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Starting CRM Sync Service",
		zap.String("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("base_path", cfg.Server.BasePath),
		zap.String("crm_api_url", cfg.CRM.APIBaseURL),
	)

	// Initialize database; startup survives a down database and keeps
	// retrying in the background so the pod stays schedulable
	dbConfig := database.Config{
		DSN:             cfg.Database.GetDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	db, err := database.New(dbConfig)
	if err != nil {
		logger.Warn("Failed to connect to database on startup, will retry in background",
			zap.Error(err))
		database.NewAsync(dbConfig, 5*time.Second)
		db = database.GetDB()
	} else {
		logger.Info("Database connected successfully")

		if err := database.SafeAutoMigrateWithRetry(db, logger, 3); err != nil {
			logger.Warn("Failed to run database migrations", zap.Error(err))
		} else {
			logger.Info("Database migrations completed")
		}
	}

	// Initialize metrics
	m := metrics.NewWithLogger(logger)
	if db != nil {
		database.RegisterMetricsCallbacks(db, m)
		database.StartDBStatsCollector(db, m)
	}
	logger.Info("Metrics initialized")

	// Initialize Redis for the dashboard cache (optional)
	if err := database.InitRedis(cfg.Redis, logger); err != nil {
		logger.Warn("Failed to connect to Redis, dashboard caching disabled", zap.Error(err))
	}

	// Initialize the import archive client (optional)
	var archiveClient client.ArchiveClientInterface
	if cfg.S3.Bucket != "" && cfg.S3.Region != "" {
		ac, err := client.NewArchiveClient(&cfg.S3)
		if err != nil {
			logger.Warn("Failed to initialize archive client, import archival disabled", zap.Error(err))
		} else {
			archiveClient = ac
			logger.Info("Archive client initialized",
				zap.String("bucket", cfg.S3.Bucket),
				zap.String("region", cfg.S3.Region),
			)
		}
	} else {
		logger.Warn("S3 configuration incomplete, import archival disabled")
	}

	// Initialize the CRM API client
	crmClient := client.NewCRMClient(client.Config{
		BaseURL:      cfg.CRM.APIBaseURL,
		ClientID:     cfg.CRM.ClientID,
		ClientSecret: cfg.CRM.ClientSecret,
		RedirectURI:  cfg.CRM.RedirectURI,
		APIVersion:   cfg.CRM.APIVersion,
		Timeout:      cfg.CRM.Timeout,
	}, logger, m)
	logger.Info("CRM client initialized", zap.String("base_url", cfg.CRM.APIBaseURL))

	// Setup router with all dependencies
	r := router.Setup(router.Config{
		DB:        db,
		Logger:    logger,
		JWTSecret: cfg.JWT.Secret,
		BasePath:  cfg.Server.BasePath,
		Metrics:   m,
		CRMClient: crmClient,
		Archive:   archiveClient,
		Cache:     database.GetRedis(),
		CRM:       cfg.CRM,
	})

	// Schedule background jobs
	scheduler := startJobs(cfg, db, crmClient, m, logger)
	defer scheduler.Stop()

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("CRM Sync Service started successfully",
			zap.String("address", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

// startJobs wires and schedules the nightly sync and the token refresh
func startJobs(cfg *config.Config, db *gorm.DB, crmClient client.CRMClient, m *metrics.Metrics, logger *zap.Logger) *cron.Cron {
	contactRepo := repository.NewContactRepository(db)
	opportunityRepo := repository.NewOpportunityRepository(db)
	pipelineRepo := repository.NewPipelineRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)
	syncRunRepo := repository.NewSyncRunRepository(db)

	syncService := service.NewSyncService(crmClient, contactRepo, opportunityRepo, pipelineRepo, syncRunRepo, m, logger)
	authService := service.NewAuthService(crmClient, credentialRepo, cfg.CRM, logger)

	scheduler := cron.New()
	if _, err := scheduler.AddJob(cfg.Jobs.SyncSchedule, job.NewSyncJob(authService, syncService, logger)); err != nil {
		logger.Error("Failed to schedule sync job", zap.Error(err))
	}
	if _, err := scheduler.AddJob(cfg.Jobs.TokenRefreshSchedule, job.NewTokenRefreshJob(authService, logger)); err != nil {
		logger.Error("Failed to schedule token refresh job", zap.Error(err))
	}
	scheduler.Start()

	logger.Info("Background jobs scheduled",
		zap.String("sync_schedule", cfg.Jobs.SyncSchedule),
		zap.String("token_refresh_schedule", cfg.Jobs.TokenRefreshSchedule),
	)
	return scheduler
}

// initLogger initializes the zap logger with the specified level
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	logConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      zapLevel == zapcore.DebugLevel,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return logConfig.Build()
}
