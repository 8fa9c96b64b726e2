package router

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"crm-sync-api/internal/client"
	"crm-sync-api/internal/config"
	"crm-sync-api/internal/handler"
	"crm-sync-api/internal/metrics"
	"crm-sync-api/internal/middleware"
	"crm-sync-api/internal/repository"
	"crm-sync-api/internal/service"
)

// Config carries everything the router needs to wire the application
type Config struct {
	DB             *gorm.DB
	Logger         *zap.Logger
	JWTSecret      string
	BasePath       string
	Metrics        *metrics.Metrics
	CRMClient      client.CRMClient
	Archive        client.ArchiveClientInterface
	Cache          *redis.Client
	CRM            config.CRMConfig
	AllowedOrigins []string
}

// Setup builds the gin engine with all routes and middleware wired
func Setup(cfg Config) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.Recovery(cfg.Logger))
	engine.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.Metrics != nil {
		engine.Use(middleware.Metrics(cfg.Metrics))
	}

	// Repositories
	contactRepo := repository.NewContactRepository(cfg.DB)
	opportunityRepo := repository.NewOpportunityRepository(cfg.DB)
	pipelineRepo := repository.NewPipelineRepository(cfg.DB)
	credentialRepo := repository.NewCredentialRepository(cfg.DB)
	webhookLogRepo := repository.NewWebhookLogRepository(cfg.DB)
	syncRunRepo := repository.NewSyncRunRepository(cfg.DB)
	dashboardRepo := repository.NewDashboardRepository(cfg.DB)

	// Services
	syncService := service.NewSyncService(
		cfg.CRMClient, contactRepo, opportunityRepo, pipelineRepo, syncRunRepo,
		cfg.Metrics, cfg.Logger,
	)
	webhookService := service.NewWebhookService(
		cfg.CRMClient, contactRepo, opportunityRepo, pipelineRepo, credentialRepo,
		webhookLogRepo, cfg.Metrics, cfg.Logger,
	)
	authService := service.NewAuthService(cfg.CRMClient, credentialRepo, cfg.CRM, cfg.Logger)
	dashboardService := service.NewDashboardService(dashboardRepo, pipelineRepo, cfg.Cache, cfg.Logger)
	importService := service.NewImportService(contactRepo, cfg.Archive, cfg.Logger)

	// Handlers
	webhookHandler := handler.NewWebhookHandler(webhookService, cfg.Logger)
	authHandler := handler.NewAuthHandler(authService, syncService, cfg.Logger)
	syncHandler := handler.NewSyncHandler(syncService, authService, cfg.Logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	logHandler := handler.NewLogHandler(webhookService)
	importHandler := handler.NewImportHandler(importService)
	healthHandler := handler.NewHealthHandler(cfg.DB)

	root := engine.Group(cfg.BasePath)

	root.GET("/health", healthHandler.Check)
	root.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// The CRM retries on non-2xx, so the webhook route stays open;
	// payloads are untrusted and re-fetched from the API anyway.
	root.POST("/webhook", webhookHandler.Receive)

	auth := root.Group("/auth")
	{
		auth.GET("/connect", authHandler.Connect)
		auth.GET("/callback", authHandler.Callback)
		auth.GET("/tokens", authHandler.Tokens)
	}

	api := root.Group("/api")
	api.Use(middleware.Auth(cfg.JWTSecret))
	{
		api.POST("/sync", syncHandler.TriggerSync)
		api.POST("/sync/pipelines", syncHandler.SyncPipelines)
		api.GET("/sync/runs", syncHandler.ListRuns)
		api.GET("/pipelines", syncHandler.ListPipelines)

		api.GET("/dashboard", dashboardHandler.GetDashboard)
		api.GET("/revenue-metrics", dashboardHandler.GetRevenueMetrics)
		api.GET("/pipeline-funnels", dashboardHandler.GetPipelineFunnels)

		api.POST("/import/contacts", importHandler.ImportContacts)
	}

	admin := root.Group("/admin")
	admin.Use(middleware.Auth(cfg.JWTSecret))
	{
		admin.GET("/logs", logHandler.ListLogs)
	}

	return engine
}
