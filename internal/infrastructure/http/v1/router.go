// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"palletledger/internal/domain/audit"
	"palletledger/internal/domain/ingest"
	"palletledger/internal/domain/ledger"
	"palletledger/internal/domain/location"
	"palletledger/internal/infrastructure/http/v1/handlers"
	"palletledger/internal/infrastructure/http/v1/middleware"
	"palletledger/pkg/logger"
)

// Version is reported by the liveness probe.
const Version = "1.0.0"

// RouterConfig holds the services the API exposes.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Storage is probed by /health/ready; nil means always ready
	Storage handlers.Pinger

	// StorageDriver names the backend in health responses
	StorageDriver string

	Registry *location.Registry
	Engine   *ledger.Engine
	Audit    *audit.Service
	Pipeline *ingest.Pipeline

	// MaxUploadBytes caps POST /reports bodies
	MaxUploadBytes int64

	// Debug switches gin to debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadBytes

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Storage, cfg.StorageDriver, Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Operator())

	base := handlers.NewBaseHandler()
	registerLocationRoutes(api, base, cfg)
	registerMovementRoutes(api, base, cfg)
	registerAuditRoutes(api, base, cfg)
	registerReportRoutes(api, base, cfg)

	return router
}

// registerLocationRoutes registers the location registry and balance endpoints.
func registerLocationRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewLocationHandler(base, cfg.Registry, cfg.Engine)

	locations := rg.Group("/locations")
	locations.GET("", h.List)
	locations.POST("", h.Create)
	locations.GET("/:code", h.Get)
	locations.PATCH("/:code", h.Update)
	locations.DELETE("/:code", h.Delete)
	locations.GET("/:code/balance", h.Balance)
}

// registerMovementRoutes registers movement and summary endpoints.
func registerMovementRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewMovementHandler(base, cfg.Engine)

	movements := rg.Group("/movements")
	movements.POST("", h.Create)
	movements.GET("", h.List)
	movements.GET("/:id", h.Get)

	rg.GET("/summary", h.Summary)
}

func registerAuditRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewAuditHandler(base, cfg.Audit)
	rg.GET("/audit", h.List)
}

// registerReportRoutes registers ingestion upload and report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewReportHandler(base, cfg.Pipeline, cfg.MaxUploadBytes)

	reports := rg.Group("/reports")
	reports.POST("", h.Upload)
	reports.GET("", h.List)
	reports.GET("/:id", h.Get)
}
