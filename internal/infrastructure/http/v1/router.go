// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/declaration"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/invoice"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/streamimport"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/weightticket"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/http/v1/handlers"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/http/v1/middleware"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/metrics"
	"github.com/Colossus92/eazy-recycling-sub004/pkg/logger"
)

// DefaultMaxUploadBytes bounds CSV uploads when no limit is configured.
const DefaultMaxUploadBytes int64 = 10 << 20

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Logger  *logger.Logger
	Version string

	// Metrics is optional; without it /metrics is not served.
	Metrics *metrics.Metrics

	// HealthChecks run on /health/ready, keyed by dependency name.
	HealthChecks map[string]handlers.Check

	// Idempotency is optional; without it Idempotency-Key is ignored.
	Idempotency middleware.IdempotencyStore

	MaxUploadBytes int64

	WasteStreams  *wastestream.Service
	WeightTickets *weightticket.Service
	Invoices      *invoice.Service
	Declarations  *declaration.Workflow
	Imports       *streamimport.Pipeline
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Trace(cfg.Logger))
	router.Use(middleware.Recovery())
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics.HTTPRequestsTotal, cfg.Metrics.HTTPRequestDuration))
	}
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Version, cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("", healthHandler.Ready)
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := router.Group("/api/v1")
	api.Use(middleware.UserContext())
	if cfg.Idempotency != nil {
		api.Use(middleware.Idempotency(cfg.Idempotency, cfg.MaxUploadBytes))
	}

	base := handlers.NewBaseHandler()
	if cfg.WasteStreams != nil {
		handlers.NewWasteStreamHandler(base, cfg.WasteStreams).RegisterRoutes(api.Group("/waste-streams"))
	}
	if cfg.WeightTickets != nil {
		handlers.NewWeightTicketHandler(base, cfg.WeightTickets).RegisterRoutes(api.Group("/weight-tickets"))
	}
	if cfg.Invoices != nil {
		handlers.NewInvoiceHandler(base, cfg.Invoices).RegisterRoutes(api.Group("/invoices"))
	}
	if cfg.Declarations != nil {
		handlers.NewDeclarationHandler(base, cfg.Declarations).RegisterRoutes(api.Group("/declarations"))
	}
	if cfg.Imports != nil {
		handlers.NewImportHandler(base, cfg.Imports, cfg.MaxUploadBytes).RegisterRoutes(api.Group("/imports"))
	}

	return router
}
