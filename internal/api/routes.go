// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Service DatasetService
	Version string
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Dataset DatasetHandler
	Report  ReportHandler
	Owner   OwnerHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(deps.Version),
		Dataset: NewDatasetHandler(deps.Service),
		Report:  NewReportHandler(deps.Service),
		Owner:   NewOwnerHandler(deps.Service),
	}
}

// RouteOptions toggles optional routes
type RouteOptions struct {
	AllowDeletion bool
	Metrics       http.Handler // nil disables /metrics
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers, opts RouteOptions) {
	// Health check
	e.GET("/api/health", handlers.Health.HandleHealth)
	e.GET("/api/ping", handlers.Health.HandlePing)

	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics))
	}

	// Dataset routes
	datasetGroup := e.Group("/api/datasets")
	datasetGroup.POST("", handlers.Dataset.HandleUpload)
	datasetGroup.POST("/base64", handlers.Dataset.HandleUploadBase64)
	datasetGroup.GET("", handlers.Dataset.HandleHistory)
	datasetGroup.GET("/:id", handlers.Dataset.HandleGetDataset)
	if opts.AllowDeletion {
		datasetGroup.DELETE("/:id", handlers.Dataset.HandleDeleteDataset)
	}

	// Report routes
	datasetGroup.GET("/:id/report", handlers.Report.HandleReport)
	datasetGroup.GET("/:id/report/last", handlers.Report.HandleLastReport)
	datasetGroup.GET("/:id/charts/:kind", handlers.Report.HandleChart)
	e.GET("/api/reports/latest", handlers.Report.HandleLatestReport)

	// Owner settings
	ownerGroup := e.Group("/api/owner")
	ownerGroup.GET("/limit", handlers.Owner.HandleGetLimit)
	ownerGroup.PUT("/limit", handlers.Owner.HandleSetLimit)
}
