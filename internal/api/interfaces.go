// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"
	"io"

	"github.com/equipment-visualizer/backend/internal/dataset"
	"github.com/equipment-visualizer/backend/internal/models"
	"github.com/equipment-visualizer/backend/internal/report"
	"github.com/labstack/echo/v4"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
	HandlePing(c echo.Context) error
}

// DatasetHandler handles upload and dataset history operations
type DatasetHandler interface {
	HandleUpload(c echo.Context) error
	HandleUploadBase64(c echo.Context) error
	HandleHistory(c echo.Context) error
	HandleGetDataset(c echo.Context) error
	HandleDeleteDataset(c echo.Context) error
}

// ReportHandler handles report and chart rendering
type ReportHandler interface {
	HandleReport(c echo.Context) error
	HandleLatestReport(c echo.Context) error
	HandleLastReport(c echo.Context) error
	HandleChart(c echo.Context) error
}

// OwnerHandler handles per-owner settings
type OwnerHandler interface {
	HandleGetLimit(c echo.Context) error
	HandleSetLimit(c echo.Context) error
}

// DatasetService defines the pipeline operations the handlers need.
// This allows mocking in tests
type DatasetService interface {
	Ingest(ctx context.Context, owner, filename string, r io.Reader) (*dataset.IngestResult, error)
	List(ctx context.Context, owner string) ([]*models.Dataset, error)
	Get(ctx context.Context, owner, id string) (*models.Dataset, *models.Table, error)
	Delete(ctx context.Context, owner, id string) error
	Report(ctx context.Context, owner, id string, sel report.Selection) (*dataset.ReportResult, error)
	LatestReport(ctx context.Context, owner string, sel report.Selection) (*dataset.ReportResult, error)
	LastReport(ctx context.Context, owner, id string) (*dataset.ReportResult, error)
	Chart(ctx context.Context, owner, id, kind string, sel report.Selection) ([]byte, error)
	Limit(ctx context.Context, owner string) (int, error)
	SetLimit(ctx context.Context, owner string, limit int) ([]*models.Dataset, error)
}

var _ DatasetService = (*dataset.Service)(nil)
