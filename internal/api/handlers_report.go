// handlers_report.go - Report and chart handlers
package api

import (
	"net/http"

	"github.com/equipment-visualizer/backend/internal/report"
	"github.com/labstack/echo/v4"
)

// ReportHandlerImpl implements the ReportHandler interface
type ReportHandlerImpl struct {
	svc DatasetService
}

// NewReportHandler creates a new report handler instance
func NewReportHandler(svc DatasetService) ReportHandler {
	return &ReportHandlerImpl{svc: svc}
}

// selectionFrom reads barX, barY and pieData
func selectionFrom(c echo.Context) report.Selection {
	return report.ParseSelection(c.QueryParam("barX"), c.QueryParam("barY"), c.QueryParam("pieData"))
}

// HandleReport renders a fresh PDF report for a dataset
func (h *ReportHandlerImpl) HandleReport(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	res, err := h.svc.Report(c.Request().Context(), ownerOf(c), id, selectionFrom(c))
	if err != nil {
		return FromDomain(err)
	}
	return attachment(c, "application/pdf", res.Filename, res.PDF)
}

// HandleLatestReport renders the report of the caller's newest dataset
func (h *ReportHandlerImpl) HandleLatestReport(c echo.Context) error {
	res, err := h.svc.LatestReport(c.Request().Context(), ownerOf(c), selectionFrom(c))
	if err != nil {
		return FromDomain(err)
	}
	return attachment(c, "application/pdf", res.Filename, res.PDF)
}

// HandleLastReport returns the last stored render without re-rendering
func (h *ReportHandlerImpl) HandleLastReport(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	res, err := h.svc.LastReport(c.Request().Context(), ownerOf(c), id)
	if err != nil {
		return FromDomain(err)
	}
	return attachment(c, "application/pdf", res.Filename, res.PDF)
}

// HandleChart renders one chart as PNG
func (h *ReportHandlerImpl) HandleChart(c echo.Context) error {
	id := c.Param("id")
	kind := c.Param("kind")
	if id == "" {
		return NewValidationError("id")
	}
	if kind != report.ChartBar && kind != report.ChartPie {
		return NewValidationError("kind")
	}

	img, err := h.svc.Chart(c.Request().Context(), ownerOf(c), id, kind, selectionFrom(c))
	if err != nil {
		return FromDomain(err)
	}
	return c.Blob(http.StatusOK, "image/png", img)
}
