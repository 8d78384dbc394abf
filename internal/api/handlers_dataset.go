// handlers_dataset.go - Upload and dataset history handlers
package api

import (
	"bytes"
	"encoding/base64"
	"net/http"

	"github.com/labstack/echo/v4"
)

// DatasetHandlerImpl implements the DatasetHandler interface
type DatasetHandlerImpl struct {
	svc DatasetService
}

// NewDatasetHandler creates a new dataset handler instance
func NewDatasetHandler(svc DatasetService) DatasetHandler {
	return &DatasetHandlerImpl{svc: svc}
}

// HandleUpload accepts a CSV file as multipart/form-data field "file"
func (h *DatasetHandlerImpl) HandleUpload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError("file")
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	res, err := h.svc.Ingest(c.Request().Context(), ownerOf(c), file.Filename, src)
	if err != nil {
		return FromDomain(err)
	}
	return respond(c, http.StatusCreated, newDatasetResponse(res.Dataset, res.Table))
}

// HandleUploadBase64 accepts a file as base64 JSON
func (h *DatasetHandlerImpl) HandleUploadBase64(c echo.Context) error {
	var req uploadFileRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	if err := req.validate(); err != nil {
		return err
	}

	decoded, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return NewBadRequestError("invalid base64 data", err)
	}

	res, err := h.svc.Ingest(c.Request().Context(), ownerOf(c), req.Name, bytes.NewReader(decoded))
	if err != nil {
		return FromDomain(err)
	}
	return respond(c, http.StatusCreated, newDatasetResponse(res.Dataset, res.Table))
}

// HandleHistory lists the caller's retained datasets, newest first
func (h *DatasetHandlerImpl) HandleHistory(c echo.Context) error {
	list, err := h.svc.List(c.Request().Context(), ownerOf(c))
	if err != nil {
		return FromDomain(err)
	}
	return respond(c, http.StatusOK, list)
}

// HandleGetDataset returns one dataset with its rows
func (h *DatasetHandlerImpl) HandleGetDataset(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	ds, table, err := h.svc.Get(c.Request().Context(), ownerOf(c), id)
	if err != nil {
		return FromDomain(err)
	}
	return respond(c, http.StatusOK, newDatasetResponse(ds, table))
}

// HandleDeleteDataset removes a dataset and its stored files
func (h *DatasetHandlerImpl) HandleDeleteDataset(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	if err := h.svc.Delete(c.Request().Context(), ownerOf(c), id); err != nil {
		return FromDomain(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Request types with validation

type uploadFileRequest struct {
	Name string `json:"name"`
	Data string `json:"data"` // Base64-encoded content
}

func (r *uploadFileRequest) validate() error {
	if r.Name == "" {
		return NewValidationError("name")
	}
	if r.Data == "" {
		return NewValidationError("data")
	}
	return nil
}
