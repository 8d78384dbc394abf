// handlers_owner.go - Per-owner settings handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// OwnerHandlerImpl implements the OwnerHandler interface
type OwnerHandlerImpl struct {
	svc DatasetService
}

// NewOwnerHandler creates a new owner handler instance
func NewOwnerHandler(svc DatasetService) OwnerHandler {
	return &OwnerHandlerImpl{svc: svc}
}

type limitResponse struct {
	Owner   string   `json:"owner"`
	Limit   int      `json:"limit"`
	Evicted []string `json:"evicted,omitempty"`
}

// HandleGetLimit returns the caller's retention limit
func (h *OwnerHandlerImpl) HandleGetLimit(c echo.Context) error {
	owner := ownerOf(c)
	limit, err := h.svc.Limit(c.Request().Context(), owner)
	if err != nil {
		return FromDomain(err)
	}
	return c.JSON(http.StatusOK, limitResponse{Owner: owner, Limit: limit})
}

// HandleSetLimit changes the caller's retention limit
func (h *OwnerHandlerImpl) HandleSetLimit(c echo.Context) error {
	var req setLimitRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	owner := ownerOf(c)
	evicted, err := h.svc.SetLimit(c.Request().Context(), owner, *req.Limit)
	if err != nil {
		return FromDomain(err)
	}

	resp := limitResponse{Owner: owner, Limit: *req.Limit}
	for _, ds := range evicted {
		resp.Evicted = append(resp.Evicted, ds.ID)
	}
	return c.JSON(http.StatusOK, resp)
}

type setLimitRequest struct {
	Limit *int `json:"limit"`
}

func (r *setLimitRequest) validate() error {
	if r.Limit == nil {
		return NewValidationError("limit")
	}
	return nil
}
