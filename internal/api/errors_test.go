package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/equipment-visualizer/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "missing columns",
			err:     fmt.Errorf("ingest: %w", &models.ValidationError{Field: "file", Missing: []string{"Type", "Pressure"}}),
			status:  http.StatusBadRequest,
			code:    "VALIDATION_ERROR",
			message: "missing required columns: Type, Pressure",
		},
		{
			name:    "not found",
			err:     &models.NotFoundError{Resource: "dataset", ID: "42"},
			status:  http.StatusNotFound,
			code:    "NOT_FOUND",
			message: "dataset not found: 42",
		},
		{
			name:    "limit",
			err:     &models.LimitExceededError{Limit: 5},
			status:  http.StatusBadRequest,
			code:    "LIMIT_EXCEEDED",
			message: "upload limit of 5 datasets reached",
		},
		{
			name:   "echo error",
			err:    echo.NewHTTPError(http.StatusRequestEntityTooLarge, "too big"),
			status: http.StatusRequestEntityTooLarge,
			code:   "HTTP_ERROR",
		},
		{
			name:    "unknown",
			err:     errors.New("disk on fire"),
			status:  http.StatusInternalServerError,
			code:    "INTERNAL_ERROR",
			message: "An unexpected error occurred",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromDomain(tt.err)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.code, got.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, got.Message)
			}
		})
	}

	t.Run("api errors pass through", func(t *testing.T) {
		orig := NewValidationError("limit")
		assert.Same(t, orig, FromDomain(orig))
	})
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	ErrorHandler(errors.New("boom"), c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"code":"INTERNAL_ERROR","message":"An unexpected error occurred","details":"boom"}`, rec.Body.String())
}
