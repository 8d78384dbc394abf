package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/equipment-visualizer/backend/internal/config"
	"github.com/equipment-visualizer/backend/internal/dataset"
	"github.com/equipment-visualizer/backend/internal/metrics"
	"github.com/equipment-visualizer/backend/internal/report"
	"github.com/equipment-visualizer/backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// newTestService builds the real pipeline on in-memory storage
func newTestService(t *testing.T) *dataset.Service {
	t.Helper()
	renderer := report.NewRenderer(report.Options{ChartWidth: 300, ChartHeight: 200})
	return dataset.NewService(testutil.NewMockRepository(), testutil.NewMockBlobStore(), renderer,
		config.DefaultConfig().Retention, metrics.New(), zap.NewNop())
}

// newTestServer wires routes and middleware the way the server does
func newTestServer(t *testing.T) (*echo.Echo, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.Use(OwnerMiddleware("X-Owner-ID"))
	e.Use(RequestMetrics(m))
	RegisterRoutes(e, NewHandlers(&Dependencies{Service: newTestService(t), Version: "test"}),
		RouteOptions{AllowDeletion: true, Metrics: m.Handler()})
	return e, m
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	part.Write([]byte(content))
	writer.Close()
	return body, writer.FormDataContentType()
}

func uploadRequest(t *testing.T, owner, filename, content string) *http.Request {
	body, contentType := multipartBody(t, "file", filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/datasets", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	if owner != "" {
		req.Header.Set("X-Owner-ID", owner)
	}
	return req
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
