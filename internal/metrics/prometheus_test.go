package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordUpload(t *testing.T) {
	m := New()

	m.RecordUpload(ResultOK, 12)
	m.RecordUpload(ResultInvalid, 99)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploadsTotal.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploadsTotal.WithLabelValues(ResultInvalid)))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.rowsIngested))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordEvictions(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(a.evictionsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.evictionsTotal))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordReport(ResultOK, 150*time.Millisecond)
	m.RecordHTTPRequest("GET", "/api/datasets", 200, 5*time.Millisecond)
	m.IncRequestsInFlight()
	m.DecRequestsInFlight()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "equipment_reports_total")
	assert.Contains(t, string(body), `equipment_http_requests_total{method="GET",route="/api/datasets",status="200"} 1`)
}
