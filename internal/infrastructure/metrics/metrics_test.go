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

func TestMetrics_Observers(t *testing.T) {
	m := New()

	m.ObserveSubmission("submitted", 120*time.Millisecond)
	m.ObserveSubmission("submitted", 80*time.Millisecond)
	m.ObserveSubmission("failed", time.Second)
	m.ObserveImport(7, 2, 1)
	m.ObserveImport(3, 0, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DeclarationSubmissions.WithLabelValues("submitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeclarationSubmissions.WithLabelValues("failed")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.ImportRows.WithLabelValues("successful")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ImportRows.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportRows.WithLabelValues("failed")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveSubmission("submitted", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `eazy_recycling_lma_submissions_total{outcome="submitted"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
