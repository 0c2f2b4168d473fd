package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-docfill/internal/metrics"
)

func TestMetrics_ObserveAndExpose(t *testing.T) {
	m := metrics.New()

	m.ObservePreview(2*time.Millisecond, 3)
	m.ObserveBackend("get template", nil, 10*time.Millisecond)
	m.ObserveBackend("get template", errors.New("boom"), 10*time.Millisecond)
	m.ObserveDrop(true)
	m.ObserveDrop(false)
	m.ObserveDrop(false)
	m.ObserveHTTP("GET", "/api/templates", 200, time.Millisecond)

	count, err := testutil.GatherAndCount(m.Registry(), "docfill_drop_payloads_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	assert.Contains(t, string(body), `docfill_backend_calls_total{op="get template",outcome="error"} 1`)
	assert.Contains(t, string(body), `docfill_drop_payloads_total{result="rejected"} 2`)
	assert.Contains(t, string(body), "docfill_preview_unmatched_tokens_total 3")
	assert.Contains(t, string(body), `docfill_http_requests_total{method="GET",route="/api/templates",status="200"} 1`)
}
