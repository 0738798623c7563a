package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayrollMetrics_ObserveRun(t *testing.T) {
	m := NewPayrollMetrics(prometheus.NewRegistry())

	m.ObserveRun("completed", 2*time.Second, 3)
	m.ObserveRun("failed", time.Second, 1)
	m.ObserveRun("completed", time.Second, 0)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.runs.WithLabelValues("completed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs.WithLabelValues("failed")))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.employeesProcessed))
}

func TestPayrollMetrics_Handler(t *testing.T) {
	m := NewPayrollMetrics(nil)
	m.IncAdjustment()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hris_payroll_adjustments_total 1")
}

func TestPayrollMetrics_TrackSubscribers(t *testing.T) {
	m := NewPayrollMetrics(nil)
	connected := 3
	m.TrackSubscribers(func() int { return connected })

	scrape := func() string {
		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		return rec.Body.String()
	}

	assert.Contains(t, scrape(), "hris_payroll_event_subscribers 3")
	connected = 1
	assert.Contains(t, scrape(), "hris_payroll_event_subscribers 1")
}
