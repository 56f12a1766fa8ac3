package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveHTTP(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/jobs/{id}", "200"))
	ObserveHTTP("get", "/api/jobs/{id}", http.StatusOK, 20*time.Millisecond)
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/jobs/{id}", "200"))
	assert.Equal(t, before+1, after)
}

func TestDomainCounters(t *testing.T) {
	base := testutil.ToFloat64(statusTransitions.WithLabelValues("invoice", "PAID"))
	StatusChanged("invoice", "PAID")
	assert.Equal(t, base+1, testutil.ToFloat64(statusTransitions.WithLabelValues("invoice", "PAID")))

	paid := testutil.ToFloat64(invoicedAmount.WithLabelValues("USD"))
	InvoicePaid("USD", 69.6)
	InvoicePaid("USD", 0)
	assert.InDelta(t, paid+69.6, testutil.ToFloat64(invoicedAmount.WithLabelValues("USD")), 1e-9)

	swept := testutil.ToFloat64(sweepRuns.WithLabelValues("overdue", "true"))
	RecordSweep("overdue", 3, time.Second, true)
	assert.Equal(t, swept+3, testutil.ToFloat64(sweepRuns.WithLabelValues("overdue", "true")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	CacheLookup(true)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "printshop_cache_lookups_total")
}
