package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkariuki/go-storefront-cart/internal/metrics"
)

func TestRouterObservesRequestLatency(t *testing.T) {
	m := metrics.New("httpx_test")
	r := NewRouter(m)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestLatency),
		"every handled request lands in the latency histogram")
}
