package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.TransactionPosted("DEPOSIT")
	m.TransactionPosted("DEPOSIT")
	m.TransactionRejected("unbalanced")
	m.RevaluationObserved("success", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transactionsPosted.WithLabelValues("DEPOSIT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactionsRejected.WithLabelValues("unbalanced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.revaluationRuns.WithLabelValues("success")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TransactionPosted("DEPOSIT")
		m.TransactionRejected("unbalanced")
		m.RevaluationObserved("failed", time.Second)
	})
}

func TestHandlerExposesGinRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `vault_ledger_http_requests_total{method="GET",path="/ping",status="200"} 1`)
}
