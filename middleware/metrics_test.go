package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestNewServerMetricsTwiceDoesNotPanic(t *testing.T) {
	require.NotPanics(t, func() {
		NewServerMetrics()
		NewServerMetrics()
	})
}

func TestMetricsRecordsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sm := NewServerMetrics()
	r := gin.New()
	r.Use(sm.Metrics())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(sm.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `ecommerce_api_http_requests_total{path="/ping",status="200"} 1`)
}
