package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetricsMiddleware_CountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(HTTPMetricsMiddleware())
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/items/:id", "204"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/42", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/items/:id", "204"))
	assert.Equal(t, before+1, after)
}

func TestActiveSessionsGauge(t *testing.T) {
	start := testutil.ToFloat64(activeSessions)
	IncActiveSessions()
	IncActiveSessions()
	DecActiveSessions()
	assert.Equal(t, start+1, testutil.ToFloat64(activeSessions))
	DecActiveSessions()
}

func TestSetupTracing_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "", "chatterbox", "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
