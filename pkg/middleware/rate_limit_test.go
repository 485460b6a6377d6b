package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/folio-cms/folio/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// asOwner fakes what OptionalAuth leaves behind for a signed-in owner.
func asOwner(sub string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sub != "" {
			c.Set(ClaimsKey, map[string]interface{}{"sub": sub})
		}
		c.Next()
	}
}

func limitedRouter(sub string, rps float64, burst int) *gin.Engine {
	r := gin.New()
	r.Use(asOwner(sub), RateLimitMiddleware(rps, burst))
	r.GET("/api/content/hero", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func get(r http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/content/hero", nil)
	req.RemoteAddr = remote
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware_BurstThenReject(t *testing.T) {
	allowed := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))
	rejected := testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("memory"))
	r := limitedRouter("", 0.001, 3)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, get(r, "10.0.0.1:1000").Code, "request %d", i)
	}
	w := get(r, "10.0.0.1:1000")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "1", w.Header().Get("Retry-After"))
	require.JSONEq(t, `{"error":"Rate limit exceeded"}`, w.Body.String())

	require.Equal(t, allowed+3, testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory")))
	require.Equal(t, rejected+1, testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("memory")))
}

func TestRateLimitMiddleware_VisitorsHaveOwnBuckets(t *testing.T) {
	r := limitedRouter("", 0.001, 1)
	require.Equal(t, http.StatusOK, get(r, "10.0.0.1:1000").Code)
	require.Equal(t, http.StatusTooManyRequests, get(r, "10.0.0.1:2000").Code)
	require.Equal(t, http.StatusOK, get(r, "10.0.0.2:1000").Code)
}

func TestRateLimitMiddleware_OwnerKeyedBySubject(t *testing.T) {
	r := limitedRouter("local|me@folio.dev", 0.001, 1)
	// the owner moves between networks and keeps one bucket
	require.Equal(t, http.StatusOK, get(r, "10.0.0.1:1000").Code)
	require.Equal(t, http.StatusTooManyRequests, get(r, "192.168.1.5:1000").Code)
}

func TestLimitKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "203.0.113.9:4000"
	require.Equal(t, "ip:203.0.113.9", limitKey(c))

	c.Set(ClaimsKey, map[string]interface{}{"sub": "local|me@folio.dev"})
	require.Equal(t, "sub:local|me@folio.dev", limitKey(c))
}
