package middleware

import (
	"net/http"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func redisLimitedRouter(client *redis.Client, sub string, rps float64, burst int, window time.Duration) *gin.Engine {
	r := gin.New()
	r.Use(asOwner(sub), RedisRateLimitMiddleware(client, rps, burst, window))
	r.GET("/api/content/hero", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRedisRateLimitMiddleware_WindowBudget(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer client.Close()

	// floor(0.05 rps * 60s) + burst 1 = 4 per window
	r := redisLimitedRouter(client, "", 0.05, 1, time.Minute)
	for i := 0; i < 4; i++ {
		require.Equal(t, http.StatusOK, get(r, "10.0.0.1:1000").Code, "request %d", i)
	}
	w := get(r, "10.0.0.1:1000")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "60", w.Header().Get("Retry-After"))

	// another visitor is counted separately
	require.Equal(t, http.StatusOK, get(r, "10.0.0.2:1000").Code)
}

func TestRedisRateLimitMiddleware_SharedAcrossReplicas(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer client.Close()

	a := redisLimitedRouter(client, "local|me@folio.dev", 0.01, 1, time.Minute)
	b := redisLimitedRouter(client, "local|me@folio.dev", 0.01, 1, time.Minute)
	require.Equal(t, http.StatusOK, get(a, "10.0.0.1:1000").Code)
	require.Equal(t, http.StatusTooManyRequests, get(b, "10.0.0.9:1000").Code)

	keys := m.Keys()
	require.Len(t, keys, 1)
	require.Contains(t, keys[0], "folio:rl:sub:local|me@folio.dev:")
}

func TestRedisRateLimitMiddleware_FailsOpen(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: m.Addr(), MaxRetries: -1})
	defer client.Close()
	m.Close()

	r := redisLimitedRouter(client, "", 1, 0, time.Second)
	require.Equal(t, http.StatusOK, get(r, "10.0.0.1:1000").Code)
}

func TestRedisRateLimitMiddleware_NilClientFallsBackToMemory(t *testing.T) {
	r := redisLimitedRouter(nil, "", 0.001, 1, time.Second)
	require.Equal(t, http.StatusOK, get(r, "10.0.0.1:1000").Code)
	require.Equal(t, http.StatusTooManyRequests, get(r, "10.0.0.1:1000").Code)
}
