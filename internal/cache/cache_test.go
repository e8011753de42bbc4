package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := NewClient(Config{Addr: mr.Addr(), TTL: 30 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func newCachedRouter(client *Client, calls *int, status int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(client.Middleware())
	r.GET("/v1/pools/:pool_id/stats", func(c *gin.Context) {
		*calls++
		c.JSON(status, gin.H{"pool_id": c.Param("pool_id"), "calls": *calls})
	})
	r.POST("/v1/pools/:pool_id/snapshots/pool", func(c *gin.Context) {
		*calls++
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	})
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
	return resp
}

func TestMiddleware_ServesSecondRequestFromCache(t *testing.T) {
	client, _ := newTestClient(t)
	calls := 0
	r := newCachedRouter(client, &calls, http.StatusOK)

	first := get(r, "/v1/pools/btc1/stats")
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := get(r, "/v1/pools/btc1/stats")
	require.Equal(t, http.StatusOK, second.Code)
	require.Equal(t, "HIT", second.Header().Get("X-Cache"))
	require.JSONEq(t, first.Body.String(), second.Body.String())
	require.Equal(t, 1, calls)
}

func TestMiddleware_KeyIncludesQueryString(t *testing.T) {
	client, _ := newTestClient(t)
	calls := 0
	r := newCachedRouter(client, &calls, http.StatusOK)

	get(r, "/v1/pools/btc1/stats?page=0")
	get(r, "/v1/pools/btc1/stats?page=1")
	require.Equal(t, 2, calls)
}

func TestMiddleware_ExpiresAfterTTL(t *testing.T) {
	client, mr := newTestClient(t)
	calls := 0
	r := newCachedRouter(client, &calls, http.StatusOK)

	get(r, "/v1/pools/btc1/stats")
	mr.FastForward(31 * time.Second)
	resp := get(r, "/v1/pools/btc1/stats")

	require.Equal(t, "MISS", resp.Header().Get("X-Cache"))
	require.Equal(t, 2, calls)
}

func TestMiddleware_DoesNotCacheErrors(t *testing.T) {
	client, mr := newTestClient(t)
	calls := 0
	r := newCachedRouter(client, &calls, http.StatusNotFound)

	get(r, "/v1/pools/btc1/stats")
	get(r, "/v1/pools/btc1/stats")

	require.Equal(t, 2, calls)
	require.Empty(t, mr.Keys())
}

func TestMiddleware_SkipsWrites(t *testing.T) {
	client, mr := newTestClient(t)
	calls := 0
	r := newCachedRouter(client, &calls, http.StatusOK)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/v1/pools/btc1/snapshots/pool", nil))

	require.Equal(t, http.StatusAccepted, resp.Code)
	require.Empty(t, resp.Header().Get("X-Cache"))
	require.Empty(t, mr.Keys())
}

func TestMiddleware_FallsThroughWhenRedisDown(t *testing.T) {
	client, mr := newTestClient(t)
	calls := 0
	r := newCachedRouter(client, &calls, http.StatusOK)

	mr.Close()
	resp := get(r, "/v1/pools/btc1/stats")

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, 1, calls)
}

func TestClient_GetMiss(t *testing.T) {
	client, _ := newTestClient(t)

	body, ok, err := client.Get(context.Background(), "/nothing")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, body)
}
