package ops

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowWithinLimit(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("client-1"), "request %d should be allowed", i+1)
	}
	assert.False(t, rl.Allow("client-1"))
}

func TestRateLimiter_IndependentClients(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	assert.True(t, rl.Allow("client-1"))
	assert.False(t, rl.Allow("client-1"))

	// A different client has its own bucket
	assert.True(t, rl.Allow("client-2"))
}

func TestRateLimiter_RefillsAfterPeriod(t *testing.T) {
	rl := NewRateLimiter(2, 20*time.Millisecond)

	assert.True(t, rl.Allow("client-1"))
	assert.True(t, rl.Allow("client-1"))
	assert.False(t, rl.Allow("client-1"))

	time.Sleep(25 * time.Millisecond)

	assert.True(t, rl.Allow("client-1"))
}

func TestRateLimiter_GinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(2, time.Minute)

	router := gin.New()
	router.Use(rl.GinMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/ping", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Too many requests")
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	rl.Allow("stale-client")
	rl.bucketsMux.Lock()
	rl.buckets["stale-client"].lastRefill = time.Now().Add(-25 * time.Hour)
	rl.bucketsMux.Unlock()

	rl.cleanup()

	rl.bucketsMux.RLock()
	_, exists := rl.buckets["stale-client"]
	rl.bucketsMux.RUnlock()
	assert.False(t, exists)
}
