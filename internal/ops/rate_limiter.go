package ops

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/types"
)

// RateLimiter implements per-client rate limiting using token buckets,
// keyed by client IP.
type RateLimiter struct {
	buckets    map[string]*tokenBucket
	bucketsMux sync.RWMutex
	limit      int
	period     time.Duration
}

type tokenBucket struct {
	tokens     int
	lastRefill time.Time
	mutex      sync.Mutex
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*tokenBucket),
		limit:   limit,
		period:  period,
	}
}

// Allow checks if a request is allowed for the given client key
func (rl *RateLimiter) Allow(key string) bool {
	bucket := rl.getBucket(key)

	bucket.mutex.Lock()
	defer bucket.mutex.Unlock()

	now := time.Now()
	elapsed := now.Sub(bucket.lastRefill)

	if elapsed >= rl.period {
		bucket.tokens = rl.limit
		bucket.lastRefill = now
	} else {
		tokensToAdd := int(elapsed.Nanoseconds() * int64(rl.limit) / rl.period.Nanoseconds())
		if tokensToAdd > 0 {
			bucket.tokens = minInt(bucket.tokens+tokensToAdd, rl.limit)
			bucket.lastRefill = now
		}
	}

	if bucket.tokens > 0 {
		bucket.tokens--
		return true
	}

	return false
}

func (rl *RateLimiter) getBucket(key string) *tokenBucket {
	rl.bucketsMux.RLock()
	bucket, exists := rl.buckets[key]
	rl.bucketsMux.RUnlock()

	if exists {
		return bucket
	}

	rl.bucketsMux.Lock()
	defer rl.bucketsMux.Unlock()

	// Double-check after acquiring write lock
	if bucket, exists := rl.buckets[key]; exists {
		return bucket
	}

	bucket = &tokenBucket{
		tokens:     rl.limit,
		lastRefill: time.Now(),
	}
	rl.buckets[key] = bucket

	return bucket
}

// cleanup removes buckets idle for more than 24 hours
func (rl *RateLimiter) cleanup() {
	rl.bucketsMux.Lock()
	defer rl.bucketsMux.Unlock()

	cutoff := time.Now().Add(-24 * time.Hour)

	for key, bucket := range rl.buckets {
		bucket.mutex.Lock()
		if bucket.lastRefill.Before(cutoff) {
			delete(rl.buckets, key)
		}
		bucket.mutex.Unlock()
	}
}

// StartCleanup starts periodic cleanup of idle buckets
func (rl *RateLimiter) StartCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			rl.cleanup()
		}
	}()
}

// GinMiddleware rejects clients that exceed the per-IP budget
func (rl *RateLimiter) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    types.ErrCodeRateLimitExceeded,
					"message": "Too many requests",
				},
			})
			return
		}
		c.Next()
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
