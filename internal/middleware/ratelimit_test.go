package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketRefill(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tb := newTokenBucket(2, 1, func() time.Time { return now })

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(1, 0)
	defer limiter.Stop()
	h := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	send := func(path, addr string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("/v1/posts", "10.0.0.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, send("/v1/posts", "10.0.0.1:2000"))
	assert.Equal(t, http.StatusOK, send("/v1/posts", "10.0.0.2:1000"))
	assert.Equal(t, http.StatusOK, send("/health", "10.0.0.1:1000"))
}

func TestEvictIdle(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := &RateLimiter{buckets: map[string]*TokenBucket{}, capacity: 1, refillRate: 1,
		now: func() time.Time { return now }, stop: make(chan struct{})}
	rl.Allow("a")
	now = now.Add(11 * time.Minute)
	rl.evictIdle(10 * time.Minute)
	assert.Empty(t, rl.buckets)
}
