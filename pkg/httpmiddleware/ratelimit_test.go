package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 2, Window: time.Minute})(okHandler())

	do := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do("10.0.0.1:1234")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	rec = do("10.0.0.1:1234")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = do("10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))

	// A different client has its own budget; the port does not matter.
	rec = do("10.0.0.2:9999")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do("10.0.0.1:5678")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimit_WindowReset(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	now := time.Now()

	_, _, allowed := rl.allow("client", now)
	require.True(t, allowed)
	_, _, allowed = rl.allow("client", now.Add(30*time.Second))
	require.False(t, allowed)

	// A new window grants a fresh budget.
	_, resetAt, allowed := rl.allow("client", now.Add(time.Minute))
	require.True(t, allowed)
	assert.Equal(t, now.Add(2*time.Minute).Unix(), resetAt.Unix())
}

func TestRateLimit_Cleanup(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	now := time.Now()

	rl.allow("stale", now)
	rl.allow("fresh", now.Add(50*time.Second))

	rl.cleanup(now.Add(70 * time.Second))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.entries, "stale")
	assert.Contains(t, rl.entries, "fresh")
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	h := RateLimit(RateLimitConfig{
		Max:    1,
		Window: time.Minute,
		KeyFunc: func(r *http.Request) string {
			return r.Header.Get("Authorization")
		},
	})(okHandler())

	do := func(auth string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", auth)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("token-a"))
	assert.Equal(t, http.StatusTooManyRequests, do("token-a"))
	assert.Equal(t, http.StatusOK, do("token-b"))
}
