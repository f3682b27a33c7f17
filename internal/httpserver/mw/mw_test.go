package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/portal/internal/logger"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func serve(h http.Handler, host, remote string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = host
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host    string
		pattern string
		want    bool
	}{
		{host: "portal.example.com", pattern: "portal.example.com", want: true},
		{host: "portal.example.com:8443", pattern: "portal.example.com", want: true},
		{host: "portal.example.com:8443", pattern: "portal.example.com:443", want: false},
		{host: "a.example.com", pattern: "*.example.com", want: true},
		{host: "a.b.example.com:80", pattern: "*.example.com", want: true},
		{host: "example.com", pattern: "*.example.com", want: false},
		{host: "evilexample.com", pattern: "*.example.com", want: false},
		{host: "localhost", pattern: "portal.example.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.host+"~"+tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, matchHost(tt.host, tt.pattern))
		})
	}
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{" Portal.Example.com "}, logger.NewNop())(ok)

	assert.Equal(t, http.StatusNoContent, serve(h, "PORTAL.example.com", "10.0.0.1:1"))
	assert.Equal(t, http.StatusForbidden, serve(h, "other.example.com", "10.0.0.1:1"))

	open := EnforceHost(nil, logger.NewNop())(ok)
	assert.Equal(t, http.StatusNoContent, serve(open, "anything", "10.0.0.1:1"))
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"10.0.0.0/8", "192.168.1.7"}, false, logger.NewNop())(ok)

	assert.Equal(t, http.StatusNoContent, serve(h, "x", "10.20.30.40:5555"))
	assert.Equal(t, http.StatusNoContent, serve(h, "x", "192.168.1.7:5555"))
	assert.Equal(t, http.StatusForbidden, serve(h, "x", "192.168.1.8:5555"))

	open := AllowOnlyCIDRS(nil, false, logger.NewNop())(ok)
	assert.Equal(t, http.StatusNoContent, serve(open, "x", "8.8.8.8:53"))
}

func TestLimiterRefill(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newLimiter(RateLimitConfig{
		Burst:             2,
		RefillPerIPPerMin: 6, // one token every 10s
		now:               func() time.Time { return now },
	})

	allowed, remaining, _ := l.take("a")
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)

	allowed, _, _ = l.take("a")
	assert.True(t, allowed)

	allowed, _, retry := l.take("a")
	assert.False(t, allowed)
	assert.Equal(t, 10*time.Second, retry)

	// Other clients have their own limiter.
	allowed, _, _ = l.take("b")
	assert.True(t, allowed)

	now = now.Add(10 * time.Second)
	allowed, _, _ = l.take("a")
	assert.True(t, allowed)
}

func TestLimiterSweepsIdleBuckets(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newLimiter(RateLimitConfig{
		Burst:             1,
		RefillPerIPPerMin: 1,
		IdleTTL:           time.Minute,
		now:               func() time.Time { return now },
	})

	l.take("a")
	l.take("b")
	require.Len(t, l.clients, 2)

	now = now.Add(2 * time.Minute)
	l.take("c")
	assert.Len(t, l.clients, 1)
}

func TestRateLimitOnLimited(t *testing.T) {
	var limited int
	h := RateLimit(RateLimitConfig{
		Burst:             1,
		RefillPerIPPerMin: 1,
		OnLimited: func(w http.ResponseWriter, _ *http.Request) {
			limited++
			w.WriteHeader(http.StatusTooManyRequests)
		},
	})(ok)

	assert.Equal(t, http.StatusNoContent, serve(h, "x", "10.0.0.1:1"))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.1:2"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, 1, limited)
}

func TestLogLevels(t *testing.T) {
	for _, code := range []int{http.StatusOK, http.StatusNotFound, http.StatusInternalServerError} {
		h := Log(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(code)
		}))
		assert.Equal(t, code, serve(h, "x", "10.0.0.1:1"))
	}
}
