package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMemoryLimiter_Window(t *testing.T) {
	rl := NewMemoryLimiter(2, time.Minute)
	now := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := rl.Allow(ctx, "10.0.0.1")
	assert.False(t, ok)

	ok, _ = rl.Allow(ctx, "10.0.0.2")
	assert.True(t, ok, "other clients have their own bucket")

	now = now.Add(61 * time.Second)
	ok, _ = rl.Allow(ctx, "10.0.0.1")
	assert.True(t, ok, "window reset")
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rl := NewRedisLimiter(rdb, 1, time.Minute, "login")
	h := Chain(okHandler(), RateLimit(rl, ClientIP, nil, false))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/login", nil)
	req.RemoteAddr = "192.0.2.10:5555"

	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusOK, rw.Code)

	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusTooManyRequests, rw.Code)
	assert.True(t, mr.Exists("login:192.0.2.10"))
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimit_FailOpenAndClosed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	rw := httptest.NewRecorder()
	Chain(okHandler(), RateLimit(brokenLimiter{}, nil, nil, true)).ServeHTTP(rw, req)
	assert.Equal(t, http.StatusOK, rw.Code)

	rw = httptest.NewRecorder()
	Chain(okHandler(), RateLimit(brokenLimiter{}, nil, nil, false)).ServeHTTP(rw, req)
	assert.Equal(t, http.StatusServiceUnavailable, rw.Code)
}

func TestWithCORS_CredentialedOrigin(t *testing.T) {
	h := Chain(okHandler(), WithCORS(CORSPolicy{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowCredentials: true,
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/session", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	assert.Equal(t, http.StatusNoContent, rw.Code)
	assert.Equal(t, "http://localhost:3000", rw.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rw.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.Header.Set("Origin", "http://evil.test")
	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	assert.Empty(t, rw.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDAndAnnotate(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		Annotate(r.Context(), "role", "doctor")
		w.WriteHeader(http.StatusAccepted)
	}), WithRequestID)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", rw.Header().Get(RequestIDHeader))
}
