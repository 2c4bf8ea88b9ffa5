package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	t.Run("keeps a well-formed caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "trace-42_a")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, "trace-42_a", seen)
		assert.Equal(t, "trace-42_a", rr.Header().Get(RequestIDHeader))
	})

	for name, id := range map[string]string{
		"missing":   "",
		"malformed": "bad id\n",
		"too long":  string(make([]byte, maxRequestIDLen+1)),
	} {
		t.Run("replaces "+name+" id", func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if id != "" {
				req.Header.Set(RequestIDHeader, id)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Len(t, seen, 36)
			assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2016, 12, 7, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Middleware(okHandler(http.StatusOK))

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Real-IP", "10.0.0.1")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes[i] = rr.Code
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	assert.True(t, rl.Allow("10.0.0.2"), "clients are limited independently")

	now = now.Add(time.Hour)
	rl.Allow("10.0.0.3")
	assert.Equal(t, 1, rl.Cleanup(10*time.Minute))
}

func TestMetricsCollector(t *testing.T) {
	mc := NewMetricsCollector()
	for _, status := range []int{http.StatusOK, http.StatusNotFound, http.StatusBadRequest, http.StatusBadGateway} {
		mc.Middleware(okHandler(status)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Upgrade", "websocket")
	mc.Middleware(okHandler(http.StatusSwitchingProtocols)).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, RequestStats{Requests: 5, ClientErrors: 2, ServerErrors: 1, Upgrades: 1}, mc.Snapshot())
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	RequestID(Logging(logger)(okHandler(http.StatusOK))).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	Logging(logger)(okHandler(http.StatusInternalServerError)).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/sessions", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "/health", entries[0].ContextMap()["path"])
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.EqualValues(t, http.StatusInternalServerError, entries[1].ContextMap()["status"])
}
