package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/v1/sessions/{id}/state", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/sessions/abc/state", http.NoBody))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/sessions/{id}/state", "404")), 1.0)
}

func TestRegisterDialogueMetricsIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		RegisterDialogueMetrics()
		RegisterDialogueMetrics()
	})
}
