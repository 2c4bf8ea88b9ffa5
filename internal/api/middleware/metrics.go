package middleware

import (
	"net/http"
	"strings"
	"sync/atomic"
)

// RequestStats is a point-in-time view of the request counters.
type RequestStats struct {
	Requests     int64 `json:"request_count"`
	ClientErrors int64 `json:"client_errors"`
	ServerErrors int64 `json:"server_errors"`
	Upgrades     int64 `json:"ws_upgrades"`
}

// MetricsCollector counts requests by outcome. Web socket upgrades are
// counted on the way in since the connection outlives the handler's status.
type MetricsCollector struct {
	requests     atomic.Int64
	clientErrors atomic.Int64
	serverErrors atomic.Int64
	upgrades     atomic.Int64
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

func (mc *MetricsCollector) Snapshot() RequestStats {
	return RequestStats{
		Requests:     mc.requests.Load(),
		ClientErrors: mc.clientErrors.Load(),
		ServerErrors: mc.serverErrors.Load(),
		Upgrades:     mc.upgrades.Load(),
	}
}

func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mc.requests.Add(1)
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			mc.upgrades.Add(1)
		}

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		switch {
		case rw.statusCode >= http.StatusInternalServerError:
			mc.serverErrors.Add(1)
		case rw.statusCode >= http.StatusBadRequest:
			mc.clientErrors.Add(1)
		}
	})
}
