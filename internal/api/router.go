package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/skybot/internal/api/handlers"
	mw "github.com/Harshitk-cp/skybot/internal/api/middleware"
	"github.com/Harshitk-cp/skybot/internal/buildconfig"
	"github.com/Harshitk-cp/skybot/internal/config"
	"github.com/Harshitk-cp/skybot/internal/domain"
	"github.com/Harshitk-cp/skybot/internal/flights"
	"github.com/Harshitk-cp/skybot/internal/metrics"
	"github.com/Harshitk-cp/skybot/internal/service"
	"github.com/Harshitk-cp/skybot/internal/store"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router    *chi.Mux
	Sessions  *service.Registry
	collector *mw.MetricsCollector
	startTime time.Time
}

// NewApp wires the HTTP surface around registry. db may be nil when the
// server runs without Postgres.
func NewApp(registry *service.Registry, db *pgxpool.Pool, logger *zap.Logger) *App {
	sessionHandler := handlers.NewSessionHandler(registry, logger)
	chatHandler := handlers.NewChatHandler(registry, logger)

	r := chi.NewRouter()

	metricsCollector := mw.NewMetricsCollector()
	app := &App{
		Router:    r,
		Sessions:  registry,
		collector: metricsCollector,
		startTime: time.Now(),
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)                                                 // Generate/extract request ID first
	r.Use(middleware.RealIP)                                            // Extract real IP
	r.Use(metricsCollector.Middleware)                                  // Collect metrics
	r.Use(metrics.Middleware())                                         // Prometheus
	r.Use(mw.Logging(logger))                                           // Log all requests
	r.Use(middleware.Recoverer)                                         // Recover from panics
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst())) // Rate limiting

	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())
	r.Handle("/metrics/prometheus", promhttp.Handler())
	r.Get("/version", versionHandler)

	// Web socket chat, one session per connection
	r.Get("/ws", chatHandler.Serve)

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", sessionHandler.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", sessionHandler.Delete)
			r.Post("/messages", sessionHandler.Message)
			r.Post("/feedback", sessionHandler.Feedback)
			r.Get("/state", sessionHandler.State)
			r.Get("/turns", sessionHandler.Turns)
		})
	})

	return app
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if db == nil {
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "database": "disabled"})
			return
		}
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(buildconfig.VersionInfo())
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds":  uptime.Seconds(),
			"uptime_human":    uptime.Round(time.Second).String(),
			"requests":        app.collector.Snapshot(),
			"active_sessions": app.Sessions.Len(),
			"goroutines":      runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and databases satisfy interfaces at compile time.
var (
	_ domain.TurnStore   = (*store.TurnStore)(nil)
	_ domain.FlightCache = (*store.FlightCacheStore)(nil)
	_ domain.FlightCache = (*flights.MemoryCache)(nil)
	_ domain.Database    = (*flights.QPXDatabase)(nil)
	_ domain.Database    = (*flights.Dataset)(nil)
)
