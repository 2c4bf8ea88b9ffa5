package metrics

import "github.com/prometheus/client_golang/prometheus"

// Dialogue Prometheus metrics.
var (
	QuestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skybot",
			Name:      "questions_total",
			Help:      "Questions asked, by field",
		},
		[]string{"field"},
	)

	InformsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skybot",
			Name:      "informs_total",
			Help:      "User answers applied to the dialogue state",
		},
		[]string{"field", "outcome"}, // "accepted" / "rejected"
	)

	DatabaseQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skybot",
			Name:      "database_queries_total",
			Help:      "Flight database queries issued during expansion",
		},
		[]string{"outcome"}, // "ok" / "failed"
	)

	ExpansionTruncationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "skybot",
			Name:      "expansion_truncations_total",
			Help:      "Expansions stopped early at the data cap",
		},
	)

	PossibleDataSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "skybot",
			Name:      "possible_data_size",
			Help:      "Number of candidate flights after each update",
			Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000, 2500},
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "skybot",
			Name:      "active_sessions",
			Help:      "Open dialogue sessions",
		},
	)
)

var dialogueMetricsRegistered bool

// RegisterDialogueMetrics registers the dialogue metrics. Must be called once from main.
func RegisterDialogueMetrics() {
	if dialogueMetricsRegistered {
		return
	}
	prometheus.MustRegister(QuestionsTotal)
	prometheus.MustRegister(InformsTotal)
	prometheus.MustRegister(DatabaseQueriesTotal)
	prometheus.MustRegister(ExpansionTruncationsTotal)
	prometheus.MustRegister(PossibleDataSize)
	prometheus.MustRegister(ActiveSessions)
	dialogueMetricsRegistered = true
}
