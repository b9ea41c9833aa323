package review

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the review subsystem.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	GroupsPerRun    prometheus.Histogram
	GroupSize       prometheus.Histogram
	DecisionsTotal  *prometheus.CounterVec
	POCsPerDecision prometheus.Histogram
}

// NewMetrics registers and returns review metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "revu_runs_total",
			Help: "Total review runs by final result.",
		}, []string{"result"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "revu_run_duration_seconds",
			Help:    "Duration of review runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s .. ~68min, humans are slow
		}),
		GroupsPerRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "revu_groups_per_run",
			Help:    "Incident groups formed per review run.",
			Buckets: prometheus.LinearBuckets(0, 2, 16), // 0 .. 30
		}),
		GroupSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "revu_group_size",
			Help:    "Incidents per similarity group.",
			Buckets: prometheus.LinearBuckets(1, 1, 10), // 1 .. 10
		}),
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "revu_decisions_total",
			Help: "Review decisions by outcome.",
		}, []string{"outcome"}),
		POCsPerDecision: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "revu_pocs_per_decision",
			Help:    "POC identities selected per kept decision.",
			Buckets: prometheus.LinearBuckets(0, 1, 8), // 0 .. 7
		}),
	}

	reg.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.GroupsPerRun,
		m.GroupSize,
		m.DecisionsTotal,
		m.POCsPerDecision,
	)

	return m
}

// Hooks returns an EngineHooks that increments the corresponding metrics.
func (m *Metrics) Hooks() EngineHooks {
	return EngineHooks{
		OnGroup: func(size int, _ bool) {
			m.GroupSize.Observe(float64(size))
		},
		OnDecision: func(kept bool, pocs int) {
			outcome := "excluded"
			if kept {
				outcome = "kept"
				m.POCsPerDecision.Observe(float64(pocs))
			}
			m.DecisionsTotal.WithLabelValues(outcome).Inc()
		},
	}
}
