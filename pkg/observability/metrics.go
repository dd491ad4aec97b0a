package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the counters exported by the engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Statements      *prometheus.CounterVec
	StatementTime   *prometheus.HistogramVec
	Validations     *prometheus.CounterVec
	Mutations       *prometheus.CounterVec
	SessionsStarted prometheus.Counter
	SessionsDone    prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Statements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "learnpath_statements_total",
				Help: "Activity statements by verb and delivery outcome",
			},
			[]string{"verb", "outcome"},
		),
		StatementTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "learnpath_statement_send_seconds",
				Help:    "Duration of record-store deliveries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		Validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "learnpath_validations_total",
				Help: "Path validations by result",
			},
			[]string{"result"},
		),
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "learnpath_graph_mutations_total",
				Help: "Graph mutations by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "learnpath_sessions_started_total",
			Help: "Learner sessions started",
		}),
		SessionsDone: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "learnpath_sessions_completed_total",
			Help: "Learner sessions that reached an End node",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Statements, m.StatementTime, m.Validations, m.Mutations, m.SessionsStarted, m.SessionsDone)
	}
	return m
}

// Statement records one delivery outcome.
func (m *Metrics) Statement(verb, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.Statements.WithLabelValues(verb, outcome).Inc()
	m.StatementTime.WithLabelValues(outcome).Observe(seconds)
}

// Validation records one validator run.
func (m *Metrics) Validation(valid bool) {
	if m == nil {
		return
	}
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.Validations.WithLabelValues(result).Inc()
}

// Mutation records one graph mutation attempt.
func (m *Metrics) Mutation(op, outcome string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(op, outcome).Inc()
}

// SessionStarted counts a new learner session.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
}

// SessionCompleted counts a learner session reaching the end.
func (m *Metrics) SessionCompleted() {
	if m == nil {
		return
	}
	m.SessionsDone.Inc()
}
