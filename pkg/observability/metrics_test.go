package observability_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/pseng/MyH5P-pages/pkg/observability"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	m.Mutation("add_node", "ok")
	m.Mutation("add_node", "ok")
	m.Mutation("add_connection", "rejected")
	m.Validation(true)
	m.Statement("completed", "stored", 0.01)
	m.SessionStarted()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Mutations.WithLabelValues("add_node", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("add_connection", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Validations.WithLabelValues("valid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Statements.WithLabelValues("completed", "stored")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsStarted))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *observability.Metrics
	assert.NotPanics(t, func() {
		m.Mutation("add_node", "ok")
		m.Validation(false)
		m.Statement("launched", "skipped", 0)
		m.SessionStarted()
		m.SessionCompleted()
	})
}
