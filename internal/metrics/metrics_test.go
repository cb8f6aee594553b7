package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	require.NotNil(t, m)
	assert.NotNil(t, m.StageTransitions)
	assert.NotNil(t, m.PlanningRuns)
	assert.NotNil(t, m.OracleCalls)
	assert.NotNil(t, m.TicketsCreated)
	assert.NotNil(t, m.Errors)
}

func TestCountersIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.TicketsCreated.WithLabelValues("Story").Inc()
	m.TicketsCreated.WithLabelValues("Story").Inc()
	m.TicketsCreated.WithLabelValues("Task").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TicketsCreated.WithLabelValues("Story")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TicketsCreated.WithLabelValues("Task")))
}

func TestRecordError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordError("TRACKER-001")
	m.RecordError("TRACKER-001")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Errors.WithLabelValues("TRACKER-001")))
}

func TestNewRegistry(t *testing.T) {
	reg, m := NewRegistry()
	require.NotNil(t, reg)
	require.NotNil(t, m)

	m.PlanningRuns.WithLabelValues("true", "false").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestDefaultLifecycle(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	first := GetDefault()
	second := GetDefault()
	assert.Same(t, first, second)
}
