// Package metrics holds the Prometheus instrumentation for the planning
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for epicbreaker
type Metrics struct {
	// Pipeline stage metrics
	StageTransitions *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec

	// Planning run metrics
	PlanningRuns      *prometheus.CounterVec
	PlanningDuration  *prometheus.HistogramVec
	StoriesPlanned    *prometheus.HistogramVec
	TasksPlanned      *prometheus.HistogramVec
	TasksSplit        *prometheus.CounterVec
	CoveragePlacehold *prometheus.CounterVec

	// Oracle metrics
	OracleCalls     *prometheus.CounterVec
	OracleLatency   *prometheus.HistogramVec
	OracleFallbacks *prometheus.CounterVec

	// Dependency resolution metrics
	DependenciesResolved   *prometheus.CounterVec
	DependenciesUnresolved *prometheus.CounterVec

	// Materialization metrics
	TicketsCreated  *prometheus.CounterVec
	TicketFailures  *prometheus.CounterVec
	LinksCreated    *prometheus.CounterVec
	LinkFailures    *prometheus.CounterVec
	TrackerLatency  *prometheus.HistogramVec
	CreationRetries *prometheus.CounterVec

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		StageTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epicbreaker_stage_transitions_total",
				Help: "Total number of pipeline stage transitions",
			},
			[]string{"from", "to"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "epicbreaker_stage_duration_seconds",
				Help:    "Duration of each pipeline stage",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),

		PlanningRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epicbreaker_planning_runs_total",
				Help: "Total number of planning runs",
			},
			[]string{"success", "dry_run"},
		),
		PlanningDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "epicbreaker_planning_duration_seconds",
				Help:    "End-to-end duration of planning runs",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"dry_run"},
		),
		StoriesPlanned: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "epicbreaker_stories_planned",
				Help:    "Number of stories produced per run",
				Buckets: []float64{1, 2, 5, 10, 20, 50},
			},
			[]string{},
		),
		TasksPlanned: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "epicbreaker_tasks_planned",
				Help:    "Number of tasks produced per run",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
			},
			[]string{},
		),
		TasksSplit: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epicbreaker_tasks_split_total",
				Help: "Total number of tasks split for exceeding the cycle budget",
			},
			[]string{"strategy"},
		),
		CoveragePlacehold: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epicbreaker_coverage_placeholders_total",
				Help: "Total number of placeholder tasks added for missing teams",
			},
			[]string{"team"},
		),

		OracleCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epicbreaker_oracle_calls_total",
				Help: "Total number of oracle generation calls",
			},
			[]string{"provider", "success"},
		),
		OracleLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "epicbreaker_oracle_latency_seconds",
				Help:    "Latency of oracle generation calls",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider"},
		),
		OracleFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epicbreaker_oracle_fallbacks_total",
				Help: "Total number of template fallbacks after oracle failure",
			},
			[]string{"reason"},
		),

		DependenciesResolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epicbreaker_dependencies_resolved_total",
				Help: "Total number of dependency references resolved to task identifiers",
			},
			[]string{},
		),
		DependenciesUnresolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epicbreaker_dependencies_unresolved_total",
				Help: "Total number of dependency references left unresolved",
			},
			[]string{},
		),

		TicketsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epicbreaker_tickets_created_total",
				Help: "Total number of tracker tickets created",
			},
			[]string{"kind"},
		),
		TicketFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epicbreaker_ticket_failures_total",
				Help: "Total number of per-item ticket creation failures",
			},
			[]string{"kind"},
		),
		LinksCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epicbreaker_links_created_total",
				Help: "Total number of tracker links created",
			},
			[]string{"type"},
		),
		LinkFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epicbreaker_link_failures_total",
				Help: "Total number of link failures, including skipped dangling links",
			},
			[]string{"type", "reason"},
		),
		TrackerLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "epicbreaker_tracker_latency_seconds",
				Help:    "Latency of tracker API calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		CreationRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epicbreaker_creation_retries_total",
				Help: "Total number of ticket-creation retry attempts",
			},
			[]string{"kind"},
		),

		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epicbreaker_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"code"},
		),
	}
}

// RecordError increments the error counter for a structured error code.
func (m *Metrics) RecordError(code string) {
	m.Errors.WithLabelValues(code).Inc()
}
