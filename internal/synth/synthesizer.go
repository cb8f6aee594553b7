// Package synth produces candidate task plans for a story: oracle-backed
// generation with a strict parse contract, and deterministic per-archetype
// template fallback when the oracle fails.
package synth

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/epicbreaker/internal/domain"
	"github.com/felixgeelhaar/epicbreaker/internal/estimate"
	"github.com/felixgeelhaar/epicbreaker/internal/log"
	"github.com/felixgeelhaar/epicbreaker/internal/metrics"
	"github.com/felixgeelhaar/epicbreaker/internal/oracle"
	"github.com/felixgeelhaar/epicbreaker/internal/plan"
)

// Options configures one synthesis call.
type Options struct {
	MaxCycleDays float64
	Coverage     plan.CoverageLevel
	Docs         DocContext
}

// Synthesizer turns stories into team-assigned task plans.
type Synthesizer struct {
	oracle    oracle.Oracle
	registry  *Registry
	estimator *estimate.Estimator
	metrics   *metrics.Metrics
	logger    *log.Logger
}

// New creates a Synthesizer. The registry is an explicit dependency so
// callers control the template set; pass DefaultRegistry() for the standard
// patterns. A nil metrics instance falls back to the process default.
func New(o oracle.Oracle, registry *Registry, est *estimate.Estimator, m *metrics.Metrics, logger *log.Logger) *Synthesizer {
	if m == nil {
		m = metrics.GetDefault()
	}
	return &Synthesizer{
		oracle:    o,
		registry:  registry,
		estimator: est,
		metrics:   m,
		logger:    logger,
	}
}

// Synthesize produces the candidate task list for a story. The oracle path
// is attempted first; on oracle failure or an empty parse the deterministic
// template fallback runs. Warnings describe dropped oracle elements and the
// fallback trigger; they never fail the call.
func (s *Synthesizer) Synthesize(ctx context.Context, story *plan.StoryPlan, archetype domain.Archetype, opts Options) ([]*plan.TaskPlan, []string) {
	tasks, warnings := s.tryOracle(ctx, story, archetype, opts)
	if len(tasks) > 0 {
		return tasks, warnings
	}

	s.logger.Debug("falling back to task templates",
		"story", story.Summary, "archetype", archetype.String())

	return s.fromTemplates(story, archetype, opts), warnings
}

func (s *Synthesizer) tryOracle(ctx context.Context, story *plan.StoryPlan, archetype domain.Archetype, opts Options) ([]*plan.TaskPlan, []string) {
	prompt := BuildPrompt(story, archetype, opts.MaxCycleDays, opts.Coverage.TestCaseCount(), opts.Docs)
	provider := s.oracle.Name()

	started := time.Now()
	raw, err := s.oracle.GenerateStructured(ctx, prompt, SchemaHint)
	s.metrics.OracleLatency.WithLabelValues(provider).Observe(time.Since(started).Seconds())
	if err != nil {
		s.metrics.OracleCalls.WithLabelValues(provider, "false").Inc()
		s.metrics.OracleFallbacks.WithLabelValues("unavailable").Inc()
		return nil, []string{fmt.Sprintf("oracle unavailable for story %q: %v", story.Summary, err)}
	}
	s.metrics.OracleCalls.WithLabelValues(provider, "true").Inc()

	tasks, warnings, err := ParseTasks(raw, story, s.estimator)
	if err != nil {
		s.metrics.OracleFallbacks.WithLabelValues("unparseable").Inc()
		return nil, []string{fmt.Sprintf("oracle response unusable for story %q: %v", story.Summary, err)}
	}
	if len(tasks) == 0 {
		s.metrics.OracleFallbacks.WithLabelValues("empty").Inc()
		warnings = append(warnings, fmt.Sprintf("oracle produced no usable tasks for story %q", story.Summary))
		return nil, warnings
	}

	s.logger.Debug("oracle synthesis succeeded",
		"story", story.Summary, "tasks", len(tasks), "oracle", s.oracle.Name())
	return tasks, warnings
}

// fromTemplates produces one task per pattern in the archetype's template
// set, with placeholder test cases.
func (s *Synthesizer) fromTemplates(story *plan.StoryPlan, archetype domain.Archetype, opts Options) []*plan.TaskPlan {
	patterns := s.registry.Patterns(archetype)

	tasks := make([]*plan.TaskPlan, 0, len(patterns))
	for _, pattern := range patterns {
		scopes := make([]plan.Scope, len(pattern.Scopes))
		copy(scopes, pattern.Scopes)

		task := &plan.TaskPlan{
			ID:      domain.NewTaskID(),
			Summary: fmt.Sprintf(pattern.Summary, story.Summary),
			Purpose: pattern.Purpose,
			Scopes:  scopes,
			ExpectedOutcomes: []string{
				fmt.Sprintf("%s delivered for %q", pattern.Purpose, story.Summary),
			},
			Team:      pattern.Team,
			Estimate:  s.estimator.EstimateScopes(pattern.Team, scopes),
			TestCases: PlaceholderTestCases(pattern.Team, story.Summary),
			StoryID:   story.Key,
			EpicID:    story.EpicID,
			Source:    plan.SourceTemplate,
		}
		tasks = append(tasks, task)
	}

	return tasks
}
