// Package orchestrator sequences the planning pipeline for one epic and
// owns the two-phase ticket-materialization protocol against the tracker.
package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/epicbreaker/internal/classify"
	"github.com/felixgeelhaar/epicbreaker/internal/coverage"
	"github.com/felixgeelhaar/epicbreaker/internal/deps"
	"github.com/felixgeelhaar/epicbreaker/internal/docstore"
	"github.com/felixgeelhaar/epicbreaker/internal/domain"
	"github.com/felixgeelhaar/epicbreaker/internal/errors"
	"github.com/felixgeelhaar/epicbreaker/internal/estimate"
	"github.com/felixgeelhaar/epicbreaker/internal/gap"
	"github.com/felixgeelhaar/epicbreaker/internal/log"
	"github.com/felixgeelhaar/epicbreaker/internal/metrics"
	"github.com/felixgeelhaar/epicbreaker/internal/oracle"
	"github.com/felixgeelhaar/epicbreaker/internal/plan"
	"github.com/felixgeelhaar/epicbreaker/internal/split"
	"github.com/felixgeelhaar/epicbreaker/internal/synth"
	"github.com/felixgeelhaar/epicbreaker/internal/tracker"
)

// State is a pipeline stage. Each stage consumes the prior stage's full
// output; only MATERIALIZING may be skipped, under dry-run.
type State string

const (
	StateAnalyzing             State = "ANALYZING"
	StateSynthesizingStories   State = "SYNTHESIZING_STORIES"
	StateSynthesizingTasks     State = "SYNTHESIZING_TASKS"
	StateEnforcingCoverage     State = "ENFORCING_COVERAGE"
	StateSplitting             State = "SPLITTING"
	StateResolvingDependencies State = "RESOLVING_DEPENDENCIES"
	StateMaterializing         State = "MATERIALIZING"
	StateDone                  State = "DONE"
	StateFailed                State = "FAILED"
)

// Creation retry bounds for transient tracker errors under bulk creation.
const (
	createAttempts = 3
	baseRetryDelay = 250 * time.Millisecond
)

// Options configures one planning run.
type Options struct {
	MaxCycleDays float64
	Coverage     plan.CoverageLevel

	// DryRun skips materialization entirely; the result carries the full
	// plan with no tracker keys assigned.
	DryRun bool
}

// Orchestrator runs the planning pipeline. One orchestrator may serve many
// runs; each run owns its own plan graph. Callers are expected to keep at
// most one in-flight run per epic.
type Orchestrator struct {
	tracker tracker.Client
	docs    docstore.Client

	analyzer    *gap.Analyzer
	synthesizer *synth.Synthesizer
	enforcer    *coverage.Enforcer
	splitter    *split.Splitter
	resolver    *deps.Resolver

	metrics *metrics.Metrics
	logger  *log.Logger

	// retryDelay shortens backoff in tests.
	retryDelay time.Duration
}

// Config wires the orchestrator's collaborators.
type Config struct {
	Tracker      tracker.Client
	Docs         docstore.Client
	Oracle       oracle.Oracle
	MaxCycleDays float64
	Metrics      *metrics.Metrics
	Logger       *log.Logger
}

// New builds an orchestrator and its pipeline components around a shared
// estimator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.GetDefault()
	}

	est := estimate.New(cfg.MaxCycleDays)

	return &Orchestrator{
		tracker:     cfg.Tracker,
		docs:        cfg.Docs,
		analyzer:    gap.New(cfg.Tracker, cfg.Docs, logger),
		synthesizer: synth.New(cfg.Oracle, synth.DefaultRegistry(), est, m, logger),
		enforcer:    coverage.New(est, logger),
		splitter:    split.New(est, cfg.MaxCycleDays, logger),
		resolver:    deps.New(logger),
		metrics:     m,
		logger:      logger,
		retryDelay:  baseRetryDelay,
	}
}

// run carries one invocation's mutable state through the stages.
type run struct {
	epic       *plan.Epic
	opts       Options
	state      State
	stageStart time.Time
	result     *plan.PlanningResult
	docs       synth.DocContext
}

// Plan executes the pipeline for an epic and returns its result. The result
// is always non-nil; Success reports whether the pipeline completed, not
// whether every artifact materialized.
func (o *Orchestrator) Plan(ctx context.Context, epic *plan.Epic, opts Options) *plan.PlanningResult {
	started := time.Now()

	r := &run{
		epic:       epic,
		opts:       opts,
		state:      StateAnalyzing,
		stageStart: started,
		result: &plan.PlanningResult{
			RunID:   uuid.NewString(),
			EpicID:  epic.ID,
			Created: make(map[string][]string),
		},
	}

	o.logger.Info("planning run started",
		"run_id", r.result.RunID, "epic", epic.ID, "dry_run", opts.DryRun)

	err := o.execute(ctx, r)
	if err != nil {
		o.fail(r, err)
	} else {
		o.transition(r, StateDone)
		r.result.Success = true
	}

	r.result.Elapsed = time.Since(started)
	o.metrics.PlanningRuns.WithLabelValues(
		fmt.Sprintf("%t", r.result.Success), fmt.Sprintf("%t", opts.DryRun)).Inc()
	o.metrics.PlanningDuration.WithLabelValues(
		fmt.Sprintf("%t", opts.DryRun)).Observe(r.result.Elapsed.Seconds())

	o.logger.Info("planning run finished",
		"run_id", r.result.RunID,
		"success", r.result.Success,
		"stories", len(r.result.Stories),
		"failed_creations", len(r.result.FailedCreations),
		"elapsed", r.result.Elapsed)

	return r.result
}

func (o *Orchestrator) execute(ctx context.Context, r *run) error {
	if err := o.analyze(ctx, r); err != nil {
		return err
	}

	o.transition(r, StateSynthesizingStories)
	o.synthesizeStories(ctx, r)

	o.transition(r, StateSynthesizingTasks)
	o.synthesizeTasks(ctx, r)

	o.transition(r, StateEnforcingCoverage)
	o.enforceCoverage(r)

	o.transition(r, StateSplitting)
	o.splitTasks(r)

	o.transition(r, StateResolvingDependencies)
	o.resolveDependencies(r)

	if err := o.validatePlan(r); err != nil {
		return err
	}

	if r.opts.DryRun {
		o.logger.Info("dry run, skipping materialization", "run_id", r.result.RunID)
		return nil
	}

	o.transition(r, StateMaterializing)
	return o.materialize(ctx, r)
}

func (o *Orchestrator) analyze(ctx context.Context, r *run) error {
	analysis, warnings, err := o.analyzer.Analyze(ctx, r.epic)
	if err != nil {
		return err
	}
	r.result.Gaps = analysis
	r.result.Warnings = append(r.result.Warnings, warnings...)

	r.docs = o.fetchDocContext(ctx, r)
	return nil
}

// fetchDocContext pulls both source documents once per run for prompt
// construction. Failures degrade to absent context.
func (o *Orchestrator) fetchDocContext(ctx context.Context, r *run) synth.DocContext {
	var dc synth.DocContext
	if o.docs == nil {
		return dc
	}

	if url := r.epic.RequirementsDocURL; url != "" {
		sections, err := o.docs.GetSections(ctx, url)
		if err != nil {
			r.result.Warnings = append(r.result.Warnings,
				fmt.Sprintf("requirements document unavailable: %v", err))
		} else {
			dc.RequirementSections = sections
		}
	}
	if url := r.epic.DesignDocURL; url != "" {
		sections, err := o.docs.GetSections(ctx, url)
		if err != nil {
			r.result.Warnings = append(r.result.Warnings,
				fmt.Sprintf("design document unavailable: %v", err))
		} else {
			dc.DesignSections = sections
		}
	}
	return dc
}

// synthesizeStories builds one StoryPlan per missing story area, plus one
// per incomplete existing story so it receives tasks in this run. Stories
// pulled from the tracker keep their key and are never re-created during
// materialization.
func (o *Orchestrator) synthesizeStories(ctx context.Context, r *run) {
	for _, area := range r.result.Gaps.MissingStories {
		story := &plan.StoryPlan{
			Summary:     area,
			Description: fmt.Sprintf("Cover the %s requirements of %s.", area, r.epic.Title),
			AcceptanceCriteria: []plan.AcceptanceCriterion{
				{
					Given: fmt.Sprintf("the %s epic is in progress", r.epic.Title),
					When:  fmt.Sprintf("the %s work is delivered", area),
					Then:  "the related requirements in the source documents are satisfied",
				},
			},
			EpicID:   r.epic.ID,
			Priority: domain.PriorityMedium,
		}
		r.result.Stories = append(r.result.Stories, story)
	}

	for _, key := range r.result.Gaps.IncompleteStories {
		issue, err := o.tracker.Get(ctx, key)
		if err != nil || issue == nil {
			r.result.Warnings = append(r.result.Warnings,
				fmt.Sprintf("incomplete story %s could not be fetched, skipping task synthesis for it", key))
			continue
		}
		r.result.Stories = append(r.result.Stories, &plan.StoryPlan{
			Key:         issue.Key,
			Summary:     issue.Summary,
			Description: issue.Description,
			EpicID:      r.epic.ID,
			Priority:    domain.PriorityMedium,
		})
	}

	o.metrics.StoriesPlanned.WithLabelValues().Observe(float64(len(r.result.Stories)))
	o.logger.Debug("stories synthesized",
		"run_id", r.result.RunID, "count", len(r.result.Stories))
}

func (o *Orchestrator) synthesizeTasks(ctx context.Context, r *run) {
	synthOpts := synth.Options{
		MaxCycleDays: r.opts.MaxCycleDays,
		Coverage:     r.opts.Coverage,
		Docs:         r.docs,
	}

	total := 0
	for _, story := range r.result.Stories {
		archetype := classify.Classify(story)
		tasks, warnings := o.synthesizer.Synthesize(ctx, story, archetype, synthOpts)
		story.Tasks = tasks
		total += len(tasks)
		r.result.Warnings = append(r.result.Warnings, warnings...)
	}

	o.metrics.TasksPlanned.WithLabelValues().Observe(float64(total))
}

func (o *Orchestrator) enforceCoverage(r *run) {
	for _, story := range r.result.Stories {
		archetype := classify.Classify(story)
		before := len(story.Tasks)
		tasks, warnings := o.enforcer.Ensure(story, archetype, story.Tasks)
		story.Tasks = tasks
		r.result.Warnings = append(r.result.Warnings, warnings...)

		for _, task := range tasks[before:] {
			o.metrics.CoveragePlacehold.WithLabelValues(task.Team.String()).Inc()
		}
	}
}

func (o *Orchestrator) splitTasks(r *run) {
	for _, story := range r.result.Stories {
		before := len(story.Tasks)
		story.Tasks = o.splitter.Split(story.Tasks)
		if grown := len(story.Tasks) - before; grown > 0 {
			o.metrics.TasksSplit.WithLabelValues("cycle_budget").Add(float64(grown))
		}
	}
}

// validatePlan checks the finished plan graph before it is reported or
// materialized. A failure here is an internal defect, not a collaborator
// problem, and aborts the run.
func (o *Orchestrator) validatePlan(r *run) error {
	var tasks []*plan.TaskPlan
	for _, story := range r.result.Stories {
		if err := story.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodePlanInvalidTask,
				fmt.Sprintf("story %q failed validation", story.Summary), err)
		}
		tasks = append(tasks, story.Tasks...)
	}

	if err := plan.ValidateEdges(tasks, r.result.Edges); err != nil {
		return errors.Wrap(errors.ErrCodePlanUnresolvedDep,
			"dependency edges failed validation", err)
	}
	return nil
}

func (o *Orchestrator) resolveDependencies(r *run) {
	warnings := o.resolver.Resolve(r.result.Stories)
	r.result.Warnings = append(r.result.Warnings, warnings...)
	r.result.Edges = deps.Edges(r.result.Stories)

	o.metrics.DependenciesResolved.WithLabelValues().Add(float64(len(r.result.Edges)))
	o.metrics.DependenciesUnresolved.WithLabelValues().Add(float64(len(warnings)))
}

func (o *Orchestrator) transition(r *run, next State) {
	o.metrics.StageTransitions.WithLabelValues(string(r.state), string(next)).Inc()
	o.metrics.StageDuration.WithLabelValues(string(r.state)).Observe(time.Since(r.stageStart).Seconds())
	o.logger.Debug("stage transition",
		"run_id", r.result.RunID, "from", string(r.state), "to", string(next))
	r.state = next
	r.stageStart = time.Now()
}

func (o *Orchestrator) fail(r *run, err error) {
	o.transition(r, StateFailed)
	r.result.Errors = append(r.result.Errors, err.Error())

	var perr *errors.PlannerError
	if stderrors.As(err, &perr) {
		o.metrics.RecordError(string(perr.Code))
	}
	o.logger.WithError(err).Error("planning run failed", "run_id", r.result.RunID)
}
