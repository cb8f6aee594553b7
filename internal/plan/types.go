// Package plan defines the in-memory planning model: story and task plans,
// cycle-time estimates, gap analyses, and the result of an orchestration run.
//
// Story and task plans are created in memory, enriched in place through the
// pipeline stages, and only acquire a durable tracker key during
// materialization. They are never reused across runs.
package plan

import (
	"time"

	"github.com/felixgeelhaar/epicbreaker/internal/domain"
)

// Epic identifies the tracker epic being planned and its linked source
// documents. Immutable from the pipeline's perspective.
type Epic struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`

	// RequirementsDocURL and DesignDocURL point at the long-form source
	// documents in the document store. Either may be empty.
	RequirementsDocURL string `json:"requirements_doc_url,omitempty"`
	DesignDocURL       string `json:"design_doc_url,omitempty"`
}

// AcceptanceCriterion is one Given/When/Then triple on a story.
type AcceptanceCriterion struct {
	Given string `json:"given"`
	When  string `json:"when"`
	Then  string `json:"then"`
}

// StoryPlan is a story to be materialized under an epic. Key is empty until
// materialization assigns the tracker identifier.
type StoryPlan struct {
	Key                string                `json:"key,omitempty"`
	Summary            string                `json:"summary"`
	Description        string                `json:"description"`
	AcceptanceCriteria []AcceptanceCriterion `json:"acceptance_criteria,omitempty"`
	Tasks              []*TaskPlan           `json:"tasks,omitempty"`
	EpicID             string                `json:"epic_id"`
	Priority           domain.Priority       `json:"priority"`
}

// ScopeComplexity is the coarse complexity tier of a scope.
type ScopeComplexity string

const (
	ComplexityLow    ScopeComplexity = "low"
	ComplexityMedium ScopeComplexity = "medium"
	ComplexityHigh   ScopeComplexity = "high"
)

// Scope is one unit of work within a task: what to build, how hard it is,
// and what it must deliver.
type Scope struct {
	Description string          `json:"description"`
	Complexity  ScopeComplexity `json:"complexity"`
	Deliverable string          `json:"deliverable"`
}

// TestCase is an embedded test case attached to a task.
type TestCase struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"` // functional, unit, integration, ui, e2e, test-plan
	Description string `json:"description"`
}

// TaskSource records which path produced a task. Oracle-produced tasks are
// exempt from cycle-time splitting: the oracle is contracted, via its
// prompt, to already respect the budget.
type TaskSource string

const (
	SourceOracle   TaskSource = "oracle"
	SourceTemplate TaskSource = "template"
)

// TaskPlan is a single team-assigned unit of work under a story.
//
// ID is the stable per-run identifier assigned at creation; it is the only
// join key dependency resolution and link materialization use. Summaries may
// be edited by a human reviewer before materialization, so no bookkeeping
// keys off them.
type TaskPlan struct {
	ID      domain.TaskID `json:"id"`
	Summary string        `json:"summary"`
	Purpose string        `json:"purpose"`

	Scopes           []Scope  `json:"scopes"`
	ExpectedOutcomes []string `json:"expected_outcomes,omitempty"`

	Team     domain.Team       `json:"team"`
	Estimate CycleTimeEstimate `json:"estimate"`

	TestCases []TestCase `json:"test_cases,omitempty"`

	// DependsOn holds unresolved references (oracle-emitted summary text or
	// legacy positional tokens) until the dependency resolver rewrites the
	// ones it can match into stable task IDs.
	DependsOn []string `json:"depends_on,omitempty"`

	// BlockedByTeams is the set of teams whose completion gates this task.
	BlockedByTeams []domain.Team `json:"blocked_by_teams,omitempty"`

	StoryID string `json:"story_id,omitempty"`
	EpicID  string `json:"epic_id,omitempty"`

	// Key is the tracker identifier, empty until materialized.
	Key string `json:"key,omitempty"`

	Source TaskSource `json:"source"`
}

// CycleTimeEstimate is a four-phase duration estimate in days.
// Invariant: TotalDays always equals the sum of the four phases; use
// NewCycleTimeEstimate or Recalculate after mutating a phase.
type CycleTimeEstimate struct {
	DevelopmentDays float64 `json:"development_days"`
	TestingDays     float64 `json:"testing_days"`
	ReviewDays      float64 `json:"review_days"`
	DeploymentDays  float64 `json:"deployment_days"`
	TotalDays       float64 `json:"total_days"`

	// Confidence is a fraction in [0,1].
	Confidence float64 `json:"confidence"`

	// ExceedsLimit is set relative to the caller-supplied cycle budget.
	ExceedsLimit bool `json:"exceeds_limit"`
}

// NewCycleTimeEstimate builds an estimate, computing the total and the
// exceeds-limit flag against maxCycleDays.
func NewCycleTimeEstimate(dev, test, review, deploy, confidence, maxCycleDays float64) CycleTimeEstimate {
	e := CycleTimeEstimate{
		DevelopmentDays: dev,
		TestingDays:     test,
		ReviewDays:      review,
		DeploymentDays:  deploy,
		Confidence:      confidence,
	}
	e.Recalculate(maxCycleDays)
	return e
}

// Recalculate restores the additivity invariant and refreshes ExceedsLimit
// against the given budget.
func (e *CycleTimeEstimate) Recalculate(maxCycleDays float64) {
	e.TotalDays = e.DevelopmentDays + e.TestingDays + e.ReviewDays + e.DeploymentDays
	e.ExceedsLimit = maxCycleDays > 0 && e.TotalDays > maxCycleDays
}

// DependencyEdge is a directed blocking relation between two tasks in the
// same run: BlockingID must complete before DependentID starts.
type DependencyEdge struct {
	BlockingID  domain.TaskID `json:"blocking_id"`
	DependentID domain.TaskID `json:"dependent_id"`
}

// GapAnalysis is the derived comparison of an epic's existing story/task
// graph against the requirement text in its source documents. Recomputed
// per run, never mutated in place.
type GapAnalysis struct {
	EpicID string `json:"epic_id"`

	// ExistingStories holds story keys already under the epic, in tracker order.
	ExistingStories []string `json:"existing_stories"`

	// MissingStories holds free-text area names ("User Authentication")
	// whose keywords appear in the requirements but match no story title.
	MissingStories []string `json:"missing_stories"`

	// IncompleteStories holds keys of stories that have no tasks.
	IncompleteStories []string `json:"incomplete_stories"`

	// OrphanedTasks holds keys of tasks under the epic with no story parent.
	OrphanedTasks []string `json:"orphaned_tasks"`

	// RequirementExcerpts and DesignExcerpts are the requirement strings
	// pulled from the two source documents.
	RequirementExcerpts []string `json:"requirement_excerpts,omitempty"`
	DesignExcerpts      []string `json:"design_excerpts,omitempty"`
}

// CoverageLevel controls how many test cases the synthesizer asks for
// per task.
type CoverageLevel string

const (
	CoverageMinimal       CoverageLevel = "minimal"
	CoverageBasic         CoverageLevel = "basic"
	CoverageStandard      CoverageLevel = "standard"
	CoverageComprehensive CoverageLevel = "comprehensive"
)

// TestCaseCount returns the per-task test-case target for the level.
func (c CoverageLevel) TestCaseCount() int {
	switch c {
	case CoverageMinimal:
		return 2
	case CoverageBasic:
		return 3
	case CoverageComprehensive:
		return 6
	default:
		return 4 // standard
	}
}

// Created-item kinds in PlanningResult.Created.
const (
	CreatedStories = "stories"
	CreatedTasks   = "tasks"
)

// PlanningResult is the read-only record of one orchestration run.
// Success means the pipeline completed, not that every artifact
// materialized; callers inspect FailedCreations and RelationshipsFailed.
type PlanningResult struct {
	RunID  string `json:"run_id"`
	EpicID string `json:"epic_id"`

	Success bool `json:"success"`

	// Created maps item kind (stories, tasks) to tracker keys created in
	// phase 1, in creation order.
	Created map[string][]string `json:"created"`

	Gaps    *GapAnalysis `json:"gaps,omitempty"`
	Stories []*StoryPlan `json:"stories,omitempty"`

	// Edges are the dependency edges resolved for this run.
	Edges []DependencyEdge `json:"edges,omitempty"`

	// FailedCreations records per-item phase-1 failures ("story <summary>:
	// <reason>"). RelationshipsFailed records skipped or failed phase-2
	// links. RelationshipsCreated counts successful links.
	FailedCreations      []string `json:"failed_creations,omitempty"`
	RelationshipsCreated int      `json:"relationships_created"`
	RelationshipsFailed  []string `json:"relationships_failed,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`

	Elapsed time.Duration `json:"elapsed"`
}
