// Package split decomposes tasks whose cycle-time estimate exceeds the
// configured budget into smaller units that fit it.
package split

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/felixgeelhaar/epicbreaker/internal/domain"
	"github.com/felixgeelhaar/epicbreaker/internal/estimate"
	"github.com/felixgeelhaar/epicbreaker/internal/log"
	"github.com/felixgeelhaar/epicbreaker/internal/plan"
)

// Reference totals for the generic design/implementation phase split. Both
// are clamped to the budget when it is tighter.
const (
	designPhaseDays         = 1.5
	implementationPhaseDays = 3.0
)

// Splitter enforces the cycle-time budget over a task list.
type Splitter struct {
	estimator    *estimate.Estimator
	maxCycleDays float64
	logger       *log.Logger
}

// New creates a Splitter for the given budget.
func New(est *estimate.Estimator, maxCycleDays float64, logger *log.Logger) *Splitter {
	return &Splitter{estimator: est, maxCycleDays: maxCycleDays, logger: logger}
}

// Split returns the task list with every over-budget template task replaced
// by in-budget sub-tasks. Oracle-generated tasks pass through untouched;
// their prompt already carries the budget. Ordering of unaffected tasks is
// preserved, and sub-tasks take their parent's position.
func (s *Splitter) Split(tasks []*plan.TaskPlan) []*plan.TaskPlan {
	out := make([]*plan.TaskPlan, 0, len(tasks))

	queue := make([]*plan.TaskPlan, len(tasks))
	copy(queue, tasks)

	for len(queue) > 0 {
		task := queue[0]
		queue = queue[1:]

		if task.Source == plan.SourceOracle || task.Estimate.TotalDays <= s.maxCycleDays {
			out = append(out, task)
			continue
		}

		var children []*plan.TaskPlan
		if len(task.Scopes) > 1 {
			children = s.splitByScope(task)
		} else {
			children = s.splitByPhase(task)
		}

		s.logger.Debug("split over-budget task",
			"task", task.Summary, "total_days", task.Estimate.TotalDays, "children", len(children))

		// Scope-derived children carry estimator-produced estimates and can
		// still exceed the budget; requeue so they get the phase split.
		queue = append(children, queue...)
	}

	return out
}

// splitByScope produces one child per scope, each re-estimated on its own.
func (s *Splitter) splitByScope(task *plan.TaskPlan) []*plan.TaskPlan {
	children := make([]*plan.TaskPlan, 0, len(task.Scopes))
	for _, scope := range task.Scopes {
		scopes := []plan.Scope{scope}
		child := s.child(task, scopes)
		child.Summary = fmt.Sprintf("%s - %s", task.Summary, scopeLabel(scope))
		child.Estimate = s.estimator.EstimateScopes(task.Team, scopes)
		children = append(children, child)
	}
	return children
}

// splitByPhase replaces a single-scope task with a design phase and an
// implementation phase that depends on it.
func (s *Splitter) splitByPhase(task *plan.TaskPlan) []*plan.TaskPlan {
	scope := task.Scopes[0]

	design := s.child(task, []plan.Scope{{
		Description: fmt.Sprintf("Design and technical approach for %s", scope.Description),
		Complexity:  plan.ComplexityLow,
		Deliverable: "Reviewed technical design",
	}})
	design.Summary = task.Summary + " - Design"
	design.Estimate = phaseEstimate(math.Min(designPhaseDays, s.maxCycleDays), 0.85, s.maxCycleDays)
	design.DependsOn = nil

	implementation := s.child(task, []plan.Scope{scope})
	implementation.Summary = task.Summary + " - Implementation"
	implementation.Estimate = phaseEstimate(math.Min(implementationPhaseDays, s.maxCycleDays), 0.75, s.maxCycleDays)
	implementation.DependsOn = append(implementation.DependsOn, string(design.ID))

	return []*plan.TaskPlan{design, implementation}
}

// child copies the parent's non-estimate fields onto a fresh task with its
// own stable identifier.
func (s *Splitter) child(task *plan.TaskPlan, scopes []plan.Scope) *plan.TaskPlan {
	dependsOn := make([]string, len(task.DependsOn))
	copy(dependsOn, task.DependsOn)
	blockedBy := make([]domain.Team, len(task.BlockedByTeams))
	copy(blockedBy, task.BlockedByTeams)
	testCases := make([]plan.TestCase, len(task.TestCases))
	copy(testCases, task.TestCases)
	outcomes := make([]string, len(task.ExpectedOutcomes))
	copy(outcomes, task.ExpectedOutcomes)

	return &plan.TaskPlan{
		ID:               domain.NewTaskID(),
		Purpose:          task.Purpose,
		Scopes:           scopes,
		ExpectedOutcomes: outcomes,
		Team:             task.Team,
		TestCases:        testCases,
		DependsOn:        dependsOn,
		BlockedByTeams:   blockedBy,
		StoryID:          task.StoryID,
		EpicID:           task.EpicID,
		Source:           task.Source,
	}
}

// phaseEstimate spreads a target total across the four phases with a fixed
// development-heavy profile.
func phaseEstimate(target, confidence, maxCycleDays float64) plan.CycleTimeEstimate {
	return plan.NewCycleTimeEstimate(
		target*0.6,
		target*0.25,
		target*0.1,
		target*0.05,
		confidence,
		maxCycleDays,
	)
}

// scopeLabel shortens a scope description into a summary suffix.
func scopeLabel(scope plan.Scope) string {
	const maxLabel = 48

	label := strings.TrimSpace(scope.Description)
	if len(label) <= maxLabel {
		return label
	}

	// Back up to a rune boundary so multi-byte text is never cut mid-rune.
	end := maxLabel
	for end > 0 && !utf8.RuneStart(label[end]) {
		end--
	}
	if idx := strings.LastIndex(label[:end], " "); idx > 0 {
		return label[:idx]
	}
	return label[:end]
}
