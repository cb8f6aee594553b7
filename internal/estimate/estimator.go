// Package estimate computes four-phase cycle-time estimates for tasks.
// Estimation is a pure function of team and scope text.
package estimate

import (
	"strings"

	"github.com/felixgeelhaar/epicbreaker/internal/domain"
	"github.com/felixgeelhaar/epicbreaker/internal/plan"
)

// phaseDays holds the per-team base day counts for each phase.
type phaseDays struct {
	dev    float64
	test   float64
	review float64
	deploy float64
}

// Each team weights its dominant phase highest: Backend and Fullstack on
// development, QA on testing, DevOps on deployment.
var teamBaseDays = map[domain.Team]phaseDays{
	domain.TeamBackend:   {dev: 3.0, test: 1.0, review: 0.5, deploy: 0.5},
	domain.TeamFrontend:  {dev: 2.5, test: 1.0, review: 0.5, deploy: 0.25},
	domain.TeamQA:        {dev: 0.5, test: 3.0, review: 0.5, deploy: 0.25},
	domain.TeamDevOps:    {dev: 1.5, test: 1.0, review: 0.5, deploy: 1.5},
	domain.TeamFullstack: {dev: 3.0, test: 1.5, review: 0.5, deploy: 0.5},
}

// Scope-text signals for the complexity multiplier.
var (
	complexSignals = []string{"integration", "external", "complex", "migration", "distributed", "third-party"}
	simpleSignals  = []string{"simple", "basic", "minimal", "trivial", "placeholder"}
)

// Multipliers applied to development and testing; review and deployment stay
// fixed per team.
const (
	complexMultiplier = 1.3
	simpleMultiplier  = 0.7

	baseConfidence    = 0.75
	complexConfidence = 0.6
	simpleConfidence  = 0.85
)

// Estimator produces cycle-time estimates relative to a cycle budget.
type Estimator struct {
	maxCycleDays float64
}

// New creates an Estimator bound to the given per-task cycle budget in days.
func New(maxCycleDays float64) *Estimator {
	return &Estimator{maxCycleDays: maxCycleDays}
}

// MaxCycleDays returns the budget the estimator flags against.
func (e *Estimator) MaxCycleDays() float64 {
	return e.maxCycleDays
}

// Estimate returns a four-phase estimate for the given team and scope text.
// It always returns a value; unknown teams fall back to Fullstack weights.
func (e *Estimator) Estimate(team domain.Team, scopeText string) plan.CycleTimeEstimate {
	base, ok := teamBaseDays[team]
	if !ok {
		base = teamBaseDays[domain.TeamFullstack]
	}

	multiplier, confidence := classifyScope(scopeText)

	return plan.NewCycleTimeEstimate(
		base.dev*multiplier,
		base.test*multiplier,
		base.review,
		base.deploy,
		confidence,
		e.maxCycleDays,
	)
}

// EstimateScopes estimates against the concatenated descriptions of a
// task's scopes.
func (e *Estimator) EstimateScopes(team domain.Team, scopes []plan.Scope) plan.CycleTimeEstimate {
	var b strings.Builder
	for i, scope := range scopes {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(scope.Description)
	}
	return e.Estimate(team, b.String())
}

func classifyScope(scopeText string) (multiplier, confidence float64) {
	text := strings.ToLower(scopeText)

	for _, signal := range complexSignals {
		if strings.Contains(text, signal) {
			return complexMultiplier, complexConfidence
		}
	}
	for _, signal := range simpleSignals {
		if strings.Contains(text, signal) {
			return simpleMultiplier, simpleConfidence
		}
	}
	return 1.0, baseConfidence
}
