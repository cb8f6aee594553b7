// Package coverage guarantees that every story's task list spans the teams
// its archetype requires, filling holes with minimal placeholder tasks.
package coverage

import (
	"fmt"

	"github.com/felixgeelhaar/epicbreaker/internal/domain"
	"github.com/felixgeelhaar/epicbreaker/internal/estimate"
	"github.com/felixgeelhaar/epicbreaker/internal/log"
	"github.com/felixgeelhaar/epicbreaker/internal/plan"
	"github.com/felixgeelhaar/epicbreaker/internal/synth"
)

// Enforcer adds placeholder tasks for teams an archetype requires but the
// synthesized task list missed.
type Enforcer struct {
	estimator *estimate.Estimator
	logger    *log.Logger
}

// New creates an Enforcer sharing the pipeline's estimator.
func New(est *estimate.Estimator, logger *log.Logger) *Enforcer {
	return &Enforcer{estimator: est, logger: logger}
}

// Ensure returns the task list extended with one placeholder task per
// missing required team, plus a warning per addition. Tasks already
// covering a required team are left untouched, so a second call over the
// result is a no-op.
func (e *Enforcer) Ensure(story *plan.StoryPlan, archetype domain.Archetype, tasks []*plan.TaskPlan) ([]*plan.TaskPlan, []string) {
	covered := make(map[domain.Team]bool, len(tasks))
	for _, task := range tasks {
		covered[task.Team] = true
		if task.Team == domain.TeamFullstack {
			// A fullstack task satisfies both sides of the stack.
			covered[domain.TeamBackend] = true
			covered[domain.TeamFrontend] = true
		}
	}

	var warnings []string
	for _, team := range archetype.RequiredTeams() {
		if covered[team] {
			continue
		}

		task := e.placeholder(story, team)
		tasks = append(tasks, task)
		covered[team] = true
		warnings = append(warnings, fmt.Sprintf(
			"story %q had no %s task; added placeholder %q", story.Summary, team, task.Summary))

		e.logger.Debug("added coverage placeholder",
			"story", story.Summary, "team", team.String(), "task", task.Summary)
	}

	return tasks, warnings
}

func (e *Enforcer) placeholder(story *plan.StoryPlan, team domain.Team) *plan.TaskPlan {
	var purpose string
	var scope plan.Scope
	switch team {
	case domain.TeamBackend:
		purpose = "Provide the server-side work the story requires"
		scope = plan.Scope{
			Description: "Service endpoints and domain logic",
			Complexity:  plan.ComplexityMedium,
			Deliverable: "Working server-side implementation",
		}
	case domain.TeamFrontend:
		purpose = "Give users an interface for the story"
		scope = plan.Scope{
			Description: "Screens wired to the supporting services",
			Complexity:  plan.ComplexityMedium,
			Deliverable: "Rendered user-facing flows",
		}
	case domain.TeamQA:
		purpose = "Exercise the story against its acceptance criteria"
		scope = plan.Scope{
			Description: "Test plan and execution across the story",
			Complexity:  plan.ComplexityLow,
			Deliverable: "Executed test report",
		}
	case domain.TeamDevOps:
		purpose = "Make the story's services deployable"
		scope = plan.Scope{
			Description: "Pipeline and environment updates",
			Complexity:  plan.ComplexityLow,
			Deliverable: "Deployable services",
		}
	default:
		purpose = "Cover the story across the stack"
		scope = plan.Scope{
			Description: "Cross-stack implementation work",
			Complexity:  plan.ComplexityMedium,
			Deliverable: "Working end-to-end slice",
		}
	}

	scopes := []plan.Scope{scope}
	return &plan.TaskPlan{
		ID:               domain.NewTaskID(),
		Summary:          fmt.Sprintf("%s %s for %s", team.Prefix(), placeholderVerb(team), story.Summary),
		Purpose:          purpose,
		Scopes:           scopes,
		ExpectedOutcomes: []string{fmt.Sprintf("%s for %q", purpose, story.Summary)},
		Team:             team,
		Estimate:         e.estimator.EstimateScopes(team, scopes),
		TestCases:        synth.PlaceholderTestCases(team, story.Summary),
		StoryID:          story.Key,
		EpicID:           story.EpicID,
		Source:           plan.SourceTemplate,
	}
}

func placeholderVerb(team domain.Team) string {
	switch team {
	case domain.TeamFrontend:
		return "Build user-facing flows"
	case domain.TeamQA:
		return "Verify acceptance criteria"
	case domain.TeamDevOps:
		return "Provision and deploy changes"
	default:
		return "Implement supporting services"
	}
}
