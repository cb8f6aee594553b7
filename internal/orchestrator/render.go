package orchestrator

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/epicbreaker/internal/plan"
)

// renderStoryDescription produces the markdown-like ticket body for a
// story. The tracker client encodes it to the native rich-text format.
func renderStoryDescription(story *plan.StoryPlan) string {
	var b strings.Builder

	b.WriteString(story.Description)

	if len(story.AcceptanceCriteria) > 0 {
		b.WriteString("\n\n## Acceptance Criteria\n")
		for _, ac := range story.AcceptanceCriteria {
			fmt.Fprintf(&b, "- Given %s, when %s, then %s\n", ac.Given, ac.When, ac.Then)
		}
	}

	return b.String()
}

// renderTaskDescription produces the ticket body for a task.
func renderTaskDescription(task *plan.TaskPlan) string {
	var b strings.Builder

	b.WriteString(task.Purpose)

	b.WriteString("\n\n## Scope\n")
	for _, scope := range task.Scopes {
		fmt.Fprintf(&b, "- %s", scope.Description)
		if scope.Deliverable != "" {
			fmt.Fprintf(&b, " (deliverable: %s)", scope.Deliverable)
		}
		b.WriteString("\n")
	}

	if len(task.ExpectedOutcomes) > 0 {
		b.WriteString("\n## Expected Outcomes\n")
		for _, outcome := range task.ExpectedOutcomes {
			fmt.Fprintf(&b, "- %s\n", outcome)
		}
	}

	if len(task.TestCases) > 0 {
		b.WriteString("\n## Test Cases\n")
		for _, tc := range task.TestCases {
			fmt.Fprintf(&b, "- %s (%s): %s\n", tc.Name, tc.Kind, tc.Description)
		}
	}

	fmt.Fprintf(&b, "\n## Estimate\n- Development: %.1f days\n- Testing: %.1f days\n- Review: %.1f days\n- Deployment: %.1f days\n- Total: %.1f days (confidence %.0f%%)\n",
		task.Estimate.DevelopmentDays,
		task.Estimate.TestingDays,
		task.Estimate.ReviewDays,
		task.Estimate.DeploymentDays,
		task.Estimate.TotalDays,
		task.Estimate.Confidence*100)

	return b.String()
}
