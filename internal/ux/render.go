package ux

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/epicbreaker/internal/plan"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// renderKnown renders the structured result types the CLI emits. It reports
// false for anything it does not recognize.
func renderKnown(data interface{}, noColor bool) (string, bool) {
	switch v := data.(type) {
	case *plan.PlanningResult:
		return renderPlanningResult(v, noColor), true
	case *plan.GapAnalysis:
		return renderGapAnalysis(v, noColor), true
	default:
		return "", false
	}
}

func style(s lipgloss.Style, text string, noColor bool) string {
	if noColor {
		return text
	}
	return s.Render(text)
}

func renderPlanningResult(result *plan.PlanningResult, noColor bool) string {
	var b strings.Builder

	status := style(successStyle, "completed", noColor)
	if !result.Success {
		status = style(failureStyle, "failed", noColor)
	}
	fmt.Fprintf(&b, "%s %s (%s)\n",
		style(titleStyle, "Planning run", noColor), status, result.Elapsed.Round(1e7))
	fmt.Fprintf(&b, "  Epic: %s  Run: %s\n", result.EpicID, result.RunID)

	taskCount := 0
	for _, story := range result.Stories {
		taskCount += len(story.Tasks)
	}
	fmt.Fprintf(&b, "  Stories planned: %d  Tasks planned: %d\n", len(result.Stories), taskCount)

	if created := result.Created[plan.CreatedStories]; len(created) > 0 {
		fmt.Fprintf(&b, "  Created stories: %s\n", strings.Join(created, ", "))
	}
	if created := result.Created[plan.CreatedTasks]; len(created) > 0 {
		fmt.Fprintf(&b, "  Created tasks: %d\n", len(created))
	}
	if result.RelationshipsCreated > 0 || len(result.RelationshipsFailed) > 0 {
		fmt.Fprintf(&b, "  Links created: %d\n", result.RelationshipsCreated)
	}

	for _, story := range result.Stories {
		key := story.Key
		if key == "" {
			key = "(not materialized)"
		}
		fmt.Fprintf(&b, "\n  %s %s\n", style(titleStyle, story.Summary, noColor), style(dimStyle, key, noColor))
		for _, task := range story.Tasks {
			fmt.Fprintf(&b, "    - %s %s\n",
				task.Summary,
				style(dimStyle, fmt.Sprintf("[%s, %.1fd]", task.Team, task.Estimate.TotalDays), noColor))
		}
	}

	writeList(&b, "Failed creations", result.FailedCreations, failureStyle, noColor)
	writeList(&b, "Failed links", result.RelationshipsFailed, failureStyle, noColor)
	writeList(&b, "Warnings", result.Warnings, warnStyle, noColor)
	writeList(&b, "Errors", result.Errors, failureStyle, noColor)

	return b.String()
}

func renderGapAnalysis(gaps *plan.GapAnalysis, noColor bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", style(titleStyle, "Gap analysis for", noColor), gaps.EpicID)
	fmt.Fprintf(&b, "  Existing stories: %d\n", len(gaps.ExistingStories))

	writeList(&b, "Missing story areas", gaps.MissingStories, warnStyle, noColor)
	writeList(&b, "Stories without tasks", gaps.IncompleteStories, warnStyle, noColor)
	writeList(&b, "Orphaned tasks", gaps.OrphanedTasks, warnStyle, noColor)

	if len(gaps.MissingStories) == 0 && len(gaps.IncompleteStories) == 0 && len(gaps.OrphanedTasks) == 0 {
		fmt.Fprintf(&b, "  %s\n", style(successStyle, "No gaps detected", noColor))
	}

	return b.String()
}

func writeList(b *strings.Builder, heading string, items []string, s lipgloss.Style, noColor bool) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n  %s:\n", style(s, heading, noColor))
	for _, item := range items {
		fmt.Fprintf(b, "    - %s\n", item)
	}
}
