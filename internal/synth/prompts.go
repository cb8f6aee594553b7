package synth

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/felixgeelhaar/epicbreaker/internal/docstore"
	"github.com/felixgeelhaar/epicbreaker/internal/domain"
	"github.com/felixgeelhaar/epicbreaker/internal/plan"
)

// Character budgets keeping the prompt bounded regardless of document size.
const (
	excerptCharBudget = 1200
	maxExcerpts       = 3
)

// DocContext carries the sectioned source documents available to prompt
// construction. Either map may be nil when a document is missing; the prompt
// degrades gracefully.
type DocContext struct {
	RequirementSections map[string]string
	DesignSections      map[string]string
}

// Per-archetype section priorities: which document sections matter most for
// this kind of story. An API story prioritizes technical and API sections;
// a UI story prioritizes flow and mockup sections.
var sectionPriorities = map[domain.Archetype][]string{
	domain.ArchetypeAPI:           {"api", "technical", "endpoints", "requirements"},
	domain.ArchetypeUI:            {"flow", "mockup", "wireframe", "user interface", "requirements"},
	domain.ArchetypeData:          {"data", "schema", "technical", "requirements"},
	domain.ArchetypeIntegration:   {"integration", "external", "technical", "requirements"},
	domain.ArchetypeAdmin:         {"admin", "roles", "permissions", "requirements"},
	domain.ArchetypeWorkflow:      {"flow", "requirements", "overview"},
	domain.ArchetypeConfiguration: {"configuration", "settings", "technical", "requirements"},
	domain.ArchetypeReporting:     {"reporting", "metrics", "data", "requirements"},
}

// SchemaHint is the shape description handed to the oracle alongside every
// synthesis prompt.
const SchemaHint = "JSON array of task objects with fields: team, summary, purpose, " +
	"scopes (array of {description, complexity, deliverable}), expected_outcomes, " +
	"test_cases (array of {name, kind, description}), depends_on_tasks, blocked_by_teams"

// BuildPrompt assembles the synthesis prompt for one story.
func BuildPrompt(story *plan.StoryPlan, archetype domain.Archetype, maxCycleDays float64, testCount int, docs DocContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Decompose the following %s story into implementation tasks for delivery teams.\n\n", archetype)
	fmt.Fprintf(&b, "Story: %s\n", story.Summary)
	if story.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", story.Description)
	}

	if len(story.AcceptanceCriteria) > 0 {
		b.WriteString("\nAcceptance criteria:\n")
		for _, ac := range story.AcceptanceCriteria {
			fmt.Fprintf(&b, "- Given %s, when %s, then %s\n", ac.Given, ac.When, ac.Then)
		}
	}

	for _, excerpt := range selectExcerpts(archetype, docs) {
		fmt.Fprintf(&b, "\nContext from source documents:\n%s\n", excerpt)
	}

	b.WriteString("\nRules:\n")
	fmt.Fprintf(&b, "- Assign each task to exactly one team: Backend, Frontend, QA, DevOps, or Fullstack.\n")
	fmt.Fprintf(&b, "- Every task must be completable within %.1f days of total cycle time (development + testing + review + deployment). Split larger work into multiple tasks.\n", maxCycleDays)
	fmt.Fprintf(&b, "- Include %d test cases per task.\n", testCount)
	b.WriteString("- Reference dependencies between tasks by the exact summary of the blocking task in depends_on_tasks.\n")
	b.WriteString("- List teams whose completion gates a task in blocked_by_teams.\n")
	b.WriteString("\nRespond with ONLY a JSON array of task objects. No markdown, no explanations.\n")
	fmt.Fprintf(&b, "Each object: {\"team\": \"Backend\", \"summary\": \"...\", \"purpose\": \"...\", "+
		"\"scopes\": [{\"description\": \"...\", \"complexity\": \"low|medium|high\", \"deliverable\": \"...\"}], "+
		"\"expected_outcomes\": [\"...\"], \"test_cases\": [{\"name\": \"...\", \"kind\": \"...\", \"description\": \"...\"}], "+
		"\"depends_on_tasks\": [\"...\"], \"blocked_by_teams\": [\"...\"]}\n")

	return b.String()
}

// selectExcerpts picks the archetype's priority sections from both
// documents, smart-truncated, up to maxExcerpts total.
func selectExcerpts(archetype domain.Archetype, docs DocContext) []string {
	priorities, ok := sectionPriorities[archetype]
	if !ok {
		priorities = sectionPriorities[domain.ArchetypeWorkflow]
	}

	var excerpts []string
	for _, sections := range []map[string]string{docs.RequirementSections, docs.DesignSections} {
		if sections == nil || len(excerpts) >= maxExcerpts {
			continue
		}
		if text, found := docstore.SelectSection(sections, priorities); found {
			excerpts = append(excerpts, SmartTruncate(text, excerptCharBudget))
		}
	}
	return excerpts
}

// SmartTruncate cuts text to at most budget characters, preferring a
// sentence boundary and falling back to a word boundary. Truncation is
// marked with an ellipsis.
func SmartTruncate(text string, budget int) string {
	text = strings.TrimSpace(text)
	if len(text) <= budget {
		return text
	}

	// Back the cut up to a rune boundary so multi-byte text is never split
	// mid-rune.
	for budget > 0 && !utf8.RuneStart(text[budget]) {
		budget--
	}
	cut := text[:budget]

	// Prefer the last sentence end in the budgeted window, as long as it
	// keeps a useful amount of text.
	if idx := strings.LastIndexAny(cut, ".!?"); idx > budget/2 {
		return strings.TrimSpace(cut[:idx+1])
	}

	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "..."
}
