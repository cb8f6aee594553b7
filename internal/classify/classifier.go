// Package classify selects a story archetype from story text.
// Classification is deterministic: a fixed priority-ordered keyword scan
// where the first matching archetype wins.
package classify

import (
	"strings"

	"github.com/felixgeelhaar/epicbreaker/internal/domain"
	"github.com/felixgeelhaar/epicbreaker/internal/plan"
)

// archetypeKeywords pairs an archetype with its indicative keywords.
type archetypeKeywords struct {
	archetype domain.Archetype
	keywords  []string
}

// rules is scanned in order; first match wins. Data-processing keywords are
// checked before generic API keywords so a data-pipeline story is not
// misclassified as a pure API story. Reporting precedes UI for the same
// reason: a dashboard story is reporting work even though it has screens.
var rules = []archetypeKeywords{
	{domain.ArchetypeData, []string{
		"etl", "pipeline", "data processing", "database", "schema", "migration",
		"import", "export", "ingestion", "warehouse",
	}},
	{domain.ArchetypeReporting, []string{
		"report", "dashboard", "analytics", "chart", "visualization", "export to csv",
	}},
	{domain.ArchetypeIntegration, []string{
		"integration", "webhook", "third-party", "third party", "external service",
		"sync", "connector",
	}},
	{domain.ArchetypeConfiguration, []string{
		"configuration", "config", "settings", "feature flag", "toggle", "preference",
	}},
	{domain.ArchetypeAdmin, []string{
		"admin", "administration", "role management", "permission", "moderation",
	}},
	{domain.ArchetypeAPI, []string{
		"api", "endpoint", "rest", "graphql", "grpc", "service interface",
	}},
	{domain.ArchetypeUI, []string{
		"ui", "screen", "page", "form", "component", "frontend", "user interface",
		"layout", "responsive",
	}},
}

// Classify inspects a story's summary and description and returns its
// dominant archetype. Total function: the generic user-workflow archetype is
// returned when nothing matches.
func Classify(story *plan.StoryPlan) domain.Archetype {
	return ClassifyText(story.Summary + " " + story.Description)
}

// ClassifyText classifies raw story text.
func ClassifyText(text string) domain.Archetype {
	lowered := strings.ToLower(text)

	for _, rule := range rules {
		for _, keyword := range rule.keywords {
			if containsWord(lowered, keyword) {
				return rule.archetype
			}
		}
	}

	return domain.ArchetypeWorkflow
}

// containsWord matches a keyword on word boundaries, so "api" does not match
// "capitalize" and "ui" does not match "build".
func containsWord(text, word string) bool {
	start := 0
	for {
		idx := strings.Index(text[start:], word)
		if idx == -1 {
			return false
		}
		idx += start
		end := idx + len(word)
		beforeOK := idx == 0 || !isWordChar(text[idx-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		start = idx + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
