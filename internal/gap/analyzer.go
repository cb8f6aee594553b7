// Package gap compares an epic's existing story/task graph in the tracker
// against the requirement text in its source documents and reports what is
// missing.
package gap

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/epicbreaker/internal/docstore"
	"github.com/felixgeelhaar/epicbreaker/internal/errors"
	"github.com/felixgeelhaar/epicbreaker/internal/log"
	"github.com/felixgeelhaar/epicbreaker/internal/plan"
	"github.com/felixgeelhaar/epicbreaker/internal/tracker"
)

// StoryArea pairs a requirement keyword with the story area it indicates.
type StoryArea struct {
	Keyword string
	Area    string
}

// StoryAreas is the keyword table driving missing-story detection. An area
// is missing when its keyword appears in the combined requirement text and
// no existing story title contains it. The table is a fixed value, exported
// so a caller can substitute its own via Analyzer.Areas; there is no config
// surface for it. This is a coarse lexical heuristic, not semantic gap
// detection.
var StoryAreas = []StoryArea{
	{Keyword: "authentication", Area: "User Authentication"},
	{Keyword: "authorization", Area: "Access Control"},
	{Keyword: "api", Area: "API Endpoints"},
	{Keyword: "database", Area: "Data Storage"},
	{Keyword: "ui", Area: "User Interface"},
	{Keyword: "testing", Area: "Test Coverage"},
	{Keyword: "deployment", Area: "Deployment Pipeline"},
	{Keyword: "monitoring", Area: "Monitoring and Alerting"},
	{Keyword: "security", Area: "Security Hardening"},
	{Keyword: "performance", Area: "Performance Optimization"},
}

// Section priorities for pulling requirement strings out of each source
// document.
var (
	requirementSectionPriorities = []string{"requirements", "functional", "scope", "overview"}
	designSectionPriorities      = []string{"technical", "architecture", "design", "overview"}
)

const maxSearchResults = 100

// Analyzer builds a GapAnalysis for an epic.
type Analyzer struct {
	tracker tracker.Client
	docs    docstore.Client
	logger  *log.Logger

	// Areas defaults to StoryAreas.
	Areas []StoryArea
}

// New creates an Analyzer. The docstore client may be nil when the epic has
// no linked documents.
func New(tc tracker.Client, docs docstore.Client, logger *log.Logger) *Analyzer {
	return &Analyzer{tracker: tc, docs: docs, logger: logger, Areas: StoryAreas}
}

// Analyze queries the tracker and source documents and returns the epic's
// gap analysis. A tracker connection failure is fatal; missing documents or
// sections degrade to absent excerpts.
func (a *Analyzer) Analyze(ctx context.Context, epic *plan.Epic) (*plan.GapAnalysis, []string, error) {
	analysis := &plan.GapAnalysis{EpicID: epic.ID}
	var warnings []string

	stories, err := a.tracker.Search(ctx, StoryQuery(epic.ID), maxSearchResults)
	if err != nil {
		return nil, nil, errors.NewTrackerUnavailableError(err)
	}

	storyKeys := make(map[string]bool, len(stories))
	for _, story := range stories {
		analysis.ExistingStories = append(analysis.ExistingStories, story.Key)
		storyKeys[story.Key] = true
	}

	// Tasks under each story: the explicit parent link first, then the
	// secondary "split" relation for tasks not structurally parented.
	for _, story := range stories {
		tasks, err := a.tasksForStory(ctx, story.Key)
		if err != nil {
			return nil, nil, errors.NewTrackerUnavailableError(err)
		}
		if len(tasks) == 0 {
			analysis.IncompleteStories = append(analysis.IncompleteStories, story.Key)
		}
	}

	// Tasks under the epic with no story parent are orphaned.
	epicTasks, err := a.tracker.Search(ctx, TaskQuery(epic.ID), maxSearchResults)
	if err != nil {
		return nil, nil, errors.NewTrackerUnavailableError(err)
	}
	for _, task := range epicTasks {
		if task.ParentKey == "" || !storyKeys[task.ParentKey] {
			analysis.OrphanedTasks = append(analysis.OrphanedTasks, task.Key)
		}
	}

	analysis.RequirementExcerpts, warnings = a.extract(ctx, epic.RequirementsDocURL, requirementSectionPriorities, warnings)
	analysis.DesignExcerpts, warnings = a.extract(ctx, epic.DesignDocURL, designSectionPriorities, warnings)

	analysis.MissingStories = a.missingAreas(analysis, stories)

	a.logger.Debug("gap analysis complete",
		"epic", epic.ID,
		"existing_stories", len(analysis.ExistingStories),
		"missing_stories", len(analysis.MissingStories),
		"incomplete_stories", len(analysis.IncompleteStories),
		"orphaned_tasks", len(analysis.OrphanedTasks))

	return analysis, warnings, nil
}

// tasksForStory returns the story's tasks across both parent shapes,
// de-duplicated by key.
func (a *Analyzer) tasksForStory(ctx context.Context, storyKey string) ([]tracker.Issue, error) {
	parented, err := a.tracker.Search(ctx, ChildTaskQuery(storyKey), maxSearchResults)
	if err != nil {
		return nil, err
	}
	split, err := a.tracker.Search(ctx, SplitTaskQuery(storyKey), maxSearchResults)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(parented))
	tasks := make([]tracker.Issue, 0, len(parented)+len(split))
	for _, task := range append(parented, split...) {
		if seen[task.Key] {
			continue
		}
		seen[task.Key] = true
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// extract pulls one prioritized section from a document, degrading to no
// excerpt with a warning when the document or section is unavailable.
func (a *Analyzer) extract(ctx context.Context, url string, priorities []string, warnings []string) ([]string, []string) {
	if url == "" || a.docs == nil {
		return nil, warnings
	}

	sections, err := a.docs.GetSections(ctx, url)
	if err != nil {
		return nil, append(warnings, fmt.Sprintf("source document %s unavailable: %v", url, err))
	}

	text, found := docstore.SelectSection(sections, priorities)
	if !found {
		return nil, append(warnings, fmt.Sprintf("no prioritized section found in %s", url))
	}

	return requirementLines(text), warnings
}

// requirementLines splits a section into individual requirement strings:
// bullet items where present, sentences otherwise.
func requirementLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if trimmed, ok := strings.CutPrefix(line, "- "); ok {
			lines = append(lines, strings.TrimSpace(trimmed))
		}
	}
	if len(lines) > 0 {
		return lines
	}

	for _, sentence := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		sentence = strings.TrimSpace(sentence)
		if sentence != "" {
			lines = append(lines, sentence)
		}
	}
	return lines
}

// missingAreas applies the keyword table: an area is missing when its
// keyword occurs in the requirement text but in no existing story title.
func (a *Analyzer) missingAreas(analysis *plan.GapAnalysis, stories []tracker.Issue) []string {
	combined := strings.ToLower(strings.Join(analysis.RequirementExcerpts, " ") +
		" " + strings.Join(analysis.DesignExcerpts, " "))

	var missing []string
	for _, area := range a.Areas {
		if !containsWord(combined, area.Keyword) {
			continue
		}
		covered := false
		for _, story := range stories {
			if containsWord(strings.ToLower(story.Summary), area.Keyword) {
				covered = true
				break
			}
		}
		if !covered {
			missing = append(missing, area.Area)
		}
	}
	return missing
}

// containsWord matches a keyword on word boundaries, so "ui" does not match
// "build" or "quick".
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

// Query builders for the tracker's search surface.

// StoryQuery selects the stories under an epic.
func StoryQuery(epicID string) string {
	return fmt.Sprintf(`parent = %q AND issuetype = Story ORDER BY created ASC`, epicID)
}

// TaskQuery selects every task under an epic regardless of story parent.
func TaskQuery(epicID string) string {
	return fmt.Sprintf(`"Epic Link" = %q AND issuetype = Task`, epicID)
}

// ChildTaskQuery selects tasks structurally parented under a story.
func ChildTaskQuery(storyKey string) string {
	return fmt.Sprintf(`parent = %q AND issuetype = Task`, storyKey)
}

// SplitTaskQuery selects tasks attached to a story through the split
// relation instead of a parent link.
func SplitTaskQuery(storyKey string) string {
	return fmt.Sprintf(`issue in linkedIssues(%q, %q) AND issuetype = Task`, storyKey, tracker.LinkSplit)
}
