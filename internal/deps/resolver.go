// Package deps resolves free-text dependency references between tasks into
// stable per-run task identifiers and infers structural dependencies for
// template-generated tasks.
package deps

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/epicbreaker/internal/domain"
	"github.com/felixgeelhaar/epicbreaker/internal/log"
	"github.com/felixgeelhaar/epicbreaker/internal/plan"
)

// teamPrefixPattern matches the team tag conventions found in task
// summaries and oracle-emitted references: "[BE] ", "QA:", "Backend:".
var teamPrefixPattern = regexp.MustCompile(`(?i)^\s*(\[(be|fe|qa|ops|fs)\]|(be|fe|qa|ops|fs|backend|frontend|devops|fullstack)\s*:)\s*`)

var whitespacePattern = regexp.MustCompile(`\s+`)

// summaryStopwords are ignored when computing keyword overlap between task
// summaries.
var summaryStopwords = map[string]bool{
	"a": true, "an": true, "and": true, "add": true, "build": true,
	"create": true, "for": true, "implement": true, "in": true, "of": true,
	"on": true, "or": true, "the": true, "to": true, "with": true,
	"verify": true, "new": true,
}

// Summary keywords classifying backend template tasks for the
// infrastructure-before-feature rule.
var (
	featureKeywords        = []string{"api", "endpoint", "service", "feature"}
	infrastructureKeywords = []string{"schema", "migration", "setup", "database", "provision", "infrastructure"}
)

// Resolver rewrites dependency references and infers structural edges.
type Resolver struct {
	logger *log.Logger
}

// New creates a Resolver.
func New(logger *log.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// index holds the per-run lookup tables for reference resolution. Tasks are
// joined by stable identifier only; summaries are secondary lookup keys.
type index struct {
	byID         map[string]*plan.TaskPlan
	bySummary    map[string]*plan.TaskPlan
	byNormalized map[string]*plan.TaskPlan
}

func buildIndex(stories []*plan.StoryPlan) *index {
	idx := &index{
		byID:         make(map[string]*plan.TaskPlan),
		bySummary:    make(map[string]*plan.TaskPlan),
		byNormalized: make(map[string]*plan.TaskPlan),
	}
	for _, story := range stories {
		for _, task := range story.Tasks {
			idx.byID[string(task.ID)] = task
			if _, exists := idx.bySummary[task.Summary]; !exists {
				idx.bySummary[task.Summary] = task
			}
			normalized := NormalizeSummary(task.Summary)
			if _, exists := idx.byNormalized[normalized]; !exists {
				idx.byNormalized[normalized] = task
			}
		}
	}
	return idx
}

// Resolve rewrites every resolvable depends-on reference across the run's
// stories to the blocking task's stable identifier, and adds structural
// dependencies for template-generated tasks. Unresolvable references are
// kept verbatim and returned as warnings; they never fail the run.
// Resolving an already-resolved set again is a no-op.
func (r *Resolver) Resolve(stories []*plan.StoryPlan) []string {
	idx := buildIndex(stories)

	var warnings []string
	for _, story := range stories {
		for _, task := range story.Tasks {
			warnings = append(warnings, r.resolveReferences(task, idx)...)
		}
		r.applyStructuralRules(story)
	}

	r.logger.Debug("dependency resolution finished",
		"stories", len(stories), "tasks", len(idx.byID), "unresolved", len(warnings))
	return warnings
}

// resolveReferences rewrites one task's depends-on list in place.
func (r *Resolver) resolveReferences(task *plan.TaskPlan, idx *index) []string {
	var warnings []string

	resolved := make([]string, 0, len(task.DependsOn))
	seen := make(map[string]bool, len(task.DependsOn))
	for _, ref := range task.DependsOn {
		target, ok := r.lookup(ref, idx)
		if !ok {
			warnings = append(warnings, fmt.Sprintf(
				"task %q references unknown dependency %q", task.Summary, ref))
			if !seen[ref] {
				resolved = append(resolved, ref)
				seen[ref] = true
			}
			continue
		}
		if target.ID == task.ID {
			// Self-references are dropped silently; they carry no information.
			continue
		}
		id := string(target.ID)
		if !seen[id] {
			resolved = append(resolved, id)
			seen[id] = true
		}
	}
	task.DependsOn = resolved

	return warnings
}

// lookup matches a reference by stable identifier first, then exact summary,
// then normalized summary.
func (r *Resolver) lookup(ref string, idx *index) (*plan.TaskPlan, bool) {
	if domain.IsTaskIDRef(ref) {
		task, ok := idx.byID[ref]
		return task, ok
	}
	if task, ok := idx.bySummary[strings.TrimSpace(ref)]; ok {
		return task, true
	}
	task, ok := idx.byNormalized[NormalizeSummary(ref)]
	return task, ok
}

// applyStructuralRules infers dependencies between a story's
// template-generated tasks. Oracle-generated tasks keep only what the
// oracle emitted.
func (r *Resolver) applyStructuralRules(story *plan.StoryPlan) {
	for _, task := range story.Tasks {
		if task.Source != plan.SourceTemplate {
			continue
		}

		switch task.Team {
		case domain.TeamFrontend:
			// Frontend waits on backend tasks for the same feature.
			for _, other := range story.Tasks {
				if other.Team == domain.TeamBackend && sharesKeyword(task.Summary, other.Summary) {
					r.addDependency(task, other)
				}
			}
		case domain.TeamQA:
			// Verification waits on every implementation task for the story.
			for _, other := range story.Tasks {
				if other.Team != domain.TeamQA {
					r.addDependency(task, other)
				}
			}
		case domain.TeamBackend:
			// Feature work waits on infrastructure work.
			if !containsAny(task.Summary, featureKeywords) {
				continue
			}
			for _, other := range story.Tasks {
				if other.Team == domain.TeamBackend && other.ID != task.ID &&
					containsAny(other.Summary, infrastructureKeywords) {
					r.addDependency(task, other)
				}
			}
		}
	}
}

// addDependency records blocking's identifier on dependent, plus the
// blocking team, both deduplicated.
func (r *Resolver) addDependency(dependent, blocking *plan.TaskPlan) {
	id := string(blocking.ID)
	for _, existing := range dependent.DependsOn {
		if existing == id {
			return
		}
	}
	dependent.DependsOn = append(dependent.DependsOn, id)

	for _, team := range dependent.BlockedByTeams {
		if team == blocking.Team {
			return
		}
	}
	dependent.BlockedByTeams = append(dependent.BlockedByTeams, blocking.Team)
}

// Edges collects the resolved dependency graph: one directed edge per
// depends-on entry that names a task present in this run. Unresolved
// free-text entries produce no edge.
func Edges(stories []*plan.StoryPlan) []plan.DependencyEdge {
	known := make(map[string]bool)
	for _, story := range stories {
		for _, task := range story.Tasks {
			known[string(task.ID)] = true
		}
	}

	var edges []plan.DependencyEdge
	for _, story := range stories {
		for _, task := range story.Tasks {
			for _, ref := range task.DependsOn {
				if domain.IsTaskIDRef(ref) && known[ref] {
					edges = append(edges, plan.DependencyEdge{
						BlockingID:  domain.TaskID(ref),
						DependentID: task.ID,
					})
				}
			}
		}
	}
	return edges
}

// NormalizeSummary strips the leading team tag, collapses whitespace, and
// lower-cases a summary for matching.
func NormalizeSummary(summary string) string {
	s := teamPrefixPattern.ReplaceAllString(summary, "")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// sharesKeyword reports whether two summaries share at least one keyword
// after normalization and stopword removal.
func sharesKeyword(a, b string) bool {
	aWords := keywords(a)
	if len(aWords) == 0 {
		return false
	}
	for word := range keywords(b) {
		if aWords[word] {
			return true
		}
	}
	return false
}

func keywords(summary string) map[string]bool {
	words := make(map[string]bool)
	for _, word := range strings.Fields(NormalizeSummary(summary)) {
		word = strings.Trim(word, ".,;:()\"'")
		if len(word) < 3 || summaryStopwords[word] {
			continue
		}
		words[word] = true
	}
	return words
}

func containsAny(summary string, needles []string) bool {
	lowered := strings.ToLower(summary)
	for _, needle := range needles {
		if strings.Contains(lowered, needle) {
			return true
		}
	}
	return false
}
