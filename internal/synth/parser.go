package synth

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/epicbreaker/internal/domain"
	"github.com/felixgeelhaar/epicbreaker/internal/estimate"
	"github.com/felixgeelhaar/epicbreaker/internal/plan"
)

// oracleTask mirrors the JSON object shape the oracle is prompted to emit.
type oracleTask struct {
	Team             string        `json:"team"`
	Summary          string        `json:"summary"`
	Purpose          string        `json:"purpose"`
	Scopes           []oracleScope `json:"scopes"`
	ExpectedOutcomes []string      `json:"expected_outcomes"`
	TestCases        []oracleTest  `json:"test_cases"`
	DependsOnTasks   []string      `json:"depends_on_tasks"`
	BlockedByTeams   []string      `json:"blocked_by_teams"`
}

type oracleScope struct {
	Description string `json:"description"`
	Complexity  string `json:"complexity"`
	Deliverable string `json:"deliverable"`
}

type oracleTest struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

var codeFencePattern = regexp.MustCompile("```(?:json)?\\s*\\n([\\s\\S]*?)```")

// NormalizeResponse applies the single permitted normalization pass to raw
// oracle output: strip a markdown code fence if present, then locate the
// outermost matching bracket pair. Anything beyond this is treated as
// failure, not interpreted further.
func NormalizeResponse(raw string) (string, error) {
	content := strings.TrimSpace(raw)

	if matches := codeFencePattern.FindStringSubmatch(content); len(matches) > 1 {
		content = strings.TrimSpace(matches[1])
	}

	start := strings.Index(content, "[")
	if start == -1 {
		return "", fmt.Errorf("no JSON array found in oracle response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '[':
			if !inString {
				depth++
			}
		case ']':
			if !inString {
				depth--
				if depth == 0 {
					return content[start : i+1], nil
				}
			}
		}
	}

	return "", fmt.Errorf("unbalanced JSON array in oracle response")
}

// ParseTasks converts a raw oracle response into task plans for a story.
//
// The top-level array failing to parse is an error: the caller falls back to
// templates. A malformed element (unrecognized team, empty summary) is
// dropped individually with a warning, and the well-formed remainder is
// kept.
func ParseTasks(raw string, story *plan.StoryPlan, est *estimate.Estimator) ([]*plan.TaskPlan, []string, error) {
	normalized, err := NormalizeResponse(raw)
	if err != nil {
		return nil, nil, err
	}

	var rawTasks []json.RawMessage
	if err := json.Unmarshal([]byte(normalized), &rawTasks); err != nil {
		return nil, nil, fmt.Errorf("oracle response is not a JSON array: %w", err)
	}

	var tasks []*plan.TaskPlan
	var warnings []string

	for i, element := range rawTasks {
		var ot oracleTask
		if err := json.Unmarshal(element, &ot); err != nil {
			warnings = append(warnings, fmt.Sprintf("dropped oracle task %d: not an object: %v", i, err))
			continue
		}

		task, err := buildOracleTask(ot, story, est)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("dropped oracle task %d (%q): %v", i, ot.Summary, err))
			continue
		}
		tasks = append(tasks, task)
	}

	return tasks, warnings, nil
}

func buildOracleTask(ot oracleTask, story *plan.StoryPlan, est *estimate.Estimator) (*plan.TaskPlan, error) {
	team, err := domain.ParseTeam(ot.Team)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(ot.Summary) == "" {
		return nil, fmt.Errorf("empty summary")
	}

	scopes := make([]plan.Scope, 0, len(ot.Scopes))
	for _, s := range ot.Scopes {
		if strings.TrimSpace(s.Description) == "" {
			continue
		}
		scopes = append(scopes, plan.Scope{
			Description: s.Description,
			Complexity:  parseComplexity(s.Complexity),
			Deliverable: s.Deliverable,
		})
	}
	if len(scopes) == 0 {
		scopes = []plan.Scope{{
			Description: ot.Summary,
			Complexity:  plan.ComplexityMedium,
			Deliverable: strings.Join(ot.ExpectedOutcomes, "; "),
		}}
	}

	testCases := make([]plan.TestCase, 0, len(ot.TestCases))
	for _, tc := range ot.TestCases {
		if strings.TrimSpace(tc.Name) == "" {
			continue
		}
		kind := tc.Kind
		if kind == "" {
			kind = "functional"
		}
		testCases = append(testCases, plan.TestCase{
			Name:        tc.Name,
			Kind:        kind,
			Description: tc.Description,
		})
	}

	var blockedBy []domain.Team
	for _, name := range ot.BlockedByTeams {
		team, err := domain.ParseTeam(name)
		if err != nil {
			// An unrecognized blocking team degrades to a note, not a drop.
			continue
		}
		blockedBy = append(blockedBy, team)
	}

	task := &plan.TaskPlan{
		ID:               domain.NewTaskID(),
		Summary:          ot.Summary,
		Purpose:          ot.Purpose,
		Scopes:           scopes,
		ExpectedOutcomes: ot.ExpectedOutcomes,
		Team:             team,
		Estimate:         est.EstimateScopes(team, scopes),
		TestCases:        testCases,
		DependsOn:        ot.DependsOnTasks,
		BlockedByTeams:   blockedBy,
		StoryID:          story.Key,
		EpicID:           story.EpicID,
		Source:           plan.SourceOracle,
	}

	return task, nil
}

func parseComplexity(s string) plan.ScopeComplexity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "simple":
		return plan.ComplexityLow
	case "high", "complex":
		return plan.ComplexityHigh
	default:
		return plan.ComplexityMedium
	}
}
