package plan

import (
	"fmt"
	"math"
	"strings"

	"github.com/felixgeelhaar/epicbreaker/internal/domain"
)

// estimateTolerance absorbs floating-point drift when checking the
// additivity invariant.
const estimateTolerance = 1e-9

// Validate checks if the TaskPlan is valid according to domain rules
func (t *TaskPlan) Validate() error {
	if err := t.ID.Validate(); err != nil {
		return fmt.Errorf("invalid task ID: %w", err)
	}

	if strings.TrimSpace(t.Summary) == "" {
		return fmt.Errorf("task summary cannot be empty")
	}

	if err := t.Team.Validate(); err != nil {
		return fmt.Errorf("invalid team assignment: %w", err)
	}

	if len(t.Scopes) == 0 {
		return fmt.Errorf("task must have at least one scope")
	}
	for i, scope := range t.Scopes {
		if strings.TrimSpace(scope.Description) == "" {
			return fmt.Errorf("scope at index %d has empty description", i)
		}
	}

	if err := t.Estimate.Validate(); err != nil {
		return fmt.Errorf("invalid estimate: %w", err)
	}

	switch t.Source {
	case SourceOracle, SourceTemplate:
	default:
		return fmt.Errorf("invalid task source %q", string(t.Source))
	}

	for _, team := range t.BlockedByTeams {
		if err := team.Validate(); err != nil {
			return fmt.Errorf("invalid blocking team: %w", err)
		}
	}

	return nil
}

// Validate checks the estimate's additivity and range invariants.
func (e CycleTimeEstimate) Validate() error {
	for _, phase := range []struct {
		name string
		days float64
	}{
		{"development", e.DevelopmentDays},
		{"testing", e.TestingDays},
		{"review", e.ReviewDays},
		{"deployment", e.DeploymentDays},
	} {
		if phase.days < 0 {
			return fmt.Errorf("%s days cannot be negative, got %v", phase.name, phase.days)
		}
	}

	sum := e.DevelopmentDays + e.TestingDays + e.ReviewDays + e.DeploymentDays
	if math.Abs(sum-e.TotalDays) > estimateTolerance {
		return fmt.Errorf("total days %v does not equal phase sum %v", e.TotalDays, sum)
	}

	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Errorf("confidence must be in [0,1], got %v", e.Confidence)
	}

	return nil
}

// Validate checks if the StoryPlan is valid
func (s *StoryPlan) Validate() error {
	if strings.TrimSpace(s.Summary) == "" {
		return fmt.Errorf("story summary cannot be empty")
	}

	if strings.TrimSpace(s.EpicID) == "" {
		return fmt.Errorf("story must reference an epic")
	}

	if err := s.Priority.Validate(); err != nil {
		return fmt.Errorf("invalid priority: %w", err)
	}

	ids := make(map[domain.TaskID]bool)
	for i, task := range s.Tasks {
		if err := task.Validate(); err != nil {
			return fmt.Errorf("task at index %d (%s) is invalid: %w", i, task.ID, err)
		}
		if ids[task.ID] {
			return fmt.Errorf("duplicate task ID %q at index %d", task.ID, i)
		}
		ids[task.ID] = true
	}

	return nil
}

// ValidateEdges checks that every dependency edge joins two tasks present in
// the run and that the edge set is acyclic. Edge endpoints are always stable
// per-run IDs; unresolved references never become edges.
func ValidateEdges(tasks []*TaskPlan, edges []DependencyEdge) error {
	known := make(map[domain.TaskID]bool, len(tasks))
	for _, task := range tasks {
		known[task.ID] = true
	}

	graph := make(map[domain.TaskID][]domain.TaskID)
	for _, edge := range edges {
		if !known[edge.BlockingID] {
			return fmt.Errorf("edge references unknown blocking task %s", edge.BlockingID)
		}
		if !known[edge.DependentID] {
			return fmt.Errorf("edge references unknown dependent task %s", edge.DependentID)
		}
		if edge.BlockingID == edge.DependentID {
			return fmt.Errorf("task %s cannot block itself", edge.BlockingID)
		}
		graph[edge.DependentID] = append(graph[edge.DependentID], edge.BlockingID)
	}

	visited := make(map[domain.TaskID]bool)
	recStack := make(map[domain.TaskID]bool)

	var hasCycle func(id domain.TaskID, path []string) error
	hasCycle = func(id domain.TaskID, path []string) error {
		visited[id] = true
		recStack[id] = true
		path = append(path, id.String())

		for _, dep := range graph[id] {
			if !visited[dep] {
				if err := hasCycle(dep, path); err != nil {
					return err
				}
			} else if recStack[dep] {
				cyclePath := append(path, dep.String())
				return fmt.Errorf("circular dependency detected: %s", strings.Join(cyclePath, " -> "))
			}
		}

		recStack[id] = false
		return nil
	}

	for _, task := range tasks {
		if !visited[task.ID] {
			if err := hasCycle(task.ID, nil); err != nil {
				return err
			}
		}
	}

	return nil
}
