package plan

import (
	"strings"
	"testing"

	"github.com/felixgeelhaar/epicbreaker/internal/domain"
)

func validTask() *TaskPlan {
	return &TaskPlan{
		ID:      domain.NewTaskID(),
		Summary: "Build login API",
		Purpose: "Allow users to authenticate",
		Scopes: []Scope{
			{Description: "Login endpoint", Complexity: ComplexityMedium, Deliverable: "POST /login"},
		},
		Team:     domain.TeamBackend,
		Estimate: NewCycleTimeEstimate(2, 1, 0.5, 0.5, 0.8, 5),
		Source:   SourceTemplate,
	}
}

func TestTaskPlanValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TaskPlan)
		wantErr string
	}{
		{name: "valid", mutate: func(*TaskPlan) {}},
		{
			name:    "empty summary",
			mutate:  func(tp *TaskPlan) { tp.Summary = "  " },
			wantErr: "summary cannot be empty",
		},
		{
			name:    "bad id",
			mutate:  func(tp *TaskPlan) { tp.ID = "not-an-id" },
			wantErr: "invalid task ID",
		},
		{
			name:    "bad team",
			mutate:  func(tp *TaskPlan) { tp.Team = "Sales" },
			wantErr: "invalid team",
		},
		{
			name:    "no scopes",
			mutate:  func(tp *TaskPlan) { tp.Scopes = nil },
			wantErr: "at least one scope",
		},
		{
			name:    "broken additivity",
			mutate:  func(tp *TaskPlan) { tp.Estimate.TotalDays = 99 },
			wantErr: "does not equal phase sum",
		},
		{
			name:    "bad source",
			mutate:  func(tp *TaskPlan) { tp.Source = "guesswork" },
			wantErr: "invalid task source",
		},
		{
			name:    "bad blocking team",
			mutate:  func(tp *TaskPlan) { tp.BlockedByTeams = []domain.Team{"Sales"} },
			wantErr: "invalid blocking team",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := validTask()
			tt.mutate(task)
			err := task.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestStoryPlanValidate(t *testing.T) {
	story := &StoryPlan{
		Summary:  "User Authentication",
		EpicID:   "PROJ-1",
		Priority: domain.PriorityHigh,
		Tasks:    []*TaskPlan{validTask(), validTask()},
	}
	if err := story.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	// Duplicate task IDs are rejected.
	dup := validTask()
	story.Tasks = []*TaskPlan{dup, dup}
	if err := story.Validate(); err == nil || !strings.Contains(err.Error(), "duplicate task ID") {
		t.Fatalf("Validate() error = %v, want duplicate task ID", err)
	}

	// A story must belong to an epic.
	story.Tasks = nil
	story.EpicID = ""
	if err := story.Validate(); err == nil || !strings.Contains(err.Error(), "reference an epic") {
		t.Fatalf("Validate() error = %v, want epic reference error", err)
	}
}

func TestValidateEdges(t *testing.T) {
	a, b, c := validTask(), validTask(), validTask()
	tasks := []*TaskPlan{a, b, c}

	edges := []DependencyEdge{
		{BlockingID: a.ID, DependentID: b.ID},
		{BlockingID: b.ID, DependentID: c.ID},
	}
	if err := ValidateEdges(tasks, edges); err != nil {
		t.Fatalf("ValidateEdges() error = %v for acyclic graph", err)
	}
}

func TestValidateEdgesRejectsUnknownEndpoint(t *testing.T) {
	a := validTask()
	edges := []DependencyEdge{
		{BlockingID: domain.NewTaskID(), DependentID: a.ID},
	}
	err := ValidateEdges([]*TaskPlan{a}, edges)
	if err == nil || !strings.Contains(err.Error(), "unknown blocking task") {
		t.Fatalf("ValidateEdges() error = %v, want unknown blocking task", err)
	}
}

func TestValidateEdgesDetectsCycle(t *testing.T) {
	a, b := validTask(), validTask()
	edges := []DependencyEdge{
		{BlockingID: a.ID, DependentID: b.ID},
		{BlockingID: b.ID, DependentID: a.ID},
	}
	err := ValidateEdges([]*TaskPlan{a, b}, edges)
	if err == nil || !strings.Contains(err.Error(), "circular dependency") {
		t.Fatalf("ValidateEdges() error = %v, want circular dependency", err)
	}
}

func TestValidateEdgesRejectsSelfBlock(t *testing.T) {
	a := validTask()
	edges := []DependencyEdge{{BlockingID: a.ID, DependentID: a.ID}}
	err := ValidateEdges([]*TaskPlan{a}, edges)
	if err == nil || !strings.Contains(err.Error(), "cannot block itself") {
		t.Fatalf("ValidateEdges() error = %v, want self-block rejection", err)
	}
}
