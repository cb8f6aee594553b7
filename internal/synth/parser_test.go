package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/epicbreaker/internal/domain"
	"github.com/felixgeelhaar/epicbreaker/internal/estimate"
	"github.com/felixgeelhaar/epicbreaker/internal/plan"
)

func testStory() *plan.StoryPlan {
	return &plan.StoryPlan{
		Summary:  "User Authentication",
		EpicID:   "PROJ-1",
		Priority: domain.PriorityHigh,
	}
}

func TestNormalizeResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "bare array",
			raw:  `[{"team": "Backend"}]`,
			want: `[{"team": "Backend"}]`,
		},
		{
			name: "fenced array",
			raw:  "```json\n[{\"team\": \"Backend\"}]\n```",
			want: `[{"team": "Backend"}]`,
		},
		{
			name: "prose around array",
			raw:  "Here are the tasks:\n[{\"team\": \"QA\"}]\nLet me know if you need more.",
			want: `[{"team": "QA"}]`,
		},
		{
			name: "bracket inside string",
			raw:  `[{"summary": "Fix [BE] parsing"}]`,
			want: `[{"summary": "Fix [BE] parsing"}]`,
		},
		{
			name:    "no array",
			raw:     `{"team": "Backend"}`,
			wantErr: true,
		},
		{
			name:    "unbalanced",
			raw:     `[{"team": "Backend"}`,
			wantErr: true,
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeResponse(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTasks(t *testing.T) {
	raw := `[
		{
			"team": "Backend",
			"summary": "Build login API",
			"purpose": "Authenticate users",
			"scopes": [{"description": "Login endpoint", "complexity": "medium", "deliverable": "POST /login"}],
			"expected_outcomes": ["Users can log in"],
			"test_cases": [{"name": "Valid login", "kind": "integration", "description": "200 with token"}],
			"depends_on_tasks": [],
			"blocked_by_teams": []
		},
		{
			"team": "QA",
			"summary": "Verify login flows",
			"purpose": "Exercise acceptance criteria",
			"scopes": [{"description": "Test plan", "complexity": "low", "deliverable": "Report"}],
			"depends_on_tasks": ["Build login API"],
			"blocked_by_teams": ["Backend"]
		}
	]`

	est := estimate.New(5)
	tasks, warnings, err := ParseTasks(raw, testStory(), est)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, tasks, 2)

	be := tasks[0]
	assert.Equal(t, domain.TeamBackend, be.Team)
	assert.Equal(t, plan.SourceOracle, be.Source)
	assert.NoError(t, be.Validate())
	assert.NotEmpty(t, be.ID)

	qa := tasks[1]
	assert.Equal(t, []string{"Build login API"}, qa.DependsOn)
	assert.Equal(t, []domain.Team{domain.TeamBackend}, qa.BlockedByTeams)

	// IDs are distinct and stable per task.
	assert.NotEqual(t, be.ID, qa.ID)
}

func TestParseTasksDropsMalformedElements(t *testing.T) {
	raw := `[
		{"team": "Backend", "summary": "Good task", "scopes": [{"description": "work"}]},
		{"team": "Wizards", "summary": "Unknown team"},
		{"team": "Frontend", "summary": ""},
		"not even an object"
	]`

	tasks, warnings, err := ParseTasks(raw, testStory(), estimate.New(5))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Good task", tasks[0].Summary)
	assert.Len(t, warnings, 3)
}

func TestParseTasksWholeBatchFailure(t *testing.T) {
	_, _, err := ParseTasks("The model refuses to answer.", testStory(), estimate.New(5))
	assert.Error(t, err)

	_, _, err = ParseTasks(`[{"team": "Backend"`, testStory(), estimate.New(5))
	assert.Error(t, err)
}

func TestParseTasksEmptyArray(t *testing.T) {
	tasks, warnings, err := ParseTasks(`[]`, testStory(), estimate.New(5))
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Empty(t, warnings)
}

func TestParseTasksSynthesizesMissingScope(t *testing.T) {
	raw := `[{"team": "Backend", "summary": "Fix the thing", "expected_outcomes": ["thing fixed"]}]`

	tasks, _, err := ParseTasks(raw, testStory(), estimate.New(5))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Len(t, tasks[0].Scopes, 1)
	assert.Equal(t, "Fix the thing", tasks[0].Scopes[0].Description)
	assert.NoError(t, tasks[0].Validate())
}

func TestParseTasksIgnoresUnknownBlockingTeams(t *testing.T) {
	raw := `[{"team": "Frontend", "summary": "Build screen", "blocked_by_teams": ["Backend", "Legal"]}]`

	tasks, _, err := ParseTasks(raw, testStory(), estimate.New(5))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, []domain.Team{domain.TeamBackend}, tasks[0].BlockedByTeams)
}
