package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/epicbreaker/internal/domain"
)

func TestRegistryFallsBackToWorkflow(t *testing.T) {
	r := DefaultRegistry()

	unknown := r.Patterns(domain.Archetype("mystery"))
	workflow := r.Patterns(domain.ArchetypeWorkflow)

	require.NotEmpty(t, unknown)
	assert.Equal(t, workflow, unknown)
}

func TestPlaceholderTestCases(t *testing.T) {
	for _, team := range []domain.Team{
		domain.TeamBackend, domain.TeamFrontend, domain.TeamQA, domain.TeamDevOps, domain.TeamFullstack,
	} {
		cases := PlaceholderTestCases(team, "Bulk Import")
		require.Len(t, cases, 2, "team %s", team)
		assert.Equal(t, "functional", cases[0].Kind)
		assert.Contains(t, cases[0].Name, "Bulk Import")
		assert.NotEmpty(t, cases[1].Name)
	}
}
