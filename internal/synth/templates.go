package synth

import (
	"fmt"

	"github.com/felixgeelhaar/epicbreaker/internal/domain"
	"github.com/felixgeelhaar/epicbreaker/internal/plan"
)

// TaskPattern is one deterministic task template within an archetype.
type TaskPattern struct {
	Team    domain.Team
	Summary string // format string receiving the story summary
	Purpose string
	Scopes  []plan.Scope
}

// Registry maps archetypes to their fallback task patterns. It is a plain
// value passed into the synthesizer, constructed once per run; nothing in
// the pipeline mutates it.
type Registry struct {
	patterns map[domain.Archetype][]TaskPattern
}

// Patterns returns the task patterns for an archetype, falling back to the
// generic workflow patterns for unknown archetypes.
func (r *Registry) Patterns(archetype domain.Archetype) []TaskPattern {
	if patterns, ok := r.patterns[archetype]; ok {
		return patterns
	}
	return r.patterns[domain.ArchetypeWorkflow]
}

// DefaultRegistry returns the fixed per-archetype template set used when the
// oracle is unavailable or its output cannot be parsed.
func DefaultRegistry() *Registry {
	backendAPI := TaskPattern{
		Team:    domain.TeamBackend,
		Summary: "[BE] Implement service endpoints for %s",
		Purpose: "Provide the server-side operations the story requires",
		Scopes: []plan.Scope{
			{Description: "Request validation and service endpoints", Complexity: plan.ComplexityMedium, Deliverable: "Versioned API handlers"},
			{Description: "Persistence and domain logic", Complexity: plan.ComplexityMedium, Deliverable: "Service layer with storage access"},
		},
	}
	frontendUI := TaskPattern{
		Team:    domain.TeamFrontend,
		Summary: "[FE] Build user-facing screens for %s",
		Purpose: "Give users an interface for the story's operations",
		Scopes: []plan.Scope{
			{Description: "Screen layout and components", Complexity: plan.ComplexityMedium, Deliverable: "Rendered views wired to the API"},
			{Description: "Client-side validation and error states", Complexity: plan.ComplexityLow, Deliverable: "Inline feedback on failure paths"},
		},
	}
	qaVerification := TaskPattern{
		Team:    domain.TeamQA,
		Summary: "[QA] Verify acceptance criteria for %s",
		Purpose: "Exercise the story end to end against its acceptance criteria",
		Scopes: []plan.Scope{
			{Description: "Test plan covering acceptance criteria", Complexity: plan.ComplexityLow, Deliverable: "Reviewed test plan"},
			{Description: "Regression and edge-case passes", Complexity: plan.ComplexityMedium, Deliverable: "Executed test report"},
		},
	}
	opsDeploy := TaskPattern{
		Team:    domain.TeamDevOps,
		Summary: "[OPS] Provision and deploy changes for %s",
		Purpose: "Make the story's services deployable and observable",
		Scopes: []plan.Scope{
			{Description: "Deployment pipeline updates", Complexity: plan.ComplexityMedium, Deliverable: "Pipeline shipping the new services"},
		},
	}

	patterns := map[domain.Archetype][]TaskPattern{
		domain.ArchetypeAPI: {
			backendAPI,
			{
				Team:    domain.TeamBackend,
				Summary: "[BE] Document and version the API for %s",
				Purpose: "Keep the contract consumable by other teams",
				Scopes: []plan.Scope{
					{Description: "API reference and versioning policy", Complexity: plan.ComplexityLow, Deliverable: "Published API reference"},
				},
			},
			qaVerification,
		},
		domain.ArchetypeUI: {
			frontendUI,
			{
				Team:    domain.TeamBackend,
				Summary: "[BE] Expose supporting endpoints for %s",
				Purpose: "Back the new screens with the data they render",
				Scopes: []plan.Scope{
					{Description: "Read models and endpoints for the screens", Complexity: plan.ComplexityMedium, Deliverable: "Endpoints consumed by the UI"},
				},
			},
			qaVerification,
		},
		domain.ArchetypeData: {
			{
				Team:    domain.TeamBackend,
				Summary: "[BE] Design schema and migration for %s",
				Purpose: "Model the story's data and move existing records safely",
				Scopes: []plan.Scope{
					{Description: "Schema design and migration scripts", Complexity: plan.ComplexityHigh, Deliverable: "Applied migration"},
				},
			},
			{
				Team:    domain.TeamBackend,
				Summary: "[BE] Implement processing pipeline for %s",
				Purpose: "Transform and load the story's data reliably",
				Scopes: []plan.Scope{
					{Description: "Extraction and transformation steps", Complexity: plan.ComplexityHigh, Deliverable: "Pipeline producing validated output"},
					{Description: "Failure handling and replay", Complexity: plan.ComplexityMedium, Deliverable: "Recoverable pipeline runs"},
				},
			},
			frontendUI,
			qaVerification,
		},
		domain.ArchetypeIntegration: {
			{
				Team:    domain.TeamBackend,
				Summary: "[BE] Build external integration for %s",
				Purpose: "Exchange data with the third-party system",
				Scopes: []plan.Scope{
					{Description: "External integration client and mapping", Complexity: plan.ComplexityHigh, Deliverable: "Integration exchanging records"},
					{Description: "Retry and failure isolation", Complexity: plan.ComplexityMedium, Deliverable: "Degraded-mode behavior"},
				},
			},
			frontendUI,
			qaVerification,
			opsDeploy,
		},
		domain.ArchetypeAdmin: {
			backendAPI,
			{
				Team:    domain.TeamFrontend,
				Summary: "[FE] Build admin console views for %s",
				Purpose: "Give operators the management screens the story needs",
				Scopes: []plan.Scope{
					{Description: "Admin screens with role-gated actions", Complexity: plan.ComplexityMedium, Deliverable: "Operational console views"},
				},
			},
			qaVerification,
		},
		domain.ArchetypeWorkflow: {
			backendAPI,
			frontendUI,
			qaVerification,
		},
		domain.ArchetypeConfiguration: {
			{
				Team:    domain.TeamBackend,
				Summary: "[BE] Add configuration surface for %s",
				Purpose: "Expose the story's settings safely",
				Scopes: []plan.Scope{
					{Description: "Simple configuration schema and defaults", Complexity: plan.ComplexityLow, Deliverable: "Validated settings"},
				},
			},
			qaVerification,
		},
		domain.ArchetypeReporting: {
			{
				Team:    domain.TeamBackend,
				Summary: "[BE] Build reporting queries for %s",
				Purpose: "Aggregate the data the report presents",
				Scopes: []plan.Scope{
					{Description: "Aggregation queries and caching", Complexity: plan.ComplexityMedium, Deliverable: "Queries feeding the report"},
				},
			},
			{
				Team:    domain.TeamFrontend,
				Summary: "[FE] Build report views for %s",
				Purpose: "Present the aggregated data",
				Scopes: []plan.Scope{
					{Description: "Charts and export controls", Complexity: plan.ComplexityMedium, Deliverable: "Rendered report views"},
				},
			},
			qaVerification,
		},
	}

	return &Registry{patterns: patterns}
}

// PlaceholderTestCases returns the two standard fallback test cases for a
// team: one functional, one flavored to how the team verifies its work.
func PlaceholderTestCases(team domain.Team, storySummary string) []plan.TestCase {
	functional := plan.TestCase{
		Name:        fmt.Sprintf("Functional check: %s", storySummary),
		Kind:        "functional",
		Description: "Verify the task's happy path end to end",
	}

	var flavored plan.TestCase
	switch team {
	case domain.TeamBackend:
		flavored = plan.TestCase{
			Name:        "Service-level checks",
			Kind:        "integration",
			Description: "Unit and integration coverage for the new service paths",
		}
	case domain.TeamFrontend:
		flavored = plan.TestCase{
			Name:        "Interface checks",
			Kind:        "e2e",
			Description: "UI and end-to-end coverage for the new screens",
		}
	case domain.TeamQA:
		flavored = plan.TestCase{
			Name:        "Acceptance pass",
			Kind:        "test-plan",
			Description: "Test plan execution with an end-to-end regression pass",
		}
	case domain.TeamDevOps:
		flavored = plan.TestCase{
			Name:        "Deployment checks",
			Kind:        "integration",
			Description: "Pipeline dry run and rollback verification",
		}
	default:
		flavored = plan.TestCase{
			Name:        "Cross-layer checks",
			Kind:        "integration",
			Description: "Coverage across the layers the task touches",
		}
	}

	return []plan.TestCase{functional, flavored}
}
