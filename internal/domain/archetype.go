package domain

import "fmt"

// Archetype is the coarse story category used to bias which teams and task
// patterns are considered during decomposition.
type Archetype string

const (
	ArchetypeAPI           Archetype = "api"
	ArchetypeUI            Archetype = "ui"
	ArchetypeData          Archetype = "data"
	ArchetypeIntegration   Archetype = "integration"
	ArchetypeAdmin         Archetype = "admin"
	ArchetypeWorkflow      Archetype = "workflow"
	ArchetypeConfiguration Archetype = "configuration"
	ArchetypeReporting     Archetype = "reporting"
)

// AllArchetypes lists every story archetype.
func AllArchetypes() []Archetype {
	return []Archetype{
		ArchetypeAPI,
		ArchetypeUI,
		ArchetypeData,
		ArchetypeIntegration,
		ArchetypeAdmin,
		ArchetypeWorkflow,
		ArchetypeConfiguration,
		ArchetypeReporting,
	}
}

// Validate checks that the archetype is one of the known values.
func (a Archetype) Validate() error {
	switch a {
	case ArchetypeAPI, ArchetypeUI, ArchetypeData, ArchetypeIntegration,
		ArchetypeAdmin, ArchetypeWorkflow, ArchetypeConfiguration, ArchetypeReporting:
		return nil
	default:
		return fmt.Errorf("invalid archetype %q", string(a))
	}
}

// String returns the string representation.
func (a Archetype) String() string {
	return string(a)
}

// BackendOnly reports whether the archetype needs no dedicated frontend
// work. Backend-only archetypes require coverage from {Backend, QA} rather
// than the default {Backend, Frontend, QA}.
func (a Archetype) BackendOnly() bool {
	return a == ArchetypeAPI || a == ArchetypeConfiguration
}

// RequiredTeams returns the set of teams a story of this archetype must have
// at least one task for.
func (a Archetype) RequiredTeams() []Team {
	if a.BackendOnly() {
		return []Team{TeamBackend, TeamQA}
	}
	return []Team{TeamBackend, TeamFrontend, TeamQA}
}
