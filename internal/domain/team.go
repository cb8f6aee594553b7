package domain

import (
	"fmt"
	"strings"
)

// Team represents the delivery team a task is assigned to.
// This is a value object: a task carries exactly one team.
type Team string

const (
	TeamBackend   Team = "Backend"
	TeamFrontend  Team = "Frontend"
	TeamQA        Team = "QA"
	TeamDevOps    Team = "DevOps"
	TeamFullstack Team = "Fullstack"
)

// AllTeams lists every valid team in declaration order.
func AllTeams() []Team {
	return []Team{TeamBackend, TeamFrontend, TeamQA, TeamDevOps, TeamFullstack}
}

// ParseTeam maps a free-text team name (as emitted by the oracle or found in
// config files) onto a Team. Matching is case-insensitive and tolerates the
// common short forms ("BE", "FE", "dev ops").
func ParseTeam(s string) (Team, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "backend", "back-end", "be", "server":
		return TeamBackend, nil
	case "frontend", "front-end", "fe", "ui":
		return TeamFrontend, nil
	case "qa", "quality", "quality assurance", "test", "testing":
		return TeamQA, nil
	case "devops", "dev ops", "ops", "infrastructure", "infra", "platform":
		return TeamDevOps, nil
	case "fullstack", "full-stack", "full stack":
		return TeamFullstack, nil
	default:
		return "", fmt.Errorf("unrecognized team name %q", s)
	}
}

// Validate checks that the team is one of the known values.
func (t Team) Validate() error {
	switch t {
	case TeamBackend, TeamFrontend, TeamQA, TeamDevOps, TeamFullstack:
		return nil
	default:
		return fmt.Errorf("invalid team %q", string(t))
	}
}

// String returns the string representation.
func (t Team) String() string {
	return string(t)
}

// Prefix returns the summary prefix convention for the team ("[BE]", "[FE]",
// "[QA]", "[OPS]", "[FS]"). Used when composing task summaries and when
// normalizing oracle dependency references.
func (t Team) Prefix() string {
	switch t {
	case TeamBackend:
		return "[BE]"
	case TeamFrontend:
		return "[FE]"
	case TeamQA:
		return "[QA]"
	case TeamDevOps:
		return "[OPS]"
	case TeamFullstack:
		return "[FS]"
	default:
		return ""
	}
}
