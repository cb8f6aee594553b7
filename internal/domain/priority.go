package domain

import (
	"fmt"
	"strings"
)

// Priority represents a story priority in the tracker.
// This is a value object that enforces valid priority values.
type Priority string

// Valid priority levels, highest first.
const (
	PriorityHighest Priority = "Highest"
	PriorityHigh    Priority = "High"
	PriorityMedium  Priority = "Medium"
	PriorityLow     Priority = "Low"
)

// NewPriority creates a new Priority value object with validation.
func NewPriority(value string) (Priority, error) {
	p := Priority(value)
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

// ParsePriority maps free text (including the legacy "P0".."P3" tokens)
// onto a Priority.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "highest", "critical", "blocker", "p0":
		return PriorityHighest, nil
	case "high", "p1":
		return PriorityHigh, nil
	case "medium", "normal", "p2":
		return PriorityMedium, nil
	case "low", "minor", "p3":
		return PriorityLow, nil
	default:
		return "", fmt.Errorf("unrecognized priority %q", s)
	}
}

// Validate checks if the priority is valid.
func (p Priority) Validate() error {
	switch p {
	case PriorityHighest, PriorityHigh, PriorityMedium, PriorityLow:
		return nil
	default:
		return fmt.Errorf("invalid priority %q (valid: Highest, High, Medium, Low)", string(p))
	}
}

// String returns the string representation.
func (p Priority) String() string {
	return string(p)
}
