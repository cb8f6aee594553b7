package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Tracker errors (TRACKER-001 to TRACKER-099)
	ErrCodeTrackerUnavailable  ErrorCode = "TRACKER-001"
	ErrCodeTrackerAuth         ErrorCode = "TRACKER-002"
	ErrCodeTrackerSearch       ErrorCode = "TRACKER-003"
	ErrCodeTrackerCreate       ErrorCode = "TRACKER-004"
	ErrCodeTrackerLink         ErrorCode = "TRACKER-005"
	ErrCodeTrackerIssueMissing ErrorCode = "TRACKER-006"

	// Document store errors (DOCS-001 to DOCS-099)
	ErrCodeDocsUnavailable  ErrorCode = "DOCS-001"
	ErrCodeDocsPageNotFound ErrorCode = "DOCS-002"

	// Oracle errors (ORACLE-001 to ORACLE-099)
	ErrCodeOracleConfig ErrorCode = "ORACLE-001"

	// Planning errors (PLAN-001 to PLAN-099)
	ErrCodePlanEpicMissing   ErrorCode = "PLAN-001"
	ErrCodePlanInvalidTask   ErrorCode = "PLAN-002"
	ErrCodePlanUnresolvedDep ErrorCode = "PLAN-003"
	ErrCodePlanStageFailed   ErrorCode = "PLAN-004"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigNotFound ErrorCode = "CONFIG-001"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG-002"
)

// PlannerError represents an enhanced error with code, suggestions, and documentation
type PlannerError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *PlannerError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *PlannerError) Unwrap() error {
	return e.Cause
}

// New creates a new PlannerError
func New(code ErrorCode, message string) *PlannerError {
	return &PlannerError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new PlannerError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *PlannerError {
	return &PlannerError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *PlannerError) WithSuggestion(suggestion string) *PlannerError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *PlannerError) WithSuggestions(suggestions ...string) *PlannerError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *PlannerError) WithDocs(url string) *PlannerError {
	e.DocsURL = url
	return e
}

// Common error constructors for frequently used errors

// NewTrackerUnavailableError creates a tracker connection error.
// This is the fatal case: the orchestrator aborts the run on it.
func NewTrackerUnavailableError(cause error) *PlannerError {
	return Wrap(ErrCodeTrackerUnavailable, "issue tracker is unreachable", cause).
		WithSuggestion("Check the tracker base URL in your configuration").
		WithSuggestion("Verify network connectivity to the tracker host").
		WithSuggestion("Run 'epicbreaker doctor' to check collaborator health")
}

// NewTrackerAuthError creates a tracker authentication error
func NewTrackerAuthError() *PlannerError {
	return New(ErrCodeTrackerAuth, "tracker rejected the provided credentials").
		WithSuggestion("Set EPICBREAKER_TRACKER_TOKEN to a valid API token").
		WithSuggestion("Check that the token has permission to create issues and links")
}

// NewEpicMissingError creates an error for an unknown epic
func NewEpicMissingError(epicID string) *PlannerError {
	return New(ErrCodePlanEpicMissing, fmt.Sprintf("epic not found in tracker: %s", epicID)).
		WithSuggestion("Check the epic key for typos").
		WithSuggestion("Verify the epic exists and is visible to your tracker account")
}

// NewOracleConfigError creates an oracle misconfiguration error.
// Misconfiguration is fatal; runtime oracle failures fall back to templates.
func NewOracleConfigError(detail string) *PlannerError {
	return New(ErrCodeOracleConfig, fmt.Sprintf("generative oracle misconfigured: %s", detail)).
		WithSuggestion("Set the oracle API key in config or EPICBREAKER_ORACLE_API_KEY").
		WithSuggestion("Run with --no-oracle to plan with deterministic templates only")
}

// NewDocsUnavailableError creates a document store connection error
func NewDocsUnavailableError(cause error) *PlannerError {
	return Wrap(ErrCodeDocsUnavailable, "document store is unreachable", cause).
		WithSuggestion("Check the document store base URL in your configuration").
		WithSuggestion("Gap analysis degrades gracefully without documents; linked pages are optional")
}

// NewConfigNotFoundError creates a missing configuration error
func NewConfigNotFoundError(path string) *PlannerError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithSuggestion("Create an epicbreaker.yaml in the working directory or $HOME/.epicbreaker").
		WithSuggestion("All settings can also be supplied via EPICBREAKER_* environment variables")
}

// NewConfigInvalidError creates an invalid configuration error
func NewConfigInvalidError(detail string, cause error) *PlannerError {
	return Wrap(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", detail), cause).
		WithSuggestion("Check the configuration file syntax and field names")
}
