// Package oracle wraps the external generative-text service used for task
// and test synthesis. The oracle is untrusted, fallible input: callers must
// treat any response that fails to parse as an oracle failure and fall back
// to deterministic templates.
package oracle

import (
	"context"
)

// Oracle is the generative collaborator contract. GenerateStructured sends
// a prompt expected to yield structured text (a JSON array for task
// synthesis) and returns the raw response body.
type Oracle interface {
	// GenerateStructured submits a prompt and a short hint describing the
	// expected response shape ("json array of task objects"). The hint is
	// advisory; the response is still parsed strictly by the caller.
	GenerateStructured(ctx context.Context, prompt, schemaHint string) (string, error)

	// Name identifies the oracle implementation for logging.
	Name() string
}

// Config holds oracle connection settings.
type Config struct {
	// Provider selects the implementation ("openai" or "none").
	Provider string

	APIKey  string
	BaseURL string
	Model   string

	// MaxTokens bounds the response length. Zero uses the client default.
	MaxTokens int

	// Temperature controls randomness; structured synthesis wants it low.
	Temperature float32
}

// Disabled is an Oracle that always fails, forcing template fallback.
// Used by the --no-oracle flag and as the zero-config default.
type Disabled struct{}

// GenerateStructured always reports the oracle as unavailable.
func (Disabled) GenerateStructured(context.Context, string, string) (string, error) {
	return "", ErrDisabled
}

// Name identifies the disabled oracle.
func (Disabled) Name() string { return "disabled" }
