package oracle

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	plannererrors "github.com/felixgeelhaar/epicbreaker/internal/errors"
)

// ErrDisabled is returned by the Disabled oracle.
var ErrDisabled = errors.New("oracle is disabled")

const defaultModel = "gpt-4o-mini"

// OpenAI is an Oracle backed by an OpenAI-compatible chat completion API.
// Any endpoint speaking the same protocol works via Config.BaseURL.
type OpenAI struct {
	client *openai.Client
	config Config
}

// NewOpenAI builds an OpenAI oracle from config. A missing API key is a
// configuration error, fatal for the run rather than a fallback trigger.
func NewOpenAI(config Config) (*OpenAI, error) {
	if config.APIKey == "" {
		return nil, plannererrors.NewOracleConfigError("api key is empty")
	}
	if config.Model == "" {
		config.Model = defaultModel
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// GenerateStructured implements Oracle.
func (o *OpenAI) GenerateStructured(ctx context.Context, prompt, schemaHint string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       o.config.Model,
		Temperature: o.config.Temperature,
		MaxTokens:   o.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You are a delivery planning assistant. Respond with exactly the " +
					"requested structure and nothing else. Expected shape: " + schemaHint,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("oracle completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("oracle returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// Name implements Oracle.
func (o *OpenAI) Name() string { return "openai/" + o.config.Model }

// FromConfig constructs the oracle selected by config. Provider "none" (or
// empty) yields the Disabled oracle.
func FromConfig(config Config) (Oracle, error) {
	switch config.Provider {
	case "", "none", "disabled":
		return Disabled{}, nil
	case "openai":
		return NewOpenAI(config)
	default:
		return nil, plannererrors.NewOracleConfigError(
			fmt.Sprintf("unknown provider %q (valid: openai, none)", config.Provider))
	}
}
