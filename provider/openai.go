package provider

import (
	"context"
	"errors"
	"net"

	"github.com/ZaguanLabs/dobhasi"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements AIProvider using OpenAI's chat completion API
// or any compatible endpoint.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string  // OpenAI API key
	Model       string  // Model to use (default: "gpt-4o-mini")
	Temperature float32 // Temperature for generation (default: 0.3)
	BaseURL     string  // Custom base URL (optional)
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
	}
}

// Translate translates a batch of texts using OpenAI.
func (p *OpenAIProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if len(req.Texts) == 0 {
		return []string{}, nil
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: UserMessage(req.Texts)},
		},
		Temperature: p.temperature,
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, &dobhasi.ProviderError{
			Kind:    dobhasi.KindMalformed,
			Message: "no choices in OpenAI response",
		}
	}

	return ParseTranslations(resp.Choices[0].Message.Content, len(req.Texts))
}

// classifyOpenAIError maps client errors to error kinds by HTTP status and
// API error code.
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		pe := dobhasi.NewStatusError(apiErr.HTTPStatusCode, "OpenAI API call failed", err)
		if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
			pe.Kind = dobhasi.KindQuotaExceeded
			pe.Retryable = false
		}
		return pe
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return dobhasi.NewStatusError(reqErr.HTTPStatusCode, "OpenAI request failed", err)
	}

	kind := dobhasi.KindNetwork
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = dobhasi.KindTimeout
	}
	return &dobhasi.ProviderError{
		Kind:      kind,
		Message:   "OpenAI API call failed",
		Cause:     err,
		Retryable: !errors.Is(err, context.Canceled),
	}
}

// Verify OpenAIProvider implements AIProvider
var _ AIProvider = (*OpenAIProvider)(nil)
