package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZaguanLabs/dobhasi"
	"google.golang.org/genai"
)

// GeminiProvider implements AIProvider using Google's Gemini API.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	temperature float32
}

// GeminiConfig holds configuration for the Gemini provider.
type GeminiConfig struct {
	APIKey      string  // Gemini API key
	Model       string  // Model to use (default: "gemini-2.5-flash")
	Temperature float32 // Temperature for generation (default: 0.3)
	BaseURL     string  // Custom base URL (optional)
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &GeminiProvider{
		client:      client,
		model:       model,
		temperature: temperature,
	}, nil
}

// Translate translates a batch of texts using Gemini. The reply is requested
// as application/json so the model returns the bare array.
func (p *GeminiProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if len(req.Texts) == 0 {
		return []string{}, nil
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model,
		genai.Text(UserMessage(req.Texts)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(SystemPrompt(req), genai.RoleUser),
			Temperature:       genai.Ptr(p.temperature),
			ResponseMIMEType:  "application/json",
		},
	)
	if err != nil {
		return nil, classifyGeminiError(err)
	}

	text := resp.Text()
	if text == "" {
		return nil, &dobhasi.ProviderError{
			Kind:    dobhasi.KindMalformed,
			Message: "empty response from Gemini",
		}
	}

	return ParseTranslations(text, len(req.Texts))
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return dobhasi.NewStatusError(apiErr.Code, "Gemini API call failed", err)
	}

	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return dobhasi.NewStatusError(apiErrPtr.Code, "Gemini API call failed", err)
	}

	kind := dobhasi.KindNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		kind = dobhasi.KindTimeout
	}
	return &dobhasi.ProviderError{
		Kind:      kind,
		Message:   "Gemini API call failed",
		Cause:     err,
		Retryable: !errors.Is(err, context.Canceled),
	}
}

// Verify GeminiProvider implements AIProvider
var _ AIProvider = (*GeminiProvider)(nil)
