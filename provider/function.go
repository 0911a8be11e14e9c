package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ZaguanLabs/dobhasi"
)

// FunctionRequest is the body posted to a hosted translate function.
type FunctionRequest struct {
	Texts          []string `json:"texts"`
	TargetLanguage string   `json:"targetLanguage"`
	SourceLanguage string   `json:"sourceLanguage,omitempty"`
}

// FunctionResponse is the reply of a hosted translate function.
type FunctionResponse struct {
	Translations []string `json:"translations"`
	Error        string   `json:"error,omitempty"`
}

// FunctionProvider calls a hosted translate function over HTTP, such as the
// one served by the server package.
type FunctionProvider struct {
	url        string
	apiKey     string
	httpClient *http.Client
	userAgent  string
}

// FunctionConfig holds configuration for the function provider.
type FunctionConfig struct {
	URL     string        // Endpoint, e.g. "https://example.org/functions/v1/translate"
	APIKey  string        // Sent as a Bearer token when set
	Timeout time.Duration // HTTP client timeout (default: 30s)
	Client  *http.Client  // Optional custom client
}

// NewFunctionProvider creates a new function provider.
func NewFunctionProvider(cfg FunctionConfig) *FunctionProvider {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = dobhasi.DefaultCallTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &FunctionProvider{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: client,
		userAgent:  dobhasi.UserAgent(),
	}
}

// Translate posts the batch and decodes the translations.
func (p *FunctionProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if len(req.Texts) == 0 {
		return []string{}, nil
	}

	body, err := json.Marshal(FunctionRequest{
		Texts:          req.Texts,
		TargetLanguage: string(req.TargetLang),
		SourceLanguage: string(req.SourceLang),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", p.userAgent)
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		kind := dobhasi.KindNetwork
		if errors.Is(err, context.DeadlineExceeded) {
			kind = dobhasi.KindTimeout
		}
		return nil, &dobhasi.ProviderError{
			Kind:      kind,
			Message:   "translate function unreachable",
			Cause:     err,
			Retryable: !errors.Is(err, context.Canceled),
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, &dobhasi.ProviderError{
			Kind:      dobhasi.KindNetwork,
			Message:   "reading translate function response",
			Cause:     err,
			Retryable: true,
		}
	}

	var out FunctionResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode != http.StatusOK {
		msg := out.Error
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, dobhasi.NewStatusError(resp.StatusCode, msg, nil)
	}

	if decodeErr != nil {
		return nil, &dobhasi.ProviderError{
			Kind:    dobhasi.KindMalformed,
			Status:  resp.StatusCode,
			Message: "translate function returned invalid JSON",
			Cause:   decodeErr,
		}
	}

	return checkCount(out.Translations, len(req.Texts))
}

// Verify FunctionProvider implements AIProvider
var _ AIProvider = (*FunctionProvider)(nil)
