// Package gemini adapts the Google GenAI SDK to the provider interface
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/upb/news-gateway/config"
	"github.com/upb/news-gateway/models"
	"github.com/upb/news-gateway/services/providers"
	"google.golang.org/genai"
)

const defaultMaxOutputTokens = 900

// Adapter implements providers.Provider on top of genai.Client
type Adapter struct {
	name   string
	model  string
	client *genai.Client
}

// NewAdapter creates a Gemini API client for the configured model
func NewAdapter(ctx context.Context, cfg config.ProviderConfig) (*Adapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key cannot be empty")
	}
	if cfg.Model == "" {
		return nil, errors.New("gemini model name cannot be empty")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "gemini"
	}
	return &Adapter{name: name, model: cfg.Model, client: client}, nil
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return a.name
}

// Generate performs one GenerateContent call
func (a *Adapter) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), &genai.GenerateContentConfig{
		MaxOutputTokens: defaultMaxOutputTokens,
	})
	if err != nil {
		return "", a.classifyError(ctx, err)
	}

	if resp == nil {
		return "", providers.NewProviderError(a.name, providers.CodeBadResponse, "nil response", 0, models.OutcomePermanentFailure, nil)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", providers.NewProviderError(a.name, providers.CodeContentBlocked,
			"prompt blocked: "+string(resp.PromptFeedback.BlockReason), 0, models.OutcomePermanentFailure, nil)
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", providers.NewProviderError(a.name, providers.CodeContentBlocked, "content blocked by safety filters", 0, models.OutcomePermanentFailure, nil)
	}

	return strings.TrimSpace(resp.Text()), nil
}

func (a *Adapter) classifyError(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return providers.NewProviderError(a.name, apiErr.Status, apiErr.Message, apiErr.Code, providers.StatusOutcome(apiErr.Code), err)
	}
	return providers.TransportError(ctx, a.name, err)
}
