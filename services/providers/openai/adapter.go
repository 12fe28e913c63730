// Package openai implements the chat completions protocol. The same adapter
// serves every OpenAI-compatible backend (OpenAI, Groq, DeepSeek).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/upb/news-gateway/config"
	"github.com/upb/news-gateway/models"
	"github.com/upb/news-gateway/services/providers"
)

const (
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultMaxTokens = 900
	systemPrompt     = "You are a concise, factual news writer."

	// cap error bodies so a misbehaving upstream cannot flood logs
	maxErrorBody = 4096
)

// OpenAIAdapter implements providers.Provider for chat completion APIs
type OpenAIAdapter struct {
	name       string
	config     config.ProviderConfig
	httpClient *http.Client
}

// NewOpenAIAdapter creates a new adapter. The http client should not set a
// timeout; attempts are bounded by their context.
func NewOpenAIAdapter(cfg config.ProviderConfig, httpClient *http.Client) *OpenAIAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	name := cfg.Name
	if name == "" {
		name = "openai"
	}

	return &OpenAIAdapter{
		name:       name,
		config:     cfg,
		httpClient: httpClient,
	}
}

// Name returns the provider name
func (a *OpenAIAdapter) Name() string {
	return a.name
}

// Generate performs a single chat completion request
func (a *OpenAIAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	maxTokens := defaultMaxTokens
	temperature := 0.7
	reqBody, err := json.Marshal(&OpenAIChatRequest{
		Model: a.config.Model,
		Messages: []OpenAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", providers.NewProviderError(a.name, "marshal_error", "failed to marshal request", 0, models.OutcomePermanentFailure, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", providers.NewProviderError(a.name, providers.CodeMisconfigured, "failed to create request", 0, models.OutcomePermanentFailure, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", providers.TransportError(ctx, a.name, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return "", a.handleErrorResponse(httpResp.StatusCode, body)
	}

	var openaiResp OpenAIChatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&openaiResp); err != nil {
		if ctx.Err() != nil {
			return "", providers.TransportError(ctx, a.name, err)
		}
		return "", providers.NewProviderError(a.name, providers.CodeBadResponse, "failed to decode response", httpResp.StatusCode, models.OutcomePermanentFailure, err)
	}

	if len(openaiResp.Choices) == 0 {
		return "", nil
	}
	choice := openaiResp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", providers.NewProviderError(a.name, providers.CodeContentBlocked, "response blocked by content filter", httpResp.StatusCode, models.OutcomePermanentFailure, nil)
	}

	return strings.TrimSpace(choice.Message.Content), nil
}

// handleErrorResponse handles OpenAI error responses
func (a *OpenAIAdapter) handleErrorResponse(statusCode int, body []byte) error {
	outcome := providers.StatusOutcome(statusCode)

	var errResp OpenAIErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return providers.NewProviderError(a.name, providers.CodeUpstream, fmt.Sprintf("upstream returned %d", statusCode), statusCode, outcome, errors.New(string(body)))
	}

	code := errResp.Error.Type
	if code == "" {
		code = providers.CodeUpstream
	}
	return providers.NewProviderError(a.name, code, errResp.Error.Message, statusCode, outcome, nil)
}

// OpenAI-specific request/response types

type OpenAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []OpenAIMessage `json:"messages"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type OpenAIChatResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
}

type OpenAIChoice struct {
	Index        int           `json:"index"`
	Message      OpenAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type OpenAIErrorResponse struct {
	Error OpenAIError `json:"error"`
}

type OpenAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}
