// Package anthropic implements the Anthropic messages API
package anthropic

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
	defaultBaseURL   = "https://api.anthropic.com"
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 900
	maxErrorBody     = 4096
)

// Adapter implements providers.Provider for Claude models
type Adapter struct {
	config     config.ProviderConfig
	httpClient *http.Client
}

// NewAdapter creates a new Anthropic adapter
func NewAdapter(cfg config.ProviderConfig, httpClient *http.Client) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Name == "" {
		cfg.Name = "anthropic"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Adapter{config: cfg, httpClient: httpClient}
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return a.config.Name
}

// Generate sends one messages request
func (a *Adapter) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(&messagesRequest{
		Model:     a.config.Model,
		MaxTokens: defaultMaxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", providers.NewProviderError(a.Name(), "marshal_error", "failed to marshal request", 0, models.OutcomePermanentFailure, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/v1/messages", bytes.NewReader(reqBody))
	if err != nil {
		return "", providers.NewProviderError(a.Name(), providers.CodeMisconfigured, "failed to create request", 0, models.OutcomePermanentFailure, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.config.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", providers.TransportError(ctx, a.Name(), err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return "", a.handleErrorResponse(httpResp.StatusCode, body)
	}

	var resp messagesResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		if ctx.Err() != nil {
			return "", providers.TransportError(ctx, a.Name(), err)
		}
		return "", providers.NewProviderError(a.Name(), providers.CodeBadResponse, "failed to decode response", httpResp.StatusCode, models.OutcomePermanentFailure, err)
	}

	if resp.StopReason == "refusal" {
		return "", providers.NewProviderError(a.Name(), providers.CodeContentBlocked, "model refused the request", httpResp.StatusCode, models.OutcomePermanentFailure, nil)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func (a *Adapter) handleErrorResponse(statusCode int, body []byte) error {
	outcome := providers.StatusOutcome(statusCode)

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return providers.NewProviderError(a.Name(), providers.CodeUpstream, fmt.Sprintf("upstream returned %d", statusCode), statusCode, outcome, errors.New(string(body)))
	}
	return providers.NewProviderError(a.Name(), errResp.Error.Type, errResp.Error.Message, statusCode, outcome, nil)
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	ID         string         `json:"id"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type errorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
