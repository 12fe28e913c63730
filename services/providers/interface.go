package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/upb/news-gateway/models"
)

// Capability tags what a provider can be used for
type Capability string

const (
	CapabilityGenerate  Capability = "generate"
	CapabilityTranslate Capability = "translate"
)

// Provider is a generation backend. Implementations make exactly one
// upstream call per Generate; retries belong to the orchestrator.
type Provider interface {
	// Name returns the provider identity reported to callers
	Name() string

	// Generate sends the prompt and returns the raw generated text
	Generate(ctx context.Context, prompt string) (string, error)
}

// Spec describes how a provider is scheduled
type Spec struct {
	Provider          Provider
	Priority          int           // lower is tried first
	Timeout           time.Duration // per attempt
	MaxRetries        int           // attempts = MaxRetries + 1
	Capabilities      []Capability
	RequestsPerMinute int
}

// Name returns the underlying provider name
func (s Spec) Name() string {
	return s.Provider.Name()
}

// Has reports whether the spec carries the capability
func (s Spec) Has(c Capability) bool {
	for _, have := range s.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Attempts returns how many calls the provider may receive per request
func (s Spec) Attempts() int {
	if s.MaxRetries < 0 {
		return 1
	}
	return s.MaxRetries + 1
}

// Error codes shared by adapters
const (
	CodeTimeout        = "timeout"
	CodeNetwork        = "network_error"
	CodeRateLimited    = "rate_limited"
	CodeUpstream       = "upstream_error"
	CodeBadResponse    = "bad_response"
	CodeContentBlocked = "content_blocked"
	CodeMisconfigured  = "misconfigured"
)

// ErrRateLimited is the cause attached to local limiter rejections
var ErrRateLimited = errors.New("provider rate limit reached")

// ProviderError represents an error from a provider
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Outcome is the retry class of the failure
	Outcome models.Outcome

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	msg := e.Provider + ": " + e.Message
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, outcome models.Outcome, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Outcome:    outcome,
		Cause:      cause,
	}
}

// StatusOutcome classifies an upstream HTTP status code.
// Timeouts, throttling and server faults are worth retrying; the rest are not.
func StatusOutcome(statusCode int) models.Outcome {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return models.OutcomeSuccess
	case statusCode == http.StatusRequestTimeout,
		statusCode == http.StatusTooManyRequests,
		statusCode >= 500:
		return models.OutcomeTransientFailure
	default:
		return models.OutcomePermanentFailure
	}
}

// TransportError wraps a failed round trip. The attempt context decides
// whether it was a timeout.
func TransportError(ctx context.Context, provider string, err error) *ProviderError {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return NewProviderError(provider, CodeTimeout, "request timed out", 0, models.OutcomeTransientFailure, err)
	}
	return NewProviderError(provider, CodeNetwork, "request failed", 0, models.OutcomeTransientFailure, err)
}

// Classify maps any error returned by Generate to an outcome.
// Unknown errors are treated as transient.
func Classify(err error) models.Outcome {
	if err == nil {
		return models.OutcomeSuccess
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) && provErr.Outcome != "" {
		return provErr.Outcome
	}

	// network faults and anything unrecognized
	return models.OutcomeTransientFailure
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	return Classify(err) == models.OutcomeTransientFailure
}
