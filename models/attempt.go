package models

import "time"

// Outcome classifies a single provider attempt
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeTransientFailure Outcome = "transient_failure"
	OutcomePermanentFailure Outcome = "permanent_failure"
)

// GenerationAttempt records one provider call. Attempts live only for the
// duration of a request and are never persisted.
type GenerationAttempt struct {
	Provider string        `json:"provider"`
	Attempt  int           `json:"attempt"` // 1-based within the provider
	Outcome  Outcome       `json:"outcome"`
	Latency  time.Duration `json:"latency"`
	Error    string        `json:"error,omitempty"`
}
