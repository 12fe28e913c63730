// Package providertest provides scripted providers for tests.
package providertest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/upb/news-gateway/models"
	"github.com/upb/news-gateway/services/providers"
)

// Step is one scripted reply
type Step struct {
	Text  string
	Err   error
	Delay time.Duration // honored unless the context ends first
}

// Fake replays its steps in order and repeats the last one forever
type Fake struct {
	name string

	mu      sync.Mutex
	steps   []Step
	calls   int
	prompts []string
}

// New creates a fake provider with the given script
func New(name string, steps ...Step) *Fake {
	return &Fake{name: name, steps: steps}
}

// Succeeding always returns text
func Succeeding(name, text string) *Fake {
	return New(name, Step{Text: text})
}

// Failing always fails with the given outcome class
func Failing(name string, outcome models.Outcome) *Fake {
	return New(name, Step{Err: providers.NewProviderError(name, "scripted", "scripted failure", 0, outcome, nil)})
}

// Hanging blocks until the attempt context ends
func Hanging(name string) *Fake {
	return New(name, Step{Delay: time.Hour, Text: LongText(name)})
}

// Name implements providers.Provider
func (f *Fake) Name() string {
	return f.name
}

// Generate implements providers.Provider
func (f *Fake) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	idx := f.calls
	if idx >= len(f.steps) {
		idx = len(f.steps) - 1
	}
	f.calls++
	f.prompts = append(f.prompts, prompt)
	var step Step
	if idx >= 0 {
		step = f.steps[idx]
	}
	f.mu.Unlock()

	if step.Delay > 0 {
		timer := time.NewTimer(step.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", providers.TransportError(ctx, f.name, ctx.Err())
		}
	}
	return step.Text, step.Err
}

// Calls returns how many times Generate ran
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Prompts returns every prompt received
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.prompts))
	copy(out, f.prompts)
	return out
}

// LongText returns text comfortably above the success threshold
func LongText(tag string) string {
	return "HEADLINE: " + tag + "\n" + strings.Repeat("Generated briefing sentence for "+tag+". ", 12)
}

// Spec wraps a provider in a spec with short timeouts suitable for tests
func Spec(p providers.Provider, priority, maxRetries int, caps ...providers.Capability) providers.Spec {
	if len(caps) == 0 {
		caps = []providers.Capability{providers.CapabilityGenerate, providers.CapabilityTranslate}
	}
	return providers.Spec{
		Provider:     p,
		Priority:     priority,
		Timeout:      200 * time.Millisecond,
		MaxRetries:   maxRetries,
		Capabilities: caps,
	}
}
