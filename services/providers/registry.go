package providers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/upb/news-gateway/config"
	"github.com/upb/news-gateway/models"
	"golang.org/x/time/rate"
)

var (
	// ErrProviderAlreadyRegistered is returned when trying to register a duplicate provider
	ErrProviderAlreadyRegistered = errors.New("provider already registered")

	// ErrUnknownProviderKind is returned when no factory exists for a configured provider
	ErrUnknownProviderKind = errors.New("no factory for provider")
)

// Registry is an immutable, priority-ordered list of provider specs.
// Equal priorities keep declaration order.
type Registry struct {
	specs []Spec
}

// NewRegistry validates and orders the given specs
func NewRegistry(specs ...Spec) (*Registry, error) {
	seen := make(map[string]bool, len(specs))
	ordered := make([]Spec, 0, len(specs))

	for _, spec := range specs {
		if spec.Provider == nil {
			return nil, errors.New("provider cannot be nil")
		}
		name := spec.Name()
		if name == "" {
			return nil, errors.New("provider name cannot be empty")
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %s", ErrProviderAlreadyRegistered, name)
		}
		if spec.Timeout <= 0 {
			return nil, fmt.Errorf("provider %s: timeout must be positive", name)
		}
		if spec.MaxRetries < 0 {
			return nil, fmt.Errorf("provider %s: max retries cannot be negative", name)
		}
		seen[name] = true

		if spec.RequestsPerMinute > 0 {
			spec.Provider = withRateLimit(spec.Provider, spec.RequestsPerMinute)
		}
		ordered = append(ordered, spec)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	return &Registry{specs: ordered}, nil
}

// Ordered returns every spec in attempt order
func (r *Registry) Ordered() []Spec {
	out := make([]Spec, len(r.specs))
	copy(out, r.specs)
	return out
}

// WithCapability returns the specs carrying a capability, in attempt order
func (r *Registry) WithCapability(c Capability) []Spec {
	var out []Spec
	for _, spec := range r.specs {
		if spec.Has(c) {
			out = append(out, spec)
		}
	}
	return out
}

// Names returns provider names in attempt order
func (r *Registry) Names() []string {
	names := make([]string, len(r.specs))
	for i, spec := range r.specs {
		names[i] = spec.Name()
	}
	return names
}

// Len returns the number of registered providers
func (r *Registry) Len() int {
	return len(r.specs)
}

// rateLimited rejects calls above the configured rate instead of queueing,
// so a throttled provider fails fast and the walk moves on.
type rateLimited struct {
	Provider
	limiter *rate.Limiter
}

func withRateLimit(p Provider, rpm int) Provider {
	burst := rpm / 10
	if burst < 1 {
		burst = 1
	}
	return &rateLimited{
		Provider: p,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), burst),
	}
}

func (r *rateLimited) Generate(ctx context.Context, prompt string) (string, error) {
	if !r.limiter.Allow() {
		return "", NewProviderError(r.Name(), CodeRateLimited, "local rate limit reached", 0, models.OutcomeTransientFailure, ErrRateLimited)
	}
	return r.Provider.Generate(ctx, prompt)
}

// ProviderFactory creates a provider from its configuration
type ProviderFactory func(ctx context.Context, cfg config.ProviderConfig) (Provider, error)

// RegistryBuilder helps build a registry from configuration
type RegistryBuilder struct {
	factories map[string]ProviderFactory
	extra     []Spec
}

// NewRegistryBuilder creates a new registry builder
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{factories: make(map[string]ProviderFactory)}
}

// WithFactory registers the factory used for a provider name
func (rb *RegistryBuilder) WithFactory(name string, factory ProviderFactory) *RegistryBuilder {
	rb.factories[name] = factory
	return rb
}

// WithSpec adds a prebuilt spec
func (rb *RegistryBuilder) WithSpec(spec Spec) *RegistryBuilder {
	rb.extra = append(rb.extra, spec)
	return rb
}

// Build creates every configured provider and returns the registry.
// Providers without credentials are skipped.
func (rb *RegistryBuilder) Build(ctx context.Context, configs []config.ProviderConfig) (*Registry, error) {
	specs := make([]Spec, 0, len(configs)+len(rb.extra))

	for _, cfg := range configs {
		if !cfg.Configured() {
			continue
		}
		factory, ok := rb.factories[cfg.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProviderKind, cfg.Name)
		}
		provider, err := factory(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build provider %s: %w", cfg.Name, err)
		}
		specs = append(specs, SpecFromConfig(provider, cfg))
	}

	specs = append(specs, rb.extra...)
	return NewRegistry(specs...)
}

// SpecFromConfig builds the scheduling spec for a configured provider
func SpecFromConfig(p Provider, cfg config.ProviderConfig) Spec {
	caps := make([]Capability, 0, len(cfg.Capabilities))
	for _, c := range cfg.Capabilities {
		caps = append(caps, Capability(c))
	}
	return Spec{
		Provider:          p,
		Priority:          cfg.Priority,
		Timeout:           cfg.Timeout,
		MaxRetries:        cfg.MaxRetries,
		Capabilities:      caps,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}
}
