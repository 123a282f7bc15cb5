package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Dispatcher routes a generation request to exactly one provider.
type Dispatcher struct {
	providers map[Service]Provider
	timeout   time.Duration
}

// NewDispatcher copies the provider table; later changes to the map passed in
// have no effect. A zero timeout leaves deadlines to the caller's context.
func NewDispatcher(providers map[Service]Provider, timeout time.Duration) *Dispatcher {
	table := make(map[Service]Provider, len(providers))
	for svc, p := range providers {
		table[svc] = p
	}
	return &Dispatcher{providers: table, timeout: timeout}
}

// Dispatch validates req and forwards it to the selected provider.
func (d *Dispatcher) Dispatch(ctx context.Context, req GenerationRequest) (GenerationResult, error) {
	if req.Prompt == "" || req.Service == "" {
		return GenerationResult{}, ErrInvalidRequest
	}

	service, ok := ParseService(req.Service)
	if !ok {
		return GenerationResult{}, ErrUnsupportedService
	}

	return d.Generate(ctx, service, req.Prompt, req.SystemPrompt)
}

// Generate calls the provider registered for service.
func (d *Dispatcher) Generate(ctx context.Context, service Service, prompt, systemPrompt string) (GenerationResult, error) {
	if prompt == "" {
		return GenerationResult{}, ErrInvalidRequest
	}

	provider, ok := d.providers[service]
	if !ok {
		return GenerationResult{}, ErrUnsupportedService
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := provider.Generate(ctx, prompt, systemPrompt)
	if err != nil {
		log.Error().
			Err(err).
			Str("service", service.String()).
			Dur("duration", time.Since(start)).
			Msg("Provider generation failed")
		return GenerationResult{}, &ProviderError{Service: service, Err: err}
	}

	log.Debug().
		Str("service", service.String()).
		Int("chars", len(result.Text)).
		Dur("duration", time.Since(start)).
		Msg("Provider generation completed")

	return result, nil
}

// Has reports whether a provider is registered for service.
func (d *Dispatcher) Has(service Service) bool {
	_, ok := d.providers[service]
	return ok
}
