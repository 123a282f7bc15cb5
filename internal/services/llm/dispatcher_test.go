package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	service Service
	err     error

	mu    sync.Mutex
	calls []fakeCall
}

type fakeCall struct {
	prompt       string
	systemPrompt string
	hasDeadline  bool
}

func (f *fakeProvider) Generate(ctx context.Context, prompt, systemPrompt string) (GenerationResult, error) {
	_, hasDeadline := ctx.Deadline()

	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{prompt: prompt, systemPrompt: systemPrompt, hasDeadline: hasDeadline})
	f.mu.Unlock()

	if f.err != nil {
		return GenerationResult{}, f.err
	}
	return GenerationResult{Text: "reply to " + prompt, Source: f.service}, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newFakeTable() map[Service]*fakeProvider {
	fakes := make(map[Service]*fakeProvider, len(Services))
	for _, svc := range Services {
		fakes[svc] = &fakeProvider{service: svc}
	}
	return fakes
}

func dispatcherFor(fakes map[Service]*fakeProvider, timeout time.Duration) *Dispatcher {
	providers := make(map[Service]Provider, len(fakes))
	for svc, f := range fakes {
		providers[svc] = f
	}
	return NewDispatcher(providers, timeout)
}

func TestDispatchRoutesEverySupportedService(t *testing.T) {
	fakes := newFakeTable()
	d := dispatcherFor(fakes, 0)

	for _, svc := range Services {
		t.Run(svc.String(), func(t *testing.T) {
			result, err := d.Dispatch(context.Background(), GenerationRequest{
				Prompt:       "hello",
				SystemPrompt: "be brief",
				Service:      svc.String(),
			})

			require.NoError(t, err)
			assert.Equal(t, svc, result.Source)
			assert.Equal(t, "reply to hello", result.Text)
			require.Equal(t, 1, fakes[svc].callCount())
			assert.Equal(t, "be brief", fakes[svc].calls[0].systemPrompt)
		})
	}
}

func TestDispatchUnsupportedServiceNeverCallsProvider(t *testing.T) {
	fakes := newFakeTable()
	d := dispatcherFor(fakes, 0)

	for _, name := range []string{"gpt", "GEMINI", "gemini ", "anthropic"} {
		_, err := d.Dispatch(context.Background(), GenerationRequest{Prompt: "hello", Service: name})
		assert.ErrorIs(t, err, ErrUnsupportedService, name)
	}

	for svc, f := range fakes {
		assert.Zero(t, f.callCount(), svc)
	}
}

func TestDispatchKnownServiceWithoutAdapter(t *testing.T) {
	d := NewDispatcher(map[Service]Provider{ServiceGemini: &fakeProvider{service: ServiceGemini}}, 0)

	_, err := d.Dispatch(context.Background(), GenerationRequest{Prompt: "hello", Service: "ollama"})
	assert.ErrorIs(t, err, ErrUnsupportedService)
}

func TestDispatchInvalidRequest(t *testing.T) {
	fakes := newFakeTable()
	d := dispatcherFor(fakes, 0)

	_, err := d.Dispatch(context.Background(), GenerationRequest{Service: "gemini"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = d.Dispatch(context.Background(), GenerationRequest{Prompt: "hello"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	assert.Zero(t, fakes[ServiceGemini].callCount())
}

func TestDispatchWrapsProviderFailure(t *testing.T) {
	cause := errors.New("401 invalid api key sk-secret")
	fakes := newFakeTable()
	fakes[ServiceGemini].err = generationFailed("Gemini", cause)
	d := dispatcherFor(fakes, 0)

	_, err := d.Dispatch(context.Background(), GenerationRequest{Prompt: "hello", Service: "gemini"})

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, ServiceGemini, providerErr.Service)
	assert.Equal(t, "An error occurred with the gemini service.", err.Error())
	assert.NotContains(t, err.Error(), "sk-secret")
	assert.ErrorIs(t, err, cause)
}

func TestDispatchAppliesTimeout(t *testing.T) {
	fakes := newFakeTable()

	dispatcherFor(fakes, time.Minute).Generate(context.Background(), ServiceLlama, "p", "")
	dispatcherFor(fakes, 0).Generate(context.Background(), ServiceLlama, "p", "")

	require.Equal(t, 2, fakes[ServiceLlama].callCount())
	assert.True(t, fakes[ServiceLlama].calls[0].hasDeadline)
	assert.False(t, fakes[ServiceLlama].calls[1].hasDeadline)
}

func TestNewDispatcherCopiesTable(t *testing.T) {
	providers := map[Service]Provider{ServiceGemini: &fakeProvider{service: ServiceGemini}}
	d := NewDispatcher(providers, 0)
	delete(providers, ServiceGemini)

	assert.True(t, d.Has(ServiceGemini))
}

func TestParseService(t *testing.T) {
	svc, ok := ParseService("openrouter")
	assert.True(t, ok)
	assert.Equal(t, ServiceOpenRouter, svc)

	_, ok = ParseService("")
	assert.False(t, ok)
}

func TestBuildMessagesOmitsEmptySystemPrompt(t *testing.T) {
	assert.Equal(t, []Message{{Role: RoleUser, Content: "hi"}}, buildMessages("hi", ""))
	assert.Equal(t, []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hi"},
	}, buildMessages("hi", "sys"))
}
