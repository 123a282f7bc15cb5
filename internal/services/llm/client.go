package llm

import (
	"context"
	"errors"
	"fmt"
)

// Service names a generation backend a caller may select.
type Service string

const (
	ServiceGemini     Service = "gemini"
	ServiceLlama      Service = "llama"
	ServiceOllama     Service = "ollama"
	ServiceOpenRouter Service = "openrouter"
	ServiceCerebras   Service = "cerebras"
)

// Services lists every supported service in a stable order.
var Services = []Service{ServiceGemini, ServiceLlama, ServiceOllama, ServiceOpenRouter, ServiceCerebras}

// ParseService reports whether s names a supported service.
func ParseService(s string) (Service, bool) {
	for _, svc := range Services {
		if string(svc) == s {
			return svc, true
		}
	}
	return "", false
}

func (s Service) String() string {
	return string(s)
}

// GenerationRequest is the body of POST /api/generate.
type GenerationRequest struct {
	Prompt       string `json:"prompt"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
	Service      string `json:"service"`
}

// GenerationResult is the normalized output of every provider.
type GenerationResult struct {
	Text   string  `json:"text"`
	Source Service `json:"source"`
}

// Provider is implemented by every adapter over an external chat API.
type Provider interface {
	Generate(ctx context.Context, prompt, systemPrompt string) (GenerationResult, error)
}

// Message is a role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// buildMessages returns the system message (when present) followed by the user prompt.
func buildMessages(prompt, systemPrompt string) []Message {
	messages := make([]Message, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: systemPrompt})
	}
	return append(messages, Message{Role: RoleUser, Content: prompt})
}

var (
	ErrInvalidRequest      = errors.New("Prompt and service are required.")
	ErrUnsupportedService  = errors.New("Invalid service selected.")
	ErrMalformedAIResponse = errors.New("AI returned a response that could not be parsed.")
	errMissingAPIKey       = errors.New("missing API key")
)

// GenerationError is returned by adapters. Message is safe to show; Err is
// the upstream cause and is only logged.
type GenerationError struct {
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	return e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func generationFailed(provider string, err error) error {
	return &GenerationError{
		Message: fmt.Sprintf("Failed to generate content from %s.", provider),
		Err:     err,
	}
}

// ProviderError is what the dispatcher hands back when an adapter fails.
type ProviderError struct {
	Service Service
	Err     error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("An error occurred with the %s service.", e.Service)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
