package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
)

const DefaultOllamaModel = "deepseek-r1:8b"

// OllamaClient targets a local Ollama daemon over its native /api/chat endpoint.
type OllamaClient struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaClient(baseURL string) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   DefaultOllamaModel,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type ollamaChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ollamaChatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error,omitempty"`
}

func (c *OllamaClient) Generate(ctx context.Context, prompt, systemPrompt string) (GenerationResult, error) {
	log.Debug().Str("model", c.model).Msg("Sending request to Ollama")

	text, err := c.chat(ctx, buildMessages(prompt, systemPrompt))
	if err != nil {
		log.Error().Err(err).Str("service", ServiceOllama.String()).Msg("Ollama API error")
		if errors.Is(err, syscall.ECONNREFUSED) {
			return GenerationResult{}, &GenerationError{
				Message: "Failed to connect to Ollama server. Is it running?",
				Err:     err,
			}
		}
		return GenerationResult{}, generationFailed("Ollama", err)
	}

	return GenerationResult{Text: text, Source: ServiceOllama}, nil
}

func (c *OllamaClient) chat(ctx context.Context, messages []Message) (string, error) {
	body, err := sonic.Marshal(ollamaChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var result ollamaChatResponse
	if err := sonic.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, result.Error)
	}

	return result.Message.Content, nil
}
