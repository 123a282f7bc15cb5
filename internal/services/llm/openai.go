package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/rs/zerolog/log"
)

// chatParams are the fixed generation settings of one OpenAI-compatible provider.
// Zero values are left out of the request.
type chatParams struct {
	Model               string
	MaxTokens           int64
	MaxCompletionTokens int64
	Temperature         float64
	TopP                float64
}

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
// Llama (Hugging Face router), Cerebras and OpenRouter are all built on it.
type OpenAIClient struct {
	client      openai.Client
	service     Service
	displayName string
	hasKey      bool
	params      chatParams
	// requireChoices makes an empty choices array an error rather than empty text.
	requireChoices bool
	postProcess    func(string) string
}

func newOpenAIClient(service Service, displayName, baseURL, apiKey string, params chatParams, opts ...option.RequestOption) *OpenAIClient {
	clientOpts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	clientOpts = append(clientOpts, opts...)

	return &OpenAIClient{
		client:      openai.NewClient(clientOpts...),
		service:     service,
		displayName: displayName,
		hasKey:      apiKey != "",
		params:      params,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt, systemPrompt string) (GenerationResult, error) {
	text, err := c.complete(ctx, prompt, systemPrompt)
	if err != nil {
		log.Error().Err(err).Str("service", c.service.String()).Msg(c.displayName + " API error")
		return GenerationResult{}, generationFailed(c.displayName, err)
	}

	if c.postProcess != nil {
		text = c.postProcess(text)
	}

	return GenerationResult{Text: text, Source: c.service}, nil
}

func (c *OpenAIClient) complete(ctx context.Context, prompt, systemPrompt string) (string, error) {
	if !c.hasKey {
		return "", errMissingAPIKey
	}

	completion, err := c.client.Chat.Completions.New(ctx, c.newParams(prompt, systemPrompt))
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(completion.Choices) == 0 {
		if c.requireChoices {
			return "", errors.New("no choices in response")
		}
		return "", nil
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) newParams(prompt, systemPrompt string) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	for _, m := range buildMessages(prompt, systemPrompt) {
		switch m.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.params.Model),
		Messages: messages,
	}
	if c.params.MaxTokens > 0 {
		params.MaxTokens = openai.Int(c.params.MaxTokens)
	}
	if c.params.MaxCompletionTokens > 0 {
		params.MaxCompletionTokens = openai.Int(c.params.MaxCompletionTokens)
	}
	if c.params.Temperature > 0 {
		params.Temperature = openai.Float(c.params.Temperature)
	}
	if c.params.TopP > 0 {
		params.TopP = openai.Float(c.params.TopP)
	}
	return params
}
