package llm

import (
	"regexp"
	"strings"

	"github.com/openai/openai-go/v2/option"
)

const (
	HuggingFaceBaseURL = "https://router.huggingface.co/v1"
	CerebrasBaseURL    = "https://api.cerebras.ai/v1"
	OpenRouterBaseURL  = "https://openrouter.ai/api/v1"
)

// NewLlamaClient serves Meta Llama 3 through the Hugging Face inference router.
func NewLlamaClient(baseURL, token string) *OpenAIClient {
	if baseURL == "" {
		baseURL = HuggingFaceBaseURL
	}
	return newOpenAIClient(ServiceLlama, "Llama", baseURL, token, chatParams{
		Model: "meta-llama/Meta-Llama-3-8B-Instruct",
	})
}

func NewCerebrasClient(baseURL, apiKey string) *OpenAIClient {
	if baseURL == "" {
		baseURL = CerebrasBaseURL
	}
	return newOpenAIClient(ServiceCerebras, "Cerebras", baseURL, apiKey, chatParams{
		Model:               "zai-glm-4.6",
		MaxCompletionTokens: 40960,
		Temperature:         0.6,
		TopP:                0.95,
	})
}

// NewOpenRouterClient identifies the app to OpenRouter via HTTP-Referer and
// X-Title, and strips chat-template tokens some hosted models leak.
func NewOpenRouterClient(baseURL, apiKey, referer string) *OpenAIClient {
	if baseURL == "" {
		baseURL = OpenRouterBaseURL
	}
	c := newOpenAIClient(ServiceOpenRouter, "OpenRouter", baseURL, apiKey, chatParams{
		Model:     "mistralai/mistral-7b-instruct",
		MaxTokens: 1000,
	},
		option.WithHeader("HTTP-Referer", referer),
		option.WithHeader("X-Title", "ai-hub"),
	)
	c.requireChoices = true
	c.postProcess = CleanModelTokens
	return c
}

var (
	sentenceTokenRe = regexp.MustCompile(`(?i)</?s>`)
	outTokenRe      = regexp.MustCompile(`(?i)\[/?OUT\]`)
	instTokenRe     = regexp.MustCompile(`(?i)\[/?INST\]`)
	sentinelRe      = regexp.MustCompile(`<\|.*?\|>`)
)

// CleanModelTokens removes <s>, </s>, [OUT], [/OUT], [INST], [/INST] and <|...|> markers.
func CleanModelTokens(text string) string {
	text = sentenceTokenRe.ReplaceAllString(text, "")
	text = outTokenRe.ReplaceAllString(text, "")
	text = instTokenRe.ReplaceAllString(text, "")
	text = sentinelRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
