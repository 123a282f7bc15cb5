package llm

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedChat struct {
	Model               string    `json:"model"`
	Messages            []Message `json:"messages"`
	MaxTokens           int64     `json:"max_tokens"`
	MaxCompletionTokens int64     `json:"max_completion_tokens"`
	Temperature         float64   `json:"temperature"`
	TopP                float64   `json:"top_p"`
	Stream              bool      `json:"stream"`
}

func chatCompletionServer(t *testing.T, content string, captured *capturedChat, headers *http.Header) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		if headers != nil {
			*headers = r.Header.Clone()
		}

		w.Header().Set("Content-Type", "application/json")
		choices := []map[string]any{}
		if content != "" {
			choices = append(choices, map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			})
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "test-model",
			"choices": choices,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLlamaClientBuildsMessages(t *testing.T) {
	var captured capturedChat
	srv := chatCompletionServer(t, "  llama says hi \n", &captured, nil)

	result, err := NewLlamaClient(srv.URL, "hf-token").Generate(context.Background(), "hello", "you are terse")
	require.NoError(t, err)

	assert.Equal(t, GenerationResult{Text: "llama says hi", Source: ServiceLlama}, result)
	assert.Equal(t, "meta-llama/Meta-Llama-3-8B-Instruct", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, Message{Role: RoleSystem, Content: "you are terse"}, captured.Messages[0])
	assert.Equal(t, Message{Role: RoleUser, Content: "hello"}, captured.Messages[1])
}

func TestCerebrasClientSendsFixedParams(t *testing.T) {
	var captured capturedChat
	srv := chatCompletionServer(t, "code", &captured, nil)

	result, err := NewCerebrasClient(srv.URL, "key").Generate(context.Background(), "write a loop", "")
	require.NoError(t, err)

	assert.Equal(t, ServiceCerebras, result.Source)
	assert.Equal(t, "zai-glm-4.6", captured.Model)
	assert.Equal(t, int64(40960), captured.MaxCompletionTokens)
	assert.InDelta(t, 0.6, captured.Temperature, 1e-9)
	assert.InDelta(t, 0.95, captured.TopP, 1e-9)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, RoleUser, captured.Messages[0].Role)
}

func TestOpenRouterClientCleansTokensAndSetsHeaders(t *testing.T) {
	var captured capturedChat
	var headers http.Header
	srv := chatCompletionServer(t, "<s>[INST] <|assistant|>Answer here[/INST]</s>", &captured, &headers)

	result, err := NewOpenRouterClient(srv.URL, "or-key", "http://localhost:5173").Generate(context.Background(), "q", "")
	require.NoError(t, err)

	assert.Equal(t, "Answer here", result.Text)
	assert.Equal(t, ServiceOpenRouter, result.Source)
	assert.Equal(t, int64(1000), captured.MaxTokens)
	assert.Equal(t, "http://localhost:5173", headers.Get("HTTP-Referer"))
	assert.Equal(t, "ai-hub", headers.Get("X-Title"))
	assert.Equal(t, "Bearer or-key", headers.Get("Authorization"))
}

func TestOpenRouterClientRequiresChoices(t *testing.T) {
	srv := chatCompletionServer(t, "", nil, nil)

	_, err := NewOpenRouterClient(srv.URL, "or-key", "").Generate(context.Background(), "q", "")
	require.Error(t, err)
	assert.Equal(t, "Failed to generate content from OpenRouter.", err.Error())
}

func TestOpenAIClientMissingKeySkipsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := NewCerebrasClient(srv.URL, "").Generate(context.Background(), "q", "")

	require.Error(t, err)
	assert.ErrorIs(t, err, errMissingAPIKey)
	assert.Equal(t, "Failed to generate content from Cerebras.", err.Error())
	assert.False(t, called)
}

func TestOpenAIClientUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := NewLlamaClient(srv.URL, "wrong").Generate(context.Background(), "q", "")

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "Failed to generate content from Llama.", genErr.Message)
}

func TestCleanModelTokens(t *testing.T) {
	tests := map[string]string{
		"<s>hello</s>":                    "hello",
		"[OUT]result[/OUT]":               "result",
		"[inst]q[/inst] a":                "q a",
		"<|im_start|>text<|im_end|>":      "text",
		"  plain text  ":                  "plain text",
		"keep <b>html</b> and [links](x)": "keep <b>html</b> and [links](x)",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanModelTokens(in), in)
	}
}

func TestOllamaClientChat(t *testing.T) {
	var captured capturedChat
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"deepseek-r1:8b","message":{"role":"assistant","content":"local answer"},"done":true}`))
	}))
	defer srv.Close()

	result, err := NewOllamaClient(srv.URL+"/").Generate(context.Background(), "hello", "sys")
	require.NoError(t, err)

	assert.Equal(t, GenerationResult{Text: "local answer", Source: ServiceOllama}, result)
	assert.Equal(t, DefaultOllamaModel, captured.Model)
	assert.False(t, captured.Stream)
	assert.Len(t, captured.Messages, 2)
}

func TestOllamaClientUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model 'deepseek-r1:8b' not found"}`))
	}))
	defer srv.Close()

	_, err := NewOllamaClient(srv.URL).Generate(context.Background(), "hello", "")
	require.Error(t, err)
	assert.Equal(t, "Failed to generate content from Ollama.", err.Error())
}

func TestOllamaClientConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = NewOllamaClient("http://"+addr).Generate(context.Background(), "hello", "")
	require.Error(t, err)
	assert.Equal(t, "Failed to connect to Ollama server. Is it running?", err.Error())
}

func TestGeminiClientMissingKey(t *testing.T) {
	_, err := NewGeminiClient("", "", "").Generate(context.Background(), "hello", "")

	require.Error(t, err)
	assert.ErrorIs(t, err, errMissingAPIKey)
	assert.Equal(t, "Failed to generate content from Gemini.", err.Error())
}

func TestOllamaClientNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	}))
	defer srv.Close()

	_, err := NewOllamaClient(srv.URL).Generate(context.Background(), "hello", "")
	require.Error(t, err)
	assert.Equal(t, "Failed to generate content from Ollama.", err.Error())
}
