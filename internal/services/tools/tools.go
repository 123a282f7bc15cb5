// Package tools implements the study tools built on top of the generation
// dispatcher: code generation, debugging, document and video summaries,
// resume scoring and roadmap planning.
package tools

import (
	"context"
	"errors"
	"strings"

	"ai-hub/internal/services/llm"
)

var (
	ErrMissingPrompt   = errors.New("Prompt is required.")
	ErrMissingCode     = errors.New("Code is required.")
	ErrMissingTitle    = errors.New("Title is required.")
	ErrMissingVideoURL = errors.New("Video URL is required.")
	ErrEmptySummary    = errors.New("AI failed to generate summary.")
)

const (
	codeGenSystemPrompt = "You are an expert software engineer. Generate clean, correct and well " +
		"structured code for the user's request. Return only the code with brief inline comments " +
		"where they help; do not wrap the answer in prose."

	debugSystemPrompt = "You are a code debugger. Find the bugs in the user's code, explain each " +
		"problem briefly and then give the corrected code."
)

// Generator is the part of the dispatcher the tools use.
type Generator interface {
	Dispatch(ctx context.Context, req llm.GenerationRequest) (llm.GenerationResult, error)
	Generate(ctx context.Context, service llm.Service, prompt, systemPrompt string) (llm.GenerationResult, error)
}

type TextExtractor interface {
	ExtractText(path, mimeType string) (string, error)
}

type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoURL string) (string, error)
}

type Service struct {
	gen         Generator
	extractor   TextExtractor
	transcripts TranscriptFetcher
}

func NewService(gen Generator, extractor TextExtractor, transcripts TranscriptFetcher) *Service {
	return &Service{gen: gen, extractor: extractor, transcripts: transcripts}
}

// Output is the response of the single-provider tools.
type Output struct {
	Output string      `json:"output"`
	Source llm.Service `json:"source"`
}

// CodeGen asks cerebras to write code for prompt.
func (s *Service) CodeGen(ctx context.Context, prompt string) (Output, error) {
	if strings.TrimSpace(prompt) == "" {
		return Output{}, ErrMissingPrompt
	}
	return s.single(ctx, llm.ServiceCerebras, prompt, codeGenSystemPrompt)
}

// Debug asks llama to find and fix the bugs in code.
func (s *Service) Debug(ctx context.Context, code string) (Output, error) {
	if strings.TrimSpace(code) == "" {
		return Output{}, ErrMissingCode
	}
	return s.single(ctx, llm.ServiceLlama, code, debugSystemPrompt)
}

func (s *Service) single(ctx context.Context, service llm.Service, prompt, systemPrompt string) (Output, error) {
	res, err := s.gen.Generate(ctx, service, prompt, systemPrompt)
	if err != nil {
		return Output{}, err
	}
	return Output{Output: res.Text, Source: res.Source}, nil
}

type RoadmapGenerateRequest struct {
	Title        string `json:"title"`
	SystemPrompt string `json:"systemPrompt"`
	Service      string `json:"service"`
}

// RoadmapGenerate expands a roadmap item title with the chosen provider.
func (s *Service) RoadmapGenerate(ctx context.Context, req RoadmapGenerateRequest) (llm.GenerationResult, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return llm.GenerationResult{}, ErrMissingTitle
	}
	return s.gen.Dispatch(ctx, llm.GenerationRequest{
		Prompt:       title,
		SystemPrompt: req.SystemPrompt,
		Service:      withDefault(req.Service, llm.ServiceGemini),
	})
}

func withDefault(service string, def llm.Service) string {
	if service = strings.TrimSpace(service); service != "" {
		return service
	}
	return def.String()
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
