package tools

import (
	"context"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"ai-hub/internal/services/llm"
)

const (
	maxResumeChars   = 15000
	maxDocumentChars = 30000
)

const resumeSystemPrompt = `You are an expert resume reviewer. Score the resume from 0 to 100 for
overall quality and give 3 to 6 short, concrete improvement tips.
Respond with JSON only, exactly in this shape: {"score": <integer>, "tips": ["...", "..."]}`

const summarySystemPrompt = "You summarize documents for students. Write a concise summary of the " +
	"document that keeps its key ideas, definitions and conclusions. Use short paragraphs or bullet points."

// ResumeScore is the structured result of a resume review.
type ResumeScore struct {
	Score int      `json:"score"`
	Tips  []string `json:"tips"`
}

// AnalyzeResume extracts the uploaded resume and asks gemini to score it.
func (s *Service) AnalyzeResume(ctx context.Context, path, mimeType string) (ResumeScore, error) {
	text, err := s.extractor.ExtractText(path, mimeType)
	if err != nil {
		return ResumeScore{}, err
	}

	res, err := s.gen.Generate(ctx, llm.ServiceGemini, "Resume:\n\n"+truncate(text, maxResumeChars), resumeSystemPrompt)
	if err != nil {
		return ResumeScore{}, err
	}

	var raw struct {
		Score float64  `json:"score"`
		Tips  []string `json:"tips"`
	}
	if err := llm.RepairJSON(res.Text, &raw); err != nil {
		log.Warn().Err(err).Str("service", res.Source.String()).Msg("Unparseable resume analysis")
		return ResumeScore{}, err
	}

	return ResumeScore{Score: clampScore(raw.Score), Tips: cleanTips(raw.Tips)}, nil
}

func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(100, v))))
}

func cleanTips(tips []string) []string {
	out := make([]string, 0, len(tips))
	for _, t := range tips {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

type Summary struct {
	Summary string `json:"summary"`
}

// SummarizeText summarizes an uploaded text or PDF file. service defaults to gemini.
func (s *Service) SummarizeText(ctx context.Context, path, mimeType, service string) (Summary, error) {
	text, err := s.extractor.ExtractText(path, mimeType)
	if err != nil {
		return Summary{}, err
	}

	res, err := s.gen.Dispatch(ctx, llm.GenerationRequest{
		Prompt:       "Summarize the following document:\n\n" + truncate(strings.TrimSpace(text), maxDocumentChars),
		SystemPrompt: summarySystemPrompt,
		Service:      withDefault(service, llm.ServiceGemini),
	})
	if err != nil {
		return Summary{}, err
	}
	return Summary{Summary: res.Text}, nil
}
