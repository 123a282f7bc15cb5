package tools

import (
	"context"
	"strings"
	"unicode/utf8"

	"ai-hub/internal/services/llm"
	"ai-hub/internal/services/transcript"
)

const (
	TranscriptManual = "manual"
	TranscriptAuto   = "auto"
)

const maxTranscriptChars = 40000

type VideoSummaryRequest struct {
	VideoURL       string `json:"videoUrl"`
	TranscriptText string `json:"transcriptText,omitempty"`
	Service        string `json:"service,omitempty"`
}

type VideoSummary struct {
	Summary        string      `json:"summary"`
	TranscriptUsed string      `json:"transcriptUsed"`
	Source         llm.Service `json:"source"`
}

// SummarizeVideo summarizes a video from the pasted transcript, or from its
// captions when none is pasted. service defaults to openrouter.
func (s *Service) SummarizeVideo(ctx context.Context, req VideoSummaryRequest) (VideoSummary, error) {
	if strings.TrimSpace(req.VideoURL) == "" {
		return VideoSummary{}, ErrMissingVideoURL
	}

	used := TranscriptManual
	text := strings.TrimSpace(req.TranscriptText)
	if text == "" {
		used = TranscriptAuto
		fetched, err := s.transcripts.Fetch(ctx, req.VideoURL)
		if err != nil {
			return VideoSummary{}, err
		}
		text = fetched
	}
	if utf8.RuneCountInString(text) < transcript.MinTranscriptLength {
		return VideoSummary{}, transcript.ErrTranscriptTooShort
	}

	res, err := s.gen.Dispatch(ctx, llm.GenerationRequest{
		Prompt:  videoPrompt(truncate(text, maxTranscriptChars)),
		Service: withDefault(req.Service, llm.ServiceOpenRouter),
	})
	if err != nil {
		return VideoSummary{}, err
	}
	if strings.TrimSpace(res.Text) == "" {
		return VideoSummary{}, ErrEmptySummary
	}

	return VideoSummary{Summary: res.Text, TranscriptUsed: used, Source: res.Source}, nil
}

func videoPrompt(text string) string {
	return "Summarize the YouTube video into 5-8 bullet points based ONLY on the transcript.\n\n" +
		"Transcript:\n" + text + "\n\n" +
		"Rules:\n- Accurate\n- No hallucinations\n- Use bullet points\n"
}
