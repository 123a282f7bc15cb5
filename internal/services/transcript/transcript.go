// Package transcript resolves video URLs to caption text for summarization.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog/log"

	"ai-hub/internal/cache"
)

// MinTranscriptLength is the shortest transcript worth summarizing.
const MinTranscriptLength = 50

var (
	ErrInvalidVideoURL       = errors.New("Invalid YouTube URL.")
	ErrNoTranscriptAvailable = errors.New("This video has no transcript available. Paste manually.")
	ErrTranscriptTooShort    = errors.New("Transcript too short to summarize.")
)

var videoIDRe = regexp.MustCompile(`(?:v=|youtu\.be/|/shorts/|/embed/)([a-zA-Z0-9_-]{11})`)

// VideoID extracts the 11 character YouTube video id from a watch, short-link,
// shorts or embed URL.
func VideoID(videoURL string) (string, error) {
	raw := strings.TrimSpace(videoURL)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || !isYouTubeHost(u.Hostname()) {
		return "", ErrInvalidVideoURL
	}

	match := videoIDRe.FindStringSubmatch(raw)
	if match == nil {
		return "", ErrInvalidVideoURL
	}
	return match[1], nil
}

func isYouTubeHost(host string) bool {
	host = strings.ToLower(host)
	return host == "youtu.be" || host == "youtube.com" || strings.HasSuffix(host, ".youtube.com")
}

// CaptionSource returns the caption segments of a video in order.
type CaptionSource interface {
	Captions(ctx context.Context, videoID string) ([]string, error)
}

// Cache is the subset of the Redis wrapper the fetcher needs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type Fetcher struct {
	source CaptionSource
	cache  Cache
}

// NewFetcher creates a Fetcher. cache may be nil.
func NewFetcher(source CaptionSource, cache Cache) *Fetcher {
	return &Fetcher{source: source, cache: cache}
}

// Fetch returns the transcript of the video at videoURL as one space-joined string.
func (f *Fetcher) Fetch(ctx context.Context, videoURL string) (string, error) {
	videoID, err := VideoID(videoURL)
	if err != nil {
		return "", err
	}

	if text, ok := f.cached(ctx, videoID); ok {
		return text, nil
	}

	log.Info().Str("video_id", videoID).Msg("Fetching transcript")

	segments, err := f.source.Captions(ctx, videoID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoTranscriptAvailable, err)
	}
	text := joinSegments(segments)
	if text == "" {
		return "", ErrNoTranscriptAvailable
	}
	if utf8.RuneCountInString(text) < MinTranscriptLength {
		return "", ErrTranscriptTooShort
	}

	log.Info().Str("video_id", videoID).Int("length", len(text)).Msg("Transcript fetched")

	if f.cache != nil {
		if err := f.cache.Set(ctx, cache.TranscriptKey(videoID), text, cache.TranscriptTTL); err != nil {
			log.Warn().Err(err).Str("video_id", videoID).Msg("Failed to cache transcript")
		}
	}
	return text, nil
}

func (f *Fetcher) cached(ctx context.Context, videoID string) (string, bool) {
	if f.cache == nil {
		return "", false
	}
	data, err := f.cache.Get(ctx, cache.TranscriptKey(videoID))
	if err != nil {
		if !errors.Is(err, cache.ErrKeyNotFound) {
			log.Warn().Err(err).Str("video_id", videoID).Msg("Transcript cache read failed")
		}
		return "", false
	}
	return string(data), true
}

func joinSegments(segments []string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// YouTubeSource reads published captions through the YouTube innertube API.
type YouTubeSource struct {
	client *youtube.Client
	lang   string
}

func NewYouTubeSource(lang string) *YouTubeSource {
	if lang == "" {
		lang = "en"
	}
	return &YouTubeSource{client: &youtube.Client{}, lang: lang}
}

func (s *YouTubeSource) Captions(ctx context.Context, videoID string) ([]string, error) {
	video, err := s.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}

	transcript, err := s.client.GetTranscriptCtx(ctx, video, s.lang)
	if err != nil {
		return nil, fmt.Errorf("get transcript: %w", err)
	}

	segments := make([]string, 0, len(transcript))
	for _, seg := range transcript {
		segments = append(segments, seg.Text)
	}
	return segments, nil
}
