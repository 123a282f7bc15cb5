package cache

import "time"

const (
	TranscriptTTL = 24 * time.Hour
	OAuthStateTTL = 10 * time.Minute
)

// TranscriptKey is versioned so a change in how transcripts are joined can
// invalidate old entries.
func TranscriptKey(videoID string) string {
	return "transcript:v1:" + videoID
}

func OAuthStateKey(state string) string {
	return "oauth:state:" + state
}
