package transcript

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-hub/internal/cache"
)

func TestVideoID(t *testing.T) {
	valid := []string{
		"https://youtu.be/abc123XYZ_-",
		"https://www.youtube.com/watch?v=abc123XYZ_-",
		"https://youtube.com/watch?feature=share&v=abc123XYZ_-",
		"https://m.youtube.com/watch?v=abc123XYZ_-&t=42",
		"https://www.youtube.com/shorts/abc123XYZ_-",
		"https://www.youtube.com/embed/abc123XYZ_-",
		"youtu.be/abc123XYZ_-?si=tracking",
	}
	for _, u := range valid {
		id, err := VideoID(u)
		require.NoError(t, err, u)
		assert.Equal(t, "abc123XYZ_-", id, u)
	}
}

func TestVideoIDInvalid(t *testing.T) {
	invalid := []string{
		"",
		"https://vimeo.com/123456789",
		"https://example.com/watch?v=abc123XYZ_-",
		"https://www.youtube.com/watch?v=short",
		"https://www.youtube.com/",
		"not a url",
	}
	for _, u := range invalid {
		_, err := VideoID(u)
		assert.ErrorIs(t, err, ErrInvalidVideoURL, u)
	}
}

type fakeSource struct {
	segments []string
	err      error
	calls    int
}

func (f *fakeSource) Captions(ctx context.Context, videoID string) ([]string, error) {
	f.calls++
	return f.segments, f.err
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  map[string]time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, cache.ErrKeyNotFound
	}
	return v, nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = []byte(value.(string))
	m.ttl[key] = ttl
	return nil
}

var lecture = []string{
	"welcome to the lecture ",
	"today we cover goroutines",
	"",
	"and channels in depth with examples",
}

func TestFetchJoinsSegments(t *testing.T) {
	src := &fakeSource{segments: lecture}

	text, err := NewFetcher(src, nil).Fetch(context.Background(), "https://youtu.be/abc123XYZ_-")
	require.NoError(t, err)
	assert.Equal(t, "welcome to the lecture today we cover goroutines and channels in depth with examples", text)
}

func TestFetchInvalidURLSkipsSource(t *testing.T) {
	src := &fakeSource{segments: lecture}

	_, err := NewFetcher(src, nil).Fetch(context.Background(), "https://vimeo.com/1")
	assert.ErrorIs(t, err, ErrInvalidVideoURL)
	assert.Zero(t, src.calls)
}

func TestFetchNoTranscript(t *testing.T) {
	_, err := NewFetcher(&fakeSource{}, nil).Fetch(context.Background(), "https://youtu.be/abc123XYZ_-")
	assert.ErrorIs(t, err, ErrNoTranscriptAvailable)

	cause := errors.New("transcript disabled")
	_, err = NewFetcher(&fakeSource{err: cause}, nil).Fetch(context.Background(), "https://youtu.be/abc123XYZ_-")
	assert.ErrorIs(t, err, ErrNoTranscriptAvailable)
	assert.ErrorIs(t, err, cause)
}

func TestFetchBlankSegments(t *testing.T) {
	src := &fakeSource{segments: []string{" ", "\n", ""}}

	_, err := NewFetcher(src, nil).Fetch(context.Background(), "https://youtu.be/abc123XYZ_-")
	assert.ErrorIs(t, err, ErrNoTranscriptAvailable)
	assert.NotErrorIs(t, err, ErrTranscriptTooShort)
}

func TestFetchTooShort(t *testing.T) {
	src := &fakeSource{segments: []string{"[Music]", "hi"}}

	_, err := NewFetcher(src, nil).Fetch(context.Background(), "https://youtu.be/abc123XYZ_-")
	assert.ErrorIs(t, err, ErrTranscriptTooShort)
}

func TestFetchUsesCache(t *testing.T) {
	mc := newMemoryCache()
	src := &fakeSource{segments: lecture}
	f := NewFetcher(src, mc)

	first, err := f.Fetch(context.Background(), "https://www.youtube.com/watch?v=abc123XYZ_-")
	require.NoError(t, err)
	second, err := f.Fetch(context.Background(), "https://youtu.be/abc123XYZ_-")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, cache.TranscriptTTL, mc.ttl[cache.TranscriptKey("abc123XYZ_-")])
}

func TestFetchDoesNotCacheFailures(t *testing.T) {
	mc := newMemoryCache()
	_, err := NewFetcher(&fakeSource{segments: []string{"short"}}, mc).Fetch(context.Background(), "https://youtu.be/abc123XYZ_-")
	require.Error(t, err)
	assert.Empty(t, mc.data)
}

func TestJoinSegmentsTrims(t *testing.T) {
	assert.Equal(t, "a b", joinSegments([]string{"  a ", "\n", "b"}))
	assert.Equal(t, "", joinSegments(nil))
	assert.False(t, strings.HasPrefix(joinSegments([]string{" x"}), " "))
}
