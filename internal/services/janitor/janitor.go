package janitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Janitor periodically removes upload files older than MaxAge. Handlers
// release their own uploads; this catches files left behind by crashes or
// aborted requests.
type Janitor struct {
	dir    string
	maxAge time.Duration
	now    func() time.Time

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

func New(dir string, maxAge time.Duration) *Janitor {
	return &Janitor{
		dir:    dir,
		maxAge: maxAge,
		now:    time.Now,
		done:   make(chan struct{}),
	}
}

// Start runs a sweep every interval until Stop is called or ctx ends.
func (j *Janitor) Start(ctx context.Context, interval time.Duration) {
	j.ticker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				if _, err := j.Sweep(); err != nil {
					log.Error().Err(err).Str("dir", j.dir).Msg("Failed to sweep upload directory")
				}
			case <-j.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info().Dur("interval", interval).Dur("max_age", j.maxAge).Msg("Upload janitor started")
}

func (j *Janitor) Stop() {
	j.stopOnce.Do(func() {
		if j.ticker != nil {
			j.ticker.Stop()
		}
		close(j.done)
		log.Info().Msg("Upload janitor stopped")
	})
}

// Sweep deletes regular files in the upload directory whose modification
// time is older than MaxAge and returns how many were removed.
func (j *Janitor) Sweep() (int, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := j.now().Add(-j.maxAge)
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(j.dir, e.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", path).Msg("Failed to remove stale upload")
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Debug().Int("removed", removed).Str("dir", j.dir).Msg("Removed stale uploads")
	}
	return removed, nil
}
