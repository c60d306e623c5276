package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/partyshah/ai-math-tutor/internal/logging"
)

// SweepResult reports what one sweep removed.
type SweepResult struct {
	AudioSessionsRemoved int
	ImageSessionsRemoved int
}

// Sweep removes audio and image session directories older than maxAge. A
// file lock serializes sweeps so an operator-invoked cleanup and the periodic
// one never race; session creation needs no coordination because only
// directories past the cutoff are touched. Sessions with unreadable metadata
// fall back to directory modification time.
func (s *Store) Sweep(maxAge time.Duration) (SweepResult, error) {
	lock := flock.New(filepath.Join(s.audioDir, ".sweep.lock"))
	if err := os.MkdirAll(s.audioDir, 0o755); err != nil {
		return SweepResult{}, fmt.Errorf("sweep: create audio dir: %w", err)
	}
	locked, err := lock.TryLock()
	if err != nil {
		return SweepResult{}, fmt.Errorf("sweep: acquire lock: %w", err)
	}
	if !locked {
		s.logger.Info("sweep already in progress, skipping")
		return SweepResult{}, nil
	}
	defer func() {
		_ = lock.Unlock()
	}()

	cutoff := s.now().Add(-maxAge)
	result := SweepResult{}

	result.AudioSessionsRemoved = s.sweepDir(s.audioDir, cutoff, true)
	result.ImageSessionsRemoved = s.sweepDir(s.imagesDir, cutoff, false)

	s.logger.Info("session sweep complete",
		logging.Int("audio_removed", result.AudioSessionsRemoved),
		logging.Int("images_removed", result.ImageSessionsRemoved),
		logging.Duration("max_age", maxAge))
	return result, nil
}

func (s *Store) sweepDir(root string, cutoff time.Time, useMetadata bool) int {
	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("sweep: read dir failed", logging.String("dir", root), logging.Error(err))
		}
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sessionDir := filepath.Join(root, entry.Name())
		created, ok := s.sessionCreatedAt(sessionDir, useMetadata)
		if !ok || !created.Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(sessionDir); err != nil {
			s.logger.Warn("sweep: remove failed", logging.String("dir", sessionDir), logging.Error(err))
			continue
		}
		removed++
		s.logger.Info("expired session removed", logging.String("session", entry.Name()))
	}
	return removed
}

func (s *Store) sessionCreatedAt(sessionDir string, useMetadata bool) (time.Time, bool) {
	if useMetadata {
		data, err := os.ReadFile(filepath.Join(sessionDir, metadataFilename))
		if err == nil {
			var meta sessionMetadata
			if err := json.Unmarshal(data, &meta); err == nil && meta.CreatedAt > 0 {
				seconds := int64(meta.CreatedAt)
				nanos := int64((meta.CreatedAt - float64(seconds)) * float64(time.Second))
				return time.Unix(seconds, nanos), true
			}
		}
	}
	info, err := os.Stat(sessionDir)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}
