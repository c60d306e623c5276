package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/partyshah/ai-math-tutor/internal/feedback"
	"github.com/partyshah/ai-math-tutor/internal/logging"
)

const metadataFilename = "metadata.json"

var _ feedback.SegmentStore = (*Store)(nil)

// ImageKind selects the rendered variant of a slide image.
type ImageKind string

const (
	ImageThumbnail ImageKind = "thumbnail"
	ImageFull      ImageKind = "full"
)

// sessionMetadata is written next to every audio session's segments so the
// sweep can age sessions without trusting directory mtimes.
type sessionMetadata struct {
	CreatedAt  float64 `json:"created_at"`
	SlideCount int     `json:"slide_count"`
	Slides     []int   `json:"slides"`
}

// Store reads and writes session-scoped artifacts on disk.
type Store struct {
	audioDir  string
	imagesDir string
	logger    *slog.Logger

	now func() time.Time
}

// NewStore constructs a Store rooted at the given audio and image session
// directories.
func NewStore(audioDir, imagesDir string, logger *slog.Logger) *Store {
	return &Store{
		audioDir:  audioDir,
		imagesDir: imagesDir,
		logger:    logging.NewComponentLogger(logger, "artifacts"),
		now:       time.Now,
	}
}

// validSessionID reports whether id is usable as a single path segment under
// a session root. Ids arrive from URL paths, so anything that resolves
// outside its own directory is rejected.
func validSessionID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	if strings.ContainsAny(id, `/\`) {
		return false
	}
	return filepath.Base(id) == id
}

// SaveSegments copies cut audio segments into permanent storage under the
// feedback session id and records session metadata. It returns the slide
// numbers saved mapped to their permanent paths.
func (s *Store) SaveSegments(ctx context.Context, sessionID feedback.FeedbackSessionID, segments []feedback.AudioSegment) (map[int]string, error) {
	if !validSessionID(string(sessionID)) {
		return nil, fmt.Errorf("save segments: invalid session id %q", sessionID)
	}
	sessionDir := filepath.Join(s.audioDir, string(sessionID))
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return nil, fmt.Errorf("save segments: create session dir: %w", err)
	}

	saved := make(map[int]string, len(segments))
	for _, segment := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dest := filepath.Join(sessionDir, fmt.Sprintf("slide_%d.wav", segment.SlideNumber))
		if err := copyFile(segment.Path, dest); err != nil {
			return nil, fmt.Errorf("save segments: slide %d: %w", segment.SlideNumber, err)
		}
		saved[segment.SlideNumber] = dest
	}

	slides := make([]int, 0, len(saved))
	for slide := range saved {
		slides = append(slides, slide)
	}
	sort.Ints(slides)
	meta := sessionMetadata{
		CreatedAt:  float64(s.now().UnixNano()) / float64(time.Second),
		SlideCount: len(saved),
		Slides:     slides,
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("save segments: encode metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(sessionDir, metadataFilename), encoded, 0o644); err != nil {
		return nil, fmt.Errorf("save segments: write metadata: %w", err)
	}

	s.logger.Info("audio segments saved",
		logging.String("session", string(sessionID)),
		logging.Int("segments", len(saved)))
	return saved, nil
}

// AudioSegmentPath returns the stored clip for a slide, or "" when the
// session or slide has no persisted audio.
func (s *Store) AudioSegmentPath(sessionID string, slideNumber int) string {
	if !validSessionID(sessionID) {
		return ""
	}
	path := filepath.Join(s.audioDir, sessionID, fmt.Sprintf("slide_%d.wav", slideNumber))
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// SlideImagePath returns the rendered image for a slide, or "" when it was
// never rendered. Thumbnails are stored with a "thumb" suffix.
func (s *Store) SlideImagePath(sessionID string, slideNumber int, kind ImageKind) string {
	if !validSessionID(sessionID) {
		return ""
	}
	suffix := "full"
	if kind == ImageThumbnail {
		suffix = "thumb"
	}
	path := filepath.Join(s.imagesDir, sessionID, fmt.Sprintf("slide_%d_%s.png", slideNumber, suffix))
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// ImageSessionDir returns the directory slide images for a session are
// rendered into, creating it if needed.
func (s *Store) ImageSessionDir(sessionID string) (string, error) {
	if !validSessionID(sessionID) {
		return "", fmt.Errorf("image session dir: invalid session id %q", sessionID)
	}
	dir := filepath.Join(s.imagesDir, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("image session dir: %w", err)
	}
	return dir, nil
}

// RemoveAudioSession deletes all stored segments for one session.
func (s *Store) RemoveAudioSession(sessionID string) error {
	if !validSessionID(sessionID) {
		return fmt.Errorf("remove audio session: invalid session id %q", sessionID)
	}
	return os.RemoveAll(filepath.Join(s.audioDir, sessionID))
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
