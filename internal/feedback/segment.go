package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/partyshah/ai-math-tutor/internal/logging"
)

// AudioCutter cuts a WAV recording into sub-clips and reports its duration.
// Implemented by media.Processor; faked in tests.
type AudioCutter interface {
	Duration(ctx context.Context, path string) (float64, error)
	CutSegment(ctx context.Context, source string, startSec float64, endSec *float64, dest string) error
}

// SplitByMarks cuts the recording at source into one segment per mark: mark i
// runs from its timestamp to the next mark's timestamp, the last to the end
// of the recording (nil EndSec). Segments whose start is not before their end
// are skipped. With fewer than two marks, or when cutting fails outright, the
// whole recording is returned as a single segment for slide 1 so playback and
// transcription still work even though per-slide attribution is lost.
func SplitByMarks(ctx context.Context, cutter AudioCutter, source string, ms []TimestampMark, destDir string, logger *slog.Logger) []AudioSegment {
	wholeRecording := []AudioSegment{{SlideNumber: 1, Path: source, StartSec: 0, EndSec: nil}}
	if len(ms) < 2 {
		logger.Info("not enough timestamps for splitting, using whole recording", logging.Int("marks", len(ms)))
		return wholeRecording
	}

	duration, err := cutter.Duration(ctx, source)
	if err != nil {
		logger.Warn("could not probe recording duration, using whole recording", logging.Error(err))
		return wholeRecording
	}

	segments := make([]AudioSegment, 0, len(ms))
	for i, mark := range ms {
		start := mark.Timestamp
		end := duration
		var endPtr *float64
		if i+1 < len(ms) {
			next := ms[i+1].Timestamp
			end = next
			endPtr = &next
		}
		if start >= end {
			logger.Warn("skipping segment with non-positive span",
				logging.Int("slide", mark.SlideNumber),
				logging.Float64("start", start),
				logging.Float64("end", end))
			continue
		}

		dest := filepath.Join(destDir, fmt.Sprintf("segment_slide_%d_%d.wav", mark.SlideNumber, i))
		if err := cutter.CutSegment(ctx, source, start, endPtr, dest); err != nil {
			logger.Error("segment cut failed, using whole recording", logging.Int("slide", mark.SlideNumber), logging.Error(err))
			return wholeRecording
		}
		segments = append(segments, AudioSegment{
			SlideNumber: mark.SlideNumber,
			Path:        dest,
			StartSec:    start,
			EndSec:      endPtr,
		})
		logger.Info("segment cut",
			logging.Int("slide", mark.SlideNumber),
			logging.Float64("start", start),
			logging.Float64("end", end))
	}

	if len(segments) == 0 {
		return wholeRecording
	}
	return segments
}
