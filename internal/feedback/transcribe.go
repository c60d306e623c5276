package feedback

import (
	"context"
	"log/slog"
	"strings"

	"github.com/partyshah/ai-math-tutor/internal/logging"
)

// TranscriptPlaceholder replaces a segment's transcript when speech-to-text
// fails for that segment alone.
const TranscriptPlaceholder = "Transcription failed"

// Transcriber converts one audio clip to text. Implemented by stt.Client.
type Transcriber interface {
	TranscribeFile(ctx context.Context, path string) (string, error)
}

// TranscribeSegments transcribes each segment independently. A failed
// segment receives the placeholder transcript; it never aborts the others.
// The result is keyed by slide number, later marks overwriting earlier ones
// for revisited slides.
func TranscribeSegments(ctx context.Context, tr Transcriber, segments []AudioSegment, logger *slog.Logger) map[int]SlideTranscript {
	transcripts := make(map[int]SlideTranscript, len(segments))
	for _, segment := range segments {
		text, err := tr.TranscribeFile(ctx, segment.Path)
		if err != nil {
			logger.Error("segment transcription failed", logging.Int("slide", segment.SlideNumber), logging.Error(err))
			text = TranscriptPlaceholder
		} else {
			logger.Info("segment transcribed", logging.Int("slide", segment.SlideNumber), logging.Int("chars", len(text)))
		}
		transcripts[segment.SlideNumber] = SlideTranscript{
			SlideNumber: segment.SlideNumber,
			Transcript:  text,
			StartSec:    segment.StartSec,
			EndSec:      segment.EndSec,
		}
	}
	return transcripts
}

// PseudoSplitTranscript partitions a whole-recording transcript into equal
// word-count chunks, one per mark in mark order. This is the degraded path
// used when audio splitting failed but marks exist; it is strictly worse
// than true audio-boundary splitting.
func PseudoSplitTranscript(full string, ms []TimestampMark, logger *slog.Logger) map[int]SlideTranscript {
	transcripts := make(map[int]SlideTranscript, len(ms))
	if len(ms) == 0 {
		return transcripts
	}

	words := strings.Fields(full)
	perSlide := len(words) / len(ms)

	for i, mark := range ms {
		startWord := i * perSlide
		endWord := (i + 1) * perSlide
		if i == len(ms)-1 {
			endWord = len(words)
		}
		if startWord > len(words) {
			startWord = len(words)
		}
		if endWord > len(words) {
			endWord = len(words)
		}

		var endSec *float64
		if i+1 < len(ms) {
			next := ms[i+1].Timestamp
			endSec = &next
		}
		transcripts[mark.SlideNumber] = SlideTranscript{
			SlideNumber: mark.SlideNumber,
			Transcript:  strings.Join(words[startWord:endWord], " "),
			StartSec:    mark.Timestamp,
			EndSec:      endSec,
		}
	}
	logger.Warn("audio splitting unavailable, partitioned whole transcript by word count",
		logging.Int("marks", len(ms)),
		logging.Int("words", len(words)))
	return transcripts
}
