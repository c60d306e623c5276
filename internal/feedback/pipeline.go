package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/partyshah/ai-math-tutor/internal/logging"
	"github.com/partyshah/ai-math-tutor/internal/services/llm"
)

// AudioProcessor decodes recordings and cuts them into segments. Implemented
// by media.Processor.
type AudioProcessor interface {
	AudioCutter
	DecodeToWAV(ctx context.Context, source, dest string) error
}

// SegmentStore persists successfully-cut segments under a feedback session
// id. Implemented by artifacts.Store.
type SegmentStore interface {
	SaveSegments(ctx context.Context, sessionID FeedbackSessionID, segments []AudioSegment) (map[int]string, error)
}

// Pipeline runs the full feedback generation flow: reconcile marks, split
// audio, transcribe, generate per-slide and Q&A feedback, and assemble the
// report. One invocation runs its steps strictly in sequence.
type Pipeline struct {
	gen           TextGenerator
	stt           Transcriber
	audio         AudioProcessor
	store         SegmentStore
	logger        *slog.Logger
	maxSlideFloor int
}

// NewPipeline constructs the pipeline. maxSlideFloor is the minimum bound
// used by the final slide-number safety filter.
func NewPipeline(gen TextGenerator, stt Transcriber, audio AudioProcessor, store SegmentStore, logger *slog.Logger, maxSlideFloor int) *Pipeline {
	if maxSlideFloor < 1 {
		maxSlideFloor = 1
	}
	return &Pipeline{
		gen:           gen,
		stt:           stt,
		audio:         audio,
		store:         store,
		logger:        logging.NewComponentLogger(logger, "feedback"),
		maxSlideFloor: maxSlideFloor,
	}
}

// GenerateRequest is one feedback generation invocation.
type GenerateRequest struct {
	Conversation []ConversationTurn
	// DeckText is the full extracted deck text, empty when unavailable.
	DeckText string
	// Recording is the raw uploaded audio blob, nil when no recording was
	// supplied.
	Recording []byte
	// Marks are the client-reported slide-change timestamps.
	Marks []TimestampMark
	// SlideCount is the authoritative PDF page count, 0 when unknown.
	SlideCount int
	// ImageSessionID links previously rendered slide images. When empty the
	// fresh feedback session id doubles as the image session.
	ImageSessionID ImageSessionID
}

// Generate runs the pipeline and returns one complete report. Per-step
// failures degrade locally (placeholder transcripts, in-report error
// entries); only unrecoverable setup failures return an error. Temporary
// segment files are removed on every exit path.
func (p *Pipeline) Generate(ctx context.Context, req GenerateRequest) (*Report, error) {
	tempDir, err := os.MkdirTemp("", "feedback-*")
	if err != nil {
		return nil, fmt.Errorf("feedback generate: temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			p.logger.Warn("temp cleanup failed", logging.String("dir", tempDir), logging.Error(err))
		}
	}()

	transcripts := map[int]SlideTranscript{}
	var cutSegments []AudioSegment

	switch {
	case len(req.Recording) > 0 && len(req.Marks) > 0:
		transcripts, cutSegments, err = p.processRecording(ctx, req, tempDir)
		if err != nil {
			return nil, err
		}
	case len(req.Recording) > 0:
		p.logger.Info("transcribing whole recording, no timestamps supplied")
		rawPath := filepath.Join(tempDir, "recording.bin")
		if err := os.WriteFile(rawPath, req.Recording, 0o644); err != nil {
			return nil, fmt.Errorf("feedback generate: write recording: %w", err)
		}
		if full, err := p.stt.TranscribeFile(ctx, rawPath); err != nil {
			p.logger.Error("whole-recording transcription failed", logging.Error(err))
		} else {
			transcripts[1] = SlideTranscript{SlideNumber: 1, Transcript: full}
		}
	}

	rec := Reconcile(req.Marks, req.SlideCount)
	if rec.Reason != "" {
		p.logger.Info("marks reconciled",
			logging.Int("kept", len(rec.Marks)),
			logging.Int("slide_count", rec.SlideCount),
			logging.Bool("trailing_section", rec.HasTrailingSection),
			logging.String("reason", rec.Reason))
	}

	parts := p.generateParts(ctx, req, rec, transcripts)

	feedbackID := FeedbackSessionID(uuid.NewString())
	imageID := req.ImageSessionID
	if imageID == "" {
		imageID = ImageSessionID(feedbackID)
	}

	savedAudio := map[int]string{}
	if len(transcripts) > 0 && len(cutSegments) > 1 && p.store != nil {
		saved, err := p.store.SaveSegments(ctx, feedbackID, cutSegments)
		if err != nil {
			p.logger.Error("saving audio segments failed", logging.Error(err))
		} else {
			savedAudio = saved
			p.logger.Info("audio segments saved",
				logging.String("session", string(feedbackID)),
				logging.Int("segments", len(saved)))
		}
	}

	report := assembleReport(assembleInput{
		FeedbackSessionID: feedbackID,
		ImageSessionID:    imageID,
		Parts:             parts,
		SlideMarks:        rec.Marks,
		ActualSlideCount:  rec.SlideCount,
		MaxSlideFloor:     p.maxSlideFloor,
		SavedAudio:        savedAudio,
		HasAudio:          len(transcripts) > 0,
		HasConversation:   len(req.Conversation) > 0,
		SplitSucceeded:    len(cutSegments) > 1,
		GeneratedAt:       time.Now().UTC(),
	})
	p.logger.Info("report assembled",
		logging.String("session", string(feedbackID)),
		logging.Int("slides", len(report.Slides)),
		logging.Bool("qa", report.QAFeedback != nil))
	return report, nil
}

// processRecording decodes the upload, splits it at the marks, and
// transcribes the result, degrading through the fallback chain: true split,
// whole-transcript word chunking, whole-recording transcription.
func (p *Pipeline) processRecording(ctx context.Context, req GenerateRequest, tempDir string) (map[int]SlideTranscript, []AudioSegment, error) {
	transcripts := map[int]SlideTranscript{}

	rawPath := filepath.Join(tempDir, "recording.bin")
	if err := os.WriteFile(rawPath, req.Recording, 0o644); err != nil {
		return nil, nil, fmt.Errorf("feedback generate: write recording: %w", err)
	}

	wavPath := filepath.Join(tempDir, "recording.wav")
	if err := p.audio.DecodeToWAV(ctx, rawPath, wavPath); err != nil {
		p.logger.Error("recording decode failed, falling back to whole-recording transcription", logging.Error(err))
		full, sttErr := p.stt.TranscribeFile(ctx, rawPath)
		if sttErr != nil {
			p.logger.Error("whole-recording transcription also failed", logging.Error(sttErr))
			return transcripts, nil, nil
		}
		if len(req.Marks) > 1 {
			return PseudoSplitTranscript(full, req.Marks, p.logger), nil, nil
		}
		transcripts[1] = SlideTranscript{SlideNumber: 1, Transcript: full}
		return transcripts, nil, nil
	}

	segments := SplitByMarks(ctx, p.audio, wavPath, req.Marks, tempDir, p.logger)
	if len(segments) > 1 {
		p.logger.Info("recording split", logging.Int("segments", len(segments)))
		return TranscribeSegments(ctx, p.stt, segments, p.logger), segments, nil
	}

	full, err := p.stt.TranscribeFile(ctx, wavPath)
	if err != nil {
		p.logger.Error("whole-recording transcription failed", logging.Error(err))
		return transcripts, nil, nil
	}
	if len(req.Marks) > 1 {
		return PseudoSplitTranscript(full, req.Marks, p.logger), nil, nil
	}
	transcripts[1] = SlideTranscript{SlideNumber: 1, Transcript: full}
	return transcripts, nil, nil
}

// generateParts produces the ordered feedback blocks for the report: one per
// reconciled slide, plus the Q&A block when it applies.
func (p *Pipeline) generateParts(ctx context.Context, req GenerateRequest, rec Reconciliation, transcripts map[int]SlideTranscript) []string {
	var parts []string

	switch {
	case len(rec.Marks) > 1:
		for _, mark := range rec.Marks {
			transcript, ok := transcripts[mark.SlideNumber]
			if !ok {
				transcript = SlideTranscript{SlideNumber: mark.SlideNumber, Transcript: "Audio not available for this slide"}
			}
			parts = append(parts, GenerateSlideFeedback(ctx, p.gen, mark.SlideNumber, transcript, req.DeckText, p.logger))
		}
		if ShouldGenerateQA(req.Conversation, rec.HasTrailingSection) {
			parts = append(parts, GenerateQAFeedback(ctx, p.gen, req.Conversation, p.logger))
		}

	case len(transcripts) > 1:
		numbers := make([]int, 0, len(transcripts))
		for number := range transcripts {
			numbers = append(numbers, number)
		}
		sort.Ints(numbers)
		for _, number := range numbers {
			parts = append(parts, GenerateSlideFeedback(ctx, p.gen, number, transcripts[number], req.DeckText, p.logger))
		}
		if len(req.Conversation) > 0 {
			parts = append(parts, GenerateQAFeedback(ctx, p.gen, req.Conversation, p.logger))
		}

	default:
		transcript, ok := transcripts[1]
		if !ok {
			transcript = SlideTranscript{SlideNumber: 1, Transcript: "Audio not available"}
		}
		parts = append(parts, GenerateSlideFeedback(ctx, p.gen, 1, transcript, req.DeckText, p.logger))
		if len(req.Conversation) > 0 {
			parts = append(parts, GenerateQAFeedback(ctx, p.gen, req.Conversation, p.logger))
		}
	}
	return parts
}

var _ TextGenerator = (*llm.Client)(nil)
