package feedback

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/partyshah/ai-math-tutor/internal/logging"
	"github.com/partyshah/ai-math-tutor/internal/services/llm"
)

type fakeGenerator struct {
	failSlides map[int]bool
	failQA     bool
	calls      []string
	systems    map[int]string
}

func (f *fakeGenerator) Complete(_ context.Context, req llm.Request) (string, error) {
	if strings.Contains(req.System, "Q&A portion") {
		f.calls = append(f.calls, "qa")
		if f.failQA {
			return "", errors.New("qa model error")
		}
		return "**Q&A Session:**\n- Impromptu response: ✓ - cited real metrics\n- Composure: ✓ - stayed calm", nil
	}
	var slide int
	fmt.Sscanf(req.Messages[0].Content, "Analyze slide %d", &slide)
	f.calls = append(f.calls, fmt.Sprintf("slide-%d", slide))
	if f.systems == nil {
		f.systems = map[int]string{}
	}
	f.systems[slide] = req.System
	if f.failSlides[slide] {
		return "", errors.New("model error")
	}
	return fmt.Sprintf("**Slide %d:**\n- Content structuring: ✓ - clear\n- Delivery: ✓ - steady\n- Impromptu response: N/A - later\n- Composure: N/A - later", slide), nil
}

type fakeAudio struct {
	decodeErr error
	probeErr  error
	cutErr    error
	duration  float64
}

func (f *fakeAudio) DecodeToWAV(_ context.Context, _, dest string) error {
	if f.decodeErr != nil {
		return f.decodeErr
	}
	return os.WriteFile(dest, []byte("wav"), 0o644)
}

func (f *fakeAudio) Duration(_ context.Context, _ string) (float64, error) {
	if f.probeErr != nil {
		return 0, f.probeErr
	}
	return f.duration, nil
}

func (f *fakeAudio) CutSegment(_ context.Context, _ string, _ float64, _ *float64, dest string) error {
	if f.cutErr != nil {
		return f.cutErr
	}
	return os.WriteFile(dest, []byte("segment"), 0o644)
}

type fakeStt struct {
	text string
	err  error
}

func (f *fakeStt) TranscribeFile(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

type fakeStore struct {
	saved   map[FeedbackSessionID][]AudioSegment
	saveErr error
}

func (f *fakeStore) SaveSegments(_ context.Context, id FeedbackSessionID, segments []AudioSegment) (map[int]string, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	if f.saved == nil {
		f.saved = map[FeedbackSessionID][]AudioSegment{}
	}
	f.saved[id] = segments
	paths := make(map[int]string, len(segments))
	for _, seg := range segments {
		paths[seg.SlideNumber] = fmt.Sprintf("/stored/%s/slide_%d.wav", id, seg.SlideNumber)
	}
	return paths, nil
}

func newTestPipeline(gen TextGenerator, tr Transcriber, audio AudioProcessor, store SegmentStore) *Pipeline {
	return NewPipeline(gen, tr, audio, store, logging.NewNop(), 4)
}

func fullRequest() GenerateRequest {
	return GenerateRequest{
		Conversation: []ConversationTurn{
			{Role: "assistant", Content: "What is your churn?"},
			{Role: "user", Content: "Two percent monthly."},
			{Role: "assistant", Content: "How do you know?"},
			{Role: "user", Content: "Cohort analysis."},
		},
		DeckText:  "Problem. Solution. Market.",
		Recording: []byte("audio-bytes"),
		Marks:     marks([2]float64{1, 0}, [2]float64{2, 10}, [2]float64{3, 25}),
	}
}

func TestGenerateFullPipeline(t *testing.T) {
	gen := &fakeGenerator{}
	store := &fakeStore{}
	p := newTestPipeline(gen, &fakeStt{text: "spoken words"}, &fakeAudio{duration: 60}, store)

	report, err := p.Generate(context.Background(), fullRequest())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(report.Slides) != 3 {
		t.Fatalf("expected 3 slides, got %d", len(report.Slides))
	}
	if report.QAFeedback == nil {
		t.Fatal("expected Q&A feedback")
	}
	if !report.Metadata.AudioSplitOK || !report.Metadata.HasAudio || !report.Metadata.HasConversation {
		t.Fatalf("unexpected metadata: %+v", report.Metadata)
	}
	if report.Metadata.SlideCount != 3 {
		t.Fatalf("expected slide count 3, got %d", report.Metadata.SlideCount)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected segments persisted once, got %v", store.saved)
	}
	for _, slide := range report.Slides {
		if slide.AudioURL == nil {
			t.Fatalf("slide %d missing audio URL", slide.SlideNumber)
		}
		if slide.Feedback.ContentStructuring.Status != StatusMet {
			t.Fatalf("slide %d feedback not parsed: %+v", slide.SlideNumber, slide.Feedback)
		}
		if slide.Feedback.ImpromptuResponse.Status != StatusNotApplicable {
			t.Fatalf("slide-level impromptu response must be not_applicable: %+v", slide.Feedback)
		}
	}
}

func TestGenerateSlideFailureIsIsolated(t *testing.T) {
	gen := &fakeGenerator{failSlides: map[int]bool{2: true}}
	p := newTestPipeline(gen, &fakeStt{text: "spoken words"}, &fakeAudio{duration: 90}, &fakeStore{})

	req := fullRequest()
	req.Marks = marks([2]float64{1, 0}, [2]float64{2, 10}, [2]float64{3, 25}, [2]float64{4, 40})
	report, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(report.Slides) != 4 {
		t.Fatalf("expected 4 slides, got %d", len(report.Slides))
	}
	for _, slide := range report.Slides {
		if slide.SlideNumber == 2 {
			if slide.Feedback.Delivery.Status != StatusError {
				t.Fatalf("failed slide should carry error statuses: %+v", slide.Feedback)
			}
			continue
		}
		if slide.Feedback.Delivery.Status != StatusMet {
			t.Fatalf("slide %d should have valid feedback: %+v", slide.SlideNumber, slide.Feedback)
		}
	}
}

func TestGenerateSessionIDNamespaces(t *testing.T) {
	p := newTestPipeline(&fakeGenerator{}, &fakeStt{text: "spoken words"}, &fakeAudio{duration: 60}, &fakeStore{})

	req := fullRequest()
	req.ImageSessionID = "upload-session-b"
	report, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if report.ImageSessionID != "upload-session-b" {
		t.Fatalf("image session should be reused: %q", report.ImageSessionID)
	}
	if report.FeedbackSessionID == "" || string(report.FeedbackSessionID) == "upload-session-b" {
		t.Fatalf("feedback session must be freshly minted: %q", report.FeedbackSessionID)
	}
	for _, slide := range report.Slides {
		if !strings.Contains(slide.ImageURL, "upload-session-b") {
			t.Fatalf("image URL must reference image session: %q", slide.ImageURL)
		}
		if slide.AudioURL != nil && !strings.Contains(*slide.AudioURL, string(report.FeedbackSessionID)) {
			t.Fatalf("audio URL must reference feedback session: %q", *slide.AudioURL)
		}
	}
}

func TestGenerateImageSessionFallsBackToFeedbackSession(t *testing.T) {
	p := newTestPipeline(&fakeGenerator{}, &fakeStt{text: "words"}, &fakeAudio{duration: 60}, &fakeStore{})
	report, err := p.Generate(context.Background(), fullRequest())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if string(report.ImageSessionID) != string(report.FeedbackSessionID) {
		t.Fatalf("image session should fall back to feedback session: %q vs %q",
			report.ImageSessionID, report.FeedbackSessionID)
	}
}

func TestGenerateDecodeFailureUsesWordChunkFallback(t *testing.T) {
	gen := &fakeGenerator{}
	store := &fakeStore{}
	p := newTestPipeline(gen, &fakeStt{text: "alpha beta gamma delta epsilon zeta"}, &fakeAudio{decodeErr: errors.New("bad container")}, store)

	report, err := p.Generate(context.Background(), fullRequest())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if report.Metadata.AudioSplitOK {
		t.Fatal("split should be marked unsuccessful")
	}
	if !report.Metadata.HasAudio {
		t.Fatal("whole-recording transcript still counts as audio")
	}
	if len(store.saved) != 0 {
		t.Fatal("no segments should be persisted when splitting failed")
	}
	if len(report.Slides) != 3 {
		t.Fatalf("expected 3 slides, got %d", len(report.Slides))
	}
	chunks := map[int]string{1: "alpha beta", 2: "gamma delta", 3: "epsilon zeta"}
	for slide, chunk := range chunks {
		system, ok := gen.systems[slide]
		if !ok {
			t.Fatalf("slide %d never reached the generator", slide)
		}
		if !strings.Contains(system, chunk) {
			t.Fatalf("slide %d prompt missing its transcript chunk %q: %q", slide, chunk, system)
		}
		if strings.Contains(system, "Audio not available") {
			t.Fatalf("slide %d prompt should carry a transcript chunk, not the placeholder", slide)
		}
	}
	for _, slide := range report.Slides {
		if slide.AudioURL != nil {
			t.Fatalf("slide %d should have no audio URL", slide.SlideNumber)
		}
	}
}

func TestGenerateCutFailureUsesWordChunkFallback(t *testing.T) {
	words := strings.Repeat("alpha beta gamma ", 10)
	p := newTestPipeline(&fakeGenerator{}, &fakeStt{text: words}, &fakeAudio{duration: 60, cutErr: errors.New("cut failed")}, &fakeStore{})

	report, err := p.Generate(context.Background(), fullRequest())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(report.Slides) != 3 {
		t.Fatalf("word-chunk fallback should still yield per-slide feedback, got %d slides", len(report.Slides))
	}
	if report.Metadata.AudioSplitOK {
		t.Fatal("split should be marked unsuccessful")
	}
}

func TestGenerateQAConditions(t *testing.T) {
	shortConversation := []ConversationTurn{
		{Role: "assistant", Content: "Ready?"},
		{Role: "user", Content: "Yes."},
	}

	t.Run("short conversation without trailing section skips qa", func(t *testing.T) {
		gen := &fakeGenerator{}
		p := newTestPipeline(gen, &fakeStt{text: "words"}, &fakeAudio{duration: 60}, &fakeStore{})
		req := fullRequest()
		req.Conversation = shortConversation
		report, err := p.Generate(context.Background(), req)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if report.QAFeedback != nil {
			t.Fatal("expected no Q&A feedback")
		}
	})

	t.Run("trailing section forces qa even for short conversation", func(t *testing.T) {
		gen := &fakeGenerator{}
		p := newTestPipeline(gen, &fakeStt{text: "words"}, &fakeAudio{duration: 90}, &fakeStore{})
		req := fullRequest()
		req.Conversation = shortConversation
		req.Marks = marks([2]float64{1, 0}, [2]float64{2, 10}, [2]float64{3, 25}, [2]float64{7, 50})
		report, err := p.Generate(context.Background(), req)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if report.QAFeedback == nil {
			t.Fatal("expected Q&A feedback when trailing section detected")
		}
	})
}

func TestGenerateTrailingSectionSlidesDropped(t *testing.T) {
	p := newTestPipeline(&fakeGenerator{}, &fakeStt{text: "words"}, &fakeAudio{duration: 90}, &fakeStore{})
	req := fullRequest()
	req.Marks = marks([2]float64{1, 0}, [2]float64{2, 10}, [2]float64{3, 25}, [2]float64{7, 50})
	report, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for _, slide := range report.Slides {
		if slide.SlideNumber == 7 {
			t.Fatal("slide 7 past the gap should have been dropped")
		}
	}
	if report.Metadata.SlideCount != 3 {
		t.Fatalf("expected slide count 3, got %d", report.Metadata.SlideCount)
	}
}

func TestGenerateNoRecordingSingleSlide(t *testing.T) {
	gen := &fakeGenerator{}
	p := newTestPipeline(gen, &fakeStt{text: ""}, &fakeAudio{}, &fakeStore{})
	report, err := p.Generate(context.Background(), GenerateRequest{
		Conversation: fullRequest().Conversation,
		DeckText:     "deck",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(report.Slides) != 1 || report.Slides[0].SlideNumber != 1 {
		t.Fatalf("expected single slide 1, got %+v", report.Slides)
	}
	if report.Metadata.HasAudio {
		t.Fatal("no recording supplied, HasAudio should be false")
	}
	if report.QAFeedback == nil {
		t.Fatal("long conversation should still get Q&A feedback")
	}
}

func TestGenerateShapeIdempotence(t *testing.T) {
	run := func() *Report {
		p := newTestPipeline(&fakeGenerator{}, &fakeStt{text: "spoken words"}, &fakeAudio{duration: 60}, &fakeStore{})
		report, err := p.Generate(context.Background(), fullRequest())
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		return report
	}

	first, second := run(), run()
	if first.FeedbackSessionID == second.FeedbackSessionID {
		t.Fatal("session ids must be fresh per run")
	}
	if len(first.Slides) != len(second.Slides) {
		t.Fatalf("slide counts differ: %d vs %d", len(first.Slides), len(second.Slides))
	}
	for i := range first.Slides {
		if first.Slides[i].SlideNumber != second.Slides[i].SlideNumber {
			t.Fatalf("slide order differs at %d", i)
		}
	}
}
