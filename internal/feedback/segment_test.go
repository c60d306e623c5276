package feedback

import (
	"context"
	"errors"
	"testing"

	"github.com/partyshah/ai-math-tutor/internal/logging"
)

type fakeCutter struct {
	duration    float64
	durationErr error
	cutErr      error
	cuts        []AudioSegment
}

func (f *fakeCutter) Duration(_ context.Context, _ string) (float64, error) {
	return f.duration, f.durationErr
}

func (f *fakeCutter) CutSegment(_ context.Context, _ string, start float64, end *float64, dest string) error {
	if f.cutErr != nil {
		return f.cutErr
	}
	f.cuts = append(f.cuts, AudioSegment{Path: dest, StartSec: start, EndSec: end})
	return nil
}

func TestSplitByMarksCutsOneSegmentPerMark(t *testing.T) {
	cutter := &fakeCutter{duration: 60}
	input := marks([2]float64{1, 0}, [2]float64{2, 10}, [2]float64{3, 25})

	got := SplitByMarks(context.Background(), cutter, "full.wav", input, t.TempDir(), logging.NewNop())
	if len(got) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(got))
	}
	for i, seg := range got {
		if seg.StartSec != input[i].Timestamp {
			t.Fatalf("segment %d start %v != mark timestamp %v", i, seg.StartSec, input[i].Timestamp)
		}
		if seg.SlideNumber != input[i].SlideNumber {
			t.Fatalf("segment %d slide %d != mark slide %d", i, seg.SlideNumber, input[i].SlideNumber)
		}
	}
	if got[0].EndSec == nil || *got[0].EndSec != 10 {
		t.Fatalf("first segment end should be next mark's timestamp, got %v", got[0].EndSec)
	}
	if got[len(got)-1].EndSec != nil {
		t.Fatalf("last segment end should be nil, got %v", *got[len(got)-1].EndSec)
	}
}

func TestSplitByMarksSkipsNonPositiveSpans(t *testing.T) {
	cutter := &fakeCutter{duration: 60}
	input := marks([2]float64{1, 0}, [2]float64{2, 10}, [2]float64{3, 10}, [2]float64{4, 20})

	got := SplitByMarks(context.Background(), cutter, "full.wav", input, t.TempDir(), logging.NewNop())
	if len(got) != 3 {
		t.Fatalf("expected zero-span segment skipped, got %d segments", len(got))
	}
	for _, seg := range got {
		if seg.SlideNumber == 2 {
			t.Fatal("zero-span segment for slide 2 should have been skipped")
		}
	}
}

func TestSplitByMarksSingleMarkUsesWholeRecording(t *testing.T) {
	cutter := &fakeCutter{duration: 60}
	got := SplitByMarks(context.Background(), cutter, "full.wav", marks([2]float64{1, 0}), t.TempDir(), logging.NewNop())
	if len(got) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(got))
	}
	if got[0].SlideNumber != 1 || got[0].StartSec != 0 || got[0].EndSec != nil || got[0].Path != "full.wav" {
		t.Fatalf("unexpected whole-recording segment: %+v", got[0])
	}
}

func TestSplitByMarksFallsBackOnCutFailure(t *testing.T) {
	cutter := &fakeCutter{duration: 60, cutErr: errors.New("codec error")}
	input := marks([2]float64{1, 0}, [2]float64{2, 10})

	got := SplitByMarks(context.Background(), cutter, "full.wav", input, t.TempDir(), logging.NewNop())
	if len(got) != 1 || got[0].Path != "full.wav" {
		t.Fatalf("expected whole-recording fallback, got %+v", got)
	}
}

func TestSplitByMarksFallsBackOnProbeFailure(t *testing.T) {
	cutter := &fakeCutter{durationErr: errors.New("unreadable")}
	input := marks([2]float64{1, 0}, [2]float64{2, 10})

	got := SplitByMarks(context.Background(), cutter, "full.wav", input, t.TempDir(), logging.NewNop())
	if len(got) != 1 || got[0].SlideNumber != 1 {
		t.Fatalf("expected whole-recording fallback, got %+v", got)
	}
}
