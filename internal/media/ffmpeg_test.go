package media

import (
	"context"
	"errors"
	"slices"
	"testing"
)

type recordedCall struct {
	name string
	args []string
}

func fakeRunner(calls *[]recordedCall, fail int, output []byte) commandRunner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, recordedCall{name: name, args: slices.Clone(args)})
		if len(*calls) <= fail {
			return []byte("boom"), errors.New("exit status 1")
		}
		return output, nil
	}
}

func TestDecodeToWAVUsesAutoDetectionFirst(t *testing.T) {
	var calls []recordedCall
	p := NewProcessor("ffmpeg", "ffprobe")
	p.run = fakeRunner(&calls, 0, nil)

	if err := p.DecodeToWAV(context.Background(), "in.webm", "out.wav"); err != nil {
		t.Fatalf("DecodeToWAV failed: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if slices.Contains(calls[0].args, "-f") {
		t.Fatalf("first attempt should not force a format: %v", calls[0].args)
	}
	for _, want := range []string{"-ac", "-ar", "pcm_s16le", "out.wav"} {
		if !slices.Contains(calls[0].args, want) {
			t.Fatalf("args missing %q: %v", want, calls[0].args)
		}
	}
}

func TestDecodeToWAVRetriesForcedFormats(t *testing.T) {
	var calls []recordedCall
	p := NewProcessor("", "")
	p.run = fakeRunner(&calls, 2, nil)

	if err := p.DecodeToWAV(context.Background(), "in.bin", "out.wav"); err != nil {
		t.Fatalf("DecodeToWAV failed: %v", err)
	}
	if len(calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(calls))
	}
	second := calls[1].args
	idx := slices.Index(second, "-f")
	if idx < 0 || second[idx+1] != "webm" {
		t.Fatalf("second attempt should force webm: %v", second)
	}
	third := calls[2].args
	idx = slices.Index(third, "-f")
	if idx < 0 || third[idx+1] != "mp4" {
		t.Fatalf("third attempt should force mp4: %v", third)
	}
}

func TestDecodeToWAVReturnsLastErrorWhenAllFormatsFail(t *testing.T) {
	var calls []recordedCall
	p := NewProcessor("", "")
	p.run = fakeRunner(&calls, 99, nil)

	err := p.DecodeToWAV(context.Background(), "in.bin", "out.wav")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(calls) != len(decodeFormats) {
		t.Fatalf("expected %d attempts, got %d", len(decodeFormats), len(calls))
	}
}

func TestDurationParsesProbeOutput(t *testing.T) {
	var calls []recordedCall
	p := NewProcessor("", "")
	p.run = fakeRunner(&calls, 0, []byte("92.416000\n"))

	got, err := p.Duration(context.Background(), "rec.wav")
	if err != nil {
		t.Fatalf("Duration failed: %v", err)
	}
	if got != 92.416 {
		t.Fatalf("unexpected duration %v", got)
	}
	if calls[0].name != "ffprobe" {
		t.Fatalf("expected ffprobe, got %q", calls[0].name)
	}
}

func TestDurationRejectsGarbageOutput(t *testing.T) {
	var calls []recordedCall
	p := NewProcessor("", "")
	p.run = fakeRunner(&calls, 0, []byte("N/A"))

	if _, err := p.Duration(context.Background(), "rec.wav"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCutSegmentBuildsRangeArgs(t *testing.T) {
	var calls []recordedCall
	p := NewProcessor("", "")
	p.run = fakeRunner(&calls, 0, nil)

	end := 30.5
	if err := p.CutSegment(context.Background(), "full.wav", 12, &end, "seg.wav"); err != nil {
		t.Fatalf("CutSegment failed: %v", err)
	}
	args := calls[0].args
	idx := slices.Index(args, "-ss")
	if idx < 0 || args[idx+1] != "12.000" {
		t.Fatalf("missing start arg: %v", args)
	}
	idx = slices.Index(args, "-to")
	if idx < 0 || args[idx+1] != "30.500" {
		t.Fatalf("missing end arg: %v", args)
	}
}

func TestCutSegmentOmitsEndWhenOpen(t *testing.T) {
	var calls []recordedCall
	p := NewProcessor("", "")
	p.run = fakeRunner(&calls, 0, nil)

	if err := p.CutSegment(context.Background(), "full.wav", 45, nil, "seg.wav"); err != nil {
		t.Fatalf("CutSegment failed: %v", err)
	}
	if slices.Contains(calls[0].args, "-to") {
		t.Fatalf("open-ended segment should not pass -to: %v", calls[0].args)
	}
}

func TestCutSegmentValidatesRange(t *testing.T) {
	p := NewProcessor("", "")
	end := 5.0
	if err := p.CutSegment(context.Background(), "full.wav", 10, &end, "seg.wav"); err == nil {
		t.Fatal("expected error for end before start")
	}
	if err := p.CutSegment(context.Background(), "full.wav", -1, nil, "seg.wav"); err == nil {
		t.Fatal("expected error for negative start")
	}
}
