package deps

import "testing"

func TestCheckBinariesReportsMissing(t *testing.T) {
	statuses := CheckBinaries([]Requirement{
		{Name: "Shell", Command: "sh", Description: "always present on CI"},
		{Name: "Ghost", Command: "definitely-not-a-real-binary-xyz", Optional: true},
		{Name: "Blank", Command: "   "},
	})
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if !statuses[0].Available {
		t.Errorf("sh should be available: %+v", statuses[0])
	}
	if statuses[1].Available || statuses[1].Detail == "" {
		t.Errorf("missing binary not reported: %+v", statuses[1])
	}
	if !statuses[1].Optional {
		t.Errorf("optional flag lost: %+v", statuses[1])
	}
	if statuses[2].Available || statuses[2].Detail != "command not configured" {
		t.Errorf("blank command not reported: %+v", statuses[2])
	}
}

func TestDefaultCoversToolchain(t *testing.T) {
	wantRequired := map[string]bool{"ffmpeg": true, "ffprobe": true}
	for _, req := range Default() {
		if wantRequired[req.Command] && req.Optional {
			t.Errorf("%s must not be optional", req.Command)
		}
	}
	if len(Default()) != 5 {
		t.Fatalf("unexpected requirement count %d", len(Default()))
	}
}
