package main

import (
	"strings"
	"testing"
)

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]tableColumn{
		{name: "ID", rightAlign: true},
		{name: "Student"},
		{name: "Status"},
	}, [][]string{
		{"1", "Ada Lovelace", "completed"},
		{"2", "Alan Turing"},
	})

	for _, want := range []string{"ID", "Student", "Status", "Ada Lovelace", "Alan Turing"} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered table missing %q:\n%s", want, out)
		}
	}
	if lines := strings.Split(out, "\n"); len(lines) < 5 {
		t.Fatalf("expected bordered header and two rows, got:\n%s", out)
	}
}

func TestRenderTableNoColumns(t *testing.T) {
	if out := renderTable(nil, [][]string{{"orphan"}}); out != "" {
		t.Fatalf("expected empty output without columns, got %q", out)
	}
}
