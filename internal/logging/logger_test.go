package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/partyshah/ai-math-tutor/internal/logging"
)

func TestNewWritesConsoleLine(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "tutord.log")

	logger, err := logging.New(logging.Options{
		Level:       "info",
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	scoped := logging.NewComponentLogger(logger, "feedback")
	scoped.Info("report assembled", logging.Int("slides", 3))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "INFO feedback: report assembled") {
		t.Fatalf("unexpected log line: %q", line)
	}
	if !strings.Contains(line, "slides=3") {
		t.Fatalf("expected slides attribute in %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "tutord.log")

	logger, err := logging.New(logging.Options{
		Level:       "warn",
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("hidden")
	logger.Warn("visible")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(data), "hidden") {
		t.Fatalf("info line should be filtered: %q", string(data))
	}
	if !strings.Contains(string(data), "visible") {
		t.Fatalf("warn line missing: %q", string(data))
	}
}
