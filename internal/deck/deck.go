package deck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/partyshah/ai-math-tutor/internal/logging"
)

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// Assignment is one deck available for tutoring or pitch sessions.
type Assignment struct {
	Filename    string `json:"filename"`
	DisplayName string `json:"displayName"`
}

// Service reads assignment PDFs from a single directory.
type Service struct {
	dir    string
	logger *slog.Logger
	run    commandRunner
	titler cases.Caser
}

// NewService constructs a Service over the given assignments directory.
func NewService(dir string, logger *slog.Logger) *Service {
	return &Service{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "deck"),
		run:    runCommand,
		titler: cases.Title(language.English),
	}
}

// List returns every assignment PDF in the directory, sorted by filename.
// Display names are derived from the filename: underscores become spaces and
// words are title-cased.
func (s *Service) List() ([]Assignment, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Assignment{}, nil
		}
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	assignments := make([]Assignment, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".pdf") {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), ".pdf")
		display := s.titler.String(strings.ReplaceAll(base, "_", " "))
		assignments = append(assignments, Assignment{Filename: entry.Name(), DisplayName: display})
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].Filename < assignments[j].Filename })
	return assignments, nil
}

// Path resolves an assignment filename to its on-disk path. Only plain .pdf
// filenames inside the assignments directory are accepted.
func (s *Service) Path(filename string) (string, error) {
	if filename == "" || !strings.HasSuffix(filename, ".pdf") {
		return "", errors.New("assignment path: filename must end in .pdf")
	}
	if filepath.Base(filename) != filename {
		return "", fmt.Errorf("assignment path: invalid filename %q", filename)
	}
	path := filepath.Join(s.dir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("assignment path: %w", err)
	}
	return path, nil
}

// SaveUpload stores an uploaded deck in the assignments directory under a
// session-scoped name and returns the stored filename.
func (s *Service) SaveUpload(sessionID, originalName string, data []byte) (string, error) {
	if !strings.HasSuffix(originalName, ".pdf") {
		return "", errors.New("save upload: file must be a PDF")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	name := fmt.Sprintf("uploaded_%s_%s", sessionID, filepath.Base(originalName))
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return name, nil
}

// ExtractText returns the full text of an assignment deck.
func (s *Service) ExtractText(ctx context.Context, filename string) (string, error) {
	path, err := s.Path(filename)
	if err != nil {
		return "", err
	}
	output, err := s.run(ctx, "pdftotext", "-layout", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// ExtractSlidesRange returns the text of pages start through end inclusive.
func (s *Service) ExtractSlidesRange(ctx context.Context, filename string, start, end int) (string, error) {
	if start < 1 || end < start {
		return "", fmt.Errorf("extract slides: invalid range %d-%d", start, end)
	}
	path, err := s.Path(filename)
	if err != nil {
		return "", err
	}
	output, err := s.run(ctx, "pdftotext",
		"-layout",
		"-f", strconv.Itoa(start),
		"-l", strconv.Itoa(end),
		path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext range: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// PageCount reports the number of pages in the PDF at path.
func (s *Service) PageCount(ctx context.Context, path string) (int, error) {
	output, err := s.run(ctx, "pdfinfo", path)
	if err != nil {
		return 0, fmt.Errorf("pdfinfo: %w: %s", err, strings.TrimSpace(string(output)))
	}
	for _, line := range strings.Split(string(output), "\n") {
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(line, "Pages:"))
		count, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("pdfinfo: parse page count %q: %w", value, err)
		}
		return count, nil
	}
	return 0, errors.New("pdfinfo: no Pages line in output")
}
