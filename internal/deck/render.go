package deck

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/partyshah/ai-math-tutor/internal/logging"
)

// RenderSlideImages renders every page of the PDF into destDir as full-size
// and thumbnail PNGs named slide_N_full.png and slide_N_thumb.png. It
// returns the rendered slide numbers. A missing pdftoppm binary is reported
// as an error; callers treat it as degraded no-images mode rather than a
// request failure.
func (s *Service) RenderSlideImages(ctx context.Context, pdfPath, destDir string) ([]int, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("render slides: %w", err)
	}
	workDir, err := os.MkdirTemp("", "deck-render-*")
	if err != nil {
		return nil, fmt.Errorf("render slides: temp dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	passes := []struct {
		args   []string
		suffix string
	}{
		{args: []string{"-png", "-r", "150"}, suffix: "full"},
		{args: []string{"-png", "-scale-to", "300"}, suffix: "thumb"},
	}

	var slides []int
	for _, pass := range passes {
		prefix := filepath.Join(workDir, pass.suffix)
		args := append(append([]string{}, pass.args...), pdfPath, prefix)
		if output, err := s.run(ctx, "pdftoppm", args...); err != nil {
			return nil, fmt.Errorf("pdftoppm %s: %w: %s", pass.suffix, err, strings.TrimSpace(string(output)))
		}

		rendered, err := collectRenderedPages(workDir, pass.suffix)
		if err != nil {
			return nil, err
		}
		for page, src := range rendered {
			dest := filepath.Join(destDir, fmt.Sprintf("slide_%d_%s.png", page, pass.suffix))
			if err := os.Rename(src, dest); err != nil {
				return nil, fmt.Errorf("render slides: move page %d: %w", page, err)
			}
			if pass.suffix == "full" {
				slides = append(slides, page)
			}
		}
	}

	sort.Ints(slides)
	s.logger.Info("slide images rendered",
		logging.String("pdf", filepath.Base(pdfPath)),
		logging.Int("pages", len(slides)))
	return slides, nil
}

// collectRenderedPages maps page numbers to the files pdftoppm produced for
// one pass. pdftoppm zero-pads page numbers in the output names.
func collectRenderedPages(workDir, prefix string) (map[int]string, error) {
	matches, err := filepath.Glob(filepath.Join(workDir, prefix+"-*.png"))
	if err != nil {
		return nil, fmt.Errorf("render slides: glob: %w", err)
	}
	pages := make(map[int]string, len(matches))
	for _, match := range matches {
		base := strings.TrimSuffix(filepath.Base(match), ".png")
		numberPart := strings.TrimPrefix(base, prefix+"-")
		page, err := strconv.Atoi(strings.TrimLeft(numberPart, "0"))
		if err != nil {
			continue
		}
		pages[page] = match
	}
	return pages, nil
}
