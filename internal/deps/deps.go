// Package deps verifies that the external tools the server shells out to are
// installed. Missing optional tools degrade features (no slide images, no
// audio splitting) rather than blocking startup.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement is one external binary the server uses.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Default lists the toolchain for audio processing and deck rendering.
func Default() []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: "ffmpeg", Description: "decodes and splits presentation recordings"},
		{Name: "FFprobe", Command: "ffprobe", Description: "measures recording duration"},
		{Name: "pdftotext", Command: "pdftotext", Description: "extracts assignment deck text", Optional: true},
		{Name: "pdftoppm", Command: "pdftoppm", Description: "renders slide images", Optional: true},
		{Name: "pdfinfo", Command: "pdfinfo", Description: "counts deck pages", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
