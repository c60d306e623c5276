package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// decodeFormats are tried in order when converting a browser recording.
// Auto-detection handles well-formed files; MediaRecorder uploads sometimes
// carry a misleading extension, so webm and mp4 are forced as fallbacks.
var decodeFormats = []string{"", "webm", "mp4", "ogg"}

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// Processor wraps the ffmpeg and ffprobe binaries.
type Processor struct {
	ffmpeg  string
	ffprobe string
	run     commandRunner
}

// NewProcessor constructs a Processor. Empty binary names fall back to the
// tools on PATH.
func NewProcessor(ffmpegBinary, ffprobeBinary string) *Processor {
	ffmpegBinary = strings.TrimSpace(ffmpegBinary)
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	ffprobeBinary = strings.TrimSpace(ffprobeBinary)
	if ffprobeBinary == "" {
		ffprobeBinary = "ffprobe"
	}
	return &Processor{ffmpeg: ffmpegBinary, ffprobe: ffprobeBinary, run: runCommand}
}

// DecodeToWAV converts the source recording into a mono 16kHz PCM WAV file.
// Container detection is retried with forced formats when auto-detection
// fails.
func (p *Processor) DecodeToWAV(ctx context.Context, source, dest string) error {
	source = strings.TrimSpace(source)
	if source == "" {
		return errors.New("decode audio: empty source path")
	}
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return errors.New("decode audio: empty destination path")
	}

	var lastErr error
	for _, format := range decodeFormats {
		output, err := p.run(ctx, p.ffmpeg, decodeArgs(format, source, dest)...)
		if err == nil {
			return nil
		}
		lastErr = fmt.Errorf("ffmpeg decode (format=%s): %w: %s", formatLabel(format), err, strings.TrimSpace(string(output)))
		if ctx.Err() != nil {
			return lastErr
		}
		// A failed attempt can leave a partial output file behind.
		_ = os.Remove(dest)
	}
	return lastErr
}

func decodeArgs(format, source, dest string) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
	}
	if format != "" {
		args = append(args, "-f", format)
	}
	args = append(args,
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	)
	return args
}

func formatLabel(format string) string {
	if format == "" {
		return "auto"
	}
	return format
}

// Duration reports the container duration of path in seconds.
func (p *Processor) Duration(ctx context.Context, path string) (float64, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return 0, errors.New("probe duration: empty path")
	}
	args := []string{
		"-v", "error",
		"-hide_banner",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		"--", path,
	}
	output, err := p.run(ctx, p.ffprobe, args...)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w: %s", err, strings.TrimSpace(string(output)))
	}
	value := strings.TrimSpace(string(output))
	duration, parseErr := strconv.ParseFloat(value, 64)
	if parseErr != nil {
		return 0, fmt.Errorf("ffprobe duration: parse %q: %w", value, parseErr)
	}
	if duration < 0 {
		return 0, fmt.Errorf("ffprobe duration: negative value %v", duration)
	}
	return duration, nil
}

// CutSegment writes the [startSec, endSec) range of source to dest as a mono
// 16kHz PCM WAV file. A nil endSec means the segment runs to the end of the
// recording.
func (p *Processor) CutSegment(ctx context.Context, source string, startSec float64, endSec *float64, dest string) error {
	source = strings.TrimSpace(source)
	if source == "" {
		return errors.New("cut segment: empty source path")
	}
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return errors.New("cut segment: empty destination path")
	}
	if startSec < 0 {
		return fmt.Errorf("cut segment: negative start %v", startSec)
	}
	if endSec != nil && *endSec <= startSec {
		return fmt.Errorf("cut segment: end %v not after start %v", *endSec, startSec)
	}

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(startSec),
	}
	if endSec != nil {
		args = append(args, "-to", formatSeconds(*endSec))
	}
	args = append(args,
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	)
	if output, err := p.run(ctx, p.ffmpeg, args...); err != nil {
		return fmt.Errorf("ffmpeg cut segment: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}
