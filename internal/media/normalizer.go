package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/voxnote/voxnote/internal/pipeline"
)

// commandRunner abstracts process execution for testability
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (exitCode int, stderr string, err error)
}

// execRunner executes commands via os/exec
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (int, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		exitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
	}
	return exitCode, stderr.String(), err
}

// Normalizer converts arbitrary audio or video input into mono 16kHz PCM
// WAV by invoking ffmpeg as a subprocess
type Normalizer struct {
	ffmpegPath string
	runner     commandRunner
	logger     zerolog.Logger
}

// NewNormalizer creates a normalizer using the given ffmpeg binary
func NewNormalizer(ffmpegPath string, logger zerolog.Logger) *Normalizer {
	return &Normalizer{
		ffmpegPath: ffmpegPath,
		runner:     execRunner{},
		logger:     logger,
	}
}

// Normalize blocks until ffmpeg exits. A non-zero exit or a missing binary
// yields a ConversionError carrying the exit code and a stderr summary.
func (n *Normalizer) Normalize(ctx context.Context, srcPath, dstPath string) error {
	args := buildFFmpegArgs(srcPath, dstPath)

	n.logger.Debug().Str("src", srcPath).Str("dst", dstPath).Msg("Converting media to 16kHz mono WAV")

	exitCode, stderr, err := n.runner.Run(ctx, n.ffmpegPath, args...)
	if err != nil {
		return &pipeline.ConversionError{
			ExitCode: exitCode,
			Detail:   stderrSummary(stderr),
			Err:      err,
		}
	}
	return nil
}

// buildFFmpegArgs builds the fixed conversion contract: overwrite output,
// single audio channel, 16kHz sample rate, video stream discarded
func buildFFmpegArgs(srcPath, dstPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", srcPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dstPath,
	}
}

// stderrSummary keeps the tail of ffmpeg's stderr, which carries the actual
// failure reason; the head is banner and stream info
func stderrSummary(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	lines := strings.Split(stderr, "\n")
	if len(lines) > 2 {
		lines = lines[len(lines)-2:]
	}
	summary := strings.Join(lines, "; ")
	if len(summary) > 300 {
		summary = summary[:300]
	}
	return summary
}

// CheckFFmpeg reports whether the configured ffmpeg binary is on PATH.
// Used by the readiness endpoint.
func CheckFFmpeg(ffmpegPath string) error {
	if _, err := exec.LookPath(ffmpegPath); err != nil {
		return fmt.Errorf("ffmpeg not found at %q: %w", ffmpegPath, err)
	}
	return nil
}
