package media

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/voxnote/voxnote/internal/pipeline"
)

// fakeRunner records the invocation and returns a canned result
type fakeRunner struct {
	name     string
	args     []string
	exitCode int
	stderr   string
	err      error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (int, string, error) {
	f.name = name
	f.args = args
	return f.exitCode, f.stderr, f.err
}

func TestNormalize_ArgumentContract(t *testing.T) {
	runner := &fakeRunner{}
	n := NewNormalizer("ffmpeg", zerolog.Nop())
	n.runner = runner

	if err := n.Normalize(context.Background(), "/tmp/in.bin", "/tmp/out.wav"); err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if runner.name != "ffmpeg" {
		t.Errorf("Expected ffmpeg binary, got %s", runner.name)
	}

	want := []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", "/tmp/in.bin",
		"-vn", "-ac", "1", "-ar", "16000", "-c:a", "pcm_s16le",
		"/tmp/out.wav",
	}
	if len(runner.args) != len(want) {
		t.Fatalf("Expected %d args, got %d: %v", len(want), len(runner.args), runner.args)
	}
	for i, arg := range want {
		if runner.args[i] != arg {
			t.Errorf("Arg %d: expected %q, got %q", i, arg, runner.args[i])
		}
	}
}

func TestNormalize_NonZeroExit(t *testing.T) {
	runner := &fakeRunner{
		exitCode: 1,
		stderr:   "banner line\nstream info\nInvalid data found when processing input",
		err:      fmt.Errorf("exit status 1"),
	}
	n := NewNormalizer("ffmpeg", zerolog.Nop())
	n.runner = runner

	err := n.Normalize(context.Background(), "in", "out")
	if err == nil {
		t.Fatal("Expected conversion error")
	}

	var convErr *pipeline.ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("Expected *pipeline.ConversionError, got %T", err)
	}
	if convErr.ExitCode != 1 {
		t.Errorf("Expected exit code 1, got %d", convErr.ExitCode)
	}
	if convErr.Detail == "" {
		t.Error("Expected stderr summary in error detail")
	}
}

func TestNormalize_ToolMissing(t *testing.T) {
	// Real runner with a binary that does not exist
	n := NewNormalizer("definitely-not-ffmpeg-binary", zerolog.Nop())

	err := n.Normalize(context.Background(), "in", "out")
	if err == nil {
		t.Fatal("Expected error when ffmpeg is missing")
	}

	var convErr *pipeline.ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("Expected *pipeline.ConversionError, got %T", err)
	}
}

func TestStderrSummary(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   string
	}{
		{"empty", "", ""},
		{"single line", "boom", "boom"},
		{"keeps tail", "a\nb\nc\nd", "c; d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stderrSummary(tt.stderr); got != tt.want {
				t.Errorf("stderrSummary(%q) = %q, want %q", tt.stderr, got, tt.want)
			}
		})
	}
}

func TestCheckFFmpeg_Missing(t *testing.T) {
	if err := CheckFFmpeg("definitely-not-ffmpeg-binary"); err == nil {
		t.Error("Expected error for missing binary")
	}
}
