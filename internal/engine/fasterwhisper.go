package engine

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

//go:embed assets/faster_whisper.py
var helperScript []byte

// event is one JSON line emitted by the helper script
type event struct {
	Type     string  `json:"type"`
	Duration float64 `json:"duration"`
	Language string  `json:"language"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Text     string  `json:"text"`
}

// FasterWhisper runs the embedded faster-whisper helper as a subprocess per
// request and consumes its stdout line by line, so segments reach the caller
// while later audio is still being decoded.
type FasterWhisper struct {
	python     string
	model      string
	device     string
	scriptPath string
	logger     zerolog.Logger
}

// NewFasterWhisper materializes the helper script and returns the backend
func NewFasterWhisper(python, model, device string, logger zerolog.Logger) (*FasterWhisper, error) {
	scriptPath := filepath.Join(os.TempDir(), "stt-faster-whisper.py")
	if err := os.WriteFile(scriptPath, helperScript, 0o755); err != nil {
		return nil, fmt.Errorf("write helper script: %w", err)
	}

	return &FasterWhisper{
		python:     python,
		model:      model,
		device:     device,
		scriptPath: scriptPath,
		logger:     logger,
	}, nil
}

// Transcribe starts the helper and returns once its info header has been read
func (f *FasterWhisper) Transcribe(ctx context.Context, audioPath, language string) (Stream, error) {
	args := []string{f.scriptPath, "--audio", audioPath, "--model", f.model, "--device", f.device}
	if language != "" {
		args = append(args, "--language", language)
	}

	cmd := exec.CommandContext(ctx, f.python, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open helper stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", f.python, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	stream := &processStream{
		cmd:     cmd,
		scanner: scanner,
		stderr:  &stderr,
		logger:  f.logger,
	}

	// The helper prints the info header before decoding starts. If it dies
	// before that (missing model, broken install), surface the failure here.
	info, err := stream.readInfo()
	if err != nil {
		_ = stream.Close()
		return nil, err
	}
	stream.duration = info.Duration

	f.logger.Debug().
		Float64("duration", info.Duration).
		Str("language", info.Language).
		Msg("Engine reported audio info")

	return stream, nil
}

// Close removes the materialized helper script
func (f *FasterWhisper) Close() error {
	if err := os.Remove(f.scriptPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// processStream reads segment events from a running helper process
type processStream struct {
	cmd      *exec.Cmd
	scanner  *bufio.Scanner
	stderr   *bytes.Buffer
	logger   zerolog.Logger
	duration float64

	exhausted bool
	waited    bool
	waitErr   error
}

// readInfo consumes lines until the info header arrives
func (s *processStream) readInfo() (event, error) {
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev event
		if err := json.Unmarshal(line, &ev); err != nil {
			return event{}, fmt.Errorf("malformed engine output %q: %w", line, err)
		}
		if ev.Type == "info" {
			return ev, nil
		}
	}
	s.exhausted = true
	s.wait()
	return event{}, fmt.Errorf("engine exited before producing output: %s", s.failureDetail())
}

func (s *processStream) Next(ctx context.Context) (Segment, bool, error) {
	if s.exhausted {
		return Segment{}, false, nil
	}
	if err := ctx.Err(); err != nil {
		return Segment{}, false, err
	}

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev event
		if err := json.Unmarshal(line, &ev); err != nil {
			return Segment{}, false, fmt.Errorf("malformed engine output %q: %w", line, err)
		}
		if ev.Type != "segment" {
			continue
		}
		return Segment{Start: ev.Start, End: ev.End, Text: ev.Text}, true, nil
	}

	s.exhausted = true
	if err := s.scanner.Err(); err != nil {
		s.wait()
		return Segment{}, false, fmt.Errorf("read engine output: %w", err)
	}

	// Stdout closed; a non-zero exit here means decoding failed mid-stream
	if err := s.wait(); err != nil {
		return Segment{}, false, fmt.Errorf("engine failed: %s", s.failureDetail())
	}
	return Segment{}, false, nil
}

func (s *processStream) Duration() float64 {
	return s.duration
}

// Close terminates the helper if it is still running and reaps it
func (s *processStream) Close() error {
	if !s.exhausted && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	s.wait()
	return nil
}

// wait reaps the process exactly once
func (s *processStream) wait() error {
	if !s.waited {
		s.waited = true
		s.waitErr = s.cmd.Wait()
	}
	return s.waitErr
}

// failureDetail summarizes the helper's stderr for diagnostics
func (s *processStream) failureDetail() string {
	detail := strings.TrimSpace(s.stderr.String())
	if detail == "" {
		if s.waitErr != nil {
			return s.waitErr.Error()
		}
		return "no error output"
	}
	// Keep only the tail; faster-whisper prints long tracebacks
	if lines := strings.Split(detail, "\n"); len(lines) > 3 {
		detail = strings.Join(lines[len(lines)-3:], "\n")
	}
	return detail
}
