package pipeline

import "fmt"

// Stage labels used for metrics and logging
const (
	StageFetch      = "fetch"
	StageConvert    = "convert"
	StageTranscribe = "transcribe"
	StageDispatch   = "dispatch"
)

// DownloadError indicates the remote media could not be retrieved
type DownloadError struct {
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed: %v", e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// ConversionError indicates the external transcoding tool failed or is
// unavailable. ExitCode is -1 when the tool never ran.
type ConversionError struct {
	ExitCode int
	Detail   string
	Err      error
}

func (e *ConversionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("conversion failed (exit=%d): %s", e.ExitCode, e.Detail)
	}
	return fmt.Sprintf("conversion failed: %v", e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// TranscriptionError indicates the speech-recognition engine failed
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}

// DispatchError indicates an outbound message send failed
type DispatchError struct {
	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch failed: %v", e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
