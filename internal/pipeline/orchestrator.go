package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/voxnote/voxnote/internal/engine"
	"github.com/voxnote/voxnote/internal/observability"
	"github.com/voxnote/voxnote/internal/tempstore"
)

// Request describes one inbound media item. It is immutable and lives for
// the duration of a single pipeline run.
type Request struct {
	// ChatID is the originating chat
	ChatID int64

	// FileID is the remote file identifier on the messaging platform
	FileID string

	// Label is the human-readable media description shown to the user,
	// e.g. "Voice Note" or "Audio (lecture.mp3)"
	Label string

	// Kind is the media kind used as a metric label: voice, audio,
	// video_note or document
	Kind string
}

// Messenger is the messaging surface the pipeline drives. All operations
// are remote calls that may fail independently of pipeline logic.
type Messenger interface {
	// SendMessage sends a new text message and returns its message ID
	SendMessage(ctx context.Context, chatID int64, text string) (int, error)

	// EditMessage replaces the text of a previously sent message
	EditMessage(ctx context.Context, chatID int64, messageID int, text string) error

	// SendTyping signals typing presence; failures are swallowed by the
	// implementation
	SendTyping(ctx context.Context, chatID int64)
}

// Downloader retrieves a remote file into a local path
type Downloader interface {
	Download(ctx context.Context, fileID, dstPath string) error
}

// Normalizer converts arbitrary media into the canonical audio form
type Normalizer interface {
	Normalize(ctx context.Context, srcPath, dstPath string) error
}

// Config bounds each stage of the pipeline
type Config struct {
	Language          string
	TempDir           string
	DownloadTimeout   time.Duration
	ConvertTimeout    time.Duration
	TranscribeTimeout time.Duration
}

// Orchestrator sequences fetch, convert, transcribe and dispatch for one
// media request, maps stage failures to user-facing diagnostics, and
// guarantees temp-file cleanup on every exit path. It is safe for use by
// many concurrent requests.
type Orchestrator struct {
	messenger  Messenger
	downloader Downloader
	normalizer Normalizer
	engine     engine.Engine
	cfg        Config
}

// NewOrchestrator wires the pipeline collaborators together
func NewOrchestrator(m Messenger, d Downloader, n Normalizer, e engine.Engine, cfg Config) *Orchestrator {
	return &Orchestrator{
		messenger:  m,
		downloader: d,
		normalizer: n,
		engine:     e,
		cfg:        cfg,
	}
}

// Handle runs the full pipeline for one request. It never returns an error:
// every failure is converted into a user-facing message so the service stays
// available for subsequent requests.
func (o *Orchestrator) Handle(ctx context.Context, req Request) {
	logger := observability.RequestLogger(req.ChatID)
	metrics := observability.NewRequestMetrics(req.Kind)
	status := "success"
	defer func() { metrics.Done(status) }()

	store := tempstore.New(o.cfg.TempDir, logger)
	defer store.ReleaseAll()

	logger.Info().Str("label", req.Label).Str("kind", req.Kind).Msg("Processing media request")
	o.messenger.SendTyping(ctx, req.ChatID)

	rawPath, err := o.fetch(ctx, req, store)
	if err != nil {
		status = "download_error"
		logger.Error().Err(err).Msg("Download stage failed")
		observability.RecordStageFailure(StageFetch)
		o.notify(ctx, req.ChatID, fmt.Sprintf("Couldn't download the file (%s). Please try sending it again. Details: %v", req.Label, errors.Unwrap(err)))
		return
	}

	wavPath, err := o.convert(ctx, req, store, rawPath)
	if err != nil {
		status = "conversion_error"
		logger.Error().Err(err).Msg("Conversion stage failed")
		observability.RecordStageFailure(StageConvert)
		o.notify(ctx, req.ChatID, fmt.Sprintf("Couldn't convert the file (%s). Make sure FFmpeg is installed. Details: %v", req.Label, err))
		return
	}

	o.messenger.SendTyping(ctx, req.ChatID)

	text, err := o.transcribe(ctx, req, wavPath, logger)
	if err != nil {
		status = "transcription_error"
		logger.Error().Err(err).Msg("Transcription stage failed")
		observability.RecordStageFailure(StageTranscribe)
		o.notify(ctx, req.ChatID, fmt.Sprintf("Something went wrong during transcription: %v", errors.Unwrap(err)))
		if text == "" {
			return
		}
		// Segments decoded before the failure are still worth delivering
		logger.Info().Int("chars", len(text)).Msg("Dispatching partial transcript")
	}

	if err := o.dispatch(ctx, req, text); err != nil {
		status = "dispatch_error"
		logger.Error().Err(err).Msg("Dispatch stage failed")
		observability.RecordStageFailure(StageDispatch)
		return
	}

	logger.Info().Int("chars", len(text)).Msg("Media request complete")
}

// fetch downloads the remote file into a raw artifact
func (o *Orchestrator) fetch(ctx context.Context, req Request, store *tempstore.Store) (string, error) {
	start := time.Now()

	path, err := store.Allocate(tempstore.KindRaw)
	if err != nil {
		return "", &DownloadError{Err: err}
	}

	fctx, cancel := stageContext(ctx, o.cfg.DownloadTimeout)
	defer cancel()

	if err := o.downloader.Download(fctx, req.FileID, path); err != nil {
		return "", &DownloadError{Err: err}
	}

	observability.ObserveStage(StageFetch, time.Since(start))
	return path, nil
}

// convert normalizes the raw artifact into mono 16kHz WAV
func (o *Orchestrator) convert(ctx context.Context, req Request, store *tempstore.Store, rawPath string) (string, error) {
	start := time.Now()

	path, err := store.Allocate(tempstore.KindNormalized)
	if err != nil {
		return "", &ConversionError{ExitCode: -1, Err: err}
	}

	cctx, cancel := stageContext(ctx, o.cfg.ConvertTimeout)
	defer cancel()

	if err := o.normalizer.Normalize(cctx, rawPath, path); err != nil {
		var convErr *ConversionError
		if !errors.As(err, &convErr) {
			err = &ConversionError{ExitCode: -1, Err: err}
		}
		return "", err
	}

	observability.ObserveStage(StageConvert, time.Since(start))
	return path, nil
}

// transcribe drives the engine stream while reporting throttled progress.
// On a mid-stream failure it returns the text accumulated so far alongside
// the error.
func (o *Orchestrator) transcribe(ctx context.Context, req Request, wavPath string, logger zerolog.Logger) (string, error) {
	start := time.Now()

	tctx, cancel := stageContext(ctx, o.cfg.TranscribeTimeout)
	defer cancel()

	// One progress message, edited in place for every update. If it cannot
	// be created, transcription proceeds without progress reporting.
	edit := func(string) error { return nil }
	progressID, err := o.messenger.SendMessage(ctx, req.ChatID, "Transcribing… 0%")
	if err != nil {
		logger.Warn().Err(err).Msg("Could not create progress message")
	} else {
		edit = func(text string) error {
			return o.messenger.EditMessage(ctx, req.ChatID, progressID, text)
		}
	}

	stream, err := o.engine.Transcribe(tctx, wavPath, o.cfg.Language)
	if err != nil {
		return "", &TranscriptionError{Err: err}
	}
	defer stream.Close()

	reporter := NewProgressReporter(edit)
	duration := stream.Duration()

	var parts []string
	for {
		seg, ok, err := stream.Next(tctx)
		if err != nil {
			return joinParts(parts), &TranscriptionError{Err: err}
		}
		if !ok {
			break
		}

		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
		if _, err := reporter.Observe(seg, duration); err != nil {
			logger.Warn().Err(err).Msg("Progress edit failed")
		}
	}

	if err := reporter.Finish(); err != nil {
		logger.Warn().Err(err).Msg("Final progress edit failed")
	}

	observability.ObserveStage(StageTranscribe, time.Since(start))
	return joinParts(parts), nil
}

// dispatch delivers the transcript in bounded chunks
func (o *Orchestrator) dispatch(ctx context.Context, req Request, text string) error {
	start := time.Now()

	send := func(text string) error {
		_, err := o.messenger.SendMessage(ctx, req.ChatID, text)
		return err
	}
	if err := Dispatch(send, req.Label, text); err != nil {
		return &DispatchError{Err: err}
	}

	observability.ObserveStage(StageDispatch, time.Since(start))
	return nil
}

// notify sends a diagnostic message, swallowing send failures
func (o *Orchestrator) notify(ctx context.Context, chatID int64, text string) {
	if _, err := o.messenger.SendMessage(ctx, chatID, text); err != nil {
		logger := observability.GetLogger()
		logger.Warn().Err(err).Msg("Failed to send diagnostic message")
	}
}

// stageContext bounds a stage with a timeout when one is configured
func stageContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// joinParts assembles segment texts into the final transcript
func joinParts(parts []string) string {
	return strings.TrimSpace(strings.Join(parts, " "))
}
