package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/voxnote/voxnote/internal/config"
	"github.com/voxnote/voxnote/internal/engine"
	"github.com/voxnote/voxnote/internal/media"
	"github.com/voxnote/voxnote/internal/observability"
	"github.com/voxnote/voxnote/internal/pipeline"
	"github.com/voxnote/voxnote/internal/telegram"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("backend", cfg.STTBackend).
		Str("model", cfg.WhisperModel).
		Str("device", cfg.WhisperDevice).
		Str("language", cfg.Language).
		Int("max_concurrent", cfg.MaxConcurrent).
		Msg("Transcription bot starting")

	// The engine handle is built once and shared across all requests;
	// Serialize bounds concurrent inference on it
	eng, err := buildEngine(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize speech engine")
	}
	eng = engine.Serialize(eng, cfg.MaxConcurrent)
	defer eng.Close()

	client, err := telegram.NewClient(cfg.TelegramBotToken, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Telegram")
	}

	normalizer := media.NewNormalizer(cfg.FFmpegPath, logger)

	orchestrator := pipeline.NewOrchestrator(client, client, normalizer, eng, pipeline.Config{
		Language:          cfg.Language,
		TempDir:           cfg.TempDir,
		DownloadTimeout:   time.Duration(cfg.DownloadTimeout) * time.Second,
		ConvertTimeout:    time.Duration(cfg.ConvertTimeout) * time.Second,
		TranscribeTimeout: time.Duration(cfg.TranscribeTimeout) * time.Second,
	})

	bot := telegram.NewBot(client, orchestrator, cfg.PollTimeout, logger)

	// Health/metrics HTTP server
	mux := http.NewServeMux()
	mux.HandleFunc("/health", observability.HealthCheckHandler())
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		"ffmpeg": func(ctx context.Context) (bool, error) {
			if err := media.CheckFFmpeg(cfg.FFmpegPath); err != nil {
				return false, err
			}
			return true, nil
		},
		"engine": engineCheck(cfg),
	}))
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed to start")
		}
	}()

	// Start polling in the background so signals can be handled here
	ctx, cancel := context.WithCancel(context.Background())
	go bot.Run(ctx)

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server forced to shut down")
	}

	logger.Info().Msg("Bot exited gracefully")
}

// buildEngine constructs the configured speech-recognition backend
func buildEngine(cfg *config.Config, logger zerolog.Logger) (engine.Engine, error) {
	switch cfg.STTBackend {
	case "fasterwhisper":
		return engine.NewFasterWhisper(cfg.PythonPath, cfg.WhisperModel, cfg.WhisperDevice, logger)
	case "whisperserver":
		return engine.NewWhisperServer(cfg.WhisperServerURL, logger), nil
	case "deepgram":
		return engine.NewDeepgram(cfg.DeepgramAPIKey, cfg.DeepgramModel, logger), nil
	default:
		return nil, fmt.Errorf("unknown STT backend %q", cfg.STTBackend)
	}
}

// engineCheck returns the readiness probe for the configured backend
func engineCheck(cfg *config.Config) observability.HealthCheckFunc {
	return func(ctx context.Context) (bool, error) {
		switch cfg.STTBackend {
		case "fasterwhisper":
			if _, err := exec.LookPath(cfg.PythonPath); err != nil {
				return false, fmt.Errorf("python interpreter not found: %w", err)
			}
		case "deepgram":
			if cfg.DeepgramAPIKey == "" {
				return false, fmt.Errorf("deepgram API key is not configured")
			}
		}
		// The whisperserver sidecar is probed lazily; dialing it here would
		// tie readiness to a restartable dependency
		return true, nil
	}
}
