package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// placeholderToken is the value shipped in example configs. Starting the bot
// with it would poll Telegram with a dead credential, so it is rejected.
const placeholderToken = "PUT-YOUR-TOKEN-HERE"

// Config holds all configuration for the transcription bot
type Config struct {
	// Telegram Bot API configuration
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	PollTimeout      int    `envconfig:"POLL_TIMEOUT" default:"30"` // Long-poll timeout in seconds

	// Speech recognition configuration
	STTBackend    string `envconfig:"STT_BACKEND" default:"fasterwhisper"` // fasterwhisper, whisperserver, deepgram
	WhisperModel  string `envconfig:"WHISPER_MODEL" default:"small"`       // small / medium / large-v3
	WhisperDevice string `envconfig:"WHISPER_DEVICE" default:"cpu"`        // cpu or cuda
	Language      string `envconfig:"LANGUAGE" default:""`                 // Language hint; empty = auto-detect
	PythonPath    string `envconfig:"PYTHON_PATH" default:"python3"`       // Interpreter for the faster-whisper helper

	// Whisper sidecar (STT_BACKEND=whisperserver)
	WhisperServerURL string `envconfig:"WHISPER_SERVER_URL" default:"ws://localhost:9090/stream"`

	// Deepgram prerecorded API (STT_BACKEND=deepgram)
	DeepgramAPIKey string `envconfig:"DEEPGRAM_API_KEY" default:""`
	DeepgramModel  string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`

	// Audio conversion configuration
	FFmpegPath     string `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	ConvertTimeout int    `envconfig:"CONVERT_TIMEOUT" default:"120"` // seconds

	// Pipeline configuration
	DownloadTimeout   int    `envconfig:"DOWNLOAD_TIMEOUT" default:"60"`    // seconds
	TranscribeTimeout int    `envconfig:"TRANSCRIBE_TIMEOUT" default:"900"` // seconds
	MaxConcurrent     int    `envconfig:"MAX_CONCURRENT_TRANSCRIPTIONS" default:"1"`
	TempDir           string `envconfig:"TEMP_DIR" default:""` // Empty = system temp dir

	// Observability configuration
	Port           string `envconfig:"PORT" default:"8080"`            // Health/metrics HTTP port
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the combination of settings before any request is served
func (c *Config) Validate() error {
	if c.TelegramBotToken == "" || c.TelegramBotToken == placeholderToken {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required; set a real bot token")
	}

	switch c.STTBackend {
	case "fasterwhisper":
		// Model availability is checked by the helper at first use.
	case "whisperserver":
		if c.WhisperServerURL == "" {
			return fmt.Errorf("WHISPER_SERVER_URL is required for the whisperserver backend")
		}
	case "deepgram":
		if c.DeepgramAPIKey == "" {
			return fmt.Errorf("DEEPGRAM_API_KEY is required for the deepgram backend")
		}
	default:
		return fmt.Errorf("unknown STT_BACKEND %q (want fasterwhisper, whisperserver or deepgram)", c.STTBackend)
	}

	if c.MaxConcurrent < 1 {
		return fmt.Errorf("MAX_CONCURRENT_TRANSCRIPTIONS must be at least 1, got %d", c.MaxConcurrent)
	}

	return nil
}
