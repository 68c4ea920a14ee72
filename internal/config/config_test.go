package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	os.Setenv("TELEGRAM_BOT_TOKEN", "12345:test-token")
	defer os.Unsetenv("TELEGRAM_BOT_TOKEN")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.TelegramBotToken != "12345:test-token" {
		t.Errorf("Expected TelegramBotToken '12345:test-token', got '%s'", cfg.TelegramBotToken)
	}
}

func TestLoad_MissingToken(t *testing.T) {
	os.Unsetenv("TELEGRAM_BOT_TOKEN")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when TELEGRAM_BOT_TOKEN is missing")
	}
}

func TestLoad_PlaceholderToken(t *testing.T) {
	os.Setenv("TELEGRAM_BOT_TOKEN", placeholderToken)
	defer os.Unsetenv("TELEGRAM_BOT_TOKEN")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when TELEGRAM_BOT_TOKEN is the placeholder value")
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("TELEGRAM_BOT_TOKEN", "12345:test-token")
	defer os.Unsetenv("TELEGRAM_BOT_TOKEN")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
	}

	if cfg.STTBackend != "fasterwhisper" {
		t.Errorf("Expected default STTBackend 'fasterwhisper', got '%s'", cfg.STTBackend)
	}

	if cfg.WhisperModel != "small" {
		t.Errorf("Expected default WhisperModel 'small', got '%s'", cfg.WhisperModel)
	}

	if cfg.WhisperDevice != "cpu" {
		t.Errorf("Expected default WhisperDevice 'cpu', got '%s'", cfg.WhisperDevice)
	}

	if cfg.Language != "" {
		t.Errorf("Expected default Language '' (auto-detect), got '%s'", cfg.Language)
	}

	if cfg.FFmpegPath != "ffmpeg" {
		t.Errorf("Expected default FFmpegPath 'ffmpeg', got '%s'", cfg.FFmpegPath)
	}

	if cfg.MaxConcurrent != 1 {
		t.Errorf("Expected default MaxConcurrent 1, got %d", cfg.MaxConcurrent)
	}

	if cfg.TranscribeTimeout != 900 {
		t.Errorf("Expected default TranscribeTimeout 900, got %d", cfg.TranscribeTimeout)
	}
}

func TestValidate_DeepgramRequiresKey(t *testing.T) {
	cfg := &Config{
		TelegramBotToken: "12345:test-token",
		STTBackend:       "deepgram",
		MaxConcurrent:    1,
	}

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error when deepgram backend has no API key")
	}

	cfg.DeepgramAPIKey = "dg-key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() failed with API key set: %v", err)
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := &Config{
		TelegramBotToken: "12345:test-token",
		STTBackend:       "vosk",
		MaxConcurrent:    1,
	}

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for unknown STT backend")
	}
}

func TestValidate_MaxConcurrent(t *testing.T) {
	cfg := &Config{
		TelegramBotToken: "12345:test-token",
		STTBackend:       "fasterwhisper",
		MaxConcurrent:    0,
	}

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error when MAX_CONCURRENT_TRANSCRIPTIONS is zero")
	}
}
