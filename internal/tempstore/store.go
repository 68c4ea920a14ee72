package tempstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/voxnote/voxnote/internal/observability"
)

// Kind labels the role of a temporary artifact within a pipeline run
type Kind string

const (
	// KindRaw is the media file as downloaded from Telegram
	KindRaw Kind = "raw"
	// KindNormalized is the mono 16kHz WAV produced by ffmpeg
	KindNormalized Kind = "normalized"
)

// ext maps artifact kinds to filename extensions
func (k Kind) ext() string {
	if k == KindNormalized {
		return ".wav"
	}
	return ".bin"
}

// Store tracks the temporary files created during one pipeline run and
// guarantees they are deleted when the run ends. Many runs share the same
// temp directory, so filenames are uuid-based to avoid collisions.
type Store struct {
	dir    string
	logger zerolog.Logger

	mu    sync.Mutex
	paths []string
}

// New creates a store rooted at dir. An empty dir falls back to the
// system temp directory.
func New(dir string, logger zerolog.Logger) *Store {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Store{
		dir:    dir,
		logger: logger,
	}
}

// Allocate creates a uniquely named empty file for the given kind and
// registers it for deletion at the end of the run
func (s *Store) Allocate(kind Kind) (string, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("stt-%s-%s%s", kind, uuid.New().String(), kind.ext()))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("allocate %s artifact: %w", kind, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("allocate %s artifact: %w", kind, err)
	}

	s.mu.Lock()
	s.paths = append(s.paths, path)
	s.mu.Unlock()

	return path, nil
}

// ReleaseAll deletes every allocated artifact. It is idempotent, treats
// already-missing files as deleted, and never propagates deletion errors;
// they are logged and swallowed.
func (s *Store) ReleaseAll() {
	s.mu.Lock()
	paths := s.paths
	s.paths = nil
	s.mu.Unlock()

	released := 0
	for _, path := range paths {
		err := os.Remove(path)
		if err != nil && !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", path).Msg("Failed to delete temporary artifact")
			continue
		}
		released++
	}

	if released > 0 {
		observability.RecordArtifactsReleased(released)
		s.logger.Debug().Int("count", released).Msg("Temporary artifacts released")
	}
}
