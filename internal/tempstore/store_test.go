package tempstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestAllocate(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, zerolog.Nop())

	path, err := store.Allocate(KindRaw)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	if filepath.Dir(path) != dir {
		t.Errorf("Expected artifact in %s, got %s", dir, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Allocated file does not exist: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("Expected empty file, got %d bytes", info.Size())
	}
}

func TestAllocate_UniqueNames(t *testing.T) {
	store := New(t.TempDir(), zerolog.Nop())

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		path, err := store.Allocate(KindRaw)
		if err != nil {
			t.Fatalf("Allocate failed: %v", err)
		}
		if seen[path] {
			t.Fatalf("Duplicate artifact path: %s", path)
		}
		seen[path] = true
	}
}

func TestAllocate_KindExtensions(t *testing.T) {
	store := New(t.TempDir(), zerolog.Nop())

	raw, err := store.Allocate(KindRaw)
	if err != nil {
		t.Fatalf("Allocate raw failed: %v", err)
	}
	if !strings.HasSuffix(raw, ".bin") {
		t.Errorf("Expected .bin suffix for raw artifact, got %s", raw)
	}

	normalized, err := store.Allocate(KindNormalized)
	if err != nil {
		t.Fatalf("Allocate normalized failed: %v", err)
	}
	if !strings.HasSuffix(normalized, ".wav") {
		t.Errorf("Expected .wav suffix for normalized artifact, got %s", normalized)
	}
}

func TestReleaseAll(t *testing.T) {
	store := New(t.TempDir(), zerolog.Nop())

	var paths []string
	for i := 0; i < 3; i++ {
		path, err := store.Allocate(KindRaw)
		if err != nil {
			t.Fatalf("Allocate failed: %v", err)
		}
		paths = append(paths, path)
	}

	store.ReleaseAll()

	for _, path := range paths {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("Expected %s to be deleted", path)
		}
	}
}

func TestReleaseAll_MissingFileIsNotAnError(t *testing.T) {
	store := New(t.TempDir(), zerolog.Nop())

	path, err := store.Allocate(KindNormalized)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	// Simulate an external process having consumed the file already
	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	store.ReleaseAll() // must not panic or error
}

func TestReleaseAll_Idempotent(t *testing.T) {
	store := New(t.TempDir(), zerolog.Nop())

	if _, err := store.Allocate(KindRaw); err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	store.ReleaseAll()
	store.ReleaseAll() // second call is a no-op
}

func TestReleaseAll_AllowsReuse(t *testing.T) {
	store := New(t.TempDir(), zerolog.Nop())

	first, err := store.Allocate(KindRaw)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	store.ReleaseAll()

	second, err := store.Allocate(KindRaw)
	if err != nil {
		t.Fatalf("Allocate after ReleaseAll failed: %v", err)
	}
	store.ReleaseAll()

	for _, path := range []string{first, second} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("Expected %s to be deleted", path)
		}
	}
}
