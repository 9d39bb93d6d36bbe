package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "config.yaml"))
	settings, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if settings.Provider != ProviderAnthropic {
		t.Fatalf("expected anthropic default, got %s", settings.Provider)
	}
	if settings.MaxAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", settings.MaxAttempts)
	}
	if settings.IndexFile != "INDEX.md" {
		t.Fatalf("expected INDEX.md, got %s", settings.IndexFile)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "config.yaml"))
	saved, err := store.Update(func(s *Settings) {
		s.Provider = ProviderOpenAI
		s.Model = ""
		s.Workers = 4
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if saved.Model != "gpt-5.2" {
		t.Fatalf("expected backfilled openai model, got %s", saved.Model)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Provider != ProviderOpenAI || loaded.Workers != 4 {
		t.Fatalf("roundtrip mismatch: %+v", loaded)
	}
}

func TestBackfillClampsAttempts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("provider: anthropic\nmax_attempts: 9\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	settings, err := NewStore(path).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if settings.MaxAttempts != 3 {
		t.Fatalf("expected attempts clamped to 3, got %d", settings.MaxAttempts)
	}
}
