package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestManager(t *testing.T) (*Manager, string, string) {
	t.Helper()
	root := t.TempDir()
	mgr := NewManager(filepath.Join(root, "workspaces"))
	if err := mgr.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	content := filepath.Join(root, "doc.md")
	index := filepath.Join(root, "INDEX.md")
	if err := os.WriteFile(content, []byte("# Doc\n\nline\nline\n"), 0o600); err != nil {
		t.Fatalf("write content: %v", err)
	}
	if err := os.WriteFile(index, []byte("- [Doc](doc.md)\n"), 0o600); err != nil {
		t.Fatalf("write index: %v", err)
	}
	return mgr, content, index
}

func TestCreateCopiesInputsAndRecordsMeta(t *testing.T) {
	mgr, content, index := newTestManager(t)
	ws, err := mgr.Create(content, index)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer ws.Destroy()

	copied, err := ws.ReadFile(AreaOriginal, ContentFile)
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if copied != "# Doc\n\nline\nline\n" {
		t.Fatalf("copy mismatch: %q", copied)
	}
	if ws.Meta.ContentPath != content || ws.Meta.IndexPath != index {
		t.Fatalf("meta paths: %+v", ws.Meta)
	}
	if ws.Meta.ContentLines != 4 {
		t.Fatalf("content lines: %d", ws.Meta.ContentLines)
	}
	for _, area := range []string{AreaOriginal, AreaArtifacts, AreaProposed, AreaValidation, AreaMetadata} {
		if _, err := os.Stat(filepath.Join(ws.Root(), area)); err != nil {
			t.Fatalf("missing area %s: %v", area, err)
		}
	}
}

func TestCreateMissingInputFails(t *testing.T) {
	mgr, content, _ := newTestManager(t)
	if _, err := mgr.Create(content, "/nonexistent/INDEX.md"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := mgr.Create("/nonexistent/doc.md", content); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	mgr, content, index := newTestManager(t)
	ws, err := mgr.Create(content, index)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := ws.Destroy(); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if ws.Exists() {
		t.Fatalf("workspace still on disk")
	}
	if err := ws.Destroy(); err != nil {
		t.Fatalf("second destroy: %v", err)
	}
}

func TestWriteFileRejectsEscapes(t *testing.T) {
	mgr, content, index := newTestManager(t)
	ws, err := mgr.Create(content, index)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer ws.Destroy()
	cases := []struct{ area, name string }{
		{AreaArtifacts, "../escape.md"},
		{AreaArtifacts, "/abs.md"},
		{"..", "file.md"},
		{AreaArtifacts, ""},
	}
	for _, tc := range cases {
		if err := ws.WriteFile(tc.area, tc.name, "x"); err == nil {
			t.Fatalf("expected rejection for area=%q name=%q", tc.area, tc.name)
		}
	}
}

func TestInitSweepsLeftovers(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "workspaces")
	stale := filepath.Join(base, "deadbeef")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	mgr := NewManager(base)
	if err := mgr.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale workspace survived init")
	}
}

func TestAttemptAreaIsolatesProposals(t *testing.T) {
	mgr, content, index := newTestManager(t)
	ws, err := mgr.Create(content, index)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer ws.Destroy()
	if err := ws.WriteFile(AttemptArea(1), ContentFile, "first"); err != nil {
		t.Fatalf("write attempt 1: %v", err)
	}
	if err := ws.WriteFile(AttemptArea(2), ContentFile, "second"); err != nil {
		t.Fatalf("write attempt 2: %v", err)
	}
	got, err := ws.ReadFile(AttemptArea(1), ContentFile)
	if err != nil {
		t.Fatalf("read attempt 1: %v", err)
	}
	if got != "first" {
		t.Fatalf("attempt 1 overwritten: %q", got)
	}
}
