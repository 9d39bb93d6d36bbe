// Package workspace provides the isolated, transactional directory that
// backs one compaction job. Nothing outside the workspace is modified
// until the finalizer commits, and the workspace is always deleted when
// the job ends, whatever the outcome.
package workspace

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	AreaOriginal   = "original"
	AreaArtifacts  = "artifacts"
	AreaProposed   = "proposed"
	AreaValidation = "validation"
	AreaMetadata   = "metadata"
)

// Fixed names for the copies inside original/ and proposal areas. The
// real file names live in the job metadata.
const (
	ContentFile = "content.md"
	IndexFile   = "index.md"
)

var (
	ErrNotFound         = errors.New("input file not found")
	ErrInvalidPath      = errors.New("invalid path")
	ErrOutsideWorkspace = errors.New("path escapes workspace")
)

// JobMeta records the absolute source paths so later stages never need
// them re-threaded through every call.
type JobMeta struct {
	ContentPath  string `json:"content_path"`
	IndexPath    string `json:"index_path"`
	CreatedAt    string `json:"created_at"`
	ContentLines int    `json:"content_lines"`
}

type Workspace struct {
	ID   string
	Meta JobMeta
	root string
}

type Manager struct {
	baseDir string
}

func NewManager(baseDir string) *Manager {
	return &Manager{baseDir: baseDir}
}

// Init prepares the base directory and sweeps workspaces left behind by
// crashed runs. Jobs never outlive a process, so anything found here is
// residue.
func (m *Manager) Init() error {
	if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			_ = os.RemoveAll(filepath.Join(m.baseDir, entry.Name()))
		}
	}
	return nil
}

// Create builds the workspace tree for one job and copies both inputs
// into original/. The sources themselves are not touched.
func (m *Manager) Create(contentPath, indexPath string) (*Workspace, error) {
	contentAbs, err := requireFile(contentPath)
	if err != nil {
		return nil, err
	}
	indexAbs, err := requireFile(indexPath)
	if err != nil {
		return nil, err
	}
	id := newID()
	root := filepath.Join(m.baseDir, id)
	ws := &Workspace{ID: id, root: root}
	for _, area := range []string{AreaOriginal, AreaArtifacts, AreaProposed, AreaValidation, AreaMetadata} {
		if err := os.MkdirAll(filepath.Join(root, area), 0o755); err != nil {
			_ = ws.Destroy()
			return nil, err
		}
	}
	if err := copyFile(contentAbs, filepath.Join(root, AreaOriginal, ContentFile)); err != nil {
		_ = ws.Destroy()
		return nil, err
	}
	if err := copyFile(indexAbs, filepath.Join(root, AreaOriginal, IndexFile)); err != nil {
		_ = ws.Destroy()
		return nil, err
	}
	content, err := os.ReadFile(filepath.Join(root, AreaOriginal, ContentFile))
	if err != nil {
		_ = ws.Destroy()
		return nil, err
	}
	ws.Meta = JobMeta{
		ContentPath:  contentAbs,
		IndexPath:    indexAbs,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		ContentLines: lineCount(string(content)),
	}
	if err := writeJSON(filepath.Join(root, AreaMetadata, "job.json"), ws.Meta); err != nil {
		_ = ws.Destroy()
		return nil, err
	}
	return ws, nil
}

// Destroy removes the workspace directory. Idempotent and unconditional;
// callers defer it on every exit path.
func (ws *Workspace) Destroy() error {
	if ws == nil || ws.root == "" {
		return nil
	}
	return os.RemoveAll(ws.root)
}

func (ws *Workspace) Root() string {
	return ws.root
}

// Exists reports whether the workspace directory is still on disk.
func (ws *Workspace) Exists() bool {
	_, err := os.Stat(ws.root)
	return err == nil
}

func (ws *Workspace) WriteFile(area, name, content string) error {
	path, err := ws.resolve(area, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return atomicWrite(path, []byte(content))
}

func (ws *Workspace) ReadFile(area, name string) (string, error) {
	path, err := ws.resolve(area, name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (ws *Workspace) WriteJSON(area, name string, payload any) error {
	path, err := ws.resolve(area, name)
	if err != nil {
		return err
	}
	return writeJSON(path, payload)
}

// AttemptArea names the proposal area for one attempt. Each attempt gets
// its own directory so a retry never clobbers the evidence of the
// attempt the validator rejected.
func AttemptArea(attempt int) string {
	return filepath.Join(AreaProposed, fmt.Sprintf("attempt-%d", attempt))
}

// Path resolves an area-relative name to an absolute path inside the
// workspace, for callers that hand files to external tools.
func (ws *Workspace) Path(area, name string) (string, error) {
	return ws.resolve(area, name)
}

func (ws *Workspace) resolve(area, name string) (string, error) {
	if name == "" || strings.Contains(name, "..") || filepath.IsAbs(name) || strings.Contains(name, "\\") {
		return "", ErrInvalidPath
	}
	if area == "" || strings.Contains(area, "..") || filepath.IsAbs(area) {
		return "", ErrInvalidPath
	}
	full := filepath.Join(ws.root, area, name)
	if !strings.HasPrefix(full, ws.root+string(filepath.Separator)) {
		return "", ErrOutsideWorkspace
	}
	return full, nil
}

func requireFile(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrNotFound
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrInvalidPath, path)
	}
	return abs, nil
}

func writeJSON(path string, payload any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func newID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// CopyFile copies src over dst, syncing before close. Used by the
// finalizer for backup and commit copies.
func CopyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func copyFile(src, dst string) error {
	return CopyFile(src, dst)
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer os.Remove(name)
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(name, path)
}

func lineCount(value string) int {
	if value == "" {
		return 0
	}
	return strings.Count(strings.TrimRight(value, "\n"), "\n") + 1
}
