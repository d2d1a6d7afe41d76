package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ArtifactWriter abstracts where exported pages land so tests and future
// storage backends can swap the filesystem out.
type ArtifactWriter interface {
	EnsureDir(ctx context.Context, dir string) error
	WriteFile(ctx context.Context, path string, data []byte) error
}

// NewFilesystemWriter writes artifacts under the given root directory.
// Paths handed to WriteFile are slash-separated and relative to root.
func NewFilesystemWriter(root string) (ArtifactWriter, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("export: filesystem writer requires a root directory")
	}
	return &filesystemWriter{root: root}, nil
}

type filesystemWriter struct {
	root string
}

func (w *filesystemWriter) EnsureDir(_ context.Context, dir string) error {
	target := w.root
	if cleaned := cleanRelative(dir); cleaned != "" {
		target = filepath.Join(w.root, filepath.FromSlash(cleaned))
	}
	return os.MkdirAll(target, 0o755)
}

func (w *filesystemWriter) WriteFile(ctx context.Context, path string, data []byte) error {
	cleaned := cleanRelative(path)
	if cleaned == "" {
		return errors.New("export: write requires a file path")
	}
	target := filepath.Join(w.root, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(target, data, 0o644)
}

// cleanRelative normalizes a slash path and refuses escapes above the root.
func cleanRelative(path string) string {
	cleaned := strings.TrimPrefix(filepath.ToSlash(filepath.Clean(strings.TrimSpace(path))), "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "..") {
		return ""
	}
	return cleaned
}

// MemoryWriter collects artifacts in memory. Tests inspect Files afterwards.
type MemoryWriter struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]struct{}
}

func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{
		files: make(map[string][]byte),
		dirs:  make(map[string]struct{}),
	}
}

var _ ArtifactWriter = (*MemoryWriter)(nil)

func (w *MemoryWriter) EnsureDir(_ context.Context, dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dirs[cleanRelative(dir)] = struct{}{}
	return nil
}

func (w *MemoryWriter) WriteFile(_ context.Context, path string, data []byte) error {
	cleaned := cleanRelative(path)
	if cleaned == "" {
		return errors.New("export: write requires a file path")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[cleaned] = append([]byte(nil), data...)
	return nil
}

// File returns the stored payload for a path and whether it exists.
func (w *MemoryWriter) File(path string) ([]byte, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	data, ok := w.files[cleanRelative(path)]
	return data, ok
}

// Paths lists every written file path.
func (w *MemoryWriter) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.files))
	for path := range w.files {
		paths = append(paths, path)
	}
	return paths
}
