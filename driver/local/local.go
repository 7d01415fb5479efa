package local

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// FileSystem is workspace storage rooted at a directory on the local disk.
// Paths are resolved relative to the root and may not escape it.
type FileSystem struct {
	afero.Fs
	root string
}

// New creates a local file system rooted at root, creating it if needed.
func New(root string) (*FileSystem, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return nil, err
	}
	return &FileSystem{
		Fs:   afero.NewBasePathFs(afero.NewOsFs(), absRoot),
		root: absRoot,
	}, nil
}

func (l *FileSystem) Name() string { return "local" }

// Root returns the absolute directory backing the file system.
func (l *FileSystem) Root() string { return l.root }

// RealPath returns the on-disk path of name.
func (l *FileSystem) RealPath(name string) (string, error) {
	full := filepath.Join(l.root, filepath.Clean("/"+name))
	if !isPathUnderRoot(l.root, full) {
		return "", os.ErrPermission
	}
	return full, nil
}

// isPathUnderRoot checks if a path is under a given root directory
func isPathUnderRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return !filepath.IsAbs(rel) && rel != ".." && !strings.HasPrefix(rel, "../")
}
