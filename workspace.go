package sourcekit

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gobeaver/sourcekit/filetype"
	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Storage layout of a workspace.
const (
	SourceDir    = "src"
	RemovedDir   = "removed"
	AncillaryDir = "anc"
)

// Workspace tracks the files of one submission and the notices raised
// while checking them. All methods are safe for concurrent use; callers
// must not run two repairs on the same file at once.
type Workspace struct {
	ID string

	fs     afero.Fs
	cfg    *Config
	ignore []glob.Glob

	mu      sync.Mutex
	files   map[string]*File
	removed []*File
	notices []Notice
	source  SourceType
}

// NewWorkspace creates a workspace over fs, creating the source tree when
// missing.
func NewWorkspace(fs afero.Fs, opts ...WorkspaceOption) (*Workspace, error) {
	w := &Workspace{
		fs:    fs,
		files: make(map[string]*File),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.cfg == nil {
		w.cfg = DefaultConfig()
	}
	for _, p := range w.cfg.Patterns() {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, errors.WithMessagef(err, "ignore pattern %q", p)
		}
		w.ignore = append(w.ignore, g)
	}
	if err := fs.MkdirAll(SourceDir, 0o755); err != nil {
		return nil, errors.WithMessage(err, "create source tree")
	}
	return w, nil
}

// Config returns the configuration the workspace was created with.
func (w *Workspace) Config() *Config { return w.cfg }

// Fs returns the storage backing the workspace.
func (w *Workspace) Fs() afero.Fs { return w.fs }

// Load registers every file already present in the source tree. Types are
// left UNKNOWN for the pipeline to classify; directories are tagged
// DIRECTORY.
func (w *Workspace) Load() error {
	return afero.Walk(w.fs, SourceDir, func(full string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(SourceDir, full)
		if err != nil || rel == "." {
			return err
		}
		p := filepath.ToSlash(rel)

		f := &File{
			Path:        p,
			Size:        fi.Size(),
			Modified:    fi.ModTime(),
			IsDirectory: fi.IsDir(),
			IsAncillary: isAncillaryPath(p),
		}
		if f.IsDirectory {
			f.Type = filetype.Directory
			f.Size = 0
		}
		w.mu.Lock()
		w.files[p] = f
		w.mu.Unlock()
		return nil
	})
}

// FullPath returns the storage path of a path relative to the source tree.
func (w *Workspace) FullPath(p string) string {
	return filepath.Join(SourceDir, filepath.FromSlash(p))
}

// IsSafe reports whether dest stays inside the source tree.
func (w *Workspace) IsSafe(dest string) bool {
	if dest == "" || path.IsAbs(dest) || strings.ContainsRune(dest, 0) {
		return false
	}
	clean := path.Clean(dest)
	return clean != "." && clean != ".." && !strings.HasPrefix(clean, "../")
}

func (w *Workspace) cleanPath(op, p string) (string, error) {
	p = strings.TrimSuffix(filepath.ToSlash(p), "/")
	if !w.IsSafe(p) {
		return "", &PathError{Op: op, Path: p, Err: ErrUnsafePath}
	}
	return path.Clean(p), nil
}

// Create registers a file at p, creating it in storage unless WithTouch
// is false.
func (w *Workspace) Create(p string, opts ...Option) (*File, error) {
	o := newOptions(opts)
	p, err := w.cleanPath("create", p)
	if err != nil {
		return nil, err
	}
	full := w.FullPath(p)

	if o.Directory {
		if err := w.fs.MkdirAll(full, 0o755); err != nil {
			return nil, &PathError{Op: "create", Path: p, Err: err}
		}
	} else if o.Touch {
		if err := w.fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return nil, &PathError{Op: "create", Path: p, Err: err}
		}
		fh, err := w.fs.OpenFile(full, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, &PathError{Op: "create", Path: p, Err: err}
		}
		if err := fh.Close(); err != nil {
			return nil, &PathError{Op: "create", Path: p, Err: err}
		}
	}

	fi, err := w.fs.Stat(full)
	if os.IsNotExist(err) {
		return nil, &PathError{Op: "create", Path: p, Err: ErrNotExist}
	} else if err != nil {
		return nil, &PathError{Op: "create", Path: p, Err: err}
	}

	f := &File{
		Path:        p,
		Type:        o.Type,
		Size:        fi.Size(),
		Modified:    fi.ModTime(),
		IsDirectory: fi.IsDir(),
		IsAncillary: isAncillaryPath(p),
	}
	if o.Ancillary != nil {
		f.IsAncillary = *o.Ancillary
	}
	if f.IsDirectory {
		f.Size = 0
		if f.Type == filetype.Unknown {
			f.Type = filetype.Directory
		}
	}

	w.mu.Lock()
	w.files[p] = f
	w.mu.Unlock()
	return f, nil
}

func (w *Workspace) checkActive(op string, f *File) error {
	if f.IsRemoved {
		return &PathError{Op: op, Path: f.Path, Err: ErrRemoved}
	}
	return nil
}

// Open opens f for reading.
func (w *Workspace) Open(f *File) (afero.File, error) {
	return w.openFile("open", f, os.O_RDONLY)
}

// OpenForUpdate opens f for reading and writing in place.
func (w *Workspace) OpenForUpdate(f *File) (afero.File, error) {
	return w.openFile("open", f, os.O_RDWR)
}

// OpenForWrite opens f for writing, truncating existing content.
func (w *Workspace) OpenForWrite(f *File) (afero.File, error) {
	return w.openFile("open", f, os.O_WRONLY|os.O_TRUNC|os.O_CREATE)
}

func (w *Workspace) openFile(op string, f *File, flag int) (afero.File, error) {
	if err := w.checkActive(op, f); err != nil {
		return nil, err
	}
	if f.IsDirectory {
		return nil, &PathError{Op: op, Path: f.Path, Err: ErrIsDir}
	}
	fh, err := w.fs.OpenFile(w.FullPath(f.Path), flag, 0o644)
	if os.IsNotExist(err) {
		return nil, &PathError{Op: op, Path: f.Path, Err: ErrNotExist}
	} else if err != nil {
		return nil, &PathError{Op: op, Path: f.Path, Err: err}
	}
	return fh, nil
}

// Refresh re-reads size and modification time of f from storage.
func (w *Workspace) Refresh(f *File) error {
	fi, err := w.fs.Stat(w.FullPath(f.Path))
	if err != nil {
		return &PathError{Op: "stat", Path: f.Path, Err: err}
	}
	w.mu.Lock()
	if !f.IsDirectory {
		f.Size = fi.Size()
	}
	f.Modified = fi.ModTime()
	w.mu.Unlock()
	return nil
}

// Size returns the current size of f in storage.
func (w *Workspace) Size(f *File) (int64, error) {
	if err := w.Refresh(f); err != nil {
		return 0, err
	}
	return f.Size, nil
}

// Rename moves f to newPath within the source tree.
func (w *Workspace) Rename(f *File, newPath string) error {
	if err := w.checkActive("rename", f); err != nil {
		return err
	}
	newPath, err := w.cleanPath("rename", newPath)
	if err != nil {
		return err
	}
	if newPath == f.Path {
		return nil
	}
	if w.Exists(newPath) {
		return &PathError{Op: "rename", Path: newPath, Err: ErrExist}
	}
	full := w.FullPath(newPath)
	if err := w.fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return &PathError{Op: "rename", Path: newPath, Err: err}
	}
	if err := w.fs.Rename(w.FullPath(f.Path), full); err != nil {
		return &PathError{Op: "rename", Path: f.Path, Err: err}
	}

	w.mu.Lock()
	delete(w.files, f.Path)
	f.Path = newPath
	w.files[newPath] = f
	w.mu.Unlock()
	return nil
}

// Replace moves replacement over old in a single storage rename. The
// returned record is replacement, now at old's path, carrying old's
// notices and ancillary status.
func (w *Workspace) Replace(old, replacement *File) (*File, error) {
	if err := w.checkActive("replace", old); err != nil {
		return nil, err
	}
	if err := w.checkActive("replace", replacement); err != nil {
		return nil, err
	}
	if err := w.fs.Rename(w.FullPath(replacement.Path), w.FullPath(old.Path)); err != nil {
		return nil, &PathError{Op: "replace", Path: old.Path, Err: err}
	}

	w.mu.Lock()
	delete(w.files, replacement.Path)
	replacement.Path = old.Path
	replacement.IsAncillary = old.IsAncillary
	replacement.warnings = append(append([]Notice(nil), old.warnings...), replacement.warnings...)
	replacement.errors = append(append([]Notice(nil), old.errors...), replacement.errors...)
	w.files[old.Path] = replacement
	w.mu.Unlock()

	if err := w.Refresh(replacement); err != nil {
		return nil, err
	}
	return replacement, nil
}

// Copy duplicates f at newPath.
func (w *Workspace) Copy(f *File, newPath string) (*File, error) {
	src, err := w.Open(f)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst, err := w.Create(newPath, WithType(f.Type), WithAncillary(f.IsAncillary))
	if err != nil {
		return nil, err
	}
	out, err := w.OpenForWrite(dst)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return nil, &PathError{Op: "copy", Path: dst.Path, Err: err}
	}
	if err := out.Close(); err != nil {
		return nil, &PathError{Op: "copy", Path: dst.Path, Err: err}
	}
	dst.Format = f.Format
	return dst, w.Refresh(dst)
}

// Delete removes f from storage without keeping a removal record.
func (w *Workspace) Delete(f *File) error {
	if err := w.fs.RemoveAll(w.FullPath(f.Path)); err != nil {
		return &PathError{Op: "delete", Path: f.Path, Err: err}
	}
	w.mu.Lock()
	if w.files[f.Path] == f {
		delete(w.files, f.Path)
	}
	w.mu.Unlock()
	return nil
}

// Remove moves f out of the source tree into a removal record, noting why.
func (w *Workspace) Remove(f *File, reason string) error {
	if err := w.checkActive("remove", f); err != nil {
		return err
	}
	dest := filepath.Join(RemovedDir, uuid.NewString(), filepath.FromSlash(f.Path))
	if err := w.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return &PathError{Op: "remove", Path: f.Path, Err: err}
	}
	if err := w.fs.Rename(w.FullPath(f.Path), dest); err != nil {
		return &PathError{Op: "remove", Path: f.Path, Err: err}
	}

	w.mu.Lock()
	if w.files[f.Path] == f {
		delete(w.files, f.Path)
	}
	f.IsRemoved = true
	f.ReasonForRemoval = reason
	w.removed = append(w.removed, f)
	w.mu.Unlock()

	log.WithFields(log.Fields{
		"workspace": w.ID,
		"path":      f.Path,
		"record":    dest,
	}).Info(reason)
	return nil
}

// Exists reports whether any of paths is a tracked file.
func (w *Workspace) Exists(paths ...string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range paths {
		if _, ok := w.files[path.Clean(p)]; ok {
			return true
		}
	}
	return false
}

// Get returns the tracked file at p.
func (w *Workspace) Get(p string) (*File, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, ok := w.files[path.Clean(p)]
	return f, ok
}

// Files returns the tracked files, including directories, in path order.
func (w *Workspace) Files() []*File {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sortedLocked()
}

func (w *Workspace) sortedLocked() []*File {
	out := make([]*File, 0, len(w.files))
	for _, f := range w.files {
		out = append(out, f)
	}
	sortFiles(out, func(a, b *File) bool { return a.Path < b.Path })
	return out
}

// Removed returns the files moved to removal records.
func (w *Workspace) Removed() []*File {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*File(nil), w.removed...)
}

// FileCount returns the number of tracked regular files.
func (w *Workspace) FileCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, f := range w.files {
		if !f.IsDirectory {
			n++
		}
	}
	return n
}

// TypeCounts summarizes the tracked files by type.
type TypeCounts struct {
	// ByType counts non-ancillary records by tag.
	ByType map[filetype.Type]int
	// Files counts non-ancillary records, AllFiles every record.
	Files    int
	AllFiles int
	// Ignore counts non-ancillary IGNORE and ALWAYS_IGNORE records.
	Ignore int
}

// Sum adds up ByType for the given tags.
func (c TypeCounts) Sum(types ...filetype.Type) int {
	n := 0
	for _, t := range types {
		n += c.ByType[t]
	}
	return n
}

// TypeCounts counts the tracked records.
func (w *Workspace) TypeCounts() TypeCounts {
	w.mu.Lock()
	defer w.mu.Unlock()

	c := TypeCounts{ByType: make(map[filetype.Type]int)}
	for _, f := range w.files {
		c.AllFiles++
		if f.IsAncillary {
			continue
		}
		c.Files++
		c.ByType[f.Type]++
		if f.Type == filetype.Ignore || f.Type == filetype.AlwaysIgnore {
			c.Ignore++
		}
	}
	return c
}

// Match returns the tracked files whose path matches the glob pattern.
func (w *Workspace) Match(pattern string) ([]*File, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, errors.WithMessagef(err, "match %q", pattern)
	}
	var out []*File
	for _, f := range w.Files() {
		if g.Match(f.Path) {
			out = append(out, f)
		}
	}
	return out, nil
}

// IsIgnored reports whether f matches one of the configured ignore patterns.
func (w *Workspace) IsIgnored(f *File) bool {
	for _, g := range w.ignore {
		if g.Match(f.Path) || g.Match(f.Name()) {
			return true
		}
	}
	return false
}

// Classify runs the type classifier over f and records the result.
// Files matching an ignore pattern are tagged ALWAYS_IGNORE unread.
func (w *Workspace) Classify(f *File) (filetype.Result, error) {
	var (
		res filetype.Result
		err error
	)
	switch {
	case f.IsDirectory:
		res = filetype.Result{Type: filetype.Directory}
	case w.IsIgnored(f):
		res = filetype.Result{Type: filetype.AlwaysIgnore}
	default:
		res, err = filetype.Classify(w.fs, w.FullPath(f.Path))
	}

	w.mu.Lock()
	f.Type, f.Format = res.Type, res.Format
	w.mu.Unlock()

	log.WithFields(log.Fields{
		"workspace": w.ID,
		"path":      f.Path,
		"type":      res.String(),
	}).Debug("classified file")
	return res, err
}

func sortFiles(files []*File, less func(a, b *File) bool) {
	sort.Slice(files, func(i, j int) bool { return less(files[i], files[j]) })
}
