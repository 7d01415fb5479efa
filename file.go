package sourcekit

import (
	"path"
	"strings"
	"time"

	"github.com/gobeaver/sourcekit/filetype"
)

// File is one tracked file of a workspace. Path is relative to the source
// tree and slash separated; directory records carry a trailing slash in
// neither Path nor Name.
type File struct {
	Path        string
	Type        filetype.Type
	Format      string
	Size        int64
	Modified    time.Time
	IsAncillary bool
	IsDirectory bool

	IsRemoved        bool
	ReasonForRemoval string

	warnings []Notice
	errors   []Notice
}

// Name returns the base name of the file.
func (f *File) Name() string { return path.Base(f.Path) }

// Dir returns the directory containing the file, or "" at the top level.
func (f *File) Dir() string {
	d := path.Dir(f.Path)
	if d == "." {
		return ""
	}
	return d
}

// Ext returns the file name extension, including the dot.
func (f *File) Ext() string { return path.Ext(f.Path) }

// Stem returns the file name without its extension.
func (f *File) Stem() string { return strings.TrimSuffix(f.Name(), f.Ext()) }

// IsEmpty reports whether f is a zero-length regular file.
func (f *File) IsEmpty() bool { return !f.IsDirectory && f.Size == 0 }

// IsAlwaysIgnore reports whether f is tagged ALWAYS_IGNORE.
func (f *File) IsAlwaysIgnore() bool { return f.Type == filetype.AlwaysIgnore }

// IsTeX reports whether f is tagged with a TeX family type.
func (f *File) IsTeX() bool { return f.Type.IsTeX() }

func (f *File) String() string { return f.Path + " [" + f.Type.String() + "]" }

// SortFiles orders files by type priority, highest first, then by path.
func SortFiles(files []*File) {
	sortFiles(files, func(a, b *File) bool {
		if a.Type != b.Type {
			return filetype.Less(a.Type, b.Type)
		}
		return a.Path < b.Path
	})
}

func isAncillaryPath(p string) bool {
	return p == AncillaryDir || strings.HasPrefix(p, AncillaryDir+"/")
}
