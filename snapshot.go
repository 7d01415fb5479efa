package sourcekit

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Snapshot copies the source tree of fs into memory and returns the copy.
// fs is only ever read, through a read-only view, so a pipeline run over
// the snapshot leaves the original submission untouched.
//
// Example:
//
//	base, _ := sourcekit.CreateDriver(cfg)
//	snap, err := sourcekit.Snapshot(base)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ws, _ := sourcekit.NewWorkspace(snap, sourcekit.WithConfig(cfg))
func Snapshot(fs afero.Fs) (afero.Fs, error) {
	var (
		ro  = afero.NewReadOnlyFs(fs)
		mem = afero.NewMemMapFs()
	)
	if err := mem.MkdirAll(SourceDir, 0o755); err != nil {
		return nil, err
	}
	if _, err := ro.Stat(SourceDir); os.IsNotExist(err) {
		return mem, nil
	}

	err := afero.Walk(ro, SourceDir, func(name string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return mem.MkdirAll(name, fi.Mode().Perm()|0o700)
		}
		if !fi.Mode().IsRegular() {
			// Links and devices have no content worth checking.
			return nil
		}
		return copyFile(ro, mem, name, fi.Mode().Perm())
	})
	if err != nil {
		return nil, errors.WithMessage(err, "snapshot source tree")
	}
	return mem, nil
}

func copyFile(src, dst afero.Fs, name string, perm os.FileMode) (err error) {
	in, err := src.Open(name)
	if err != nil {
		return err
	}
	defer in.Close()

	if err = dst.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	out, err := dst.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(out, in)
	return err
}
