package check

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gobeaver/sourcekit"
	"github.com/gobeaver/sourcekit/filetype"
	"github.com/gobeaver/sourcekit/metrics"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const unpackErrorMessage = "There were problems unpacking '%s'. Please try again and confirm your files."

var errUnpackLimit = errors.New("archive exceeds extraction limits")

// Unpack extracts tar (optionally gzip or bzip2 compressed) and zip archives
// next to themselves and removes the archive once it was read through.
// Members that would land outside the source tree, links and device nodes
// are skipped with a warning. Unreadable archives are kept and reported.
func Unpack() *Checker {
	const name = "unpack"
	return &Checker{
		Name: name,
		ByType: map[filetype.Type]CheckFunc{
			filetype.Tar:        unpackTar,
			filetype.Gzipped:    unpackTar,
			filetype.Bzip2:      unpackTar,
			filetype.ZIP:        unpackZip,
			filetype.Compressed: unpackCompressed,
		},
	}
}

// extractor writes archive members into the directory holding the archive.
type extractor struct {
	ws      *sourcekit.Workspace
	archive *sourcekit.File

	files    int
	written  int64
	maxFiles int
	maxBytes int64
}

func newExtractor(ws *sourcekit.Workspace, f *sourcekit.File) *extractor {
	cfg := ws.Config()
	return &extractor{
		ws:       ws,
		archive:  f,
		maxFiles: cfg.UnpackMaxFiles,
		maxBytes: cfg.UnpackMaxUncompressedSize,
	}
}

// dest maps a member name to a path relative to the source tree. ok is
// false for names that refer to the extraction directory itself.
func (x *extractor) dest(name string) (dest string, ok bool) {
	name = strings.TrimPrefix(name, "./")
	if name == "" || name == "." {
		return "", false
	}
	dest = strings.TrimLeft(path.Join(x.archive.Dir(), name), "/")
	if dest == "" || dest == "." || dest == x.archive.Dir() {
		return "", false
	}
	return dest, true
}

func (x *extractor) ancillary() []sourcekit.Option {
	if x.archive.IsAncillary {
		return []sourcekit.Option{sourcekit.WithAncillary(true)}
	}
	return nil
}

// escapes reports and skips members resolving outside the source tree.
func (x *extractor) escapes(name, dest string) bool {
	if x.ws.IsSafe(dest) {
		return false
	}
	metrics.ArchiveEntriesRejectedTotal.WithLabelValues("escape").Inc()
	log.WithFields(log.Fields{
		"workspace": x.ws.ID,
		"archive":   x.archive.Path,
		"member":    name,
	}).Warn("archive member tried to escape workspace")
	x.ws.AddWarning(x.archive, "unsafe_member",
		fmt.Sprintf("Member of %s tried to escape workspace: %s", x.archive.Name(), name))
	return true
}

func (x *extractor) reject(what, reason, name string) {
	metrics.ArchiveEntriesRejectedTotal.WithLabelValues(reason).Inc()
	x.ws.AddWarning(x.archive, "disallowed_member",
		fmt.Sprintf("%s are not allowed. Removing %s", what, name))
}

func (x *extractor) count() error {
	x.files++
	if x.maxFiles > 0 && x.files > x.maxFiles {
		return errUnpackLimit
	}
	return nil
}

func (x *extractor) mkdir(dest string) error {
	if err := x.count(); err != nil {
		return err
	}
	opts := append([]sourcekit.Option{sourcekit.AsDirectory()}, x.ancillary()...)
	if _, err := x.ws.Create(dest, opts...); err != nil {
		return err
	}
	metrics.ArchiveEntriesExtractedTotal.Inc()
	return nil
}

// write copies r to dest and registers the new file.
func (x *extractor) write(dest string, r io.Reader) error {
	if err := x.count(); err != nil {
		return err
	}
	if dest == x.archive.Path {
		return errors.Errorf("member %s would overwrite the archive", dest)
	}

	full := x.ws.FullPath(dest)
	fs := x.ws.Fs()
	if err := fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errors.WithMessagef(err, "create directory for %s", dest)
	}
	out, err := fs.OpenFile(full, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.WithMessagef(err, "create %s", dest)
	}

	if x.maxBytes > 0 {
		r = io.LimitReader(r, x.maxBytes-x.written+1)
	}
	n, err := io.Copy(out, r)
	x.written += n
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && x.maxBytes > 0 && x.written > x.maxBytes {
		err = errUnpackLimit
	}
	if err != nil {
		fs.Remove(full)
		return err
	}

	if _, err := x.ws.Create(dest, append([]sourcekit.Option{sourcekit.WithTouch(false)}, x.ancillary()...)...); err != nil {
		return err
	}
	metrics.ArchiveEntriesExtractedTotal.Inc()
	return nil
}

// finish reports the outcome of a traversal and removes the archive when
// it was read through.
func (x *extractor) finish(format string, err error) (*sourcekit.File, error) {
	f := x.archive
	switch {
	case err == errUnpackLimit:
		x.ws.AddWarning(f, "unpack_limit", fmt.Sprintf(
			"Archive '%s' exceeds the extraction limits of %d files or %s. Extraction stopped.",
			f.Name(), x.maxFiles, humanize.IBytes(uint64(x.maxBytes))))
		return f, nil
	case err != nil:
		x.ws.AddWarning(f, "unpack_failed", fmt.Sprintf(unpackErrorMessage, f.Name()))
		x.ws.AddWarning(f, "unpack_failed", fmt.Sprintf("%s error message: %v", format, err))
		return f, nil
	}

	log.WithFields(log.Fields{
		"workspace": x.ws.ID,
		"archive":   f.Path,
		"members":   x.files,
		"bytes":     x.written,
	}).Info("unpacked archive")

	if err := x.ws.Remove(f, fmt.Sprintf("Removed packed file '%s'.", f.Name())); err != nil {
		return f, err
	}
	metrics.FilesRemovedTotal.WithLabelValues("unpack").Inc()
	return f, nil
}

func unpackTar(ws *sourcekit.Workspace, f *sourcekit.File) (*sourcekit.File, error) {
	x := newExtractor(ws, f)

	fh, err := ws.Open(f)
	if err != nil {
		return f, err
	}
	defer fh.Close()

	var r io.Reader = fh
	switch f.Type {
	case filetype.Gzipped:
		gz, err := gzip.NewReader(fh)
		if err != nil {
			return x.finish("Tar", err)
		}
		defer gz.Close()
		r = gz
	case filetype.Bzip2:
		r = bzip2.NewReader(fh)
	}

	br := bufio.NewReaderSize(r, 64<<10)
	if f.Type != filetype.Tar {
		isTar, err := looksLikeTar(br)
		if err != nil {
			return x.finish("Tar", err)
		}
		if !isTar {
			return decompress(x, r, br)
		}
	}
	return x.finish("Tar", x.untar(tar.NewReader(br)))
}

// looksLikeTar peeks at the first block of a decompressed stream.
func looksLikeTar(br *bufio.Reader) (bool, error) {
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return false, err
	}
	if len(head) < 512 {
		return false, nil
	}
	if string(head[257:262]) == "ustar" {
		return true, nil
	}
	_, err = tar.NewReader(bytes.NewReader(head)).Next()
	return err == nil, nil
}

func (x *extractor) untar(tr *tar.Reader) error {
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		dest, ok := x.dest(hdr.Name)
		if !ok || x.escapes(hdr.Name, dest) {
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeSymlink:
			x.reject("Symbolic links", "symlink", hdr.Name)
		case tar.TypeLink:
			x.reject("Hard links", "hardlink", hdr.Name)
		case tar.TypeChar:
			x.reject("Character devices", "device", hdr.Name)
		case tar.TypeBlock:
			x.reject("Block devices", "device", hdr.Name)
		case tar.TypeFifo:
			x.reject("FIFO devices", "fifo", hdr.Name)
		case tar.TypeDir:
			if err := x.mkdir(dest); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := x.write(dest, tr); err != nil {
				return err
			}
		}
	}
}

var compressedSuffixes = []string{".gz", ".gzip", ".bz2", ".bz"}

// decompress writes a compressed single file next to the original under
// its name without the compression suffix.
func decompress(x *extractor, r io.Reader, br *bufio.Reader) (*sourcekit.File, error) {
	f := x.archive
	name := f.Name()
	lower := strings.ToLower(name)
	for _, s := range compressedSuffixes {
		if strings.HasSuffix(lower, s) && len(name) > len(s) {
			name = name[:len(name)-len(s)]
			break
		}
	}
	if name == f.Name() {
		if gz, ok := r.(*gzip.Reader); ok && gz.Name != "" && path.Base(gz.Name) != f.Name() {
			name = path.Base(gz.Name)
		} else {
			name += ".out"
		}
	}

	dest, ok := x.dest(name)
	if !ok || x.escapes(name, dest) {
		return x.finish("Decompression", errors.Errorf("invalid output name %q", name))
	}
	if err := x.write(dest, br); err != nil {
		return x.finish("Decompression", err)
	}
	return x.finish("Decompression", nil)
}

func unpackZip(ws *sourcekit.Workspace, f *sourcekit.File) (*sourcekit.File, error) {
	x := newExtractor(ws, f)

	size, err := ws.Size(f)
	if err != nil {
		return f, err
	}
	fh, err := ws.Open(f)
	if err != nil {
		return f, err
	}
	defer fh.Close()

	zr, err := zip.NewReader(fh, size)
	if err != nil {
		return x.finish("Zip", err)
	}
	return x.finish("Zip", x.unzip(zr))
}

func (x *extractor) unzip(zr *zip.Reader) error {
	for _, zf := range zr.File {
		dest, ok := x.dest(zf.Name)
		if !ok || x.escapes(zf.Name, dest) {
			continue
		}

		mode := zf.Mode()
		switch {
		case mode&os.ModeSymlink != 0:
			x.reject("Symbolic links", "symlink", zf.Name)
		case mode&os.ModeNamedPipe != 0:
			x.reject("FIFO devices", "fifo", zf.Name)
		case mode&os.ModeCharDevice != 0:
			x.reject("Character devices", "device", zf.Name)
		case mode&os.ModeDevice != 0:
			x.reject("Block devices", "device", zf.Name)
		case mode.IsDir():
			if err := x.mkdir(dest); err != nil {
				return err
			}
		default:
			rc, err := zf.Open()
			if err != nil {
				return err
			}
			err = x.write(dest, rc)
			rc.Close()
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func unpackCompressed(ws *sourcekit.Workspace, f *sourcekit.File) (*sourcekit.File, error) {
	ws.AddWarning(f, "unsupported_compression",
		fmt.Sprintf("Unable to uncompress '%s': .Z compressed files are not supported.", f.Name()))
	return f, nil
}
