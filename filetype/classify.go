package filetype

import (
	"io"
	"os"
	"time"

	"github.com/gobeaver/sourcekit/metrics"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Classify determines the type of the file at name on fsys. Path rules are
// tried first, then the size and signature checks, and finally the content
// scan. The file handle is released on every return path.
func Classify(fsys afero.Fs, name string) (res Result, err error) {
	start := time.Now()
	defer func() {
		metrics.ClassifyDurationSeconds.Observe(time.Since(start).Seconds())
		metrics.ClassifiedTotal.WithLabelValues(res.Type.String()).Inc()
	}()

	if t, ok := MatchName(name); ok {
		return Result{Type: t}, nil
	}

	fi, err := fsys.Stat(name)
	if os.IsNotExist(err) {
		return Result{Type: Failed}, nil
	} else if err != nil {
		return Result{Type: Failed}, errors.WithMessagef(err, "stat %s", name)
	}
	if fi.IsDir() {
		return Result{Type: Directory}, nil
	}
	if fi.Size() == 0 {
		return Result{Type: Ignore}, nil
	}

	f, err := fsys.Open(name)
	if err != nil {
		return Result{Type: Failed}, errors.WithMessagef(err, "open %s", name)
	}
	defer f.Close()

	return ClassifyReader(name, f)
}

// ClassifyReader runs the signature and content checks over r, which must be
// positioned at the start of a non-empty file called name.
func ClassifyReader(name string, r io.ReadSeeker) (Result, error) {
	head := make([]byte, HeadSize)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Result{Type: Failed}, errors.WithMessagef(err, "read %s", name)
	}
	if t, ok := MatchSignature(name, head[:n]); ok {
		return Result{Type: t}, nil
	}

	if _, err = r.Seek(0, io.SeekStart); err != nil {
		return Result{Type: Failed}, errors.WithMessagef(err, "rewind %s", name)
	}
	res, err := Scan(r)
	if err != nil {
		return res, errors.WithMessagef(err, "classify %s", name)
	}
	return res, nil
}
