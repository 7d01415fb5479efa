package filetype

import (
	"bufio"
	"bytes"
	"io"
	"regexp"

	"github.com/pkg/errors"
)

var (
	reGraphicsAsset = regexp.MustCompile(`(?i)^[^%]*\\includegraphics[^%]*\.(?:pdf|png|gif|jpg)\s?\}`)
	rePDFOutput     = regexp.MustCompile(`^[^%]*\\pdfoutput(?:\s+)?=(?:\s+)?1`)
)

// DisambiguateLaTeX2e decides between PDFLATEX and LATEX2e for a file whose
// trigger line (1-based) announced LaTeX2e. The whole file is searched for an
// \includegraphics of a pdf/png/gif/jpg asset; \pdfoutput=1 only counts
// before trigger+5. The read offset of r is restored before returning.
func DisambiguateLaTeX2e(r io.ReadSeeker, trigger int) (Result, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return Result{Type: Failed}, errors.WithMessage(err, "latex2e: tell")
	}
	defer r.Seek(pos, io.SeekStart) //nolint:errcheck

	if _, err = r.Seek(0, io.SeekStart); err != nil {
		return Result{Type: Failed}, errors.WithMessage(err, "latex2e: rewind")
	}

	limit := trigger + 5
	br := bufio.NewReader(r)
	for lineNo := 1; ; lineNo++ {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			line = bytes.TrimSuffix(line, []byte("\n"))
			if reGraphicsAsset.Match(line) || (lineNo < limit && rePDFOutput.Match(line)) {
				return Result{Type: PDFLaTeX}, nil
			}
		}
		if err == io.EOF {
			return Result{Type: LaTeX2e}, nil
		}
		if err != nil {
			return Result{Type: Failed}, errors.WithMessage(err, "latex2e: read")
		}
	}
}
