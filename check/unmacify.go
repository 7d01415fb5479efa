package check

import (
	"bufio"
	"fmt"
	"io"

	"github.com/gobeaver/sourcekit"
	"github.com/gobeaver/sourcekit/filetype"
	"github.com/gobeaver/sourcekit/metrics"
)

const CodeLineEndings = "line_endings_converted"

// UnMacify converts CRLF and lone CR line endings to LF in TeX sources,
// HTML and files detected as PC or Mac text.
func UnMacify() *Checker {
	convert := func(ws *sourcekit.Workspace, f *sourcekit.File) (*sourcekit.File, error) {
		if !ws.Config().UnMacify {
			return f, nil
		}
		return unmacify(ws, f)
	}
	return &Checker{
		Name: "unmacify",
		Check: func(ws *sourcekit.Workspace, f *sourcekit.File) (*sourcekit.File, error) {
			if !f.IsTeX() {
				return f, nil
			}
			return convert(ws, f)
		},
		ByType: map[filetype.Type]CheckFunc{
			filetype.HTML: convert,
			filetype.PC:   convert,
			filetype.Mac:  convert,
		},
	}
}

func unmacify(ws *sourcekit.Workspace, f *sourcekit.File) (*sourcekit.File, error) {
	scratch, err := ws.Create(f.Path+".unmacified", sourcekit.WithType(f.Type), sourcekit.WithAncillary(f.IsAncillary))
	if err != nil {
		return f, err
	}
	n, err := writeUnmacified(ws, f, scratch)
	if err != nil || n == 0 {
		if derr := ws.Delete(scratch); err == nil {
			err = derr
		}
		return f, err
	}

	scratch.Format = f.Format
	converted, err := ws.Replace(f, scratch)
	if err != nil {
		return f, err
	}
	metrics.RepairsTotal.WithLabelValues("unmacify", metrics.Ok).Inc()
	ws.AddWarning(converted, CodeLineEndings,
		fmt.Sprintf("Converted %d line endings of '%s' to Unix format.", n, converted.Name()))
	return converted, nil
}

// writeUnmacified copies f to dst with CR and CRLF replaced by LF and
// returns the number of line endings replaced.
func writeUnmacified(ws *sourcekit.Workspace, f, dst *sourcekit.File) (n int, err error) {
	in, err := ws.Open(f)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	out, err := ws.OpenForWrite(dst)
	if err != nil {
		return 0, err
	}
	bw := bufio.NewWriterSize(out, 64<<10)
	defer func() {
		if ferr := bw.Flush(); err == nil {
			err = ferr
		}
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	br := bufio.NewReaderSize(in, 64<<10)
	for {
		b, rerr := br.ReadByte()
		if rerr == io.EOF {
			return n, nil
		} else if rerr != nil {
			return n, rerr
		}
		if b != '\r' {
			if err = bw.WriteByte(b); err != nil {
				return n, err
			}
			continue
		}
		n++
		if next, _ := br.Peek(1); len(next) == 1 && next[0] == '\n' {
			_, _ = br.ReadByte()
		}
		if err = bw.WriteByte('\n'); err != nil {
			return n, err
		}
	}
}
