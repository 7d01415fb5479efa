package check

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gobeaver/sourcekit"
	"github.com/gobeaver/sourcekit/filetype"
	"github.com/gobeaver/sourcekit/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Notice codes raised by Postscript repairs.
const (
	CodePostscriptRepaired       = "postscript_file_repaired"
	CodePostscriptHeaderRepaired = "postscript_header_repaired"
	CodePreviewStripped          = "postscript_preview_stripped"
	CodePreviewStripFailed       = "postscript_preview_stripping_failed"
	CodeNoncompliantTIFF         = "noncompliant_tiff"
)

// headerScanLines bounds how far into a file header repair looks.
const headerScanLines = 11

var (
	psControlChar  = regexp.MustCompile(`^%*\x04%!`)
	psDoublePct    = regexp.MustCompile(`^%%!`)
	psLeadingJunk  = regexp.MustCompile(`^(.+)%!PS-Adobe-`)
	psFileName     = regexp.MustCompile(`(?i)\.e?psi?$`)
	previewPattern = regexp.MustCompile(`(?i)Thumbnail:|BeginPreview|BeginPhotoshop|BeginFont|BeginResource: font`)
	malformedEnd   = regexp.MustCompile(`\r%%EndComments`)
)

// CleanupPostScript repairs Postscript files: broken headers of PS_PC files
// and of unrecognized files named like Postscript, embedded previews, and
// TIFF images appended after the end of the program.
func CleanupPostScript() *Checker {
	return &Checker{
		Name: "cleanup_postscript",
		ByType: map[filetype.Type]CheckFunc{
			filetype.Postscript: checkPostscript,
			filetype.PSPC: func(ws *sourcekit.Workspace, f *sourcekit.File) (*sourcekit.File, error) {
				f, _, _, err := repairHeader(ws, f)
				return f, err
			},
			filetype.Failed: func(ws *sourcekit.Workspace, f *sourcekit.File) (*sourcekit.File, error) {
				if !psFileName.MatchString(f.Name()) {
					return f, nil
				}
				f, header, fixed, err := repairHeader(ws, f)
				if err != nil {
					return f, err
				}
				if fixed {
					ws.AddWarning(f, CodePostscriptHeaderRepaired, fmt.Sprintf(
						"File '%s' did not have proper Postscript header, repaired to '%s'.", f.Path, header))
				}
				return checkPostscript(ws, f)
			},
		},
	}
}

func checkPostscript(ws *sourcekit.Workspace, f *sourcekit.File) (*sourcekit.File, error) {
	cfg := ws.Config()
	if cfg.StripPreviews {
		found, err := findPreviews(ws, f)
		if err != nil {
			return f, err
		}
		for _, p := range found {
			if f, err = stripPreview(ws, f, p); err != nil {
				return f, err
			}
		}
	}
	if cfg.StripTIFF {
		return stripTIFF(ws, f)
	}
	return f, nil
}

// eachLine calls fn with every line of r, including the trailing newline.
// fn returns false to stop early.
func eachLine(r io.Reader, fn func(idx int, line []byte) bool) error {
	br := bufio.NewReaderSize(r, 64<<10)
	for idx := 0; ; idx++ {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 && !fn(idx, line) {
			return nil
		}
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
	}
}

// repairHeader fixes common corruptions in front of a Postscript header.
// It returns the current record, the header line found (or the synthetic
// "%!" header) and whether the file was rewritten.
func repairHeader(ws *sourcekit.Workspace, f *sourcekit.File) (*sourcekit.File, string, bool, error) {
	scratch, err := ws.Create(f.Path+".fixed", sourcekit.WithType(f.Type), sourcekit.WithAncillary(f.IsAncillary))
	if err != nil {
		return f, "", false, err
	}

	res, err := writeRepairedHeader(ws, f, scratch)
	header := headerLine(res.header)
	if err != nil || !res.fixed {
		if derr := ws.Delete(scratch); err == nil {
			err = derr
		}
		return f, header, false, err
	}

	if len(res.stripped) > 0 {
		if err := saveStripped(ws, f, res.stripped); err != nil {
			discard(ws, scratch)
			return f, header, false, err
		}
		res.messages = append(res.messages, "Removed extraneous lines in front of PS header.")
	}

	orig := f.Type
	repaired, err := ws.Replace(f, scratch)
	if err != nil {
		metrics.RepairsTotal.WithLabelValues("postscript_header", metrics.Fail).Inc()
		return f, header, false, err
	}
	classify(ws, repaired)

	format := "Attempted repairs on Postscript file '%s': %s"
	if repaired.Type != orig && repaired.Type == filetype.Postscript {
		format = "Repaired Postscript file '%s': %s"
	}
	ws.AddWarning(repaired, CodePostscriptRepaired,
		fmt.Sprintf(format, repaired.Name(), strings.Join(res.messages, " ")))
	metrics.RepairsTotal.WithLabelValues("postscript_header", metrics.Ok).Inc()
	return repaired, header, true, nil
}

type headerRepair struct {
	fixed    bool
	header   []byte
	stripped []byte
	messages []string
}

func writeRepairedHeader(ws *sourcekit.Workspace, f, scratch *sourcekit.File) (res headerRepair, err error) {
	in, err := ws.Open(f)
	if err != nil {
		return res, err
	}
	defer in.Close()
	out, err := ws.OpenForWrite(scratch)
	if err != nil {
		return res, err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	br := bufio.NewReaderSize(in, 64<<10)
	var stripped bytes.Buffer
	for idx := 0; idx < headerScanLines; idx++ {
		line, rerr := br.ReadBytes('\n')
		if len(line) == 0 {
			if rerr != nil && rerr != io.EOF {
				return res, rerr
			}
			break
		}

		if psControlChar.Match(line) {
			line = psControlChar.ReplaceAll(line, []byte("%!"))
			res.fixed = true
			res.messages = append(res.messages, "Removed control character from PS header.")
		}
		if psDoublePct.Match(line) {
			line = psDoublePct.ReplaceAll(line, []byte("%!"))
			res.fixed = true
			res.messages = append(res.messages, "Removed extra '%' from PS header.")
		}
		if psLeadingJunk.Match(line) {
			line = psLeadingJunk.ReplaceAll(line, []byte("%!PS-Adobe-"))
			res.fixed = true
			res.messages = append(res.messages, "Removed extraneous characters before PS header.")
		}

		if bytes.HasPrefix(line, []byte("%!")) {
			res.header = line
			break
		}
		stripped.Write(line)
		if rerr != nil {
			break
		}
	}

	if res.header == nil {
		// No header: keep the whole file behind a synthetic one.
		if _, err = in.Seek(0, io.SeekStart); err != nil {
			return res, err
		}
		if _, err = io.WriteString(out, "%!\n"); err != nil {
			return res, err
		}
		_, err = io.Copy(out, in)
		return res, err
	}

	if res.fixed && stripped.Len() > 0 {
		res.stripped = stripped.Bytes()
	}
	if _, err = out.Write(res.header); err != nil {
		return res, err
	}
	_, err = io.Copy(out, br)
	return res, err
}

// saveStripped keeps the lines removed in front of a header beside f.
func saveStripped(ws *sourcekit.Workspace, f *sourcekit.File, stripped []byte) error {
	cleaned, err := ws.Create(f.Path+".cleaned",
		sourcekit.WithType(filetype.AlwaysIgnore), sourcekit.WithAncillary(f.IsAncillary))
	if err != nil {
		return err
	}
	out, err := ws.OpenForWrite(cleaned)
	if err != nil {
		return err
	}
	if _, err := out.Write(stripped); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return ws.Refresh(cleaned)
}

// discard deletes a scratch file on an error path.
func discard(ws *sourcekit.Workspace, scratch *sourcekit.File) {
	if err := ws.Delete(scratch); err != nil {
		log.WithFields(log.Fields{"workspace": ws.ID, "path": scratch.Path, "err": err}).
			Debug("failed to delete scratch file")
	}
}

func headerLine(line []byte) string {
	if line == nil {
		line = []byte("%!\n")
	}
	if len(line) > 75 {
		line = line[:75]
	}
	return strings.TrimRight(string(line), "\r\n")
}

// preview describes an embedded block that can be cut from a Postscript
// file.
type preview struct {
	What  string
	Start *regexp.Regexp
	End   *regexp.Regexp
}

var (
	photoshopPreview = preview{"Photoshop", regexp.MustCompile(`^%BeginPhotoshop`), regexp.MustCompile(`^%EndPhotoshop`)}
	previewPreview   = preview{"Preview", regexp.MustCompile(`^%%BeginPreview`), regexp.MustCompile(`^%%EndPreview`)}
	// Thumbnail blocks are closed inline.
	thumbnailPreview = preview{"Thumbnail", regexp.MustCompile(`Thumbnail`), regexp.MustCompile(`%%EndData`)}
)

// findPreviews lists, in order of first appearance, the kinds of preview
// embedded in f.
func findPreviews(ws *sourcekit.Workspace, f *sourcekit.File) ([]preview, error) {
	fh, err := ws.Open(f)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	var (
		found []preview
		seen  = make(map[string]bool)
	)
	err = eachLine(fh, func(_ int, line []byte) bool {
		for _, m := range previewPattern.FindAll(line, -1) {
			var p preview
			switch strings.ToLower(string(m)) {
			case "beginphotoshop":
				p = photoshopPreview
			case "beginpreview":
				p = previewPreview
			case "thumbnail:":
				p = thumbnailPreview
			default:
				continue
			}
			if !seen[p.What] {
				seen[p.What] = true
				found = append(found, p)
			}
		}
		return len(found) < 3
	})
	return found, err
}

// stripPreview removes every p block from f. A block that is never closed
// leaves f untouched.
func stripPreview(ws *sourcekit.Workspace, f *sourcekit.File, p preview) (*sourcekit.File, error) {
	origSize, err := ws.Size(f)
	if err != nil {
		return f, err
	}
	scratch, err := ws.Create(f.Path+".stripped", sourcekit.WithType(f.Type), sourcekit.WithAncillary(f.IsAncillary))
	if err != nil {
		return f, err
	}

	res, err := writeStripped(ws, f, scratch, p)
	if err != nil || res.from == 0 || !res.closed {
		if derr := ws.Delete(scratch); err == nil {
			err = derr
		}
		if err != nil {
			return f, err
		}
		if res.from == 0 {
			log.WithFields(log.Fields{"workspace": ws.ID, "path": f.Path, "preview": p.What}).
				Debug("no preview start delimiter found")
			return f, nil
		}
		metrics.RepairsTotal.WithLabelValues("postscript_preview", metrics.Fail).Inc()
		ws.AddWarning(f, CodePreviewStripFailed, fmt.Sprintf(
			"Unable to strip %s from '%s': block starting at line %d had unpaired %s",
			p.What, f.Name(), res.from, p.End.String()))
		return f, nil
	}

	newSize, err := ws.Size(scratch)
	if err != nil {
		return f, err
	}
	stripped, err := ws.Replace(f, scratch)
	if err != nil {
		return f, errors.WithMessage(err, "replace stripped file")
	}
	stripped.Format = f.Format

	metrics.RepairsTotal.WithLabelValues("postscript_preview", metrics.Ok).Inc()
	if origSize > newSize {
		metrics.BytesStrippedTotal.Add(float64(origSize - newSize))
	}
	ws.AddWarning(stripped, CodePreviewStripped, fmt.Sprintf(
		"Unnecessary %s removed from '%s' from line %d to line %d, reduced from %s to %s.",
		p.What, stripped.Name(), res.from, res.to,
		humanize.IBytes(uint64(origSize)), humanize.IBytes(uint64(newSize))))
	return stripped, nil
}

type stripResult struct {
	from, to int
	closed   bool
}

func writeStripped(ws *sourcekit.Workspace, f, scratch *sourcekit.File, p preview) (res stripResult, err error) {
	in, err := ws.Open(f)
	if err != nil {
		return res, err
	}
	defer in.Close()
	out, err := ws.OpenForWrite(scratch)
	if err != nil {
		return res, err
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

	retain := true
	var werr error
	err = eachLine(in, func(idx int, line []byte) bool {
		if retain && p.Start.Match(line) {
			res.from, res.to = idx+1, 0
			retain = false
		}
		if retain {
			_, werr = bw.Write(line)
		}
		if !retain && p.End.Match(line) {
			res.to = idx + 1
			retain = true
			if malformedEnd.Match(line) {
				_, werr = bw.Write(line)
			}
		}
		return werr == nil
	})
	if err == nil {
		err = werr
	}
	res.closed = retain
	return res, err
}

// stripTIFF truncates a TIFF image appended to f. The cut is made after
// the %%EOF line when a TIFF byte order mark follows it, or at the start of
// a line opening with such a mark when there is no %%EOF.
func stripTIFF(ws *sourcekit.Workspace, f *sourcekit.File) (*sourcekit.File, error) {
	origSize, err := ws.Size(f)
	if err != nil {
		return f, err
	}
	end, err := truncateTIFF(ws, f)
	if err != nil {
		metrics.RepairsTotal.WithLabelValues("tiff", metrics.Fail).Inc()
		return f, err
	}
	if end <= 0 {
		return f, nil
	}
	if err := ws.Refresh(f); err != nil {
		return f, err
	}

	metrics.RepairsTotal.WithLabelValues("tiff", metrics.Ok).Inc()
	metrics.BytesStrippedTotal.Add(float64(origSize - end))
	ws.AddWarning(f, CodeNoncompliantTIFF, fmt.Sprintf("Non-compliant attached TIFF removed from '%s'", f.Name()))
	return f, nil
}

func truncateTIFF(ws *sourcekit.Workspace, f *sourcekit.File) (end int64, err error) {
	fh, err := ws.OpenForUpdate(f)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := fh.Close(); err == nil {
			err = cerr
		}
	}()

	br := bufio.NewReaderSize(fh, 64<<10)
	var pos int64
	for {
		line, rerr := br.ReadBytes('\n')
		pos += int64(len(line))
		if isEOFMarker(line) {
			if next, _ := br.Peek(4); isTIFFMark(next) {
				end = pos
			}
			break
		}
		if isTIFFMark(line) {
			end = pos - int64(len(line))
			log.WithFields(log.Fields{"workspace": ws.ID, "path": f.Path, "offset": end}).
				Info("no EOF marker before TIFF, truncating at TIFF start")
			break
		}
		if rerr == io.EOF {
			break
		} else if rerr != nil {
			return 0, rerr
		}
	}

	if end > 0 {
		err = fh.Truncate(end)
	}
	return end, err
}

func isEOFMarker(line []byte) bool {
	return bytes.Equal(bytes.TrimSuffix(line, []byte("\n")), []byte("%%EOF"))
}

func isTIFFMark(b []byte) bool {
	return bytes.HasPrefix(b, []byte("II*\x00")) || bytes.HasPrefix(b, []byte("MM\x00*"))
}
