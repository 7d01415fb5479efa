package check

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/gobeaver/sourcekit"
	"github.com/gobeaver/sourcekit/filetype"
	"github.com/gobeaver/sourcekit/metrics"
	log "github.com/sirupsen/logrus"
)

// Notice codes raised by DOS EPS repair.
const (
	CodeBackupFile           = "backup_file"
	CodeStripPreviewFailed   = "strip_preview_failed"
	CodeLeadingTIFFStripped  = "leading_tiff_preview_stripped"
	CodeTrailingTIFFStripped = "trailing_tiff_preview_stripped"
)

// dosEPSHeader is the binary header of a DOS EPS file. Offsets and lengths
// are little endian.
type dosEPSHeader struct {
	Magic      [4]byte
	PSOffset   int32
	PSLength   int32
	MetaOffset int32
	MetaLength int32
	TIFFOffset int32
	TIFFLength int32
}

func (h dosEPSHeader) hasTIFF() bool {
	return h.PSOffset > 0 && h.PSLength > 0 && h.TIFFOffset > 0 && h.TIFFLength > 0
}

func readDOSEPSHeader(r io.Reader) (h dosEPSHeader, err error) {
	err = binary.Read(r, binary.LittleEndian, &h)
	return h, err
}

// RepairDOSEPS extracts the Postscript section of DOS EPS files carrying a
// TIFF preview. Files without a preview get the Postscript header repair.
func RepairDOSEPS() *Checker {
	return &Checker{
		Name: "repair_dos_eps",
		ByType: map[filetype.Type]CheckFunc{
			filetype.DOSEPS: repairDOSEPS,
		},
	}
}

func repairDOSEPS(ws *sourcekit.Workspace, f *sourcekit.File) (*sourcekit.File, error) {
	fh, err := ws.Open(f)
	if err != nil {
		return f, err
	}
	h, err := readDOSEPSHeader(fh)
	fh.Close()
	if err != nil {
		return f, err
	}

	if !h.hasTIFF() {
		log.WithFields(log.Fields{"workspace": ws.ID, "path": f.Path}).
			Info("DOS EPS has no embedded TIFF")
		ws.AddWarning(f, CodeStripPreviewFailed, "Failed to strip TIFF preview")
		return f, nil
	}
	if h.PSOffset == h.TIFFOffset {
		return f, nil
	}

	size, err := ws.Size(f)
	if err != nil {
		return f, err
	}
	leading := h.PSOffset > h.TIFFOffset
	start, end := int64(h.PSOffset), int64(h.TIFFOffset)
	if leading {
		end = start + int64(h.PSLength)
	}
	if end > size {
		end = size
	}

	ok, err := hasPSMarker(ws, f, start, end)
	if err != nil {
		return f, err
	}
	if !ok {
		log.WithFields(log.Fields{"workspace": ws.ID, "path": f.Path, "offset": start}).
			Info("could not find beginning of Postscript section")
		metrics.RepairsTotal.WithLabelValues("dos_eps", metrics.Fail).Inc()
		ws.AddWarning(f, CodeStripPreviewFailed, "Failed to strip TIFF preview")
		return f, nil
	}

	if !leading {
		backup, err := ws.Copy(f, f.Path+".original")
		if err != nil {
			return f, err
		}
		ws.AddWarning(backup, CodeBackupFile, fmt.Sprintf(
			"Modified file %s. Saving original to %s. You may delete this file.", f.Path, backup.Path))
	}

	scratch, err := ws.Create(f.Path+".fixed", sourcekit.WithType(f.Type), sourcekit.WithAncillary(f.IsAncillary))
	if err != nil {
		return f, err
	}
	if err := copySection(ws, f, scratch, start, end); err != nil {
		discard(ws, scratch)
		return f, err
	}
	repaired, err := ws.Replace(f, scratch)
	if err != nil {
		return f, err
	}
	classify(ws, repaired)

	metrics.RepairsTotal.WithLabelValues("dos_eps", metrics.Ok).Inc()
	metrics.BytesStrippedTotal.Add(float64(size - (end - start)))
	if leading {
		ws.AddWarning(repaired, CodeLeadingTIFFStripped, "Leading TIFF preview stripped.")
	} else {
		ws.AddWarning(repaired, CodeTrailingTIFFStripped, "Trailing TIFF preview stripped.")
	}
	return repaired, nil
}

// hasPSMarker reports whether the section [start, end) of f opens with a
// Postscript marker.
func hasPSMarker(ws *sourcekit.Workspace, f *sourcekit.File, start, end int64) (bool, error) {
	if start >= end {
		return false, nil
	}
	fh, err := ws.Open(f)
	if err != nil {
		return false, err
	}
	defer fh.Close()

	marker := []byte("%!PS-")
	head := make([]byte, len(marker))
	n, err := io.ReadFull(io.NewSectionReader(fh, start, end-start), head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	return bytes.Equal(head[:n], marker), nil
}

func copySection(ws *sourcekit.Workspace, f, dst *sourcekit.File, start, end int64) (err error) {
	in, err := ws.Open(f)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := ws.OpenForWrite(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(out, io.NewSectionReader(in, start, end-start))
	return err
}
