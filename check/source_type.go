package check

import (
	"github.com/gobeaver/sourcekit"
	"github.com/gobeaver/sourcekit/filetype"
	log "github.com/sirupsen/logrus"
)

// InferSourceType decides the source type of ws from the final tags of its
// files, records it on the workspace and returns it. It must run after
// every file has been checked.
func InferSourceType(ws *sourcekit.Workspace) sourcekit.SourceType {
	st := inferSourceType(ws)
	ws.SetSourceType(st)
	log.WithFields(log.Fields{"workspace": ws.ID, "source_type": st}).Debug("inferred source type")
	return st
}

func inferSourceType(ws *sourcekit.Workspace) sourcekit.SourceType {
	if ws.FileCount() == 1 {
		return singleFileSourceType(ws)
	}
	if ws.FileCount() == 0 {
		// Submitters may clear out their files; removals already explain
		// themselves.
		return sourcekit.SourceInvalid
	}

	c := ws.TypeCounts()
	htmlAux := c.Sum(filetype.HTML, filetype.Image, filetype.Include, filetype.Postscript,
		filetype.PDF, filetype.Directory, filetype.Readme)
	psAux := c.Sum(filetype.Postscript, filetype.PDF, filetype.Directory, filetype.Image) + c.Ignore

	switch {
	case c.AllFiles > 0 && c.Files == 0:
		// Only ancillary files.
		return sourcekit.SourceInvalid
	case c.Files == c.Ignore:
		ws.AddNonFileWarning("all_files_ignored",
			"All files are auto-ignore. If you intended to withdraw the article, "+
				"please use the 'withdraw' function from the list of articles on your account page.")
		return sourcekit.SourceInvalid
	case c.ByType[filetype.HTML] > 0 && c.Files == htmlAux:
		return sourcekit.SourceHTML
	case c.ByType[filetype.Postscript] > 0 && c.Files == psAux:
		return sourcekit.SourcePostscript
	default:
		return sourcekit.SourceTeX
	}
}

func singleFileSourceType(ws *sourcekit.Workspace) sourcekit.SourceType {
	var f *sourcekit.File
	for _, candidate := range ws.Files() {
		if !candidate.IsDirectory {
			f = candidate
			break
		}
	}
	if f == nil {
		return sourcekit.SourceInvalid
	}

	switch {
	case f.IsAncillary || f.IsAlwaysIgnore():
		ws.AddNonFileError("single_ancillary_file", "Found single ancillary file. Invalid submission.")
		return sourcekit.SourceInvalid
	case f.IsTeX():
		return sourcekit.SourceTeX
	case f.Type == filetype.Postscript:
		return sourcekit.SourcePostscript
	case f.Type == filetype.PDF:
		return sourcekit.SourcePDF
	case f.Type == filetype.HTML:
		return sourcekit.SourceHTML
	case f.Type == filetype.Failed:
		ws.AddError(f, "unknown_file_type", "Could not determine file type.")
		return sourcekit.SourceInvalid
	default:
		ws.AddError(f, "unsupported_submission", "Unsupported submission type")
		return sourcekit.SourceInvalid
	}
}
