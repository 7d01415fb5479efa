package check

import (
	"fmt"
	"path"
	"regexp"

	"github.com/gobeaver/sourcekit"
	"github.com/gobeaver/sourcekit/filetype"
	"github.com/gobeaver/sourcekit/metrics"
)

var texProduced = regexp.MustCompile(`(?i)(.+)\.(log|aux|out|blg|dvi|ps|pdf)$`)

// TeXGenerated removes TeX build products that shadow a submitted TeX
// source of the same base name, and rejects DVI files.
func TeXGenerated() *Checker {
	const name = "tex_generated"

	removeProduced := func(ws *sourcekit.Workspace, f *sourcekit.File) (*sourcekit.File, error) {
		if f.IsDirectory || !texProduced.MatchString(f.Name()) {
			return f, nil
		}
		base := path.Join(f.Dir(), f.Stem())
		if !ws.Exists(base+".tex", base+".TEX") {
			return f, nil
		}
		if err := ws.Remove(f, fmt.Sprintf("Removed file '%s' due to name conflict.", f.Name())); err != nil {
			return f, err
		}
		metrics.FilesRemovedTotal.WithLabelValues(name).Inc()
		return f, nil
	}

	return &Checker{
		Name:  name,
		Check: removeProduced,
		ByType: map[filetype.Type]CheckFunc{
			filetype.DVI: func(ws *sourcekit.Workspace, f *sourcekit.File) (*sourcekit.File, error) {
				if f, err := removeProduced(ws, f); err != nil || f.IsRemoved {
					return f, err
				}
				if !f.IsAncillary {
					ws.AddError(f, "dvi_file", fmt.Sprintf(
						"%s is a TeX-produced DVI file. Please submit the TeX source instead.", f.Name()))
				}
				return f, nil
			},
		},
	}
}
