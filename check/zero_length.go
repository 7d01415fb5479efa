package check

import (
	"fmt"

	"github.com/gobeaver/sourcekit"
	"github.com/gobeaver/sourcekit/metrics"
)

// ZeroLengthFiles removes empty files.
func ZeroLengthFiles() *Checker {
	const name = "zero_length_files"
	return &Checker{
		Name: name,
		Check: func(ws *sourcekit.Workspace, f *sourcekit.File) (*sourcekit.File, error) {
			if !f.IsEmpty() {
				return f, nil
			}
			ws.AddWarning(f, "zero_length", fmt.Sprintf("File '%s' is empty (size is zero).", f.Name()))
			if err := ws.Remove(f, fmt.Sprintf("Removed file '%s' [file is empty].", f.Name())); err != nil {
				return f, err
			}
			metrics.FilesRemovedTotal.WithLabelValues(name).Inc()
			return f, nil
		},
	}
}
