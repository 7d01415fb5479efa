package check

import (
	"fmt"

	"github.com/gobeaver/sourcekit"
	"github.com/gobeaver/sourcekit/filetype"
)

const inferFileTypeName = "infer_file_type"

// InferFileType classifies files that have no type yet.
func InferFileType() *Checker {
	return &Checker{
		Name: inferFileTypeName,
		ByType: map[filetype.Type]CheckFunc{
			filetype.Unknown: func(ws *sourcekit.Workspace, f *sourcekit.File) (*sourcekit.File, error) {
				classify(ws, f)
				return f, nil
			},
		},
	}
}

// classify tags f, downgrading read failures to a warning on a FAILED file.
func classify(ws *sourcekit.Workspace, f *sourcekit.File) {
	if _, err := ws.Classify(f); err != nil {
		ws.AddWarning(f, "classify_failed",
			fmt.Sprintf("Unable to determine type of '%s': %v", f.Name(), err))
	}
}
