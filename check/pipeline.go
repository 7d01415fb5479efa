package check

import (
	"context"
	"fmt"

	"github.com/gobeaver/sourcekit"
	"github.com/gobeaver/sourcekit/filetype"
	"github.com/gobeaver/sourcekit/metrics"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const codeFatalFile = "fatal_file"

// Pipeline runs a Registry over the files of a workspace.
type Pipeline struct {
	Registry *Registry
	// Concurrency bounds the number of files checked at once.
	Concurrency int
}

// NewPipeline returns a pipeline running reg with the given parallelism.
func NewPipeline(reg *Registry, concurrency int) *Pipeline {
	if reg == nil {
		reg = DefaultRegistry()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{Registry: reg, Concurrency: concurrency}
}

// Run checks every file of ws and decides its source type.
//
// The first round covers every tracked file. Later rounds cover files that
// appeared during the previous round without a type, such as archive
// members. Files registered with a type already set are artifacts of a
// repair (scratch copies, backups) and are not checked again.
func (p *Pipeline) Run(ctx context.Context, ws *sourcekit.Workspace) (sourcekit.SourceType, error) {
	seen := make(map[*sourcekit.File]bool)

	for round := 0; ; round++ {
		var pending []*sourcekit.File
		for _, f := range ws.Files() {
			if seen[f] {
				continue
			}
			seen[f] = true
			if f.IsDirectory {
				continue
			}
			if round > 0 && f.Type != filetype.Unknown {
				continue
			}
			pending = append(pending, f)
		}
		if len(pending) == 0 {
			break
		}

		log.WithFields(log.Fields{
			"workspace": ws.ID,
			"round":     round,
			"files":     len(pending),
		}).Debug("checking files")

		if err := p.checkAll(ctx, ws, pending); err != nil {
			metrics.PipelineRunsTotal.WithLabelValues(metrics.Fail).Inc()
			return sourcekit.SourceUnknown, err
		}
	}

	st := InferSourceType(ws)
	metrics.PipelineRunsTotal.WithLabelValues(metrics.Ok).Inc()
	return st, nil
}

func (p *Pipeline) checkAll(ctx context.Context, ws *sourcekit.Workspace, files []*sourcekit.File) error {
	for _, f := range files {
		if f.Type == filetype.Unknown {
			if c, ok := p.Registry.Get(inferFileTypeName); ok {
				apply(c, c.HandlerFor(filetype.Unknown), ws, f)
			} else {
				classify(ws, f)
			}
		}
	}
	sourcekit.SortFiles(files)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Concurrency)
	for _, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.CheckFile(ws, f)
			return nil
		})
	}
	return g.Wait()
}

// CheckFile walks f through every registered checker and returns its final
// record. Removal of the file, or an ABORT tag, ends the walk.
func (p *Pipeline) CheckFile(ws *sourcekit.Workspace, f *sourcekit.File) *sourcekit.File {
	for _, c := range p.Registry.Checkers() {
		if f.IsRemoved {
			break
		}
		if f.Type == filetype.Abort {
			ws.AddNonFileError(codeFatalFile,
				fmt.Sprintf("Found fatal file '%s'. Processing stopped.", f.Path))
			break
		}
		fn := c.HandlerFor(f.Type)
		if fn == nil {
			continue
		}
		f = apply(c, fn, ws, f)
	}
	return f
}
