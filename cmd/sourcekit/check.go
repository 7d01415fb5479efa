package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/gobeaver/sourcekit"
	"github.com/gobeaver/sourcekit/check"
	_ "github.com/gobeaver/sourcekit/driver/local"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// WorkspaceConfig selects the workspace a command operates on.
type WorkspaceConfig struct {
	Root        string `long:"root" short:"r" required:"true" description:"Workspace directory. Submitted files live under its src/ directory"`
	Concurrency int    `long:"concurrency" description:"Number of files checked in parallel. Defaults to BEAVER_SOURCEKIT_CONCURRENCY"`
	Ignore      string `long:"ignore" description:"Comma-separated globs of files to ignore. Defaults to BEAVER_SOURCEKIT_IGNORE_PATTERNS"`
}

// open loads the workspace at cfg.Root using the local storage driver.
// With dryRun the workspace runs over an in-memory snapshot of the tree.
func (cfg WorkspaceConfig) open(dryRun bool) (*sourcekit.Workspace, error) {
	var skCfg, err = sourcekit.GetConfig()
	if err != nil {
		return nil, errors.WithMessage(err, "load configuration")
	}
	skCfg.Driver = "local"
	skCfg.LocalBasePath = cfg.Root
	if cfg.Concurrency > 0 {
		skCfg.Concurrency = cfg.Concurrency
	}
	if cfg.Ignore != "" {
		skCfg.IgnorePatterns = cfg.Ignore
	}

	var id = sourcekit.WithID(filepath.Base(filepath.Clean(cfg.Root)))
	var ws *sourcekit.Workspace
	if dryRun {
		ws, err = openSnapshot(skCfg, id)
	} else {
		ws, err = sourcekit.New(skCfg, id)
	}
	if err != nil {
		return nil, err
	}
	if err = ws.Load(); err != nil {
		return nil, errors.WithMessagef(err, "load workspace %s", cfg.Root)
	}
	return ws, nil
}

func openSnapshot(cfg *sourcekit.Config, opts ...sourcekit.WorkspaceOption) (*sourcekit.Workspace, error) {
	base, err := sourcekit.CreateDriver(cfg)
	if err != nil {
		return nil, err
	}
	snap, err := sourcekit.Snapshot(base)
	if err != nil {
		return nil, err
	}
	return sourcekit.NewWorkspace(snap, append([]sourcekit.WorkspaceOption{sourcekit.WithConfig(cfg)}, opts...)...)
}

type cmdCheck struct {
	WorkspaceConfig
	DryRun bool `long:"dry-run" short:"n" description:"Check a copy of the workspace, leaving files on disk untouched"`
}

func (cmd *cmdCheck) Execute([]string) error {
	InitLog(Config.Log)
	InitMetrics(Config.Metrics)

	var ctx, cancel = signalContext()
	defer cancel()

	ws, err := cmd.open(cmd.DryRun)
	if err != nil {
		return err
	}
	if _, err = runCheck(ctx, ws, os.Stdout); err != nil {
		return err
	}
	if ws.HasErrors() {
		return errors.New("submission has errors")
	}
	return nil
}

// runCheck runs the default pipeline over ws and reports the outcome to w.
func runCheck(ctx context.Context, ws *sourcekit.Workspace, w io.Writer) (sourcekit.SourceType, error) {
	var pipeline = check.NewPipeline(check.DefaultRegistry(), ws.Config().Concurrency)

	st, err := pipeline.Run(ctx, ws)
	if err != nil {
		return st, errors.WithMessage(err, "run pipeline")
	}
	log.WithFields(log.Fields{
		"workspace":   ws.ID,
		"files":       ws.FileCount(),
		"removed":     len(ws.Removed()),
		"source_type": st,
	}).Info("checked workspace")

	if err = writeReport(w, ws, st); err != nil {
		return st, err
	}
	return st, nil
}

func writeReport(w io.Writer, ws *sourcekit.Workspace, st sourcekit.SourceType) error {
	var files = tablewriter.NewWriter(w)
	files.Header([]string{"Path", "Type", "Size", "Ancillary"})
	for _, f := range ws.Files() {
		if f.IsDirectory {
			continue
		}
		if err := files.Append([]string{
			f.Path,
			f.Type.String(),
			humanize.IBytes(uint64(f.Size)),
			strconv.FormatBool(f.IsAncillary),
		}); err != nil {
			return err
		}
	}
	if err := files.Render(); err != nil {
		return err
	}

	if notices := ws.Notices(); len(notices) != 0 {
		var table = tablewriter.NewWriter(w)
		table.Header([]string{"Severity", "Code", "Path", "Message"})
		for _, n := range notices {
			if err := table.Append([]string{string(n.Severity), n.Code, n.Path, n.Message}); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Source type: %s\n", st)
	return err
}
