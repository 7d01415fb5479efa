package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gobeaver/sourcekit"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const watchPattern = sourcekit.SourceDir + "/**"

type cmdWatch struct {
	WorkspaceConfig
}

func (cmd *cmdWatch) Execute([]string) error {
	InitLog(Config.Log)
	InitMetrics(Config.Metrics)

	var ctx, cancel = signalContext()
	defer cancel()

	for {
		ws, err := cmd.open(false)
		if err != nil {
			return err
		}
		if _, err = runCheck(ctx, ws, os.Stdout); err != nil {
			return err
		}

		if err = waitForChange(ctx, ws); errors.Is(err, context.Canceled) {
			return nil
		} else if err != nil {
			return err
		}
		log.WithField("workspace", ws.ID).Info("workspace changed, checking again")
	}
}

// waitForChange blocks until a file of the source tree of ws changes.
func waitForChange(ctx context.Context, ws *sourcekit.Workspace) error {
	var watcher, ok = ws.Fs().(sourcekit.CanWatch)
	if !ok {
		return errors.Errorf("storage of workspace %s does not support watching", ws.ID)
	}

	var watchCtx, cancel = context.WithCancel(ctx)
	defer cancel()

	token, err := watcher.Watch(watchCtx, watchPattern)
	if err != nil {
		return errors.WithMessage(err, "watch workspace")
	}
	return sourcekit.WaitForChange(watchCtx, token)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
