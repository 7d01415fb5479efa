package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/gobeaver/sourcekit"
	"github.com/gobwas/glob"
	log "github.com/sirupsen/logrus"
)

// Watch implements sourcekit.CanWatch using fsnotify. The pattern is a glob
// relative to the root; "**" crosses directories. The token is spent after
// the first matching event.
func (l *FileSystem) Watch(ctx context.Context, pattern string) (sourcekit.ChangeToken, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, &sourcekit.PathError{Op: "watch", Path: pattern, Err: err}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &sourcekit.PathError{Op: "watch", Path: pattern, Err: err}
	}

	watchPath := l.watchRoot(pattern)
	if err := addRecursive(watcher, watchPath); err != nil {
		watcher.Close()
		return nil, &sourcekit.PathError{Op: "watch", Path: pattern, Err: err}
	}

	token := sourcekit.NewCallbackChangeToken()

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) {
					if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
						_ = addRecursive(watcher, event.Name)
					}
				}

				rel, err := filepath.Rel(l.root, event.Name)
				if err != nil {
					continue
				}
				if g.Match(filepath.ToSlash(rel)) {
					token.SignalChange()
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithFields(log.Fields{"root": l.root, "pattern": pattern, "err": err}).
					Warn("file watcher error")
			}
		}
	}()

	return token, nil
}

// watchRoot returns the deepest existing directory that contains every path
// the pattern can match.
func (l *FileSystem) watchRoot(pattern string) string {
	prefix := pattern
	if idx := strings.IndexAny(pattern, "*?[{"); idx >= 0 {
		prefix = pattern[:idx]
	}
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		prefix = prefix[:i]
	} else {
		prefix = ""
	}

	dir := filepath.Join(l.root, filepath.FromSlash(prefix))
	for dir != l.root && isPathUnderRoot(l.root, dir) {
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			return dir
		}
		dir = filepath.Dir(dir)
	}
	return l.root
}

func addRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if info.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
