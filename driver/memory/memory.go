package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gobeaver/sourcekit"
	"github.com/gobwas/glob"
	"github.com/spf13/afero"
)

// watchEntry represents a single watch subscription
type watchEntry struct {
	filter glob.Glob
	token  *sourcekit.CallbackChangeToken
}

// Adapter is in-memory workspace storage. It is an afero.MemMapFs that
// signals watchers when a path is created, opened for writing, renamed or
// removed. Writes through an already open handle are not reported.
type Adapter struct {
	afero.Fs

	watchMu sync.RWMutex
	watches []*watchEntry
}

// New creates a new in-memory storage adapter
func New() *Adapter {
	return &Adapter{Fs: afero.NewMemMapFs()}
}

func (a *Adapter) Name() string { return "memory" }

func (a *Adapter) Create(name string) (afero.File, error) {
	f, err := a.Fs.Create(name)
	if err == nil {
		a.notifyWatchers(name)
	}
	return f, err
}

func (a *Adapter) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f, err := a.Fs.OpenFile(name, flag, perm)
	if err == nil && flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
		a.notifyWatchers(name)
	}
	return f, err
}

func (a *Adapter) Mkdir(name string, perm os.FileMode) error {
	err := a.Fs.Mkdir(name, perm)
	if err == nil {
		a.notifyWatchers(name)
	}
	return err
}

func (a *Adapter) MkdirAll(name string, perm os.FileMode) error {
	err := a.Fs.MkdirAll(name, perm)
	if err == nil {
		a.notifyWatchers(name)
	}
	return err
}

func (a *Adapter) Remove(name string) error {
	err := a.Fs.Remove(name)
	if err == nil {
		a.notifyWatchers(name)
	}
	return err
}

func (a *Adapter) RemoveAll(name string) error {
	err := a.Fs.RemoveAll(name)
	if err == nil {
		a.notifyWatchers(name)
	}
	return err
}

func (a *Adapter) Rename(oldname, newname string) error {
	err := a.Fs.Rename(oldname, newname)
	if err == nil {
		a.notifyWatchers(oldname)
		a.notifyWatchers(newname)
	}
	return err
}

// Watch implements sourcekit.CanWatch for in-memory change detection.
// Supports glob patterns like "src/**", "**.tex", "src/*"
func (a *Adapter) Watch(ctx context.Context, filter string) (sourcekit.ChangeToken, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	g, err := glob.Compile(filter, '/')
	if err != nil {
		return nil, &sourcekit.PathError{
			Op:   "watch",
			Path: filter,
			Err:  err,
		}
	}

	token := sourcekit.NewCallbackChangeToken()

	a.watchMu.Lock()
	a.watches = append(a.watches, &watchEntry{
		filter: g,
		token:  token,
	})
	a.watchMu.Unlock()

	// Clean up when context is cancelled
	go func() {
		<-ctx.Done()
		a.removeWatch(token)
	}()

	return token, nil
}

// notifyWatchers signals all watchers whose filter matches the given path
func (a *Adapter) notifyWatchers(name string) {
	p := strings.TrimPrefix(filepath.ToSlash(filepath.Clean(name)), "/")

	a.watchMu.RLock()
	var hit []*sourcekit.CallbackChangeToken
	for _, entry := range a.watches {
		if entry.filter.Match(p) {
			hit = append(hit, entry.token)
		}
	}
	a.watchMu.RUnlock()

	for _, token := range hit {
		token.SignalChange()
	}
}

// removeWatch removes a watch entry by token
func (a *Adapter) removeWatch(token *sourcekit.CallbackChangeToken) {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()

	for i, entry := range a.watches {
		if entry.token == token {
			// Remove by swapping with last element
			a.watches[i] = a.watches[len(a.watches)-1]
			a.watches = a.watches[:len(a.watches)-1]
			return
		}
	}
}

// Ensure Adapter implements interfaces
var (
	_ afero.Fs           = (*Adapter)(nil)
	_ sourcekit.CanWatch = (*Adapter)(nil)
)
