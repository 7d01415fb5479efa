package check

import (
	"fmt"

	"github.com/gobeaver/sourcekit"
	"github.com/gobeaver/sourcekit/filetype"
	"github.com/gobeaver/sourcekit/metrics"
	log "github.com/sirupsen/logrus"
)

// CheckFunc inspects and possibly repairs f. It returns the current record
// for the file, which differs from f when the file was replaced.
type CheckFunc func(ws *sourcekit.Workspace, f *sourcekit.File) (*sourcekit.File, error)

// Checker is a named set of handlers. ByType handlers take precedence over
// Check, which serves every other type except FAILED.
type Checker struct {
	Name   string
	Check  CheckFunc
	ByType map[filetype.Type]CheckFunc
}

// HandlerFor returns the handler c applies to files of type t, or nil.
func (c *Checker) HandlerFor(t filetype.Type) CheckFunc {
	if fn, ok := c.ByType[t]; ok {
		return fn
	}
	if t == filetype.Failed {
		return nil
	}
	return c.Check
}

// Handles reports whether c has a handler for t.
func (c *Checker) Handles(t filetype.Type) bool { return c.HandlerFor(t) != nil }

// Registry holds checkers in the order they run.
type Registry struct {
	checkers []*Checker
}

// NewRegistry returns a registry running checkers in the given order.
func NewRegistry(checkers ...*Checker) *Registry {
	r := &Registry{}
	for _, c := range checkers {
		r.Register(c)
	}
	return r
}

// Register appends c to the run order. A checker already registered under
// the same name is replaced in place.
func (r *Registry) Register(c *Checker) {
	for i, have := range r.checkers {
		if have.Name == c.Name {
			r.checkers[i] = c
			return
		}
	}
	r.checkers = append(r.checkers, c)
}

// Checkers returns the registered checkers in run order.
func (r *Registry) Checkers() []*Checker {
	return append([]*Checker(nil), r.checkers...)
}

// Get returns the checker registered under name.
func (r *Registry) Get(name string) (*Checker, bool) {
	for _, c := range r.checkers {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// For lists, in run order, the names of checkers handling type t.
func (r *Registry) For(t filetype.Type) []string {
	var out []string
	for _, c := range r.checkers {
		if c.Handles(t) {
			out = append(out, c.Name)
		}
	}
	return out
}

// DefaultRegistry returns the standard checker sequence.
func DefaultRegistry() *Registry {
	return NewRegistry(
		InferFileType(),
		ZeroLengthFiles(),
		FileNames(),
		TeXGenerated(),
		Unpack(),
		RepairDOSEPS(),
		CleanupPostScript(),
		UnMacify(),
	)
}

const codeCheckerFailed = "checker_failed"

// apply runs one handler, converting errors and panics into a warning on f.
func apply(c *Checker, fn CheckFunc, ws *sourcekit.Workspace, f *sourcekit.File) (out *sourcekit.File) {
	defer func() {
		if r := recover(); r != nil {
			fail(c, ws, f, fmt.Errorf("panic: %v", r))
			out = f
		}
	}()

	next, err := fn(ws, f)
	if err != nil {
		fail(c, ws, f, err)
		return f
	}
	metrics.ChecksTotal.WithLabelValues(c.Name, metrics.Ok).Inc()
	if next == nil {
		return f
	}
	return next
}

func fail(c *Checker, ws *sourcekit.Workspace, f *sourcekit.File, err error) {
	metrics.ChecksTotal.WithLabelValues(c.Name, metrics.Fail).Inc()
	log.WithFields(log.Fields{
		"workspace": ws.ID,
		"checker":   c.Name,
		"path":      f.Path,
		"err":       err,
	}).Warn("checker failed")
	ws.AddWarning(f, codeCheckerFailed,
		fmt.Sprintf("Check %s failed on '%s': %v", c.Name, f.Name(), err))
}
