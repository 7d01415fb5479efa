package sourcekit

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// Severity of a Notice.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notice is a warning or error attached to a file, or to the workspace as
// a whole when Path is empty.
type Notice struct {
	Path     string
	Severity Severity
	Code     string
	Message  string
	Time     time.Time
}

func (n Notice) IsError() bool { return n.Severity == SeverityError }

// AddWarning attaches a warning to f.
func (w *Workspace) AddWarning(f *File, code, msg string) {
	w.addNotice(f, SeverityWarning, code, msg)
}

// AddError attaches an error to f.
func (w *Workspace) AddError(f *File, code, msg string) {
	w.addNotice(f, SeverityError, code, msg)
}

// AddNonFileWarning attaches a warning to the workspace.
func (w *Workspace) AddNonFileWarning(code, msg string) {
	w.addNotice(nil, SeverityWarning, code, msg)
}

// AddNonFileError attaches an error to the workspace.
func (w *Workspace) AddNonFileError(code, msg string) {
	w.addNotice(nil, SeverityError, code, msg)
}

func (w *Workspace) addNotice(f *File, sev Severity, code, msg string) {
	n := Notice{Severity: sev, Code: code, Message: msg, Time: time.Now()}

	w.mu.Lock()
	if f == nil {
		w.notices = append(w.notices, n)
	} else {
		n.Path = f.Path
		if sev == SeverityError {
			f.errors = append(f.errors, n)
		} else {
			f.warnings = append(f.warnings, n)
		}
	}
	w.mu.Unlock()

	entry := log.WithFields(log.Fields{
		"workspace": w.ID,
		"path":      n.Path,
		"code":      code,
	})
	if sev == SeverityError {
		entry.Warn(msg)
	} else {
		entry.Info(msg)
	}
}

// Warnings returns the warnings attached to f.
func (w *Workspace) Warnings(f *File) []Notice {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Notice(nil), f.warnings...)
}

// Errors returns the errors attached to f.
func (w *Workspace) Errors(f *File) []Notice {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Notice(nil), f.errors...)
}

// NonFileNotices returns the notices attached to the workspace itself.
func (w *Workspace) NonFileNotices() []Notice {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Notice(nil), w.notices...)
}

// Notices returns every notice, workspace notices first, then those of
// active and removed files in path order.
func (w *Workspace) Notices() []Notice {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := append([]Notice(nil), w.notices...)
	for _, f := range w.sortedLocked() {
		out = append(out, f.warnings...)
		out = append(out, f.errors...)
	}
	for _, f := range w.removed {
		out = append(out, f.warnings...)
		out = append(out, f.errors...)
	}
	return out
}

// HasErrors reports whether any error notice was recorded.
func (w *Workspace) HasErrors() bool {
	for _, n := range w.Notices() {
		if n.IsError() {
			return true
		}
	}
	return false
}
