package sourcekit

import (
	"github.com/gobeaver/sourcekit/filetype"
)

// Option represents a file creation option
type Option func(*Options)

// Options contains all possible options for Workspace.Create
type Options struct {
	// Type is the initial type tag of the new file
	Type filetype.Type

	// Ancillary overrides the ancillary status inferred from the path
	Ancillary *bool

	// Directory creates a directory instead of a regular file
	Directory bool

	// Touch creates or truncates the file in storage. When false the file
	// must already exist and is only registered.
	Touch bool
}

func newOptions(opts []Option) *Options {
	o := &Options{Touch: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithType sets the initial type tag
func WithType(t filetype.Type) Option {
	return func(o *Options) {
		o.Type = t
	}
}

// WithAncillary marks the file as ancillary (or not)
func WithAncillary(ancillary bool) Option {
	return func(o *Options) {
		o.Ancillary = &ancillary
	}
}

// AsDirectory creates a directory record
func AsDirectory() Option {
	return func(o *Options) {
		o.Directory = true
	}
}

// WithTouch controls whether storage is created for the file
func WithTouch(touch bool) Option {
	return func(o *Options) {
		o.Touch = touch
	}
}

// WorkspaceOption configures a Workspace
type WorkspaceOption func(*Workspace)

// WithID sets the workspace identifier. A random one is used otherwise.
func WithID(id string) WorkspaceOption {
	return func(w *Workspace) {
		w.ID = id
	}
}

// WithConfig sets the configuration checkers consult.
func WithConfig(cfg *Config) WorkspaceOption {
	return func(w *Workspace) {
		w.cfg = cfg
	}
}
