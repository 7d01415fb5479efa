package sourcekit

import (
	"context"
)

// ChangeToken represents a change notification token.
//
// Consumers can either poll HasChanged() or register a callback via
// RegisterChangeCallback(). Tokens are single-use: once changed they stay
// changed.
type ChangeToken interface {
	// HasChanged returns true if a change has occurred.
	HasChanged() bool

	// RegisterChangeCallback registers a callback to be invoked when change occurs.
	// Returns a function to unregister the callback.
	RegisterChangeCallback(callback func()) (unregister func())
}

// CanWatch indicates the workspace storage supports change notifications.
// Not all drivers support watching - check with type assertion.
//
// Example:
//
//	if watcher, ok := ws.Fs().(sourcekit.CanWatch); ok {
//	    token, err := watcher.Watch(ctx, "src/**")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    token.RegisterChangeCallback(func() { rerun() })
//	}
type CanWatch interface {
	// Watch creates a change token for paths matching the glob pattern,
	// relative to the storage root. "**" matches across directories.
	Watch(ctx context.Context, pattern string) (ChangeToken, error)
}

// WaitForChange blocks until token changes or ctx is done.
func WaitForChange(ctx context.Context, token ChangeToken) error {
	changed := make(chan struct{})
	unregister := token.RegisterChangeCallback(func() { close(changed) })
	defer unregister()

	if token.HasChanged() {
		return nil
	}
	select {
	case <-changed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
