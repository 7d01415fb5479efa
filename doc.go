// Package sourcekit manages the files of a paper submission while they are
// classified and repaired before compilation.
//
// A [Workspace] tracks every file under the src/ directory of its storage
// root. Files are described by [File] records carrying a type tag from the
// filetype package, and the notices (warnings and errors) raised while
// checking them. Files removed during checking are moved under removed/ so
// they can be inspected later.
//
// # Storage Drivers
//
// Storage is an [afero.Fs] created by a registered driver:
//
//   - Local filesystem (github.com/gobeaver/sourcekit/driver/local)
//   - In-memory (github.com/gobeaver/sourcekit/driver/memory)
//
// Import a driver for its side effect to register it:
//
//	import _ "github.com/gobeaver/sourcekit/driver/local"
//
//	ws, err := sourcekit.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := ws.Load(); err != nil {
//	    log.Fatal(err)
//	}
//
// Any afero.Fs can also back a workspace directly:
//
//	ws, err := sourcekit.NewWorkspace(afero.NewMemMapFs(), sourcekit.WithID("1234"))
//
// # Working With Files
//
//	f, err := ws.Create("main.tex", sourcekit.WithType(filetype.LaTeX2e))
//	w, err := ws.OpenForWrite(f)
//	...
//	err = ws.Rename(f, "paper.tex")
//	err = ws.Remove(f, "Removed duplicate file 'paper.tex'.")
//
// Paths are relative to the source tree and slash separated. Paths escaping
// the tree are refused with [ErrUnsafePath].
//
// # Notices
//
//	ws.AddWarning(f, "unmacify", "Converted line endings.")
//	ws.AddNonFileError("fatal_file", "Processing stopped.")
//	if ws.HasErrors() {
//	    ...
//	}
//
// # Change Notification
//
// Drivers with native events implement [CanWatch]:
//
//	if watcher, ok := ws.Fs().(sourcekit.CanWatch); ok {
//	    token, _ := watcher.Watch(ctx, "src/**")
//	    _ = sourcekit.WaitForChange(ctx, token)
//	}
//
// # Dry Runs
//
// [Snapshot] copies the source tree into memory so a check can run without
// touching the original files.
//
// # Configuration
//
// Configuration is read from environment variables prefixed with
// BEAVER_SOURCEKIT_, or with a custom prefix through [WithPrefix]:
//
//	BEAVER_SOURCEKIT_DRIVER=local
//	BEAVER_SOURCEKIT_LOCAL_BASE_PATH=/var/submissions/1234
//	BEAVER_SOURCEKIT_CONCURRENCY=8
//	BEAVER_SOURCEKIT_IGNORE_PATTERNS=*.bak,notes/**
package sourcekit
