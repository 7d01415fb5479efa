package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gobeaver/sourcekit"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ws")
	fs, err := New(root)
	require.NoError(t, err)

	fi, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
	assert.Equal(t, root, fs.Root())
	assert.Equal(t, "local", fs.Name())
}

func TestReadWriteUnderRoot(t *testing.T) {
	root := t.TempDir()
	fs, err := New(root)
	require.NoError(t, err)

	require.NoError(t, fs.MkdirAll("src/figs", 0o755))
	require.NoError(t, afero.WriteFile(fs, "src/main.tex", []byte("hello"), 0o644))

	data, err := os.ReadFile(filepath.Join(root, "src", "main.tex"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestRealPath(t *testing.T) {
	root := t.TempDir()
	fs, err := New(root)
	require.NoError(t, err)

	p, err := fs.RealPath("src/a.tex")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src", "a.tex"), p)

	// Leading dot-dots are clamped to the root.
	p, err = fs.RealPath("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "etc", "passwd"), p)
}

func TestIsPathUnderRoot(t *testing.T) {
	assert.True(t, isPathUnderRoot("/ws", "/ws/src/a.tex"))
	assert.True(t, isPathUnderRoot("/ws", "/ws"))
	assert.False(t, isPathUnderRoot("/ws", "/etc/passwd"))
	assert.False(t, isPathUnderRoot("/ws", "/"))
}

func TestRegistered(t *testing.T) {
	cfg := sourcekit.DefaultConfig()
	cfg.Driver = "local"
	cfg.LocalBasePath = t.TempDir()

	fs, err := sourcekit.CreateDriver(cfg)
	require.NoError(t, err)
	assert.IsType(t, &FileSystem{}, fs)
}

func TestWatch(t *testing.T) {
	root := t.TempDir()
	fs, err := New(root)
	require.NoError(t, err)
	require.NoError(t, fs.MkdirAll("src/sub", 0o755))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	token, err := fs.Watch(ctx, "src/**.tex")
	require.NoError(t, err)
	assert.False(t, token.HasChanged())

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = afero.WriteFile(fs, "src/sub/main.tex", []byte("x"), 0o644)
	}()

	require.NoError(t, sourcekit.WaitForChange(ctx, token))
	assert.True(t, token.HasChanged())
}

func TestWatchInvalidPattern(t *testing.T) {
	fs, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = fs.Watch(context.Background(), "src/[a")
	assert.Error(t, err)
}

func TestWatchRoot(t *testing.T) {
	root := t.TempDir()
	fs, err := New(root)
	require.NoError(t, err)
	require.NoError(t, fs.MkdirAll("src/figs", 0o755))

	assert.Equal(t, filepath.Join(root, "src", "figs"), fs.watchRoot("src/figs/*.eps"))
	assert.Equal(t, filepath.Join(root, "src"), fs.watchRoot("src/missing/*.eps"))
	assert.Equal(t, root, fs.watchRoot("**.tex"))
	assert.Equal(t, filepath.Join(root, "src"), fs.watchRoot("src/main.tex"))
}
