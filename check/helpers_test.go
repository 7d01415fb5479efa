package check

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/gobeaver/sourcekit"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func newWorkspace(t *testing.T, opts ...func(*sourcekit.Config)) *sourcekit.Workspace {
	t.Helper()
	cfg := sourcekit.DefaultConfig()
	cfg.Driver = "memory"
	for _, opt := range opts {
		opt(cfg)
	}
	ws, err := sourcekit.NewWorkspace(afero.NewMemMapFs(), sourcekit.WithID("test"), sourcekit.WithConfig(cfg))
	require.NoError(t, err)
	return ws
}

// addFile writes content into the source tree and registers it untyped.
func addFile(t *testing.T, ws *sourcekit.Workspace, p string, content []byte) *sourcekit.File {
	t.Helper()
	full := ws.FullPath(p)
	require.NoError(t, ws.Fs().MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, afero.WriteFile(ws.Fs(), full, content, 0o644))
	f, err := ws.Create(p, sourcekit.WithTouch(false))
	require.NoError(t, err)
	return f
}

// addClassified is addFile followed by classification.
func addClassified(t *testing.T, ws *sourcekit.Workspace, p string, content []byte) *sourcekit.File {
	t.Helper()
	f := addFile(t, ws, p, content)
	_, err := ws.Classify(f)
	require.NoError(t, err)
	return f
}

func readFile(t *testing.T, ws *sourcekit.Workspace, p string) string {
	t.Helper()
	b, err := afero.ReadFile(ws.Fs(), ws.FullPath(p))
	require.NoError(t, err)
	return string(b)
}

func codes(notices []sourcekit.Notice) []string {
	var out []string
	for _, n := range notices {
		out = append(out, n.Code)
	}
	return out
}

func messages(notices []sourcekit.Notice) []string {
	var out []string
	for _, n := range notices {
		out = append(out, n.Message)
	}
	return out
}

type tarEntry struct {
	name     string
	content  string
	typeflag byte
	linkname string
}

func createTar(t *testing.T, entries []tarEntry) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	tw := tar.NewWriter(buf)
	for _, e := range entries {
		hdr := &tar.Header{
			Name:     e.name,
			Mode:     0o644,
			Typeflag: e.typeflag,
			Linkname: e.linkname,
		}
		switch e.typeflag {
		case 0:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.content))
		case tar.TypeDir:
			hdr.Mode = 0o755
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(e.content))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func gzipBytes(t *testing.T, name string, data []byte) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	gw := gzip.NewWriter(buf)
	gw.Name = name
	_, err := gw.Write(data)
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

type zipEntry struct {
	name    string
	content string
	mode    os.FileMode
}

func createZip(t *testing.T, entries []zipEntry) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.name, Method: zip.Deflate}
		if e.mode != 0 {
			hdr.SetMode(e.mode)
		}
		w, err := zw.CreateHeader(hdr)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// dosEPS builds a DOS EPS container holding ps and tiff sections.
func dosEPS(ps, tiff []byte, psFirst bool) []byte {
	const headerSize = 28
	psOff, tiffOff := headerSize, headerSize+len(ps)
	if !psFirst {
		tiffOff, psOff = headerSize, headerSize+len(tiff)
	}
	tiffLen := len(tiff)
	if tiffLen == 0 {
		tiffOff = 0
	}

	out := make([]byte, headerSize)
	copy(out, []byte{0xC5, 0xD0, 0xD3, 0xC6})
	binary.LittleEndian.PutUint32(out[4:], uint32(psOff))
	binary.LittleEndian.PutUint32(out[8:], uint32(len(ps)))
	binary.LittleEndian.PutUint32(out[20:], uint32(tiffOff))
	binary.LittleEndian.PutUint32(out[24:], uint32(tiffLen))
	if psFirst {
		out = append(append(out, ps...), tiff...)
	} else {
		out = append(append(out, tiff...), ps...)
	}
	return out
}

const (
	latexSource = "\\documentclass{article}\n\\begin{document}\nHello.\n\\end{document}\n"
	cleanEPS    = "%!PS-Adobe-3.0 EPSF-3.0\n%%BoundingBox: 0 0 10 10\nnewpath\nshowpage\n%%EOF\n"
	tiffBytes   = "II*\x00\x08\x00\x00\x00binary-image-data"
)
