package check

import (
	"testing"

	"github.com/gobeaver/sourcekit/filetype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeXGenerated(t *testing.T) {
	ws := newWorkspace(t)
	addFile(t, ws, "main.tex", []byte(latexSource))
	aux := addFile(t, ws, "main.aux", []byte("\\relax\n"))
	pdf := addFile(t, ws, "main.PDF", []byte("%PDF-1.4\n"))
	other := addFile(t, ws, "other.aux", []byte("\\relax\n"))
	addFile(t, ws, "sub/Paper.TEX", []byte(latexSource))
	log := addFile(t, ws, "sub/Paper.log", []byte("This is TeX\n"))
	rootLog := addFile(t, ws, "Paper.log", []byte("This is TeX\n"))

	c := TeXGenerated()
	for _, f := range []*struct {
		path    string
		removed bool
	}{
		{"main.aux", true},
		{"main.PDF", true},
		{"other.aux", false},
		{"sub/Paper.log", true},
		{"Paper.log", false},
	} {
		rec, ok := ws.Get(f.path)
		require.True(t, ok, f.path)
		out, err := c.HandlerFor(rec.Type)(ws, rec)
		require.NoError(t, err)
		assert.Equal(t, f.removed, out.IsRemoved, f.path)
		assert.Equal(t, !f.removed, ws.Exists(f.path), f.path)
	}

	assert.Equal(t, "Removed file 'main.aux' due to name conflict.", aux.ReasonForRemoval)
	assert.True(t, pdf.IsRemoved)
	assert.False(t, other.IsRemoved)
	assert.True(t, log.IsRemoved)
	assert.False(t, rootLog.IsRemoved)
	assert.Len(t, ws.Removed(), 3)
}

func TestTeXGeneratedDVI(t *testing.T) {
	dvi := []byte{0xF7, 0x02, 0x01, 0x83, 0x92, 0xC0, 0x1C, 0x3B}

	t.Run("without source", func(t *testing.T) {
		ws := newWorkspace(t)
		f := addClassified(t, ws, "paper.dvi", dvi)
		require.Equal(t, filetype.DVI, f.Type)

		out, err := TeXGenerated().HandlerFor(f.Type)(ws, f)
		require.NoError(t, err)
		assert.False(t, out.IsRemoved)
		errs := ws.Errors(f)
		require.Len(t, errs, 1)
		assert.Equal(t, "dvi_file", errs[0].Code)
		assert.Equal(t, "paper.dvi is a TeX-produced DVI file. Please submit the TeX source instead.", errs[0].Message)
		assert.True(t, ws.HasErrors())
	})

	t.Run("with source", func(t *testing.T) {
		ws := newWorkspace(t)
		addFile(t, ws, "paper.tex", []byte(latexSource))
		f := addClassified(t, ws, "paper.dvi", dvi)

		out, err := TeXGenerated().HandlerFor(f.Type)(ws, f)
		require.NoError(t, err)
		assert.True(t, out.IsRemoved)
		assert.Empty(t, ws.Errors(f))
	})

	t.Run("ancillary", func(t *testing.T) {
		ws := newWorkspace(t)
		f := addClassified(t, ws, "anc/paper.dvi", dvi)

		out, err := TeXGenerated().HandlerFor(f.Type)(ws, f)
		require.NoError(t, err)
		assert.False(t, out.IsRemoved)
		assert.Empty(t, ws.Errors(f))
	})
}
