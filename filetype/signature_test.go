package filetype

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchName(t *testing.T) {
	tests := []struct {
		name string
		want Type
		ok   bool
	}{
		{"00README.XXX", Readme, true},
		{"src/sub/00README.XXX", Readme, true},
		{"x00README.XXX", Unknown, false},
		{"head.tmp", AlwaysIgnore, true},
		{"dir/body.tmp", AlwaysIgnore, true},
		{"missfont.log", Abort, true},
		{"paper.log", TeXAux, true},
		{"macros.STY", TeXAux, true},
		{"cmr10.600pk", TeXAux, true},
		{"refs.bbl", TeXAux, true},
		{"paper.abs", Abs, true},
		{"figure.fig", Ignore, true},
		{"calc.NB", Notebook, true},
		{"table.inp", Input, true},
		{"index.html", HTML, true},
		{"index.htm", HTML, true},
		{"index.HTML", Unknown, false},
		{"secret.cry", Encrypted, true},
		{"paper.tex", Unknown, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := MatchName(tc.name)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func tarHead() []byte {
	b := make([]byte, 512)
	copy(b, "paper.tex")
	copy(b[257:], "ustar\x0000")
	return b
}

func TestMatchSignature(t *testing.T) {
	tests := []struct {
		label string
		name  string
		head  []byte
		want  Type
		ok    bool
	}{
		{"compress", "a.Z", []byte{0x1F, 0x9D, 0x90}, Compressed, true},
		{"gzip", "paper.tar.gz", []byte{0x1F, 0x8B, 0x08, 0x00}, Gzipped, true},
		{"gzip any name", "paper.tex", []byte{0x1F, 0x8B, 0x08, 0x00}, Gzipped, true},
		{"gzip no name", "", []byte{0x1F, 0x8B}, Gzipped, true},
		{"bzip2", "a.bz2", []byte("BZh91AY&SY"), Bzip2, true},
		{"bzip2 bad level", "a.bz2", []byte("BZh\x20abcd"), Unknown, false},
		{"tar", "paper.tar", tarHead(), Tar, true},
		{"dvi", "paper.dvi", []byte{0xF7, 0x02, 0x01, 0x83}, DVI, true},
		{"gif", "fig", []byte("GIF89a\x01\x00"), Image, true},
		{"png", "fig", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}, Image, true},
		{"tiff le", "fig.tif", []byte("II*\x00\x08\x00"), Image, true},
		{"tiff be", "fig.tif", []byte("MM\x00*\x00\x08"), Image, true},
		{"tiff wrong ext", "fig.tiff", []byte("II*\x00\x08\x00"), Unknown, false},
		{"jpeg jfif", "fig", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}, Image, true},
		{"jpeg adobe", "fig", []byte{0xFF, 0xD8, 0xFF, 0xDB, 0xEE}, Image, true},
		{"jpeg other", "fig", []byte{0xFF, 0xD8, 0xFF, 0xE1, 0x00}, Unknown, false},
		{"mpeg", "movie", []byte{0x00, 0x00, 0x01, 0xB3, 0x14}, Anim, true},
		{"zip", "a.zip", []byte("PK\x03\x04\x14\x00"), ZIP, true},
		{"zip spanned", "a.zip", []byte("PK00PK\x03\x04"), ZIP, true},
		{"jar", "lib.JAR", []byte("PK\x03\x04"), JAR, true},
		{"odt", "doc.odt", []byte("PK\x03\x04"), ODF, true},
		{"docx", "doc.docx", []byte("PK\x03\x04"), DOCX, true},
		{"xlsx", "sheet.xlsx", []byte("PK\x03\x04"), XLSX, true},
		{"rar", "a.rar", []byte("Rar!\x1a\x07\x00"), RAR, true},
		{"dos eps", "fig.eps", []byte{0xC5, 0xD0, 0xD3, 0xC6, 0x1E}, DOSEPS, true},
		{"pdf", "paper", []byte("%PDF-1.4\n"), PDF, true},
		{"pdf late", "paper", append(bytes.Repeat([]byte("x"), 900), "%PDF-1.5"...), PDF, true},
		{"pdf too late", "paper", append(bytes.Repeat([]byte("x"), 1020), "%PDF-1.5"...), Unknown, false},
		{"mac csh", "run", []byte("#!/bin/csh -f\r# comment\r"), Mac, true},
		{"mac uuencode", "x", []byte("begin 644 paper.tar\rM86)C\r"), Mac, true},
		{"single byte", "x", []byte{0x1F}, Unknown, false},
		{"empty", "x", nil, Unknown, false},
		{"text", "paper.tex", []byte("\\documentclass{article}\n"), Unknown, false},
	}
	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			got, ok := MatchSignature(tc.name, tc.head)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMagicIgnoresName(t *testing.T) {
	heads := map[Type][]byte{
		Gzipped: {0x1F, 0x8B, 0x08},
		Bzip2:   []byte("BZh9"),
		Tar:     tarHead(),
		DVI:     {0xF7, 0x02},
		PDF:     []byte("%PDF-1.3"),
		RAR:     []byte("Rar!"),
	}
	for want, head := range heads {
		for _, name := range []string{"a.tex", "b", "c.ps", "dir/d.html.gz"} {
			got, ok := MatchSignature(name, head)
			assert.True(t, ok)
			assert.Equal(t, want, got, "%s as %s", want, name)
		}
	}
}
