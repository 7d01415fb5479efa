package filetype

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scan(t *testing.T, content string) Result {
	t.Helper()
	res, err := Scan(strings.NewReader(content))
	require.NoError(t, err)
	return res
}

func TestScan(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Result
	}{
		{"auto-ignore", "junk\n%auto-ignore\n", Result{Type: Ignore}},
		{"auto-ignore after line 10", strings.Repeat("x\n", 10) + "%auto-ignore\n", Result{Type: Failed}},
		{"texinfo", "\\input texinfo   @c -*-texinfo-*-\n", Result{Type: TeXInfo}},
		{"mime", "From: a@b\nContent-Type: multipart/mixed; boundary=x\n", Result{Type: MultiPartMIME}},
		{"postscript", "%!PS-Adobe-3.0\n%%Title: fig\n", Result{Type: Postscript}},
		{"ps font", "%!PS-AdobeFont-1.0: CMR10 003.002\n", Result{Type: PSFont}},
		{"ps font resource", "%!PS-Adobe-3.0 Resource-Font\n", Result{Type: PSFont}},
		{"ps font on second line", "\n%!FontType1-1.0: Foo\n", Result{Type: PSFont}},
		{"ps font pfb prefix", "\x80\x01\x10\x00\x00\x00%!PS-AdobeFont-1.0: X\n", Result{Type: PSFont}},
		{"ps pc ctrl-d", "\x04%!PS-Adobe-2.0\n", Result{Type: PSPC}},
		{"ps pc leading junk", "%%%!PS-Adobe-2.0 EPSF\n", Result{Type: PSPC}},
		{"ps pc later line", "garbage\n%!PS-Adobe-2.0\n", Result{Type: PSPC}},
		{"ps after tex hint", "\\def\\x{1}\n%!PS\n", Result{Type: TeX}},
		{"format latex", "%&latex\n\\documentstyle{article}\n", Result{Type: LaTeX, Format: "latex"}},
		{"format LaTeX", "\r%&LaTeX\n", Result{Type: LaTeX, Format: "LaTeX"}},
		{"format other", "%&mymacros\n\\input x\n", Result{Type: TeXMac, Format: "mymacros"}},
		{"html", "<HTML>\n<body>hi</body>\n", Result{Type: HTML}},
		{"html attr", "<!-- x -->\n<html lang=en>\n", Result{Type: HTML}},
		{"auto-include", "%auto-include\n", Result{Type: Include}},
		{"documentstyle", "\\documentstyle[12pt]{article}\n", Result{Type: LaTeX}},
		{"documentstyle after cr", "%\r  \\documentstyle{revtex}\n", Result{Type: LaTeX}},
		{"documentclass", "\\documentclass{article}\n\\begin{document}\n\\end{document}\n", Result{Type: LaTeX2e}},
		{"amstex", "\\input amstex\n\\documentstyle{amsppt}\n", Result{Type: TeXPriority}},
		{"tex priority", "\\def\\foo{bar}\n\\foo\n\\bye\n", Result{Type: TeXPriority}},
		{"tex priority2", "\\def\\foo{bar}\nsome text \\end\n", Result{Type: TeXPriority2}},
		{"tex", "\\magnification=1200\nHello\n", Result{Type: TeX}},
		{"harvmac", "\\input harvmac\n", Result{Type: TeXMac}},
		{"phyzzx", "\\input   phyzzx\n", Result{Type: TeXMac}},
		{"metafont", "beginchar(\"A\",10pt#,7pt#,0);\n", Result{Type: Metafont}},
		{"bibtex", "@article{key,\n  title={x}\n}\n", Result{Type: BibTeX}},
		{"bibtex case", "@Book{key,\n", Result{Type: BibTeX}},
		{"uuencode", "begin 644 paper.tar.gz\nM'XL(\n", Result{Type: UUEncoded}},
		{"uuencode crlf", "begin 644 paper.tar\r\nM'XL(\r\n", Result{Type: PC}},
		{"uuencode in tex", "\\def\\x{}\nbegin 644 paper.tar\n", Result{Type: TeX}},
		{"uuencode in tex priority", "\\bye\nbegin 644 paper.tar\n", Result{Type: TeXPriority}},
		{"withdrawn", "This paper deliberately replaced by what little\n", Result{Type: AlwaysIgnore}},
		{"plain text", "nothing to see\nhere\n", Result{Type: Failed}},
		{"no trailing newline", "\\def\\x{}", Result{Type: TeX}},
		{"empty", "", Result{Type: Failed}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, scan(t, tc.content))
		})
	}
}

func TestScanRuleOrder(t *testing.T) {
	// %auto-ignore wins over everything after it in the cascade.
	assert.Equal(t, Ignore, scan(t, "\\documentclass{article} %auto-ignore\n").Type)
	// Line 1 %! is POSTSCRIPT even when TeX follows.
	assert.Equal(t, Postscript, scan(t, "%!\n\\documentclass{article}\n").Type)
	// A %& line beats \documentclass on the same pass.
	assert.Equal(t, TeXMac, scan(t, "%&amslplain\n\\documentclass{article}\n").Type)
	// \documentstyle is found before the TeX hints resolve.
	assert.Equal(t, LaTeX, scan(t, "\\def\\a{}\n\\bye\n\\documentstyle{article}\n").Type)
}

func TestScanKeepsComments(t *testing.T) {
	// Comment stripping is inert: a commented \bye still counts.
	require.False(t, stripComments)
	assert.Equal(t, TeXPriority2, scan(t, "hello\n% \\bye\n").Type)
	assert.Equal(t, TeXPriority2, scan(t, "\\def\\x{} % \\bye\n").Type)
}

func TestScanRuleNames(t *testing.T) {
	names := make([]string, len(ContentRules))
	for i, r := range ContentRules {
		names[i] = r.Name
	}
	assert.Equal(t, []string{
		"auto-ignore", "texinfo", "mime", "tex-directive", "ps-font", "postscript",
		"ps-pc", "format-line", "html", "auto-include", "strip-comments",
		"documentstyle", "documentclass", "tex-hint", "end-at-start",
		"end-anywhere", "tex-macros", "metafont", "bibtex", "uuencode", "withdrawn",
	}, names)
}

func TestDisambiguateLaTeX2e(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Type
	}{
		{"includegraphics pdf", "\\documentclass{article}\n\\begin{document}\n\\includegraphics{plot.pdf}\n", PDFLaTeX},
		{"includegraphics options", "\\documentclass{article}\n\\includegraphics[width=3in]{fig/a.PNG}\n", PDFLaTeX},
		{"includegraphics far away", "\\documentclass{article}\n" + strings.Repeat("text\n", 200) + "\\includegraphics{x.jpg}\n", PDFLaTeX},
		{"commented includegraphics", "\\documentclass{article}\n%\\includegraphics{plot.pdf}\n", LaTeX2e},
		{"eps only", "\\documentclass{article}\n\\includegraphics{plot.eps}\n", LaTeX2e},
		{"pdfoutput before", "\\pdfoutput=1\n\\documentclass{article}\n", PDFLaTeX},
		{"pdfoutput spaced", "\\documentclass{article}\n\\pdfoutput = 1\n", PDFLaTeX},
		{"pdfoutput too late", "\\documentclass{article}\n" + strings.Repeat("x\n", 8) + "\\pdfoutput=1\n", LaTeX2e},
		{"tex directive", "%!TEX TS-program = pdflatex\n\\documentclass{article}\n", LaTeX2e},
		{"tex directive pdfoutput", "%!TEX encoding = UTF-8\n\\pdfoutput=1\n", PDFLaTeX},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, scan(t, tc.content).Type)
		})
	}
}

func TestDisambiguateRestoresOffset(t *testing.T) {
	r := bytes.NewReader([]byte("\\documentclass{article}\n\\includegraphics{a.pdf}\n"))
	_, err := r.Seek(7, io.SeekStart)
	require.NoError(t, err)

	res, err := DisambiguateLaTeX2e(r, 1)
	require.NoError(t, err)
	assert.Equal(t, PDFLaTeX, res.Type)

	pos, err := r.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pos)
}
