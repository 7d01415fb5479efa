package filetype

import (
	"bytes"
	"regexp"
)

// HeadSize is how much of a file the signature matcher inspects.
const HeadSize = 1024

// nameRule maps a path pattern to a type without reading content.
type nameRule struct {
	Type    Type
	Pattern *regexp.Regexp
}

// nameRules are evaluated in order; the first match wins.
var nameRules = []nameRule{
	{Readme, regexp.MustCompile(`(^|/)00README\.XXX$`)},
	{AlwaysIgnore, regexp.MustCompile(`(^|/)(head|body)\.tmp$`)},
	{Abort, regexp.MustCompile(`(^|/)missfont\.log$`)},
	{TeXAux, regexp.MustCompile(`(?i)\.(sty|cls|mf|\d*pk|bbl|bst|tfm|ax|def|log|hrfldf|cfg|clo|inx|end|fgx|tbx|rtx|rty|toc)$`)},
	{Abs, regexp.MustCompile(`\.abs$`)},
	{Ignore, regexp.MustCompile(`\.fig$`)},
	{Notebook, regexp.MustCompile(`(?i)\.nb$`)},
	{Input, regexp.MustCompile(`(?i)\.inp$`)},
	{HTML, regexp.MustCompile(`\.html?$`)},
	{Encrypted, regexp.MustCompile(`\.cry$`)},
}

// MatchName applies the content-independent path rules.
func MatchName(name string) (Type, bool) {
	for _, r := range nameRules {
		if r.Pattern.MatchString(name) {
			return r.Type, true
		}
	}
	return Unknown, false
}

// Signature defines a byte signature. Magic is compared at Offset; when Test
// is set it replaces the byte comparison. A non-nil Ext restricts the
// signature to matching file names.
type Signature struct {
	Type   Type
	Offset int
	Magic  []byte
	Ext    *regexp.Regexp
	Test   func(head []byte) bool

	// Refine picks a more specific type from the file name.
	Refine func(name string) Type
}

func (s Signature) match(name string, head []byte) bool {
	if s.Ext != nil && !s.Ext.MatchString(name) {
		return false
	}
	if s.Test != nil {
		return s.Test(head)
	}
	end := s.Offset + len(s.Magic)
	return end <= len(head) && bytes.Equal(head[s.Offset:end], s.Magic)
}

var (
	tifExt  = regexp.MustCompile(`\.tif$`)
	jarExt  = regexp.MustCompile(`(?i)\.jar$`)
	odtExt  = regexp.MustCompile(`(?i)\.odt$`)
	docxExt = regexp.MustCompile(`(?i)\.docx$`)
	xlsxExt = regexp.MustCompile(`(?i)\.xlsx$`)
)

// signatures are evaluated in order; some magics are prefixes of others.
var signatures = []Signature{
	{Type: Compressed, Magic: []byte{0x1F, 0x9D}},
	{Type: Gzipped, Magic: []byte{0x1F, 0x8B}},
	{Type: Bzip2, Test: func(h []byte) bool {
		return len(h) >= 4 && h[0] == 'B' && h[1] == 'Z' && h[2] == 'h' && h[3] > 0x2F
	}},
	{Type: Tar, Offset: 257, Magic: []byte("ustar")},
	{Type: DVI, Magic: []byte{0xF7, 0x02}},
	{Type: Image, Magic: []byte("GIF8")},
	{Type: Image, Magic: []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}},
	{Type: Image, Magic: []byte("MM"), Ext: tifExt},
	{Type: Image, Magic: []byte("II"), Ext: tifExt},
	{Type: Image, Test: func(h []byte) bool {
		if len(h) < 4 || h[0] != 0xFF || h[1] != 0xD8 || h[2] != 0xFF {
			return false
		}
		return h[3] == 0xE0 || (len(h) > 4 && h[4] == 0xEE)
	}},
	{Type: Anim, Magic: []byte{0x00, 0x00, 0x01, 0xB3}},
	{Type: ZIP, Test: func(h []byte) bool {
		return bytes.HasPrefix(h, []byte("PK\x03\x04")) || bytes.HasPrefix(h, []byte("PK00PK\x03\x04"))
	}, Refine: refineZip},
	{Type: RAR, Magic: []byte("Rar!")},
	{Type: DOSEPS, Magic: []byte{0xC5, 0xD0, 0xD3, 0xC6}},
}

func refineZip(name string) Type {
	switch {
	case jarExt.MatchString(name):
		return JAR
	case odtExt.MatchString(name):
		return ODF
	case docxExt.MatchString(name):
		return DOCX
	case xlsxExt.MatchString(name):
		return XLSX
	}
	return ZIP
}

var macPattern = regexp.MustCompile(`#!/bin/csh -f\r#|(\r|^)begin \d{1,4}\s+\S.*\r[^\n]`)

// MatchSignature checks head, the first bytes of the file (up to HeadSize),
// against the magic signature table and then the deeper PDF and MAC probes.
func MatchSignature(name string, head []byte) (Type, bool) {
	for _, s := range signatures {
		if !s.match(name, head) {
			continue
		}
		if s.Refine != nil {
			return s.Refine(name), true
		}
		return s.Type, true
	}

	if len(head) > HeadSize {
		head = head[:HeadSize]
	}
	if bytes.Contains(head, []byte("%PDF-")) {
		return PDF, true
	}
	if macPattern.Match(head) {
		return Mac, true
	}
	return Unknown, false
}
