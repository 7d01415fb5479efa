package filetype

import (
	"sort"
	"strings"
)

// Type is the classification tag assigned to a submission file.
type Type int

// Tags are declared in ascending processing priority: a tag declared later
// is processed before one declared earlier. The table below is the single
// source of truth for ranks, ids and display names.
const (
	Unknown Type = iota
	Failed
	Directory
	AlwaysIgnore
	Input
	BibTeX
	Postscript
	DOSEPS
	PSFont
	PSPC
	Image
	Anim
	HTML
	PDF
	DVI
	Notebook
	ODF
	DOCX
	TeX
	PDFTeX
	TeXPriority2
	TeXAMS
	TeXPriority
	TeXMac
	LaTeX
	LaTeX2e
	PDFLaTeX
	TeXInfo
	Metafont
	UUEncoded
	Encrypted
	PC
	Mac
	CSH
	SH
	JAR
	RAR
	XLSX
	Compressed
	ZIP
	Gzipped
	Bzip2
	MultiPartMIME
	Tar
	Ignore
	Readme
	TeXAux
	Abs
	Include
	Abort

	numTypes
)

type typeInfo struct {
	id   string
	name string
	tex  bool
}

var types = [numTypes]typeInfo{
	Unknown:       {"UNKNOWN", "Unknown", false},
	Failed:        {"FAILED", "unknown", false},
	Directory:     {"DIRECTORY", "Directory", false},
	AlwaysIgnore:  {"ALWAYS_IGNORE", "Always ignore", false},
	Input:         {"INPUT", "Input for (La)TeX", false},
	BibTeX:        {"BIBTEX", "BiBTeX", false},
	Postscript:    {"POSTSCRIPT", "Postscript", false},
	DOSEPS:        {"DOS_EPS", "DOS EPS Binary File", false},
	PSFont:        {"PS_FONT", "Postscript Type 1 Font", false},
	PSPC:          {"PS_PC", "^D%! Postscript", false},
	Image:         {"IMAGE", "Image (gif/jpg etc)", false},
	Anim:          {"ANIM", "Animation (mpeg etc)", false},
	HTML:          {"HTML", "HTML", false},
	PDF:           {"PDF", "PDF", false},
	DVI:           {"DVI", "DVI", false},
	Notebook:      {"NOTEBOOK", "Mathematica Notebook", false},
	ODF:           {"ODF", "OpenDocument Format", false},
	DOCX:          {"DOCX", "Microsoft DOCX", false},
	TeX:           {"TEX", "TEX", true},
	PDFTeX:        {"PDFTEX", "PDFTEX", true},
	TeXPriority2:  {"TEX_priority2", `TeX (with \end or \bye - not starting a line)`, true},
	TeXAMS:        {"TEX_AMS", "AMSTeX", true},
	TeXPriority:   {"TEX_priority", `TeX (with \end or \bye)`, true},
	TeXMac:        {"TEX_MAC", "TeX +macros (harv,lanl..)", true},
	LaTeX:         {"LATEX", "LaTeX", true},
	LaTeX2e:       {"LATEX2e", "LATEX2e", true},
	PDFLaTeX:      {"PDFLATEX", "PDFLATEX", true},
	TeXInfo:       {"TEXINFO", "Texinfo", true},
	Metafont:      {"MF", "Metafont", false},
	UUEncoded:     {"UUENCODED", "UUencoded", false},
	Encrypted:     {"ENCRYPTED", "Encrypted", false},
	PC:            {"PC", "PC-ctrl-Ms", false},
	Mac:           {"MAC", "MAC-ctrl-Ms", false},
	CSH:           {"CSH", "CSH", false},
	SH:            {"SH", "SH", false},
	JAR:           {"JAR", "JAR archive", false},
	RAR:           {"RAR", "RAR archive", false},
	XLSX:          {"XLSX", "Microsoft XLSX", false},
	Compressed:    {"COMPRESSED", "UNIX-compressed", false},
	ZIP:           {"ZIP", "ZIP-compressed", false},
	Gzipped:       {"GZIPPED", "GZIP-compressed", false},
	Bzip2:         {"BZIP2", "BZIP2-compressed", false},
	MultiPartMIME: {"MULTI_PART_MIME", "MULTI_PART_MIME", false},
	Tar:           {"TAR", "TAR archive", false},
	Ignore:        {"IGNORE", " user defined IGNORE", false},
	Readme:        {"README", "override", false},
	TeXAux:        {"TEXAUX", "TeX auxiliary", false},
	Abs:           {"ABS", "abstract", false},
	Include:       {"INCLUDE", " keep", false},
	Abort:         {"ABORT", "Immediate stop", false},
}

var byID = func() map[string]Type {
	m := make(map[string]Type, numTypes)
	for t := Unknown; t < numTypes; t++ {
		m[strings.ToUpper(types[t].id)] = t
	}
	m["METAFONT"] = Metafont
	return m
}()

func (t Type) valid() bool { return t >= Unknown && t < numTypes }

// String returns the tag id, e.g. "LATEX2e".
func (t Type) String() string {
	if !t.valid() {
		return "UNKNOWN"
	}
	return types[t].id
}

// Name returns the human-readable display name, or "unknown" for an
// unrecognized value.
func (t Type) Name() string {
	if !t.valid() {
		return "unknown"
	}
	return types[t].name
}

// Priority returns the processing rank. Higher ranks are processed first.
// Unrecognized values rank 0 alongside Unknown.
func (t Type) Priority() int {
	if !t.valid() {
		return 0
	}
	return int(t)
}

// IsTeX reports whether t is one of the TeX family formats.
func (t Type) IsTeX() bool {
	return t.valid() && types[t].tex
}

// IsArchive reports whether t is a container the pipeline unpacks.
func (t Type) IsArchive() bool {
	switch t {
	case Tar, Gzipped, Bzip2, ZIP, Compressed:
		return true
	}
	return false
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	v, ok := ParseType(string(b))
	if !ok {
		return &ParseError{Value: string(b)}
	}
	*t = v
	return nil
}

// ParseError reports an unrecognized tag id.
type ParseError struct{ Value string }

func (e *ParseError) Error() string { return "filetype: unknown type " + e.Value }

// ParseType maps a tag id to its Type. Matching is case-insensitive and an
// optional "TYPE_" prefix is accepted.
func ParseType(s string) (Type, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "TYPE_")
	t, ok := byID[s]
	return t, ok
}

// All returns every tag in ascending priority order.
func All() []Type {
	out := make([]Type, 0, numTypes)
	for t := Unknown; t < numTypes; t++ {
		out = append(out, t)
	}
	return out
}

// TeXTypes returns the TeX family tags.
func TeXTypes() []Type {
	var out []Type
	for t := Unknown; t < numTypes; t++ {
		if types[t].tex {
			out = append(out, t)
		}
	}
	return out
}

// Less orders a before b when a must be processed first.
func Less(a, b Type) bool { return a.Priority() > b.Priority() }

// SortByPriority sorts tags highest priority first.
func SortByPriority(ts []Type) {
	sort.SliceStable(ts, func(i, j int) bool { return Less(ts[i], ts[j]) })
}
