package filetype

import (
	"bufio"
	"bytes"
	"io"
	"regexp"

	"github.com/pkg/errors"
)

// Result is the outcome of classifying a file. Format carries auxiliary
// detail, such as the format token of a %& control line.
type Result struct {
	Type   Type
	Format string
}

func (r Result) String() string {
	if r.Format == "" {
		return r.Type.String()
	}
	return r.Type.String() + "(" + r.Format + ")"
}

// scanState is threaded through the content rules for one scan. The hint
// flags are sticky and only consulted once the scan runs out of lines.
type scanState struct {
	r      io.ReadSeeker
	lineNo int

	// line keeps its terminator; trimmed has the trailing "\n" removed so
	// that end-of-line anchors behave.
	line    []byte
	trimmed []byte
	accum   []byte

	maybeTeX          bool
	maybeTeXPriority  bool
	maybeTeXPriority2 bool

	err error
}

// Rule is one step of the content cascade. Apply reports a firm result, or
// false to pass the line to the next rule.
type Rule struct {
	Name  string
	Apply func(s *scanState) (Result, bool)
}

// stripComments controls the %-comment stripping step. Stripping has never
// been applied, so the TeX rules below see raw lines.
var stripComments = false

var (
	reContentType = regexp.MustCompile(`(?i)(^|\r)Content-type: `)
	rePSFont      = regexp.MustCompile(`(?ms)^(......)?%!(PS-AdobeFont-1\.|FontType1|PS-Adobe-3\.0 Resource-Font)`)
	rePSPC        = regexp.MustCompile(`(^%*\x04%!)|(.*%!PS-Adobe)`)
	reFormatLine  = regexp.MustCompile(`^\r?%&([^\s\n]+)`)
	reHTMLTag     = regexp.MustCompile(`(?i)<html[>\s]`)
	reComment     = regexp.MustCompile(`%[^\r]*`)
	reDocStyle    = regexp.MustCompile(`(^|\r)\s*\\documentstyle`)
	reDocClass    = regexp.MustCompile(`(^|\r)\s*\\documentclass`)
	reTeXHint     = regexp.MustCompile(`(^|\r)\s*(\\font|\\magnification|\\input|\\def|\\special|\\baselineskip|\\begin)`)
	reAMSTeX      = regexp.MustCompile(`\\input\s+amstex`)
	reEndAtStart  = regexp.MustCompile(`(^|\r)\s*\\(end|bye)(\s|$)`)
	reEndAnywhere = regexp.MustCompile(`\\(end|bye)(\s|$)`)
	reTeXMacros   = regexp.MustCompile(`(\\input *(harv|lanl)mac)|(\\input\s+phyzzx)`)
	reBibEntry    = regexp.MustCompile(`(?i)(^|\r)@(book|article|inbook|unpublished)\{`)
	reUUBegin     = regexp.MustCompile(`^begin \d{1,4}\s+[^\s]+\r?$`)
)

var latexFormats = map[string]bool{
	"latex209": true,
	"biglatex": true,
	"latex":    true,
	"LaTeX":    true,
}

func contains(s string) func([]byte) bool {
	b := []byte(s)
	return func(line []byte) bool { return bytes.Contains(line, b) }
}

var (
	hasAutoIgnore  = contains("%auto-ignore")
	hasTeXInfo     = contains(`\input texinfo`)
	hasAutoInclude = contains("%auto-include")
	hasBeginChar   = contains("beginchar(")
	hasWithdrawn   = contains("paper deliberately replaced by what little")
)

// ContentRules is the ordered cascade applied to every line. The first rule
// to fire decides the type; the order is load-bearing.
var ContentRules = []Rule{
	{"auto-ignore", func(s *scanState) (Result, bool) {
		return Result{Type: Ignore}, s.lineNo <= 10 && hasAutoIgnore(s.line)
	}},
	{"texinfo", func(s *scanState) (Result, bool) {
		return Result{Type: TeXInfo}, s.lineNo <= 10 && hasTeXInfo(s.line)
	}},
	{"mime", func(s *scanState) (Result, bool) {
		return Result{Type: MultiPartMIME}, s.lineNo <= 40 && reContentType.Match(s.line)
	}},
	{"tex-directive", func(s *scanState) (Result, bool) {
		if s.lineNo != 1 || !bytes.HasPrefix(s.line, []byte("%!TEX ")) {
			return Result{}, false
		}
		return s.latex2e()
	}},
	{"ps-font", func(s *scanState) (Result, bool) {
		return Result{Type: PSFont}, s.lineNo <= 7 && rePSFont.Match(s.accum)
	}},
	{"postscript", func(s *scanState) (Result, bool) {
		return Result{Type: Postscript}, s.lineNo == 1 && bytes.HasPrefix(s.line, []byte("%!"))
	}},
	{"ps-pc", func(s *scanState) (Result, bool) {
		if s.lineNo == 1 && rePSPC.Match(s.trimmed) {
			return Result{Type: PSPC}, true
		}
		return Result{Type: PSPC}, s.lineNo <= 10 && !s.maybeTeX && bytes.HasPrefix(s.line, []byte("%!PS"))
	}},
	{"format-line", func(s *scanState) (Result, bool) {
		if s.lineNo > 12 {
			return Result{}, false
		}
		m := reFormatLine.FindSubmatch(s.line)
		if m == nil {
			return Result{}, false
		}
		token := string(m[1])
		if latexFormats[token] {
			return Result{Type: LaTeX, Format: token}, true
		}
		return Result{Type: TeXMac, Format: token}, true
	}},
	{"html", func(s *scanState) (Result, bool) {
		return Result{Type: HTML}, s.lineNo <= 10 && reHTMLTag.Match(s.line)
	}},
	{"auto-include", func(s *scanState) (Result, bool) {
		return Result{Type: Include}, s.lineNo <= 10 && hasAutoInclude(s.line)
	}},
	{"strip-comments", func(s *scanState) (Result, bool) {
		if stripComments {
			s.line = reComment.ReplaceAll(s.line, nil)
			s.trimmed = bytes.TrimSuffix(s.line, []byte("\n"))
		}
		return Result{}, false
	}},
	{"documentstyle", func(s *scanState) (Result, bool) {
		return Result{Type: LaTeX}, reDocStyle.Match(s.line)
	}},
	{"documentclass", func(s *scanState) (Result, bool) {
		if !reDocClass.Match(s.line) {
			return Result{}, false
		}
		return s.latex2e()
	}},
	{"tex-hint", func(s *scanState) (Result, bool) {
		if !reTeXHint.Match(s.line) {
			return Result{}, false
		}
		s.maybeTeX = true
		return Result{Type: TeXPriority}, reAMSTeX.Match(s.line)
	}},
	{"end-at-start", func(s *scanState) (Result, bool) {
		if reEndAtStart.Match(s.trimmed) {
			s.maybeTeXPriority = true
		}
		return Result{}, false
	}},
	{"end-anywhere", func(s *scanState) (Result, bool) {
		if reEndAnywhere.Match(s.trimmed) {
			s.maybeTeXPriority2 = true
		}
		return Result{}, false
	}},
	{"tex-macros", func(s *scanState) (Result, bool) {
		return Result{Type: TeXMac}, reTeXMacros.Match(s.line)
	}},
	{"metafont", func(s *scanState) (Result, bool) {
		return Result{Type: Metafont}, hasBeginChar(s.line)
	}},
	{"bibtex", func(s *scanState) (Result, bool) {
		return Result{Type: BibTeX}, reBibEntry.Match(s.line)
	}},
	{"uuencode", func(s *scanState) (Result, bool) {
		if !reUUBegin.Match(s.trimmed) {
			return Result{}, false
		}
		switch {
		case s.maybeTeXPriority:
			return Result{Type: TeXPriority}, true
		case s.maybeTeX:
			return Result{Type: TeX}, true
		case bytes.HasSuffix(s.trimmed, []byte("\r")):
			return Result{Type: PC}, true
		}
		return Result{Type: UUEncoded}, true
	}},
	{"withdrawn", func(s *scanState) (Result, bool) {
		return Result{Type: AlwaysIgnore}, hasWithdrawn(s.line)
	}},
}

// finish resolves the accumulated hints once no rule fired.
func (s *scanState) finish() Result {
	switch {
	case s.maybeTeXPriority:
		return Result{Type: TeXPriority}
	case s.maybeTeXPriority2:
		return Result{Type: TeXPriority2}
	case s.maybeTeX:
		return Result{Type: TeX}
	}
	return Result{Type: Failed}
}

// latex2e hands the decision to the PDFLaTeX/LaTeX2e disambiguator. The
// handoff is terminal; the scan does not resume.
func (s *scanState) latex2e() (Result, bool) {
	res, err := DisambiguateLaTeX2e(s.r, s.lineNo)
	if err != nil {
		s.err = err
		return Result{Type: Failed}, true
	}
	return res, true
}

// Scan streams r line by line through ContentRules.
func Scan(r io.ReadSeeker) (Result, error) {
	s := &scanState{r: r}
	br := bufio.NewReaderSize(r, 64*1024)

	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			s.lineNo++
			s.line = line
			s.trimmed = bytes.TrimSuffix(line, []byte("\n"))
			if s.lineNo <= 7 {
				s.accum = append(s.accum, line...)
			}
			for _, rule := range ContentRules {
				if res, ok := rule.Apply(s); ok {
					return res, s.err
				}
			}
		}
		if err == io.EOF {
			return s.finish(), nil
		}
		if err != nil {
			return Result{Type: Failed}, errors.WithMessage(err, "scan content")
		}
	}
}
