package sourcekit

import "strings"

// SourceType classifies a workspace as a whole.
type SourceType int

const (
	SourceUnknown SourceType = iota
	SourceInvalid
	SourceTeX
	SourcePostscript
	SourcePDF
	SourceHTML
)

var sourceTypeNames = [...]string{"unknown", "invalid", "tex", "ps", "pdf", "html"}

func (s SourceType) String() string {
	if s < 0 || int(s) >= len(sourceTypeNames) {
		return "unknown"
	}
	return sourceTypeNames[s]
}

// IsUnknown reports whether no source type has been decided.
func (s SourceType) IsUnknown() bool { return s == SourceUnknown }

// ParseSourceType maps a name produced by String back to a SourceType.
func ParseSourceType(name string) (SourceType, bool) {
	name = strings.ToLower(name)
	for i, n := range sourceTypeNames {
		if n == name {
			return SourceType(i), true
		}
	}
	return SourceUnknown, false
}

// SourceType returns the current workspace source type.
func (w *Workspace) SourceType() SourceType {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.source
}

// SetSourceType records the workspace source type.
func (w *Workspace) SetSourceType(s SourceType) {
	w.mu.Lock()
	w.source = s
	w.mu.Unlock()
}
