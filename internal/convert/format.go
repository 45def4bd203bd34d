package convert

import (
	"fmt"
	"strings"
)

// Format selects the conversion direction by target format.
type Format string

const (
	FormatMarkdown  Format = "md"
	FormatOPML      Format = "opml"
	FormatTaskPaper Format = "taskpaper"
	// FormatTodoist converts OPML back to Todoist CSV.
	FormatTodoist Format = "todoist"
)

const (
	extCSV     = "csv"
	extOPML    = "opml"
	ArchiveExt = "zip"
)

// Formats lists the supported selectors.
var Formats = []Format{FormatMarkdown, FormatOPML, FormatTaskPaper, FormatTodoist}

// ParseFormat maps a selector to a Format. Unknown selectors fall back to
// Markdown; known reports whether the selector was recognized.
func ParseFormat(s string) (f Format, known bool) {
	sel := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, f := range Formats {
		if f == sel {
			return f, true
		}
	}
	return FormatMarkdown, false
}

// FormatNames lists the selectors for help text.
func FormatNames() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// TargetExt is the on-disk extension of converted files.
func (f Format) TargetExt() string {
	return NormalizeExt(string(f))
}

// SourceExt is the extension of files this format converts from.
func (f Format) SourceExt() string {
	if f == FormatTodoist {
		return extOPML
	}
	return extCSV
}

// NormalizeExt maps the Todoist selector to its csv extension.
func NormalizeExt(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if strings.EqualFold(ext, string(FormatTodoist)) {
		return extCSV
	}
	return ext
}

// BatchPolicy decides what happens after a batch member fails.
type BatchPolicy string

const (
	PolicyAbort    BatchPolicy = "abort"
	PolicyContinue BatchPolicy = "continue"
)

func ParseBatchPolicy(s string) (BatchPolicy, error) {
	switch BatchPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyAbort:
		return PolicyAbort, nil
	case PolicyContinue:
		return PolicyContinue, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBatchPolicy, s)
	}
}
