package convert

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var trailingID = regexp.MustCompile(`\s*\[\d+\]$`)

// Title derives a document title from a source file name: directory,
// extension and a trailing Todoist project id like " [2203306141]" are
// dropped.
func Title(filename string) string {
	base := path.Base(filepath.ToSlash(filename))
	base = strings.TrimSuffix(base, path.Ext(base))
	if strings.EqualFold(path.Ext(base), "."+extCSV) {
		base = base[:len(base)-len(extCSV)-1]
	}
	return strings.TrimSpace(trailingID.ReplaceAllString(base, ""))
}
