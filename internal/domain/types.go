package domain

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
)

// Kind is the TYPE column of a Todoist export row.
type Kind string

const (
	KindTask Kind = "task"
	KindNote Kind = "note"
	// KindNone marks separator rows.
	KindNone Kind = ""
)

// Canonical Todoist CSV columns, in order.
const (
	FieldType        = "TYPE"
	FieldContent     = "CONTENT"
	FieldPriority    = "PRIORITY"
	FieldIndent      = "INDENT"
	FieldAuthor      = "AUTHOR"
	FieldResponsible = "RESPONSIBLE"
	FieldDate        = "DATE"
	FieldDateLang    = "DATE_LANG"
	FieldTimezone    = "TIMEZONE"
)

// Fields is the fixed column order of the tabular format.
var Fields = []string{
	FieldType, FieldContent, FieldPriority, FieldIndent, FieldAuthor,
	FieldResponsible, FieldDate, FieldDateLang, FieldTimezone,
}

// PriorityNone is the Todoist priority meaning "no priority".
const PriorityNone = 4

// Record is one row of a Todoist export. Numeric columns keep their
// textual form so that unset values stay empty on output.
type Record struct {
	Kind        Kind   `json:"type"`
	Content     string `json:"content"`
	Priority    string `json:"priority"`
	Indent      string `json:"indent"`
	Author      string `json:"author"`
	Responsible string `json:"responsible"`
	Date        string `json:"date"`
	DateLang    string `json:"date_lang"`
	Timezone    string `json:"timezone"`
}

// RecordFromFields maps a row in canonical column order to a Record.
// Missing trailing columns are left empty.
func RecordFromFields(row []string) Record {
	get := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return Record{
		Kind:        Kind(strings.ToLower(strings.TrimSpace(get(0)))),
		Content:     get(1),
		Priority:    get(2),
		Indent:      get(3),
		Author:      get(4),
		Responsible: get(5),
		Date:        get(6),
		DateLang:    get(7),
		Timezone:    get(8),
	}
}

// Fields returns the record values in canonical column order.
func (r Record) Fields() []string {
	return []string{
		string(r.Kind), r.Content, r.Priority, r.Indent, r.Author,
		r.Responsible, r.Date, r.DateLang, r.Timezone,
	}
}

// PriorityLevel parses the priority column. ok is false when it is unset
// or not an integer.
func (r Record) PriorityLevel() (int, bool) {
	p, err := strconv.Atoi(strings.TrimSpace(r.Priority))
	if err != nil {
		return 0, false
	}
	return p, true
}

// Level parses the indent column.
func (r Record) Level() (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(r.Indent))
	if err != nil {
		return 0, fmt.Errorf("indent %q: %w", r.Indent, ErrMalformedIndent)
	}
	if n < 0 {
		return 0, fmt.Errorf("indent %d: %w", n, ErrMalformedIndent)
	}
	return n, nil
}

// Attachment is a remote file referenced from a note.
type Attachment struct {
	Name string `json:"file_name"`
	URL  string `json:"file_url"`
}

var imageExtensions = map[string]bool{
	".bmp": true, ".gif": true, ".jpeg": true, ".jpg": true,
	".png": true, ".tif": true, ".tiff": true, ".webp": true,
}

// IsImage reports whether the attachment URL (or, failing that, its name)
// has a raster image extension.
func (a Attachment) IsImage() bool {
	u := a.URL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	if ext := strings.ToLower(path.Ext(u)); ext != "" {
		return imageExtensions[ext]
	}
	return imageExtensions[strings.ToLower(path.Ext(a.Name))]
}

// Run is one journaled conversion.
type Run struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Format    string    `json:"format"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Records   int       `json:"records"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	RunStatusOK     = "ok"
	RunStatusFailed = "failed"
)
