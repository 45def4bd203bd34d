// Package tabular reads and writes the Todoist CSV export format.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/pbaille/tdconv/internal/domain"
)

// Reader decodes records from a Todoist CSV stream.
type Reader struct {
	csv    *csv.Reader
	header []string
}

// NewReader consumes and validates the header row. A leading UTF-8 byte
// order mark is dropped.
func NewReader(r io.Reader) (*Reader, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	cr := csv.NewReader(transform.NewReader(r, dec))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &MalformedRecordError{Line: 1, Reason: "missing header row"}
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	return &Reader{csv: cr, header: header}, nil
}

func checkHeader(header []string) error {
	if len(header) != len(domain.Fields) {
		return &MalformedRecordError{
			Line:   1,
			Reason: fmt.Sprintf("header has %d columns, want %d (%s)", len(header), len(domain.Fields), strings.Join(domain.Fields, ",")),
		}
	}
	for i, name := range header {
		if !strings.EqualFold(strings.TrimSpace(name), domain.Fields[i]) {
			return &MalformedRecordError{
				Line:   1,
				Reason: fmt.Sprintf("column %d is %q, want %q", i+1, name, domain.Fields[i]),
			}
		}
	}
	return nil
}

// Read returns the next record, or io.EOF when the stream is exhausted.
func (r *Reader) Read() (domain.Record, error) {
	row, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Record{}, io.EOF
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return domain.Record{}, &MalformedRecordError{Line: pe.Line, Reason: pe.Err.Error()}
		}
		return domain.Record{}, fmt.Errorf("read record: %w", err)
	}

	if len(row) < len(r.header) {
		line, _ := r.csv.FieldPos(0)
		return domain.Record{}, &MalformedRecordError{
			Line:   line,
			Reason: fmt.Sprintf("row has %d fields, header declares %d", len(row), len(r.header)),
		}
	}
	return domain.RecordFromFields(row), nil
}

// ReadAll drains the reader.
func (r *Reader) ReadAll() ([]domain.Record, error) {
	var records []domain.Record
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}
