package tabular

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pbaille/tdconv/internal/domain"
)

// Writer encodes records as Todoist CSV.
type Writer struct {
	csv *csv.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the canonical column row.
func (w *Writer) WriteHeader() error {
	if err := w.csv.Write(domain.Fields); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

func (w *Writer) Write(r domain.Record) error {
	if err := w.csv.Write(r.Fields()); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Flush writes buffered rows and reports any deferred write error.
func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}
