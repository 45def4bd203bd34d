package convert

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pbaille/tdconv/internal/domain"
)

// RecordSource yields records in file order and io.EOF at the end.
type RecordSource interface {
	Read() (domain.Record, error)
}

// Handler receives tasks and notes from Walk.
type Handler interface {
	OnTask(ctx context.Context, rec domain.Record) error
	// OnNote gets the indent of the most recent task (1 before any task).
	OnNote(ctx context.Context, note domain.Note, indent int) error
}

// Walk reads src once, front to back, dispatching each task and note to h.
// Separator rows and unknown kinds are skipped. It returns the number of
// records read.
func Walk(ctx context.Context, src RecordSource, h Handler) (int, error) {
	indent := 1
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		rec, err := src.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++

		switch rec.Kind {
		case domain.KindTask:
			level, err := rec.Level()
			if err != nil {
				return n, fmt.Errorf("record %d: %w", n, err)
			}
			indent = level
			if err := h.OnTask(ctx, rec); err != nil {
				return n, fmt.Errorf("record %d: %w", n, err)
			}
		case domain.KindNote:
			note, err := domain.ParseNote(rec.Content)
			if err != nil {
				return n, fmt.Errorf("record %d: %w", n, err)
			}
			if err := h.OnNote(ctx, note, indent); err != nil {
				return n, fmt.Errorf("record %d: %w", n, err)
			}
		}
	}
}
