package convert

import (
	"context"
	"fmt"
	"io"

	"github.com/pbaille/tdconv/internal/domain"
	"github.com/pbaille/tdconv/internal/tabular"
)

// Downloader stores an attachment locally and returns its relative path.
// *attachment.Resolver implements it.
type Downloader interface {
	Download(ctx context.Context, a domain.Attachment) (string, error)
}

// Encoder is a Handler that writes one document.
type Encoder interface {
	Handler
	Begin(title string) error
	End() error
}

// NewEncoder returns the encoder for f writing to w. A nil d keeps
// attachments as remote references. Unknown formats get Markdown.
func NewEncoder(f Format, w io.Writer, d Downloader) Encoder {
	switch f {
	case FormatOPML:
		return newOPMLEncoder(w)
	case FormatTaskPaper:
		return newTaskPaperEncoder(w, d)
	default:
		return newMarkdownEncoder(w, d)
	}
}

// Stream converts one source document read from r into w. title heads the
// output; d is consulted for attachments when non-nil. It returns the
// number of records read (CSV sources) or written (OPML sources).
func Stream(ctx context.Context, f Format, title string, r io.Reader, w io.Writer, d Downloader) (int, error) {
	if f == FormatTodoist {
		return DecodeOPML(r, w)
	}

	rr, err := tabular.NewReader(r)
	if err != nil {
		return 0, err
	}

	enc := NewEncoder(f, w, d)
	if err := enc.Begin(title); err != nil {
		return 0, fmt.Errorf("begin %s: %w", f, err)
	}
	n, err := Walk(ctx, rr, enc)
	if err != nil {
		return n, err
	}
	if err := enc.End(); err != nil {
		return n, fmt.Errorf("finish %s: %w", f, err)
	}
	return n, nil
}
