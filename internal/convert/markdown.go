package convert

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pbaille/tdconv/internal/domain"
)

// linkTextEscaper keeps brackets in a name from closing the link text.
var linkTextEscaper = strings.NewReplacer(`\`, `\\`, "[", `\[`, "]", `\]`)

type markdownEncoder struct {
	w          *bufio.Writer
	downloader Downloader
}

func newMarkdownEncoder(w io.Writer, d Downloader) *markdownEncoder {
	return &markdownEncoder{w: bufio.NewWriter(w), downloader: d}
}

func (e *markdownEncoder) Begin(title string) error {
	_, err := fmt.Fprintf(e.w, "# %s\n\n", title)
	return err
}

// OnTask writes a heading one level below the title.
func (e *markdownEncoder) OnTask(ctx context.Context, rec domain.Record) error {
	level, err := rec.Level()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.w, "%s %s\n\n", strings.Repeat("#", level+1), rec.Content)
	return err
}

func (e *markdownEncoder) OnNote(ctx context.Context, note domain.Note, indent int) error {
	if note.Text != "" {
		fmt.Fprintf(e.w, "%s\n\n", note.Text)
	}
	if note.Attachment == nil {
		return nil
	}

	a := note.Attachment
	url := a.URL
	if e.downloader != nil {
		rel, err := e.downloader.Download(ctx, *a)
		if err != nil {
			return err
		}
		url = rel
	}
	url = strings.ReplaceAll(url, " ", "%20")

	prefix := ""
	if a.IsImage() {
		prefix = "!"
	}
	_, err := fmt.Fprintf(e.w, "%s[%s](%s)\n\n", prefix, linkTextEscaper.Replace(a.Name), url)
	return err
}

func (e *markdownEncoder) End() error {
	return e.w.Flush()
}
