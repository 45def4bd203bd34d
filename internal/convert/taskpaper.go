package convert

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pbaille/tdconv/internal/domain"
)

// projectMarker prefixes Todoist's "unclickable" tasks.
const projectMarker = "* "

type taskPaperEncoder struct {
	w          *bufio.Writer
	downloader Downloader
}

func newTaskPaperEncoder(w io.Writer, d Downloader) *taskPaperEncoder {
	return &taskPaperEncoder{w: bufio.NewWriter(w), downloader: d}
}

func (e *taskPaperEncoder) Begin(title string) error {
	_, err := fmt.Fprintf(e.w, "%s:\n", title)
	return err
}

func (e *taskPaperEncoder) OnTask(ctx context.Context, rec domain.Record) error {
	level, err := rec.Level()
	if err != nil {
		return err
	}
	tabs := strings.Repeat("\t", level)

	content, project := strings.CutPrefix(rec.Content, projectMarker)
	content += taskPaperTags(rec)
	// TaskPaper tag names cannot start with a slash.
	content = strings.ReplaceAll(content, "@/", "@")

	if project {
		_, err = fmt.Fprintf(e.w, "%s%s:\n", tabs, content)
	} else {
		_, err = fmt.Fprintf(e.w, "%s- %s\n", tabs, content)
	}
	return err
}

func taskPaperTags(rec domain.Record) string {
	var tags string
	if p, ok := rec.PriorityLevel(); ok && p < domain.PriorityNone {
		tags += fmt.Sprintf(" @priority(%d)", p)
	}
	if rec.Date != "" {
		tags += fmt.Sprintf(" @due(%s)", rec.Date)
	}
	return tags
}

// OnNote nests the note one level below its task.
func (e *taskPaperEncoder) OnNote(ctx context.Context, note domain.Note, indent int) error {
	tabs := strings.Repeat("\t", indent+1)
	if note.Text != "" {
		for _, line := range strings.Split(note.Text, "\n") {
			fmt.Fprintf(e.w, "%s%s\n", tabs, line)
		}
	}
	if note.Attachment == nil {
		return nil
	}

	ref := note.Attachment.Name + ": " + note.Attachment.URL
	if e.downloader != nil {
		rel, err := e.downloader.Download(ctx, *note.Attachment)
		if err != nil {
			return err
		}
		ref = taskPaperFileRef(rel)
	}
	_, err := fmt.Fprintf(e.w, "%s%s\n", tabs, ref)
	return err
}

// taskPaperFileRef makes a relative TaskPaper file link: ./ prefix and
// backslash-escaped spaces.
func taskPaperFileRef(rel string) string {
	return "./" + strings.ReplaceAll(rel, " ", `\ `)
}

func (e *taskPaperEncoder) End() error {
	return e.w.Flush()
}
