package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/pbaille/tdconv/internal/domain"
	"github.com/pbaille/tdconv/internal/tabular"
)

func task(content, priority, indent, date string) domain.Record {
	return domain.Record{Kind: domain.KindTask, Content: content, Priority: priority, Indent: indent, Date: date}
}

func note(content string) domain.Record {
	return domain.Record{Kind: domain.KindNote, Content: content}
}

func attachmentNote(t *testing.T, text, name, url string) domain.Record {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"file_name": name, "file_url": url, "file_type": "image/png"})
	if err != nil {
		t.Fatal(err)
	}
	content := "[[file " + string(payload) + "]]"
	if text != "" {
		content = text + " " + content
	}
	return note(content)
}

func csvBytes(t *testing.T, records []domain.Record) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := tabular.NewWriter(&buf)
	if err := w.WriteHeader(); err != nil {
		t.Fatal(err)
	}
	for _, r := range records {
		if err := w.Write(r); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeCSV(t *testing.T, path string, records []domain.Record) {
	t.Helper()
	if err := os.WriteFile(path, csvBytes(t, records), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readRecords(t *testing.T, r io.Reader) []domain.Record {
	t.Helper()
	tr, err := tabular.NewReader(r)
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	records, err := tr.ReadAll()
	if err != nil {
		t.Fatalf("read records: %v", err)
	}
	return records
}

// sampleRecords is a small project with nesting, tags and an attachment.
func sampleRecords(t *testing.T) []domain.Record {
	return []domain.Record{
		task("Project A", "4", "1", ""),
		note("Some note"),
		task("* Section", "4", "2", ""),
		task("Sub task @/home", "1", "3", "tomorrow"),
		note("first line\nsecond line"),
		attachmentNote(t, "", "pic.png", "https://e.com/pic.png"),
		{},
		task("Other", "2", "1", ""),
	}
}

type sliceSource struct {
	records []domain.Record
	i       int
}

func (s *sliceSource) Read() (domain.Record, error) {
	if s.i >= len(s.records) {
		return domain.Record{}, io.EOF
	}
	r := s.records[s.i]
	s.i++
	return r, nil
}

type stubDownloader struct {
	paths []string
	err   error
	calls int
}

func (d *stubDownloader) Download(ctx context.Context, a domain.Attachment) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	p := d.paths[d.calls]
	d.calls++
	return p, nil
}

var errBoom = errors.New("boom")
