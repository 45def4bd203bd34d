package convert

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pbaille/tdconv/internal/domain"
)

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	src := bytes.NewReader(csvBytes(t, sampleRecords(t)))
	if _, err := Stream(context.Background(), FormatMarkdown, "plan", src, &buf, nil); err != nil {
		t.Fatalf("Stream: %v", err)
	}

	want := "# plan\n\n" +
		"## Project A\n\n" +
		"Some note\n\n" +
		"### * Section\n\n" +
		"#### Sub task @/home\n\n" +
		"first line\nsecond line\n\n" +
		"![pic.png](https://e.com/pic.png)\n\n" +
		"## Other\n\n"
	if buf.String() != want {
		t.Errorf("output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestMarkdownAttachmentLinks(t *testing.T) {
	tests := []struct {
		name string
		d    Downloader
		a    domain.Attachment
		want string
	}{
		{
			name: "document link escapes spaces",
			a:    domain.Attachment{Name: "The Plan.pdf", URL: "https://e.com/The Plan.pdf"},
			want: "[The Plan.pdf](https://e.com/The%20Plan.pdf)\n\n",
		},
		{
			name: "image is embedded",
			a:    domain.Attachment{Name: "shot.JPG", URL: "https://e.com/a b/shot.JPG"},
			want: "![shot.JPG](https://e.com/a%20b/shot.JPG)\n\n",
		},
		{
			name: "brackets in the name are escaped",
			a:    domain.Attachment{Name: "notes [v2].pdf", URL: "https://e.com/n.pdf"},
			want: "[notes \\[v2\\].pdf](https://e.com/n.pdf)\n\n",
		},
		{
			name: "downloaded file uses local path",
			d:    &stubDownloader{paths: []string{"attachments/The Plan(2).pdf"}},
			a:    domain.Attachment{Name: "The Plan.pdf", URL: "https://e.com/The Plan.pdf"},
			want: "[The Plan.pdf](attachments/The%20Plan(2).pdf)\n\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			e := newMarkdownEncoder(&buf, tt.d)
			a := tt.a
			if err := e.OnNote(context.Background(), domain.Note{Attachment: &a}, 1); err != nil {
				t.Fatal(err)
			}
			e.End()
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
			if strings.Contains(buf.String()[strings.Index(buf.String(), "("):], " ") {
				t.Errorf("url in %q contains a space", buf.String())
			}
		})
	}
}

func TestUnknownFormatFallsBackToMarkdown(t *testing.T) {
	f, known := ParseFormat("docx")
	if known || f != FormatMarkdown {
		t.Fatalf("ParseFormat(docx) = %q, %v", f, known)
	}
	if _, ok := NewEncoder(Format("docx"), &bytes.Buffer{}, nil).(*markdownEncoder); !ok {
		t.Error("NewEncoder should fall back to markdown")
	}
}
