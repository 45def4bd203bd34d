package convert

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveTargetFile(t *testing.T) {
	tests := []struct {
		name   string
		source string
		output string
		ext    string
		want   string
	}{
		{"default name", "/Users/foobar/test/mystuff.csv", "", "taskpaper", "/Users/foobar/test/mystuff.taskpaper"},
		{"new root", "/Users/foobar/test/mystuff.csv", "result", "taskpaper", "/Users/foobar/test/result.taskpaper"},
		{"root in subdirectory", "/Users/foobar/test/mystuff.csv", "result/file", "taskpaper", "/Users/foobar/test/result/file.taskpaper"},
		{"absolute output verbatim", "/Users/foobar/test/mystuff.csv", "/result/file.ext", "taskpaper", "/result/file.ext"},
		{"markdown default", "/tmp/in/Inbox.csv", "", "md", "/tmp/in/Inbox.md"},
		{"todoist selector", "/tmp/in/Inbox.opml", "", "todoist", "/tmp/in/Inbox.csv"},
		{"root replaced", "/tmp/in/Inbox.csv", "notes", "taskpaper", "/tmp/in/notes.taskpaper"},
		{"relative subdir", "/tmp/in/Inbox.csv", "out/notes", "opml", "/tmp/in/out/notes.opml"},
		{"absolute verbatim", "/tmp/in/Inbox.csv", "/var/out/x.txt", "md", "/var/out/x.txt"},
		{"extension not doubled", "/tmp/in/Inbox.csv", "notes.md", "md", "/tmp/in/notes.md"},
		{"extension case", "/tmp/in/Inbox.csv", "notes.MD", "md", "/tmp/in/notes.md"},
		{"other extension kept", "/tmp/in/Inbox.csv", "notes.v2", "md", "/tmp/in/notes.v2.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveTarget(tt.source, tt.output, tt.ext)
			if err != nil {
				t.Fatalf("ResolveTarget: %v", err)
			}
			if got.IsDir {
				t.Error("file source resolved to a directory")
			}
			if got.Path != filepath.FromSlash(tt.want) {
				t.Errorf("Path = %q, want %q", got.Path, tt.want)
			}
		})
	}
}

func TestResolveTargetDirectory(t *testing.T) {
	base := t.TempDir()
	if err := os.Mkdir(filepath.Join(base, "out"), 0o755); err != nil {
		t.Fatal(err)
	}
	abs := t.TempDir()

	tests := []struct {
		name   string
		output string
		want   string
	}{
		{"base", "", base},
		{"subdirectory", "out", filepath.Join(base, "out")},
		{"absolute", abs, abs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveTarget(base, tt.output, "md")
			if err != nil {
				t.Fatalf("ResolveTarget: %v", err)
			}
			if !got.IsDir || got.Path != tt.want {
				t.Errorf("got %+v, want dir %q", got, tt.want)
			}
		})
	}
}

func TestResolveTargetArchive(t *testing.T) {
	base := t.TempDir()
	archive := filepath.Join(base, "export.zip")

	got, err := ResolveTarget(archive, "", "opml")
	if err != nil {
		t.Fatalf("ResolveTarget: %v", err)
	}
	if !got.IsDir || got.Path != base {
		t.Errorf("got %+v, want dir %q", got, base)
	}

	_, err = ResolveTarget(filepath.Join(base, "export.ZIP"), "missing", "opml")
	var dirErr *TargetDirectoryDoesNotExistError
	if !errors.As(err, &dirErr) {
		t.Fatalf("got %v, want TargetDirectoryDoesNotExistError", err)
	}
	if dirErr.Path != filepath.Join(base, "missing") {
		t.Errorf("Path = %q", dirErr.Path)
	}
}

func TestResolveTargetArchiveLiteral(t *testing.T) {
	if !isDir("/Users/foobar/test") {
		t.Skip("/Users/foobar/test does not exist on this machine")
	}
	got, err := ResolveTarget("/Users/foobar/test/mystuff.ZiP", "", "taskpaper")
	if err != nil {
		t.Fatalf("ResolveTarget: %v", err)
	}
	if !got.IsDir || got.Path != "/Users/foobar/test" {
		t.Errorf("got %+v, want dir /Users/foobar/test", got)
	}
}

func TestResolveTargetArchiveMixedCase(t *testing.T) {
	base := t.TempDir()
	got, err := ResolveTarget(filepath.Join(base, "mystuff.ZiP"), "", "taskpaper")
	if err != nil {
		t.Fatalf("ResolveTarget: %v", err)
	}
	if !got.IsDir || got.Path != base {
		t.Errorf("got %+v, want dir %q", got, base)
	}
}

func TestResolveTargetMissingDirectory(t *testing.T) {
	base := t.TempDir()
	_, err := ResolveTarget(base, "nope", "md")
	if !errors.Is(err, ErrTargetDirectoryDoesNotExist) {
		t.Errorf("got %v, want ErrTargetDirectoryDoesNotExist", err)
	}
}

func TestMemberTarget(t *testing.T) {
	got := memberTarget("/out", "exports/Work [123].csv", "todoist")
	if want := filepath.FromSlash("/out/Work [123].csv"); got != want {
		t.Errorf("memberTarget = %q, want %q", got, want)
	}
}

func TestMemberTargetsAvoidCollisions(t *testing.T) {
	got := memberTargets("/out", []string{"a/Work.csv", "b/Work.csv", "c/work.csv", "Home.csv"}, "md")
	want := []string{"/out/Work.md", "/out/Work(2).md", "/out/work(3).md", "/out/Home.md"}
	for i := range want {
		if got[i] != filepath.FromSlash(want[i]) {
			t.Errorf("target %d = %q, want %q", i, got[i], want[i])
		}
	}
}
