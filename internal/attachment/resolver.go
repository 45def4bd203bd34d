// Package attachment downloads note attachments next to converted output.
package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pbaille/tdconv/internal/domain"
	"github.com/pbaille/tdconv/internal/fetcher"
	"github.com/pbaille/tdconv/pkg/log"
)

// DefaultDir is the storage directory, relative to the resolver root.
const DefaultDir = "attachments"

// Fetcher streams a remote resource into w.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, w io.Writer) (int64, error)
}

// Resolver stores attachments under root/dir.
type Resolver struct {
	root    string
	dir     string
	fetcher Fetcher
	l       log.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDir sets the storage directory relative to root.
func WithDir(dir string) Option {
	return func(r *Resolver) {
		if dir != "" {
			r.dir = dir
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.l = l
		}
	}
}

// New creates a Resolver writing below root, normally the directory of
// the converted file.
func New(root string, f Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		root:    root,
		dir:     DefaultDir,
		fetcher: f,
		l:       log.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Download fetches a into the storage directory and returns its path
// relative to root, slash-separated. Taken names are probed as
// name(2).ext, name(3).ext, ... Identical content is never deduplicated.
func (r *Resolver) Download(ctx context.Context, a domain.Attachment) (string, error) {
	if !fetcher.IsURL(a.URL) {
		return "", fmt.Errorf("%w: %q", ErrNotURL, a.URL)
	}

	dir := filepath.Join(r.root, r.dir)
	if err := ensureDir(dir); err != nil {
		return "", err
	}

	name := fileName(a)
	f, full, err := createFree(dir, name)
	if err != nil {
		return "", err
	}

	n, err := r.fetcher.Fetch(ctx, a.URL, f)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(full)
		return "", fmt.Errorf("download %s: %w", a.Name, err)
	}

	rel := path.Join(filepath.ToSlash(r.dir), filepath.Base(full))
	r.l.Infof(ctx, "attachment: downloaded %s (%d bytes) to %s", a.Name, n, rel)
	return rel, nil
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return &NotADirectoryError{Path: dir}
		}
		return nil
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create attachments dir: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("stat attachments dir: %w", err)
	}
}

// fileName picks a safe base name: the display name, else the URL's last
// path segment, else "attachment".
func fileName(a domain.Attachment) string {
	if name := safeBase(a.Name); name != "" {
		return name
	}
	if u, err := url.Parse(a.URL); err == nil {
		if name := safeBase(path.Base(u.Path)); name != "" {
			return name
		}
	}
	return "attachment"
}

func safeBase(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

// createFree exclusively creates the first free candidate name in dir.
func createFree(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 2; ; i++ {
		full := filepath.Join(dir, candidate)
		f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, full, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create %s: %w", full, err)
		}
		candidate = fmt.Sprintf("%s(%d)%s", stem, i, ext)
	}
}
