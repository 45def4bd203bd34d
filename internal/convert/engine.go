// Package convert turns Todoist CSV exports into OPML, TaskPaper and
// Markdown, and OPML back into Todoist CSV.
package convert

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pbaille/tdconv/internal/attachment"
	"github.com/pbaille/tdconv/internal/domain"
	"github.com/pbaille/tdconv/internal/fetcher"
	"github.com/pbaille/tdconv/pkg/log"
)

// RunRecorder journals finished conversions.
type RunRecorder interface {
	RecordRun(ctx context.Context, run domain.Run) (domain.Run, error)
}

// Request describes one conversion: a file, a directory or a zip archive.
type Request struct {
	Source   string
	Format   Format
	Output   string
	Download bool
	Policy   BatchPolicy
}

// MemberResult is the outcome for one converted file.
type MemberResult struct {
	RunID   string
	Source  string
	Target  string
	Records int
	Err     error
}

// Report summarizes a conversion request.
type Report struct {
	Target  Target
	Members []MemberResult
}

// Failed returns the members that did not convert.
func (r *Report) Failed() []MemberResult {
	var failed []MemberResult
	for _, m := range r.Members {
		if m.Err != nil {
			failed = append(failed, m)
		}
	}
	return failed
}

// Engine runs conversions against the filesystem.
type Engine struct {
	l              log.Logger
	fetcher        attachment.Fetcher
	attachmentsDir string
	recorder       RunRecorder
	now            func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithFetcher sets the client used for attachment downloads.
func WithFetcher(f attachment.Fetcher) Option {
	return func(e *Engine) {
		if f != nil {
			e.fetcher = f
		}
	}
}

// WithAttachmentsDir sets the download directory relative to each target.
func WithAttachmentsDir(dir string) Option {
	return func(e *Engine) {
		if dir != "" {
			e.attachmentsDir = dir
		}
	}
}

// WithRecorder journals every converted file.
func WithRecorder(r RunRecorder) Option {
	return func(e *Engine) { e.recorder = r }
}

func New(l log.Logger, opts ...Option) *Engine {
	if l == nil {
		l = log.NewNop()
	}
	e := &Engine{
		l:              l,
		fetcher:        fetcher.New(),
		attachmentsDir: attachment.DefaultDir,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Convert resolves the target for req and converts the source file, or
// every matching member of a source directory or zip archive.
func (e *Engine) Convert(ctx context.Context, req Request) (*Report, error) {
	info, err := os.Stat(req.Source)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}

	target, err := ResolveTarget(req.Source, req.Output, req.Format.TargetExt())
	if err != nil {
		return nil, err
	}

	e.l.Infof(ctx, "convert: source=%s target=%s format=%s download=%t", req.Source, target.Path, req.Format, req.Download)

	switch {
	case info.IsDir():
		return e.convertDir(ctx, req, target)
	case isArchive(req.Source):
		return e.convertArchive(ctx, req, target)
	}

	res := e.convertFile(ctx, req, batchMember{
		name: req.Source,
		path: req.Source,
		open: func() (io.ReadCloser, error) { return os.Open(req.Source) },
	}, target.Path)
	report := &Report{Target: target, Members: []MemberResult{res}}
	return report, res.Err
}

// convertFile converts one document. Output is written to a temporary
// file next to targetPath and renamed into place, so a failed conversion
// leaves no partial output and keeps any previous target intact.
func (e *Engine) convertFile(ctx context.Context, req Request, m batchMember, targetPath string) MemberResult {
	res := MemberResult{RunID: uuid.NewString(), Source: m.name, Target: targetPath}
	ctx = log.WithRunID(ctx, res.RunID)

	res.Records, res.Err = e.writeTarget(ctx, req, m, targetPath)
	if res.Err != nil {
		res.Err = fmt.Errorf("convert %s: %w", m.name, res.Err)
		e.l.Errorf(ctx, "convert: %v", res.Err)
	} else {
		e.l.Infof(ctx, "convert: wrote %s (%d records)", targetPath, res.Records)
	}

	e.record(ctx, req, res)
	return res
}

func (e *Engine) writeTarget(ctx context.Context, req Request, m batchMember, targetPath string) (int, error) {
	if m.path != "" && sameFile(m.path, targetPath) {
		return 0, &TargetIsSourceError{Path: targetPath}
	}

	src, err := m.open()
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	dir, base := filepath.Split(targetPath)
	if dir == "" {
		dir = "."
	}
	out, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create target: %w", err)
	}
	tmp := out.Name()

	bw := bufio.NewWriter(out)
	n, err := Stream(ctx, req.Format, Title(m.name), src, bw, e.downloader(req, targetPath))
	if err == nil {
		err = bw.Flush()
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmp, 0o644)
	}
	if err == nil {
		err = os.Rename(tmp, targetPath)
	}
	if err != nil {
		os.Remove(tmp)
		return n, err
	}
	return n, nil
}

// sameFile reports whether a and b name the same file, either by absolute
// path or, when both exist, by identity.
func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}

func (e *Engine) downloader(req Request, targetPath string) Downloader {
	// OPML keeps attachments as text references.
	if !req.Download || req.Format == FormatTodoist || req.Format == FormatOPML {
		return nil
	}
	return attachment.New(filepath.Dir(targetPath), e.fetcher,
		attachment.WithDir(e.attachmentsDir),
		attachment.WithLogger(e.l),
	)
}

func (e *Engine) record(ctx context.Context, req Request, res MemberResult) {
	if e.recorder == nil {
		return
	}
	run := domain.Run{
		ID:        res.RunID,
		Source:    res.Source,
		Target:    res.Target,
		Format:    string(req.Format),
		Status:    domain.RunStatusOK,
		Records:   res.Records,
		CreatedAt: e.now(),
	}
	if res.Err != nil {
		run.Status = domain.RunStatusFailed
		run.Error = res.Err.Error()
	}
	if _, err := e.recorder.RecordRun(ctx, run); err != nil {
		e.l.Warnf(ctx, "convert: could not record run: %v", err)
	}
}
