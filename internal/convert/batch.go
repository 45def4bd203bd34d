package convert

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// batchMember is one source document. path is set for files on disk and
// empty for archive members.
type batchMember struct {
	name string
	path string
	open func() (io.ReadCloser, error)
}

// convertDir converts the directory's top-level files that carry the
// format's source extension, in name order.
func (e *Engine) convertDir(ctx context.Context, req Request, target Target) (*Report, error) {
	entries, err := os.ReadDir(req.Source)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}

	var members []batchMember
	for _, entry := range entries {
		if entry.IsDir() || !hasExt(entry.Name(), req.Format.SourceExt()) {
			continue
		}
		p := filepath.Join(req.Source, entry.Name())
		members = append(members, batchMember{
			name: p,
			path: p,
			open: func() (io.ReadCloser, error) { return os.Open(p) },
		})
	}
	return e.runBatch(ctx, req, target, members)
}

// convertArchive streams matching zip members one by one; nothing is
// extracted to disk.
func (e *Engine) convertArchive(ctx context.Context, req Request, target Target) (*Report, error) {
	zr, err := zip.OpenReader(req.Source)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	var files []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !hasExt(f.Name, req.Format.SourceExt()) {
			continue
		}
		files = append(files, f)
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	members := make([]batchMember, 0, len(files))
	for _, f := range files {
		f := f
		members = append(members, batchMember{
			name: f.Name,
			open: func() (io.ReadCloser, error) { return f.Open() },
		})
	}
	return e.runBatch(ctx, req, target, members)
}

func (e *Engine) runBatch(ctx context.Context, req Request, target Target, members []batchMember) (*Report, error) {
	report := &Report{Target: target}
	if len(members) == 0 {
		e.l.Warnf(ctx, "convert: no .%s files in %s", req.Format.SourceExt(), req.Source)
		return report, nil
	}

	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.name
	}
	targets := memberTargets(target.Path, names, req.Format.TargetExt())

	var errs []error
	for i, m := range members {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if want := memberTarget(target.Path, m.name, req.Format.TargetExt()); targets[i] != want {
			e.l.Warnf(ctx, "convert: %s collides with another member, writing %s", m.name, targets[i])
		}
		res := e.convertFile(ctx, req, m, targets[i])
		report.Members = append(report.Members, res)
		if res.Err == nil {
			continue
		}
		if req.Policy != PolicyContinue {
			return report, res.Err
		}
		e.l.Warnf(ctx, "convert: skipping %s", m.name)
		errs = append(errs, res.Err)
	}

	if len(errs) > 0 {
		return report, fmt.Errorf("%w: %d of %d files failed: %w",
			ErrBatchIncomplete, len(errs), len(members), errors.Join(errs...))
	}
	return report, nil
}
