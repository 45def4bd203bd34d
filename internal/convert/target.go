package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Target is where converted output goes. For directory and archive
// sources Path is an existing directory.
type Target struct {
	Path  string
	IsDir bool
}

// ResolveTarget computes the output location for source. ext is the
// target format's extension ("todoist" is accepted for csv).
//
// Directory sources, and archives (resolved against their containing
// directory), map to a directory: output empty keeps the base, a leading
// separator makes output absolute, anything else is a subdirectory of the
// base. That directory must exist.
//
// File sources map to a file next to the source: output with a leading
// separator is used verbatim, other output replaces the file name root
// (and may contain subdirectories), empty output keeps the source's root.
func ResolveTarget(source, output, ext string) (Target, error) {
	ext = NormalizeExt(ext)

	if isDir(source) {
		return resolveDir(source, output)
	}
	if isArchive(source) {
		return resolveDir(filepath.Dir(source), output)
	}

	if hasLeadingSeparator(output) {
		return Target{Path: output}, nil
	}
	root := output
	if root == "" {
		base := filepath.Base(source)
		root = strings.TrimSuffix(base, filepath.Ext(base))
	} else if suffix := "." + ext; len(root) > len(suffix) && strings.EqualFold(root[len(root)-len(suffix):], suffix) {
		root = root[:len(root)-len(suffix)]
	}
	return Target{Path: filepath.Join(filepath.Dir(source), root+"."+ext)}, nil
}

func resolveDir(base, output string) (Target, error) {
	var dir string
	switch {
	case output == "":
		dir = base
	case hasLeadingSeparator(output):
		dir = output
	default:
		dir = filepath.Join(base, output)
	}
	if !isDir(dir) {
		return Target{}, &TargetDirectoryDoesNotExistError{Path: dir}
	}
	return Target{Path: dir, IsDir: true}, nil
}

// memberTarget names the output of one batch member inside dir.
func memberTarget(dir, member, ext string) string {
	base := filepath.Base(filepath.FromSlash(member))
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+"."+NormalizeExt(ext))
}

// memberTargets names the outputs of a batch in member order. Members
// whose base names collide get name(2).ext, name(3).ext, ... so that no
// member overwrites another's output.
func memberTargets(dir string, members []string, ext string) []string {
	used := make(map[string]bool, len(members))
	targets := make([]string, len(members))
	for i, m := range members {
		p := memberTarget(dir, m, ext)
		e := filepath.Ext(p)
		stem := strings.TrimSuffix(p, e)
		for n := 2; used[strings.ToLower(p)]; n++ {
			p = fmt.Sprintf("%s(%d)%s", stem, n, e)
		}
		used[strings.ToLower(p)] = true
		targets[i] = p
	}
	return targets
}

func hasLeadingSeparator(p string) bool {
	return strings.HasPrefix(p, string(filepath.Separator))
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

func isArchive(p string) bool {
	return hasExt(p, ArchiveExt)
}

func hasExt(p, ext string) bool {
	return strings.EqualFold(strings.TrimPrefix(filepath.Ext(p), "."), ext)
}
