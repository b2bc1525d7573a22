package watcher

import (
	"cmp"
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"quill/internal/contentid"
)

// partialSuffixes mark files that a sync client or browser is still writing.
var partialSuffixes = []string{".tmp", ".part", ".partial", ".crdownload", ".download"}

// IsCandidate reports whether a file name looks like a finished recording
// with one of the allowed extensions. Extensions are compared lower-cased.
func IsCandidate(name string, allowed []string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	lower := strings.ToLower(name)
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}
	return slices.Contains(allowed, strings.ToLower(filepath.Ext(name)))
}

// ListCandidates walks root recursively and returns candidate recordings with
// the fingerprint seen while listing. Hidden directories are not entered. A
// missing root yields no candidates.
func ListCandidates(root string, allowed []string) ([]string, map[string]contentid.Fingerprint, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, err
	}
	exts := make([]string, 0, len(allowed))
	for _, ext := range allowed {
		exts = append(exts, strings.ToLower(ext))
	}

	var paths []string
	fingerprints := make(map[string]contentid.Fingerprint)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Entries can disappear mid-walk; skip what we cannot read.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !IsCandidate(d.Name(), exts) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		paths = append(paths, path)
		fingerprints[path] = contentid.FromInfo(info)
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return paths, fingerprints, nil
}

// sortByMtime orders paths oldest first, breaking ties by path.
func sortByMtime(paths []string, fingerprints map[string]contentid.Fingerprint) {
	slices.SortStableFunc(paths, func(a, b string) int {
		if c := cmp.Compare(fingerprints[a].MtimeNS, fingerprints[b].MtimeNS); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
}
