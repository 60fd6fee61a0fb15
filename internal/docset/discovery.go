package docset

import (
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// DiscoverOptions controls which files Discover reports.
type DiscoverOptions struct {
	// Exclude holds glob patterns matched against docset-relative paths. A
	// pattern ending in "/**" excludes the whole directory.
	Exclude []string
	// SkipDirs are docset-relative directories never descended into
	// (output and cache directories).
	SkipDirs []string
}

// Discover walks root and returns the sorted docset-relative paths of every
// buildable file. Hidden files and directories are skipped.
func Discover(root string, opts DiscoverOptions) ([]string, error) {
	skip := make(map[string]struct{}, len(opts.SkipDirs))
	for _, d := range opts.SkipDirs {
		if d = NormalizePath(d); d != "" {
			skip[d] = struct{}{}
		}
	}

	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		rel = NormalizePath(rel)
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if _, ok := skip[rel]; ok || excluded(rel+"/", opts.Exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || excluded(rel, opts.Exclude) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

func excluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok {
			if strings.HasPrefix(rel, dir+"/") {
				return true
			}
			continue
		}
		if strings.HasSuffix(rel, "/") {
			continue
		}
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, _ := path.Match(pattern, path.Base(rel)); ok {
				return true
			}
		}
	}
	return false
}
