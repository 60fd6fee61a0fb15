package docset

import (
	"os"
	"path/filepath"
	"strings"
)

// Repository is the version-control metadata of a docset. All fields are
// optional; a docset outside any repository has a nil Repository.
type Repository struct {
	Root   string `json:"root"`
	Remote string `json:"remote,omitempty"`
	Branch string `json:"branch,omitempty"`
	Commit string `json:"commit,omitempty"`
}

// Docset is one documentation source tree plus its repository metadata.
type Docset struct {
	Path       string
	Repository *Repository
}

// New returns a docset rooted at the absolute form of dir.
func New(dir string) (*Docset, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &Docset{Path: abs}, nil
}

// Abs returns the absolute on-disk path of a docset-relative file path.
func (d *Docset) Abs(rel string) string {
	return filepath.Join(d.Path, filepath.FromSlash(rel))
}

// Rel converts an absolute path into a docset-relative path. ok is false when
// abs is not inside the docset.
func (d *Docset) Rel(abs string) (string, bool) {
	rel, err := filepath.Rel(d.Path, abs)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return NormalizePath(rel), true
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}
