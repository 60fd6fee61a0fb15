// Package output writes build artifacts below an output directory.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Sink receives everything a cycle publishes. Names are slash-separated and
// relative to the sink root.
type Sink interface {
	WriteArtifact(v any, name string) error
	WriteFile(name string, data []byte) error
	CopyFile(src, name string) error
}

// Dir is a Sink writing into a directory. Files are replaced atomically.
type Dir struct {
	root string
}

// NewDir returns a sink rooted at root, creating it if needed.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Dir{root: root}, nil
}

// Root returns the output directory.
func (d *Dir) Root() string { return d.root }

func (d *Dir) path(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("output name %q escapes the output directory", name)
	}
	return filepath.Join(d.root, clean), nil
}

// WriteArtifact writes v as indented JSON.
func (d *Dir) WriteArtifact(v any, name string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return d.WriteFile(name, append(data, '\n'))
}

// WriteFile writes data to name.
func (d *Dir) WriteFile(name string, data []byte) error {
	p, err := d.path(name)
	if err != nil {
		return err
	}
	return WriteFileAtomic(p, data)
}

// CopyFile copies the file at src to name.
func (d *Dir) CopyFile(src, name string) error {
	p, err := d.path(name)
	if err != nil {
		return err
	}
	return copyFile(src, p)
}

// CopyDir copies the tree at src below name. An empty name copies into the root.
func (d *Dir) CopyDir(src, name string) error {
	dst := d.root
	if name != "" {
		p, err := d.path(name)
		if err != nil {
			return err
		}
		dst = p
	}
	return CopyDir(src, dst)
}

// Discard is a Sink that drops everything; used by dry runs.
type Discard struct{}

func (Discard) WriteArtifact(any, string) error { return nil }
func (Discard) WriteFile(string, []byte) error  { return nil }
func (Discard) CopyFile(string, string) error   { return nil }

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place.
func WriteFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// CopyDir recursively copies a directory tree.
func CopyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !srcInfo.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}
	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()|0o700); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := CopyDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
