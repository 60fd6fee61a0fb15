package docset

import (
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizePath converts p to the canonical docset-relative form: forward
// slashes, cleaned, no leading "./" or "/", Unicode NFC. Editors and file
// systems disagree on composed vs decomposed names; NFC keeps lookups stable.
func NormalizePath(p string) string {
	p = filepath.ToSlash(p)
	p = norm.NFC.String(p)
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// ResolveRelative resolves a link target found in file against file's directory.
// It returns "" for targets that leave the docset.
func ResolveRelative(file, target string) string {
	if target == "" {
		return ""
	}
	var joined string
	if strings.HasPrefix(target, "/") {
		joined = target
	} else {
		joined = path.Join(path.Dir(file), target)
	}
	cleaned := path.Clean(joined)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return ""
	}
	return NormalizePath(cleaned)
}

// IsExternal reports whether a link target points outside the docset.
func IsExternal(target string) bool {
	lower := strings.ToLower(target)
	for _, prefix := range []string{"http://", "https://", "mailto:", "ftp://", "//", "xref:"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// SplitFragment splits "a.md#b" into ("a.md", "b"), dropping any query string.
func SplitFragment(target string) (string, string) {
	fragment := ""
	if i := strings.IndexByte(target, '#'); i >= 0 {
		fragment = target[i+1:]
		target = target[:i]
	}
	if i := strings.IndexByte(target, '?'); i >= 0 {
		target = target[:i]
	}
	return target, fragment
}
