package docset

import (
	"path"
	"strings"
)

// Origin records where a file reference came from. It never changes once assigned.
type Origin uint8

const (
	// OriginDefault marks a file authored in the current docset.
	OriginDefault Origin = iota
	// OriginFallback marks a file inherited unchanged from the fallback docset.
	OriginFallback
	// OriginRedirection marks a file synthesized from a redirection rule.
	OriginRedirection
	// OriginDependency marks a file pulled in from a dependency docset.
	OriginDependency
)

func (o Origin) String() string {
	switch o {
	case OriginDefault:
		return "default"
	case OriginFallback:
		return "fallback"
	case OriginRedirection:
		return "redirection"
	case OriginDependency:
		return "dependency"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (o Origin) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// ContentType is fixed when a file is discovered and drives dispatch.
type ContentType uint8

const (
	ContentTypeUnknown ContentType = iota
	ContentTypeResource
	ContentTypePage
	ContentTypeTableOfContents
	ContentTypeRedirection
)

func (c ContentType) String() string {
	switch c {
	case ContentTypeResource:
		return "resource"
	case ContentTypePage:
		return "page"
	case ContentTypeTableOfContents:
		return "toc"
	case ContentTypeRedirection:
		return "redirection"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (c ContentType) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// FileRef identifies a document by its docset-relative path and origin.
// Paths always use forward slashes.
type FileRef struct {
	Path        string
	Origin      Origin
	ContentType ContentType
}

// NewFileRef builds a reference, normalizing path and classifying its content type.
func NewFileRef(p string, origin Origin) FileRef {
	p = NormalizePath(p)
	return FileRef{Path: p, Origin: origin, ContentType: Classify(p)}
}

// IsTableOfContents reports whether the file is a table of contents.
func (f FileRef) IsTableOfContents() bool {
	return f.ContentType == ContentTypeTableOfContents
}

func (f FileRef) String() string {
	if f.Origin == OriginDefault {
		return f.Path
	}
	return f.Path + " (" + f.Origin.String() + ")"
}

// tocNames are the file names recognized as tables of contents.
var tocNames = map[string]struct{}{
	"toc.yml":  {},
	"toc.yaml": {},
}

// Classify returns the content type of a discovered file from its path.
func Classify(p string) ContentType {
	base := strings.ToLower(path.Base(p))
	if _, ok := tocNames[base]; ok {
		return ContentTypeTableOfContents
	}
	switch strings.ToLower(path.Ext(base)) {
	case ".md", ".markdown":
		return ContentTypePage
	}
	return ContentTypeResource
}
