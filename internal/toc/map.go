package toc

import (
	"log/slog"
	"path"
	"slices"
	"strings"

	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
	"git.home.luguber.info/inful/docsetbuilder/internal/logfields"
)

// Map is the TOC reference graph of one cycle. It is built before the queue
// drains and is read-only afterwards.
type Map struct {
	tocs     map[string]docset.FileRef
	children map[string][]string
	parents  map[string][]docset.FileRef
	inScope  map[string]bool
	unrooted []string
}

// Reader reads the content of a file.
type Reader func(docset.FileRef) ([]byte, error)

// Lookup resolves a docset-relative path to a file of the cycle.
type Lookup func(string) (docset.FileRef, bool)

// Build parses every TOC in files and computes the in-scope set: tables of
// contents reachable from a root, where a root is a TOC nobody references.
// Unreadable or malformed TOCs are kept as leaves; their own build step
// reports the problem.
func Build(files []docset.FileRef, read Reader, lookup Lookup) *Map {
	m := &Map{
		tocs:     make(map[string]docset.FileRef),
		children: make(map[string][]string),
		parents:  make(map[string][]docset.FileRef),
		inScope:  make(map[string]bool),
	}
	for _, f := range files {
		if f.IsTableOfContents() {
			m.tocs[f.Path] = f
		}
	}

	for p, f := range m.tocs {
		content, err := read(f)
		if err != nil {
			slog.Debug("toc map: unreadable toc", logfields.File(p), logfields.Error(err))
			continue
		}
		items, err := Parse(content)
		if err != nil {
			continue
		}
		seen := make(map[string]bool)
		Walk(items, func(item Item) {
			child := ChildTocPath(p, item.Href, lookup)
			if child == "" || child == p || seen[child] {
				return
			}
			if _, ok := m.tocs[child]; !ok {
				return
			}
			seen[child] = true
			m.children[p] = append(m.children[p], child)
			m.parents[child] = append(m.parents[child], f)
		})
	}

	var queue []string
	for p := range m.tocs {
		if len(m.parents[p]) == 0 {
			queue = append(queue, p)
		}
	}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if m.inScope[p] {
			continue
		}
		m.inScope[p] = true
		queue = append(queue, m.children[p]...)
	}

	// Whatever is left only has parents inside a reference cycle.
	for p := range m.tocs {
		if !m.inScope[p] {
			m.unrooted = append(m.unrooted, p)
		}
	}
	slices.Sort(m.unrooted)
	for _, p := range m.unrooted {
		slog.Debug("toc map: toc only reachable through a reference cycle", logfields.File(p))
	}
	return m
}

// ChildTocPath returns the TOC path an href points at, or "" when the href
// is not a TOC reference. Folder references ("guides/") resolve to the
// folder's toc.yml or toc.yaml.
func ChildTocPath(from, href string, lookup Lookup) string {
	if href == "" || docset.IsExternal(href) {
		return ""
	}
	target, _ := docset.SplitFragment(href)
	if strings.HasSuffix(target, "/") {
		dir := docset.ResolveRelative(from, target)
		for _, name := range []string{"toc.yml", "toc.yaml"} {
			candidate := path.Join(dir, name)
			if f, ok := lookup(candidate); ok && f.IsTableOfContents() {
				return f.Path
			}
		}
		return ""
	}
	resolved := docset.ResolveRelative(from, target)
	if docset.Classify(resolved) != docset.ContentTypeTableOfContents {
		return ""
	}
	return resolved
}

// IsInScope reports whether file is a TOC that belongs to the build.
func (m *Map) IsInScope(file docset.FileRef) bool {
	return m.inScope[file.Path]
}

// Unrooted returns the TOCs that are referenced but cannot be reached from
// any root, sorted by path. They are out of scope.
func (m *Map) Unrooted() []string {
	return slices.Clone(m.unrooted)
}

// ReferencingTocs returns the tables of contents that reference file.
func (m *Map) ReferencingTocs(file docset.FileRef) []docset.FileRef {
	refs := slices.Clone(m.parents[file.Path])
	slices.SortFunc(refs, func(a, b docset.FileRef) int { return strings.Compare(a.Path, b.Path) })
	return refs
}

// Children returns the child TOC paths referenced by the TOC at p.
func (m *Map) Children(p string) []string {
	out := slices.Clone(m.children[p])
	slices.Sort(out)
	return out
}
