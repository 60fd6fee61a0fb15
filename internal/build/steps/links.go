package steps

import (
	"strings"

	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
	"git.home.luguber.info/inful/docsetbuilder/internal/publish"
)

const xrefPrefix = "xref:"

// resolveLink classifies a link written in file. It reports a diagnostic
// when a docset-relative target does not exist in the cycle.
func (c *Context) resolveLink(file, raw string, line, column int) (publish.Link, *diag.Error) {
	link := publish.Link{Line: line, Column: column}
	switch {
	case strings.HasPrefix(strings.ToLower(raw), xrefPrefix):
		uid, fragment := docset.SplitFragment(raw[len(xrefPrefix):])
		link.Kind, link.Target, link.Fragment = publish.LinkXref, uid, fragment
		return link, nil
	case docset.IsExternal(raw):
		link.Kind, link.Target = publish.LinkExternal, raw
		return link, nil
	case strings.HasPrefix(raw, "#"):
		link.Kind, link.Target, link.Fragment = publish.LinkBookmark, file, raw[1:]
		return link, nil
	}

	target, fragment := docset.SplitFragment(raw)
	resolved := docset.ResolveRelative(file, target)
	link.Kind, link.Target, link.Fragment = publish.LinkFile, resolved, fragment
	if resolved == "" {
		e := diag.FileNotFound(diag.At(file, line, column), raw)
		return link, &e
	}
	if _, ok := c.Files.Lookup(resolved); !ok {
		if _, onDisk := c.lookupFolder(resolved); !onDisk {
			e := diag.FileNotFound(diag.At(file, line, column), raw)
			return link, &e
		}
	}
	if link.Fragment != "" && link.Target == file {
		link.Kind = publish.LinkBookmark
	}
	return link, nil
}

// lookupFolder resolves a folder link to its table of contents.
func (c *Context) lookupFolder(dir string) (docset.FileRef, bool) {
	for _, name := range []string{"toc.yml", "toc.yaml", "index.md"} {
		if f, ok := c.Files.Lookup(strings.TrimSuffix(dir, "/") + "/" + name); ok {
			return f, true
		}
	}
	return docset.FileRef{}, false
}
