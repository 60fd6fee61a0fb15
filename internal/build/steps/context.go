// Package steps holds the per-content-type build steps dispatched by the
// build queue. Each step reads one file, validates it, writes its output and
// records what it produced in the cycle's publish state.
package steps

import (
	"context"
	"path"
	"strings"

	"git.home.luguber.info/inful/docsetbuilder/internal/build/queue"
	"git.home.luguber.info/inful/docsetbuilder/internal/config"
	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
	"git.home.luguber.info/inful/docsetbuilder/internal/gitinfo"
	"git.home.luguber.info/inful/docsetbuilder/internal/output"
	"git.home.luguber.info/inful/docsetbuilder/internal/publish"
	"git.home.luguber.info/inful/docsetbuilder/internal/remotecache"
	"git.home.luguber.info/inful/docsetbuilder/internal/toc"
)

// Contributors returns the authors of a docset file.
type Contributors interface {
	Contributors(ctx context.Context, rel string) ([]gitinfo.Contributor, error)
}

// Context is the per-cycle state shared by all steps. It is read-only while
// the queue drains; steps only write to State and Sink.
type Context struct {
	Input        *docset.Input
	Files        *docset.FileSet
	Tocs         *toc.Map
	State        *publish.State
	Sink         output.Sink
	OutputType   string
	Redirections map[string]string

	// Git and Users are optional.
	Git   Contributors
	Users *remotecache.Cache[string]
}

// Steps returns the dispatch table for the cycle.
func (c *Context) Steps() queue.Steps {
	return queue.Steps{
		docset.ContentTypeResource:        c.BuildResource,
		docset.ContentTypePage:            c.BuildPage,
		docset.ContentTypeTableOfContents: c.BuildToc,
		docset.ContentTypeRedirection:     c.BuildRedirection,
	}
}

// OutputPath returns the output name of file for outputType.
func OutputPath(file docset.FileRef, outputType string) string {
	switch file.ContentType {
	case docset.ContentTypePage, docset.ContentTypeRedirection:
		return replaceExt(file.Path, outputExt(outputType))
	case docset.ContentTypeTableOfContents:
		return path.Join(path.Dir(file.Path), "toc.json")
	}
	return file.Path
}

func outputExt(outputType string) string {
	if outputType == config.OutputJSON {
		return ".json"
	}
	return ".html"
}

func replaceExt(p, ext string) string {
	return strings.TrimSuffix(p, path.Ext(p)) + ext
}

// hrefFor maps a docset path to the href of its output.
func (c *Context) hrefFor(target string) string {
	if f, ok := c.Files.Lookup(target); ok {
		return OutputPath(f, c.OutputType)
	}
	return target
}
