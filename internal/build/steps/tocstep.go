package steps

import (
	"context"
	"encoding/json"
	"strings"

	"git.home.luguber.info/inful/docsetbuilder/internal/build/queue"
	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
	"git.home.luguber.info/inful/docsetbuilder/internal/publish"
	"git.home.luguber.info/inful/docsetbuilder/internal/toc"
)

// tocNode is the output shape of a table of contents entry.
type tocNode struct {
	Name  string    `json:"name"`
	Href  string    `json:"href,omitempty"`
	Items []tocNode `json:"items,omitempty"`
}

// BuildToc validates a table of contents and writes it as JSON with hrefs
// pointing at outputs.
func (c *Context) BuildToc(_ context.Context, file docset.FileRef) queue.Outcome {
	content, err := c.Input.Read(file)
	if err != nil {
		return queue.Failed(diag.ReadFailed(file.Path, err))
	}
	items, err := toc.Parse(content)
	if err != nil {
		return queue.Failed(diag.TocInvalid(diag.InFile(file.Path), err.Error()))
	}

	var errs []diag.Error
	if len(items) == 0 {
		errs = append(errs, diag.TocEmpty(file.Path))
	}

	rec := publish.Record{OutputPath: OutputPath(file, c.OutputType)}
	nodes := c.tocNodes(file.Path, items, &rec, &errs)

	if c.Sink != nil {
		data, err := json.Marshal(struct {
			Items []tocNode `json:"items"`
		}{Items: nodes})
		if err != nil {
			return queue.Fatal(err)
		}
		if err := c.Sink.WriteFile(rec.OutputPath, data); err != nil {
			return queue.Failed(append(errs, diag.WriteFailed(rec.OutputPath, err))...)
		}
	}
	c.State.Put(file, rec)
	return queue.Ok(errs...)
}

func (c *Context) tocNodes(from string, items []toc.Item, rec *publish.Record, errs *[]diag.Error) []tocNode {
	nodes := make([]tocNode, 0, len(items))
	for _, item := range items {
		node := tocNode{Name: item.Name}
		if item.Name == "" {
			*errs = append(*errs, diag.TocInvalid(diag.At(from, item.Line, item.Column), "Missing required property 'name'."))
		}
		if item.Href != "" {
			node.Href = c.tocHref(from, item, rec, errs)
		}
		if len(item.Items) > 0 {
			node.Items = c.tocNodes(from, item.Items, rec, errs)
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func (c *Context) tocHref(from string, item toc.Item, rec *publish.Record, errs *[]diag.Error) string {
	lookup := c.Files.Lookup
	if child := toc.ChildTocPath(from, item.Href, lookup); child != "" {
		if _, ok := lookup(child); !ok {
			*errs = append(*errs, diag.FileNotFound(diag.At(from, item.Line, item.Column), item.Href))
			return item.Href
		}
		rec.Dependencies = append(rec.Dependencies, publish.Dependency{Target: child, Kind: "toc"})
		rec.Links = append(rec.Links, publish.Link{Kind: publish.LinkFile, Target: child, Line: item.Line, Column: item.Column})
		return relativeHref(rec.OutputPath, c.hrefFor(child))
	}

	link, problem := c.resolveLink(from, item.Href, item.Line, item.Column)
	if problem != nil {
		*errs = append(*errs, *problem)
		return item.Href
	}
	rec.Links = append(rec.Links, link)
	if link.Kind != publish.LinkFile {
		return item.Href
	}
	target := link.Target
	if f, ok := c.lookupFolder(target); ok && strings.HasSuffix(item.Href, "/") {
		target = f.Path
	}
	rec.Dependencies = append(rec.Dependencies, publish.Dependency{Target: target, Kind: "link"})
	href := relativeHref(rec.OutputPath, c.hrefFor(target))
	if link.Fragment != "" {
		href += "#" + link.Fragment
	}
	return href
}
