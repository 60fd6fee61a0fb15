// Package markdown parses and renders page bodies and extracts the links,
// headings and bookmarks the build needs.
package markdown

import (
	"bytes"
	"sort"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Document is a parsed Markdown body.
type Document struct {
	Root   gmast.Node
	Source []byte
	refs   []parser.Reference
	md     goldmark.Markdown
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
}

// Parse parses a Markdown body (frontmatter already removed).
func Parse(body []byte) *Document {
	md := newMarkdown()
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))
	return &Document{Root: root, Source: body, refs: ctx.References(), md: md}
}

// Render renders the document to HTML.
func (d *Document) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.md.Renderer().Render(&buf, d.Source, d.Root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Title returns the text of the first level-one heading.
func (d *Document) Title() string {
	var title string
	_ = gmast.Walk(d.Root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if h, ok := n.(*gmast.Heading); ok && h.Level == 1 {
			title = plainText(h, d.Source)
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return title
}

// Links extracts link-like constructs in document order, followed by
// reference definitions sorted by label.
func (d *Document) Links() []Link {
	links := make([]Link, 0)
	_ = gmast.Walk(d.Root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		var link Link
		switch node := n.(type) {
		case *gmast.AutoLink:
			link = Link{Kind: LinkKindAuto, Destination: string(node.URL(d.Source))}
		case *gmast.Image:
			link = Link{Kind: LinkKindImage, Destination: string(node.Destination)}
		case *gmast.Link:
			link = Link{Kind: LinkKindInline, Destination: string(node.Destination)}
		default:
			return gmast.WalkContinue, nil
		}
		if off := d.offsetOf(n); off >= 0 {
			link.Line, link.Column = position(d.Source, off)
		}
		links = append(links, link)
		return gmast.WalkContinue, nil
	})

	// Reference definitions live in the parse context, not in the AST.
	refs := append([]parser.Reference(nil), d.refs...)
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	for _, ref := range refs {
		link := Link{Kind: LinkKindReferenceDefinition, Destination: string(ref.Destination())}
		if off := bytes.Index(d.Source, ref.Destination()); off >= 0 {
			link.Line, link.Column = position(d.Source, off)
		}
		links = append(links, link)
	}
	return links
}

// offsetOf returns the byte offset where an inline node starts, or -1.
func (d *Document) offsetOf(n gmast.Node) int {
	for c := n.FirstChild(); c != nil; c = c.FirstChild() {
		if t, ok := c.(*gmast.Text); ok {
			off := t.Segment.Start
			switch n.(type) {
			case *gmast.Link:
				off--
			case *gmast.Image:
				off -= 2
			}
			if off < 0 {
				off = 0
			}
			return off
		}
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == gmast.TypeBlock && p.Lines().Len() > 0 {
			return p.Lines().At(0).Start
		}
	}
	return -1
}

// position converts a byte offset to a 1-based line and column.
func position(source []byte, offset int) (line, column int) {
	if offset > len(source) {
		offset = len(source)
	}
	head := source[:offset]
	line = bytes.Count(head, []byte{'\n'}) + 1
	column = offset - bytes.LastIndexByte(head, '\n')
	return line, column
}

func plainText(n gmast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *gmast.String:
			buf.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return buf.String()
}
