// Package toc parses tables of contents and maintains the TOC reference graph
// used to decide which tables of contents belong to a build.
package toc

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Item is one entry of a table of contents.
type Item struct {
	Name   string
	Href   string
	Line   int
	Column int
	Items  []Item
}

// Parse reads a toc.yml document. The root may be a sequence of items or a
// mapping with an "items" key.
func Parse(content []byte) ([]Item, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		return parseItems(root)
	case yaml.MappingNode:
		if items := mappingValue(root, "items"); items != nil {
			return parseItems(items)
		}
		return nil, nil
	case yaml.ScalarNode:
		if root.Tag == "!!null" {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("line %d: expected a list of items", root.Line)
}

func parseItems(seq *yaml.Node) ([]Item, error) {
	if seq.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: 'items' must be a list", seq.Line)
	}
	items := make([]Item, 0, len(seq.Content))
	for _, node := range seq.Content {
		if node.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: each item must be a mapping", node.Line)
		}
		item := Item{Line: node.Line, Column: node.Column}
		if v := mappingValue(node, "name"); v != nil {
			item.Name = v.Value
		}
		if v := mappingValue(node, "href"); v != nil {
			item.Href = v.Value
			item.Line, item.Column = v.Line, v.Column
		}
		if v := mappingValue(node, "items"); v != nil {
			children, err := parseItems(v)
			if err != nil {
				return nil, err
			}
			item.Items = children
		}
		items = append(items, item)
	}
	return items, nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// Walk calls fn for every item depth-first.
func Walk(items []Item, fn func(Item)) {
	for _, item := range items {
		fn(item)
		Walk(item.Items, fn)
	}
}
