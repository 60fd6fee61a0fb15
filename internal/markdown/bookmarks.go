package markdown

import (
	"bytes"
	"sort"

	"golang.org/x/net/html"
)

// Bookmarks returns the sorted set of fragment targets defined by rendered
// HTML: every id attribute plus the name attribute of anchors.
func Bookmarks(rendered []byte) []string {
	seen := map[string]struct{}{}
	z := html.NewTokenizer(bytes.NewReader(rendered))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := z.Token()
		for _, attr := range tok.Attr {
			switch {
			case attr.Key == "id":
			case attr.Key == "name" && tok.Data == "a":
			default:
				continue
			}
			if attr.Val != "" {
				seen[attr.Val] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
