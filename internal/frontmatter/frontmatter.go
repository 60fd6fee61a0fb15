// Package frontmatter splits and parses the YAML header of a page.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// SyntaxError is a YAML error positioned in the page (1-based line).
type SyntaxError struct {
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Page is a page split into header fields and body.
type Page struct {
	Fields map[string]any
	Body   []byte
	// BodyLine is the 1-based line of the page at which Body starts.
	BodyLine int
	Had      bool
}

// Title returns the title field.
func (p *Page) Title() string { return p.stringField("title") }

// UID returns the uid field.
func (p *Page) UID() string { return p.stringField("uid") }

func (p *Page) stringField(key string) string {
	v, ok := p.Fields[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a YAML frontmatter delimiter, had is false
// and body is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := "\n"
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		nl = "\r\n"
	}
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the last line without a trailing newline.
		if bytes.HasSuffix(content, []byte(nl+"---")) {
			return content[start : len(content)-3], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return content[start : start+idx+len(nl)], content[start+idx+len(closeSeq):], true, nil
}

// Parse splits content and decodes its header.
func Parse(content []byte) (*Page, error) {
	fm, body, had, err := Split(content)
	if err != nil {
		return nil, err
	}
	page := &Page{Body: body, BodyLine: 1, Had: had, Fields: map[string]any{}}
	if !had {
		return page, nil
	}
	page.BodyLine = bytes.Count(fm, []byte{'\n'}) + 3
	fields, err := ParseYAML(fm)
	if err != nil {
		return nil, positioned(err)
	}
	page.Fields = fields
	return page, nil
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

var yamlLine = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

// positioned shifts a yaml.v3 error by the opening delimiter line.
func positioned(err error) error {
	msg := err.Error()
	if m := yamlLine.FindStringSubmatch(msg); m != nil {
		n, _ := strconv.Atoi(m[1])
		return &SyntaxError{Line: n + 1, Message: m[2]}
	}
	return &SyntaxError{Line: 1, Message: strings.TrimPrefix(msg, "yaml: ")}
}

// excludedFromFingerprint are fields that change without the content changing.
var excludedFromFingerprint = map[string]struct{}{
	mdfp.FingerprintField: {},
	"lastmod":             {},
	"uid":                 {},
	"aliases":             {},
}

// Fingerprint computes the content hash of a page. Volatile header fields
// are ignored so that the hash only changes with the content.
func Fingerprint(page *Page) (string, error) {
	fields := make(map[string]any, len(page.Fields))
	for k, v := range page.Fields {
		if _, skip := excludedFromFingerprint[k]; skip {
			continue
		}
		fields[k] = v
	}
	header := ""
	if len(fields) > 0 {
		// yaml.v3 emits map keys in sorted order.
		out, err := yaml.Marshal(fields)
		if err != nil {
			return "", err
		}
		header = strings.TrimSuffix(string(out), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(header, string(page.Body)), nil
}
