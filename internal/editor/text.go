package editor

import (
	"net/url"
	"path/filepath"
	"unicode/utf16"
	"unicode/utf8"
)

// applyChanges applies content changes in order. A change without a range
// replaces the whole text.
func applyChanges(text string, changes []contentChange) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		start := offsetOf(text, change.Range.Start)
		end := offsetOf(text, change.Range.End)
		if end < start {
			end = start
		}
		text = text[:start] + change.Text + text[end:]
	}
	return text
}

// offsetOf converts a position with UTF-16 character units to a byte
// offset, clamped to the text.
func offsetOf(text string, pos position) int {
	if pos.Line < 0 || pos.Character < 0 {
		return 0
	}
	i := 0
	for line := 0; line < pos.Line; line++ {
		for i < len(text) && text[i] != '\n' {
			i++
		}
		if i == len(text) {
			return i
		}
		i++
	}
	units := 0
	for i < len(text) && text[i] != '\n' && units < pos.Character {
		r, size := utf8.DecodeRuneInString(text[i:])
		n := utf16.RuneLen(r)
		if n < 1 {
			n = 1
		}
		units += n
		i += size
	}
	return i
}

// uriToPath returns the absolute file path of a file URI, or "" for other
// schemes.
func uriToPath(uri string) string {
	parsed, err := url.Parse(uri)
	if err != nil || uri == "" {
		return ""
	}
	p := parsed.Path
	switch parsed.Scheme {
	case "file":
	case "":
		p = uri
	default:
		return ""
	}
	p = filepath.FromSlash(p)
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return p
}

func pathToURI(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
	return u.String()
}
