package diag

import (
	"fmt"
	"strings"
)

// Source is a 1-based source range. Zero values mean "unknown".
type Source struct {
	File      string `json:"file"`
	Line      int    `json:"line,omitempty"`
	Column    int    `json:"column,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
	EndColumn int    `json:"end_column,omitempty"`
}

// At returns a single-point source in file.
func At(file string, line, column int) *Source {
	return &Source{File: file, Line: line, Column: column, EndLine: line, EndColumn: column}
}

// InFile returns a source that points at file without a position, or nil
// when file is empty.
func InFile(file string) *Source {
	if file == "" {
		return nil
	}
	return &Source{File: file}
}

func (s *Source) String() string {
	if s == nil {
		return ""
	}
	if s.Line <= 0 {
		return s.File
	}
	return fmt.Sprintf("%s(%d,%d)", s.File, s.Line, s.Column)
}

// Error is a single build finding.
type Error struct {
	Level   Level   `json:"level"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Source  *Source `json:"source,omitempty"`
}

// File returns the source file of the error or "".
func (e Error) File() string {
	if e.Source == nil {
		return ""
	}
	return e.Source.File
}

// WithLevel returns a copy of e with a different level.
func (e Error) WithLevel(level Level) Error {
	e.Level = level
	return e
}

func (e Error) String() string {
	var b strings.Builder
	if e.Source != nil {
		b.WriteString(e.Source.String())
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s %s: %s", e.Level, e.Code, e.Message)
	return b.String()
}
