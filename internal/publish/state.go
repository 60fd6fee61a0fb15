// Package publish tracks which files of a cycle end up in the published output
// and what each built file contributed.
package publish

import (
	"slices"
	"strings"
	"sync"

	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
)

// Link is an outgoing link found while building a file.
type Link struct {
	// Target is the docset-relative path, the xref uid, or the external URL.
	Target   string `json:"target"`
	Fragment string `json:"fragment,omitempty"`
	Kind     string `json:"kind"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
}

// Link kinds.
const (
	LinkFile     = "file"
	LinkXref     = "xref"
	LinkExternal = "external"
	LinkBookmark = "bookmark"
)

// Dependency is a build-time relationship between two files.
type Dependency struct {
	Target string `json:"target"`
	Kind   string `json:"kind"`
}

// Record is what a build step produced for one file.
type Record struct {
	OutputPath   string       `json:"output_path,omitempty"`
	Hash         string       `json:"hash,omitempty"`
	Title        string       `json:"title,omitempty"`
	UID          string       `json:"uid,omitempty"`
	RedirectURL  string       `json:"redirect_url,omitempty"`
	Bookmarks    []string     `json:"bookmarks,omitempty"`
	Links        []Link       `json:"links,omitempty"`
	Dependencies []Dependency `json:"dependencies,omitempty"`
	Contributors []string     `json:"contributors,omitempty"`
}

// Entry is the final state of one file.
type Entry struct {
	File     docset.FileRef
	Excluded bool
	Record   *Record
}

// Published reports whether the entry is part of the output.
func (e Entry) Published() bool { return !e.Excluded && e.Record != nil }

// State is the per-cycle publish state. Exclusion is monotonic: once a file is
// excluded it stays excluded for the rest of the cycle. State is safe for
// concurrent use.
type State struct {
	mu      sync.RWMutex
	entries map[docset.FileRef]*Entry
}

// NewState returns an empty state.
func NewState() *State {
	return &State{entries: make(map[docset.FileRef]*Entry)}
}

func (s *State) entryLocked(file docset.FileRef) *Entry {
	e, ok := s.entries[file]
	if !ok {
		e = &Entry{File: file}
		s.entries[file] = e
	}
	return e
}

// Exclude marks file as not published.
func (s *State) Exclude(file docset.FileRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entryLocked(file).Excluded = true
}

// Put stores the record produced for file. It does not re-include an
// excluded file.
func (s *State) Put(file docset.FileRef, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := rec
	s.entryLocked(file).Record = &r
}

// IsExcluded reports whether file was excluded.
func (s *State) IsExcluded(file docset.FileRef) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[file]
	return ok && e.Excluded
}

// IsPublished reports whether file was built and not excluded.
func (s *State) IsPublished(file docset.FileRef) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[file]
	return ok && e.Published()
}

// Entries returns a snapshot of every entry sorted by path.
func (s *State) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		cp := *e
		if e.Record != nil {
			rec := *e.Record
			cp.Record = &rec
		}
		out = append(out, cp)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		if c := strings.Compare(a.File.Path, b.File.Path); c != 0 {
			return c
		}
		return int(a.File.Origin) - int(b.File.Origin)
	})
	return out
}

// Published returns the published entries sorted by path.
func (s *State) Published() []Entry {
	all := s.Entries()
	out := all[:0]
	for _, e := range all {
		if e.Published() {
			out = append(out, e)
		}
	}
	return out
}
