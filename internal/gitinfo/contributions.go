package gitinfo

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"

	"git.home.luguber.info/inful/docsetbuilder/internal/output"
)

// Contributor is an aggregated commit author of a file.
type Contributor struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Commits int    `json:"commits"`
}

// ContributionStore keeps the contributors of every file as JSON.
type ContributionStore struct {
	path  string
	mu    sync.RWMutex
	files map[string][]Contributor
	dirty bool
}

// OpenContributionStore loads the store at path. A missing or unreadable
// file starts an empty store.
func OpenContributionStore(path string) *ContributionStore {
	s := &ContributionStore{path: path, files: make(map[string][]Contributor)}
	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var files map[string][]Contributor
	if json.Unmarshal(data, &files) == nil && files != nil {
		s.files = files
	}
	return s
}

// Record stores the contributors of file.
func (s *ContributionStore) Record(file string, contributors []Contributor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Equal(s.files[file], contributors) {
		return
	}
	s.files[file] = slices.Clone(contributors)
	s.dirty = true
}

// Get returns the recorded contributors of file.
func (s *ContributionStore) Get(file string) ([]Contributor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.files[file]
	return slices.Clone(c), ok
}

// Save writes the store when it changed.
func (s *ContributionStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty || s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.files, "", "  ")
	if err != nil {
		return fmt.Errorf("encode contributions: %w", err)
	}
	if err := output.WriteFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("write contributions: %w", err)
	}
	s.dirty = false
	return nil
}

// Aggregate folds commits into contributors ordered by commit count, then name.
func Aggregate(commits []Commit) []Contributor {
	byEmail := make(map[string]*Contributor)
	order := make([]string, 0)
	for _, c := range commits {
		key := c.AuthorEmail
		if key == "" {
			key = c.AuthorName
		}
		if existing, ok := byEmail[key]; ok {
			existing.Commits++
			continue
		}
		byEmail[key] = &Contributor{Name: c.AuthorName, Email: c.AuthorEmail, Commits: 1}
		order = append(order, key)
	}
	out := make([]Contributor, 0, len(order))
	for _, key := range order {
		out = append(out, *byEmail[key])
	}
	slices.SortStableFunc(out, func(a, b Contributor) int {
		if a.Commits != b.Commits {
			return b.Commits - a.Commits
		}
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out
}
