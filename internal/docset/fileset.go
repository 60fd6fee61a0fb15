package docset

import (
	"os"
	"slices"
	"strings"
)

// FileSet is the resolved set of files a cycle operates on: primary docset
// files, fallback-only files, and redirections.
type FileSet struct {
	byPath       map[string]FileRef
	scope        []FileRef
	redirections []FileRef
}

// NewFileSet merges the primary and fallback listings. Fallback paths already
// present in primary are shadowed. Redirection sources replace any physical
// file with the same path.
func NewFileSet(primary, fallback, redirections []string) *FileSet {
	s := &FileSet{byPath: make(map[string]FileRef)}
	redirected := make(map[string]struct{}, len(redirections))
	for _, p := range redirections {
		p = NormalizePath(p)
		if _, dup := redirected[p]; dup || p == "" {
			continue
		}
		redirected[p] = struct{}{}
		ref := FileRef{Path: p, Origin: OriginRedirection, ContentType: ContentTypeRedirection}
		s.byPath[p] = ref
		s.redirections = append(s.redirections, ref)
	}
	add := func(p string, origin Origin) {
		ref := NewFileRef(p, origin)
		if _, taken := s.byPath[ref.Path]; taken || ref.Path == "" {
			return
		}
		s.byPath[ref.Path] = ref
		s.scope = append(s.scope, ref)
	}
	for _, p := range primary {
		add(p, OriginDefault)
	}
	for _, p := range fallback {
		add(p, OriginFallback)
	}
	sortRefs(s.scope)
	sortRefs(s.redirections)
	return s
}

func sortRefs(refs []FileRef) {
	slices.SortFunc(refs, func(a, b FileRef) int { return strings.Compare(a.Path, b.Path) })
}

// Scope returns the build-scope files (everything except redirections).
func (s *FileSet) Scope() []FileRef { return slices.Clone(s.scope) }

// Redirections returns the redirection files.
func (s *FileSet) Redirections() []FileRef { return slices.Clone(s.redirections) }

// All returns build-scope files followed by redirections.
func (s *FileSet) All() []FileRef {
	return append(s.Scope(), s.redirections...)
}

// Lookup finds the file with path p.
func (s *FileSet) Lookup(p string) (FileRef, bool) {
	ref, ok := s.byPath[NormalizePath(p)]
	return ref, ok
}

// Len returns the number of files including redirections.
func (s *FileSet) Len() int { return len(s.byPath) }

// Input reads file contents for a cycle, preferring overlay content for
// files of the primary docset.
type Input struct {
	Docset   *Docset
	Fallback *Docset
	Overlay  *Overlay
}

// Read returns the content of file.
func (in *Input) Read(file FileRef) ([]byte, error) {
	if file.Origin == OriginFallback && in.Fallback != nil {
		return os.ReadFile(in.Fallback.Abs(file.Path))
	}
	if content, ok := in.Overlay.Get(file.Path); ok {
		return content, nil
	}
	return os.ReadFile(in.Docset.Abs(file.Path))
}

// ExistsOnDisk reports whether the primary docset has a physical file at p.
func (in *Input) ExistsOnDisk(p string) bool {
	st, err := os.Stat(in.Docset.Abs(p))
	return err == nil && st.Mode().IsRegular()
}
