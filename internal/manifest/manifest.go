// Package manifest builds the artifacts written next to the output: the
// publish manifest and the cross-reference, dependency and link maps.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
	"git.home.luguber.info/inful/docsetbuilder/internal/output"
	"git.home.luguber.info/inful/docsetbuilder/internal/publish"
)

// Artifact file names, relative to the output root.
const (
	PublishFile        = ".publish.json"
	XrefMapFile        = ".xrefmap.json"
	DependencyMapFile  = ".dependencymap.json"
	LinksFile          = ".links.json"
	LegacyManifestFile = ".manifest.json"
)

// PublishManifest records every file of a cycle and whether it was published.
type PublishManifest struct {
	BuildID   string        `json:"build_id"`
	Timestamp time.Time     `json:"timestamp"`
	Docset    DocsetInfo    `json:"docset"`
	Files     []PublishItem `json:"files"`
}

// DocsetInfo identifies the built docset.
type DocsetInfo struct {
	Name   string `json:"name,omitempty"`
	Remote string `json:"remote,omitempty"`
	Branch string `json:"branch,omitempty"`
	Commit string `json:"commit,omitempty"`
}

// PublishItem is one file of the manifest.
type PublishItem struct {
	SourcePath   string   `json:"source_path"`
	OutputPath   string   `json:"output_path,omitempty"`
	ContentType  string   `json:"content_type"`
	Origin       string   `json:"origin"`
	Hash         string   `json:"hash,omitempty"`
	Title        string   `json:"title,omitempty"`
	UID          string   `json:"uid,omitempty"`
	RedirectURL  string   `json:"redirect_url,omitempty"`
	Contributors []string `json:"contributors,omitempty"`
	Excluded     bool     `json:"excluded,omitempty"`
}

// BuildPublish creates the publish manifest from the final publish state.
func BuildPublish(id uuid.UUID, now time.Time, info DocsetInfo, st *publish.State) *PublishManifest {
	entries := st.Entries()
	m := &PublishManifest{
		BuildID:   id.String(),
		Timestamp: now.UTC(),
		Docset:    info,
		Files:     make([]PublishItem, 0, len(entries)),
	}
	for _, e := range entries {
		item := PublishItem{
			SourcePath:  e.File.Path,
			ContentType: e.File.ContentType.String(),
			Origin:      e.File.Origin.String(),
			Excluded:    !e.Published(),
		}
		if e.Published() {
			item.OutputPath = e.Record.OutputPath
			item.Hash = e.Record.Hash
			item.Title = e.Record.Title
			item.UID = e.Record.UID
			item.RedirectURL = e.Record.RedirectURL
			item.Contributors = e.Record.Contributors
		}
		m.Files = append(m.Files, item)
	}
	return m
}

// ToJSON serializes the manifest to JSON.
func (m *PublishManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*PublishManifest, error) {
	var m PublishManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Hash computes a deterministic hash of the manifest's files. Two cycles
// that published the same content share a hash.
func (m *PublishManifest) Hash() (string, error) {
	hashInput := struct {
		Docset DocsetInfo    `json:"docset"`
		Files  []PublishItem `json:"files"`
	}{Docset: m.Docset, Files: m.Files}

	data, err := json.Marshal(hashInput)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}

// XrefSpec maps a uid to the output that defines it.
type XrefSpec struct {
	UID  string `json:"uid"`
	Href string `json:"href"`
	Name string `json:"name,omitempty"`
}

// XrefMap lists the uids defined by published pages.
type XrefMap struct {
	References []XrefSpec `json:"references"`
}

// BuildXrefMap creates the cross-reference map.
func BuildXrefMap(st *publish.State) *XrefMap {
	m := &XrefMap{References: []XrefSpec{}}
	for _, e := range st.Published() {
		if e.Record.UID == "" {
			continue
		}
		m.References = append(m.References, XrefSpec{UID: e.Record.UID, Href: e.Record.OutputPath, Name: e.Record.Title})
	}
	sort.Slice(m.References, func(i, j int) bool { return m.References[i].UID < m.References[j].UID })
	return m
}

// DependencyMap lists the files each published file depends on.
type DependencyMap struct {
	Dependencies map[string][]publish.Dependency `json:"dependencies"`
}

// BuildDependencyMap creates the dependency map.
func BuildDependencyMap(st *publish.State) *DependencyMap {
	m := &DependencyMap{Dependencies: map[string][]publish.Dependency{}}
	for _, e := range st.Published() {
		if len(e.Record.Dependencies) == 0 {
			continue
		}
		deps := append([]publish.Dependency(nil), e.Record.Dependencies...)
		sort.Slice(deps, func(i, j int) bool {
			if deps[i].Target != deps[j].Target {
				return deps[i].Target < deps[j].Target
			}
			return deps[i].Kind < deps[j].Kind
		})
		m.Dependencies[e.File.Path] = deps
	}
	return m
}

// LinkItem is one outgoing link of a published file.
type LinkItem struct {
	SourcePath   string `json:"source_path"`
	SourceLine   int    `json:"source_line,omitempty"`
	SourceColumn int    `json:"source_column,omitempty"`
	Kind         string `json:"kind"`
	Target       string `json:"target"`
	Fragment     string `json:"fragment,omitempty"`
}

// LinkMap lists every outgoing link of the published files.
type LinkMap struct {
	Links []LinkItem `json:"links"`
}

// BuildLinkMap creates the link map.
func BuildLinkMap(st *publish.State) *LinkMap {
	m := &LinkMap{Links: []LinkItem{}}
	for _, e := range st.Published() {
		for _, l := range e.Record.Links {
			m.Links = append(m.Links, LinkItem{
				SourcePath:   e.File.Path,
				SourceLine:   l.Line,
				SourceColumn: l.Column,
				Kind:         l.Kind,
				Target:       l.Target,
				Fragment:     l.Fragment,
			})
		}
	}
	return m
}

// Artifacts are the auxiliary outputs of one cycle.
type Artifacts struct {
	Publish      *PublishManifest
	Xref         *XrefMap
	Dependencies *DependencyMap
	Links        *LinkMap
}

// Build creates all artifacts from the final publish state.
func Build(id uuid.UUID, now time.Time, info DocsetInfo, st *publish.State) Artifacts {
	return Artifacts{
		Publish:      BuildPublish(id, now, info, st),
		Xref:         BuildXrefMap(st),
		Dependencies: BuildDependencyMap(st),
		Links:        BuildLinkMap(st),
	}
}

// Write writes the artifacts to sink.
func (a Artifacts) Write(sink output.Sink) error {
	for _, art := range []struct {
		name string
		v    any
	}{
		{PublishFile, a.Publish},
		{XrefMapFile, a.Xref},
		{DependencyMapFile, a.Dependencies},
		{LinksFile, a.Links},
	} {
		if err := sink.WriteArtifact(art.v, art.name); err != nil {
			return fmt.Errorf("write %s: %w", art.name, err)
		}
	}
	return nil
}

// Info returns the docset identity recorded in the manifest.
func Info(name string, ds *docset.Docset) DocsetInfo {
	info := DocsetInfo{Name: name}
	if ds != nil && ds.Repository != nil {
		info.Remote = ds.Repository.Remote
		info.Branch = ds.Repository.Branch
		info.Commit = ds.Repository.Commit
	}
	return info
}
