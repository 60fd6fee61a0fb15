package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
	"git.home.luguber.info/inful/docsetbuilder/internal/output"
	"git.home.luguber.info/inful/docsetbuilder/internal/publish"
)

func ref(p string, origin docset.Origin) docset.FileRef { return docset.NewFileRef(p, origin) }

func fixtureState() *publish.State {
	st := publish.NewState()
	st.Put(ref("b.md", docset.OriginDefault), publish.Record{
		OutputPath: "b.html",
		Hash:       "hb",
		Title:      "B",
		UID:        "b.uid",
		Links: []publish.Link{
			{Kind: publish.LinkFile, Target: "a.md", Fragment: "x", Line: 2, Column: 3},
			{Kind: publish.LinkExternal, Target: "https://example.com", Line: 4, Column: 1},
		},
		Dependencies: []publish.Dependency{{Target: "img.png", Kind: "embed"}, {Target: "a.md", Kind: "link"}},
	})
	st.Put(ref("a.md", docset.OriginDefault), publish.Record{OutputPath: "a.html", Hash: "ha", Title: "A", UID: "a.uid"})
	st.Put(ref("img.png", docset.OriginDefault), publish.Record{OutputPath: "img.png", Hash: "hi"})
	st.Put(ref("broken.md", docset.OriginDefault), publish.Record{OutputPath: "broken.html", UID: "broken"})
	st.Exclude(ref("broken.md", docset.OriginDefault))
	st.Exclude(ref("base.md", docset.OriginFallback))
	st.Put(docset.FileRef{Path: "old.md", Origin: docset.OriginRedirection, ContentType: docset.ContentTypeRedirection},
		publish.Record{RedirectURL: "a.html"})
	return st
}

func TestBuildPublish(t *testing.T) {
	id := uuid.New()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	m := BuildPublish(id, now, DocsetInfo{Name: "docs", Commit: "abc"}, fixtureState())

	assert.Equal(t, id.String(), m.BuildID)
	assert.Equal(t, time.UTC, m.Timestamp.Location())
	require.Len(t, m.Files, 6)

	byPath := map[string]PublishItem{}
	for _, f := range m.Files {
		byPath[f.SourcePath] = f
	}
	assert.Equal(t, PublishItem{SourcePath: "a.md", OutputPath: "a.html", ContentType: "page", Origin: "default", Hash: "ha", Title: "A", UID: "a.uid"}, byPath["a.md"])
	assert.True(t, byPath["broken.md"].Excluded)
	assert.Empty(t, byPath["broken.md"].OutputPath)
	assert.True(t, byPath["base.md"].Excluded)
	assert.Equal(t, "fallback", byPath["base.md"].Origin)
	assert.Equal(t, "a.html", byPath["old.md"].RedirectURL)
	assert.Equal(t, "redirection", byPath["old.md"].ContentType)
}

func TestPublishManifest_JSONAndHash(t *testing.T) {
	st := fixtureState()
	a := BuildPublish(uuid.New(), time.Now(), DocsetInfo{Name: "docs"}, st)
	b := BuildPublish(uuid.New(), time.Now().Add(time.Hour), DocsetInfo{Name: "docs"}, st)

	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	data, err := a.ToJSON()
	require.NoError(t, err)
	restored, err := FromJSON(data)
	require.NoError(t, err)
	hr, err := restored.Hash()
	require.NoError(t, err)
	assert.Equal(t, ha, hr)

	_, err = FromJSON([]byte("{"))
	assert.Error(t, err)
}

func TestBuildXrefMap(t *testing.T) {
	m := BuildXrefMap(fixtureState())
	assert.Equal(t, []XrefSpec{
		{UID: "a.uid", Href: "a.html", Name: "A"},
		{UID: "b.uid", Href: "b.html", Name: "B"},
	}, m.References)

	empty := BuildXrefMap(publish.NewState())
	data, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.JSONEq(t, `{"references":[]}`, string(data))
}

func TestBuildDependencyMap(t *testing.T) {
	m := BuildDependencyMap(fixtureState())
	require.Len(t, m.Dependencies, 1)
	assert.Equal(t, []publish.Dependency{{Target: "a.md", Kind: "link"}, {Target: "img.png", Kind: "embed"}}, m.Dependencies["b.md"])
}

func TestBuildLinkMap(t *testing.T) {
	m := BuildLinkMap(fixtureState())
	require.Len(t, m.Links, 2)
	assert.Equal(t, LinkItem{SourcePath: "b.md", SourceLine: 2, SourceColumn: 3, Kind: publish.LinkFile, Target: "a.md", Fragment: "x"}, m.Links[0])
}

func TestArtifactsWrite(t *testing.T) {
	dir := t.TempDir()
	sink, err := output.NewDir(dir)
	require.NoError(t, err)

	arts := Build(uuid.New(), time.Now(), DocsetInfo{}, fixtureState())
	require.NoError(t, arts.Write(sink))
	for _, name := range []string{PublishFile, XrefMapFile, DependencyMapFile, LinksFile} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	data, err := os.ReadFile(filepath.Join(dir, PublishFile))
	require.NoError(t, err)
	m, err := FromJSON(data)
	require.NoError(t, err)
	assert.Len(t, m.Files, 6)
}

func TestToLegacy(t *testing.T) {
	legacy := ToLegacy(BuildPublish(uuid.New(), time.Now(), DocsetInfo{}, fixtureState()))

	require.Len(t, legacy.Files, 4)
	byPath := map[string]LegacyFile{}
	for _, f := range legacy.Files {
		byPath[f.SourceRelativePath] = f
	}
	assert.Equal(t, "Conceptual", byPath["a.md"].Type)
	assert.Equal(t, LegacyOutput{RelativePath: "a.html", Hash: "ha"}, byPath["a.md"].Output[".html"])
	assert.Equal(t, "Resource", byPath["img.png"].Type)
	assert.Equal(t, "Redirection", byPath["old.md"].Type)
	assert.Equal(t, "a.html", byPath["old.md"].Output[".redirect"].RelativePath)
	assert.NotContains(t, byPath, "broken.md")
	assert.Equal(t, XrefMapFile, legacy.XrefMap)
}

func TestInfo(t *testing.T) {
	ds := &docset.Docset{Path: "/x", Repository: &docset.Repository{Remote: "r", Branch: "main", Commit: "c"}}
	assert.Equal(t, DocsetInfo{Name: "n", Remote: "r", Branch: "main", Commit: "c"}, Info("n", ds))
	assert.Equal(t, DocsetInfo{Name: "n"}, Info("n", nil))
}
