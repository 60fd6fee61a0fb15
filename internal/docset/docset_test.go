package docset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ContentTypePage, Classify("docs/a.md"))
	assert.Equal(t, ContentTypeTableOfContents, Classify("docs/TOC.yml"))
	assert.Equal(t, ContentTypeTableOfContents, Classify("toc.yaml"))
	assert.Equal(t, ContentTypeResource, Classify("images/logo.png"))
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "a/b.md", NormalizePath("./a//b.md"))
	assert.Equal(t, "a/b.md", NormalizePath("/a/c/../b.md"))
	assert.Equal(t, "", NormalizePath(""))
	// Decomposed "é" (e + combining acute) is composed to NFC.
	assert.Equal(t, "caf\u00e9.md", NormalizePath("cafe\u0301.md"))
}

func TestResolveRelative(t *testing.T) {
	assert.Equal(t, "docs/b.md", ResolveRelative("docs/a.md", "b.md"))
	assert.Equal(t, "b.md", ResolveRelative("docs/a.md", "../b.md"))
	assert.Equal(t, "x/y.md", ResolveRelative("docs/a.md", "/x/y.md"))
	assert.Equal(t, "", ResolveRelative("a.md", "../../outside.md"))
}

func TestSplitFragmentAndExternal(t *testing.T) {
	target, fragment := SplitFragment("a.md?view=1#intro")
	assert.Equal(t, "a.md", target)
	assert.Equal(t, "intro", fragment)
	assert.True(t, IsExternal("https://example.com"))
	assert.True(t, IsExternal("xref:System.String"))
	assert.False(t, IsExternal("a.md"))
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.md", "# Home")
	writeFile(t, root, "toc.yml", "- name: Home")
	writeFile(t, root, "drafts/wip.md", "x")
	writeFile(t, root, "_site/index.html", "x")
	writeFile(t, root, ".git/HEAD", "ref")
	writeFile(t, root, "images/logo.png", "png")
	writeFile(t, root, "notes.tmp", "tmp")

	files, err := Discover(root, DiscoverOptions{
		Exclude:  []string{"drafts/**", "*.tmp"},
		SkipDirs: []string{"_site"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"images/logo.png", "index.md", "toc.yml"}, files)
}

func TestNewFileSet(t *testing.T) {
	set := NewFileSet(
		[]string{"a.md", "old.md", "toc.yml"},
		[]string{"a.md", "b.md"},
		[]string{"old.md"},
	)

	scope := set.Scope()
	require.Len(t, scope, 3)
	assert.Equal(t, FileRef{Path: "a.md", Origin: OriginDefault, ContentType: ContentTypePage}, scope[0])
	assert.Equal(t, FileRef{Path: "b.md", Origin: OriginFallback, ContentType: ContentTypePage}, scope[1])
	assert.Equal(t, "toc.yml", scope[2].Path)

	redirect, ok := set.Lookup("old.md")
	require.True(t, ok)
	assert.Equal(t, ContentTypeRedirection, redirect.ContentType)
	assert.Equal(t, 4, set.Len())
	assert.Len(t, set.All(), 4)
}

func TestInputPrefersOverlayForPrimaryFiles(t *testing.T) {
	primary, fallback := t.TempDir(), t.TempDir()
	writeFile(t, primary, "a.md", "disk")
	writeFile(t, fallback, "b.md", "fallback")

	overlay := NewOverlay()
	overlay.Set("a.md", []byte("buffer"))
	in := &Input{Docset: &Docset{Path: primary}, Fallback: &Docset{Path: fallback}, Overlay: overlay}

	got, err := in.Read(NewFileRef("a.md", OriginDefault))
	require.NoError(t, err)
	assert.Equal(t, "buffer", string(got))

	got, err = in.Read(NewFileRef("b.md", OriginFallback))
	require.NoError(t, err)
	assert.Equal(t, "fallback", string(got))

	assert.True(t, in.ExistsOnDisk("a.md"))
	assert.False(t, in.ExistsOnDisk("b.md"))
}

func TestDocsetRel(t *testing.T) {
	d := &Docset{Path: filepath.FromSlash("/work/docs")}
	rel, ok := d.Rel(filepath.FromSlash("/work/docs/a/b.md"))
	require.True(t, ok)
	assert.Equal(t, "a/b.md", rel)

	_, ok = d.Rel(filepath.FromSlash("/work/other.md"))
	assert.False(t, ok)
}
