package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
)

type fakeGraph struct {
	inScope map[string]bool
	parents map[string][]docset.FileRef
}

func (g fakeGraph) IsInScope(f docset.FileRef) bool { return g.inScope[f.Path] }
func (g fakeGraph) ReferencingTocs(f docset.FileRef) []docset.FileRef {
	return g.parents[f.Path]
}

func TestEligible_NonToc(t *testing.T) {
	p := NewFallback(fakeGraph{})

	assert.True(t, p.Eligible(docset.NewFileRef("a.md", docset.OriginDefault), false))
	assert.False(t, p.Eligible(docset.NewFileRef("b.md", docset.OriginFallback), false))
	assert.False(t, p.Eligible(docset.NewFileRef("logo.png", docset.OriginFallback), false))
	assert.True(t, p.Eligible(docset.FileRef{Path: "old.md", Origin: docset.OriginRedirection, ContentType: docset.ContentTypeRedirection}, false))
}

func TestEligible_Toc(t *testing.T) {
	local := docset.NewFileRef("toc.yml", docset.OriginDefault)
	fallbackParent := docset.NewFileRef("api/toc.yml", docset.OriginFallback)
	inherited := docset.NewFileRef("guides/toc.yml", docset.OriginFallback)
	unreferenced := docset.NewFileRef("ref/toc.yml", docset.OriginFallback)
	outOfScope := docset.NewFileRef("loop/toc.yml", docset.OriginDefault)

	graph := fakeGraph{
		inScope: map[string]bool{
			"toc.yml": true, "api/toc.yml": true, "guides/toc.yml": true, "ref/toc.yml": true,
		},
		parents: map[string][]docset.FileRef{
			"guides/toc.yml": {fallbackParent, local},
			"ref/toc.yml":    {fallbackParent},
		},
	}
	p := NewFallback(graph)

	assert.True(t, p.Eligible(local, true))
	assert.True(t, p.Eligible(inherited, true), "referenced by a non-fallback toc")
	assert.False(t, p.Eligible(unreferenced, true), "only fallback referrers")
	assert.False(t, p.Eligible(fallbackParent, true), "fallback toc without referrers")
	assert.False(t, p.Eligible(outOfScope, true), "must be in the toc map first")
}

func TestEligible_NilGraphRejectsTocs(t *testing.T) {
	p := NewFallback(nil)
	assert.False(t, p.Eligible(docset.NewFileRef("toc.yml", docset.OriginDefault), true))
}
