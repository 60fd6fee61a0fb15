// Package policy decides which files participate in a build when a fallback
// docset supplies files the primary docset does not have.
package policy

import "git.home.luguber.info/inful/docsetbuilder/internal/docset"

// TocGraph answers TOC membership and reverse-reference questions.
type TocGraph interface {
	IsInScope(file docset.FileRef) bool
	ReferencingTocs(file docset.FileRef) []docset.FileRef
}

// Fallback is the fallback-aware file policy.
//
// Pages and resources inherited from the fallback docset are already published
// by that docset and are skipped. A fallback table of contents is still built
// when a table of contents outside the fallback references it, so that a
// partially localized TOC tree keeps its inherited branches.
type Fallback struct {
	tocs TocGraph
}

// NewFallback returns a policy backed by tocs.
func NewFallback(tocs TocGraph) *Fallback {
	return &Fallback{tocs: tocs}
}

// Eligible reports whether file should be built in this cycle.
func (p *Fallback) Eligible(file docset.FileRef, isToc bool) bool {
	if !isToc {
		return file.Origin != docset.OriginFallback
	}
	if p.tocs == nil || !p.tocs.IsInScope(file) {
		return false
	}
	if file.Origin != docset.OriginFallback {
		return true
	}
	for _, referrer := range p.tocs.ReferencingTocs(file) {
		if referrer.Origin != docset.OriginFallback {
			return true
		}
	}
	return false
}
