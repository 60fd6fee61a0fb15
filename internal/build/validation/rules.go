package validation

import (
	"context"
	"slices"

	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
	"git.home.luguber.info/inful/docsetbuilder/internal/publish"
)

// BookmarkRule checks that links with a fragment into a published page name
// a heading or anchor of that page.
type BookmarkRule struct{}

func (BookmarkRule) Name() string { return "bookmarks" }

func (BookmarkRule) Validate(_ context.Context, vctx Context) []diag.Error {
	published := vctx.State.Published()
	pages := make(map[string]*publish.Record, len(published))
	for _, e := range published {
		if e.File.ContentType == docset.ContentTypePage {
			pages[e.File.Path] = e.Record
		}
	}

	var errs []diag.Error
	for _, e := range published {
		for _, link := range e.Record.Links {
			if link.Fragment == "" || (link.Kind != publish.LinkFile && link.Kind != publish.LinkBookmark) {
				continue
			}
			target, ok := pages[link.Target]
			if !ok {
				continue
			}
			if !slices.Contains(target.Bookmarks, link.Fragment) {
				errs = append(errs, diag.BookmarkNotFound(diag.At(e.File.Path, link.Line, link.Column), link.Fragment, link.Target))
			}
		}
	}
	return errs
}

// DuplicateUIDRule reports every published page that defines a uid already
// defined by a page earlier in path order. The first page keeps the uid.
type DuplicateUIDRule struct{}

func (DuplicateUIDRule) Name() string { return "duplicate-uids" }

func (DuplicateUIDRule) Validate(_ context.Context, vctx Context) []diag.Error {
	owners := make(map[string]string)
	var errs []diag.Error
	for _, e := range vctx.State.Published() {
		uid := e.Record.UID
		if uid == "" {
			continue
		}
		owner, taken := owners[uid]
		if !taken {
			owners[uid] = e.File.Path
			continue
		}
		errs = append(errs, diag.DuplicateUID(diag.At(e.File.Path, 1, 1), uid, owner))
	}
	return errs
}

// XrefRule checks that every xref link resolves to a uid defined by a
// published page or known to a cross-reference service.
type XrefRule struct{}

func (XrefRule) Name() string { return "xrefs" }

func (XrefRule) Validate(ctx context.Context, vctx Context) []diag.Error {
	published := vctx.State.Published()
	local := make(map[string]struct{})
	for _, e := range published {
		if e.Record.UID != "" {
			local[e.Record.UID] = struct{}{}
		}
	}

	resolved := make(map[string]bool)
	var errs []diag.Error
	for _, e := range published {
		for _, link := range e.Record.Links {
			if link.Kind != publish.LinkXref {
				continue
			}
			if _, ok := local[link.Target]; ok {
				continue
			}
			ok, seen := resolved[link.Target]
			if !seen {
				if vctx.Xref != nil {
					_, ok = vctx.Xref.Resolve(ctx, link.Target)
				}
				resolved[link.Target] = ok
			}
			if !ok {
				errs = append(errs, diag.XrefNotFound(diag.At(e.File.Path, link.Line, link.Column), link.Target))
			}
		}
	}
	return errs
}
