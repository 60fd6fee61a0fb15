// Package localization resolves a docset and the fallback docset it inherits
// untranslated files from.
package localization

import (
	"log/slog"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docsetbuilder/internal/config"
	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
	foundationerrors "git.home.luguber.info/inful/docsetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/docsetbuilder/internal/logfields"
)

// Resolver finds the primary and fallback docsets. Fallbacks are one level
// deep: the fallback's own localization settings are ignored.
type Resolver struct {
	settings config.LocalizationConfig
}

// NewResolver returns a resolver for the given settings.
func NewResolver(settings config.LocalizationConfig) *Resolver {
	return &Resolver{settings: settings}
}

// ResolvePrimaryAndFallback resolves the docset at path. The fallback is nil
// when the docset is not localized.
func (r *Resolver) ResolvePrimaryAndFallback(path string) (*docset.Docset, *docset.Docset, error) {
	primary, err := docset.New(path)
	if err != nil || !docset.IsDir(primary.Path) {
		return nil, nil, foundationerrors.DocsetError("docset not found").
			WithCode(diag.CodeDocsetNotFound).
			WithContext("path", path).
			Build()
	}

	fallbackPath, ok := r.fallbackPath(primary.Path)
	if !ok {
		return primary, nil, nil
	}
	fallback, err := docset.New(fallbackPath)
	if err != nil || !docset.IsDir(fallback.Path) || fallback.Path == primary.Path {
		return nil, nil, foundationerrors.DocsetError("fallback docset not found").
			WithCode(diag.CodeFallbackNotFound).
			WithContext("path", fallbackPath).
			Build()
	}
	slog.Debug("Resolved fallback docset", logfields.Docset(primary.Path), logfields.Fallback(fallback.Path))
	return primary, fallback, nil
}

func (r *Resolver) fallbackPath(primary string) (string, bool) {
	if fb := r.settings.Fallback; fb != "" {
		if filepath.IsAbs(fb) {
			return fb, true
		}
		return filepath.Join(primary, filepath.FromSlash(fb)), true
	}
	locale := strings.TrimSpace(r.settings.Locale)
	if locale == "" {
		return "", false
	}
	base := filepath.Base(primary)
	suffix := "." + locale
	if !strings.HasSuffix(strings.ToLower(base), strings.ToLower(suffix)) || len(base) == len(suffix) {
		slog.Debug("Docset name carries no locale suffix; building without fallback",
			logfields.Docset(primary), slog.String("locale", locale))
		return "", false
	}
	return filepath.Join(filepath.Dir(primary), base[:len(base)-len(suffix)]), true
}
