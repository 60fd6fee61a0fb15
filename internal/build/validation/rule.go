// Package validation runs checks that need the publish state of the whole
// cycle. Rules report diagnostics and never change what gets published.
package validation

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
	"git.home.luguber.info/inful/docsetbuilder/internal/logfields"
	"git.home.luguber.info/inful/docsetbuilder/internal/publish"
)

// XrefResolver resolves uids that are not defined in the docset.
type XrefResolver interface {
	Resolve(ctx context.Context, uid string) (href string, ok bool)
}

// Context contains all the data needed by validation rules.
type Context struct {
	State  *publish.State
	Xref   XrefResolver
	Logger *slog.Logger
}

// Rule is a single whole-build validation.
type Rule interface {
	// Name returns a short identifier for this rule (for logging/debugging).
	Name() string

	// Validate returns the problems found in the published entries.
	Validate(ctx context.Context, vctx Context) []diag.Error
}

// RuleChain executes validation rules in sequence and collects every
// problem they report.
type RuleChain struct {
	rules []Rule
}

// NewRuleChain creates a new rule chain with the given rules.
func NewRuleChain(rules ...Rule) *RuleChain {
	return &RuleChain{rules: rules}
}

// Default returns the chain run after every build.
func Default() *RuleChain {
	return NewRuleChain(BookmarkRule{}, DuplicateUIDRule{}, XrefRule{})
}

// Validate executes all rules in order.
func (rc *RuleChain) Validate(ctx context.Context, vctx Context) []diag.Error {
	logger := vctx.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var errs []diag.Error
	for _, rule := range rc.rules {
		if ctx.Err() != nil {
			break
		}
		found := rule.Validate(ctx, vctx)
		if len(found) > 0 {
			logger.Debug("Validation reported problems", slog.String("rule", rule.Name()), logfields.Count(len(found)))
		}
		errs = append(errs, found...)
	}
	return errs
}
