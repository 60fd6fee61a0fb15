package steps

import (
	"context"
	"fmt"
	"html"

	"git.home.luguber.info/inful/docsetbuilder/internal/build/queue"
	"git.home.luguber.info/inful/docsetbuilder/internal/config"
	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
	"git.home.luguber.info/inful/docsetbuilder/internal/publish"
)

const redirectPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><meta http-equiv="refresh" content="0; url=%[1]s"><link rel="canonical" href="%[1]s"></head>
<body><a href="%[1]s">%[1]s</a></body></html>
`

// BuildRedirection validates a redirection rule and emits its redirect page.
func (c *Context) BuildRedirection(_ context.Context, file docset.FileRef) queue.Outcome {
	target := c.Redirections[file.Path]
	if target == "" {
		return queue.Failed(diag.RedirectionInvalid(file.Path, target))
	}

	var errs []diag.Error
	if c.Input != nil && c.Input.ExistsOnDisk(file.Path) {
		errs = append(errs, diag.RedirectionConflict(file.Path))
	}

	url := target
	if !docset.IsExternal(target) {
		resolved, fragment := docset.SplitFragment(target)
		resolved = docset.ResolveRelative(file.Path, resolved)
		if _, ok := c.Files.Lookup(resolved); !ok || resolved == file.Path {
			return queue.Failed(append(errs, diag.RedirectionInvalid(file.Path, target))...)
		}
		url = relativeHref(OutputPath(file, c.OutputType), c.hrefFor(resolved))
		if fragment != "" {
			url += "#" + fragment
		}
	}

	rec := publish.Record{RedirectURL: url}
	if c.OutputType != config.OutputJSON {
		rec.OutputPath = OutputPath(file, c.OutputType)
		if c.Sink != nil {
			page := fmt.Sprintf(redirectPage, html.EscapeString(url))
			if err := c.Sink.WriteFile(rec.OutputPath, []byte(page)); err != nil {
				return queue.Failed(append(errs, diag.WriteFailed(rec.OutputPath, err))...)
			}
		}
	}
	c.State.Put(file, rec)
	return queue.Ok(errs...)
}
