package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/docsetbuilder/internal/build/queue"
	"git.home.luguber.info/inful/docsetbuilder/internal/config"
	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
	"git.home.luguber.info/inful/docsetbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/docsetbuilder/internal/logfields"
	"git.home.luguber.info/inful/docsetbuilder/internal/markdown"
	"git.home.luguber.info/inful/docsetbuilder/internal/publish"
)

// pageJSON is the output document of a page in json output mode.
type pageJSON struct {
	Title        string   `json:"title,omitempty"`
	UID          string   `json:"uid,omitempty"`
	Content      string   `json:"content"`
	Contributors []string `json:"contributors,omitempty"`
	Hash         string   `json:"hash"`
}

// BuildPage renders a Markdown page.
func (c *Context) BuildPage(ctx context.Context, file docset.FileRef) queue.Outcome {
	content, err := c.Input.Read(file)
	if err != nil {
		return queue.Failed(diag.ReadFailed(file.Path, err))
	}

	page, err := frontmatter.Parse(content)
	if err != nil {
		var syntax *frontmatter.SyntaxError
		switch {
		case errors.Is(err, frontmatter.ErrMissingClosingDelimiter):
			return queue.Failed(diag.YamlHeaderNotClosed(file.Path))
		case errors.As(err, &syntax):
			return queue.Failed(diag.YamlSyntaxError(diag.At(file.Path, syntax.Line, 1), syntax.Message))
		}
		return queue.Fatal(err)
	}

	var errs []diag.Error
	doc := markdown.Parse(page.Body)
	title := page.Title()
	if title == "" {
		title = doc.Title()
	}
	if title == "" {
		errs = append(errs, diag.TitleMissing(file.Path))
	}

	rendered, err := doc.Render()
	if err != nil {
		return queue.Fatal(fmt.Errorf("render %s: %w", file.Path, err))
	}

	rec := publish.Record{
		OutputPath: OutputPath(file, c.OutputType),
		Title:      title,
		UID:        page.UID(),
		Bookmarks:  markdown.Bookmarks(rendered),
	}

	for _, l := range doc.Links() {
		line := l.Line
		if line > 0 {
			line += page.BodyLine - 1
		}
		link, problem := c.resolveLink(file.Path, l.Destination, line, l.Column)
		if problem != nil {
			errs = append(errs, *problem)
		}
		rec.Links = append(rec.Links, link)
		if link.Kind == publish.LinkFile && problem == nil {
			kind := "link"
			if l.Kind == markdown.LinkKindImage {
				kind = "embed"
			}
			rec.Dependencies = append(rec.Dependencies, publish.Dependency{Target: link.Target, Kind: kind})
		}
	}

	if rec.Hash, err = frontmatter.Fingerprint(page); err != nil {
		return queue.Fatal(fmt.Errorf("fingerprint %s: %w", file.Path, err))
	}
	rec.Contributors = c.contributors(ctx, file)

	if err := c.writePage(rec, rendered); err != nil {
		return queue.Failed(append(errs, diag.WriteFailed(rec.OutputPath, err))...)
	}
	c.State.Put(file, rec)
	return queue.Ok(errs...)
}

func (c *Context) writePage(rec publish.Record, rendered []byte) error {
	if c.Sink == nil {
		return nil
	}
	if c.OutputType == config.OutputJSON {
		data, err := json.Marshal(pageJSON{
			Title:        rec.Title,
			UID:          rec.UID,
			Content:      string(rendered),
			Contributors: rec.Contributors,
			Hash:         rec.Hash,
		})
		if err != nil {
			return err
		}
		return c.Sink.WriteFile(rec.OutputPath, data)
	}
	return c.Sink.WriteFile(rec.OutputPath, rendered)
}

// contributors resolves display names of the authors of file. Failures only
// cost the contributor list.
func (c *Context) contributors(ctx context.Context, file docset.FileRef) []string {
	if c.Git == nil || file.Origin != docset.OriginDefault {
		return nil
	}
	authors, err := c.Git.Contributors(ctx, file.Path)
	if err != nil {
		slog.Debug("Contributor lookup failed", logfields.File(file.Path), logfields.Error(err))
		return nil
	}
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		name := a.Name
		// The users cache pins one display name per email across cycles and
		// builders sharing a mirror. The first commit name seen for an email
		// seeds it; later commits under another spelling resolve to that name.
		if c.Users != nil && a.Email != "" {
			if pinned, _, _ := c.Users.GetOrFetch(ctx, a.Email, func(context.Context) (string, bool, error) {
				return a.Name, a.Name != "", nil
			}); pinned != "" {
				name = pinned
			}
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
