package steps

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"git.home.luguber.info/inful/docsetbuilder/internal/build/queue"
	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
	"git.home.luguber.info/inful/docsetbuilder/internal/publish"
)

// BuildResource copies a resource to the output unchanged.
func (c *Context) BuildResource(_ context.Context, file docset.FileRef) queue.Outcome {
	content, err := c.Input.Read(file)
	if err != nil {
		return queue.Failed(diag.ReadFailed(file.Path, err))
	}
	sum := sha256.Sum256(content)
	rec := publish.Record{
		OutputPath: OutputPath(file, c.OutputType),
		Hash:       hex.EncodeToString(sum[:]),
	}
	if c.Sink != nil {
		if err := c.Sink.WriteFile(rec.OutputPath, content); err != nil {
			return queue.Failed(diag.WriteFailed(rec.OutputPath, err))
		}
	}
	c.State.Put(file, rec)
	return queue.Ok()
}
