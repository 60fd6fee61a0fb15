package build

import (
	"context"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docsetbuilder/internal/build/queue"
	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
	"git.home.luguber.info/inful/docsetbuilder/internal/manifest"
	"git.home.luguber.info/inful/docsetbuilder/internal/publish"
)

// Service runs build cycles. The CLI, the watcher and the editor server all
// go through it.
type Service interface {
	// Run executes one cycle for the docset at docsetPath. A recognized
	// failure such as a missing docset is recorded in the result log and
	// reported through Status; the returned error is reserved for aborted
	// and canceled cycles.
	Run(ctx context.Context, docsetPath string, opts Options) (*Result, error)
}

// Options provides optional configuration for one cycle.
type Options struct {
	// DryRun builds and validates without writing output or artifacts.
	DryRun bool

	// Legacy also writes the legacy output shape.
	Legacy bool

	// OutputDir overrides output.path from the configuration.
	OutputDir string

	// Overlay shadows docset files with in-memory content.
	Overlay *docset.Overlay

	// Progress is called after every file the queue finishes.
	Progress queue.Progress
}

// Result contains the outcome of a cycle.
type Result struct {
	ID     uuid.UUID
	Status Status

	// Root is the absolute path of the primary docset, once resolved.
	Root string

	Log       *diag.Log
	Publish   *publish.State
	Files     *docset.FileSet
	Artifacts *manifest.Artifacts

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Success reports whether the cycle completed without blocking errors.
func (r *Result) Success() bool { return r.Status == StatusSuccess }

// Status represents the outcome of a cycle.
type Status string

const (
	// StatusSuccess indicates the cycle recorded no blocking error.
	StatusSuccess Status = "success"

	// StatusFailed indicates blocking errors or an aborted cycle.
	StatusFailed Status = "failed"

	// StatusCancelled indicates the context ended the cycle.
	StatusCancelled Status = "cancelled"
)
