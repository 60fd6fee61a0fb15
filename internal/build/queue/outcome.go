package queue

import (
	"fmt"

	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
)

// OutcomeKind tags the result of one build step.
type OutcomeKind uint8

const (
	// KindOk means the step completed; its errors may still exclude the file
	// when they are blocking or exceed the budget.
	KindOk OutcomeKind = iota
	// KindFailed is a recognized build failure: the file is excluded and the
	// cycle continues.
	KindFailed
	// KindFatal aborts the whole cycle.
	KindFatal
)

func (k OutcomeKind) String() string {
	switch k {
	case KindOk:
		return "ok"
	case KindFailed:
		return "failed"
	case KindFatal:
		return "fatal"
	}
	return "unknown"
}

// Outcome is the tagged result of a build step.
type Outcome struct {
	Kind   OutcomeKind
	Errors []diag.Error
	Cause  error
}

// Ok reports a completed step with errs.
func Ok(errs ...diag.Error) Outcome {
	return Outcome{Kind: KindOk, Errors: errs}
}

// Failed reports a recognized failure described by errs.
func Failed(errs ...diag.Error) Outcome {
	return Outcome{Kind: KindFailed, Errors: errs}
}

// Fatal reports an unrecognized failure that must abort the cycle.
func Fatal(cause error) Outcome {
	return Outcome{Kind: KindFatal, Cause: cause}
}

// FatalError is returned by Drain when a step aborted the cycle.
type FatalError struct {
	File  docset.FileRef
	Cause error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal failure building %s: %v", e.File, e.Cause)
}

func (e *FatalError) Unwrap() error { return e.Cause }
