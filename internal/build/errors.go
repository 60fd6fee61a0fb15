package build

import "errors"

// ErrCycleAborted wraps the failure that aborted a cycle. Publish state of
// an aborted cycle is not trusted and no artifacts are written.
var ErrCycleAborted = errors.New("docsetbuilder: cycle aborted")
