package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// ErrBuildFailed is returned by the CLI when at least one docset failed to
// build. The build summary has already been printed.
var ErrBuildFailed = BuildError("build failed").Build()

var exitCodes = map[ErrorCategory]int{
	CategoryValidation:  2,
	CategoryConfig:      7,
	CategoryDocset:      8,
	CategoryGit:         8,
	CategoryNetwork:     8,
	CategoryInternal:    10,
	CategoryBuild:       11,
	CategoryFileSystem:  11,
	CategoryPersistence: 12,
	CategoryProtocol:    12,
}

// CLIErrorAdapter prints a command's final error and exits with the code of
// its category.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	stderr  io.Writer
	exit    func(int)
}

func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger, stderr: os.Stderr, exit: os.Exit}
}

// ExitCodeFor returns 0 for nil, 1 for unclassified errors and the category
// code otherwise.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	classified, ok := AsClassified(err)
	if !ok {
		return 1
	}
	if code, ok := exitCodes[classified.Category()]; ok {
		return code
	}
	return 1
}

// FormatError renders err for the terminal. Internal errors are only shown in
// full with --verbose.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	classified, ok := AsClassified(err)
	switch {
	case !ok:
		return fmt.Sprintf("Error: %v", err)
	case a.verbose || classified.Category() != CategoryInternal:
		return classified.Error()
	default:
		return "Internal error occurred (use -v for details)"
	}
}

// HandleError reports err and exits. It returns without exiting for nil.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	if err != ErrBuildFailed {
		a.logError(err)
		_, _ = fmt.Fprintln(a.stderr, a.FormatError(err))
	}
	a.exit(a.ExitCodeFor(err))
}

func (a *CLIErrorAdapter) logError(err error) {
	classified, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Unclassified error", slog.Any("error", err))
		return
	}
	if !a.verbose && !classified.IsFatal() {
		return
	}
	attrs := []slog.Attr{slog.String("category", string(classified.Category()))}
	if code := classified.Code(); code != "" {
		attrs = append(attrs, slog.String("code", code))
	}
	level := slog.LevelError
	switch classified.Severity() {
	case SeverityWarning:
		level = slog.LevelWarn
	case SeverityInfo:
		level = slog.LevelInfo
	}
	a.logger.LogAttrs(context.Background(), level, classified.Message(), attrs...)
}
