package errors

import "maps"

// ErrorCategory groups errors by the subsystem that produced them.
type ErrorCategory string

// Categories are grouped by the exit code the CLI maps them to.
const (
	// Usage and configuration problems.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Docset resolution and repository metadata.
	CategoryDocset  ErrorCategory = "docset"
	CategoryGit     ErrorCategory = "git"
	CategoryNetwork ErrorCategory = "network"

	// Build cycle processing.
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Side channels that never decide the build outcome.
	CategoryPersistence ErrorCategory = "persistence"
	CategoryProtocol    ErrorCategory = "protocol"

	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity is how far an error reaches.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // stops the command
	SeverityError   ErrorSeverity = "error"   // fails the current operation
	SeverityWarning ErrorSeverity = "warning" // degraded, keeps going
	SeverityInfo    ErrorSeverity = "info"
)

// ErrorContext holds structured details such as file or docset paths.
type ErrorContext map[string]any

// Set stores value under key, allocating c when nil.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

func (c ErrorContext) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

// GetString returns the value under key when it is a string.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

// Merge returns a new context holding c overlaid with other.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	out := make(ErrorContext, len(c)+len(other))
	maps.Copy(out, c)
	maps.Copy(out, other)
	return out
}
