package errors

import (
	stderrors "errors"
	"fmt"
)

// ClassifiedError is an error tagged with a category, a severity and an
// optional diagnostic code. Values are immutable once built.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	code     string
	message  string
	cause    error
	context  ErrorContext
}

func (e *ClassifiedError) Error() string {
	prefix := fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
	if e.cause == nil {
		return prefix
	}
	return prefix + ": " + e.cause.Error()
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory { return e.category }
func (e *ClassifiedError) Severity() ErrorSeverity { return e.severity }
func (e *ClassifiedError) Message() string         { return e.message }
func (e *ClassifiedError) Cause() error            { return e.cause }
func (e *ClassifiedError) Context() ErrorContext   { return e.context }

// Code is the diagnostic code of a recognized failure, or "". A recognized
// failure is reported as a diagnostic instead of aborting the command.
func (e *ClassifiedError) Code() string { return e.code }

// IsFatal reports whether the error stops the command.
func (e *ClassifiedError) IsFatal() bool { return e.severity == SeverityFatal }

// WithContext returns a copy of e with key set in its context.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	cp := *e
	cp.context = e.context.Merge(ErrorContext{key: value})
	return &cp
}

// Is matches another ClassifiedError with the same category and message, so
// sentinel values built with the same constructor compare equal.
func (e *ClassifiedError) Is(target error) bool {
	other, ok := target.(*ClassifiedError)
	return ok && e.category == other.category && e.message == other.message
}

// AsClassified returns the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	ok := stderrors.As(err, &classified)
	return classified, ok
}

// GetCode returns the diagnostic code found in err's chain, or "".
func GetCode(err error) string {
	if classified, ok := AsClassified(err); ok {
		return classified.code
	}
	return ""
}
