// Package errors classifies failures of docsetbuilder by category and
// severity, and maps them onto CLI exit codes.
//
// Failures that the build reports as diagnostics carry a code:
//
//	err := errors.DocsetError("fallback docset not found").
//		WithCode("fallback-not-found").
//		WithContext("path", fallbackPath).
//		Build()
package errors
