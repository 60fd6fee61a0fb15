// Package diag defines the error and diagnostic model shared by every build cycle.
//
// Error is the build-side record: a level, a stable string code, a message and an
// optional 1-based source range. Log is the cycle-wide, concurrency-safe
// accumulator that build workers append to; it applies per-code rules, enforces
// the error budget and reports whether a merge should exclude the file from
// publishing.
//
// Diagnostic is the editor-side projection of an Error. Conversion is lossy on
// purpose: positions become 0-based and clamped at zero, levels map onto the four
// editor severities, and every diagnostic carries the same Source label.
package diag
