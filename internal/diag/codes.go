package diag

import "fmt"

// Stable error codes. They are part of the user-facing contract: rules in the
// configuration refer to them.
const (
	CodeFatal               = "fatal-error"
	CodeExceedMaxErrors     = "exceed-max-errors"
	CodeConfigInvalid       = "config-invalid"
	CodeDocsetNotFound      = "docset-not-found"
	CodeFallbackNotFound    = "fallback-not-found"
	CodeDiscoverFailed      = "discover-failed"
	CodeFileNotFound        = "file-not-found"
	CodeYamlSyntaxError     = "yaml-syntax-error"
	CodeYamlHeaderNotClosed = "yaml-header-not-closed"
	CodeTitleMissing        = "title-missing"
	CodeDuplicateUID        = "duplicate-uid"
	CodeBookmarkNotFound    = "bookmark-not-found"
	CodeXrefNotFound        = "xref-not-found"
	CodeTocInvalid          = "toc-invalid"
	CodeTocEmpty            = "toc-empty"
	CodeRedirectionInvalid  = "redirection-invalid"
	CodeRedirectionConflict = "redirection-conflict"
	CodeReadFailed          = "read-failed"
	CodeWriteFailed         = "write-failed"
	CodePersistFailed       = "persist-failed"
)

func newError(level Level, code string, src *Source, format string, args ...any) Error {
	return Error{Level: level, Code: code, Message: fmt.Sprintf(format, args...), Source: src}
}

func Fatal(file string, cause error) Error {
	return newError(LevelError, CodeFatal, InFile(file), "Unexpected failure while building '%s': %v", file, cause)
}

func ExceedMaxErrors(max int) Error {
	return newError(LevelError, CodeExceedMaxErrors, nil, "Error or warning count exceeded '%d'. Build will continue but newer logs will be ignored.", max)
}

func ConfigInvalid(file, message string) Error {
	return newError(LevelError, CodeConfigInvalid, InFile(file), "Invalid configuration: %s", message)
}

func DocsetNotFound(path string) Error {
	return newError(LevelError, CodeDocsetNotFound, nil, "Docset '%s' does not exist or is not a directory.", path)
}

func FallbackNotFound(path string) Error {
	return newError(LevelError, CodeFallbackNotFound, nil, "Fallback docset '%s' does not exist or is not a directory.", path)
}

func DiscoverFailed(dir string, cause error) Error {
	return newError(LevelError, CodeDiscoverFailed, nil, "Cannot list the files of docset '%s': %v", dir, cause)
}

func FileNotFound(src *Source, target string) Error {
	return newError(LevelWarning, CodeFileNotFound, src, "Invalid file link: '%s'.", target)
}

func YamlSyntaxError(src *Source, message string) Error {
	return newError(LevelError, CodeYamlSyntaxError, src, "%s", message)
}

func YamlHeaderNotClosed(file string) Error {
	return newError(LevelError, CodeYamlHeaderNotClosed, At(file, 1, 1), "YAML header has been opened, but never closed.")
}

func TitleMissing(file string) Error {
	return newError(LevelSuggestion, CodeTitleMissing, At(file, 1, 1), "Missing required metadata: 'title'.")
}

func DuplicateUID(src *Source, uid string, other string) Error {
	return newError(LevelWarning, CodeDuplicateUID, src, "UID '%s' is already defined in '%s'.", uid, other)
}

func BookmarkNotFound(src *Source, bookmark, target string) Error {
	return newError(LevelWarning, CodeBookmarkNotFound, src, "Cannot find bookmark '#%s' in '%s'.", bookmark, target)
}

func XrefNotFound(src *Source, uid string) Error {
	return newError(LevelWarning, CodeXrefNotFound, src, "Cross reference not found: '%s'.", uid)
}

func TocInvalid(src *Source, message string) Error {
	return newError(LevelError, CodeTocInvalid, src, "Invalid table of contents: %s", message)
}

// TocUnrooted reports a TOC that is only referenced from inside a reference
// cycle, so no root TOC reaches it.
func TocUnrooted(file string) Error {
	return newError(LevelWarning, CodeTocInvalid, InFile(file), "Invalid table of contents: '%s' is only referenced through a cycle of tables of contents and is not part of the build.", file)
}

func TocEmpty(file string) Error {
	return newError(LevelWarning, CodeTocEmpty, At(file, 1, 1), "Table of contents '%s' has no items.", file)
}

func RedirectionInvalid(file, target string) Error {
	return newError(LevelError, CodeRedirectionInvalid, InFile(file), "Redirection for '%s' has an invalid target '%s'.", file, target)
}

func RedirectionConflict(file string) Error {
	return newError(LevelWarning, CodeRedirectionConflict, InFile(file), "'%s' is both redirected and present as a file; the redirection wins.", file)
}

func ReadFailed(file string, cause error) Error {
	return newError(LevelError, CodeReadFailed, InFile(file), "Cannot read '%s': %v", file, cause)
}

func WriteFailed(file string, cause error) Error {
	return newError(LevelError, CodeWriteFailed, InFile(file), "Cannot write output for '%s': %v", file, cause)
}

func PersistFailed(name string, cause error) Error {
	return newError(LevelWarning, CodePersistFailed, nil, "Cannot save %s: %v", name, cause)
}
