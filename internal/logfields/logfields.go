package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyCycleID     = "cycle_id"
	KeyDocset      = "docset"
	KeyFallback    = "fallback"
	KeyFile        = "file"
	KeyContentType = "content_type"
	KeyOrigin      = "origin"
	KeyStage       = "stage"
	KeyDurationMS  = "duration_ms"
	KeyCount       = "count"
	KeyCode        = "code"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func CycleID(id string) slog.Attr     { return slog.String(KeyCycleID, id) }
func Docset(path string) slog.Attr    { return slog.String(KeyDocset, path) }
func Fallback(path string) slog.Attr  { return slog.String(KeyFallback, path) }
func File(path string) slog.Attr      { return slog.String(KeyFile, path) }
func ContentType(t string) slog.Attr  { return slog.String(KeyContentType, t) }
func Origin(o string) slog.Attr       { return slog.String(KeyOrigin, o) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Code(code string) slog.Attr      { return slog.String(KeyCode, code) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
