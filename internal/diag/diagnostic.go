package diag

import "fortio.org/safecast"

// SourceLabel identifies this tool as the producer of editor diagnostics.
const SourceLabel = "docsetbuilder"

const maxUint32 = ^uint32(0)

// DiagnosticSeverity follows the editor protocol numbering.
type DiagnosticSeverity int

const (
	SeverityError       DiagnosticSeverity = 1
	SeverityWarning     DiagnosticSeverity = 2
	SeverityInformation DiagnosticSeverity = 3
	SeverityHint        DiagnosticSeverity = 4
)

// Position is a 0-based line/character pair.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range is a 0-based half-open range.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Diagnostic is the editor-facing projection of an Error.
type Diagnostic struct {
	Range    Range              `json:"range"`
	Severity DiagnosticSeverity `json:"severity"`
	Code     string             `json:"code,omitempty"`
	Source   string             `json:"source"`
	Message  string             `json:"message"`
}

// SeverityOf maps a build level onto an editor severity.
func SeverityOf(level Level) DiagnosticSeverity {
	switch level {
	case LevelError:
		return SeverityError
	case LevelWarning:
		return SeverityWarning
	case LevelSuggestion:
		return SeverityInformation
	default:
		return SeverityHint
	}
}

// ToDiagnostic converts e to a Diagnostic. Positions are translated from
// 1-based to 0-based and never go negative.
func ToDiagnostic(e Error) Diagnostic {
	var r Range
	if src := e.Source; src != nil {
		r.Start = Position{Line: zeroBased(src.Line), Character: zeroBased(src.Column)}
		if src.EndLine == 0 && src.EndColumn == 0 {
			r.End = r.Start
		} else {
			r.End = Position{Line: zeroBased(src.EndLine), Character: zeroBased(src.EndColumn)}
		}
	}
	return Diagnostic{
		Range:    r,
		Severity: SeverityOf(e.Level),
		Code:     e.Code,
		Source:   SourceLabel,
		Message:  e.Message,
	}
}

// DiagnosticsForFile projects the errors whose source file equals file.
// The result is never nil so that publishing it clears stale diagnostics.
func DiagnosticsForFile(errs []Error, file string) []Diagnostic {
	out := make([]Diagnostic, 0)
	for _, e := range errs {
		if e.File() == file {
			out = append(out, ToDiagnostic(e))
		}
	}
	return out
}

func zeroBased(n int) uint32 {
	if n <= 1 {
		return 0
	}
	v, err := safecast.Conv[uint32](n - 1)
	if err != nil {
		return maxUint32
	}
	return v
}
