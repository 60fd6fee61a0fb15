package build

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
)

var (
	successColor    = color.New(color.FgGreen, color.Bold)
	failureColor    = color.New(color.FgRed, color.Bold)
	errorColor      = color.New(color.FgRed)
	warningColor    = color.New(color.FgYellow)
	suggestionColor = color.New(color.FgCyan)
)

func levelColor(level diag.Level) *color.Color {
	switch level {
	case diag.LevelError:
		return errorColor
	case diag.LevelWarning:
		return warningColor
	case diag.LevelSuggestion:
		return suggestionColor
	}
	return nil
}

// writeSummary prints every non-info error followed by a one-line verdict.
func writeSummary(w io.Writer, res *Result) {
	for _, e := range res.Log.Errors() {
		c := levelColor(e.Level)
		if c == nil {
			continue
		}
		where := ""
		if e.Source != nil {
			where = e.Source.String() + ": "
		}
		_, _ = fmt.Fprintf(w, "%s %s%s (%s)\n", c.Sprint(e.Level.String()), where, e.Message, e.Code)
	}

	counts := res.Log.Counts()
	verdict := successColor.Sprint("Build succeeded")
	switch res.Status {
	case StatusFailed:
		verdict = failureColor.Sprint("Build failed")
	case StatusCancelled:
		verdict = failureColor.Sprint("Build cancelled")
	}
	_, _ = fmt.Fprintf(w, "%s in %s: %d error(s), %d warning(s), %d suggestion(s), %d info\n",
		verdict,
		res.Duration.Round(time.Millisecond),
		counts[diag.LevelError],
		counts[diag.LevelWarning],
		counts[diag.LevelSuggestion],
		counts[diag.LevelInfo],
	)
}
