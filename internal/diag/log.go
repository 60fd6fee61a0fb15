package diag

import (
	"slices"
	"sync"
)

// DefaultMaxErrors is the error budget used when none is configured.
const DefaultMaxErrors = 1000

// Log is the cycle-wide error collection. It is append-only and safe for
// concurrent use by build workers.
type Log struct {
	mu        sync.Mutex
	maxErrors int
	rules     map[string]Rule
	errors    []Error
	counts    [LevelError + 1]int
	budget    int
	exceeded  bool
}

// NewLog creates a Log. maxErrors <= 0 disables the budget.
func NewLog(maxErrors int, rules map[string]Rule) *Log {
	return &Log{maxErrors: maxErrors, rules: rules}
}

// Add merges errs produced while building file into the log.
//
// It reports whether the file must be excluded from publishing: either one of
// the recorded errors is blocking, or the merge ran into the error budget and
// some of the file's errors were dropped.
func (l *Log) Add(file string, errs ...Error) bool {
	if len(errs) == 0 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	exclude := false
	for _, e := range errs {
		if rule, ok := l.rules[e.Code]; ok {
			if rule.Off {
				continue
			}
			e.Level = rule.Level
		}
		if e.Source == nil && file != "" {
			e.Source = InFile(file)
		}
		if e.Level != LevelInfo {
			if l.maxErrors > 0 && l.budget >= l.maxErrors {
				if !l.exceeded {
					l.exceeded = true
					l.appendLocked(ExceedMaxErrors(l.maxErrors))
				}
				exclude = true
				continue
			}
			l.budget++
		}
		l.appendLocked(e)
		if e.Level.IsBlocking() {
			exclude = true
		}
	}
	return exclude
}

// Force records e regardless of rules and budget. It is used for failures
// that must always be visible, such as a fatal abort.
func (l *Log) Force(e Error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appendLocked(e)
}

func (l *Log) appendLocked(e Error) {
	l.errors = append(l.errors, e)
	if int(e.Level) < len(l.counts) {
		l.counts[e.Level]++
	}
}

// Errors returns a copy of every recorded error in insertion order.
func (l *Log) Errors() []Error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.errors)
}

// ForFile returns the errors whose source file equals file.
func (l *Log) ForFile(file string) []Error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Error
	for _, e := range l.errors {
		if e.File() == file {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of recorded errors at level.
func (l *Log) Count(level Level) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if int(level) >= len(l.counts) {
		return 0
	}
	return l.counts[level]
}

// Counts returns per-level totals.
func (l *Log) Counts() map[Level]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[Level]int, len(l.counts))
	for _, level := range Levels {
		out[level] = l.counts[level]
	}
	return out
}

// HasErrors reports whether any blocking error was recorded.
func (l *Log) HasErrors() bool {
	return l.Count(LevelError) > 0
}

// Len returns the number of recorded errors.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors)
}
