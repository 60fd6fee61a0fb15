package diag

import (
	"fmt"
	"strings"
)

// Level is the severity of an Error. Higher values are more severe.
type Level uint8

const (
	LevelInfo Level = iota
	LevelSuggestion
	LevelWarning
	LevelError
)

// Levels lists every level from least to most severe.
var Levels = []Level{LevelInfo, LevelSuggestion, LevelWarning, LevelError}

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelSuggestion:
		return "suggestion"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	}
	return "unknown"
}

// IsBlocking reports whether errors at this level fail the build.
func (l Level) IsBlocking() bool { return l == LevelError }

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel parses a case-insensitive level name.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return LevelInfo, nil
	case "suggestion":
		return LevelSuggestion, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown level %q", s)
}

// Rule overrides how errors with a given code are recorded.
type Rule struct {
	Off   bool
	Level Level
}

// ParseRule parses a rule value: a level name or "off".
func ParseRule(s string) (Rule, error) {
	if strings.EqualFold(strings.TrimSpace(s), "off") {
		return Rule{Off: true}, nil
	}
	level, err := ParseLevel(s)
	if err != nil {
		return Rule{}, err
	}
	return Rule{Level: level}, nil
}
