// Package config loads the per-docset configuration file.
package config

import (
	"time"

	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
)

// Output types.
const (
	OutputHTML = "html"
	OutputJSON = "json"
)

// Config represents a docset configuration.
type Config struct {
	Name         string             `yaml:"name" toml:"name"`
	Output       OutputConfig       `yaml:"output" toml:"output"`
	MaxErrors    int                `yaml:"max_errors" toml:"max_errors"`
	Rules        map[string]string  `yaml:"rules,omitempty" toml:"rules,omitempty"`
	Exclude      []string           `yaml:"exclude,omitempty" toml:"exclude,omitempty"`
	Localization LocalizationConfig `yaml:"localization,omitempty" toml:"localization,omitempty"`
	Redirections map[string]string  `yaml:"redirections,omitempty" toml:"redirections,omitempty"`
	Build        BuildConfig        `yaml:"build" toml:"build"`
	Cache        CacheConfig        `yaml:"cache" toml:"cache"`
	Xref         XrefConfig         `yaml:"xref,omitempty" toml:"xref,omitempty"`
	Watch        WatchConfig        `yaml:"watch" toml:"watch"`

	// File is the path the configuration was loaded from; empty when the
	// docset has no configuration file.
	File string `yaml:"-" toml:"-"`
}

// OutputConfig controls where and how artifacts are written.
type OutputConfig struct {
	Path     string `yaml:"path" toml:"path"`
	Type     string `yaml:"type" toml:"type"`
	Legacy   bool   `yaml:"legacy,omitempty" toml:"legacy,omitempty"`
	Template string `yaml:"template,omitempty" toml:"template,omitempty"`
}

// LocalizationConfig selects the fallback docset of a localized docset.
type LocalizationConfig struct {
	// Fallback is an explicit fallback docset path, relative to the docset.
	Fallback string `yaml:"fallback,omitempty" toml:"fallback,omitempty"`
	// Locale derives the fallback from the docset directory name: a docset
	// at "docs.de-de" with locale "de-de" falls back to "docs".
	Locale string `yaml:"locale,omitempty" toml:"locale,omitempty"`
}

// BuildConfig tunes the build queue.
type BuildConfig struct {
	Workers int `yaml:"workers,omitempty" toml:"workers,omitempty"`
}

// CacheConfig locates the side-channel state.
type CacheConfig struct {
	Dir        string `yaml:"dir" toml:"dir"`
	NatsURL    string `yaml:"nats_url,omitempty" toml:"nats_url,omitempty"`
	NatsBucket string `yaml:"nats_bucket,omitempty" toml:"nats_bucket,omitempty"`
}

// XrefConfig lists external cross-reference services.
type XrefConfig struct {
	Services []string `yaml:"services,omitempty" toml:"services,omitempty"`
	// Retries is the number of retries after a failed service request.
	Retries int `yaml:"retries,omitempty" toml:"retries,omitempty"`
	// Backoff is one of fixed, linear or exponential.
	Backoff string `yaml:"backoff,omitempty" toml:"backoff,omitempty"`
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

// RequestTimeout returns the parsed per-request timeout.
func (x XrefConfig) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(x.Timeout)
	if err != nil || d <= 0 {
		return DefaultXrefTimeout
	}
	return d
}

// WatchConfig tunes interactive rebuilds. Durations use time.ParseDuration syntax.
type WatchConfig struct {
	Debounce string `yaml:"debounce" toml:"debounce"`
	Refresh  string `yaml:"refresh,omitempty" toml:"refresh,omitempty"`
}

// DebounceWindow returns the parsed debounce window.
func (w WatchConfig) DebounceWindow() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d <= 0 {
		return DefaultDebounce
	}
	return d
}

// RefreshInterval returns the parsed refresh interval, or zero when periodic
// refresh is disabled.
func (w WatchConfig) RefreshInterval() time.Duration {
	if w.Refresh == "" {
		return 0
	}
	d, err := time.ParseDuration(w.Refresh)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// ErrorRules parses the rule overrides.
func (c *Config) ErrorRules() (map[string]diag.Rule, error) {
	rules := make(map[string]diag.Rule, len(c.Rules))
	for code, raw := range c.Rules {
		rule, err := diag.ParseRule(raw)
		if err != nil {
			return nil, err
		}
		rules[code] = rule
	}
	return rules, nil
}
