package config

import (
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
)

// Defaults.
const (
	DefaultOutputPath  = "_site"
	DefaultCacheDir    = ".docsetbuilder"
	DefaultDebounce    = time.Second
	DefaultNatsBucket  = "docsetbuilder"
	DefaultXrefTimeout = 10 * time.Second
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// OutputDefaultApplier handles Output configuration defaults.
type OutputDefaultApplier struct{}

func (o *OutputDefaultApplier) Domain() string { return "output" }

func (o *OutputDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Output.Path == "" {
		cfg.Output.Path = DefaultOutputPath
	}
	cfg.Output.Type = strings.ToLower(strings.TrimSpace(cfg.Output.Type))
	if cfg.Output.Type == "" {
		cfg.Output.Type = OutputHTML
	}
	return nil
}

// BuildDefaultApplier handles error budget and worker defaults.
type BuildDefaultApplier struct{}

func (b *BuildDefaultApplier) Domain() string { return "build" }

func (b *BuildDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.MaxErrors == 0 {
		cfg.MaxErrors = diag.DefaultMaxErrors
	}
	if cfg.Build.Workers < 0 {
		cfg.Build.Workers = 0
	}
	return nil
}

// CacheDefaultApplier handles Cache configuration defaults.
type CacheDefaultApplier struct{}

func (c *CacheDefaultApplier) Domain() string { return "cache" }

func (c *CacheDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = DefaultCacheDir
	}
	if cfg.Cache.NatsURL != "" && cfg.Cache.NatsBucket == "" {
		cfg.Cache.NatsBucket = DefaultNatsBucket
	}
	return nil
}

// WatchDefaultApplier handles Watch configuration defaults.
type WatchDefaultApplier struct{}

func (w *WatchDefaultApplier) Domain() string { return "watch" }

func (w *WatchDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = DefaultDebounce.String()
	}
	return nil
}

// CompositeDefaultApplier applies defaults across all configuration domains.
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier creates a composite default applier with all domain appliers.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{
		appliers: []DefaultApplier{
			&OutputDefaultApplier{},
			&BuildDefaultApplier{},
			&CacheDefaultApplier{},
			&WatchDefaultApplier{},
		},
	}
}

// ApplyDefaults applies defaults for all configuration domains.
func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("applying defaults for %s: %w", applier.Domain(), err)
		}
	}
	return nil
}

// Default returns the configuration of a docset without a configuration file.
func Default() *Config {
	cfg := &Config{}
	_ = NewDefaultApplier().ApplyDefaults(cfg)
	return cfg
}
