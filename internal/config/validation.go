package config

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.MaxErrors, validation.Min(0)),
		validation.Field(&c.Rules, validation.By(validRules)),
		validation.Field(&c.Exclude, validation.Each(validation.By(validGlob))),
		validation.Field(&c.Redirections, validation.By(validRedirections)),
	); err != nil {
		return err
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if err := c.Localization.Validate(); err != nil {
		return fmt.Errorf("localization: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Xref.Validate(); err != nil {
		return fmt.Errorf("xref: %w", err)
	}
	if err := c.Watch.Validate(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}

// Validate validates the output configuration.
func (o *OutputConfig) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.Path, validation.Required),
		validation.Field(&o.Type, validation.Required, validation.In(OutputHTML, OutputJSON)),
	)
}

// Validate validates the localization configuration.
func (l *LocalizationConfig) Validate() error {
	if l.Fallback != "" && l.Locale != "" {
		return errors.New("fallback and locale are mutually exclusive")
	}
	return nil
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.NatsURL, is.RequestURL.Error("must be a nats:// URL")),
	)
}

// Validate validates the cross-reference configuration.
func (x *XrefConfig) Validate() error {
	return validation.ValidateStruct(x,
		validation.Field(&x.Services, validation.Each(is.URL)),
		validation.Field(&x.Retries, validation.Min(0)),
		validation.Field(&x.Backoff, validation.In("fixed", "linear", "exponential")),
		validation.Field(&x.Timeout, validation.By(positiveDuration)),
	)
}

// Validate validates the watch configuration.
func (w *WatchConfig) Validate() error {
	return validation.ValidateStruct(w,
		validation.Field(&w.Debounce, validation.Required, validation.By(positiveDuration)),
		validation.Field(&w.Refresh, validation.By(positiveDuration)),
	)
}

func positiveDuration(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return errors.New("must be a duration such as 1s or 500ms")
	}
	if d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

func validRules(value any) error {
	rules, _ := value.(map[string]string)
	for code, raw := range rules {
		if _, err := diag.ParseRule(raw); err != nil {
			return fmt.Errorf("%s: %w", code, err)
		}
	}
	return nil
}

func validGlob(value any) error {
	s, _ := value.(string)
	if _, err := path.Match(s, ""); err != nil {
		return fmt.Errorf("invalid pattern %q", s)
	}
	return nil
}

func validRedirections(value any) error {
	redirections, _ := value.(map[string]string)
	for source, target := range redirections {
		if source == "" || target == "" {
			return errors.New("source and target are required")
		}
		if _, err := url.Parse(target); err != nil {
			return fmt.Errorf("%s: invalid target %q", source, target)
		}
	}
	return nil
}
