package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
	foundationerrors "git.home.luguber.info/inful/docsetbuilder/internal/foundation/errors"
)

// FileNames are the recognized configuration file names, in lookup order.
var FileNames = []string{"docsetbuilder.yml", "docsetbuilder.yaml", "docsetbuilder.toml"}

// Find returns the configuration file of the docset at dir.
func Find(dir string) (string, bool) {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if st, err := os.Stat(p); err == nil && st.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

// Load reads the configuration of the docset at dir. A docset without a
// configuration file gets the defaults. ${VAR} references are expanded from
// the environment after .env and .env.local in dir have been loaded; values
// already present in the process environment win.
func Load(dir string) (*Config, error) {
	if err := loadEnvFiles(dir); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to load environment file").
			WithCode(diag.CodeConfigInvalid).
			WithContext("dir", dir).
			Build()
	}

	cfg := &Config{}
	if file, ok := Find(dir); ok {
		if err := decodeFile(file, cfg); err != nil {
			return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to parse configuration").
				WithCode(diag.CodeConfigInvalid).
				WithContext("file", file).
				Build()
		}
		cfg.File = file
	}

	if err := NewDefaultApplier().ApplyDefaults(cfg); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to apply defaults").
			WithCode(diag.CodeConfigInvalid).
			Build()
	}
	if err := cfg.Validate(); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "invalid configuration").
			WithCode(diag.CodeConfigInvalid).
			WithContext("file", cfg.File).
			Build()
	}
	return cfg, nil
}

func decodeFile(file string, cfg *Config) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	expanded := os.ExpandEnv(string(data))
	if strings.EqualFold(filepath.Ext(file), ".toml") {
		_, err = toml.Decode(expanded, cfg)
		return err
	}
	return yaml.Unmarshal([]byte(expanded), cfg)
}

func loadEnvFiles(dir string) error {
	var files []string
	for _, name := range []string{".env", ".env.local"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			files = append(files, p)
		}
	}
	if len(files) == 0 {
		return nil
	}
	return godotenv.Load(files...)
}

// Init writes a default configuration file into dir and returns its path.
func Init(dir string, force bool) (string, error) {
	if existing, ok := Find(dir); ok && !force {
		return "", fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", existing)
	}
	cfg := Default()
	cfg.Name = filepath.Base(dir)
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	p := filepath.Join(dir, FileNames[0])
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return p, nil
}

// IsConfigError reports whether err came from loading a configuration.
func IsConfigError(err error) bool {
	var ce *foundationerrors.ClassifiedError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code() == diag.CodeConfigInvalid
}
