package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsetbuilder/internal/diag"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, cfg.File)
	assert.Equal(t, DefaultOutputPath, cfg.Output.Path)
	assert.Equal(t, OutputHTML, cfg.Output.Type)
	assert.Equal(t, diag.DefaultMaxErrors, cfg.MaxErrors)
	assert.Equal(t, DefaultCacheDir, cfg.Cache.Dir)
	assert.Equal(t, time.Second, cfg.Watch.DebounceWindow())
	assert.Zero(t, cfg.Watch.RefreshInterval())
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "docsetbuilder.yml", `
name: guide
output:
  path: out
  type: json
  legacy: true
max_errors: 10
rules:
  title-missing: off
  file-not-found: error
exclude:
  - drafts/**
redirections:
  old.md: new.md
localization:
  locale: de-de
watch:
  debounce: 250ms
  refresh: 1m
`)
	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "docsetbuilder.yml"), cfg.File)
	assert.Equal(t, "guide", cfg.Name)
	assert.Equal(t, "out", cfg.Output.Path)
	assert.Equal(t, OutputJSON, cfg.Output.Type)
	assert.True(t, cfg.Output.Legacy)
	assert.Equal(t, 10, cfg.MaxErrors)
	assert.Equal(t, []string{"drafts/**"}, cfg.Exclude)
	assert.Equal(t, "new.md", cfg.Redirections["old.md"])
	assert.Equal(t, "de-de", cfg.Localization.Locale)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.DebounceWindow())
	assert.Equal(t, time.Minute, cfg.Watch.RefreshInterval())

	rules, err := cfg.ErrorRules()
	require.NoError(t, err)
	assert.True(t, rules[diag.CodeTitleMissing].Off)
	assert.Equal(t, diag.LevelError, rules[diag.CodeFileNotFound].Level)
}

func TestLoad_TOMLWithEnvExpansion(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOCSET_OUT", "from-env")
	writeFile(t, dir, "docsetbuilder.toml", `
name = "guide"
max_errors = 5

[output]
path = "${DOCSET_OUT}"
type = "html"

[cache]
dir = ".cache"
nats_url = "nats://localhost:4222"
`)
	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Output.Path)
	assert.Equal(t, ".cache", cfg.Cache.Dir)
	assert.Equal(t, DefaultNatsBucket, cfg.Cache.NatsBucket)
}

func TestLoad_DotEnvDoesNotOverrideProcessEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOCSET_NAME", "process")
	writeFile(t, dir, ".env", "DOCSET_NAME=dotenv\n")
	writeFile(t, dir, "docsetbuilder.yml", "name: ${DOCSET_NAME}\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "process", cfg.Name)
}

func TestLoad_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad output type", "output:\n  type: pdf\n"},
		{"bad rule", "rules:\n  title-missing: loud\n"},
		{"negative budget", "max_errors: -1\n"},
		{"bad debounce", "watch:\n  debounce: soon\n"},
		{"fallback and locale", "localization:\n  fallback: ../base\n  locale: de-de\n"},
		{"bad xref service", "xref:\n  services:\n    - not a url\n"},
		{"malformed yaml", "output: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "docsetbuilder.yml", tt.content)
			_, err := Load(dir)
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
		})
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	p, err := Init(dir, false)
	require.NoError(t, err)
	assert.FileExists(t, p)

	_, err = Init(dir, false)
	require.Error(t, err)

	_, err = Init(dir, true)
	require.NoError(t, err)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), cfg.Name)
}
