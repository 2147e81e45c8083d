package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
log:
  level: debug
  format: json
catalogs:
  - extra.yaml
validate:
  workers: 4
`)
	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"extra.yaml"}, cfg.Catalogs)
	assert.Equal(t, 4, cfg.Validate.Workers)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Empty(t, cfg.Catalogs)
	assert.Zero(t, cfg.Validate.Workers)
}

func TestLoadHomeDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	require.NoError(t, os.Mkdir(filepath.Join(home, ".opgraph"), 0o700))
	writeConfig(t, filepath.Join(home, ".opgraph"), "log:\n  level: warn\n")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "log:\n  level: debug\n")
	t.Setenv("OPGRAPH_LOG_LEVEL", "error")
	t.Setenv("OPGRAPH_VALIDATE_WORKERS", "2")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 2, cfg.Validate.Workers)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(viper.New(), filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "reading config")

	path := writeConfig(t, dir, "validate:\n  workers: -1\n")
	_, err = Load(viper.New(), path)
	assert.ErrorContains(t, err, "must not be negative")

	path = writeConfig(t, dir, "log:\n  format: xml\n")
	_, err = Load(viper.New(), path)
	assert.ErrorContains(t, err, `unknown log format "xml"`)
}
