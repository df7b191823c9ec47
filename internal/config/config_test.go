package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndyXT/doccheck/internal/errors"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.7, cfg.Redundancy.Threshold)
	assert.Equal(t, 0.9, cfg.Redundancy.NearExact)
	assert.Equal(t, 20, cfg.Redundancy.MinTokens)
	assert.Equal(t, 500, cfg.Redundancy.MaxSections)
	assert.Equal(t, 4, cfg.Redundancy.Workers)
	assert.Equal(t, 30*time.Second, cfg.Compile.Timeout)
	assert.False(t, cfg.Compile.Skip)
	assert.Contains(t, cfg.Compile.Commands, "rust")
	assert.Equal(t, "json", cfg.Report.Format)
	assert.Equal(t, "manifest.yml", cfg.Manifest)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoadScalarOverrides(t *testing.T) {
	resetViper(t)
	viper.Set("redundancy.threshold", 0.85)
	viper.Set("redundancy.max_sections", 50)
	viper.Set("compile.skip", true)
	viper.Set("report.format", "markdown")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.85, cfg.Redundancy.Threshold)
	assert.Equal(t, 50, cfg.Redundancy.MaxSections)
	assert.True(t, cfg.Compile.Skip)
	assert.Equal(t, "markdown", cfg.Report.Format)
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	resetViper(t)
	viper.Set("redundancy.threshold", 1.5)

	_, err := Load()

	var cfgErr *errors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "redundancy.threshold", cfgErr.Field)
}

func TestLoadRejectsNearExactBelowThreshold(t *testing.T) {
	resetViper(t)
	viper.Set("redundancy.threshold", 0.95)

	_, err := Load()

	var cfgErr *errors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "redundancy.near_exact", cfgErr.Field)
}

func TestLoadRejectsBadFormat(t *testing.T) {
	resetViper(t)
	viper.Set("report.format", "xml")

	_, err := Load()

	var cfgErr *errors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "report.format", cfgErr.Field)
}

func TestValidateConfigPaths(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		applyDefaults(c)
		return c
	}

	traversal := base()
	traversal.Manifest = "../outside.yml"
	err := validateConfig(traversal)
	var cfgErr *errors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "manifest", cfgErr.Field)

	absolute := base()
	absolute.Manifest = "/etc/manifest.yml"
	require.Error(t, validateConfig(absolute))

	output := base()
	output.Report.Output = "../report.json"
	err = validateConfig(output)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "report.output", cfgErr.Field)
}

func TestValidateConfigEmptyCommand(t *testing.T) {
	c := &Config{}
	applyDefaults(c)
	c.Compile.Commands["toml"] = nil

	err := validateConfig(c)

	var cfgErr *errors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "compile.commands", cfgErr.Field)
}

func TestValidateConfigWorkers(t *testing.T) {
	c := &Config{}
	applyDefaults(c)
	c.Redundancy.Workers = -1

	err := validateConfig(c)

	var cfgErr *errors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "redundancy.workers", cfgErr.Field)
}
