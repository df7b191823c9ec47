// Package config provides configuration management for doccheck using
// Viper for flexible loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports YAML files, environment variable
// overrides with the DOCCHECK_ prefix, and validation of every value
// before a run starts. Anything invalid is a ConfigurationError and the
// run aborts before analysis.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/AndyXT/doccheck/internal/errors"
)

type Config struct {
	Redundancy RedundancyConfig `yaml:"redundancy"`
	Compile    CompileConfig    `yaml:"compile"`
	Report     ReportConfig     `yaml:"report"`
	Watch      WatchConfig      `yaml:"watch"`
	Manifest   string           `yaml:"manifest"`
}

type RedundancyConfig struct {
	// Threshold is the similarity score at which a pair is flagged
	Threshold float64 `yaml:"threshold"`
	// NearExact is the score band above which a pair is reported as near-exact
	NearExact float64 `yaml:"near_exact"`
	// MinTokens excludes sections shorter than this from pairwise scoring
	MinTokens int `yaml:"min_tokens"`
	// MaxSections is the loud-failure cap on section count; the detector
	// refuses to sample when the store exceeds it
	MaxSections int `yaml:"max_sections"`
	// Workers bounds the pairwise comparison worker pool
	Workers int `yaml:"workers"`
}

type CompileConfig struct {
	// Timeout bounds each compiler invocation
	Timeout time.Duration `yaml:"timeout"`
	// Skip disables code-block compilation entirely
	Skip bool `yaml:"skip"`
	// Commands maps a code-block language to the checker command line.
	// The block source is written to a temp file appended as the last arg.
	Commands map[string][]string `yaml:"commands"`
}

type ReportConfig struct {
	// Format is "json" or "markdown"
	Format string `yaml:"format"`
	// Output is the report file path; empty means stdout
	Output string `yaml:"output"`
}

type WatchConfig struct {
	// Debounce collapses filesystem event bursts into one re-validation
	Debounce time.Duration `yaml:"debounce"`
}

// Load builds a Config from viper's merged sources and validates it.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, &errors.ConfigurationError{Message: "cannot parse configuration", Err: err}
	}

	applyDefaults(&config)

	// Scalar overrides bound from flags; viper's Unmarshal does not see
	// flag bindings for nested keys reliably, so read them explicitly.
	if viper.IsSet("redundancy.threshold") {
		config.Redundancy.Threshold = viper.GetFloat64("redundancy.threshold")
	}
	if viper.IsSet("redundancy.near_exact") {
		config.Redundancy.NearExact = viper.GetFloat64("redundancy.near_exact")
	}
	if viper.IsSet("redundancy.min_tokens") {
		config.Redundancy.MinTokens = viper.GetInt("redundancy.min_tokens")
	}
	if viper.IsSet("redundancy.max_sections") {
		config.Redundancy.MaxSections = viper.GetInt("redundancy.max_sections")
	}
	if viper.IsSet("redundancy.workers") {
		config.Redundancy.Workers = viper.GetInt("redundancy.workers")
	}
	if viper.IsSet("compile.timeout") {
		config.Compile.Timeout = viper.GetDuration("compile.timeout")
	}
	if viper.IsSet("compile.skip") {
		config.Compile.Skip = viper.GetBool("compile.skip")
	}
	if viper.IsSet("report.format") {
		config.Report.Format = viper.GetString("report.format")
	}
	if viper.IsSet("report.output") {
		config.Report.Output = viper.GetString("report.output")
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Manifest == "" {
		config.Manifest = "manifest.yml"
	}
	if config.Redundancy.Threshold == 0 {
		config.Redundancy.Threshold = 0.7
	}
	if config.Redundancy.NearExact == 0 {
		config.Redundancy.NearExact = 0.9
	}
	if config.Redundancy.MinTokens == 0 {
		config.Redundancy.MinTokens = 20
	}
	if config.Redundancy.MaxSections == 0 {
		config.Redundancy.MaxSections = 500
	}
	if config.Redundancy.Workers == 0 {
		config.Redundancy.Workers = 4
	}
	if config.Compile.Timeout == 0 {
		config.Compile.Timeout = 30 * time.Second
	}
	if config.Compile.Commands == nil {
		config.Compile.Commands = map[string][]string{
			"rust": {"rustc", "--edition", "2021", "--emit=metadata", "-o", "/dev/null"},
		}
	}
	if config.Report.Format == "" {
		config.Report.Format = "json"
	}
	if config.Watch.Debounce == 0 {
		config.Watch.Debounce = 300 * time.Millisecond
	}
}

// validateConfig validates configuration values for correctness before a
// run starts. Every failure is a ConfigurationError.
func validateConfig(config *Config) error {
	if t := config.Redundancy.Threshold; t <= 0 || t > 1 {
		return errors.NewConfigurationError("redundancy.threshold",
			fmt.Sprintf("%v is not in (0, 1]", t))
	}
	if n := config.Redundancy.NearExact; n < config.Redundancy.Threshold || n > 1 {
		return errors.NewConfigurationError("redundancy.near_exact",
			fmt.Sprintf("%v must be within [threshold, 1]", n))
	}
	if config.Redundancy.MinTokens < 0 {
		return errors.NewConfigurationError("redundancy.min_tokens", "must not be negative")
	}
	if config.Redundancy.MaxSections < 1 {
		return errors.NewConfigurationError("redundancy.max_sections", "must be at least 1")
	}
	if config.Redundancy.Workers < 1 {
		return errors.NewConfigurationError("redundancy.workers", "must be at least 1")
	}
	if config.Compile.Timeout <= 0 {
		return errors.NewConfigurationError("compile.timeout", "must be positive")
	}

	switch config.Report.Format {
	case "json", "markdown":
	default:
		return errors.NewConfigurationError("report.format",
			fmt.Sprintf("unsupported format %q (want json or markdown)", config.Report.Format))
	}

	if err := validatePath(config.Manifest); err != nil {
		return errors.NewConfigurationError("manifest", err.Error())
	}
	if config.Report.Output != "" {
		if strings.Contains(filepath.Clean(config.Report.Output), "..") {
			return errors.NewConfigurationError("report.output", "path contains traversal")
		}
	}

	for lang, cmd := range config.Compile.Commands {
		if len(cmd) == 0 {
			return errors.NewConfigurationError("compile.commands",
				fmt.Sprintf("empty command for language %q", lang))
		}
	}

	return nil
}

// validatePath validates a relative file path used inside the doc root.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	clean := filepath.Clean(path)
	if strings.Contains(clean, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}
	if filepath.IsAbs(clean) {
		return fmt.Errorf("path must be relative: %s", path)
	}
	return nil
}
