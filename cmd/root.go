// Package cmd provides the command-line interface for doccheck with
// configuration management supporting multiple configuration sources.
//
// Configuration precedence, highest to lowest:
//  1. Command-line flags (--threshold, --timeout, etc.)
//  2. DOCCHECK_CONFIG_FILE environment variable (custom config path)
//  3. Individual environment variables (DOCCHECK_REDUNDANCY_THRESHOLD, ...)
//  4. Configuration file (.doccheck.yml in the current directory)
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AndyXT/doccheck/internal/logging"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "doccheck",
	Short: "Content validation and cross-reference checking for structured documentation",
	Long: `doccheck validates a tree of structured documentation sections: it
classifies content, detects redundant sections, validates the
cross-reference graph, checks concept coverage, and verifies that code
examples compile.

Quick start:
  doccheck validate ./src          Validate the documentation tree
  doccheck list ./src              List sections with classifications
  doccheck watch ./src             Re-validate on every change

Exit codes: 0 pass (warnings allowed), 1 errors found, 2 configuration
failure.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is .doccheck.yml, can also use DOCCHECK_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info",
		"log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// newLogger builds the run logger from the merged configuration.
func newLogger() logging.Logger {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(viper.GetString("log-level"))
	return logging.NewLogger(cfg)
}

// initConfig initializes viper with file, env, and flag sources.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("DOCCHECK_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".doccheck")
	}

	viper.SetEnvPrefix("DOCCHECK")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing config file is fine; defaults and flags still apply.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
