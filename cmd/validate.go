package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AndyXT/doccheck/internal/config"
	"github.com/AndyXT/doccheck/internal/pipeline"
)

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate <doc-root>",
	Short: "Validate a documentation tree and emit a structured report",
	Long: `Validate runs every check over a documentation tree:

- Content classification with low-confidence review findings
- Redundancy detection across compatible sections
- Cross-reference graph validation (dangling links, prerequisite
  cycles, orphaned sections, asymmetric see-also links)
- Concept coverage and code example compilation

Examples:
  doccheck validate ./src
  doccheck validate ./src --threshold 0.8 --format markdown
  doccheck validate ./src --skip-compile --output report.json`,
	Args: cobra.ExactArgs(1),
	RunE: runValidateCommand,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	flags := validateCmd.Flags()
	flags.Float64("threshold", 0.7, "similarity score at which a pair is flagged as duplicate")
	flags.Int("max-sections", 500, "maximum section count before the detector fails loudly")
	flags.Int("workers", 4, "redundancy comparison worker count")
	flags.Duration("timeout", 30*time.Second, "per-block compile timeout")
	flags.Bool("skip-compile", false, "skip code block compilation checks")
	flags.StringP("format", "f", "json", "report format (json, markdown)")
	flags.StringP("output", "o", "", "report file path (default stdout)")

	_ = viper.BindPFlag("redundancy.threshold", flags.Lookup("threshold"))
	_ = viper.BindPFlag("redundancy.max_sections", flags.Lookup("max-sections"))
	_ = viper.BindPFlag("redundancy.workers", flags.Lookup("workers"))
	_ = viper.BindPFlag("compile.timeout", flags.Lookup("timeout"))
	_ = viper.BindPFlag("compile.skip", flags.Lookup("skip-compile"))
	_ = viper.BindPFlag("report.format", flags.Lookup("format"))
	_ = viper.BindPFlag("report.output", flags.Lookup("output"))
}

func runValidateCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger()

	// An interrupt cancels the run; the pipeline then returns without a
	// report so nothing partial is ever written.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := pipeline.New(cfg, logger).Run(ctx, args[0])
	if err != nil {
		return err
	}

	if err := rep.Write(cfg.Report.Output, cfg.Report.Format, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("cannot write report: %w", err)
	}

	if rep.Failed() {
		return fmt.Errorf("validation failed: %d errors", rep.Summary.Errors)
	}
	return nil
}
