package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AndyXT/doccheck/internal/config"
	"github.com/AndyXT/doccheck/internal/errors"
	"github.com/AndyXT/doccheck/internal/pipeline"
	"github.com/AndyXT/doccheck/internal/watcher"
)

// watchCmd re-validates on every change to the doc tree, keeping the
// author feedback loop short during editing sessions.
var watchCmd = &cobra.Command{
	Use:   "watch <doc-root>",
	Short: "Re-run validation whenever the documentation tree changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatchCommand,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatchCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger()
	root := args[0]

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runOnce := func(ctx context.Context) error {
		rep, err := pipeline.New(cfg, logger).Run(ctx, root)
		if err != nil {
			return err
		}
		if err := rep.Write(cfg.Report.Output, cfg.Report.Format, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("cannot write report: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "status: %s (%d errors, %d warnings)\n",
			rep.Status, rep.Summary.Errors, rep.Summary.Warnings)
		return nil
	}

	// Initial run; a broken setup should fail fast instead of waiting
	// for the first edit.
	if err := runOnce(ctx); err != nil {
		var confErr *errors.ConfigurationError
		if stderrors.As(err, &confErr) {
			return err
		}
		logger.Error(ctx, err, "initial validation failed")
	}

	w, err := watcher.New(cfg.Watch.Debounce, watcher.DocFilter)
	if err != nil {
		return fmt.Errorf("cannot start watcher: %w", err)
	}
	defer w.Close()

	if err := w.AddTree(root); err != nil {
		return fmt.Errorf("cannot watch %s: %w", root, err)
	}

	logger.Info(ctx, "watching for changes", "root", root)
	err = w.Run(ctx, func(ctx context.Context, paths []string) {
		logger.Info(ctx, "change detected", "files", len(paths))
		if err := runOnce(ctx); err != nil {
			logger.Error(ctx, err, "validation run failed")
		}
	})
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
