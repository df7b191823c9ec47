package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AndyXT/doccheck/internal/classify"
	"github.com/AndyXT/doccheck/internal/config"
	"github.com/AndyXT/doccheck/internal/parser"
	"github.com/AndyXT/doccheck/internal/store"
)

// listCmd shows every section with its classification, useful while
// deciding front matter before a full validation run.
var listCmd = &cobra.Command{
	Use:   "list <doc-root>",
	Short: "List sections with their classification and code block counts",
	Args:  cobra.ExactArgs(1),
	RunE:  runListCommand,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runListCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	p := parser.NewDirParser(cfg.Manifest)
	sections, err := p.Load(context.Background(), args[0])
	if err != nil {
		return err
	}
	snapshot := store.New(sections, p.InputErrors())

	classifications, _ := classify.New().Run(snapshot.All())

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTYPE\tAUDIENCE\tCONFIDENCE\tBLOCKS")
	for _, section := range snapshot.All() {
		cls := classifications[section.ID]
		declared := string(section.ContentType)
		if declared == "" {
			declared = string(cls.ContentType) + "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%d\n",
			section.ID, section.Title, declared, cls.AudienceLevel,
			cls.Confidence, len(section.CodeBlocks))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if excluded := snapshot.InputErrors(); len(excluded) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d sections excluded:\n", len(excluded))
		for _, in := range excluded {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", in.SourcePath, in.Message)
		}
	}
	return nil
}
