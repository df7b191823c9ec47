// Package pipeline wires the parser, store, and analysis components into
// one validation run and produces the finalized report.
package pipeline

import (
	"context"

	"github.com/AndyXT/doccheck/internal/classify"
	"github.com/AndyXT/doccheck/internal/completeness"
	"github.com/AndyXT/doccheck/internal/config"
	"github.com/AndyXT/doccheck/internal/logging"
	"github.com/AndyXT/doccheck/internal/parser"
	"github.com/AndyXT/doccheck/internal/redundancy"
	"github.com/AndyXT/doccheck/internal/report"
	"github.com/AndyXT/doccheck/internal/store"
	"github.com/AndyXT/doccheck/internal/xref"
)

// Pipeline runs the full validation over one document root.
type Pipeline struct {
	cfg      *config.Config
	logger   logging.Logger
	parser   parser.DocumentParser
	compiler completeness.Compiler
}

// Option overrides a collaborator, mainly for tests.
type Option func(*Pipeline)

// WithParser substitutes the document parser collaborator.
func WithParser(p parser.DocumentParser) Option {
	return func(pl *Pipeline) { pl.parser = p }
}

// WithCompiler substitutes the compiler collaborator.
func WithCompiler(c completeness.Compiler) Option {
	return func(pl *Pipeline) { pl.compiler = c }
}

// New builds a pipeline with the shipped collaborators.
func New(cfg *config.Config, logger logging.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		logger:   logger,
		parser:   parser.NewDirParser(cfg.Manifest),
		compiler: completeness.NewExecCompiler(cfg.Compile.Commands, cfg.Compile.Timeout),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run loads the snapshot and executes every analysis. The four analyses
// read the same immutable store and run concurrently; the report builder
// re-sorts their merged findings so scheduling never changes the output.
// Run returns an error only for configuration problems or cancellation;
// validation defects land in the report instead.
func (p *Pipeline) Run(ctx context.Context, root string) (*report.Report, error) {
	timer := logging.StartOperation(p.logger, "validate")

	sections, err := p.parser.Load(ctx, root)
	if err != nil {
		timer.EndWithError(ctx, err)
		return nil, err
	}

	snapshot := store.New(sections, p.parser.InputErrors())
	p.logger.Info(ctx, "snapshot loaded",
		"sections", snapshot.Count(),
		"excluded", len(snapshot.InputErrors()),
	)

	builder := report.NewBuilder()
	builder.AddFindings(snapshot.InputFindings()...)

	classifier := classify.New()
	classifications, classifyFindings := classifier.Run(snapshot.All())
	builder.AddFindings(classifyFindings...)

	// The remaining analyses are independent reads of the frozen
	// snapshot; errors other than the redundancy cap are impossible.
	graph := xref.Build(snapshot)

	type result struct{ err error }
	done := make(chan result, 3)

	go func() {
		detector := redundancy.New(redundancy.Options{
			Threshold:   p.cfg.Redundancy.Threshold,
			NearExact:   p.cfg.Redundancy.NearExact,
			MinTokens:   p.cfg.Redundancy.MinTokens,
			MaxSections: p.cfg.Redundancy.MaxSections,
			Workers:     p.cfg.Redundancy.Workers,
		})
		pairs, findings, err := detector.Run(ctx, snapshot.All(), classifications)
		if err == nil {
			builder.SetPairs(pairs)
			builder.AddFindings(findings...)
		}
		done <- result{err: err}
	}()

	go func() {
		builder.AddFindings(graph.Validate()...)
		done <- result{}
	}()

	go func() {
		checker := completeness.New(p.compiler, p.cfg.Compile.Skip)
		blocks, findings := checker.Run(ctx, snapshot, graph)
		builder.SetBlocks(blocks)
		builder.AddFindings(findings...)
		done <- result{}
	}()

	var firstErr error
	for i := 0; i < 3; i++ {
		if r := <-done; r.err != nil && firstErr == nil {
			firstErr = r.err
		}
	}
	if firstErr != nil {
		timer.EndWithError(ctx, firstErr)
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		// Cancellation must leave no partial report behind.
		timer.EndWithError(ctx, err)
		return nil, err
	}

	builder.SetCounts(snapshot.Count(), len(graph.References()))
	rep := builder.Finalize()

	p.logger.Info(ctx, "validation finished",
		"status", string(rep.Status),
		"findings", rep.Summary.TotalFindings,
		"errors", rep.Summary.Errors,
	)
	timer.End(ctx)

	return rep, nil
}
