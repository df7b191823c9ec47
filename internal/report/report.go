// Package report aggregates every component's findings into a single
// deterministic validation report.
//
// Findings are re-sorted before serialization so two runs over identical
// input produce byte-identical output regardless of how the parallel
// analyses were scheduled. The report is finalized exactly once and is
// immutable afterward.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/AndyXT/doccheck/internal/completeness"
	"github.com/AndyXT/doccheck/internal/types"
)

// Status is the overall run verdict.
type Status string

const (
	// StatusPass means no findings above Info severity
	StatusPass Status = "pass"
	// StatusPassWithWarnings means warnings exist but nothing failed
	StatusPassWithWarnings Status = "pass-with-warnings"
	// StatusFail means at least one Error-severity finding exists
	StatusFail Status = "fail"
)

// Summary carries the counts readers scan before the finding list.
type Summary struct {
	Sections       int `json:"sections"`
	CodeBlocks     int `json:"code_blocks"`
	References     int `json:"references"`
	FlaggedPairs   int `json:"flagged_pairs"`
	TotalFindings  int `json:"total_findings"`
	Errors         int `json:"errors"`
	Warnings       int `json:"warnings"`
	Infos          int `json:"infos"`
	BlocksValid    int `json:"blocks_valid"`
	BlocksInvalid  int `json:"blocks_invalid"`
	BlocksTimeout  int `json:"blocks_timeout"`
	BlocksUntested int `json:"blocks_untested"`
}

// Report is the finalized validation outcome.
type Report struct {
	Status   Status                     `json:"status"`
	Summary  Summary                    `json:"summary"`
	Findings []types.Finding            `json:"findings"`
	Pairs    []types.SimilarityPair     `json:"similarity_pairs,omitempty"`
	Blocks   []completeness.BlockResult `json:"code_blocks,omitempty"`
}

// Builder collects findings from concurrently running components and
// finalizes them into an immutable Report.
type Builder struct {
	mu       sync.Mutex
	findings []types.Finding
	pairs    []types.SimilarityPair
	blocks   []completeness.BlockResult

	sections   int
	references int

	finalized bool
}

// NewBuilder creates an empty report builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddFindings appends findings from one component. Safe for concurrent use.
func (b *Builder) AddFindings(findings ...types.Finding) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finalized {
		panic("report: AddFindings after Finalize")
	}
	b.findings = append(b.findings, findings...)
}

// SetPairs records the flagged similarity pairs.
func (b *Builder) SetPairs(pairs []types.SimilarityPair) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pairs = pairs
}

// SetBlocks records the code block lifecycle results.
func (b *Builder) SetBlocks(blocks []completeness.BlockResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blocks = blocks
}

// SetCounts records store-level statistics for the summary.
func (b *Builder) SetCounts(sections, references int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sections = sections
	b.references = references
}

// Finalize sorts everything deterministically, computes the verdict, and
// returns the immutable report. The builder must not be reused.
func (b *Builder) Finalize() *Report {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.finalized = true

	findings := append([]types.Finding(nil), b.findings...)
	types.SortFindings(findings)

	blocks := append([]completeness.BlockResult(nil), b.blocks...)
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].SectionID != blocks[j].SectionID {
			return blocks[i].SectionID < blocks[j].SectionID
		}
		return blocks[i].Index < blocks[j].Index
	})

	summary := Summary{
		Sections:      b.sections,
		CodeBlocks:    len(blocks),
		References:    b.references,
		FlaggedPairs:  len(b.pairs),
		TotalFindings: len(findings),
	}
	for _, f := range findings {
		switch f.Severity {
		case types.SeverityError:
			summary.Errors++
		case types.SeverityWarning:
			summary.Warnings++
		default:
			summary.Infos++
		}
	}
	for _, block := range blocks {
		switch block.Status {
		case types.StatusValid:
			summary.BlocksValid++
		case types.StatusInvalid:
			summary.BlocksInvalid++
		case types.StatusTimeout:
			summary.BlocksTimeout++
		default:
			summary.BlocksUntested++
		}
	}

	status := StatusPass
	switch {
	case summary.Errors > 0:
		status = StatusFail
	case summary.Warnings > 0:
		status = StatusPassWithWarnings
	}

	return &Report{
		Status:   status,
		Summary:  summary,
		Findings: findings,
		Pairs:    b.pairs,
		Blocks:   blocks,
	}
}

// Failed reports whether the run should exit nonzero.
func (r *Report) Failed() bool {
	return r.Status == StatusFail
}

// WriteJSON serializes the report as indented JSON. Struct field order
// keeps the output stable; serializing twice yields identical bytes.
func (r *Report) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// WriteMarkdown renders the summary-table report format.
func (r *Report) WriteMarkdown(w io.Writer) error {
	var err error
	p := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	p("# Validation Report\n\n")
	p("**Status:** %s\n\n", r.Status)
	p("## Summary\n\n")
	p("| Metric | Value |\n|--------|-------|\n")
	p("| Sections | %d |\n", r.Summary.Sections)
	p("| Code blocks | %d |\n", r.Summary.CodeBlocks)
	p("| Cross-references | %d |\n", r.Summary.References)
	p("| Flagged duplicate pairs | %d |\n", r.Summary.FlaggedPairs)
	p("| Findings | %d (%d errors, %d warnings, %d info) |\n",
		r.Summary.TotalFindings, r.Summary.Errors, r.Summary.Warnings, r.Summary.Infos)
	p("| Blocks valid/invalid/timeout | %d/%d/%d |\n\n",
		r.Summary.BlocksValid, r.Summary.BlocksInvalid, r.Summary.BlocksTimeout)

	if len(r.Findings) > 0 {
		p("## Findings\n\n")
		p("| Severity | Kind | Sections | Message |\n|----------|------|----------|--------|\n")
		for _, f := range r.Findings {
			p("| %s | %s | %s | %s |\n",
				f.Severity, f.Kind, joinCells(f.Sections), escapeCell(f.Message))
		}
		p("\n")
	}

	return err
}

// Write serializes to the given path atomically, or to w when path is
// empty. The temp-file rename means an interrupted run leaves no partial
// report behind.
func (r *Report) Write(path, format string, w io.Writer) error {
	if path == "" {
		return r.writeTo(w, format)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".doccheck-report-*")
	if err != nil {
		return fmt.Errorf("cannot stage report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := r.writeTo(tmp, format); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (r *Report) writeTo(w io.Writer, format string) error {
	if format == "markdown" {
		return r.WriteMarkdown(w)
	}
	return r.WriteJSON(w)
}

func joinCells(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ", "
		}
		out += id
	}
	return out
}

func escapeCell(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '|':
			out = append(out, '\\', '|')
		case '\n':
			out = append(out, ' ')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
