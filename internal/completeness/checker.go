// Package completeness cross-checks concept coverage and drives each
// code block through its compilation lifecycle.
//
// Concept coverage verifies that every C concept the book claims an
// equivalent for is actually documented somewhere reachable from the
// claim. The code lifecycle drives every block Untested -> terminal
// exactly once per run via an injected compiler collaborator, so the
// logic tests without a real toolchain.
package completeness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/AndyXT/doccheck/internal/store"
	"github.com/AndyXT/doccheck/internal/types"
	"github.com/AndyXT/doccheck/internal/xref"
)

// BlockResult records one code block's terminal state. Sections are
// immutable during a run, so results live beside the store instead of
// mutating it.
type BlockResult struct {
	SectionID string                  `json:"section"`
	Index     int                     `json:"index"`
	Language  string                  `json:"language"`
	Line      int                     `json:"line"`
	Status    types.CompilationStatus `json:"status"`
	Detail    string                  `json:"detail,omitempty"`
}

// Checker runs both completeness responsibilities over one snapshot.
type Checker struct {
	compiler    Compiler
	skipCompile bool
}

// New creates a completeness checker with the given compiler collaborator.
func New(compiler Compiler, skipCompile bool) *Checker {
	return &Checker{compiler: compiler, skipCompile: skipCompile}
}

// Run executes concept coverage and the code lifecycle, returning the
// block results and every finding. Per-block failures are isolated: one
// timeout never aborts the rest of the run.
func (c *Checker) Run(ctx context.Context, s *store.Store, graph *xref.Graph) ([]BlockResult, []types.Finding) {
	findings := c.checkConceptCoverage(s, graph)
	results, blockFindings := c.checkCodeBlocks(ctx, s)
	return results, append(findings, blockFindings...)
}

// checkConceptCoverage verifies every distinct c_equivalents label has a
// covering section reachable (over any reference type) from a section
// declaring the label. A section cannot cover its own claim.
func (c *Checker) checkConceptCoverage(s *store.Store, graph *xref.Graph) []types.Finding {
	declarers := make(map[string][]*types.Section)
	for _, section := range s.All() {
		for _, label := range section.CEquivalents {
			declarers[label] = append(declarers[label], section)
		}
	}

	labels := make([]string, 0, len(declarers))
	for label := range declarers {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var findings []types.Finding
	for _, label := range labels {
		covered := false
		for _, declarer := range declarers[label] {
			for target := range graph.Reachable(declarer.ID) {
				if target == declarer.ID {
					continue
				}
				section, ok := s.Get(target)
				if ok && covers(section, label) {
					covered = true
					break
				}
			}
			if covered {
				break
			}
		}
		if covered {
			continue
		}

		sections := make([]string, 0, len(declarers[label]))
		for _, declarer := range declarers[label] {
			sections = append(sections, declarer.ID)
		}
		sort.Strings(sections)

		findings = append(findings, types.Finding{
			Kind:     types.KindUncoveredConcept,
			Severity: types.SeverityWarning,
			Sections: sections,
			Message: fmt.Sprintf("C concept %q has no covering section reachable from its declaration",
				label),
		})
	}
	return findings
}

// covers reports whether a section documents the concept label: it
// either declares the same equivalence or discusses the label by name.
func covers(section *types.Section, label string) bool {
	for _, l := range section.CEquivalents {
		if l == label {
			return true
		}
	}
	needle := strings.ToLower(label)
	return strings.Contains(strings.ToLower(section.Title), needle) ||
		strings.Contains(strings.ToLower(section.Body), needle)
}

// checkCodeBlocks drives every block through its single lifecycle
// transition and converts terminal failures into findings. Severity
// depends on the author's claim: a declared-runnable block that fails is
// an Error, an illustrative fragment that fails is a Warning.
func (c *Checker) checkCodeBlocks(ctx context.Context, s *store.Store) ([]BlockResult, []types.Finding) {
	var results []BlockResult
	var findings []types.Finding

	for _, section := range s.All() {
		for i, block := range section.CodeBlocks {
			result := BlockResult{
				SectionID: section.ID,
				Index:     i,
				Language:  block.Language,
				Line:      block.Line,
				Status:    types.StatusUntested,
			}

			switch {
			case c.skipCompile:
				// No transition: compilation was excluded for this run.
			case !c.compiler.Supports(block.Language):
				// Languages without a checker are vacuously valid, but a
				// compilation claim we cannot verify deserves attention.
				result.Status = types.StatusValid
				if block.DeclaredRunnable {
					findings = append(findings, types.Finding{
						Kind:     types.KindBrokenExample,
						Severity: types.SeverityWarning,
						Sections: []string{section.ID},
						Message: fmt.Sprintf("block %d (%s, line %d) is declared runnable but no checker exists for %q",
							i, block.Language, block.Line, block.Language),
					})
				}
			default:
				verdict := c.compiler.Check(ctx, block.Language, block.Source)
				result.Status = verdict.Status
				result.Detail = verdict.Detail

				if verdict.Status != types.StatusValid {
					severity := types.SeverityWarning
					if block.DeclaredRunnable {
						severity = types.SeverityError
					}
					findings = append(findings, types.Finding{
						Kind:     types.KindBrokenExample,
						Severity: severity,
						Sections: []string{section.ID},
						Message: fmt.Sprintf("block %d (%s, line %d) ended %s",
							i, block.Language, block.Line, verdict.Status),
						Context: verdict.Detail,
					})
				}
			}

			results = append(results, result)
		}
	}

	return results, findings
}
