package xref

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AndyXT/doccheck/internal/store"
	"github.com/AndyXT/doccheck/internal/types"
)

// Graph is the directed cross-reference graph over one store snapshot.
type Graph struct {
	store *store.Store
	refs  []types.CrossReference

	// outbound and inbound index resolvable edges by section ID
	outbound map[string][]types.CrossReference
	inbound  map[string][]types.CrossReference
}

// Build constructs the graph from every extractable reference plus the
// explicit prerequisites lists.
func Build(s *store.Store) *Graph {
	g := &Graph{
		store:    s,
		refs:     ExtractAll(s),
		outbound: make(map[string][]types.CrossReference),
		inbound:  make(map[string][]types.CrossReference),
	}
	for _, ref := range g.refs {
		g.outbound[ref.Source] = append(g.outbound[ref.Source], ref)
		if s.Contains(ref.Target) {
			g.inbound[ref.Target] = append(g.inbound[ref.Target], ref)
		}
	}
	return g
}

// References returns every extracted reference, resolvable or not.
func (g *Graph) References() []types.CrossReference {
	out := make([]types.CrossReference, len(g.refs))
	copy(out, g.refs)
	return out
}

// Reachable runs a breadth-first traversal from a section over every
// edge type and returns the set of section IDs it can reach, excluding
// the start itself unless a cycle leads back to it.
func (g *Graph) Reachable(from string) map[string]struct{} {
	reached := make(map[string]struct{})
	queue := []string{from}
	seen := map[string]struct{}{from: {}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, ref := range g.outbound[current] {
			if !g.store.Contains(ref.Target) {
				continue
			}
			if _, visited := seen[ref.Target]; visited {
				continue
			}
			seen[ref.Target] = struct{}{}
			reached[ref.Target] = struct{}{}
			queue = append(queue, ref.Target)
		}
	}
	return reached
}

// Validate runs every graph check in one pass and reports all violations.
// It never stops at the first defect: callers need the full list.
func (g *Graph) Validate() []types.Finding {
	var findings []types.Finding
	findings = append(findings, g.checkDangling()...)
	findings = append(findings, g.checkPrerequisiteCycles()...)
	findings = append(findings, g.checkUnmirroredPrerequisites()...)
	findings = append(findings, g.checkOrphans()...)
	findings = append(findings, g.checkAsymmetricSeeAlso()...)
	return findings
}

func (g *Graph) checkDangling() []types.Finding {
	var findings []types.Finding
	for _, ref := range g.refs {
		if g.store.Contains(ref.Target) {
			continue
		}
		findings = append(findings, types.Finding{
			Kind:     types.KindDanglingReference,
			Severity: types.SeverityError,
			Sections: []string{ref.Source, ref.Target},
			Message:  fmt.Sprintf("reference to %q does not resolve to any section", ref.Target),
			Context:  ref.Context,
		})
	}
	return findings
}

// checkPrerequisiteCycles detects cycles in the subgraph restricted to
// Prerequisite edges using depth-first traversal with a recursion-stack
// set. The first node re-encountered on the stack defines the cycle, and
// the full path is reported for debuggability.
func (g *Graph) checkPrerequisiteCycles() []types.Finding {
	adjacency := make(map[string][]string)
	for _, ref := range g.refs {
		if ref.Type != types.RefPrerequisite || !g.store.Contains(ref.Target) {
			continue
		}
		adjacency[ref.Source] = append(adjacency[ref.Source], ref.Target)
	}
	for id := range adjacency {
		sort.Strings(adjacency[id])
	}

	roots := make([]string, 0, len(adjacency))
	for id := range adjacency {
		roots = append(roots, id)
	}
	sort.Strings(roots)

	var findings []types.Finding
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	reported := make(map[string]bool)
	var stack []string

	var visit func(node string)
	visit = func(node string) {
		visited[node] = true
		onStack[node] = true
		stack = append(stack, node)

		for _, next := range adjacency[node] {
			if onStack[next] {
				cycle := extractCycle(stack, next)
				key := cycleKey(cycle)
				if !reported[key] {
					reported[key] = true
					findings = append(findings, types.Finding{
						Kind:     types.KindPrerequisiteCycle,
						Severity: types.SeverityError,
						Sections: cycle[:len(cycle)-1],
						Message:  "prerequisite cycle: " + strings.Join(cycle, " -> "),
					})
				}
				continue
			}
			if !visited[next] {
				visit(next)
			}
		}

		stack = stack[:len(stack)-1]
		onStack[node] = false
	}

	for _, root := range roots {
		if !visited[root] {
			visit(root)
		}
	}
	return findings
}

// extractCycle slices the recursion stack from the re-encountered node
// and closes the loop, e.g. [a b a].
func extractCycle(stack []string, reentry string) []string {
	start := 0
	for i, node := range stack {
		if node == reentry {
			start = i
			break
		}
	}
	cycle := append([]string(nil), stack[start:]...)
	return append(cycle, reentry)
}

// cycleKey canonicalizes a cycle so each one is reported exactly once
// regardless of which node the traversal entered it from.
func cycleKey(cycle []string) string {
	nodes := cycle[:len(cycle)-1]
	minIdx := 0
	for i, node := range nodes {
		if node < nodes[minIdx] {
			minIdx = i
		}
	}
	rotated := make([]string, 0, len(nodes))
	for i := 0; i < len(nodes); i++ {
		rotated = append(rotated, nodes[(minIdx+i)%len(nodes)])
	}
	return strings.Join(rotated, "\x00")
}

// checkUnmirroredPrerequisites flags Prerequisite-typed body links whose
// target is missing from the source's declared prerequisites list. The
// declared list is what the cycle check and readers rely on, so the two
// must agree.
func (g *Graph) checkUnmirroredPrerequisites() []types.Finding {
	declared := make(map[string]map[string]struct{})
	for _, section := range g.store.All() {
		set := make(map[string]struct{}, len(section.Prerequisites))
		for _, p := range section.Prerequisites {
			set[p] = struct{}{}
		}
		declared[section.ID] = set
	}

	var findings []types.Finding
	seen := make(map[string]bool)
	for _, ref := range g.refs {
		if ref.Type != types.RefPrerequisite || ref.Context == "declared prerequisite" {
			continue
		}
		if _, ok := declared[ref.Source][ref.Target]; ok {
			continue
		}
		key := ref.Source + "\x00" + ref.Target
		if seen[key] {
			continue
		}
		seen[key] = true
		findings = append(findings, types.Finding{
			Kind:     types.KindUnmirroredPrerequisite,
			Severity: types.SeverityWarning,
			Sections: []string{ref.Source, ref.Target},
			Message: fmt.Sprintf("body names %q as a prerequisite but the front matter does not declare it",
				ref.Target),
			Context: ref.Context,
		})
	}
	return findings
}

// checkOrphans flags sections nothing links to. The manifest-first
// section is the tree root and exempt; everything else with zero inbound
// references may still be intentionally top-level, hence Warning.
func (g *Graph) checkOrphans() []types.Finding {
	var findings []types.Finding
	first := g.store.First()

	for _, section := range g.store.All() {
		if first != nil && section.ID == first.ID {
			continue
		}
		if len(g.inbound[section.ID]) > 0 {
			continue
		}
		findings = append(findings, types.Finding{
			Kind:     types.KindOrphanedSection,
			Severity: types.SeverityWarning,
			Sections: []string{section.ID},
			Message:  "no other section links here; add a cross-reference or confirm it is intentionally top-level",
		})
	}
	return findings
}

// checkAsymmetricSeeAlso reports one-way SeeAlso edges at Info severity.
// Directional hints are legitimate; authors just get a nudge to consider
// symmetry.
func (g *Graph) checkAsymmetricSeeAlso() []types.Finding {
	seeAlso := make(map[string]bool)
	for _, ref := range g.refs {
		if ref.Type == types.RefSeeAlso && g.store.Contains(ref.Target) {
			seeAlso[ref.Source+"\x00"+ref.Target] = true
		}
	}

	var findings []types.Finding
	reported := make(map[string]bool)
	for _, ref := range g.refs {
		if ref.Type != types.RefSeeAlso || !g.store.Contains(ref.Target) {
			continue
		}
		key := ref.Source + "\x00" + ref.Target
		if reported[key] || seeAlso[ref.Target+"\x00"+ref.Source] {
			continue
		}
		reported[key] = true
		findings = append(findings, types.Finding{
			Kind:     types.KindAsymmetricSeeAlso,
			Severity: types.SeverityInfo,
			Sections: []string{ref.Source, ref.Target},
			Message:  fmt.Sprintf("see-also link to %q is one-way; consider a reciprocal link", ref.Target),
		})
	}
	return findings
}
