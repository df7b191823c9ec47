package completeness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndyXT/doccheck/internal/store"
	"github.com/AndyXT/doccheck/internal/types"
	"github.com/AndyXT/doccheck/internal/xref"
)

// fakeCompiler is the test double for the compiler collaborator. Verdicts
// are keyed by block source so each block's fate is scripted exactly.
type fakeCompiler struct {
	languages map[string]bool
	verdicts  map[string]Verdict
	calls     int
}

func (f *fakeCompiler) Supports(language string) bool {
	return f.languages[language]
}

func (f *fakeCompiler) Check(_ context.Context, _, source string) Verdict {
	f.calls++
	if v, ok := f.verdicts[source]; ok {
		return v
	}
	return Verdict{Status: types.StatusValid}
}

func rustCompiler() *fakeCompiler {
	return &fakeCompiler{
		languages: map[string]bool{"rust": true},
		verdicts:  map[string]Verdict{},
	}
}

func buildGraph(sections ...*types.Section) (*store.Store, *xref.Graph) {
	s := store.New(sections, nil)
	return s, xref.Build(s)
}

func byKind(findings []types.Finding, kind types.FindingKind) []types.Finding {
	var out []types.Finding
	for _, f := range findings {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

func TestRunValidBlocksNoFindings(t *testing.T) {
	s, g := buildGraph(&types.Section{
		ID: "ex", Title: "Example",
		CodeBlocks: []types.CodeBlock{
			{Language: "rust", Source: "fn main() {}", Status: types.StatusUntested, DeclaredRunnable: true, Line: 3},
		},
	})

	compiler := rustCompiler()
	results, findings := New(compiler, false).Run(context.Background(), s, g)

	require.Len(t, results, 1)
	assert.Equal(t, types.StatusValid, results[0].Status)
	assert.Equal(t, "ex", results[0].SectionID)
	assert.Equal(t, 1, compiler.calls)
	assert.Empty(t, byKind(findings, types.KindBrokenExample))
}

func TestRunRunnableFailureIsError(t *testing.T) {
	compiler := rustCompiler()
	compiler.verdicts["broken"] = Verdict{Status: types.StatusInvalid, Detail: "mismatched types"}

	s, g := buildGraph(&types.Section{
		ID: "ex", Title: "Example",
		CodeBlocks: []types.CodeBlock{
			{Language: "rust", Source: "broken", Status: types.StatusUntested, DeclaredRunnable: true, Line: 7},
		},
	})

	results, findings := New(compiler, false).Run(context.Background(), s, g)

	require.Len(t, results, 1)
	assert.Equal(t, types.StatusInvalid, results[0].Status)
	assert.Equal(t, "mismatched types", results[0].Detail)

	broken := byKind(findings, types.KindBrokenExample)
	require.Len(t, broken, 1)
	assert.Equal(t, types.SeverityError, broken[0].Severity)
	assert.Contains(t, broken[0].Message, "line 7")
}

func TestRunIllustrativeFailureIsWarning(t *testing.T) {
	compiler := rustCompiler()
	compiler.verdicts["fragment"] = Verdict{Status: types.StatusInvalid, Detail: "incomplete"}

	s, g := buildGraph(&types.Section{
		ID: "ex", Title: "Example",
		CodeBlocks: []types.CodeBlock{
			{Language: "rust", Source: "fragment", Status: types.StatusUntested, DeclaredRunnable: false, Line: 1},
		},
	})

	_, findings := New(compiler, false).Run(context.Background(), s, g)

	broken := byKind(findings, types.KindBrokenExample)
	require.Len(t, broken, 1)
	assert.Equal(t, types.SeverityWarning, broken[0].Severity)
}

func TestRunTimeoutIsTerminal(t *testing.T) {
	compiler := rustCompiler()
	compiler.verdicts["slow"] = Verdict{Status: types.StatusTimeout, Detail: "checker exceeded deadline"}

	s, g := buildGraph(&types.Section{
		ID: "ex", Title: "Example",
		CodeBlocks: []types.CodeBlock{
			{Language: "rust", Source: "slow", Status: types.StatusUntested, DeclaredRunnable: true, Line: 1},
		},
	})

	results, findings := New(compiler, false).Run(context.Background(), s, g)

	require.Len(t, results, 1)
	assert.Equal(t, types.StatusTimeout, results[0].Status)
	assert.True(t, results[0].Status.Terminal())

	broken := byKind(findings, types.KindBrokenExample)
	require.Len(t, broken, 1)
	assert.Contains(t, broken[0].Message, "timeout")
}

func TestRunUnsupportedLanguage(t *testing.T) {
	s, g := buildGraph(&types.Section{
		ID: "ex", Title: "Example",
		CodeBlocks: []types.CodeBlock{
			{Language: "haskell", Source: "main = ()", Status: types.StatusUntested, DeclaredRunnable: true, Line: 1},
			{Language: "text", Source: "just prose", Status: types.StatusUntested, DeclaredRunnable: false, Line: 5},
		},
	})

	compiler := rustCompiler()
	results, findings := New(compiler, false).Run(context.Background(), s, g)

	require.Len(t, results, 2)
	assert.Equal(t, types.StatusValid, results[0].Status)
	assert.Equal(t, types.StatusValid, results[1].Status)
	assert.Equal(t, 0, compiler.calls)

	// Only the runnable claim without a checker gets flagged.
	broken := byKind(findings, types.KindBrokenExample)
	require.Len(t, broken, 1)
	assert.Equal(t, types.SeverityWarning, broken[0].Severity)
	assert.Contains(t, broken[0].Message, `"haskell"`)
}

func TestRunSkipCompileLeavesUntested(t *testing.T) {
	s, g := buildGraph(&types.Section{
		ID: "ex", Title: "Example",
		CodeBlocks: []types.CodeBlock{
			{Language: "rust", Source: "fn main() {}", Status: types.StatusUntested, DeclaredRunnable: true, Line: 1},
		},
	})

	compiler := rustCompiler()
	results, findings := New(compiler, true).Run(context.Background(), s, g)

	require.Len(t, results, 1)
	assert.Equal(t, types.StatusUntested, results[0].Status)
	assert.Equal(t, 0, compiler.calls)
	assert.Empty(t, byKind(findings, types.KindBrokenExample))
}

func TestConceptCoveredByReachableSection(t *testing.T) {
	declarer := &types.Section{
		ID: "ptrs", Title: "From Pointers",
		CEquivalents: []string{"function pointers"},
		Body:         "See [closures](#closures-in-depth) for the replacement.",
	}
	coverer := &types.Section{
		ID: "closures", Title: "Closures In Depth",
		Body: "Closures replace function pointers in most APIs.",
	}

	s, g := buildGraph(declarer, coverer)
	_, findings := New(rustCompiler(), true).Run(context.Background(), s, g)

	assert.Empty(t, byKind(findings, types.KindUncoveredConcept))
}

func TestConceptUncovered(t *testing.T) {
	declarer := &types.Section{
		ID: "ptrs", Title: "From Pointers",
		CEquivalents: []string{"function pointers"},
		Body:         "No outgoing links at all.",
	}
	unrelated := &types.Section{
		ID: "other", Title: "Other", Body: "nothing relevant",
	}

	s, g := buildGraph(declarer, unrelated)
	_, findings := New(rustCompiler(), true).Run(context.Background(), s, g)

	uncovered := byKind(findings, types.KindUncoveredConcept)
	require.Len(t, uncovered, 1)
	assert.Equal(t, types.SeverityWarning, uncovered[0].Severity)
	assert.Equal(t, []string{"ptrs"}, uncovered[0].Sections)
	assert.Contains(t, uncovered[0].Message, `"function pointers"`)
}

func TestConceptSelfMentionDoesNotCover(t *testing.T) {
	// A section cannot cover its own claim by mentioning the label.
	declarer := &types.Section{
		ID: "ptrs", Title: "Function Pointers",
		CEquivalents: []string{"function pointers"},
		Body:         "We discuss function pointers here but link nowhere.",
	}

	s, g := buildGraph(declarer)
	_, findings := New(rustCompiler(), true).Run(context.Background(), s, g)

	require.Len(t, byKind(findings, types.KindUncoveredConcept), 1)
}

func TestConceptCoveredBySharedDeclaration(t *testing.T) {
	// Reaching another section declaring the same equivalence counts.
	a := &types.Section{
		ID: "a", Title: "A Title",
		CEquivalents: []string{"macros"},
		Body:         "See [b](#b-title).",
	}
	b := &types.Section{
		ID: "b", Title: "B Title",
		CEquivalents: []string{"macros"},
		Body:         "unrelated prose",
	}

	s, g := buildGraph(a, b)
	_, findings := New(rustCompiler(), true).Run(context.Background(), s, g)

	assert.Empty(t, byKind(findings, types.KindUncoveredConcept))
}

func TestUncoveredConceptListsAllDeclarers(t *testing.T) {
	a := &types.Section{ID: "za", Title: "Za", CEquivalents: []string{"unions"}, Body: "x"}
	b := &types.Section{ID: "ab", Title: "Ab", CEquivalents: []string{"unions"}, Body: "y"}

	s, g := buildGraph(a, b)
	_, findings := New(rustCompiler(), true).Run(context.Background(), s, g)

	uncovered := byKind(findings, types.KindUncoveredConcept)
	require.Len(t, uncovered, 1)
	assert.Equal(t, []string{"ab", "za"}, uncovered[0].Sections)
}
