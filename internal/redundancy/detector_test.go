package redundancy

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndyXT/doccheck/internal/errors"
	"github.com/AndyXT/doccheck/internal/types"
)

func testOptions() Options {
	return Options{
		Threshold:   0.7,
		NearExact:   0.9,
		MinTokens:   5,
		MaxSections: 100,
		Workers:     4,
	}
}

// wordRun builds a body of n distinct tokens.
func wordRun(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("tok%d", i)
	}
	return strings.Join(words, " ")
}

func conceptSection(id, body string) *types.Section {
	return &types.Section{ID: id, Title: id, ContentType: types.ContentConcept, Body: body}
}

func TestRunIdenticalBodiesScoreOne(t *testing.T) {
	body := wordRun(30)
	sections := []*types.Section{
		conceptSection("a", body),
		conceptSection("b", body),
	}

	pairs, findings, err := New(testOptions()).Run(context.Background(), sections, nil)
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	assert.Equal(t, "a", pairs[0].A)
	assert.Equal(t, "b", pairs[0].B)
	assert.Equal(t, 1.0, pairs[0].Score)
	assert.True(t, pairs[0].Flagged)

	require.Len(t, findings, 1)
	assert.Equal(t, types.KindPossibleDuplicate, findings[0].Kind)
	assert.Equal(t, types.SeverityWarning, findings[0].Severity)
	assert.Contains(t, findings[0].Message, "identical")
}

func TestRunReorderedTokensScoreOne(t *testing.T) {
	// Same token set in a different order is still an exact duplicate.
	sections := []*types.Section{
		conceptSection("a", "alpha beta gamma delta epsilon zeta"),
		conceptSection("b", "zeta epsilon delta gamma beta alpha"),
	}

	pairs, _, err := New(testOptions()).Run(context.Background(), sections, nil)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, 1.0, pairs[0].Score)
}

func TestRunNearExactBand(t *testing.T) {
	// 39 shared tokens, 1 unique each side: 39/41 overlap, above the
	// near-exact band but below identical.
	shared := wordRun(39)
	sections := []*types.Section{
		conceptSection("a", shared+" onlyina"),
		conceptSection("b", shared+" onlyinb"),
	}

	pairs, findings, err := New(testOptions()).Run(context.Background(), sections, nil)
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	assert.Greater(t, pairs[0].Score, 0.9)
	assert.Less(t, pairs[0].Score, 1.0)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "near-exact")
}

func TestRunBelowThresholdNotFlagged(t *testing.T) {
	sections := []*types.Section{
		conceptSection("a", wordRun(30)),
		conceptSection("b", "completely different prose about other things entirely here now"),
	}

	pairs, findings, err := New(testOptions()).Run(context.Background(), sections, nil)
	require.NoError(t, err)
	assert.Empty(t, pairs)
	assert.Empty(t, findings)
}

func TestRunIncompatibleTypesSkipped(t *testing.T) {
	body := wordRun(30)
	quickref := &types.Section{ID: "table", ContentType: types.ContentQuickReference, Body: body}
	concept := conceptSection("prose", body)

	pairs, _, err := New(testOptions()).Run(context.Background(), []*types.Section{quickref, concept}, nil)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestRunExampleAndPatternCompatible(t *testing.T) {
	body := wordRun(30)
	example := &types.Section{ID: "ex", ContentType: types.ContentExample, Body: body}
	pattern := &types.Section{ID: "pat", ContentType: types.ContentPattern, Body: body}

	pairs, _, err := New(testOptions()).Run(context.Background(), []*types.Section{example, pattern}, nil)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, 1.0, pairs[0].Score)
}

func TestRunShortSectionsExcluded(t *testing.T) {
	sections := []*types.Section{
		conceptSection("a", "tiny body"),
		conceptSection("b", "tiny body"),
	}

	pairs, _, err := New(testOptions()).Run(context.Background(), sections, nil)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestRunMaxSectionsCapFailsLoud(t *testing.T) {
	opts := testOptions()
	opts.MaxSections = 2
	sections := []*types.Section{
		conceptSection("a", wordRun(30)),
		conceptSection("b", wordRun(30)),
		conceptSection("c", wordRun(30)),
	}

	_, _, err := New(opts).Run(context.Background(), sections, nil)

	var cfgErr *errors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "redundancy.max_sections", cfgErr.Field)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sections := []*types.Section{
		conceptSection("a", wordRun(30)),
		conceptSection("b", wordRun(30)),
	}

	_, _, err := New(testOptions()).Run(ctx, sections, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunDeterministicAcrossSchedules(t *testing.T) {
	// Several duplicate clusters so multiple workers race on the jobs;
	// the merged output must not depend on completion order.
	body1 := wordRun(30)
	body2 := strings.ToUpper(wordRun(25)) + " distinct marker words here"
	sections := []*types.Section{
		conceptSection("d", body1),
		conceptSection("c", body1),
		conceptSection("b", body2),
		conceptSection("a", body2),
	}

	first, firstFindings, err := New(testOptions()).Run(context.Background(), sections, nil)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		pairs, findings, err := New(testOptions()).Run(context.Background(), sections, nil)
		require.NoError(t, err)
		assert.Equal(t, first, pairs)
		assert.Equal(t, firstFindings, findings)
	}
}

func TestRunInferredTypeUsedWhenUndeclared(t *testing.T) {
	body := wordRun(30)
	declared := conceptSection("a", body)
	undeclared := &types.Section{ID: "b", Body: body}
	cls := map[string]types.Classification{
		"b": {ContentType: types.ContentConcept},
	}

	pairs, _, err := New(testOptions()).Run(context.Background(), []*types.Section{declared, undeclared}, cls)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
}
