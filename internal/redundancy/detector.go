// Package redundancy computes pairwise similarity across sections and
// flags near-duplicates above a configured threshold.
//
// Similarity is Jaccard overlap of normalized token sets, so two sections
// with identical token sets always score 1.0. Pairs are only scored when
// their content types are compatible: a quick-reference table and a
// concept explanation are not duplicates even when they mention the same
// API. The O(n²) comparison work is partitioned across a worker pool;
// results are re-sorted before merging so scheduling never changes the
// output.
package redundancy

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/AndyXT/doccheck/internal/classify"
	"github.com/AndyXT/doccheck/internal/errors"
	"github.com/AndyXT/doccheck/internal/types"
)

// Options configure one detection run.
type Options struct {
	// Threshold is the score at or above which a pair is flagged
	Threshold float64
	// NearExact marks the band reported as near-exact duplication
	NearExact float64
	// MinTokens excludes short boilerplate sections from scoring
	MinTokens int
	// MaxSections is the loud-failure cap; the detector never samples
	MaxSections int
	// Workers bounds the comparison worker pool
	Workers int
}

// Detector flags near-duplicate section pairs.
type Detector struct {
	opts Options
}

// New creates a redundancy detector.
func New(opts Options) *Detector {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Detector{opts: opts}
}

// profile is the precomputed comparison view of one section.
type profile struct {
	id          string
	contentType types.ContentType
	tokens      map[string]struct{}
	fingerprint [32]byte
}

type pairJob struct {
	a, b *profile
}

// Run scores every compatible unordered pair and returns the flagged
// pairs plus their findings. Exceeding MaxSections is a configuration
// error: silently truncating the comparison space would hide duplicates.
func (d *Detector) Run(ctx context.Context, sections []*types.Section, cls map[string]types.Classification) ([]types.SimilarityPair, []types.Finding, error) {
	if len(sections) > d.opts.MaxSections {
		return nil, nil, errors.NewConfigurationError("redundancy.max_sections",
			fmt.Sprintf("store holds %d sections, cap is %d; raise --max-sections instead of sampling",
				len(sections), d.opts.MaxSections))
	}

	profiles := make([]*profile, 0, len(sections))
	for _, section := range sections {
		tokens := Tokenize(section.Body)
		if len(tokens) < d.opts.MinTokens {
			continue
		}
		set := TokenSet(tokens)
		profiles = append(profiles, &profile{
			id:          section.ID,
			contentType: classify.EffectiveType(section, cls),
			tokens:      set,
			fingerprint: Fingerprint(set),
		})
	}

	jobs := make(chan pairJob)
	results := make(chan types.SimilarityPair, d.opts.Workers)

	var wg sync.WaitGroup
	for i := 0; i < d.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- d.score(job.a, job.b)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < len(profiles); i++ {
			for j := i + 1; j < len(profiles); j++ {
				if !compatible(profiles[i].contentType, profiles[j].contentType) {
					continue
				}
				select {
				case jobs <- pairJob{a: profiles[i], b: profiles[j]}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var pairs []types.SimilarityPair
	for pair := range results {
		if pair.Flagged {
			pairs = append(pairs, pair)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	// Completion order depends on scheduling; the sort restores the
	// deterministic (A, B) ordering the report relies on.
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})

	return pairs, d.findings(pairs), nil
}

func (d *Detector) score(a, b *profile) types.SimilarityPair {
	first, second := types.OrderPair(a.id, b.id)

	var score float64
	if a.fingerprint == b.fingerprint {
		// Identical token sets always score 1.0 and are always flagged.
		score = 1.0
	} else {
		score = Jaccard(a.tokens, b.tokens)
	}

	return types.SimilarityPair{
		A:       first,
		B:       second,
		Score:   score,
		Flagged: score >= d.opts.Threshold,
	}
}

func (d *Detector) findings(pairs []types.SimilarityPair) []types.Finding {
	findings := make([]types.Finding, 0, len(pairs))
	for _, pair := range pairs {
		band := "similar"
		switch {
		case pair.Score >= 1.0:
			band = "identical"
		case pair.Score >= d.opts.NearExact:
			band = "near-exact"
		}
		findings = append(findings, types.Finding{
			Kind:     types.KindPossibleDuplicate,
			Severity: types.SeverityWarning,
			Sections: []string{pair.A, pair.B},
			Message: fmt.Sprintf("%s content: %.0f%% token overlap with %s; consider consolidating",
				band, pair.Score*100, pair.B),
		})
	}
	return findings
}

// compatible reports whether two content types are close enough that
// overlapping prose counts as duplication. Examples and patterns both
// carry code-idiom content and regularly restate each other.
func compatible(a, b types.ContentType) bool {
	if a == b {
		return true
	}
	codeLike := func(ct types.ContentType) bool {
		return ct == types.ContentExample || ct == types.ContentPattern
	}
	return codeLike(a) && codeLike(b)
}
