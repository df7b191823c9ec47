// Package classify assigns each section a content type and audience
// level from heuristics over its title, body, and code block languages.
//
// Classification is a pure function of the section: the same input always
// yields the same assignment, and score ties are broken by a fixed
// category precedence so reports are deterministic across runs.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AndyXT/doccheck/internal/types"
)

// ConfidenceFloor is the confidence below which a classification is
// surfaced for human review instead of being silently accepted.
const ConfidenceFloor = 0.5

var (
	arrowPattern = regexp.MustCompile(`\S+\s*(?:→|->)\s*\S+`)
	tableRow     = regexp.MustCompile(`(?m)^\s*\|.+\|\s*$`)
	mathOperator = regexp.MustCompile(`[=+*^×÷∑∏√≈≤≥]|\bmod\b|\bxor\b`)
)

// keywords per category, matched case-insensitively against title and body.
// Title hits are weighted heavier than body hits.
var categoryKeywords = map[types.ContentType][]string{
	types.ContentQuickReference: {"quick reference", "cheat sheet", "lookup", "at a glance", "comparison table"},
	types.ContentSecurity:       {"security", "constant-time", "side-channel", "zeroize", "key material", "timing attack", "vulnerability", "secret"},
	types.ContentTypeSystem:     {"enum", "trait", "struct", "generic", "lifetime", "type system", "newtype", "phantom"},
	types.ContentFunctional:     {"iterator", "closure", "map", "filter", "fold", "higher-order", "functional", "combinator"},
	types.ContentPattern:        {"pattern", "idiom", "raii", "builder", "state machine", "typestate"},
	types.ContentExample:        {"example", "walkthrough", "complete program", "demo"},
	types.ContentMigration:      {"migration", "porting", "c to rust", "convert", "translate", "equivalent"},
	types.ContentConcept:        {"ownership", "borrowing", "concept", "understanding", "introduction", "overview", "why"},
	types.ContentMathematics:    {"modular", "arithmetic", "polynomial", "field", "galois", "theorem", "equation"},
}

// Classifier scores sections against the closed category set.
type Classifier struct{}

// New creates a content classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify assigns a content type and audience level with a confidence
// value. It reads only the section and has no side effects.
func (c *Classifier) Classify(section *types.Section) types.Classification {
	scores := c.score(section)

	// Fixed precedence order breaks ties deterministically.
	best := types.ContentConcept
	bestScore := 0.0
	total := 0.0
	for _, ct := range types.ContentTypes {
		score := scores[ct]
		total += score
		if score > bestScore {
			best = ct
			bestScore = score
		}
	}

	confidence := 0.0
	if total > 0 {
		confidence = bestScore / total
	}
	if bestScore == 0 {
		// Nothing matched at all: fall back to Concept with no confidence.
		best = types.ContentConcept
	}

	return types.Classification{
		ContentType:   best,
		AudienceLevel: c.audience(section),
		Confidence:    confidence,
	}
}

func (c *Classifier) score(section *types.Section) map[types.ContentType]float64 {
	title := strings.ToLower(section.Title)
	body := strings.ToLower(section.Body)
	scores := make(map[types.ContentType]float64, len(types.ContentTypes))

	for ct, words := range categoryKeywords {
		for _, word := range words {
			if strings.Contains(title, word) {
				scores[ct] += 3
			}
			scores[ct] += float64(strings.Count(body, word))
		}
	}

	// A tabular "X → Y" lookup layout strongly suggests a quick reference.
	arrows := len(arrowPattern.FindAllString(section.Body, -1))
	rows := len(tableRow.FindAllString(section.Body, -1))
	if arrows+rows >= 4 {
		scores[types.ContentQuickReference] += float64(arrows + rows)
	}

	// Mathematical operator density over prose length.
	words := len(strings.Fields(body))
	if words > 0 {
		ops := len(mathOperator.FindAllString(body, -1))
		density := float64(ops) / float64(words)
		if density > 0.05 {
			scores[types.ContentMathematics] += density * 100
		}
	}

	// Heavy code presence nudges toward Example.
	if len(section.CodeBlocks) >= 3 {
		scores[types.ContentExample] += float64(len(section.CodeBlocks))
	}

	return scores
}

func (c *Classifier) audience(section *types.Section) types.AudienceLevel {
	title := strings.ToLower(section.Title)
	body := strings.ToLower(section.Body)

	advanced := 0
	for _, word := range []string{"unsafe", "dma", "interrupt", "linker", "inline assembly", "advanced", "internals"} {
		advanced += strings.Count(body, word)
		if strings.Contains(title, word) {
			advanced += 3
		}
	}
	if advanced >= 3 {
		return types.AudienceAdvanced
	}

	// Lookup-style content targets readers who need an answer immediately.
	if strings.Contains(title, "quick") || strings.Contains(title, "reference") {
		return types.AudienceImmediate
	}
	if len(section.Prerequisites) == 0 && len(section.CodeBlocks) <= 1 {
		return types.AudienceImmediate
	}

	return types.AudienceFoundational
}

// Run classifies every section and returns the effective classification
// per section ID plus the findings: low-confidence assignments on
// undeclared sections and declared-vs-inferred mismatches, both advisory.
// A declared content type wins downstream regardless of confidence, so
// the low-confidence nudge only fires when the inference is load-bearing.
func (c *Classifier) Run(sections []*types.Section) (map[string]types.Classification, []types.Finding) {
	results := make(map[string]types.Classification, len(sections))
	var findings []types.Finding

	for _, section := range sections {
		cls := c.Classify(section)
		results[section.ID] = cls

		if section.ContentType == "" && cls.Confidence < ConfidenceFloor {
			findings = append(findings, types.Finding{
				Kind:     types.KindAmbiguousClassification,
				Severity: types.SeverityInfo,
				Sections: []string{section.ID},
				Message: fmt.Sprintf("classification %s is low-confidence; review content type manually",
					cls),
			})
		}

		if section.ContentType != "" && section.ContentType != cls.ContentType {
			findings = append(findings, types.Finding{
				Kind:     types.KindClassificationMismatch,
				Severity: types.SeverityInfo,
				Sections: []string{section.ID},
				Message: fmt.Sprintf("declared content type %q but content reads as %q",
					section.ContentType, cls.ContentType),
			})
		}
	}

	return results, findings
}

// EffectiveType returns the declared content type when present, falling
// back to the inferred classification. Downstream compatibility checks
// (redundancy pairing) use this, never the raw declaration alone.
func EffectiveType(section *types.Section, cls map[string]types.Classification) types.ContentType {
	if section.ContentType != "" {
		return section.ContentType
	}
	if c, ok := cls[section.ID]; ok {
		return c.ContentType
	}
	return types.ContentConcept
}
