// Package types provides common type definitions used throughout the doccheck CLI.
// This package contains shared types to avoid circular dependencies between packages.
package types

import "fmt"

// ContentType classifies what kind of documentation a section contains.
// The set is closed: anything outside it is rejected at load time.
type ContentType string

const (
	ContentQuickReference ContentType = "quick-reference"
	ContentConcept        ContentType = "concept"
	ContentPattern        ContentType = "pattern"
	ContentExample        ContentType = "example"
	ContentMigration      ContentType = "migration"
	ContentSecurity       ContentType = "security"
	ContentTypeSystem     ContentType = "type-system"
	ContentFunctional     ContentType = "functional"
	ContentMathematics    ContentType = "mathematics"
)

// ContentTypes lists every valid content type in classifier precedence order.
// Ties during classification are broken by position in this slice, which keeps
// classification deterministic across runs.
var ContentTypes = []ContentType{
	ContentQuickReference,
	ContentSecurity,
	ContentTypeSystem,
	ContentFunctional,
	ContentPattern,
	ContentExample,
	ContentMigration,
	ContentConcept,
	ContentMathematics,
}

// Valid reports whether ct is a member of the closed content type set.
func (ct ContentType) Valid() bool {
	for _, known := range ContentTypes {
		if ct == known {
			return true
		}
	}
	return false
}

// AudienceLevel describes which readers a section is written for.
type AudienceLevel string

const (
	AudienceImmediate    AudienceLevel = "immediate"
	AudienceFoundational AudienceLevel = "foundational"
	AudienceAdvanced     AudienceLevel = "advanced"
)

// Valid reports whether al is a member of the closed audience level set.
func (al AudienceLevel) Valid() bool {
	switch al {
	case AudienceImmediate, AudienceFoundational, AudienceAdvanced:
		return true
	}
	return false
}

// CompilationStatus tracks a code block through its per-run lifecycle.
// Untested is the only initial state; the other three are terminal and a
// block transitions exactly once per run.
type CompilationStatus string

const (
	StatusUntested CompilationStatus = "untested"
	StatusValid    CompilationStatus = "valid"
	StatusInvalid  CompilationStatus = "invalid"
	StatusTimeout  CompilationStatus = "timeout"
)

// Terminal reports whether s is a terminal compilation state.
func (s CompilationStatus) Terminal() bool {
	switch s {
	case StatusValid, StatusInvalid, StatusTimeout:
		return true
	}
	return false
}

// ReferenceType describes the relationship a cross-reference asserts
// between its source and target sections.
type ReferenceType string

const (
	RefSeeAlso      ReferenceType = "see-also"
	RefPrerequisite ReferenceType = "prerequisite"
	RefDetailedIn   ReferenceType = "detailed-in"
	RefExampleIn    ReferenceType = "example-in"
)

// CodeBlock is a fenced code example owned by exactly one section.
type CodeBlock struct {
	// Language is the fence info-string language tag (e.g. "rust", "toml")
	Language string
	// Source is the verbatim block content
	Source string
	// Status is the compilation lifecycle state, Untested at load time
	Status CompilationStatus
	// DeclaredRunnable is true when the author claims the block compiles
	DeclaredRunnable bool
	// Line is the 1-based line of the opening fence in the source file
	Line int
	// Detail carries compiler output for Invalid blocks, empty otherwise
	Detail string
}

// Section is a titled unit of documentation content with metadata and
// code examples. Sections are immutable once the store is frozen.
type Section struct {
	// ID is the stable path-derived key, unique across the store
	ID string
	// Title is the human-readable heading
	Title string
	// ContentType is the declared (or classified) content category
	ContentType ContentType
	// AudienceLevel is the declared reader level
	AudienceLevel AudienceLevel
	// Prerequisites lists section IDs that must be read first, in order
	Prerequisites []string
	// CEquivalents names the C concepts this section claims to cover
	CEquivalents []string
	// SecurityNotes carries author-declared security caveats, in order
	SecurityNotes []string
	// Body is the section prose with code fences removed
	Body string
	// CodeBlocks holds the section's fenced examples in document order
	CodeBlocks []CodeBlock
	// SourcePath is the file the section was loaded from
	SourcePath string
	// ManifestIndex is the section's position in the manifest ordering
	ManifestIndex int
}

// CrossReference is a directed, typed link from one section to another.
type CrossReference struct {
	Source  string
	Target  string
	Type    ReferenceType
	Context string
}

// SimilarityPair records the similarity score of one unordered section pair.
// A is always lexicographically smaller than B so each pair appears once.
type SimilarityPair struct {
	A       string
	B       string
	Score   float64
	Flagged bool
}

// OrderPair normalizes section IDs into the (A < B) ordering invariant.
func OrderPair(x, y string) (a, b string) {
	if x < y {
		return x, y
	}
	return y, x
}

// Classification is the content classifier's output for one section.
type Classification struct {
	ContentType   ContentType
	AudienceLevel AudienceLevel
	Confidence    float64
}

func (c Classification) String() string {
	return fmt.Sprintf("%s/%s (%.2f)", c.ContentType, c.AudienceLevel, c.Confidence)
}
