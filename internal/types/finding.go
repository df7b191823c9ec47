package types

import (
	"fmt"
	"sort"
	"strings"
)

// Severity grades a finding. Findings are never fatal; severity only
// determines the report verdict and exit code.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes the severity as its string form so reports stay
// readable and stable across refactors of the underlying constants.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// FindingKind identifies which check produced a finding.
type FindingKind string

const (
	KindAmbiguousClassification FindingKind = "AmbiguousClassification"
	KindClassificationMismatch  FindingKind = "ClassificationMismatch"
	KindPossibleDuplicate       FindingKind = "PossibleDuplicate"
	KindDanglingReference       FindingKind = "DanglingReference"
	KindPrerequisiteCycle       FindingKind = "PrerequisiteCycle"
	KindOrphanedSection         FindingKind = "OrphanedSection"
	KindAsymmetricSeeAlso       FindingKind = "AsymmetricSeeAlso"
	KindUnmirroredPrerequisite  FindingKind = "UnmirroredPrerequisite"
	KindUncoveredConcept        FindingKind = "UncoveredConcept"
	KindBrokenExample           FindingKind = "BrokenExample"
	KindMalformedSection        FindingKind = "MalformedSection"
)

// Finding is a single validation outcome attached to one or more sections.
type Finding struct {
	Kind     FindingKind `json:"kind"`
	Severity Severity    `json:"severity"`
	// Sections lists every section ID involved, primary first
	Sections []string `json:"sections"`
	// Message is the human-readable description
	Message string `json:"message"`
	// Context is the surrounding text snippet, when one exists
	Context string `json:"context,omitempty"`
}

// PrimarySection returns the first involved section, or "" for
// store-wide findings.
func (f Finding) PrimarySection() string {
	if len(f.Sections) == 0 {
		return ""
	}
	return f.Sections[0]
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s: %s: %s",
		f.Severity, f.Kind, strings.Join(f.Sections, ","), f.Message)
}

// SortFindings orders findings deterministically: by primary section ID,
// then kind, then severity, then message. Two runs over identical input
// must produce byte-identical reports, so every merge re-sorts with this.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if sa, sb := a.PrimarySection(), b.PrimarySection(); sa != sb {
			return sa < sb
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Severity != b.Severity {
			return a.Severity < b.Severity
		}
		return a.Message < b.Message
	})
}
