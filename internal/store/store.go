// Package store holds the immutable section snapshot a validation run
// analyzes. The store is built once from the document parser's output and
// never mutated afterward, so every analysis component can read it
// concurrently without locking.
package store

import (
	"fmt"

	"github.com/AndyXT/doccheck/internal/errors"
	"github.com/AndyXT/doccheck/internal/types"
)

// Store is the read-only section snapshot for one validation run.
type Store struct {
	byID    map[string]*types.Section
	ordered []*types.Section
	inputs  []errors.InputError
}

// New builds a store from parsed sections, enforcing ID uniqueness.
// A duplicate ID demotes the later section to an input error; the first
// occurrence wins because manifest order is authoritative. Parser-level
// input errors are carried through so the report can surface them.
func New(sections []*types.Section, inputErrs []errors.InputError) *Store {
	s := &Store{
		byID:   make(map[string]*types.Section, len(sections)),
		inputs: append([]errors.InputError(nil), inputErrs...),
	}

	for _, section := range sections {
		if _, exists := s.byID[section.ID]; exists {
			s.inputs = append(s.inputs, errors.InputError{
				SectionID:  section.ID,
				SourcePath: section.SourcePath,
				Message:    fmt.Sprintf("duplicate section id %q", section.ID),
			})
			continue
		}
		s.byID[section.ID] = section
		s.ordered = append(s.ordered, section)
	}

	return s
}

// Get retrieves a section by ID.
func (s *Store) Get(id string) (*types.Section, bool) {
	section, ok := s.byID[id]
	return section, ok
}

// Contains reports whether id resolves to a stored section.
func (s *Store) Contains(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// All returns every section in manifest order. The returned slice is a
// copy; the sections themselves are shared and must not be mutated.
func (s *Store) All() []*types.Section {
	out := make([]*types.Section, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Count returns the number of stored sections.
func (s *Store) Count() int {
	return len(s.ordered)
}

// First returns the manifest-first section, or nil for an empty store.
// The first section is the tree root and is exempt from orphan checks.
func (s *Store) First() *types.Section {
	if len(s.ordered) == 0 {
		return nil
	}
	return s.ordered[0]
}

// InputErrors returns every per-section failure recorded at load time.
func (s *Store) InputErrors() []errors.InputError {
	out := make([]errors.InputError, len(s.inputs))
	copy(out, s.inputs)
	return out
}

// InputFindings converts load-time input errors into report findings.
// Malformed sections are excluded from analysis but never silently lost.
func (s *Store) InputFindings() []types.Finding {
	findings := make([]types.Finding, 0, len(s.inputs))
	for _, in := range s.inputs {
		id := in.SectionID
		if id == "" {
			id = in.SourcePath
		}
		findings = append(findings, types.Finding{
			Kind:     types.KindMalformedSection,
			Severity: types.SeverityError,
			Sections: []string{id},
			Message:  in.Message,
		})
	}
	return findings
}
