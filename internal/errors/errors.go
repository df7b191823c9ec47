// Package errors defines the doccheck error taxonomy and a thread-safe
// collector for per-entity failures that must not abort a validation run.
//
// Only ConfigurationError is fatal to a run. InputError marks one section
// as unusable while the rest of the run continues, and ExternalServiceError
// records a compiler-service failure that is mapped to a Timeout terminal
// state for the affected code block.
package errors

import (
	"fmt"
	"sync"
)

// ConfigurationError aborts the whole run before analysis starts: bad CLI
// arguments, a missing manifest, or config values that fail validation.
// The CLI maps it to exit code 2 and writes no report.
type ConfigurationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
	}
	return "configuration error: " + e.Message
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NewConfigurationError builds a ConfigurationError for a named field.
func NewConfigurationError(field, message string) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message}
}

// InputError marks a single section as malformed. The section is excluded
// from graph and redundancy analysis but still surfaced in the report.
type InputError struct {
	SectionID  string
	SourcePath string
	Message    string
}

func (e *InputError) Error() string {
	id := e.SectionID
	if id == "" {
		id = e.SourcePath
	}
	return fmt.Sprintf("input error: %s: %s", id, e.Message)
}

// ExternalServiceError records an unreachable or failing compiler service.
// It is never fatal to the run; the affected code block terminates in the
// Timeout state.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("external service %s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// Collector gathers per-entity input errors from concurrent loaders.
// Accessors return copies so callers can never observe a mid-append slice.
type Collector struct {
	mu     sync.RWMutex
	inputs []InputError
	errs   []error
}

// NewCollector creates an empty error collector.
func NewCollector() *Collector {
	return &Collector{}
}

// AddInput records a per-section input error.
func (c *Collector) AddInput(err InputError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs = append(c.inputs, err)
}

// Add records a general non-fatal error.
func (c *Collector) Add(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

// InputErrors returns a copy of all recorded input errors.
func (c *Collector) InputErrors() []InputError {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]InputError, len(c.inputs))
	copy(out, c.inputs)
	return out
}

// Errors returns a copy of all recorded general errors.
func (c *Collector) Errors() []error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]error, len(c.errs))
	copy(out, c.errs)
	return out
}

// HasErrors reports whether anything has been collected.
func (c *Collector) HasErrors() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.inputs) > 0 || len(c.errs) > 0
}
