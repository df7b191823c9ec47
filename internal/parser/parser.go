// Package parser loads a documentation tree into section values.
//
// The parser is the external input collaborator of the validation
// pipeline: it reads a YAML manifest listing canonical section order plus
// per-section files carrying YAML front matter and fenced code blocks. It
// deliberately does not render markdown; the body is kept as prose text
// with the fences split out, which is all the downstream analyses need.
package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AndyXT/doccheck/internal/errors"
	"github.com/AndyXT/doccheck/internal/types"
)

// DocumentParser supplies the section tree for a validation run.
type DocumentParser interface {
	// Load reads every section under root in manifest order. Per-section
	// failures are recorded on the collector and the section is skipped;
	// only a missing or unreadable manifest fails the load outright.
	Load(ctx context.Context, root string) ([]*types.Section, error)

	// InputErrors returns per-section failures from the last Load.
	InputErrors() []errors.InputError
}

// Manifest is the doc-root file listing canonical section order.
// Directory iteration order is never used; the manifest is authoritative.
type Manifest struct {
	Title    string   `yaml:"title"`
	Sections []string `yaml:"sections"`
}

// frontMatter is the per-section metadata header.
type frontMatter struct {
	ID            string   `yaml:"id"`
	Title         string   `yaml:"title"`
	ContentType   string   `yaml:"content_type"`
	AudienceLevel string   `yaml:"audience_level"`
	Prerequisites []string `yaml:"prerequisites"`
	CEquivalents  []string `yaml:"c_equivalents"`
	SecurityNotes []string `yaml:"security_notes"`
}

// DirParser is the shipped DocumentParser over a directory tree.
type DirParser struct {
	// ManifestName is the manifest file name inside the doc root
	ManifestName string

	collector *errors.Collector
}

// NewDirParser creates a parser reading manifestName under the doc root.
func NewDirParser(manifestName string) *DirParser {
	if manifestName == "" {
		manifestName = "manifest.yml"
	}
	return &DirParser{
		ManifestName: manifestName,
		collector:    errors.NewCollector(),
	}
}

// InputErrors returns per-section failures from the last Load.
func (p *DirParser) InputErrors() []errors.InputError {
	return p.collector.InputErrors()
}

// Load reads the manifest and every listed section file.
func (p *DirParser) Load(ctx context.Context, root string) ([]*types.Section, error) {
	p.collector = errors.NewCollector()

	manifestPath := filepath.Join(root, p.ManifestName)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, &errors.ConfigurationError{
			Field:   "manifest",
			Message: fmt.Sprintf("cannot read %s", manifestPath),
			Err:     err,
		}
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, &errors.ConfigurationError{
			Field:   "manifest",
			Message: fmt.Sprintf("malformed manifest %s", manifestPath),
			Err:     err,
		}
	}
	if len(manifest.Sections) == 0 {
		return nil, errors.NewConfigurationError("manifest", "manifest lists no sections")
	}

	sections := make([]*types.Section, 0, len(manifest.Sections))
	for i, rel := range manifest.Sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(root, rel)
		raw, err := os.ReadFile(path)
		if err != nil {
			// A manifest entry with no file is a configuration problem,
			// not a per-section one: the manifest itself is wrong.
			return nil, &errors.ConfigurationError{
				Field:   "manifest",
				Message: fmt.Sprintf("manifest entry %q has no file", rel),
				Err:     err,
			}
		}

		section, perr := p.parseSection(rel, string(raw), i)
		if perr != nil {
			p.collector.AddInput(*perr)
			continue
		}
		sections = append(sections, section)
	}

	return sections, nil
}

// parseSection splits front matter from body, validates the metadata
// against the closed type sets, and extracts fenced code blocks.
func (p *DirParser) parseSection(rel, raw string, index int) (*types.Section, *errors.InputError) {
	fm, body, err := splitFrontMatter(raw)
	if err != nil {
		return nil, &errors.InputError{SourcePath: rel, Message: err.Error()}
	}

	id := fm.ID
	if id == "" {
		id = deriveID(rel)
	}

	fail := func(msg string) *errors.InputError {
		return &errors.InputError{SectionID: id, SourcePath: rel, Message: msg}
	}

	if fm.Title == "" {
		return nil, fail("missing required field: title")
	}

	contentType := types.ContentType(fm.ContentType)
	if fm.ContentType != "" && !contentType.Valid() {
		return nil, fail(fmt.Sprintf("unknown content_type %q", fm.ContentType))
	}
	audience := types.AudienceLevel(fm.AudienceLevel)
	if fm.AudienceLevel != "" && !audience.Valid() {
		return nil, fail(fmt.Sprintf("unknown audience_level %q", fm.AudienceLevel))
	}

	for _, prereq := range fm.Prerequisites {
		if prereq == id {
			return nil, fail("section lists itself as a prerequisite")
		}
	}

	prose, blocks := splitCodeBlocks(body)

	return &types.Section{
		ID:            id,
		Title:         fm.Title,
		ContentType:   contentType,
		AudienceLevel: audience,
		Prerequisites: fm.Prerequisites,
		CEquivalents:  fm.CEquivalents,
		SecurityNotes: fm.SecurityNotes,
		Body:          prose,
		CodeBlocks:    blocks,
		SourcePath:    rel,
		ManifestIndex: index,
	}, nil
}

// deriveID turns a manifest-relative path into a stable section key.
func deriveID(rel string) string {
	id := filepath.ToSlash(rel)
	id = strings.TrimSuffix(id, filepath.Ext(id))
	return id
}

// splitFrontMatter separates the leading "---" delimited YAML header from
// the body. A section without front matter is malformed: the metadata is
// what the whole pipeline runs on.
func splitFrontMatter(raw string) (frontMatter, string, error) {
	var fm frontMatter

	trimmed := strings.TrimLeft(raw, "\ufeff")
	if !strings.HasPrefix(trimmed, "---\n") && trimmed != "---" {
		return fm, "", fmt.Errorf("missing front matter header")
	}

	rest := strings.TrimPrefix(trimmed, "---\n")
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return fm, "", fmt.Errorf("unterminated front matter header")
	}

	header := rest[:end]
	body := rest[end+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")

	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return fm, "", fmt.Errorf("malformed front matter: %v", err)
	}
	return fm, body, nil
}

// splitCodeBlocks removes fenced code blocks from the body and returns
// the remaining prose plus the blocks in document order. Fence info
// strings follow mdBook conventions: the first token is the language,
// and ignore/no_run flags mark a block as illustrative rather than a
// compilation claim.
func splitCodeBlocks(body string) (string, []types.CodeBlock) {
	var prose strings.Builder
	var blocks []types.CodeBlock

	lines := strings.Split(body, "\n")
	i := 0
	for i < len(lines) {
		line := lines[i]
		if !strings.HasPrefix(line, "```") {
			prose.WriteString(line)
			prose.WriteString("\n")
			i++
			continue
		}

		info := strings.TrimPrefix(line, "```")
		openLine := i + 1

		var content []string
		i++
		for i < len(lines) && !strings.HasPrefix(lines[i], "```") {
			content = append(content, lines[i])
			i++
		}
		if i >= len(lines) {
			// Unterminated fence: treat the remainder as prose rather
			// than inventing a block boundary.
			prose.WriteString(line)
			prose.WriteString("\n")
			prose.WriteString(strings.Join(content, "\n"))
			break
		}
		i++ // closing fence

		blocks = append(blocks, newCodeBlock(info, strings.Join(content, "\n"), openLine))
	}

	return prose.String(), blocks
}

func newCodeBlock(info, source string, line int) types.CodeBlock {
	fields := strings.FieldsFunc(strings.TrimSpace(info), func(r rune) bool {
		return r == ',' || r == ' '
	})

	var language string
	if len(fields) > 0 {
		language = strings.ToLower(fields[0])
	}

	runnable := language != "" && language != "text" && language != "console"
	for _, flag := range fields[1:] {
		switch strings.ToLower(flag) {
		case "ignore", "no_run":
			runnable = false
		case "runnable":
			runnable = true
		}
	}

	return types.CodeBlock{
		Language:         language,
		Source:           source,
		Status:           types.StatusUntested,
		DeclaredRunnable: runnable,
		Line:             line,
	}
}
