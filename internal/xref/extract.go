// Package xref builds the directed cross-reference graph between
// sections and validates resolvability, direction, and cycles.
package xref

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/AndyXT/doccheck/internal/store"
	"github.com/AndyXT/doccheck/internal/types"
)

var (
	mdLinkPattern  = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	headingPattern = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
	anchorStripRe  = regexp.MustCompile(`[^\w\s-]`)
	anchorDashesRe = regexp.MustCompile(`[-\s]+`)
)

// TitleAnchor converts a section title to its link anchor: lowercase,
// punctuation stripped, whitespace collapsed to hyphens. This matches how
// the renderer derives heading anchors, so body links written against the
// rendered book still resolve here.
func TitleAnchor(title string) string {
	text := strings.NewReplacer("*", "", "_", "", "`", "").Replace(title)
	anchor := anchorStripRe.ReplaceAllString(strings.ToLower(text), "")
	anchor = anchorDashesRe.ReplaceAllString(anchor, "-")
	return strings.Trim(anchor, "-")
}

// resolver maps the various ways a body link can name a section back to
// a canonical section ID.
type resolver struct {
	byKey map[string]string
}

func newResolver(s *store.Store) *resolver {
	r := &resolver{byKey: make(map[string]string)}
	for _, section := range s.All() {
		r.add(section.ID, section.ID)
		if idx := strings.LastIndex(section.ID, "/"); idx >= 0 {
			r.add(section.ID[idx+1:], section.ID)
		}
		r.add(TitleAnchor(section.Title), section.ID)
		// Subheadings inside the body are link targets too; their anchors
		// resolve to the owning section.
		for _, m := range headingPattern.FindAllStringSubmatch(section.Body, -1) {
			r.add(TitleAnchor(m[1]), section.ID)
		}
	}
	return r
}

// add keeps the first binding for a key: manifest order wins so that
// ambiguous short anchors resolve the same way on every run.
func (r *resolver) add(key, id string) {
	if key == "" {
		return
	}
	if _, exists := r.byKey[key]; !exists {
		r.byKey[key] = id
	}
}

// resolve maps a raw link target to a section ID. External URLs return
// ok=false with resolved=false meaning "not ours"; internal-looking
// targets that fail to resolve return the cleaned target so the caller
// can report the dangling reference by name.
func (r *resolver) resolve(target string) (id string, internal, ok bool) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", false, false
	}
	if strings.Contains(target, "://") || strings.HasPrefix(target, "mailto:") {
		return "", false, false
	}

	path, anchor, _ := strings.Cut(target, "#")
	path = strings.TrimSuffix(strings.TrimPrefix(path, "./"), "/")

	candidates := make([]string, 0, 3)
	if anchor != "" {
		candidates = append(candidates, anchor)
	}
	if path != "" {
		trimmed := strings.TrimSuffix(path, ".md")
		candidates = append(candidates, trimmed)
		if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
			candidates = append(candidates, trimmed[idx+1:])
		}
	}

	for _, key := range candidates {
		if id, exists := r.byKey[key]; exists {
			return id, true, true
		}
	}

	// Unresolvable internal target: keep the most specific name for the
	// dangling-reference report.
	if anchor != "" {
		return anchor, true, false
	}
	return strings.TrimSuffix(path, ".md"), true, false
}

// Extract pulls every cross-reference out of a section's body: markdown
// links, inline HTML links, and the explicit prerequisites list (which
// becomes Prerequisite-typed edges whether or not the body repeats them).
func Extract(section *types.Section, s *store.Store) []types.CrossReference {
	r := newResolver(s)
	return extractWith(section, r)
}

// ExtractAll extracts references for every section sharing one resolver.
func ExtractAll(s *store.Store) []types.CrossReference {
	r := newResolver(s)
	var refs []types.CrossReference
	for _, section := range s.All() {
		refs = append(refs, extractWith(section, r)...)
	}
	return refs
}

func extractWith(section *types.Section, r *resolver) []types.CrossReference {
	var refs []types.CrossReference

	prereqs := make(map[string]struct{}, len(section.Prerequisites))
	for _, p := range section.Prerequisites {
		prereqs[p] = struct{}{}
		refs = append(refs, types.CrossReference{
			Source:  section.ID,
			Target:  p,
			Type:    types.RefPrerequisite,
			Context: "declared prerequisite",
		})
	}

	for _, match := range mdLinkPattern.FindAllStringSubmatchIndex(section.Body, -1) {
		if match[0] > 0 && section.Body[match[0]-1] == '!' {
			// Image embed, not a cross-reference.
			continue
		}
		text := section.Body[match[2]:match[3]]
		target := section.Body[match[4]:match[5]]

		id, internal, _ := r.resolve(target)
		if !internal {
			continue
		}
		refs = append(refs, types.CrossReference{
			Source:  section.ID,
			Target:  id,
			Type:    referenceType(section.Body, match[0], id, prereqs),
			Context: contextSnippet(section.Body, match[0], match[1], text),
		})
	}

	refs = append(refs, htmlRefs(section, r, prereqs)...)
	return refs
}

// htmlRefs extracts <a href> links embedded as raw HTML in the body.
// Authors drop to inline HTML for anchors the markdown syntax cannot
// express, and those links must validate like any other.
func htmlRefs(section *types.Section, r *resolver, prereqs map[string]struct{}) []types.CrossReference {
	if !strings.Contains(section.Body, "<a") {
		return nil
	}

	var refs []types.CrossReference
	tokenizer := html.NewTokenizer(strings.NewReader(section.Body))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			return refs
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		token := tokenizer.Token()
		if token.Data != "a" {
			continue
		}
		for _, attr := range token.Attr {
			if attr.Key != "href" {
				continue
			}
			id, internal, _ := r.resolve(attr.Val)
			if !internal {
				continue
			}
			refType := types.RefSeeAlso
			if _, isPrereq := prereqs[id]; isPrereq {
				refType = types.RefPrerequisite
			}
			refs = append(refs, types.CrossReference{
				Source:  section.ID,
				Target:  id,
				Type:    refType,
				Context: strings.TrimSpace(attr.Val),
			})
		}
	}
}

// referenceType infers the typed relationship from the prose leading up
// to the link, falling back to SeeAlso for plain mentions.
func referenceType(body string, linkStart int, target string, prereqs map[string]struct{}) types.ReferenceType {
	if _, isPrereq := prereqs[target]; isPrereq {
		return types.RefPrerequisite
	}

	windowStart := linkStart - 40
	if windowStart < 0 {
		windowStart = 0
	}
	lead := strings.ToLower(body[windowStart:linkStart])

	switch {
	case strings.Contains(lead, "detailed in"), strings.Contains(lead, "covered in depth"):
		return types.RefDetailedIn
	case strings.Contains(lead, "example in"), strings.Contains(lead, "worked example"):
		return types.RefExampleIn
	case strings.Contains(lead, "prerequisite"), strings.Contains(lead, "read first"):
		return types.RefPrerequisite
	default:
		return types.RefSeeAlso
	}
}

// contextSnippet captures the text around a link for reporting.
func contextSnippet(body string, start, end int, fallback string) string {
	const radius = 60

	from := start - radius
	if from < 0 {
		from = 0
	}
	to := end + radius
	if to > len(body) {
		to = len(body)
	}

	snippet := strings.TrimSpace(strings.ReplaceAll(body[from:to], "\n", " "))
	if snippet == "" {
		return fallback
	}
	return snippet
}
