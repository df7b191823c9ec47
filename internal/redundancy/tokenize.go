package redundancy

import (
	"regexp"
	"sort"

	"github.com/zeebo/blake3"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	boldPattern   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern = regexp.MustCompile(`\*(.*?)\*`)
	codePattern   = regexp.MustCompile("`([^`]*)`")
	linkPattern   = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	wordPattern   = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

var folder = cases.Fold()

// Tokenize normalizes a section body into comparison tokens: markdown
// formatting is stripped down to its text, the result is NFKC-normalized
// and case-folded, and words are split on anything non-alphanumeric.
func Tokenize(body string) []string {
	text := boldPattern.ReplaceAllString(body, "$1")
	text = italicPattern.ReplaceAllString(text, "$1")
	text = codePattern.ReplaceAllString(text, "$1")
	text = linkPattern.ReplaceAllString(text, "$1")

	text = folder.String(norm.NFKC.String(text))

	return wordPattern.FindAllString(text, -1)
}

// TokenSet builds the deduplicated token set used for similarity scoring.
func TokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// Fingerprint hashes the sorted token set. Two sections with identical
// token sets share a fingerprint regardless of token order, which gives
// the exact-duplicate fast path its score-1.0 guarantee.
func Fingerprint(set map[string]struct{}) [32]byte {
	tokens := make([]string, 0, len(set))
	for tok := range set {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	hasher := blake3.New()
	for _, tok := range tokens {
		_, _ = hasher.WriteString(tok)
		_, _ = hasher.WriteString("\x00")
	}

	var sum [32]byte
	copy(sum[:], hasher.Sum(nil))
	return sum
}

// Jaccard computes |a ∩ b| / |a ∪ b| over two token sets.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	intersection := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
