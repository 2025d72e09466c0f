package pipeline

import (
	"regexp"
	"strings"

	"inquiry/internal/util"
)

const (
	unknownMentionConfidence = 0.2
	unknownProductNote       = "unknown product"
	verbLookahead            = 4
)

var (
	conjunctionPattern = regexp.MustCompile(`(?i)([\p{L}\p{N}_-]+)\s+and\s+([\p{L}\p{N}_-]+)`)
	wordTokenPattern   = regexp.MustCompile(`[\p{L}\p{N}_-]+`)
)

var stopwords = toSet(
	"some", "any", "more", "few", "asap", "pricing", "price", "cost", "time",
	"info", "information", "availability", "please", "could", "looking", "items", "item",
	"product", "products", "it", "them", "they", "your", "our", "quote", "yet", "us", "about",
	"to", "and", "thanks", "thank", "get", "me", "how", "many", "if", "there", "let", "know",
	"hello", "hi", "we", "i", "my", "you", "also", "regards", "cheers", "kind", "best", "team",
)

var purchaseVerbs = toSet("order", "buy", "purchase", "need", "looking")

func toSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// unknownProductMentions finds plural words that look like products missing
// from the catalog. Plurality is a weak signal used to skip personal names.
func (p *Parser) unknownProductMentions(body string) []mention {
	candidates := append(p.conjunctionCandidates(body), p.verbCandidates(body)...)

	seen := map[string]struct{}{}
	var out []mention
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, mention{name: c, confidence: unknownMentionConfidence, note: unknownProductNote})
	}
	return out
}

// conjunctionCandidates looks at "X and Y" pairs where exactly one side is known.
func (p *Parser) conjunctionCandidates(body string) []string {
	var out []string
	for _, m := range conjunctionPattern.FindAllStringSubmatch(body, -1) {
		// Hyphens at either edge are not part of the word.
		first, second := strings.Trim(m[1], "-"), strings.Trim(m[2], "-")
		if first == "" || second == "" {
			continue
		}
		firstKnown, secondKnown := p.vocab.Contains(first), p.vocab.Contains(second)
		if firstKnown == secondKnown {
			continue
		}
		candidate := first
		if firstKnown {
			candidate = second
		}
		if p.plausibleUnknown(candidate) {
			out = append(out, util.TitleCase(candidate))
		}
	}
	return out
}

// verbCandidates takes the first plausible word within a few tokens after a
// purchase verb.
func (p *Parser) verbCandidates(body string) []string {
	tokens := wordTokenPattern.FindAllString(body, -1)
	var out []string
	for i, token := range tokens {
		if _, ok := purchaseVerbs[strings.ToLower(token)]; !ok {
			continue
		}
		for j := i + 1; j <= i+verbLookahead && j < len(tokens); j++ {
			candidate := strings.Trim(tokens[j], "-")
			if p.plausibleUnknown(candidate) {
				out = append(out, util.TitleCase(candidate))
				break
			}
		}
	}
	return out
}

func (p *Parser) plausibleUnknown(word string) bool {
	lc := strings.ToLower(word)
	if p.vocab.Contains(lc) {
		return false
	}
	if _, ok := stopwords[lc]; ok {
		return false
	}
	return strings.HasSuffix(lc, "s")
}
