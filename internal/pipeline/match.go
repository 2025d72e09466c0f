package pipeline

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"inquiry/internal/catalog"
)

const (
	quantityMentionConfidence = 0.9
	bareMentionConfidence     = 0.6
)

// mention is one sighting of a product in the body.
type mention struct {
	name       string
	quantity   *int
	confidence float64
	note       string
}

type aliasPattern struct {
	canonical string
	alias     string
}

type span struct{ start, end int }

func (s span) contains(o span) bool {
	return s.start <= o.start && o.end <= s.end
}

func compileAliasPatterns(vocab *catalog.Vocabulary) []aliasPattern {
	out := make([]aliasPattern, 0, vocab.Len())
	vocab.Each(func(alias, canonical string) {
		lc := strings.ToLower(canonical)
		if alias != lc && alias != lc+"s" {
			return
		}
		out = append(out, aliasPattern{canonical: canonical, alias: alias})
	})
	return out
}

// matchKnownProducts emits a quantity mention for "N [word] alias" and a bare
// mention for every other occurrence of the alias. A bare occurrence lying
// inside a quantity match of the same alias is the same sighting and is dropped.
// body must already be lower-cased.
func (p *Parser) matchKnownProducts(body string) []mention {
	var out []mention
	for _, ap := range p.patterns {
		var qtySpans []span
		for _, m := range quantityMatches(body, ap.alias) {
			qtySpans = append(qtySpans, m.span)
			qty, err := strconv.Atoi(m.digits)
			if err != nil {
				out = append(out, mention{name: ap.canonical, confidence: bareMentionConfidence})
				continue
			}
			out = append(out, mention{name: ap.canonical, quantity: &qty, confidence: quantityMentionConfidence})
		}

		for _, s := range aliasMatches(body, ap.alias) {
			if coveredBy(qtySpans, s) {
				continue
			}
			out = append(out, mention{name: ap.canonical, confidence: bareMentionConfidence})
		}
	}
	return out
}

func coveredBy(spans []span, s span) bool {
	for _, outer := range spans {
		if outer.contains(s) {
			return true
		}
	}
	return false
}

// isWordRune reports whether r counts as a word character. Letters and
// numbers of any script qualify, so accented names are whole words.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// atWordBoundary reports whether a word starts or ends at byte offset i.
func atWordBoundary(s string, i int) bool {
	before, after := false, false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:i])
		before = isWordRune(r)
	}
	if i < len(s) {
		r, _ := utf8.DecodeRuneInString(s[i:])
		after = isWordRune(r)
	}
	return before != after
}

// aliasMatches returns the non-overlapping whole-word occurrences of alias.
func aliasMatches(body, alias string) []span {
	var out []span
	for off := 0; off < len(body); {
		idx := strings.Index(body[off:], alias)
		if idx < 0 {
			break
		}
		start := off + idx
		end := start + len(alias)
		if atWordBoundary(body, start) && atWordBoundary(body, end) {
			out = append(out, span{start, end})
			off = end
			continue
		}
		_, size := utf8.DecodeRuneInString(body[start:])
		off = start + size
	}
	return out
}

type quantityMatch struct {
	span
	digits string
}

// quantityMatches finds "N alias" and "N word alias" left to right without
// overlap. A number may be followed by one filler word ("25 blue gadgets");
// the filler form is tried first.
func quantityMatches(body, alias string) []quantityMatch {
	var out []quantityMatch
	for i := 0; i < len(body); {
		if !isASCIIDigit(body[i]) || !atWordBoundary(body, i) {
			i++
			continue
		}
		digitsEnd := scan(body, i, func(r rune) bool { return r < utf8.RuneSelf && isASCIIDigit(byte(r)) })
		end, ok := quantityTail(body, digitsEnd, alias)
		if !ok {
			i = digitsEnd
			continue
		}
		out = append(out, quantityMatch{span: span{i, end}, digits: body[i:digitsEnd]})
		i = end
	}
	return out
}

// quantityTail matches whitespace, an optional filler word and whitespace,
// then alias as a whole word, starting at pos. It returns the end offset.
func quantityTail(body string, pos int, alias string) (int, bool) {
	wordStart := scan(body, pos, unicode.IsSpace)
	if wordStart == pos {
		return 0, false
	}
	if wordEnd := scan(body, wordStart, isWordRune); wordEnd > wordStart {
		aliasStart := scan(body, wordEnd, unicode.IsSpace)
		if aliasStart > wordEnd {
			if end, ok := wholeWordAt(body, aliasStart, alias); ok {
				return end, true
			}
		}
	}
	return wholeWordAt(body, wordStart, alias)
}

func wholeWordAt(body string, pos int, alias string) (int, bool) {
	if !strings.HasPrefix(body[pos:], alias) {
		return 0, false
	}
	end := pos + len(alias)
	return end, atWordBoundary(body, end)
}

// scan advances from pos while runes satisfy keep.
func scan(s string, pos int, keep func(rune) bool) int {
	for pos < len(s) {
		r, size := utf8.DecodeRuneInString(s[pos:])
		if !keep(r) {
			break
		}
		pos += size
	}
	return pos
}

func isASCIIDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
