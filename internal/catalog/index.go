package catalog

import "strings"

type alias struct {
	key       string
	canonical string
}

// Vocabulary maps lower-cased aliases (a product name and its naive plural)
// to canonical product names. It is built once and never mutated.
type Vocabulary struct {
	aliases []alias
	lookup  map[string]string
}

// BuildVocabulary registers every canonical name and, unless it already ends
// in "s", its plural. When two products produce the same alias the first
// registration wins.
func BuildVocabulary(names []string) *Vocabulary {
	v := &Vocabulary{lookup: map[string]string{}}

	add := func(key, canonical string) {
		if _, exists := v.lookup[key]; exists {
			return
		}
		v.lookup[key] = canonical
		v.aliases = append(v.aliases, alias{key: key, canonical: canonical})
	}

	for _, name := range names {
		lc := strings.ToLower(name)
		add(lc, name)
		if !strings.HasSuffix(lc, "s") {
			add(lc+"s", name)
		}
	}
	return v
}

// Lookup resolves a word to its canonical product name, ignoring case.
func (v *Vocabulary) Lookup(word string) (string, bool) {
	canonical, ok := v.lookup[strings.ToLower(word)]
	return canonical, ok
}

func (v *Vocabulary) Contains(word string) bool {
	_, ok := v.lookup[strings.ToLower(word)]
	return ok
}

// Each calls fn for every alias in registration order.
func (v *Vocabulary) Each(fn func(alias, canonical string)) {
	for _, a := range v.aliases {
		fn(a.key, a.canonical)
	}
}

func (v *Vocabulary) Len() int {
	return len(v.aliases)
}
