package notes

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Schema is the lookup table for one canonical section order. It is built
// once per order and never mutated afterwards; a different order needs a new
// Schema.
type Schema struct {
	names  []string          // canonical names in display order
	lookup map[string]string // normalized name or variant -> canonical name
}

// NewSchema builds the lookup table for order. Blank entries, entries equal
// to sentinel, and entries that normalize to an already registered name are
// ignored. Exact normalized names are registered before any variant so a
// variant of one entry never shadows another entry's own name.
func NewSchema(order []string, sentinel string) *Schema {
	s := &Schema{
		lookup: make(map[string]string, len(order)*4),
	}

	for _, name := range order {
		name = strings.TrimSpace(name)
		if name == "" || isSentinel(name, sentinel) {
			continue
		}
		key := Normalize(name)
		if key == "" {
			continue
		}
		if _, taken := s.lookup[key]; taken {
			continue
		}
		s.lookup[key] = name
		s.names = append(s.names, name)
	}

	for _, name := range s.names {
		for _, v := range nameVariants(Normalize(name)) {
			if _, taken := s.lookup[v]; !taken {
				s.lookup[v] = name
			}
		}
	}

	return s
}

// Names returns the canonical names in order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of canonical names.
func (s *Schema) Len() int {
	return len(s.names)
}

// Resolve maps name to its canonical entry. The normalized name is tried
// first, then its own variants.
func (s *Schema) Resolve(name string) (string, bool) {
	key := Normalize(name)
	if key == "" {
		return "", false
	}
	if canonical, ok := s.lookup[key]; ok {
		return canonical, true
	}
	for _, v := range nameVariants(key) {
		if canonical, ok := s.lookup[v]; ok {
			return canonical, true
		}
	}
	return "", false
}

// Normalize lowercases name, strips diacritics, collapses every run of
// non-alphanumeric characters into a single space and trims the result.
func Normalize(name string) string {
	folded := fold(name)

	var b strings.Builder
	b.Grow(len(folded))
	gap := false
	for _, r := range folded {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			gap = true
			continue
		}
		if gap && b.Len() > 0 {
			b.WriteByte(' ')
		}
		gap = false
		b.WriteRune(r)
	}
	return b.String()
}

// fold case-folds s and removes combining marks. Transformers carry state,
// so a fresh chain is built per call.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

// nameVariants returns spelling variants of a normalized name: singular and
// plural forms of the trailing word and the same with every "and" removed.
func nameVariants(key string) []string {
	var out []string
	add := func(v string) {
		if v == "" || v == key {
			return
		}
		for _, seen := range out {
			if seen == v {
				return
			}
		}
		out = append(out, v)
	}

	for _, v := range pluralVariants(key) {
		add(v)
	}

	if stripped := stripAnd(key); stripped != key {
		add(stripped)
		for _, v := range pluralVariants(stripped) {
			add(v)
		}
	}
	return out
}

func pluralVariants(key string) []string {
	var out []string
	switch {
	case strings.HasSuffix(key, "ies") && len(key) > 3:
		out = append(out, key[:len(key)-3]+"y")
	case strings.HasSuffix(key, "s") && !strings.HasSuffix(key, "ss") && len(key) > 1:
		out = append(out, key[:len(key)-1])
	}
	if strings.HasSuffix(key, "y") && len(key) > 1 {
		out = append(out, key[:len(key)-1]+"ies")
	}
	if !strings.HasSuffix(key, "s") {
		out = append(out, key+"s")
	}
	return out
}

func stripAnd(key string) string {
	words := strings.Fields(key)
	kept := words[:0:0]
	for _, w := range words {
		if w != "and" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func isSentinel(name, sentinel string) bool {
	sentinel = strings.TrimSpace(sentinel)
	if sentinel == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(name), sentinel)
}
