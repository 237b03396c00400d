package notes

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// stopwords are ignored when comparing two texts.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "this": true,
	"that": true, "from": true, "are": true, "was": true, "were": true,
	"been": true, "have": true, "has": true, "had": true, "will": true,
	"would": true, "could": true, "should": true, "may": true, "might": true,
	"can": true, "not": true, "but": true, "all": true, "any": true,
	"into": true, "onto": true, "there": true, "their": true, "they": true,
	"them": true, "than": true, "then": true, "also": true, "its": true,
	"our": true, "your": true, "you": true, "via": true, "per": true,
}

// Tokens returns the comparison token set of text: case-folded words with
// punctuation removed, stopwords dropped, and only words longer than two
// characters kept.
func Tokens(text string) map[string]struct{} {
	words := strings.FieldsFunc(fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) <= 2 || stopwords[w] {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

// Similarity returns the Jaccard index of the token sets of a and b. Two
// texts without any tokens have similarity 0.
func Similarity(a, b string) float64 {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 0
	}

	shared := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	return float64(shared) / float64(union)
}

// MergeText combines two versions of the same text field without losing
// content unique to either side:
//   - an empty side yields the other side;
//   - texts equal ignoring case and surrounding space yield prev;
//   - a text contained in the other yields the containing one;
//   - texts at least threshold similar yield the longer one;
//   - anything else yields prev and next joined by a newline.
func MergeText(prev, next string, threshold float64) string {
	p, n := strings.TrimSpace(prev), strings.TrimSpace(next)
	switch {
	case p == "":
		return next
	case n == "":
		return prev
	}

	fp, fn := fold(p), fold(n)
	switch {
	case fp == fn:
		return prev
	case strings.Contains(fp, fn):
		return prev
	case strings.Contains(fn, fp):
		return next
	}

	if Similarity(p, n) >= threshold {
		return longer(prev, next)
	}
	return prev + "\n" + next
}

// CompactLines collapses near-duplicate lines within text. A line that equals,
// contains, is contained by, or is at least threshold similar to an earlier
// kept line replaces it when longer and is dropped otherwise. Blank lines are
// removed.
func CompactLines(text string, threshold float64) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		merged := false
		for i, k := range kept {
			if sameLine(k, line, threshold) {
				kept[i] = longer(k, line)
				merged = true
				break
			}
		}
		if !merged {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func sameLine(a, b string, threshold float64) bool {
	fa, fb := fold(strings.TrimSpace(a)), fold(strings.TrimSpace(b))
	if fa == fb || strings.Contains(fa, fb) || strings.Contains(fb, fa) {
		return true
	}
	return Similarity(a, b) >= threshold
}

// longer returns the longer of a and b by rune count, preferring a on ties.
func longer(a, b string) string {
	if utf8.RuneCountInString(b) > utf8.RuneCountInString(a) {
		return b
	}
	return a
}
