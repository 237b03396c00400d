package notes

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// measurementRe matches mentions such as "boiler 24kW", "pipe 22 mm",
// "pressure 1.5 bar" or "cylinder 210 litres".
var measurementRe = regexp.MustCompile(`(?i)\b([a-z][a-z-]*)\s+(\d+(?:\.\d+)?)\s?(kw|mm|bar|litres|liters|m)\b`)

// Conflict is a subject recorded with different measurements in two sections.
type Conflict struct {
	Subject     string
	SectionA    string
	SectionB    string
	Description string
}

// CheckConsistency scans every section's text for measurement mentions and
// reports subjects that appear with different values in different sections.
// A repeated mention inside one section is counted once. Results are ordered
// by subject and value.
func CheckConsistency(sections []Section) []Conflict {
	// subject -> value -> section names
	mentions := make(map[string]map[string][]string)

	for _, sec := range sections {
		seen := make(map[string]bool)
		text := sec.PlainText + "\n" + sec.NaturalLanguage
		for _, m := range measurementRe.FindAllStringSubmatch(text, -1) {
			subject := strings.ToLower(m[1])
			if len(subject) <= 2 || stopwords[subject] || subjectFillers[subject] {
				continue
			}
			unit := strings.ToLower(m[3])
			if unit == "litres" || unit == "liters" {
				unit = "l"
			}
			value := m[2] + unit

			if seen[subject+"\x00"+value] {
				continue
			}
			seen[subject+"\x00"+value] = true

			if mentions[subject] == nil {
				mentions[subject] = make(map[string][]string)
			}
			mentions[subject][value] = append(mentions[subject][value], sec.Name)
		}
	}

	subjects := make([]string, 0, len(mentions))
	for s := range mentions {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)

	var conflicts []Conflict
	for _, subject := range subjects {
		values := mentions[subject]
		if len(values) <= 1 {
			continue
		}
		keys := make([]string, 0, len(values))
		for v := range values {
			keys = append(keys, v)
		}
		sort.Strings(keys)

		for i := 0; i < len(keys); i++ {
			for j := i + 1; j < len(keys); j++ {
				a, b := values[keys[i]], values[keys[j]]
				conflicts = append(conflicts, Conflict{
					Subject:  subject,
					SectionA: a[0],
					SectionB: b[0],
					Description: fmt.Sprintf("%q recorded as %s (in %s) and %s (in %s)",
						subject,
						keys[i], strings.Join(a, ", "),
						keys[j], strings.Join(b, ", "),
					),
				})
			}
		}
	}
	return conflicts
}

// subjectFillers are words that precede a measurement without naming what
// was measured.
var subjectFillers = map[string]bool{
	"about": true, "approx": true, "approximately": true, "around": true,
	"is": true, "at": true, "of": true, "be": true, "needs": true,
	"new": true, "existing": true, "current": true, "min": true, "max": true,
}
