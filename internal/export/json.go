package export

import (
	"regexp"
	"strings"
	"time"

	"github.com/dusk-indust/surveynotes/internal/session"
)

// SessionExport is the top-level JSON export structure.
type SessionExport struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	ExportedAt string          `json:"exportedAt"`
	Revision   int             `json:"revision"`
	Sections   []SectionExport `json:"sections"`
}

// SectionExport describes one reconciled section.
type SectionExport struct {
	Name            string   `json:"name"`
	Items           []string `json:"items,omitempty"`
	NaturalLanguage string   `json:"naturalLanguage,omitempty"`
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

// ExportSession builds a SessionExport from a stored session. Plain text is
// split into one item per bullet.
func ExportSession(sess *session.Session) *SessionExport {
	out := &SessionExport{
		ID:         sess.ID,
		Name:       sess.Name,
		ExportedAt: now().Format(time.RFC3339),
		Revision:   sess.Revision,
		Sections:   []SectionExport{},
	}
	for _, s := range sess.Sections {
		out.Sections = append(out.Sections, SectionExport{
			Name:            s.Name,
			Items:           Items(s.PlainText),
			NaturalLanguage: strings.TrimSpace(s.NaturalLanguage),
		})
	}
	return out
}

// Matches a leading bullet marker: "-", "*", "•" or "1." / "1)".
var bulletRegex = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)

// Items splits plain-text notes into bullet items. Lines and ';'-terminated
// clauses each become one item; bullet markers and blank items are dropped.
func Items(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = bulletRegex.ReplaceAllString(strings.TrimSpace(line), "")
		for _, part := range strings.Split(line, ";") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
	}
	return items
}
