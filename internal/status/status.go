package status

import (
	"github.com/dusk-indust/surveynotes/internal/notes"
	"github.com/dusk-indust/surveynotes/internal/session"
)

// SectionInfo describes the coverage of a single section.
type SectionInfo struct {
	Name      string `json:"name"`
	Canonical bool   `json:"canonical"` // false for extras outside the order
	Populated bool   `json:"populated"`
}

// SessionStatus holds the coverage of one survey session.
type SessionStatus struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Revision    int           `json:"revision"`
	Sections    []SectionInfo `json:"sections"`
	NextMissing string        `json:"nextMissing,omitempty"` // empty if every canonical section is populated
}

// Summarize reports, for every canonical name of schema, whether the session
// holds non-blank text for it, followed by the session's extra sections.
func Summarize(sess *session.Session, schema *notes.Schema) SessionStatus {
	populated := make(map[string]bool)
	var extras []SectionInfo
	seen := make(map[string]bool)

	for _, s := range sess.Sections {
		if canonical, ok := schema.Resolve(s.Name); ok {
			if !s.IsBlank() {
				populated[canonical] = true
			}
			continue
		}
		key := notes.Normalize(s.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		extras = append(extras, SectionInfo{Name: s.Name, Populated: !s.IsBlank()})
	}

	out := SessionStatus{
		ID:       sess.ID,
		Name:     sess.Name,
		Revision: sess.Revision,
		Sections: make([]SectionInfo, 0, schema.Len()+len(extras)),
	}
	for _, name := range schema.Names() {
		out.Sections = append(out.Sections, SectionInfo{
			Name:      name,
			Canonical: true,
			Populated: populated[name],
		})
		if !populated[name] && out.NextMissing == "" {
			out.NextMissing = name
		}
	}
	out.Sections = append(out.Sections, extras...)
	return out
}

// Coverage returns how many canonical sections are populated and how many
// exist.
func (s SessionStatus) Coverage() (populated, total int) {
	for _, sec := range s.Sections {
		if !sec.Canonical {
			continue
		}
		total++
		if sec.Populated {
			populated++
		}
	}
	return populated, total
}
