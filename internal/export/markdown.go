package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/surveynotes/internal/session"
)

// RenderMarkdown produces a Markdown document for a session: a level-one
// heading with the session name, then one level-two block per section with
// the prose first and the plain-text items as bullets.
func RenderMarkdown(sess *session.Session) string {
	var sb strings.Builder

	title := strings.TrimSpace(sess.Name)
	if title == "" {
		title = sess.ID
	}
	sb.WriteString(fmt.Sprintf("# %s\n", title))

	for _, s := range sess.Sections {
		if s.IsBlank() {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n## %s\n", s.Name))
		if prose := strings.TrimSpace(s.NaturalLanguage); prose != "" {
			sb.WriteString("\n" + prose + "\n")
		}
		if items := Items(s.PlainText); len(items) > 0 {
			sb.WriteString("\n")
			for _, item := range items {
				sb.WriteString("- " + item + "\n")
			}
		}
	}

	return sb.String()
}
