package mcptools

import (
	"time"

	"github.com/dusk-indust/surveynotes/internal/notes"
	"github.com/dusk-indust/surveynotes/internal/session"
)

// ReconcileSectionsInput is the input for the reconcile_sections tool.
type ReconcileSectionsInput struct {
	Previous     []notes.Section `json:"previous,omitempty" jsonschema:"sections reconciled so far"`
	Incoming     []notes.Section `json:"incoming,omitempty" jsonschema:"candidate sections from the latest processing pass"`
	SectionOrder []string        `json:"sectionOrder,omitempty" jsonschema:"canonical section order (default: configured order)"`
	Compact      bool            `json:"compact,omitempty" jsonschema:"collapse near-duplicate lines within each section"`
}

// ReconcileSectionsOutput is the output of the reconcile_sections tool.
type ReconcileSectionsOutput struct {
	Sections []notes.Section `json:"sections"`
}

// SessionInput identifies one stored session.
type SessionInput struct {
	ID string `json:"id" jsonschema:"session id"`
}

// SessionOutput is a stored session as returned by get_session.
type SessionOutput struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Revision   int             `json:"revision"`
	Transcript string          `json:"transcript,omitempty"`
	Sections   []notes.Section `json:"sections"`
	UpdatedAt  string          `json:"updatedAt"`
}

// ListSessionsInput is the input for the list_sessions tool.
type ListSessionsInput struct {
	PageSize  int    `json:"pageSize,omitempty" jsonschema:"maximum sessions to return (default: all)"`
	PageToken string `json:"pageToken,omitempty" jsonschema:"nextPageToken from a previous call"`
}

// SessionSummary is one row of list_sessions.
type SessionSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Revision int    `json:"revision"`
	Sections int    `json:"sections"`
}

// ListSessionsOutput is the output of the list_sessions tool.
type ListSessionsOutput struct {
	Sessions      []SessionSummary `json:"sessions"`
	TotalSize     int              `json:"totalSize"`
	NextPageToken string           `json:"nextPageToken,omitempty"`
}

func sessionOutput(sess *session.Session) SessionOutput {
	sections := sess.Sections
	if sections == nil {
		sections = []notes.Section{}
	}
	return SessionOutput{
		ID:         sess.ID,
		Name:       sess.Name,
		Revision:   sess.Revision,
		Transcript: sess.Transcript,
		Sections:   sections,
		UpdatedAt:  sess.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
