package status

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dusk-indust/surveynotes/internal/notes"
	"github.com/dusk-indust/surveynotes/internal/session"
)

func TestSummarize(t *testing.T) {
	schema := notes.NewSchema([]string{"Needs", "Flue", "Pipe work"}, notes.DefaultSentinel)
	sess := &session.Session{
		ID:       "s1",
		Name:     "12 Acacia Avenue",
		Revision: 4,
		Sections: []notes.Section{
			{Name: "Needs", PlainText: "Combi swap"},
			{Name: "Flues", PlainText: "  "},
			{Name: "Parking", NaturalLanguage: "Permit needed on the street."},
		},
	}

	st := Summarize(sess, schema)

	assert.Equal(t, "s1", st.ID)
	assert.Equal(t, 4, st.Revision)
	assert.Equal(t, []SectionInfo{
		{Name: "Needs", Canonical: true, Populated: true},
		{Name: "Flue", Canonical: true, Populated: false},
		{Name: "Pipe work", Canonical: true, Populated: false},
		{Name: "Parking", Canonical: false, Populated: true},
	}, st.Sections)
	assert.Equal(t, "Flue", st.NextMissing)

	populated, total := st.Coverage()
	assert.Equal(t, 1, populated)
	assert.Equal(t, 3, total)
}

func TestSummarize_AllPopulated(t *testing.T) {
	schema := notes.NewSchema([]string{"Needs"}, notes.DefaultSentinel)
	sess := &session.Session{Sections: []notes.Section{{Name: "need", PlainText: "x"}}}

	st := Summarize(sess, schema)
	assert.Empty(t, st.NextMissing)
	assert.Len(t, st.Sections, 1)
}

func TestSummarize_EmptySession(t *testing.T) {
	schema := notes.NewSchema([]string{"Needs", "Flue"}, notes.DefaultSentinel)

	st := Summarize(&session.Session{ID: "s2"}, schema)
	assert.Equal(t, "Needs", st.NextMissing)
	populated, total := st.Coverage()
	assert.Zero(t, populated)
	assert.Equal(t, 2, total)
}
