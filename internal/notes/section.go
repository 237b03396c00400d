// Package notes reconciles successive candidate sets of survey-note sections
// into a single deduplicated, canonically ordered list.
package notes

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Section is a named block of survey notes. PlainText holds the terse bullet
// form and NaturalLanguage the prose form.
type Section struct {
	Name            string `json:"name"`
	PlainText       string `json:"plainText"`
	NaturalLanguage string `json:"naturalLanguage"`
}

// IsBlank reports whether both text fields are empty after trimming.
func (s Section) IsBlank() bool {
	return strings.TrimSpace(s.PlainText) == "" && strings.TrimSpace(s.NaturalLanguage) == ""
}

// CloneSections returns an independent copy of sections. A nil input yields nil.
func CloneSections(sections []Section) []Section {
	if sections == nil {
		return nil
	}
	out := make([]Section, len(sections))
	copy(out, sections)
	return out
}

// DecodeSections decodes a JSON array of sections leniently. Entries that are
// not objects, lack a string "name", have a blank name, or carry a non-string
// text field are skipped. Only a payload that is not an array is an error.
func DecodeSections(data []byte) ([]Section, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("notes: decode sections: %w", err)
	}

	sections := make([]Section, 0, len(raw))
	for _, item := range raw {
		sec, ok := decodeSection(item)
		if !ok {
			continue
		}
		sections = append(sections, sec)
	}
	return sections, nil
}

func decodeSection(item json.RawMessage) (Section, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
		return Section{}, false
	}

	var sec Section
	if !decodeString(fields["name"], &sec.Name, false) || strings.TrimSpace(sec.Name) == "" {
		return Section{}, false
	}
	if !decodeString(fields["plainText"], &sec.PlainText, true) {
		return Section{}, false
	}
	if !decodeString(fields["naturalLanguage"], &sec.NaturalLanguage, true) {
		return Section{}, false
	}
	return sec, true
}

// decodeString decodes a JSON string into dst. Absent or null values are
// accepted only when optional is true.
func decodeString(raw json.RawMessage, dst *string, optional bool) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return optional
	}
	return json.Unmarshal(raw, dst) == nil
}
