package processor

import (
	"context"
	"encoding/json"

	"github.com/dusk-indust/surveynotes/internal/notes"
)

// MethodProcess is the JSON-RPC method served by the remote text-processing
// endpoint.
const MethodProcess = "notes/process"

// Processor turns a cumulative transcript into candidate note sections.
type Processor interface {
	Process(ctx context.Context, req Request) (*Result, error)
}

// Request is the params object of a notes/process call.
type Request struct {
	SessionID    string   `json:"sessionId,omitempty"`
	Transcript   string   `json:"transcript"`
	SectionOrder []string `json:"sectionOrder,omitempty"`
}

// Result holds the sections returned for one transcript.
type Result struct {
	Sections []notes.Section
	Model    string
}

// wireResult is the result object as sent by the endpoint. Sections are kept
// raw so malformed entries can be skipped individually.
type wireResult struct {
	Sections json.RawMessage `json:"sections"`
	Model    string          `json:"model,omitempty"`
}

// Func adapts an ordinary function to the Processor interface.
type Func func(ctx context.Context, req Request) (*Result, error)

// Process calls f.
func (f Func) Process(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}
