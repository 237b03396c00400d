package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/surveynotes/internal/notes"
	"github.com/dusk-indust/surveynotes/internal/session"
	"github.com/dusk-indust/surveynotes/internal/status"
	"github.com/dusk-indust/surveynotes/internal/survey"
)

// ToolService handles MCP tool calls on top of the survey service.
type ToolService struct {
	svc *survey.Service
}

// NewToolService creates a ToolService.
func NewToolService(svc *survey.Service) *ToolService {
	return &ToolService{svc: svc}
}

// ReconcileSections merges incoming sections into previous ones without
// touching any stored session.
func (s *ToolService) ReconcileSections(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ReconcileSectionsInput,
) (*mcp.CallToolResult, ReconcileSectionsOutput, error) {
	out := s.svc.Reconcile(input.Previous, input.Incoming, input.SectionOrder, input.Compact)
	if out == nil {
		out = []notes.Section{}
	}
	return nil, ReconcileSectionsOutput{Sections: out}, nil
}

// GetSession returns a stored session with its reconciled sections.
func (s *ToolService) GetSession(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SessionInput,
) (*mcp.CallToolResult, SessionOutput, error) {
	sess, err := s.svc.GetSession(ctx, input.ID)
	if err != nil {
		return nil, SessionOutput{}, err
	}
	return nil, sessionOutput(sess), nil
}

// ListSessions returns one page of stored sessions.
func (s *ToolService) ListSessions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListSessionsInput,
) (*mcp.CallToolResult, ListSessionsOutput, error) {
	res, err := s.svc.ListSessions(ctx, session.ListOptions{
		PageSize:  input.PageSize,
		PageToken: input.PageToken,
	})
	if err != nil {
		return nil, ListSessionsOutput{}, err
	}

	out := ListSessionsOutput{
		Sessions:      make([]SessionSummary, 0, len(res.Sessions)),
		TotalSize:     res.TotalSize,
		NextPageToken: res.NextPageToken,
	}
	for _, sess := range res.Sessions {
		out.Sessions = append(out.Sessions, SessionSummary{
			ID:       sess.ID,
			Name:     sess.Name,
			Revision: sess.Revision,
			Sections: len(sess.Sections),
		})
	}
	return nil, out, nil
}

// SessionStatus reports which canonical sections a session has populated.
func (s *ToolService) SessionStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SessionInput,
) (*mcp.CallToolResult, status.SessionStatus, error) {
	st, err := s.svc.Status(ctx, input.ID)
	if err != nil {
		return nil, status.SessionStatus{}, err
	}
	return nil, *st, nil
}
