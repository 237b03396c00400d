package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/surveynotes/internal/survey"
)

// version is set by the linker at build time.
var version = "dev"

// NewMCPServer creates an MCP server with the survey note tools registered.
func NewMCPServer(svc *survey.Service) *mcp.Server {
	tools := NewToolService(svc)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "surveynotes",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reconcile_sections",
		Description: "Merge a new set of survey-note sections into the previous set. Sections are matched to the canonical order by name (plural, hyphen and '&' variants are accepted), near-duplicate text is deduplicated, and nothing present before is lost.",
	}, tools.ReconcileSections)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_session",
		Description: "Get a stored survey session: its transcript and reconciled sections.",
	}, tools.GetSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_sessions",
		Description: "List stored survey sessions in creation order, with optional pagination.",
	}, tools.ListSessions)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "session_status",
		Description: "Report which canonical sections of a survey session are populated and which one is missing next.",
	}, tools.SessionStatus)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
