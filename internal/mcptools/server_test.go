package mcptools

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/surveynotes/internal/notes"
	"github.com/dusk-indust/surveynotes/internal/processor"
	"github.com/dusk-indust/surveynotes/internal/session"
	"github.com/dusk-indust/surveynotes/internal/status"
	"github.com/dusk-indust/surveynotes/internal/survey"
)

// setupServerClient wires an MCP server and client together using in-memory
// transports. It returns the connected client session and the survey service
// so tests can seed state.
func setupServerClient(t *testing.T) (*mcp.ClientSession, *survey.Service) {
	t.Helper()

	proc := processor.Func(func(context.Context, processor.Request) (*processor.Result, error) {
		return &processor.Result{Sections: []notes.Section{{Name: "Needs", PlainText: "Combi swap"}}}, nil
	})
	refresher := survey.NewRefresher(session.NewMemoryStore(), proc, notes.NewReconciler([]string{"Needs", "Flue"}), nil, nil)
	svc := survey.NewService(refresher)
	server := NewMCPServer(svc)

	st, ct := mcp.NewInMemoryTransports()
	ctx := context.Background()

	_, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		cs.Close()
	})

	return cs, svc
}

func callTool[T any](t *testing.T, cs *mcp.ClientSession, name string, args any) T {
	t.Helper()

	result, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	require.False(t, result.IsError, "%s returned a tool error", name)
	require.NotNil(t, result.StructuredContent)

	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestMCPListTools(t *testing.T) {
	cs, _ := setupServerClient(t)

	result, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	sort.Strings(names)

	assert.Equal(t, []string{"get_session", "list_sessions", "reconcile_sections", "session_status"}, names)
}

func TestMCPReconcileSections(t *testing.T) {
	cs, _ := setupServerClient(t)

	out := callTool[ReconcileSectionsOutput](t, cs, "reconcile_sections", ReconcileSectionsInput{
		Previous: []notes.Section{{Name: "Flue", PlainText: "Rear wall"}},
		Incoming: []notes.Section{
			{Name: "Flues", PlainText: "Rear wall, 1m from window"},
			{Name: "need", PlainText: "Combi swap"},
		},
	})

	require.Len(t, out.Sections, 2)
	assert.Equal(t, "Needs", out.Sections[0].Name)
	assert.Equal(t, "Flue", out.Sections[1].Name)
	assert.Equal(t, "Rear wall, 1m from window", out.Sections[1].PlainText)
}

func TestMCPSessionTools(t *testing.T) {
	cs, svc := setupServerClient(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, "12 Acacia Avenue")
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, sess.ID, "customer wants a combi")
	require.NoError(t, err)

	got := callTool[SessionOutput](t, cs, "get_session", SessionInput{ID: sess.ID})
	assert.Equal(t, 1, got.Revision)
	require.Len(t, got.Sections, 1)
	assert.Equal(t, "Combi swap", got.Sections[0].PlainText)

	list := callTool[ListSessionsOutput](t, cs, "list_sessions", ListSessionsInput{})
	assert.Equal(t, 1, list.TotalSize)
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, 1, list.Sessions[0].Sections)

	st := callTool[status.SessionStatus](t, cs, "session_status", SessionInput{ID: sess.ID})
	assert.Equal(t, "Flue", st.NextMissing)
}

func TestMCPGetSessionMissing(t *testing.T) {
	cs, _ := setupServerClient(t)

	result, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_session",
		Arguments: SessionInput{ID: "missing"},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
