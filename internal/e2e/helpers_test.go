//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dusk-indust/surveynotes/internal/jsonrpc"
	"github.com/dusk-indust/surveynotes/internal/notes"
	"github.com/dusk-indust/surveynotes/internal/processor"
	"github.com/dusk-indust/surveynotes/internal/server"
	"github.com/dusk-indust/surveynotes/internal/session"
	"github.com/dusk-indust/surveynotes/internal/survey"
)

var replayOrder = []string{"Needs", "Flue", "Pipe work", "Disruption"}

// passFiles returns the recorded processing passes of a fixture in order.
func passFiles(t *testing.T, fixture string) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join("..", "..", "testdata", "passes", fixture, "pass-*.json"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	sort.Strings(files)
	return files
}

// replayEndpoint serves notes/process by returning the recorded passes one
// after another; the last pass repeats.
func replayEndpoint(t *testing.T, files []string) *httptest.Server {
	t.Helper()

	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpc.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonrpc.WriteError(w, nil, jsonrpc.CodeParse, err.Error())
			return
		}
		if req.Method != processor.MethodProcess {
			jsonrpc.WriteError(w, req.ID, jsonrpc.CodeMethodNotFound, req.Method)
			return
		}

		n := int(calls.Add(1)) - 1
		if n >= len(files) {
			n = len(files) - 1
		}
		sections, err := os.ReadFile(files[n])
		if err != nil {
			jsonrpc.WriteError(w, req.ID, jsonrpc.CodeInternal, err.Error())
			return
		}
		jsonrpc.WriteResult(w, req.ID, map[string]any{
			"sections": json.RawMessage(sections),
			"model":    "replay",
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

// stack is a running server backed by a SQLite store and the replay endpoint.
type stack struct {
	srv  *server.Server
	hub  *server.Hub
	base string
}

func startStack(t *testing.T, endpoint string) *stack {
	t.Helper()

	store, err := session.NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)

	hub := server.NewHub()
	refresher := survey.NewRefresher(store, processor.NewHTTPClient(endpoint), notes.NewReconciler(replayOrder), zap.NewNop(), hub.Publish)
	srv := server.New(survey.NewService(refresher), hub, zap.NewNop())
	require.NoError(t, srv.Start(context.Background(), "127.0.0.1:0"))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
		hub.Close()
		_ = store.Close()
	})

	return &stack{srv: srv, hub: hub, base: "http://" + srv.Addr()}
}

// call invokes a JSON-RPC method on the stack and decodes the result into out.
func (s *stack) call(t *testing.T, method string, params, out any) {
	t.Helper()

	raw, err := json.Marshal(params)
	require.NoError(t, err)
	body, err := json.Marshal(jsonrpc.Request{JSONRPC: jsonrpc.Version, ID: 1, Method: method, Params: raw})
	require.NoError(t, err)

	resp, err := http.Post(s.base+"/rpc", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var rpcResp jsonrpc.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpcResp))
	require.Nil(t, rpcResp.Error, fmt.Sprintf("%s failed", method))
	if out != nil {
		require.NoError(t, json.Unmarshal(rpcResp.Result, out))
	}
}
