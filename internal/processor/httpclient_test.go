package processor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/surveynotes/internal/jsonrpc"
	"github.com/dusk-indust/surveynotes/internal/notes"
)

// rpcHandler is a convenience that decodes a jsonrpc.Request and writes back a jsonrpc.Response.
func rpcHandler(t *testing.T, fn func(req jsonrpc.Request) jsonrpc.Response) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req jsonrpc.Request
		err := json.NewDecoder(r.Body).Decode(&req)
		require.NoError(t, err, "server should be able to decode JSON-RPC request")
		assert.Equal(t, jsonrpc.Version, req.JSONRPC)

		resp := fn(req)
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}
}

func TestProcess_HappyPath(t *testing.T) {
	ts := httptest.NewServer(rpcHandler(t, func(req jsonrpc.Request) jsonrpc.Response {
		assert.Equal(t, MethodProcess, req.Method)

		var params Request
		require.NoError(t, json.Unmarshal(req.Params, &params))
		assert.Equal(t, "sess-1", params.SessionID)
		assert.Equal(t, "boiler is old", params.Transcript)
		assert.Equal(t, []string{"Needs", "Flue"}, params.SectionOrder)

		return jsonrpc.Response{
			JSONRPC: jsonrpc.Version,
			ID:      req.ID,
			Result: json.RawMessage(`{"model":"notes-v2","sections":[
				{"name":"Needs","plainText":"Boiler is old","naturalLanguage":"The boiler is old."},
				{"name":17},
				{"name":"Flue","plainText":"Rear wall"}
			]}`),
		}
	}))
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	res, err := client.Process(context.Background(), Request{
		SessionID:    "sess-1",
		Transcript:   "boiler is old",
		SectionOrder: []string{"Needs", "Flue"},
	})
	require.NoError(t, err)
	assert.Equal(t, "notes-v2", res.Model)
	assert.Equal(t, []notes.Section{
		{Name: "Needs", PlainText: "Boiler is old", NaturalLanguage: "The boiler is old."},
		{Name: "Flue", PlainText: "Rear wall"},
	}, res.Sections)
}

func TestProcess_NoSections(t *testing.T) {
	ts := httptest.NewServer(rpcHandler(t, func(req jsonrpc.Request) jsonrpc.Response {
		return jsonrpc.Response{JSONRPC: jsonrpc.Version, ID: req.ID, Result: json.RawMessage(`{}`)}
	}))
	defer ts.Close()

	res, err := NewHTTPClient(ts.URL).Process(context.Background(), Request{Transcript: "x"})
	require.NoError(t, err)
	assert.Empty(t, res.Sections)
}

func TestProcess_RPCError(t *testing.T) {
	ts := httptest.NewServer(rpcHandler(t, func(req jsonrpc.Request) jsonrpc.Response {
		return jsonrpc.Response{
			JSONRPC: jsonrpc.Version,
			ID:      req.ID,
			Error: &jsonrpc.Error{
				Code:    jsonrpc.CodeInvalidParams,
				Message: "transcript too short",
			},
		}
	}))
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL).Process(context.Background(), Request{Transcript: "x"})
	require.Error(t, err)

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr), "error should be *RPCError, got %T", err)
	assert.Equal(t, jsonrpc.CodeInvalidParams, rpcErr.Code)
	assert.Equal(t, MethodProcess, rpcErr.Method)
	assert.Contains(t, err.Error(), "transcript too short")
}

func TestProcess_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL).Process(context.Background(), Request{Transcript: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestProcess_SectionsNotArray(t *testing.T) {
	ts := httptest.NewServer(rpcHandler(t, func(req jsonrpc.Request) jsonrpc.Response {
		return jsonrpc.Response{JSONRPC: jsonrpc.Version, ID: req.ID, Result: json.RawMessage(`{"sections":{"name":"Flue"}}`)}
	}))
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL).Process(context.Background(), Request{Transcript: "x"})
	require.Error(t, err)
}

func TestProcess_NoEndpoint(t *testing.T) {
	_, err := NewHTTPClient("").Process(context.Background(), Request{Transcript: "x"})
	assert.ErrorIs(t, err, ErrNoEndpoint)
}

func TestProcess_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPClient(ts.URL).Process(ctx, Request{Transcript: "x"})
	require.Error(t, err)
}

func TestProcess_RequestIDsIncrease(t *testing.T) {
	var ids []float64
	ts := httptest.NewServer(rpcHandler(t, func(req jsonrpc.Request) jsonrpc.Response {
		ids = append(ids, req.ID.(float64))
		return jsonrpc.Response{JSONRPC: jsonrpc.Version, ID: req.ID, Result: json.RawMessage(`{"sections":[]}`)}
	}))
	defer ts.Close()

	client := NewHTTPClient(ts.URL, WithTimeout(5*time.Second))
	for i := 0; i < 3; i++ {
		_, err := client.Process(context.Background(), Request{Transcript: "x"})
		require.NoError(t, err)
	}
	assert.Equal(t, []float64{1, 2, 3}, ids)
}
