// Package server exposes the survey service over JSON-RPC 2.0 on HTTP and
// streams progress events as Server-Sent Events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dusk-indust/surveynotes/internal/jsonrpc"
	"github.com/dusk-indust/surveynotes/internal/notes"
	"github.com/dusk-indust/surveynotes/internal/session"
	"github.com/dusk-indust/surveynotes/internal/survey"
)

// JSON-RPC method names served on /rpc.
const (
	MethodReconcile     = "sections/reconcile"
	MethodCreateSession = "sessions/create"
	MethodGetSession    = "sessions/get"
	MethodListSessions  = "sessions/list"
	MethodIngestSession = "sessions/ingest"
)

const (
	defaultKeepAlive     = 15 * time.Second
	maxRequestBodyLength = 8 << 20
)

// Server serves the survey service over HTTP.
type Server struct {
	svc       *survey.Service
	hub       *Hub
	logger    *zap.Logger
	keepAlive time.Duration

	http     *http.Server
	ln       net.Listener
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a Server. hub feeds /events and may be shared with the
// refresher's progress callback.
func New(svc *survey.Service, hub *Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hub == nil {
		hub = NewHub()
	}
	return &Server{
		svc:       svc,
		hub:       hub,
		logger:    logger,
		keepAlive: defaultKeepAlive,
		done:      make(chan struct{}),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /rpc", s.handleJSONRPC)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// Start binds addr and begins serving in a background goroutine. Bind errors
// are returned; later serve errors are logged.
func (s *Server) Start(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	s.ln = ln
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", zap.Error(err))
		}
	}()
	s.logger.Info("serving", zap.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Stop ends open event streams and gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.done) })
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleEvents streams progress events until the client disconnects or the
// server stops. ?session=<id> restricts the stream to one session.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("session")

	events, cancel := s.hub.Subscribe()
	defer cancel()

	sw := NewSSEWriter(w)
	sw.Init()

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if filter != "" && ev.SessionID != filter {
				continue
			}
			if err := sw.WriteEvent(ev); err != nil {
				s.logger.Debug("event stream closed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := sw.WriteComment("keep-alive"); err != nil {
				return
			}
		}
	}
}

// handleJSONRPC decodes one JSON-RPC 2.0 request and dispatches it.
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var req jsonrpc.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyLength)).Decode(&req); err != nil {
		jsonrpc.WriteError(w, nil, jsonrpc.CodeParse, "Parse error: "+err.Error())
		return
	}
	if req.JSONRPC != jsonrpc.Version || req.Method == "" {
		jsonrpc.WriteError(w, req.ID, jsonrpc.CodeInvalidRequest, "Invalid request")
		return
	}

	ctx := r.Context()
	s.logger.Debug("rpc", zap.String("method", req.Method))

	var (
		result any
		err    error
	)
	switch req.Method {
	case MethodReconcile:
		result, err = s.reconcile(req.Params)
	case MethodCreateSession:
		result, err = s.createSession(ctx, req.Params)
	case MethodGetSession:
		result, err = s.getSession(ctx, req.Params)
	case MethodListSessions:
		result, err = s.listSessions(ctx, req.Params)
	case MethodIngestSession:
		result, err = s.ingestSession(ctx, req.Params)
	default:
		jsonrpc.WriteError(w, req.ID, jsonrpc.CodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
		return
	}

	if err != nil {
		code := errorCode(err)
		if code == jsonrpc.CodeInternal || code == jsonrpc.CodeProcessing {
			s.logger.Error("rpc failed", zap.String("method", req.Method), zap.Error(err))
		}
		jsonrpc.WriteError(w, req.ID, code, err.Error())
		return
	}
	jsonrpc.WriteResult(w, req.ID, result)
}

// paramsError marks a params payload that could not be decoded.
type paramsError struct{ err error }

func (e *paramsError) Error() string { return "Invalid params: " + e.err.Error() }
func (e *paramsError) Unwrap() error { return e.err }

// processingError marks a failure of the remote processing pass.
type processingError struct{ err error }

func (e *processingError) Error() string { return e.err.Error() }
func (e *processingError) Unwrap() error { return e.err }

func errorCode(err error) int {
	var pe *paramsError
	var proc *processingError
	switch {
	case errors.As(err, &pe), errors.Is(err, survey.ErrInvalidArgument), errors.Is(err, session.ErrInvalidPageToken):
		return jsonrpc.CodeInvalidParams
	case errors.Is(err, session.ErrNotFound):
		return jsonrpc.CodeSessionNotFound
	case errors.As(err, &proc):
		return jsonrpc.CodeProcessing
	default:
		return jsonrpc.CodeInternal
	}
}

// decodeParams unmarshals raw into v. Absent params leave v untouched.
func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &paramsError{err: err}
	}
	return nil
}

// ReconcileParams are the params of sections/reconcile. Section arrays are
// decoded leniently.
type ReconcileParams struct {
	Previous     json.RawMessage `json:"previous,omitempty"`
	Incoming     json.RawMessage `json:"incoming,omitempty"`
	SectionOrder []string        `json:"sectionOrder,omitempty"`
	Compact      bool            `json:"compact,omitempty"`
}

// SectionsResult is the result of sections/reconcile.
type SectionsResult struct {
	Sections []notes.Section `json:"sections"`
}

func (s *Server) reconcile(raw json.RawMessage) (any, error) {
	var p ReconcileParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	previous, err := decodeSections(p.Previous)
	if err != nil {
		return nil, err
	}
	incoming, err := decodeSections(p.Incoming)
	if err != nil {
		return nil, err
	}

	out := s.svc.Reconcile(previous, incoming, p.SectionOrder, p.Compact)
	if out == nil {
		out = []notes.Section{}
	}
	return SectionsResult{Sections: out}, nil
}

func decodeSections(raw json.RawMessage) ([]notes.Section, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	sections, err := notes.DecodeSections(raw)
	if err != nil {
		return nil, &paramsError{err: err}
	}
	return sections, nil
}

// CreateSessionParams are the params of sessions/create.
type CreateSessionParams struct {
	Name string `json:"name"`
}

func (s *Server) createSession(ctx context.Context, raw json.RawMessage) (any, error) {
	var p CreateSessionParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	return s.svc.CreateSession(ctx, p.Name)
}

// SessionIDParams identify one session.
type SessionIDParams struct {
	ID string `json:"id"`
}

func (s *Server) getSession(ctx context.Context, raw json.RawMessage) (any, error) {
	var p SessionIDParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	return s.svc.GetSession(ctx, p.ID)
}

func (s *Server) listSessions(ctx context.Context, raw json.RawMessage) (any, error) {
	var p session.ListOptions
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	return s.svc.ListSessions(ctx, p)
}

// IngestParams are the params of sessions/ingest.
type IngestParams struct {
	ID         string `json:"id"`
	Transcript string `json:"transcript"`
}

func (s *Server) ingestSession(ctx context.Context, raw json.RawMessage) (any, error) {
	var p IngestParams
	if err := decodeParams(raw, &p); err != nil {
		return nil, err
	}
	sess, err := s.svc.Ingest(ctx, p.ID, p.Transcript)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, survey.ErrInvalidArgument) {
			return nil, err
		}
		return nil, &processingError{err: err}
	}
	return sess, nil
}
