package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dusk-indust/surveynotes/internal/jsonrpc"
	"github.com/dusk-indust/surveynotes/internal/notes"
)

// Compile-time interface check.
var _ Processor = (*HTTPClient)(nil)

// ErrNoEndpoint is returned when the client was built without an endpoint.
var ErrNoEndpoint = errors.New("processor: no endpoint configured")

// HTTPClient implements Processor using HTTP/JSON-RPC.
type HTTPClient struct {
	endpoint  string
	http      *http.Client
	requestID atomic.Int64
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// NewHTTPClient creates a client for the processing endpoint URL.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Process sends the cumulative transcript and decodes the returned sections.
// Malformed section entries in the response are skipped.
func (c *HTTPClient) Process(ctx context.Context, req Request) (*Result, error) {
	if c.endpoint == "" {
		return nil, ErrNoEndpoint
	}

	var wire wireResult
	if err := c.call(ctx, MethodProcess, req, &wire); err != nil {
		return nil, err
	}

	res := &Result{Model: wire.Model}
	if len(wire.Sections) == 0 || string(wire.Sections) == "null" {
		return res, nil
	}
	sections, err := notes.DecodeSections(wire.Sections)
	if err != nil {
		return nil, fmt.Errorf("processor: %w", err)
	}
	res.Sections = sections
	return res, nil
}

// nextID returns a monotonically increasing request ID for JSON-RPC calls.
func (c *HTTPClient) nextID() int64 {
	return c.requestID.Add(1)
}

// call performs a JSON-RPC 2.0 call over HTTP POST.
func (c *HTTPClient) call(ctx context.Context, method string, params any, result any) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("processor: marshal params: %w", err)
	}

	body, err := json.Marshal(jsonrpc.Request{
		JSONRPC: jsonrpc.Version,
		ID:      c.nextID(),
		Method:  method,
		Params:  paramsJSON,
	})
	if err != nil {
		return fmt.Errorf("processor: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("processor: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("processor: %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("processor: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("processor: %s: HTTP %d: %s", method, resp.StatusCode, string(respBody))
	}

	var rpcResp jsonrpc.Response
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("processor: decode response: %w", err)
	}

	if rpcResp.Error != nil {
		return &RPCError{
			Method:  method,
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
			Data:    rpcResp.Error.Data,
		}
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("processor: decode result: %w", err)
		}
	}
	return nil
}

// RPCError represents a JSON-RPC error returned by the processing endpoint.
type RPCError struct {
	Method  string
	Code    int
	Message string
	Data    json.RawMessage
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("processor: %s: rpc error %d: %s (data: %s)", e.Method, e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("processor: %s: rpc error %d: %s", e.Method, e.Code, e.Message)
}
