package jsonrpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"rightmove_tools/internal/app"
)

const protocolVersion = "2024-11-05"

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// maxLine bounds a single framed message.
const maxLine = 4 << 20

// Dispatcher is the tool surface the server exposes.
type Dispatcher interface {
	Tools() []app.Tool
	Dispatch(ctx context.Context, name string, args json.RawMessage) app.Outcome
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Server speaks newline-delimited JSON-RPC 2.0. tools/call requests run
// concurrently up to the worker bound; every other method is answered inline.
type Server struct {
	d       Dispatcher
	name    string
	version string
	workers int64
}

func New(d Dispatcher, name, version string, workers int) *Server {
	if workers <= 0 {
		workers = 1
	}
	return &Server{d: d, name: name, version: version, workers: int64(workers)}
}

// Serve reads requests from in until EOF or ctx is done, writing responses to
// out. In-flight calls are drained before it returns.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	w := &writer{enc: json.NewEncoder(out)}
	sem := semaphore.NewWeighted(s.workers)
	var wg sync.WaitGroup
	defer wg.Wait()

	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			w.write(response{ID: nil, Error: &rpcError{codeParseError, "parse error: " + err.Error()}})
			continue
		}
		if req.Method != "tools/call" {
			if resp, ok := s.handle(req); ok {
				w.write(resp)
			}
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		wg.Add(1)
		go func(req request) {
			defer wg.Done()
			defer sem.Release(1)
			resp := s.call(ctx, req)
			if len(req.ID) > 0 {
				w.write(resp)
			}
		}(req)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read requests: %w", err)
	}
	return nil
}

// handle answers the synchronous methods. ok is false for notifications.
func (s *Server) handle(req request) (response, bool) {
	notification := len(req.ID) == 0
	var resp response
	switch req.Method {
	case "initialize":
		resp = result(req.ID, map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]string{"name": s.name, "version": s.version},
		})
	case "ping":
		resp = result(req.ID, map[string]any{})
	case "tools/list":
		resp = result(req.ID, map[string]any{"tools": s.d.Tools()})
	case "":
		resp = failure(req.ID, codeInvalidRequest, "missing method")
	default:
		if notification {
			log.Debug().Str("method", req.Method).Msg("notification ignored")
			return response{}, false
		}
		resp = failure(req.ID, codeMethodNotFound, "method not found: "+req.Method)
	}
	return resp, !notification
}

func (s *Server) call(ctx context.Context, req request) response {
	var p callParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return failure(req.ID, codeInvalidParams, "invalid params: "+err.Error())
		}
	}
	out := s.d.Dispatch(ctx, p.Name, p.Arguments)
	if !out.OK() && out.Failure.Kind == app.UnknownTool {
		return failure(req.ID, codeInvalidParams, out.Failure.Message)
	}
	return result(req.ID, out.Envelope())
}

func result(id json.RawMessage, v any) response {
	return response{JSONRPC: "2.0", ID: id, Result: v}
}

func failure(id json.RawMessage, code int, msg string) response {
	return response{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: msg}}
}

// writer serializes responses so concurrent calls never interleave a line.
type writer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func (w *writer) write(resp response) {
	resp.JSONRPC = "2.0"
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(resp); err != nil {
		log.Error().Err(err).Msg("write response failed")
	}
}
