// Package server exposes the extraction pipeline as a line-oriented JSON
// service over stdin/stdout, so editor frontends can drive extraction
// without linking the Go code.
//
// Each request is a single JSON line; each response is a single JSON
// line carrying the request's id. Requests are handled sequentially in
// arrival order.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/mathsnap/mathsnap/internal/classify"
	"github.com/mathsnap/mathsnap/internal/imgio"
	"github.com/mathsnap/mathsnap/internal/pipeline"
)

// Request is one incoming command.
type Request struct {
	ID     any             `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response answers one request. Exactly one of Result and Error is set.
type Response struct {
	ID     any    `json:"id"`
	Result any    `json:"result,omitempty"`
	Error  *Error `json:"error,omitempty"`
}

// Error describes a failed request.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error codes. The values mirror JSON-RPC conventions so clients built
// for those tools need no translation layer.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Server handles extraction requests against a shared pipeline and a
// page cache.
type Server struct {
	pipe       *pipeline.Pipeline
	classifier *classify.Classifier
	cache      *imgio.Cache
	log        *slog.Logger
}

// New creates a server around a constructed pipeline. The server reuses
// the pipeline's classifier rather than training its own.
func New(pipe *pipeline.Pipeline) *Server {
	return &Server{
		pipe:       pipe,
		classifier: pipe.Classifier(),
		cache:      imgio.NewCache(),
		log:        slog.Default().With("component", "server"),
	}
}

// Serve reads JSON requests line by line from r and writes responses to
// w until r is exhausted, the context is cancelled, or writing fails.
// Malformed lines produce an error response rather than stopping the
// loop.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Requests referencing large pages stay small, but classify requests
	// may carry long LaTeX payloads.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Warn("malformed request line", "error", err)
			if err := encoder.Encode(errorResponse(nil, CodeParseError, "malformed request")); err != nil {
				return err
			}
			continue
		}

		if err := encoder.Encode(s.handle(ctx, &req)); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("request stream: %w", err)
	}
	return nil
}

// handle routes one request to its handler.
func (s *Server) handle(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "ping":
		return &Response{ID: req.ID, Result: map[string]any{}}
	case "extract":
		return s.handleExtract(ctx, req)
	case "regions":
		return s.handleRegions(req)
	case "process_region":
		return s.handleProcessRegion(ctx, req)
	case "classify":
		return s.handleClassify(req)
	case "evict":
		return s.handleEvict(req)
	default:
		return errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

func errorResponse(id any, code int, message string) *Response {
	return &Response{ID: id, Error: &Error{Code: code, Message: message}}
}
