package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mathsnap/mathsnap/internal/config"
	"github.com/mathsnap/mathsnap/internal/imgio"
	"github.com/mathsnap/mathsnap/internal/pipeline"
	"github.com/mathsnap/mathsnap/internal/recognize"
)

func newTestServer(t *testing.T, canned string) *Server {
	t.Helper()

	rec := recognize.Func(func(ctx context.Context, img image.Image) (string, error) {
		return canned, nil
	})
	pipe, err := pipeline.New(config.Default(), rec)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return New(pipe)
}

func TestNewReusesPipelineClassifier(t *testing.T) {
	rec := recognize.Func(func(ctx context.Context, img image.Image) (string, error) {
		return "", nil
	})
	pipe, err := pipeline.New(config.Default(), rec)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}

	if srv := New(pipe); srv.classifier != pipe.Classifier() {
		t.Error("server trained its own classifier instead of reusing the pipeline's")
	}
}

func writeTestPage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.png")
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	if err := imgio.SavePNG(path, img); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	return path
}

func TestServeRequestLoop(t *testing.T) {
	srv := newTestServer(t, "x=1")

	input := strings.Join([]string{
		`{"id":1,"method":"ping"}`,
		`this is not json`,
		`{"id":2,"method":"classify","params":{"latex":"x^{2}+5x+6=0"}}`,
		`{"id":3,"method":"no_such_method"}`,
	}, "\n")

	var out bytes.Buffer
	if err := srv.Serve(context.Background(), strings.NewReader(input), &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	decoder := json.NewDecoder(&out)
	var responses []Response
	for decoder.More() {
		var resp Response
		if err := decoder.Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		responses = append(responses, resp)
	}

	if len(responses) != 4 {
		t.Fatalf("expected 4 responses, got %d", len(responses))
	}
	if responses[0].Error != nil {
		t.Errorf("ping failed: %v", responses[0].Error)
	}
	if responses[1].Error == nil || responses[1].Error.Code != CodeParseError {
		t.Errorf("malformed line: got %+v, want parse error", responses[1])
	}
	if responses[2].Error != nil {
		t.Errorf("classify failed: %v", responses[2].Error)
	}
	if responses[3].Error == nil || responses[3].Error.Code != CodeMethodNotFound {
		t.Errorf("unknown method: got %+v, want method-not-found", responses[3])
	}
}

func TestHandleClassify(t *testing.T) {
	srv := newTestServer(t, "")

	resp := srv.handle(context.Background(), &Request{
		ID:     "c1",
		Method: "classify",
		Params: json.RawMessage(`{"latex":"\\int_{a}^{b} f(t) dt"}`),
	})
	if resp.Error != nil {
		t.Fatalf("classify: %v", resp.Error)
	}

	result, ok := resp.Result.(classifyResult)
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}
	if result.Type != "calculus" {
		t.Errorf("type: got %q, want calculus", result.Type)
	}
	if result.Complexity <= 0 {
		t.Errorf("complexity: got %d, want > 0", result.Complexity)
	}
}

func TestHandleClassifyMissingLatex(t *testing.T) {
	srv := newTestServer(t, "")

	resp := srv.handle(context.Background(), &Request{
		ID:     1,
		Method: "classify",
		Params: json.RawMessage(`{}`),
	})
	if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Errorf("got %+v, want invalid-params error", resp)
	}
}

func TestHandleExtract(t *testing.T) {
	srv := newTestServer(t, "x=1")
	path := writeTestPage(t)

	resp := srv.handle(context.Background(), &Request{
		ID:     1,
		Method: "extract",
		Params: json.RawMessage(fmt.Sprintf(`{"path":%q,"page":2}`, path)),
	})
	if resp.Error != nil {
		t.Fatalf("extract: %v", resp.Error)
	}

	result, ok := resp.Result.(extractResult)
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}
	if result.Count != 1 {
		t.Fatalf("count: got %d, want 1", result.Count)
	}
	if result.Candidates[0].Latex != "x=1" || result.Candidates[0].Page != 2 {
		t.Errorf("candidate: %+v", result.Candidates[0])
	}
}

func TestHandleExtractMissingFile(t *testing.T) {
	srv := newTestServer(t, "")

	resp := srv.handle(context.Background(), &Request{
		ID:     1,
		Method: "extract",
		Params: json.RawMessage(`{"path":"/nonexistent/page.png"}`),
	})
	if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Errorf("got %+v, want invalid-params error", resp)
	}
}

func TestHandleRegions(t *testing.T) {
	srv := newTestServer(t, "")
	path := writeTestPage(t)

	resp := srv.handle(context.Background(), &Request{
		ID:     1,
		Method: "regions",
		Params: json.RawMessage(fmt.Sprintf(`{"path":%q}`, path)),
	})
	if resp.Error != nil {
		t.Fatalf("regions: %v", resp.Error)
	}

	result, ok := resp.Result.(regionsResult)
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}
	// A blank page has no regions, but the working dimensions are still
	// reported.
	if result.Width < 800 || result.Height < 800 {
		t.Errorf("working size: %dx%d, want upscaled to working band", result.Width, result.Height)
	}
}

func TestHandleProcessRegionValidation(t *testing.T) {
	srv := newTestServer(t, "")
	path := writeTestPage(t)

	resp := srv.handle(context.Background(), &Request{
		ID:     1,
		Method: "process_region",
		Params: json.RawMessage(fmt.Sprintf(`{"path":%q,"x":0,"y":0,"width":0,"height":10}`, path)),
	})
	if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Errorf("got %+v, want invalid-params error", resp)
	}
}
