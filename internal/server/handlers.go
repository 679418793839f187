package server

import (
	"context"
	"encoding/json"
	"errors"
	"image"

	"github.com/disintegration/imaging"

	"github.com/mathsnap/mathsnap/internal/detect"
	"github.com/mathsnap/mathsnap/internal/pipeline"
)

type extractParams struct {
	Path string `json:"path"`
	Page int    `json:"page"`
}

type extractResult struct {
	Candidates []pipeline.FormulaCandidate `json:"candidates"`
	Count      int                         `json:"count"`
}

// handleExtract runs the full pipeline over a page image on disk.
func (s *Server) handleExtract(ctx context.Context, req *Request) *Response {
	var params extractParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Path == "" {
		return errorResponse(req.ID, CodeInvalidParams, "extract requires a path")
	}

	img, err := s.cache.Load(params.Path)
	if err != nil {
		return errorResponse(req.ID, CodeInvalidParams, err.Error())
	}

	candidates, err := s.pipe.ProcessImage(ctx, img, params.Page)
	if err != nil {
		code := CodeInternalError
		if errors.Is(err, pipeline.ErrEmptyImage) {
			code = CodeInvalidParams
		}
		return errorResponse(req.ID, code, err.Error())
	}

	if candidates == nil {
		candidates = []pipeline.FormulaCandidate{}
	}
	return &Response{ID: req.ID, Result: extractResult{Candidates: candidates, Count: len(candidates)}}
}

type regionsParams struct {
	Path string `json:"path"`
}

type regionsResult struct {
	Regions []detect.Region `json:"regions"`
	Count   int             `json:"count"`

	// Width and Height describe the working image the region
	// coordinates refer to, which may differ from the file's dimensions
	// after resizing.
	Width  int `json:"width"`
	Height int `json:"height"`
}

// handleRegions returns the consolidated region set without recognition,
// for clients that draw their own selection UI.
func (s *Server) handleRegions(req *Request) *Response {
	var params regionsParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Path == "" {
		return errorResponse(req.ID, CodeInvalidParams, "regions requires a path")
	}

	img, err := s.cache.Load(params.Path)
	if err != nil {
		return errorResponse(req.ID, CodeInvalidParams, err.Error())
	}

	regions, working, err := s.pipe.Regions(img)
	if err != nil {
		return errorResponse(req.ID, CodeInternalError, err.Error())
	}

	if regions == nil {
		regions = []detect.Region{}
	}
	bounds := working.Bounds()
	return &Response{ID: req.ID, Result: regionsResult{
		Regions: regions,
		Count:   len(regions),
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
	}}
}

type processRegionParams struct {
	Path   string `json:"path"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type processRegionResult struct {
	Latex string `json:"latex"`
}

// handleProcessRegion recognizes one manually selected crop of a page.
func (s *Server) handleProcessRegion(ctx context.Context, req *Request) *Response {
	var params processRegionParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Path == "" {
		return errorResponse(req.ID, CodeInvalidParams, "process_region requires a path")
	}
	if params.Width <= 0 || params.Height <= 0 {
		return errorResponse(req.ID, CodeInvalidParams, "region must have positive dimensions")
	}

	img, err := s.cache.Load(params.Path)
	if err != nil {
		return errorResponse(req.ID, CodeInvalidParams, err.Error())
	}

	crop := imaging.Crop(img, image.Rect(params.X, params.Y, params.X+params.Width, params.Y+params.Height))
	latex, _, err := s.pipe.ProcessRegion(ctx, crop)
	if err != nil {
		code := CodeInternalError
		if errors.Is(err, pipeline.ErrEmptyImage) {
			code = CodeInvalidParams
		}
		return errorResponse(req.ID, code, err.Error())
	}
	return &Response{ID: req.ID, Result: processRegionResult{Latex: latex}}
}

type classifyParams struct {
	Latex string `json:"latex"`
}

type classifyResult struct {
	Type       string `json:"type"`
	Difficulty string `json:"difficulty"`
	Complexity int    `json:"complexity"`
}

// handleClassify classifies a LaTeX string without touching any image,
// used by editors after manual corrections.
func (s *Server) handleClassify(req *Request) *Response {
	var params classifyParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Latex == "" {
		return errorResponse(req.ID, CodeInvalidParams, "classify requires latex")
	}

	return &Response{ID: req.ID, Result: classifyResult{
		Type:       string(s.classifier.ClassifyType(params.Latex)),
		Difficulty: string(s.classifier.ClassifyDifficulty(params.Latex)),
		Complexity: s.classifier.ComplexityScore(params.Latex),
	}}
}

type evictParams struct {
	Path string `json:"path"`
}

// handleEvict drops one page from the image cache.
func (s *Server) handleEvict(req *Request) *Response {
	var params evictParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Path == "" {
		return errorResponse(req.ID, CodeInvalidParams, "evict requires a path")
	}
	s.cache.Evict(params.Path)
	return &Response{ID: req.ID, Result: map[string]any{}}
}
