// Package pipeline orchestrates the formula extraction stages: preprocess,
// detect, recognize, normalize, validate, classify.
//
// A Pipeline is immutable after construction and safe for concurrent use;
// every invocation owns its inputs and outputs and shares no mutable state
// with other invocations.
package pipeline

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/mathsnap/mathsnap/internal/classify"
	"github.com/mathsnap/mathsnap/internal/config"
	"github.com/mathsnap/mathsnap/internal/detect"
	"github.com/mathsnap/mathsnap/internal/latex"
	"github.com/mathsnap/mathsnap/internal/preprocess"
	"github.com/mathsnap/mathsnap/internal/recognize"
)

// ErrEmptyImage is returned when a nil or zero-sized image is submitted.
// Every other failure inside the pipeline degrades to a smaller (possibly
// empty) candidate list instead of an error.
var ErrEmptyImage = errors.New("empty input image")

// FormulaCandidate is one validated, classified formula extracted from an
// image. Candidates are values; a corrected candidate is a new value.
type FormulaCandidate struct {
	// Latex is the cleaned LaTeX string.
	Latex string `json:"latex"`

	// Region is the bounding box the formula was extracted from, in
	// working-image coordinates. Nil for whole-image recognition.
	Region *detect.Region `json:"region,omitempty"`

	// Type is the topic label assigned by the classifier.
	Type classify.TopicLabel `json:"type"`

	// Difficulty is the difficulty label assigned by the classifier.
	Difficulty classify.DifficultyLabel `json:"difficulty"`

	// Confidence is the validation confidence score in [0, 1].
	Confidence float64 `json:"confidence"`

	// Page is the page number the image came from, zero-based.
	Page int `json:"page"`
}

// extractPadding is the extra padding fraction applied around a detected
// region when cropping it for recognition.
const extractPadding = 0.20

// Pipeline runs the full extraction sequence over images.
type Pipeline struct {
	cfg          *config.Config
	recognizer   recognize.Recognizer
	classifier   *classify.Classifier
	detector     *detect.Detector
	consolidator *detect.Consolidator
	log          *slog.Logger
}

// New builds a pipeline from a configuration and a recognizer. The
// classifier is trained once here and reused for every image.
func New(cfg *config.Config, rec recognize.Recognizer) (*Pipeline, error) {
	classifier, err := classify.NewClassifier()
	if err != nil {
		return nil, err
	}

	consolidator := detect.NewConsolidator()
	consolidator.HorizontalOverlap = cfg.MergeOverlap
	consolidator.VerticalOverlap = cfg.MergeOverlap
	consolidator.CenterDistance = cfg.MergeCenterDistance
	consolidator.ClusterEpsilon = cfg.ClusterEpsilon
	consolidator.PaddingFraction = cfg.PaddingFraction
	consolidator.MinArea = cfg.MinRegionArea
	consolidator.MaxArea = cfg.MaxRegionArea

	return &Pipeline{
		cfg:          cfg,
		recognizer:   rec,
		classifier:   classifier,
		detector:     detect.NewDetector(),
		consolidator: consolidator,
		log:          slog.Default().With("component", "pipeline"),
	}, nil
}

// Classifier returns the pipeline's trained classifier so callers can
// label LaTeX strings without running extraction. The classifier is
// trained once in New; there is never a reason to fit a second one in
// the same process.
func (p *Pipeline) Classifier() *classify.Classifier {
	return p.classifier
}

// ProcessImage extracts all formula candidates from a page image.
//
// Recognition is attempted on the whole enhanced image first; when that
// yields at least one valid formula the result is returned directly. The
// whole-image path is permissive: any structurally valid candidate is
// kept regardless of its confidence score. Only when it produces nothing
// does the pipeline fall back to segmentation, where each detected region
// is recognized independently and candidates below the configured
// confidence floor are dropped.
//
// The candidate list is sorted by region top-left (y, x) so consumers see
// reading order. A nil or zero-sized image returns ErrEmptyImage; any
// other failure shrinks the result instead of aborting it.
func (p *Pipeline) ProcessImage(ctx context.Context, img image.Image, page int) ([]FormulaCandidate, error) {
	if img == nil || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, ErrEmptyImage
	}

	working := preprocess.SmartResize(img)

	if direct := p.directCandidates(ctx, working, page); len(direct) > 0 {
		return direct, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return p.segmentedCandidates(ctx, working, page)
}

// ProcessRegion recognizes a single manually cropped region and returns
// the cleaned LaTeX together with the enhanced image that was fed to the
// recognizer. Like the whole-image path it is permissive: the best
// cleaned string is returned even when validation would score it low.
func (p *Pipeline) ProcessRegion(ctx context.Context, region image.Image) (string, image.Image, error) {
	if region == nil || region.Bounds().Dx() == 0 || region.Bounds().Dy() == 0 {
		return "", nil, ErrEmptyImage
	}

	enhanced := preprocess.EnhanceForOCR(preprocess.UpscaleRegion(region))

	raw, err := p.recognizer.Recognize(ctx, enhanced)
	if err != nil {
		return "", enhanced, err
	}

	cleaned := latex.Clean(raw)
	if len(cleaned) == 0 {
		return "", enhanced, nil
	}
	for _, s := range cleaned {
		if latex.Valid(s) {
			return s, enhanced, nil
		}
	}
	return cleaned[0], enhanced, nil
}

// Regions runs preprocessing, detection and consolidation only, returning
// the final region set and the working image they refer to. Used for
// debug overlays and region inspection.
func (p *Pipeline) Regions(img image.Image) ([]detect.Region, image.Image, error) {
	if img == nil || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, nil, ErrEmptyImage
	}

	working := preprocess.SmartResize(img)
	regions := p.detectRegions(working)
	return regions, working, nil
}

// directCandidates recognizes the whole image in one shot.
func (p *Pipeline) directCandidates(ctx context.Context, working image.Image, page int) []FormulaCandidate {
	raw, err := p.recognizer.Recognize(ctx, preprocess.EnhanceForOCR(working))
	if err != nil {
		p.log.Warn("whole-image recognition failed", "error", err)
		return nil
	}

	var out []FormulaCandidate
	for _, s := range latex.Clean(raw) {
		if !latex.Valid(s) {
			continue
		}
		out = append(out, p.candidate(s, nil, nil, page))
	}
	return out
}

// segmentedCandidates detects formula regions and recognizes each one
// independently on a bounded worker pool. Results land in per-region
// slots so output order never depends on goroutine scheduling.
func (p *Pipeline) segmentedCandidates(ctx context.Context, working image.Image, page int) ([]FormulaCandidate, error) {
	regions := p.detectRegions(working)
	if len(regions) == 0 {
		return nil, nil
	}

	slots := make([][]FormulaCandidate, len(regions))
	sem := make(chan struct{}, p.cfg.Workers)
	var wg sync.WaitGroup

	for i, region := range regions {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, region detect.Region) {
			defer wg.Done()
			defer func() { <-sem }()
			slots[i] = p.regionCandidates(ctx, working, region, page)
		}(i, region)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Regions are already sorted by (y, x); concatenating the slots in
	// index order preserves reading order.
	var out []FormulaCandidate
	for _, candidates := range slots {
		out = append(out, candidates...)
	}
	return out, nil
}

// detectRegions runs the detection stack over a working image. The
// median pass runs on the thresholded image, not the photograph: adaptive
// thresholding turns sensor grain into isolated foreground pixels, and
// those are what the detectors must never see.
func (p *Pipeline) detectRegions(working image.Image) []detect.Region {
	enhanced := preprocess.Enhance(working)
	gray := preprocess.ToGray(enhanced)
	binary := preprocess.ToGray(preprocess.Denoise(preprocess.Binarize(gray)))

	results := p.detector.Detect(binary, gray)
	pooled := detect.Pool(results)
	bounds := working.Bounds()
	return p.consolidator.Consolidate(pooled, bounds.Dx(), bounds.Dy())
}

// regionCandidates extracts, recognizes and validates one region. A
// recognition failure skips the region; it never aborts the batch.
func (p *Pipeline) regionCandidates(ctx context.Context, working image.Image, region detect.Region, page int) []FormulaCandidate {
	bounds := working.Bounds()
	padded := region.Pad(extractPadding, bounds.Dx(), bounds.Dy())
	crop := imaging.Crop(working, padded.Rect().Add(bounds.Min))
	enhanced := preprocess.EnhanceForOCR(preprocess.UpscaleRegion(crop))

	raw, err := p.recognizer.Recognize(ctx, enhanced)
	if err != nil {
		p.log.Warn("region recognition failed", "region", region, "error", err)
		return nil
	}

	var out []FormulaCandidate
	for _, s := range latex.Clean(raw) {
		if !latex.Valid(s) {
			continue
		}
		c := p.candidate(s, &region, crop, page)
		if c.Confidence < p.cfg.ConfidenceFloor {
			continue
		}
		out = append(out, c)
	}
	return out
}

// candidate validates, scores and classifies one cleaned string.
func (p *Pipeline) candidate(s string, region *detect.Region, regionImage image.Image, page int) FormulaCandidate {
	return FormulaCandidate{
		Latex:      s,
		Region:     region,
		Type:       p.classifier.ClassifyType(s),
		Difficulty: p.classifier.ClassifyDifficulty(s),
		Confidence: latex.Confidence(s, regionImage),
		Page:       page,
	}
}
