package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mathsnap/mathsnap/internal/classify"
	"github.com/mathsnap/mathsnap/internal/config"
	"github.com/mathsnap/mathsnap/internal/recognize"
)

// stubRecognizer returns canned strings: the first call gets first, every
// later call gets rest.
func stubRecognizer(first, rest string) recognize.Recognizer {
	var calls atomic.Int64
	return recognize.Func(func(ctx context.Context, img image.Image) (string, error) {
		if calls.Add(1) == 1 {
			return first, nil
		}
		return rest, nil
	})
}

// testPage draws a comb-shaped stroke cluster on a white page, enough for
// the detection stack to find at least one region.
func testPage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 900, 900))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	black := color.Gray{Y: 0}
	for y := 100; y < 105; y++ {
		for x := 50; x < 200; x++ {
			img.SetGray(x, y, black)
		}
	}
	for tooth := 0; tooth < 15; tooth++ {
		x0 := 50 + tooth*10
		for y := 105; y < 130; y++ {
			for x := x0; x < x0+4; x++ {
				img.SetGray(x, y, black)
			}
		}
	}
	return img
}

func newTestPipeline(t *testing.T, rec recognize.Recognizer) *Pipeline {
	t.Helper()
	cfg := config.Default()
	cfg.ConfidenceFloor = 0
	p, err := New(cfg, rec)
	require.NoError(t, err)
	return p
}

func TestProcessImageRejectsEmptyInput(t *testing.T) {
	p := newTestPipeline(t, stubRecognizer("", ""))

	_, err := p.ProcessImage(context.Background(), nil, 0)
	require.ErrorIs(t, err, ErrEmptyImage)

	_, err = p.ProcessImage(context.Background(), image.NewGray(image.Rect(0, 0, 0, 0)), 0)
	require.ErrorIs(t, err, ErrEmptyImage)
}

func TestProcessImageDirectPath(t *testing.T) {
	p := newTestPipeline(t, stubRecognizer("x^{2}+5x+6=0", ""))

	candidates, err := p.ProcessImage(context.Background(), testPage(), 3)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	require.Equal(t, "x^{2}+5x+6=0", c.Latex)
	require.Nil(t, c.Region)
	require.Equal(t, classify.TopicQuadratic, c.Type)
	require.Equal(t, classify.DifficultyModerate, c.Difficulty)
	require.Equal(t, 3, c.Page)
	require.GreaterOrEqual(t, c.Confidence, 0.0)
	require.LessOrEqual(t, c.Confidence, 1.0)
}

func TestProcessImageDirectPathIgnoresConfidenceFloor(t *testing.T) {
	// "x=1" scores well below the default floor; the whole-image path
	// keeps it anyway because the score is a ranking aid there.
	cfg := config.Default()
	p, err := New(cfg, stubRecognizer("x=1", ""))
	require.NoError(t, err)

	candidates, err := p.ProcessImage(context.Background(), testPage(), 0)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, "x=1", candidates[0].Latex)
	require.Less(t, candidates[0].Confidence, cfg.ConfidenceFloor)
}

func TestProcessImageFallsBackToSegmentation(t *testing.T) {
	// Whole-image recognition sees nothing; the comb on the page must be
	// detected and recognized region by region.
	p := newTestPipeline(t, stubRecognizer("", "x=1"))

	candidates, err := p.ProcessImage(context.Background(), testPage(), 0)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)

	for _, c := range candidates {
		require.Equal(t, "x=1", c.Latex)
		require.NotNil(t, c.Region)
		require.Positive(t, c.Region.Width)
		require.Positive(t, c.Region.Height)
	}
}

func TestProcessImageSkipsFailedRegions(t *testing.T) {
	boom := errors.New("engine crashed")
	rec := recognize.Func(func(ctx context.Context, img image.Image) (string, error) {
		return "", boom
	})
	p := newTestPipeline(t, rec)

	// Recognition failing everywhere must yield an empty list, not an
	// error.
	candidates, err := p.ProcessImage(context.Background(), testPage(), 0)
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestProcessImageHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestPipeline(t, stubRecognizer("", ""))
	_, err := p.ProcessImage(ctx, testPage(), 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcessRegion(t *testing.T) {
	p := newTestPipeline(t, stubRecognizer("y=2x+1", ""))

	region := image.NewGray(image.Rect(0, 0, 80, 30))
	for i := range region.Pix {
		region.Pix[i] = 255
	}

	latex, enhanced, err := p.ProcessRegion(context.Background(), region)
	require.NoError(t, err)
	require.Equal(t, "y=2x+1", latex)
	require.NotNil(t, enhanced)

	// The enhanced image is upscaled for the recognizer.
	require.GreaterOrEqual(t, enhanced.Bounds().Dx(), 160)
}

func TestProcessRegionRejectsEmptyInput(t *testing.T) {
	p := newTestPipeline(t, stubRecognizer("", ""))
	_, _, err := p.ProcessRegion(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptyImage)
}

func TestProcessRegionPropagatesRecognizerError(t *testing.T) {
	boom := errors.New("engine crashed")
	rec := recognize.Func(func(ctx context.Context, img image.Image) (string, error) {
		return "", boom
	})
	p := newTestPipeline(t, rec)

	_, _, err := p.ProcessRegion(context.Background(), image.NewGray(image.Rect(0, 0, 40, 20)))
	require.ErrorIs(t, err, boom)
}

func TestDetectRegionsIgnoresSpeckle(t *testing.T) {
	p := newTestPipeline(t, stubRecognizer("", ""))

	// Isolated dark pixels binarize to foreground salt; the median pass
	// on the thresholded image must remove them before detection, so a
	// speckled page yields the same regions as a clean one.
	clean := testPage()
	noisy := testPage()
	for y := 400; y < 460; y += 3 {
		for x := 300; x < 500; x += 3 {
			noisy.SetGray(x, y, color.Gray{Y: 0})
		}
	}

	require.Equal(t, p.detectRegions(clean), p.detectRegions(noisy))
}

func TestRegionsFindsComb(t *testing.T) {
	p := newTestPipeline(t, stubRecognizer("", ""))

	regions, working, err := p.Regions(testPage())
	require.NoError(t, err)
	require.NotNil(t, working)
	require.NotEmpty(t, regions)

	// Deterministic across calls.
	again, _, err := p.Regions(testPage())
	require.NoError(t, err)
	require.Equal(t, regions, again)
}
