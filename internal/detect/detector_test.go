package detect

import (
	"image"
	"image/color"
	"testing"
)

// drawComb draws a comb-shaped stroke cluster into img: a horizontal bar
// at (50,100)-(199,104) with fifteen 4px-wide teeth hanging down to row
// 129. The shape is one 8-connected component of 2250 pixels with a
// 150x30 bounding box, dense enough to pass the validity check but far
// from solid.
func drawComb(img *image.Gray, value uint8) {
	c := color.Gray{Y: value}
	for y := 100; y < 105; y++ {
		for x := 50; x < 200; x++ {
			img.SetGray(x, y, c)
		}
	}
	for tooth := 0; tooth < 15; tooth++ {
		x0 := 50 + tooth*10
		for y := 105; y < 130; y++ {
			for x := x0; x < x0+4; x++ {
				img.SetGray(x, y, c)
			}
		}
	}
}

// combBox is the bounding box of the shape drawComb draws.
var combBox = Region{X: 50, Y: 100, Width: 150, Height: 30}

func newBinaryComb() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 300, 200))
	drawComb(img, 255)
	return img
}

func TestContourRegions(t *testing.T) {
	d := NewDetector()
	regions := d.contourRegions(newBinaryComb())

	if len(regions) != 1 {
		t.Fatalf("expected 1 contour region, got %d: %v", len(regions), regions)
	}
	if regions[0] != combBox {
		t.Errorf("contour box: got %+v, want %+v", regions[0], combBox)
	}
}

func TestContourRegionsSkipsTinyComponents(t *testing.T) {
	img := newBinaryComb()
	// A lone dot is below the adaptive minimum area (0.05% of 300x200).
	img.SetGray(10, 10, color.Gray{Y: 255})

	d := NewDetector()
	regions := d.contourRegions(img)

	if len(regions) != 1 {
		t.Errorf("expected dot filtered out, got %v", regions)
	}
}

func TestComponentRegions(t *testing.T) {
	d := NewDetector()
	regions := d.componentRegions(newBinaryComb())

	if len(regions) != 1 {
		t.Fatalf("expected 1 component region, got %d: %v", len(regions), regions)
	}
	if regions[0] != combBox {
		t.Errorf("component box: got %+v, want %+v", regions[0], combBox)
	}
}

func TestComponentRegionsRejectsSolidBlock(t *testing.T) {
	// A solid filled square has density 1.0 and no profile variation, so
	// the validity check must reject it even though it clears the area
	// floor.
	img := image.NewGray(image.Rect(0, 0, 300, 200))
	white := color.Gray{Y: 255}
	for y := 40; y < 90; y++ {
		for x := 40; x < 90; x++ {
			img.SetGray(x, y, white)
		}
	}

	d := NewDetector()
	if regions := d.componentRegions(img); len(regions) != 0 {
		t.Errorf("expected solid block rejected, got %v", regions)
	}
}

func TestValidFormulaRegionAspect(t *testing.T) {
	img := newBinaryComb()
	if validFormulaRegion(img, Region{X: 0, Y: 100, Width: 300, Height: 5}) {
		t.Error("accepted a region with aspect ratio 60")
	}
	if validFormulaRegion(img, Region{X: 50, Y: 0, Width: 4, Height: 200}) {
		t.Error("accepted a region with aspect ratio 0.02")
	}
}

func TestProjectionRegions(t *testing.T) {
	d := NewDetector()
	regions := d.projectionRegions(newBinaryComb())

	if len(regions) != 2 {
		t.Fatalf("expected a row strip and a column strip, got %d: %v", len(regions), regions)
	}

	rowStrip := Region{X: 0, Y: 100, Width: 300, Height: 30}
	colStrip := Region{X: 50, Y: 0, Width: 150, Height: 200}
	found := map[Region]bool{}
	for _, r := range regions {
		found[r] = true
	}
	if !found[rowStrip] {
		t.Errorf("missing row strip %+v in %v", rowStrip, regions)
	}
	if !found[colStrip] {
		t.Errorf("missing column strip %+v in %v", colStrip, regions)
	}
}

func TestProjectionRegionsEmptyImage(t *testing.T) {
	d := NewDetector()
	if regions := d.projectionRegions(image.NewGray(image.Rect(0, 0, 100, 100))); regions != nil {
		t.Errorf("expected nil for blank image, got %v", regions)
	}
}

func TestBlobRegionsStable(t *testing.T) {
	// White page, dark comb strokes. The comb binarizes identically at
	// every threshold level, so it is stable and kept once.
	img := image.NewGray(image.Rect(0, 0, 300, 200))
	white := color.Gray{Y: 255}
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			img.SetGray(x, y, white)
		}
	}
	drawComb(img, 50)

	d := NewDetector()
	regions := d.blobRegions(img)

	if len(regions) != 1 {
		t.Fatalf("expected 1 stable blob, got %d: %v", len(regions), regions)
	}
	if regions[0] != combBox {
		t.Errorf("blob box: got %+v, want %+v", regions[0], combBox)
	}
}

func TestBlobRegionsRejectsUnstable(t *testing.T) {
	// A square at gray 160 only binarizes at the highest threshold, so it
	// never persists across two levels.
	img := image.NewGray(image.Rect(0, 0, 300, 200))
	white := color.Gray{Y: 255}
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			img.SetGray(x, y, white)
		}
	}
	faint := color.Gray{Y: 160}
	for y := 20; y < 35; y++ {
		for x := 250; x < 265; x++ {
			img.SetGray(x, y, faint)
		}
	}

	d := NewDetector()
	if regions := d.blobRegions(img); len(regions) != 0 {
		t.Errorf("expected faint blob rejected as unstable, got %v", regions)
	}
}

func TestDetectRunsAllStrategies(t *testing.T) {
	binary := newBinaryComb()
	gray := image.NewGray(binary.Bounds())
	white := color.Gray{Y: 255}
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			gray.SetGray(x, y, white)
		}
	}
	drawComb(gray, 50)

	d := NewDetector()
	results := d.Detect(binary, gray)

	if len(results) != 4 {
		t.Fatalf("expected 4 strategy results, got %d", len(results))
	}
	want := []Strategy{StrategyContour, StrategyComponent, StrategyBlob, StrategyProjection}
	for i, res := range results {
		if res.Strategy != want[i] {
			t.Errorf("result %d: got strategy %q, want %q", i, res.Strategy, want[i])
		}
	}
}

func TestPoolDeduplicates(t *testing.T) {
	a := Region{X: 10, Y: 10, Width: 40, Height: 20}
	b := Region{X: 100, Y: 5, Width: 30, Height: 15}

	results := []DetectionResult{
		{Strategy: StrategyContour, Regions: []Region{a, b}},
		{Strategy: StrategyComponent, Regions: []Region{a}},
		{Strategy: StrategyBlob, Regions: []Region{b, a}},
	}

	pooled := Pool(results)
	if len(pooled) != 2 {
		t.Fatalf("expected 2 unique regions, got %d: %v", len(pooled), pooled)
	}
	// Sorted by (y, x): b has the smaller Y.
	if pooled[0] != b || pooled[1] != a {
		t.Errorf("pool order: got %v, want [%+v %+v]", pooled, b, a)
	}
}
