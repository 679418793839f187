package detect

import (
	"image"
	"math"
	"sort"
)

// Strategy names the detection method that produced a set of regions.
type Strategy string

const (
	StrategyContour    Strategy = "contour"
	StrategyComponent  Strategy = "connected_component"
	StrategyBlob       Strategy = "stable_blob"
	StrategyProjection Strategy = "projection_profile"
)

// DetectionResult is the ordered output of one strategy. It is ephemeral:
// the consolidator consumes it entirely.
type DetectionResult struct {
	Strategy Strategy
	Regions  []Region
}

// Detector runs the four region-detection strategies over a preprocessed
// page. Area bounds adapt to the image size rather than being fixed pixel
// constants, so the same detector works for thumbnails and full scans.
type Detector struct {
	// MinAreaFraction and MaxAreaFraction bound accepted component areas
	// as fractions of the total pixel area.
	MinAreaFraction float64
	MaxAreaFraction float64

	// ComponentAreaFloor is the absolute minimum component area in square
	// pixels for the connected-component strategy.
	ComponentAreaFloor int

	// BlobMinArea and BlobMaxArea bound the stable-blob strategy in
	// absolute square pixels, tuned for stroke-sized clusters.
	BlobMinArea int
	BlobMaxArea int
}

// NewDetector returns a detector with the default tuning.
func NewDetector() *Detector {
	return &Detector{
		MinAreaFraction:    0.0005,
		MaxAreaFraction:    0.3,
		ComponentAreaFloor: 100,
		BlobMinArea:        100,
		BlobMaxArea:        5000,
	}
}

// Detect runs all strategies and returns one result per strategy. The
// binary image is the inverted adaptive-threshold output (foreground
// high); the gray image is the enhanced grayscale the binary was derived
// from, used by the stable-blob strategy.
func (d *Detector) Detect(binary, gray *image.Gray) []DetectionResult {
	return []DetectionResult{
		{Strategy: StrategyContour, Regions: d.contourRegions(binary)},
		{Strategy: StrategyComponent, Regions: d.componentRegions(binary)},
		{Strategy: StrategyBlob, Regions: d.blobRegions(gray)},
		{Strategy: StrategyProjection, Regions: d.projectionRegions(binary)},
	}
}

// Pool merges all strategy outputs into a single deduplicated region list
// sorted by (y, x). Duplicates are removed by exact box equality only;
// near-duplicates are the consolidator's job.
func Pool(results []DetectionResult) []Region {
	seen := make(map[Region]bool)
	var pooled []Region
	for _, res := range results {
		for _, r := range res.Regions {
			if !seen[r] {
				seen[r] = true
				pooled = append(pooled, r)
			}
		}
	}
	sort.Slice(pooled, func(i, j int) bool { return pooled[i].less(pooled[j]) })
	return pooled
}

// component is one connected group of foreground pixels.
type component struct {
	pixels int
	box    Region
}

// contourRegions keeps the bounding boxes of external foreground contours
// whose pixel count falls inside the adaptive area range.
func (d *Detector) contourRegions(binary *image.Gray) []Region {
	bounds := binary.Bounds()
	total := float64(bounds.Dx() * bounds.Dy())
	minArea := d.MinAreaFraction * total
	maxArea := d.MaxAreaFraction * total

	var regions []Region
	for _, c := range connectedComponents(binary, foregroundAt(binary)) {
		area := float64(c.pixels)
		if area > minArea && area < maxArea {
			regions = append(regions, c.box)
		}
	}
	return regions
}

// componentRegions keeps connected components above an absolute area floor
// whose bounding boxes pass the region-validity check. The check exists
// because dense blobs of non-formula noise (stray marks, scan borders)
// otherwise pollute the results.
func (d *Detector) componentRegions(binary *image.Gray) []Region {
	var regions []Region
	for _, c := range connectedComponents(binary, foregroundAt(binary)) {
		if c.pixels > d.ComponentAreaFloor && validFormulaRegion(binary, c.box) {
			regions = append(regions, c.box)
		}
	}
	return regions
}

// projectionRegions sums foreground intensity along rows and columns,
// thresholds at half the mean profile value, and turns contiguous
// above-threshold runs into candidate strips. This catches line-like
// formula rows that component-based methods fragment.
func (d *Detector) projectionRegions(binary *image.Gray) []Region {
	const minExtent = 10

	bounds := binary.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	rows := make([]float64, height)
	cols := make([]float64, width)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := float64(binary.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			rows[y] += v
			cols[x] += v
		}
	}

	var regions []Region
	for _, run := range profileRuns(rows, minExtent) {
		regions = append(regions, Region{X: 0, Y: run[0], Width: width, Height: run[1] - run[0]})
	}
	for _, run := range profileRuns(cols, minExtent) {
		regions = append(regions, Region{X: run[0], Y: 0, Width: run[1] - run[0], Height: height})
	}
	return regions
}

// profileRuns returns [start, end) index pairs of contiguous runs where
// the profile exceeds half its mean, keeping only runs of at least
// minExtent samples.
func profileRuns(profile []float64, minExtent int) [][2]int {
	var sum float64
	for _, v := range profile {
		sum += v
	}
	threshold := sum / float64(len(profile)) * 0.5
	if threshold <= 0 {
		return nil
	}

	var runs [][2]int
	start := -1
	for i, v := range profile {
		if v > threshold {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if i-start >= minExtent {
				runs = append(runs, [2]int{start, i})
			}
			start = -1
		}
	}
	if start >= 0 && len(profile)-start >= minExtent {
		runs = append(runs, [2]int{start, len(profile)})
	}
	return runs
}

// validFormulaRegion checks whether a bounding box plausibly contains
// formula strokes: pixel density between 5% and 60%, visible variation in
// both projection profiles, and an aspect ratio between 0.2 and 10.
func validFormulaRegion(binary *image.Gray, box Region) bool {
	const (
		minDensity   = 0.05
		maxDensity   = 0.6
		minVariation = 0.02
		minAspect    = 0.2
		maxAspect    = 10.0
	)

	if box.Width <= 0 || box.Height <= 0 {
		return false
	}

	aspect := box.AspectRatio()
	if aspect <= minAspect || aspect >= maxAspect {
		return false
	}

	bounds := binary.Bounds()
	rowFrac := make([]float64, box.Height)
	colFrac := make([]float64, box.Width)
	foreground := 0
	for y := 0; y < box.Height; y++ {
		for x := 0; x < box.Width; x++ {
			if binary.GrayAt(bounds.Min.X+box.X+x, bounds.Min.Y+box.Y+y).Y > 127 {
				foreground++
				rowFrac[y]++
				colFrac[x]++
			}
		}
	}

	density := float64(foreground) / float64(box.Area())
	if density <= minDensity || density >= maxDensity {
		return false
	}

	for y := range rowFrac {
		rowFrac[y] /= float64(box.Width)
	}
	for x := range colFrac {
		colFrac[x] /= float64(box.Height)
	}
	return stdDev(rowFrac) >= minVariation && stdDev(colFrac) >= minVariation
}

// stdDev computes the population standard deviation of values.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// foregroundAt returns a predicate for foreground pixels in an inverted
// binary image (strokes are high).
func foregroundAt(img *image.Gray) func(x, y int) bool {
	bounds := img.Bounds()
	return func(x, y int) bool {
		return img.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y > 127
	}
}

// connectedComponents labels 8-connected foreground pixels using an
// iterative stack-based flood fill and returns one component per group.
// Components are emitted in scan order, so output is deterministic.
func connectedComponents(img *image.Gray, isForeground func(x, y int) bool) []component {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	visited := make([]bool, width*height)
	var comps []component

	for sy := 0; sy < height; sy++ {
		for sx := 0; sx < width; sx++ {
			if visited[sy*width+sx] || !isForeground(sx, sy) {
				continue
			}

			c := component{box: Region{X: sx, Y: sy, Width: 1, Height: 1}}
			minX, minY, maxX, maxY := sx, sy, sx, sy
			stack := []image.Point{{X: sx, Y: sy}}

			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]

				if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
					continue
				}
				if visited[p.Y*width+p.X] || !isForeground(p.X, p.Y) {
					continue
				}
				visited[p.Y*width+p.X] = true
				c.pixels++

				minX = min(minX, p.X)
				minY = min(minY, p.Y)
				maxX = max(maxX, p.X)
				maxY = max(maxY, p.Y)

				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if dx == 0 && dy == 0 {
							continue
						}
						stack = append(stack, image.Point{X: p.X + dx, Y: p.Y + dy})
					}
				}
			}

			c.box = Region{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}
			comps = append(comps, c)
		}
	}
	return comps
}
