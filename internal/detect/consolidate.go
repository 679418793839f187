package detect

import "sort"

// Consolidator merges pooled strategy output into a minimal set of formula
// regions.
//
// Consolidation is two-phase. The geometric pass sorts regions by (y, x)
// and sweeps left to right, merging each region into a running accumulator
// when the boxes overlap enough or their centers are close. The density
// pass then clusters the survivors' normalized centers with DBSCAN to
// catch spatially separated fragments of the same multi-line formula; each
// cluster collapses to its union box. Surviving regions are padded and
// filtered by size and aspect ratio.
//
// The sweep is a deliberate single pass, not all-pairs transitive merging:
// three regions where A-B and B-C qualify but the sweep visits them in an
// unlucky order can stay split. The density pass backstops that case, and
// the sweep's predictable near-linear behavior on sorted input is worth
// the trade.
//
// Given the same input set, Consolidate always returns the same output:
// every phase iterates in sorted or index order, never over a map.
type Consolidator struct {
	// HorizontalOverlap and VerticalOverlap are the minimum overlap
	// fractions (of the smaller region) that trigger a merge.
	HorizontalOverlap float64
	VerticalOverlap   float64

	// CenterDistance is the absolute center-to-center distance in pixels
	// below which two regions merge regardless of overlap.
	CenterDistance float64

	// ClusterEpsilon is the DBSCAN neighborhood radius in normalized
	// [0,1] image coordinates.
	ClusterEpsilon float64

	// PaddingFraction expands each final region by this fraction of its
	// width and height on every side, clamped to the image.
	PaddingFraction float64

	// Size and aspect filters applied after padding.
	MinArea   int
	MaxArea   int
	MinAspect float64
	MaxAspect float64
}

// NewConsolidator returns a consolidator with the default tuning.
func NewConsolidator() *Consolidator {
	return &Consolidator{
		HorizontalOverlap: 0.3,
		VerticalOverlap:   0.3,
		CenterDistance:    20,
		ClusterEpsilon:    0.05,
		PaddingFraction:   0.15,
		MinArea:           100,
		MaxArea:           1_000_000,
		MinAspect:         0.1,
		MaxAspect:         10,
	}
}

// Consolidate merges raw regions into final formula regions for an image
// of the given dimensions. The result is sorted by (y, x).
func (c *Consolidator) Consolidate(regions []Region, imageWidth, imageHeight int) []Region {
	if len(regions) == 0 {
		return nil
	}

	merged := c.sweepMerge(regions)
	clustered := c.clusterMerge(merged, imageWidth, imageHeight)

	var final []Region
	for _, r := range clustered {
		padded := r.Pad(c.PaddingFraction, imageWidth, imageHeight)
		if c.acceptable(padded) {
			final = append(final, padded)
		}
	}

	sort.Slice(final, func(i, j int) bool { return final[i].less(final[j]) })
	return final
}

// sweepMerge is the geometric pass: a single sweep over the (y, x)-sorted
// regions, folding each into the accumulator when shouldMerge says so.
func (c *Consolidator) sweepMerge(regions []Region) []Region {
	sorted := append([]Region(nil), regions...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].less(sorted[j]) })

	var merged []Region
	current := sorted[0]
	for _, next := range sorted[1:] {
		if c.shouldMerge(current, next) {
			current = current.Union(next)
		} else {
			merged = append(merged, current)
			current = next
		}
	}
	return append(merged, current)
}

// shouldMerge reports whether two regions belong to the same formula:
// enough horizontal overlap, enough vertical overlap, or nearby centers.
func (c *Consolidator) shouldMerge(a, b Region) bool {
	return a.horizontalOverlap(b) > c.HorizontalOverlap ||
		a.verticalOverlap(b) > c.VerticalOverlap ||
		a.centerDistance(b) < c.CenterDistance
}

// clusterMerge is the density pass: DBSCAN over region centers normalized
// to [0,1]x[0,1], with every cluster collapsing to its union box. The
// minimum cluster size is 1, so singletons survive as themselves; if a
// point were ever labeled noise it would likewise be kept as a singleton
// rather than dropped.
func (c *Consolidator) clusterMerge(regions []Region, imageWidth, imageHeight int) []Region {
	if len(regions) <= 1 || imageWidth == 0 || imageHeight == 0 {
		return regions
	}

	points := make([][2]float64, len(regions))
	for i, r := range regions {
		cx, cy := r.Center()
		points[i] = [2]float64{cx / float64(imageWidth), cy / float64(imageHeight)}
	}

	labels := dbscan(points, c.ClusterEpsilon, 1)

	unions := make(map[int]Region)
	var order []int
	var noise []Region
	for i, label := range labels {
		if label == noiseLabel {
			noise = append(noise, regions[i])
			continue
		}
		if u, ok := unions[label]; ok {
			unions[label] = u.Union(regions[i])
		} else {
			unions[label] = regions[i]
			order = append(order, label)
		}
	}

	out := make([]Region, 0, len(order)+len(noise))
	for _, label := range order {
		out = append(out, unions[label])
	}
	return append(out, noise...)
}

// acceptable applies the final size and aspect filter.
func (c *Consolidator) acceptable(r Region) bool {
	area := r.Area()
	if area <= c.MinArea || area >= c.MaxArea {
		return false
	}
	aspect := r.AspectRatio()
	return aspect > c.MinAspect && aspect < c.MaxAspect
}
