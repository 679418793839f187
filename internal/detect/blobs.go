package detect

import "image"

// blobThresholds are the gray levels the stable-blob strategy binarizes
// at. Dark strokes survive every level; shading and paper texture do not.
var blobThresholds = []uint8{100, 140, 180}

// blobRegions is an MSER-style detector for small-to-medium stroke
// clusters. The grayscale image is thresholded at several levels; a
// component whose bounding box persists (with high overlap) across two
// consecutive levels is considered stable and kept, subject to the
// absolute blob area bounds.
func (d *Detector) blobRegions(gray *image.Gray) []Region {
	const stableIoU = 0.7

	bounds := gray.Bounds()
	levels := make([][]Region, len(blobThresholds))
	for i, t := range blobThresholds {
		threshold := t
		dark := func(x, y int) bool {
			return gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y < threshold
		}
		for _, c := range connectedComponents(gray, dark) {
			if c.pixels > d.BlobMinArea && c.pixels < d.BlobMaxArea {
				levels[i] = append(levels[i], c.box)
			}
		}
	}

	seen := make(map[Region]bool)
	var regions []Region
	for i := 0; i+1 < len(levels); i++ {
		for _, a := range levels[i] {
			for _, b := range levels[i+1] {
				if iou(a, b) >= stableIoU {
					if !seen[a] {
						seen[a] = true
						regions = append(regions, a)
					}
					break
				}
			}
		}
	}
	return regions
}

// iou computes intersection-over-union of two regions.
func iou(a, b Region) float64 {
	ix := min(a.X+a.Width, b.X+b.Width) - max(a.X, b.X)
	iy := min(a.Y+a.Height, b.Y+b.Height) - max(a.Y, b.Y)
	if ix <= 0 || iy <= 0 {
		return 0
	}
	inter := ix * iy
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
