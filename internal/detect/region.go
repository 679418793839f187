// Package detect locates candidate formula regions in a preprocessed page
// image and consolidates them into a minimal set of disjoint boxes.
//
// Four independent strategies propose raw bounding boxes: external contour
// grouping, connected-component analysis with a region-validity check, a
// stable-blob detector over the grayscale image, and projection profiles.
// Their pooled output is merged geometrically, clustered by density, padded
// and filtered by the consolidator.
package detect

import (
	"image"
	"math"
)

// Region is an axis-aligned rectangle in source-image pixel coordinates.
//
// Regions are value types: two regions with the same coordinates are the
// same region. Width and Height are always positive for regions produced
// by this package.
type Region struct {
	X      int `json:"x"`      // Left edge (inclusive)
	Y      int `json:"y"`      // Top edge (inclusive)
	Width  int `json:"width"`  // Horizontal extent in pixels
	Height int `json:"height"` // Vertical extent in pixels
}

// Area returns the region's area in square pixels.
func (r Region) Area() int {
	return r.Width * r.Height
}

// AspectRatio returns width over height, or 0 for a degenerate region.
func (r Region) AspectRatio() float64 {
	if r.Height == 0 {
		return 0
	}
	return float64(r.Width) / float64(r.Height)
}

// Center returns the region's center point.
func (r Region) Center() (float64, float64) {
	return float64(r.X) + float64(r.Width)/2, float64(r.Y) + float64(r.Height)/2
}

// Union returns the smallest region covering both r and o.
func (r Region) Union(o Region) Region {
	x1 := min(r.X, o.X)
	y1 := min(r.Y, o.Y)
	x2 := max(r.X+r.Width, o.X+o.Width)
	y2 := max(r.Y+r.Height, o.Y+o.Height)
	return Region{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Rect converts the region to a standard image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// horizontalOverlap returns the horizontally overlapping extent between r
// and o as a fraction of the narrower region's width.
func (r Region) horizontalOverlap(o Region) float64 {
	overlap := min(r.X+r.Width, o.X+o.Width) - max(r.X, o.X)
	if overlap <= 0 {
		return 0
	}
	smaller := min(r.Width, o.Width)
	if smaller <= 0 {
		return 0
	}
	return float64(overlap) / float64(smaller)
}

// verticalOverlap returns the vertically overlapping extent between r and
// o as a fraction of the shorter region's height.
func (r Region) verticalOverlap(o Region) float64 {
	overlap := min(r.Y+r.Height, o.Y+o.Height) - max(r.Y, o.Y)
	if overlap <= 0 {
		return 0
	}
	smaller := min(r.Height, o.Height)
	if smaller <= 0 {
		return 0
	}
	return float64(overlap) / float64(smaller)
}

// centerDistance returns the Euclidean distance between region centers.
func (r Region) centerDistance(o Region) float64 {
	rx, ry := r.Center()
	ox, oy := o.Center()
	dx, dy := rx-ox, ry-oy
	return math.Sqrt(dx*dx + dy*dy)
}

// Pad grows the region by the given fraction of its width and height on
// each side, clamped to the image bounds.
func (r Region) Pad(fraction float64, imageWidth, imageHeight int) Region {
	padX := int(float64(r.Width) * fraction)
	padY := int(float64(r.Height) * fraction)

	x1 := max(0, r.X-padX)
	y1 := max(0, r.Y-padY)
	x2 := min(imageWidth, r.X+r.Width+padX)
	y2 := min(imageHeight, r.Y+r.Height+padY)

	return Region{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// less orders regions by (y, x) top-left corner, the reading order used
// for deterministic sorting throughout the pipeline.
func (r Region) less(o Region) bool {
	if r.Y != o.Y {
		return r.Y < o.Y
	}
	if r.X != o.X {
		return r.X < o.X
	}
	if r.Width != o.Width {
		return r.Width < o.Width
	}
	return r.Height < o.Height
}
