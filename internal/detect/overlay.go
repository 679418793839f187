package detect

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"
)

// Overlay draws the detected regions onto a copy of the source image for
// visual debugging, one distinct color per region. The source image is
// not modified.
func Overlay(src image.Image, regions []Region) *image.RGBA {
	bounds := src.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, src, bounds.Min, draw.Src)

	if len(regions) == 0 {
		return out
	}

	palette := colorful.FastHappyPalette(len(regions))
	for i, r := range regions {
		drawRect(out, r, toRGBA(palette[i]))
	}
	return out
}

// drawRect draws a 2px rectangle outline clamped to the image bounds.
func drawRect(img *image.RGBA, r Region, c color.RGBA) {
	const thickness = 2

	bounds := img.Bounds()
	x1 := max(bounds.Min.X, r.X)
	y1 := max(bounds.Min.Y, r.Y)
	x2 := min(bounds.Max.X, r.X+r.Width)
	y2 := min(bounds.Max.Y, r.Y+r.Height)

	for t := 0; t < thickness; t++ {
		for x := x1; x < x2; x++ {
			if y1+t < bounds.Max.Y {
				img.SetRGBA(x, y1+t, c)
			}
			if y2-1-t >= bounds.Min.Y {
				img.SetRGBA(x, y2-1-t, c)
			}
		}
		for y := y1; y < y2; y++ {
			if x1+t < bounds.Max.X {
				img.SetRGBA(x1+t, y, c)
			}
			if x2-1-t >= bounds.Min.X {
				img.SetRGBA(x2-1-t, y, c)
			}
		}
	}
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
