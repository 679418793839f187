// Package preprocess prepares page photographs for detection and OCR.
//
// The entry points mirror the stages of the pipeline: SmartResize brings a
// page into the working resolution band, Enhance boosts contrast and edge
// sharpness for region detection, EnhanceForOCR applies a stronger variant
// tuned for text recognition, Denoise suppresses sensor noise, and Binarize
// produces the inverted binary image the detectors consume.
//
// All functions accept any image.Image and never fail: an input that cannot
// be improved (for example a zero-sized image) is returned unchanged with a
// warning logged.
package preprocess

import (
	"image"
	"log/slog"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// Working-resolution band for page images: the shorter side must reach
// minDimension and the longer side must not exceed maxDimension. Pages
// already inside the band are left untouched.
const (
	minDimension = 800
	maxDimension = 2000
)

// SmartResize scales an image into the working resolution band.
//
// Images whose longer side exceeds maxDimension are scaled down so the
// longer side equals it; images whose shorter side is below minDimension
// are scaled up so the shorter side reaches it. Aspect ratio is always
// preserved and resampling uses the Lanczos filter. An image cannot be
// both shrunk and grown: downscaling takes precedence.
//
// Small formula crops should not pass through SmartResize; it is meant for
// whole pages. Use UpscaleRegion for extracted regions instead.
func SmartResize(img image.Image) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		slog.Warn("smart resize skipped empty image")
		return img
	}

	longer := max(width, height)
	shorter := min(width, height)
	var scale float64
	switch {
	case longer > maxDimension:
		scale = float64(maxDimension) / float64(longer)
	case shorter < minDimension:
		scale = float64(minDimension) / float64(shorter)
	default:
		return img
	}

	newWidth := int(float64(width) * scale)
	newHeight := int(float64(height) * scale)
	return imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
}

// Enhance boosts contrast and sharpness for region detection.
//
// The adjustment is moderate on purpose: detection needs strokes separated
// from the background, not print-quality output. OCR input should go through
// EnhanceForOCR instead, which pushes the same knobs harder and also lifts
// brightness.
func Enhance(img image.Image) image.Image {
	out := imaging.AdjustContrast(img, 50)
	return imaging.Sharpen(out, 1.5)
}

// minOCRHeight is the height below which OCR input is upscaled; engines
// trained on scanned text degrade sharply on very small glyphs.
const minOCRHeight = 200

// EnhanceForOCR prepares an image crop for text recognition.
//
// The transformation chain is grayscale conversion, a strong contrast and
// sharpness boost, a brightness lift, upscaling when the crop is shorter
// than minOCRHeight, and finally a polarity flip when the image is mostly
// dark. Recognition engines expect dark text on a light background, so
// inverted screenshots and dark-mode renders are flipped before OCR.
func EnhanceForOCR(img image.Image) image.Image {
	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 60)
	out = imaging.Sharpen(out, 2.0)
	out = imaging.AdjustBrightness(out, 15)

	if h := out.Bounds().Dy(); h > 0 && h < minOCRHeight {
		scale := float64(minOCRHeight) / float64(h)
		out = imaging.Resize(out, int(float64(out.Bounds().Dx())*scale), minOCRHeight, imaging.Lanczos)
	}

	if meanLuminance(out) < 128 {
		out = imaging.Invert(out)
	}
	return out
}

// UpscaleRegion doubles the size of an extracted formula region with
// Lanczos resampling. Region crops are typically small; the upscale gives
// the recognizer more pixels per glyph.
func UpscaleRegion(img image.Image) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		slog.Warn("upscale skipped empty region")
		return img
	}
	return imaging.Resize(img, bounds.Dx()*2, bounds.Dy()*2, imaging.Lanczos)
}

// Denoise suppresses isolated noise pixels with a small median filter.
// The radius is kept at one pixel so thin strokes survive. Run on a
// binarized image it strips the salt that adaptive thresholding makes
// of sensor grain.
func Denoise(img image.Image) image.Image {
	return effect.Median(img, 1)
}

// ToGray converts any image to the 8-bit grayscale form the detection
// package operates on.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}

// meanLuminance returns the average gray value of an image in [0, 255].
func meanLuminance(img image.Image) float64 {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}

	var sum float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			sum += 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
		}
	}
	return sum / float64(total)
}
