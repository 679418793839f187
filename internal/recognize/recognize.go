// Package recognize turns formula images into raw LaTeX strings.
//
// The Recognizer interface decouples the pipeline from the recognition
// engine. The default implementation wraps Tesseract via gosseract; tests
// and alternative engines plug in through the same interface.
package recognize

import (
	"context"
	"image"
)

// Recognizer converts one formula image to its raw LaTeX transcription.
//
// Implementations return the engine's output verbatim, including whatever
// noise the engine produces; cleaning and validation happen downstream.
// An empty string with a nil error means the engine saw no text at all.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Func adapts an ordinary function to the Recognizer interface.
type Func func(ctx context.Context, img image.Image) (string, error)

// Recognize calls f.
func (f Func) Recognize(ctx context.Context, img image.Image) (string, error) {
	return f(ctx, img)
}
