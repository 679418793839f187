package recognize

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract recognizes formula text with the system Tesseract engine
// through gosseract.
//
// Tesseract works on files, so every call writes the image to a temporary
// PNG in the system temp directory and removes it afterwards.
//
// # Prerequisites
//
// The Tesseract engine and language data must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// A math-trained model (for example the "equ" training data) markedly
// improves results on dense notation; plain "eng" still handles simple
// arithmetic and single-line algebra.
type Tesseract struct {
	// Language is the Tesseract language code, for example "eng" or
	// "eng+equ". Empty means "eng".
	Language string
}

// NewTesseract returns a Tesseract recognizer for the given language code.
func NewTesseract(language string) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{Language: language}
}

// Recognize runs Tesseract over the image and returns the trimmed output.
//
// The context is honored between the expensive steps: cancellation before
// the engine starts aborts the call, but a recognition already handed to
// Tesseract runs to completion.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmpPath, err := writeTempPNG(img)
	if err != nil {
		return "", err
	}
	defer os.Remove(tmpPath)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.Language); err != nil {
		return "", fmt.Errorf("failed to set language %q: %w", t.Language, err)
	}
	if err := client.SetImage(tmpPath); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognition failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// writeTempPNG saves an image to a temporary PNG file and returns its path.
// The caller removes the file.
func writeTempPNG(img image.Image) (string, error) {
	f, err := os.CreateTemp("", "mathsnap-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()

	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to encode temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
