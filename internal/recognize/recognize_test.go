package recognize

import (
	"context"
	"errors"
	"image"
	"os"
	"testing"
)

func TestFuncAdapter(t *testing.T) {
	want := errors.New("engine down")
	var r Recognizer = Func(func(ctx context.Context, img image.Image) (string, error) {
		return "x^{2}", want
	})

	got, err := r.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1)))
	if got != "x^{2}" || err != want {
		t.Errorf("got (%q, %v), want (%q, %v)", got, err, "x^{2}", want)
	}
}

func TestTesseractHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTesseract("eng").Recognize(ctx, image.NewGray(image.Rect(0, 0, 10, 10)))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestNewTesseractDefaultsLanguage(t *testing.T) {
	if lang := NewTesseract("").Language; lang != "eng" {
		t.Errorf("default language: got %q, want eng", lang)
	}
}

func TestWriteTempPNG(t *testing.T) {
	path, err := writeTempPNG(image.NewGray(image.Rect(0, 0, 8, 8)))
	if err != nil {
		t.Fatalf("writeTempPNG: %v", err)
	}
	defer os.Remove(path)

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat temp file: %v", err)
	}
	if info.Size() == 0 {
		t.Error("temp PNG is empty")
	}
}
