package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MATHSNAP_TESSERACT_LANG", "eng+equ")
	t.Setenv("MATHSNAP_WORKERS", "8")
	t.Setenv("MATHSNAP_CONFIDENCE_FLOOR", "0.7")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "eng+equ", cfg.TesseractLanguage)
	require.Equal(t, 8, cfg.Workers)
	require.Equal(t, 0.7, cfg.ConfidenceFloor)

	// Untouched settings keep their defaults.
	require.Equal(t, Default().PaddingFraction, cfg.PaddingFraction)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("MATHSNAP_WORKERS", "many")

	_, err := Load()
	require.ErrorContains(t, err, "MATHSNAP_WORKERS")
}

func TestLoadRejectsInvalidRanges(t *testing.T) {
	t.Setenv("MATHSNAP_WORKERS", "0")
	_, err := Load()
	require.ErrorContains(t, err, "MATHSNAP_WORKERS")

	t.Setenv("MATHSNAP_WORKERS", "4")
	t.Setenv("MATHSNAP_CONFIDENCE_FLOOR", "1.5")
	_, err = Load()
	require.ErrorContains(t, err, "MATHSNAP_CONFIDENCE_FLOOR")
}
