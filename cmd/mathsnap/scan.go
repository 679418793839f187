package main

import (
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mathsnap/mathsnap/internal/detect"
	"github.com/mathsnap/mathsnap/internal/imgio"
	"github.com/mathsnap/mathsnap/internal/pipeline"
)

var scanCmd = &cobra.Command{
	Use:   "scan [image]...",
	Short: "Extract formulas from one or more page images",
	Long: `Scan runs the full pipeline over each image: preprocessing, region
detection, recognition, LaTeX cleanup, validation and classification.
The extracted candidates are printed as JSON, one object per image, in
page order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		overlayDir, err := cmd.Flags().GetString("overlay-dir")
		if err != nil {
			return err
		}

		pipe, _, err := newPipeline()
		if err != nil {
			return err
		}

		type pageResult struct {
			Path       string                      `json:"path"`
			Page       int                         `json:"page"`
			Candidates []pipeline.FormulaCandidate `json:"candidates"`
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		for page, path := range args {
			img, err := imgio.LoadFile(path)
			if err != nil {
				return err
			}

			candidates, err := pipe.ProcessImage(cmd.Context(), img, page)
			if err != nil {
				return fmt.Errorf("processing %s: %w", path, err)
			}
			if candidates == nil {
				candidates = []pipeline.FormulaCandidate{}
			}
			slog.Info("page processed", "path", path, "candidates", len(candidates))

			if overlayDir != "" {
				if err := writeOverlay(pipe, img, page, overlayDir); err != nil {
					return err
				}
			}

			if err := encoder.Encode(pageResult{Path: path, Page: page, Candidates: candidates}); err != nil {
				return err
			}
		}
		return nil
	},
}

// writeOverlay saves a copy of the working image with the detected
// regions outlined, for tuning detection settings.
func writeOverlay(pipe *pipeline.Pipeline, img image.Image, page int, dir string) error {
	regions, working, err := pipe.Regions(img)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	out := filepath.Join(dir, fmt.Sprintf("page-%03d-regions.png", page))
	if err := imgio.SavePNG(out, detect.Overlay(working, regions)); err != nil {
		return err
	}
	slog.Debug("overlay written", "path", out, "regions", len(regions))
	return nil
}

func init() {
	scanCmd.Flags().String("overlay-dir", "", "Write region debug overlays into this directory")
	rootCmd.AddCommand(scanCmd)
}
