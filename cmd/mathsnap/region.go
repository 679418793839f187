package main

import (
	"encoding/json"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/mathsnap/mathsnap/internal/imgio"
)

var regionCmd = &cobra.Command{
	Use:   "region [image]",
	Short: "Recognize a manually cropped region of an image",
	Long: `Region recognizes a single rectangle of an image, skipping detection
entirely. Use it when you already know where the formula is, for example
after a manual crop in an editor.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		x, _ := cmd.Flags().GetInt("x")
		y, _ := cmd.Flags().GetInt("y")
		width, _ := cmd.Flags().GetInt("width")
		height, _ := cmd.Flags().GetInt("height")
		if width <= 0 || height <= 0 {
			return fmt.Errorf("region must have positive --width and --height")
		}

		pipe, _, err := newPipeline()
		if err != nil {
			return err
		}

		img, err := imgio.LoadFile(args[0])
		if err != nil {
			return err
		}

		crop := imaging.Crop(img, image.Rect(x, y, x+width, y+height))
		latex, _, err := pipe.ProcessRegion(cmd.Context(), crop)
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]string{"latex": latex})
	},
}

func init() {
	regionCmd.Flags().Int("x", 0, "Left edge of the region in pixels")
	regionCmd.Flags().Int("y", 0, "Top edge of the region in pixels")
	regionCmd.Flags().Int("width", 0, "Region width in pixels")
	regionCmd.Flags().Int("height", 0, "Region height in pixels")
	rootCmd.AddCommand(regionCmd)
}
