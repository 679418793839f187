package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mathsnap/mathsnap/internal/config"
	"github.com/mathsnap/mathsnap/internal/pipeline"
	"github.com/mathsnap/mathsnap/internal/recognize"
)

var rootCmd = &cobra.Command{
	Use:   "mathsnap",
	Short: "Extract math formulas from page images",
	Long: `mathsnap locates mathematical notation in screenshots and scanned
pages, recognizes it as LaTeX, and classifies each formula by topic and
difficulty.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		ll, err := cmd.Flags().GetString("log-level")
		if err != nil {
			return err
		}

		switch strings.ToUpper(ll) {
		case "DEBUG":
			level = slog.LevelDebug
		case "WARN":
			level = slog.LevelWarn
		case "ERROR":
			level = slog.LevelError
		}

		handler := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))
		slog.SetDefault(handler)

		return nil
	},
}

func init() {
	ll := os.Getenv("LOG_LEVEL")
	if ll == "" {
		ll = "INFO"
	}
	rootCmd.PersistentFlags().String("log-level", ll, "The logging level for the command")
}

// newPipeline loads the configuration and wires the Tesseract recognizer.
func newPipeline() (*pipeline.Pipeline, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pipe, err := pipeline.New(cfg, recognize.NewTesseract(cfg.TesseractLanguage))
	if err != nil {
		return nil, nil, err
	}
	return pipe, cfg, nil
}
