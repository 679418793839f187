package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/mathsnap/mathsnap/internal/classify"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [latex]...",
	Short: "Classify LaTeX strings by topic and difficulty",
	Long: `Classify assigns a topic and difficulty label to each LaTeX string
without touching any image, the same way the scan pipeline labels its
extracted formulas.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		classifier, err := classify.NewClassifier()
		if err != nil {
			return err
		}

		type labeled struct {
			Latex      string                   `json:"latex"`
			Type       classify.TopicLabel      `json:"type"`
			Difficulty classify.DifficultyLabel `json:"difficulty"`
			Complexity int                      `json:"complexity"`
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		for _, latex := range args {
			result := labeled{
				Latex:      latex,
				Type:       classifier.ClassifyType(latex),
				Difficulty: classifier.ClassifyDifficulty(latex),
				Complexity: classifier.ComplexityScore(latex),
			}
			if err := encoder.Encode(result); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
