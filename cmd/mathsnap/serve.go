package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mathsnap/mathsnap/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve extraction requests over stdin/stdout",
	Long: `Serve reads line-delimited JSON requests from stdin and writes one
JSON response per line to stdout. It is meant to be spawned by editor
frontends that keep a long-lived extraction process around instead of
invoking scan per page.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe, _, err := newPipeline()
		if err != nil {
			return err
		}
		return server.New(pipe).Serve(cmd.Context(), os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
