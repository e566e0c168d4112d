package main

import (
	"github.com/spf13/cobra"

	"github.com/bookdistill/bookdistill/version"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "bookdistill",
	Short: "Book sectioning and distillation service",
	Long: `Bookdistill splits uploaded books into topic-coherent content sections
and compresses each section into a short annotated narrative using an LLM.

It runs as an HTTP API plus two queue-driven background processors:
  - sectioning: extract pages, batch them, ask the model for section boundaries
  - distillation: compress a section's pages into core/transition paragraphs`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.bookdistill/config.yaml)",
	)

	rootCmd.AddCommand(versionCmd)
}
