package main

import (
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a single background processor",
	Long: `Run one queue processor without the HTTP server.

Useful for scaling the processors independently of the API: multiple
instances may consume the same subscription, since processing is
idempotent and delivery is at-least-once.`,
}

var workerSectioningCmd = &cobra.Command{
	Use:   "sectioning",
	Short: "Run the sectioning processor",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		b, err := buildBackends(ctx, newLogger())
		if err != nil {
			return err
		}
		return b.sectioningRunner().Run(ctx)
	},
}

var workerDistillationCmd = &cobra.Command{
	Use:   "distillation",
	Short: "Run the distillation processor",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		b, err := buildBackends(ctx, newLogger())
		if err != nil {
			return err
		}
		return b.distillationRunner().Run(ctx)
	},
}

func init() {
	workerCmd.AddCommand(workerSectioningCmd, workerDistillationCmd)
	rootCmd.AddCommand(workerCmd)
}
