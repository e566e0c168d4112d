package main

import (
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bookdistill/bookdistill/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and both background processors",
	Long: `Start the bookdistill HTTP server together with the sectioning and
distillation processors.

All three run under one context: SIGINT/SIGTERM drains the HTTP server
and stops the processors between jobs.

Examples:
  bookdistill serve                 # Listen on the configured address
  bookdistill serve --addr :3000    # Override the listen address`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger()

		b, err := buildBackends(ctx, logger)
		if err != nil {
			return err
		}

		secret := b.cfg.ResolvedJWTSecret()
		if secret == "" {
			return errors.New("auth.jwt_secret must be configured")
		}

		addr := serveAddr
		if addr == "" {
			addr = b.cfg.Server.Addr
		}

		srv, err := server.New(server.Config{
			Addr:             addr,
			JWTSecret:        []byte(secret),
			Books:            b.books,
			Sections:         b.sections,
			Distilled:        b.distilled,
			Files:            b.files,
			SectioningJobs:   b.sectioningJobs,
			DistillationJobs: b.distillationJobs,
			Logger:           logger,
		})
		if err != nil {
			return err
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return srv.Start(ctx) })
		g.Go(func() error { return b.sectioningRunner().Run(ctx) })
		g.Go(func() error { return b.distillationRunner().Run(ctx) })
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "address to listen on (overrides config)")

	rootCmd.AddCommand(serveCmd)
}
