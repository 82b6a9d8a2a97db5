package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/learn-cache/internal/server"
	"github.com/Sternrassler/learn-cache/pkg/warmup"
)

func newServeCmd(opts *rootFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve cached lookups over HTTP",
		Long: `Serve form and system setting lookups over HTTP:

  GET /v1/forms/{type}/{subType}/{action}
  GET /v1/system-settings/{id}
  GET /health
  GET /metrics

Add ?from=server to a lookup to refresh from the platform first. When a
warmup schedule is configured the warmup jobs run in the background.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Override the configured listen address")
	return cmd
}

func runServe(ctx context.Context, opts *rootFlags, addr string) error {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if addr == "" {
		addr = a.config.Server.Addr
	}

	if spec := a.config.Warmup.Schedule; spec != "" && a.warmer.Jobs() > 0 {
		scheduler, err := warmup.NewScheduler(a.warmer, spec)
		if err != nil {
			return err
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	srv := server.New(a.forms, a.settings, server.Config{
		Addr:           addr,
		RequestTimeout: a.config.Server.RequestTimeout,
	})
	return srv.Run(ctx)
}
