package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexcodex/uigen/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP generation service",
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := buildServices(cfg)
			if err != nil {
				return err
			}
			defer svcs.Close()

			api := &server.APIServer{
				Generator: svcs.orchestrator,
				Logger:    svcs.logger,
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = api.ServeContext(ctx, cfg.Addr)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
