package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"soullab/internal/server/bootstrap"
)

func newServeCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			components, err := c.build()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return bootstrap.RunServer(ctx, components)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = c.v.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	return cmd
}
