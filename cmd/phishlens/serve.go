package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/phishlens/internal/di"
	"github.com/phishlens/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				a.cfg.Server.Port = port
			}

			container, err := di.BuildContainer(a.cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return container.Invoke(func(srv *http.Server, logger *zap.Logger) error {
				defer logger.Sync()
				logger.Info("starting PhishLens dashboard",
					zap.String("port", a.cfg.Server.Port),
					zap.String("backend_url", a.cfg.Backend.BaseURL),
					zap.Bool("mock_mode", a.cfg.Backend.MockMode),
				)
				return server.Run(ctx, srv, logger)
			})
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "port to listen on (overrides server.port)")

	return cmd
}
