package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"finsage/internal/async"
	"finsage/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	cmd.Flags().String("listen", "", "listen address, for example :8085")
	_ = viper.BindPFlag("server.listen_addr", cmd.Flags().Lookup("listen"))
	return cmd
}

func runServe(ctx context.Context) error {
	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}

	srv := server.New(rt.cfg.Server, rt.controller, rt.catalog, rt.logger, rt.registry)

	errCh := make(chan error, 1)
	async.Go(rt.logger, "http-server", func() {
		errCh <- srv.Start()
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
