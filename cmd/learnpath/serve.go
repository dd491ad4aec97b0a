package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pseng/MyH5P-pages/internal/cli"
	httpAdapter "github.com/pseng/MyH5P-pages/pkg/adapters/http"
)

// shutdownTimeout bounds how long in-flight requests may take once a signal arrives.
const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts learnpath in server mode, exposing the path, learner-session and editor APIs
as JSON over HTTP. Storage, tracking and session settings come from the configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := cli.Build(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := rt.Close(); err != nil {
				logger.Error("failed to release storage", "err", err)
			}
		}()

		handler := httpAdapter.NewHandler(rt.Service,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithGatherer(rt.Gatherer),
			httpAdapter.WithCORSOrigins(cfg.Server.CORSOrigins...),
		)

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
			IdleTimeout:       2 * time.Minute,
		}

		go rt.Service.Run(ctx, cfg.Sessions.SweepInterval)

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting learnpath server", "addr", srv.Addr, "storage", cfg.Storage.Driver)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil

		case <-ctx.Done():
			logger.Info("Start shutdown")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("learnpath server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
