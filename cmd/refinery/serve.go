package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/refinery/internal/app"
	"github.com/efebarandurmaz/refinery/internal/config"
	"github.com/efebarandurmaz/refinery/internal/logging"
	"github.com/efebarandurmaz/refinery/internal/server"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newServeCmd(configPath *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the optimization HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logging.Setup(os.Stderr, cfg.Log)

	proxies, err := cfg.Server.TrustedProxyPrefixes()
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		return err
	}

	gs := server.NewGracefulServer(
		&server.HealthConfig{Version: version},
		&server.ShutdownConfig{Timeout: cfg.Server.ShutdownTimeout, Signals: server.DefaultShutdownConfig().Signals},
	)
	a.RegisterHealthChecks(gs.Health)

	api := server.NewAPI(a.Pipeline, a.Metrics, gs.Health, server.APIConfig{
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RateLimit:      cfg.Server.RateLimit,
		CORSOrigins:    cfg.Server.CORSOrigins,
		TrustedProxies: proxies,
	})
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	gs.RegisterHook(server.HTTPServerShutdownHook("api", httpServer.Shutdown))
	a.RegisterShutdownHooks(gs)

	gs.Start(cfg.Server.HealthAddr)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting refinery API", "addr", cfg.Server.Addr, "languages", a.Registry.Languages())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("api server: %w", err)
			gs.Shutdown.Shutdown()
		}
	}()

	gs.Wait()
	slog.Info("Refinery stopped")
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
