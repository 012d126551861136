package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	temporalclient "go.temporal.io/sdk/client"

	"github.com/efebarandurmaz/refinery/internal/app"
	"github.com/efebarandurmaz/refinery/internal/config"
	"github.com/efebarandurmaz/refinery/internal/logging"
	"github.com/efebarandurmaz/refinery/internal/server"
	temporalmod "github.com/efebarandurmaz/refinery/internal/temporal"
)

func main() {
	configPath := flag.String("config", "configs/refinery.yaml", "Config file path")
	healthAddr := flag.String("health-addr", "", "Health listener address (overrides server.health_addr)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Loading config failed", "error", err)
		os.Exit(1)
	}
	if *healthAddr != "" {
		cfg.Server.HealthAddr = *healthAddr
	}
	logging.Setup(os.Stderr, cfg.Log)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		slog.Error("Building app failed", "error", err)
		os.Exit(1)
	}

	temporalmod.SetDependencies(&temporalmod.Dependencies{
		Pipeline: a.Pipeline,
		Audit:    a.Audit,
	})

	c, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  cfg.Temporal.Host,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		slog.Error("Temporal client failed", "host", cfg.Temporal.Host, "error", err)
		_ = a.Close(ctx)
		os.Exit(1)
	}
	defer c.Close()

	w, err := temporalmod.StartWorker(c, cfg.Temporal.TaskQueue)
	if err != nil {
		slog.Error("Worker failed to start", "error", err)
		_ = a.Close(ctx)
		os.Exit(1)
	}

	gs := server.NewGracefulServer(
		&server.HealthConfig{Version: "worker"},
		&server.ShutdownConfig{Timeout: cfg.Server.ShutdownTimeout, Signals: server.DefaultShutdownConfig().Signals},
	)
	a.RegisterHealthChecks(gs.Health)
	gs.Health.RegisterCheck("temporal", server.TemporalHealthChecker(func(ctx context.Context) error {
		_, err := c.CheckHealth(ctx, &temporalclient.CheckHealthRequest{})
		return err
	}))
	gs.RegisterHook(server.TemporalWorkerShutdownHook(w.Stop))
	a.RegisterShutdownHooks(gs)

	gs.Start(cfg.Server.HealthAddr)
	slog.Info("Worker started", "task_queue", cfg.Temporal.TaskQueue, "namespace", cfg.Temporal.Namespace)

	gs.Wait()
	slog.Info("Worker stopped")
}
