package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alertmesh/alertmesh/internal/api"
	"github.com/alertmesh/alertmesh/internal/config"
	"github.com/alertmesh/alertmesh/internal/engine"
	"github.com/alertmesh/alertmesh/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("alertmesh starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.HTTPPort,
		"tick_interval", cfg.TickInterval,
		"global_cooldown_minutes", cfg.Alerting.GlobalCooldownMinutes,
		"max_alerts_per_hour", cfg.Alerting.MaxAlertsPerHour,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eng := engine.New(cfg.Alerting, cfg.TickInterval)

	// Seed rules and channels from a previously exported payload, if any.
	if cfg.SeedFile != "" {
		data, err := os.ReadFile(cfg.SeedFile)
		if err != nil {
			slog.Error("failed to read seed file", "path", cfg.SeedFile, "err", err)
			os.Exit(1)
		}
		if !eng.ImportConfiguration(data) {
			slog.Error("seed file rejected", "path", cfg.SeedFile)
			os.Exit(1)
		}
	}

	eng.Start()

	// Reapply alerting defaults when the config file changes on disk.
	go func() {
		if err := config.Watch(ctx, *configPath, func(c *config.Config) {
			eng.Reconfigure(c.Alerting)
		}); err != nil {
			slog.Error("config watch unavailable", "err", err)
		}
	}()

	// WebSocket hub broadcasts alert state to dashboard clients.
	hub := ws.New(eng.Alerts(), cfg.BroadcastInterval)
	go hub.Run(ctx)

	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", api.New(eng))
	httpMux.Handle("/ws/alerts", hub)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("alertmesh shutting down")
	eng.Stop()
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
