package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/chainwatch/chainwatch/internal/config"
	"github.com/chainwatch/chainwatch/internal/dashboard"
	"github.com/chainwatch/chainwatch/internal/logging"
	"github.com/chainwatch/chainwatch/internal/orchestrator"
	"github.com/chainwatch/chainwatch/internal/producer"
	"github.com/chainwatch/chainwatch/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		slog.Error("config load failed", "path", *configPath, "error", err)
		os.Exit(1)
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}

	logging.Init(cfg.Log.Level, cfg.Log.Format)

	state := dashboard.NewState()
	registry := ws.NewRegistry(cfg.Server.MaxClients)
	broadcaster := ws.NewBroadcaster(registry)

	commands := producer.NewAdapter("dashboard", broadcaster, nil)
	metricsPub := producer.NewMetricsPublisher(state,
		producer.NewAdapter("metrics_reporter", broadcaster, nil), nil, cfg.Producers.Metrics.Interval)
	orders := producer.NewOrderStreamer(
		producer.NewAdapter("order_generator", broadcaster, nil), nil,
		cfg.Producers.Orders.MinInterval, cfg.Producers.Orders.MaxInterval)
	alerts := producer.NewAlertMonitor(state,
		producer.NewAdapter("alert_monitor", broadcaster, nil), metricsPub, nil)
	orch := orchestrator.NewRuleBased(
		producer.NewAdapter("inventory_agent", broadcaster, nil), nil)

	server := ws.NewServer(cfg, registry, broadcaster, state, commands, metricsPub, orch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Seed the metric figures so the first dashboard_data reply is not
	// all zeroes.
	metricsPub.PublishNow()

	if cfg.Producers.Orders.Enabled {
		orders.Start(ctx)
	}
	if cfg.Producers.Alerts.Enabled {
		alerts.Start(ctx)
	}
	if cfg.Producers.Metrics.Enabled {
		metricsPub.Start(ctx)
	}

	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down")
		cancel()
		os.Exit(0)
	}()

	if err := ws.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
