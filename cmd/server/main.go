// Command server runs the EDemocracy backend.
//
// Configuration is layered: built-in defaults, an optional YAML file
// (--config, EDEMOCRACY_CONFIG, ./config.yaml, /etc/edemocracy/config.yaml),
// then EDEMOCRACY_* environment overrides. The signing secret
// (EDEMOCRACY_SECRET or EDEMOCRACY_SECRET_FILE) is required.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RaffertyMetcalfe/EDemocracy/pkg/auth"
	"github.com/RaffertyMetcalfe/EDemocracy/pkg/config"
	"github.com/RaffertyMetcalfe/EDemocracy/pkg/feed"
	"github.com/RaffertyMetcalfe/EDemocracy/pkg/observability"
	"github.com/RaffertyMetcalfe/EDemocracy/pkg/storage"
	"github.com/RaffertyMetcalfe/EDemocracy/pkg/storage/memory"
	"github.com/RaffertyMetcalfe/EDemocracy/pkg/storage/postgres"
	transporthttp "github.com/RaffertyMetcalfe/EDemocracy/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	store, err := newStore(cfg)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer store.Close()

	secret := []byte(cfg.Auth.Secret)
	sessions := auth.NewSessionCodec(secret, cfg.Auth.SessionTTL)
	purposes := auth.NewPurposeCodec(secret, cfg.Auth.PurposeTTL)
	service := feed.NewService(store, sessions, purposes, logger)

	adapter := transporthttp.NewAdapter(service, sessions, store.HealthCheck, transporthttp.Config{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		MaxBodySize: 1 << 20,
	})

	handler := adapter.Handler()
	if cfg.Observability.Metrics.Enabled {
		adapter.Mux().Handle("GET "+cfg.Observability.Metrics.Path, promhttp.Handler())
		handler = observability.MetricsMiddleware(handler)
		logger.Info("metrics enabled", "path", cfg.Observability.Metrics.Path)
	}

	srv := transporthttp.NewServer(handler,
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithLogger(logger),
	)

	logger.Info("starting",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Type,
		"session_ttl", cfg.Auth.SessionTTL,
		"purpose_ttl", cfg.Auth.PurposeTTL,
	)
	return srv.ListenAndServe()
}

// newStore builds the configured storage backend.
func newStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Type {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return postgres.New(ctx, postgres.Config{
			DSN:            cfg.Storage.Postgres.DSN,
			MaxConns:       cfg.Storage.Postgres.MaxConns,
			MigrateOnStart: cfg.Storage.Postgres.MigrateOnStart,
		})
	default:
		return memory.New(), nil
	}
}
