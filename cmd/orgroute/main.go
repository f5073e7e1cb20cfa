// OrgRoute routes incoming HTTP requests to isolated tenant databases
// selected by the x-org header and executes CRUD statements against the
// chosen tenant's connection pool.
//
// Run with:
//
//	ORGROUTE_CONFIG=config.yaml go run ./cmd/orgroute
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/koustreak/OrgRoute/internal/async"
	"github.com/koustreak/OrgRoute/internal/config"
	"github.com/koustreak/OrgRoute/internal/database"
	"github.com/koustreak/OrgRoute/internal/logger"
	"github.com/koustreak/OrgRoute/internal/server"
	"github.com/koustreak/OrgRoute/internal/tenant"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config (defaults to $ORGROUTE_CONFIG, then ./config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New(nil).Fatalf("failed to load configuration: %v", err)
	}

	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Pools are provisioned once here; a tenant whose database is down at
	// boot stays registered as unavailable instead of crashing the process.
	registry := tenant.NewRegistry(ctx, cfg.Tenants, nil, log)
	defer registry.Close()

	bridge := async.NewBridge[*database.Result](cfg.Bridge.Workers, cfg.Bridge.QueueSize, log)
	defer bridge.Close()

	executor := database.NewExecutor(cfg.Executor.AcquireTimeout.Std(), cfg.Executor.QueryTimeout.Std())
	resolver := tenant.NewHeaderResolver(cfg.Tenancy)

	handler := server.NewHandler(executor, bridge, registry)
	srv := server.NewServer(cfg.Server, server.Router(handler, resolver, registry, log), log)

	log.With().
		Str("addr", cfg.Server.Addr).
		Int("tenants", len(cfg.Tenants)).
		Int("workers", cfg.Bridge.Workers).
		Logger().
		Info("starting gateway")

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}

	log.Info("shutdown complete")
}
