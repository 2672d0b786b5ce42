// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/tomtom215/dietscope/internal/api"
	"github.com/tomtom215/dietscope/internal/clients"
	"github.com/tomtom215/dietscope/internal/config"
	"github.com/tomtom215/dietscope/internal/events"
	"github.com/tomtom215/dietscope/internal/logging"
	"github.com/tomtom215/dietscope/internal/metrics"
	"github.com/tomtom215/dietscope/internal/refresh"
	"github.com/tomtom215/dietscope/internal/supervisor"
	"github.com/tomtom215/dietscope/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	httpShutdownTimeout = 10 * time.Second
	readHeaderTimeout   = 10 * time.Second
	idleTimeout         = 120 * time.Second
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("DietScope stopped with an error")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	metrics.SetAppInfo(version)

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("storage", cfg.Storage.Driver).
		Str("documents", cfg.Documents.Driver).
		Bool("nats", cfg.NATS.Enabled).
		Msg("Starting DietScope")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := clients.New(cfg)
	defer func() {
		if err := reg.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing storage clients")
		}
	}()
	warmClients(ctx, reg)

	bus, err := events.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open event bus: %w", err)
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	refresher := refresh.New(reg)
	consumer := events.NewConsumer(bus, refresher.Handle, events.NewDeduplicator(cfg.Refresh.DedupTTL))

	handler, err := api.NewHandler(reg, bus)
	if err != nil {
		return err
	}
	router := api.NewRouter(handler, api.ChiMiddlewareConfigFrom(cfg.Security))

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router.Setup(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       idleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	if ns := bus.Server(); ns != nil {
		tree.AddMessagingService(ns)
	}
	tree.AddMessagingService(consumer)
	if cfg.Refresh.PollEnabled {
		poller := refresh.NewPoller(reg, bus)
		poller.WaitFor(consumer.Ready())
		tree.AddDataService(poller)
		logging.Info().Str("blob", cfg.Storage.RawBlob).Dur("interval", poller.Interval()).Msg("Source poller enabled")
	}
	tree.AddAPIService(services.NewHTTPServerService(srv, httpShutdownTimeout))

	err = tree.Serve(ctx)

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	logging.Info().Msg("DietScope stopped")
	return nil
}

// warmClients opens the storage clients up front so misconfiguration shows
// in the startup log. Failures are not fatal; the endpoints and health
// checks report the same error.
func warmClients(ctx context.Context, reg *clients.Registry) {
	if _, err := reg.Blob(ctx); err != nil {
		logging.Warn().Err(err).Msg("Blob storage unavailable at startup")
	}
	if _, err := reg.Documents(ctx); err != nil {
		logging.Warn().Err(err).Msg("Document store unavailable at startup")
	}
}
