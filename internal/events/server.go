// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package events

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/tomtom215/dietscope/internal/config"
	"github.com/tomtom215/dietscope/internal/logging"
)

// ServerOptions configures the embedded NATS server.
type ServerOptions struct {
	Host     string
	Port     int // -1 picks a free port
	StoreDir string
}

// ServerOptionsFromConfig listens where NATS_URL points, defaulting to
// 127.0.0.1:4222.
func ServerOptionsFromConfig(cfg config.NATSConfig) ServerOptions {
	opts := ServerOptions{Host: "127.0.0.1", Port: 4222, StoreDir: cfg.StoreDir}
	if u, err := url.Parse(cfg.URL); err == nil && u.Host != "" {
		if h := u.Hostname(); h != "" {
			opts.Host = h
		}
		if p, err := strconv.Atoi(u.Port()); err == nil {
			opts.Port = p
		}
	}
	return opts
}

// EmbeddedServer is an in-process NATS server with JetStream.
type EmbeddedServer struct {
	ns       *server.Server
	stopOnce sync.Once
}

// NewEmbeddedServer starts the server and waits until it accepts clients.
func NewEmbeddedServer(opts ServerOptions) (*EmbeddedServer, error) {
	ns, err := server.NewServer(&server.Options{
		ServerName: "dietscope-events",
		Host:       opts.Host,
		Port:       opts.Port,
		JetStream:  true,
		StoreDir:   opts.StoreDir,
		NoSigs:     true,
		MaxPayload: 1024 * 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}
	ns.ConfigureLogger()
	go ns.Start()

	if !ns.ReadyForConnections(15 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within timeout")
	}
	logging.Info().Str("url", ns.ClientURL()).Str("store_dir", opts.StoreDir).Msg("Embedded NATS server started")
	return &EmbeddedServer{ns: ns}, nil
}

// ClientURL is the address clients connect to.
func (s *EmbeddedServer) ClientURL() string { return s.ns.ClientURL() }

// Running reports whether the server is accepting connections.
func (s *EmbeddedServer) Running() bool { return s.ns.Running() }

// Shutdown stops the server once and waits for it to exit.
func (s *EmbeddedServer) Shutdown() {
	s.stopOnce.Do(func() {
		s.ns.Shutdown()
		s.ns.WaitForShutdown()
		logging.Info().Msg("Embedded NATS server stopped")
	})
}

// Serve holds the server until ctx is done, then shuts it down.
func (s *EmbeddedServer) Serve(ctx context.Context) error {
	<-ctx.Done()
	s.Shutdown()
	return ctx.Err()
}

func (s *EmbeddedServer) String() string { return "nats-server" }
