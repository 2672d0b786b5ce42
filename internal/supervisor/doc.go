// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

/*
Package supervisor runs DietScope's long-lived services under a suture v4
supervisor tree.

The tree has three layers so a crash in one does not take down the others:

	RootSupervisor ("dietscope")
	├── DataSupervisor ("data-layer")
	│   └── source-poller (if refresh.poll_enabled)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── nats-server (if nats.embedded_server)
	│   └── refresh-consumer
	└── APISupervisor ("api-layer")
	    └── http-server

A failing refresh consumer is restarted with backoff while the API keeps
serving analyses from the cache tiers.

Supervisor events (starts, failures, backoff) are logged through
sutureslog using the slog bridge from the logging package.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMessagingService(consumer)
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}
*/
package supervisor
