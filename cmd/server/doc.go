// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

/*
Package main runs the DietScope HTTP service.

DietScope cleans a recipe dataset (All_Diets.csv), indexes every recipe in a
document store and serves per-diet macronutrient averages and the top
protein recipes per diet.

# Process Layout

	RootSupervisor ("dietscope")
	├── DataSupervisor ("data-layer")
	│   └── source-poller         watches the raw blob's ETag
	├── MessagingSupervisor ("messaging-layer")
	│   ├── nats-server           NATS_ENABLED with NATS_EMBEDDED
	│   └── refresh-consumer      runs a refresh per source-changed event
	└── APISupervisor ("api-layer")
	    └── http-server

A refresh starts when the poller sees the raw blob change, when another
service publishes on the refresh topic, or when POST /api/v1/refresh is
called.

# Configuration

Settings come from built-in defaults, then config.yaml (or the file named
by CONFIG_PATH), then the environment. Commonly used variables:

	HTTP_PORT              listen port (default 8080)
	LOG_LEVEL, LOG_FORMAT  zerolog level and json|console
	STORAGE_DRIVER         memory | fs | s3
	AzureWebJobsStorage    storage connection (fs root or s3://bucket)
	STORAGE_CONTAINER      directory or key prefix holding the blobs
	COSMOS_DRIVER          memory | sqlite | postgres | duckdb | badger
	COSMOS_URL, COSMOS_KEY document store location and credential
	COSMOS_DB, COSMOS_CONTAINER, COSMOS_PARTITION_KEY
	REFRESH_POLL_ENABLED   poll the raw blob for changes
	NATS_ENABLED           use JetStream instead of the in-process channel

# Signals

SIGINT and SIGTERM cancel the tree. The HTTP server drains in-flight
requests for up to 10 seconds, then the event bus and document store are
closed.
*/
package main
