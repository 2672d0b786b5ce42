// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto at
package init, so importing the package is enough to expose them.

# Overview

The package provides metrics for:
  - HTTP request latency and throughput
  - Which analysis cache tier served each request
  - Refresh runs, cleaned rows and recipe index upserts
  - Recipe search outcomes
  - Blob and document store operations
  - Circuit breaker state transitions
  - Source-changed event flow

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

# Usage

	start := time.Now()
	// ... handle request ...
	metrics.RecordAPIRequest(r.Method, "/api/recipes", "200", time.Since(start))

Label values are bounded: endpoints are route patterns, never raw paths.
*/
package metrics
