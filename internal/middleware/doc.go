// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

/*
Package middleware provides the HTTP middleware shared by every API route.

  - RequestID: reuses or generates X-Request-ID and puts it, plus a fresh
    correlation ID, into the request context for logging.
  - PrometheusMetrics: counts requests and observes latency, labelled by
    the chi route pattern so path parameters do not create new series.
  - Recover: turns a handler panic into a JSON 500.

Response compression and CORS come from chi and go-chi/cors and are wired
in internal/api.
*/
package middleware
