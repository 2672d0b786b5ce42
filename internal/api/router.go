// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

// Package api exposes the analysis, recipe search and refresh endpoints
// over a chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/tomtom215/dietscope/internal/api/docs" // registers the OpenAPI document
	"github.com/tomtom215/dietscope/internal/middleware"
	"github.com/tomtom215/dietscope/internal/models"
)

// chiMiddleware adapts http.HandlerFunc middleware to chi's signature.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Router owns the handler and the middleware factories.
type Router struct {
	handler *Handler
	mw      *ChiMiddleware
}

// NewRouter returns a Router for h.
func NewRouter(h *Handler, cfg *ChiMiddlewareConfig) *Router {
	return &Router{handler: h, mw: NewChiMiddleware(cfg)}
}

// Setup builds the route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chiMiddleware(middleware.Recover))
	r.Use(router.mw.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusNotFound, models.ErrorResponse{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusMethodNotAllowed, models.ErrorResponse{Error: "method not allowed"})
	})

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Group(func(r chi.Router) {
		r.Use(router.mw.RateLimit("api"))
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chimiddleware.Compress(5, "application/json"))

		// Unversioned routes for existing clients.
		r.Get("/api/diet-analysis", router.handler.DietAnalysis)
		r.Get("/api/recipes", router.handler.Recipes)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/analysis", router.handler.DietAnalysis)
			r.Get("/analysis/live", router.handler.LiveAnalysis)
			r.Get("/recipes", router.handler.Recipes)
			r.Post("/refresh", router.handler.Refresh)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
	))

	return r
}
