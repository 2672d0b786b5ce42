// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/dietscope/internal/clients"
	"github.com/tomtom215/dietscope/internal/logging"
	"github.com/tomtom215/dietscope/internal/models"
	"github.com/tomtom215/dietscope/internal/query"
	"github.com/tomtom215/dietscope/internal/refresh"
	"github.com/tomtom215/dietscope/internal/search"
	"github.com/tomtom215/dietscope/internal/validation"
)

const maxRefreshBody = 64 << 10

var (
	errBadBody       = errors.New("invalid request body")
	errNoEventBus    = errors.New("refresh events are not available")
	errEmptyRegistry = errors.New("api: registry is required")
)

// Handler serves the analysis, search, refresh and health endpoints.
type Handler struct {
	clients   *clients.Registry
	chain     *query.Chain
	live      *query.Live
	search    *search.Service
	publisher refresh.Publisher
	startTime time.Time
}

// NewHandler wires the default query chain and search service over reg.
// pub may be nil, in which case POST /api/v1/refresh answers 503.
func NewHandler(reg *clients.Registry, pub refresh.Publisher) (*Handler, error) {
	if reg == nil {
		return nil, errEmptyRegistry
	}
	return &Handler{
		clients:   reg,
		chain:     query.NewDefaultChain(reg),
		live:      query.NewLive(reg),
		search:    search.NewService(reg),
		publisher: pub,
		startTime: time.Now(),
	}, nil
}

// DietAnalysis returns the aggregation result from the cheapest tier.
//
// @Summary Diet macro analysis
// @Description Average macros per diet type and the top protein recipes. Served from the cache document, then the cache blob, then computed on demand.
// @Tags Analysis
// @Produce json
// @Success 200 {object} analysis.Result
// @Failure 500 {object} models.ErrorResponse
// @Router /diet-analysis [get]
func (h *Handler) DietAnalysis(w http.ResponseWriter, r *http.Request) {
	res, err := h.chain.Resolve(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, res)
}

// LiveAnalysis analyzes the raw dataset without consulting any cache.
//
// @Summary Uncached diet macro analysis
// @Tags Analysis
// @Produce json
// @Success 200 {object} analysis.Result
// @Failure 500 {object} models.ErrorResponse
// @Router /v1/analysis/live [get]
func (h *Handler) LiveAnalysis(w http.ResponseWriter, r *http.Request) {
	res, err := h.live.Run(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, res)
}

// Recipes searches the recipe index.
//
// @Summary Search recipes
// @Description Paginated recipe lookup. hasMore is true when the page is full, so an exact final page still reports more.
// @Tags Recipes
// @Produce json
// @Param diet query string false "Diet type, case-insensitive; 'all' disables the filter"
// @Param q query string false "Substring of recipe name or cuisine"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size, 1..50" default(10)
// @Success 200 {object} models.RecipePage
// @Failure 400 {object} models.ErrorResponse "Recipe index rejected the query"
// @Failure 500 {object} models.ErrorResponse
// @Router /recipes [get]
func (h *Handler) Recipes(w http.ResponseWriter, r *http.Request) {
	page, err := h.search.Search(r.Context(), search.ParseQuery(r.URL.Query()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, page)
}

// Refresh queues a rebuild of the cleaned dataset, recipe index and caches.
//
// @Summary Trigger a refresh
// @Tags Refresh
// @Accept json
// @Produce json
// @Param request body models.RefreshRequest false "Source blob, defaults to the configured raw blob"
// @Success 202 {object} models.RefreshAccepted
// @Failure 400 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /v1/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		respondJSON(w, r, http.StatusServiceUnavailable, models.ErrorResponse{Error: errNoEventBus.Error()})
		return
	}

	var req models.RefreshRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRefreshBody+1))
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", errBadBody, err))
		return
	}
	if len(body) > maxRefreshBody {
		respondError(w, r, fmt.Errorf("%w: larger than %d bytes", errBadBody, maxRefreshBody))
		return
	}
	if strings.TrimSpace(string(body)) != "" {
		if err := json.Unmarshal(body, &req); err != nil {
			respondError(w, r, fmt.Errorf("%w: %v", errBadBody, err))
			return
		}
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, r, verr)
		return
	}

	blobName := req.SourceBlob
	if blobName == "" {
		blobName = h.clients.Config().Storage.RawBlob
	}
	ev := models.NewSourceChanged(blobName, models.TriggerHTTP)
	if err := h.publisher.Publish(r.Context(), ev); err != nil {
		respondError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("event_id", ev.EventID).Str("source_blob", blobName).Msg("Refresh queued")
	respondJSON(w, r, http.StatusAccepted, models.RefreshAccepted{
		Status:     "accepted",
		EventID:    ev.EventID,
		SourceBlob: blobName,
	})
}

// HealthLive reports that the process is up.
//
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} models.HealthStatus
// @Router /v1/health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, models.HealthStatus{
		Status:    "alive",
		Timestamp: time.Now().UTC(),
		Checks:    map[string]string{"uptime": time.Since(h.startTime).Round(time.Second).String()},
	})
}

// HealthReady pings the blob and document stores.
//
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} models.HealthStatus
// @Failure 503 {object} models.HealthStatus
// @Router /v1/health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := make(map[string]string, 2)
	ready := true

	if store, err := h.clients.Blob(ctx); err != nil {
		checks["blob"], ready = err.Error(), false
	} else if err := store.Ping(ctx); err != nil {
		checks["blob"], ready = err.Error(), false
	} else {
		checks["blob"] = "ok"
	}

	if docs, err := h.clients.Documents(ctx); err != nil {
		checks["documents"], ready = err.Error(), false
	} else if err := docs.Ping(ctx); err != nil {
		checks["documents"], ready = err.Error(), false
	} else {
		checks["documents"] = "ok"
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	respondJSON(w, r, code, models.HealthStatus{Status: status, Timestamp: time.Now().UTC(), Checks: checks})
}
