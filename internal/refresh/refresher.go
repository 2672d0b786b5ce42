// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

// Package refresh rebuilds every derived artifact when the raw dataset
// changes: the cleaned CSV, the recipe index and both cache tiers.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/dietscope/internal/analysis"
	"github.com/tomtom215/dietscope/internal/blob"
	"github.com/tomtom215/dietscope/internal/clients"
	"github.com/tomtom215/dietscope/internal/dataset"
	"github.com/tomtom215/dietscope/internal/logging"
	"github.com/tomtom215/dietscope/internal/metrics"
	"github.com/tomtom215/dietscope/internal/models"
)

// Run outcomes, also used as metric labels.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

// Report summarizes one refresh run. Step errors that did not abort the
// run are kept here rather than returned.
type Report struct {
	EventID    string               `json:"event_id"`
	Trigger    string               `json:"trigger"`
	SourceBlob string               `json:"source_blob"`
	CleanBlob  string               `json:"clean_blob"`
	Clean      analysis.CleanReport `json:"clean"`
	RowCount   int                  `json:"row_count"`
	DietTypes  int                  `json:"diet_types"`

	RecipesAttempted int `json:"recipes_attempted"`
	RecipesUpserted  int `json:"recipes_upserted"`

	IndexErr     error `json:"-"`
	CacheDocErr  error `json:"-"`
	CacheBlobErr error `json:"-"`

	Outcome  string           `json:"outcome"`
	Duration time.Duration    `json:"duration_ns"`
	Result   *analysis.Result `json:"-"`
}

// Partial joins the non-fatal step errors, or returns nil.
func (r *Report) Partial() error {
	return errors.Join(r.IndexErr, r.CacheDocErr, r.CacheBlobErr)
}

// Refresher runs the clean, index, aggregate and cache steps.
type Refresher struct {
	clients *clients.Registry
	now     func() time.Time
}

// New returns a Refresher using the stores and names held by reg.
func New(reg *clients.Registry) *Refresher {
	return &Refresher{clients: reg, now: time.Now}
}

// Handle adapts Run to an event handler.
func (r *Refresher) Handle(ctx context.Context, ev models.SourceChanged) error {
	_, err := r.Run(ctx, ev)
	return err
}

// Run rebuilds the derived artifacts for ev. Reading the source, writing
// the cleaned CSV and aggregating are fatal; index and cache failures are
// recorded in the Report and the remaining steps still run.
func (r *Refresher) Run(ctx context.Context, ev models.SourceChanged) (*Report, error) {
	start := r.now()
	cfg := r.clients.Config()
	if ev.SourceBlob == "" {
		ev.SourceBlob = cfg.Storage.RawBlob
	}
	ctx = logging.ContextWithRefreshID(ctx, ev.EventID)
	log := logging.Ctx(ctx)

	rep := &Report{
		EventID:    ev.EventID,
		Trigger:    ev.Trigger,
		SourceBlob: ev.SourceBlob,
		CleanBlob:  cfg.Storage.CleanBlob,
	}
	log.Info().Str("source_blob", ev.SourceBlob).Str("trigger", ev.Trigger).Int64("size", ev.Size).
		Msg("Refresh triggered")

	err := r.run(ctx, ev, rep)
	rep.Duration = r.now().Sub(start)

	failed := 0
	var pwe *PartialWriteError
	if errors.As(rep.IndexErr, &pwe) {
		failed = pwe.Failed
	}
	switch {
	case err != nil:
		rep.Outcome = OutcomeFailed
		log.Error().Err(err).Str("source_blob", ev.SourceBlob).Msg("Refresh aborted")
	case rep.Partial() != nil:
		rep.Outcome = OutcomePartial
		log.Warn().Err(rep.Partial()).Int("rows", rep.RowCount).Msg("Refresh completed with errors")
	default:
		rep.Outcome = OutcomeSuccess
		log.Info().Int("rows", rep.RowCount).Int("diet_types", rep.DietTypes).
			Int("recipes_upserted", rep.RecipesUpserted).Dur("duration", rep.Duration).Msg("Refresh completed")
	}
	metrics.RecordRefresh(ev.Trigger, rep.Outcome, rep.Duration, rep.RowCount, rep.RecipesUpserted, failed)
	return rep, err
}

func (r *Refresher) run(ctx context.Context, ev models.SourceChanged, rep *Report) error {
	cfg := r.clients.Config()
	log := logging.Ctx(ctx)

	store, err := r.clients.Blob(ctx)
	if err != nil {
		return err
	}

	// (a) clean
	raw, _, err := analysis.LoadTable(ctx, store, ev.SourceBlob)
	if err != nil {
		return err
	}
	cleaned, report := analysis.Clean(raw)
	if cleaned == nil {
		cleaned = dataset.New()
	}
	rep.Clean = report
	rep.RowCount = cleaned.Len()

	// (b) cleaned CSV
	csv, err := dataset.EncodeCSV(cleaned)
	if err != nil {
		return fmt.Errorf("encode cleaned table: %w", err)
	}
	if _, err := blob.PutBytes(ctx, store, cfg.Storage.CleanBlob, csv, blob.ContentTypeCSV); err != nil {
		return fmt.Errorf("write %s: %w", cfg.Storage.CleanBlob, err)
	}
	log.Info().Str("clean_blob", cfg.Storage.CleanBlob).Int("rows", cleaned.Len()).Msg("Wrote cleaned CSV")

	// (c) recipe index
	rep.IndexErr = r.upsertRecipes(ctx, cleaned, rep)

	// (d) aggregate
	result, err := analysis.Aggregate(cleaned, r.now())
	if err != nil {
		return err
	}
	rep.DietTypes = result.Metadata.DietTypes

	// (e) cache tiers
	container := cfg.Storage.Container
	result.Metadata.SourceBlob = container + "/" + ev.SourceBlob
	result.Metadata.CleanBlob = container + "/" + cfg.Storage.CleanBlob
	result.Metadata.CachedUTC = r.now().UTC().Format(time.RFC3339Nano)
	rep.Result = result

	rep.CacheDocErr = r.writeCacheDocument(ctx, result)
	rep.CacheBlobErr = r.writeCacheBlob(ctx, store, result)
	return nil
}

func (r *Refresher) upsertRecipes(ctx context.Context, cleaned *dataset.Table, rep *Report) error {
	log := logging.Ctx(ctx)
	cfg := r.clients.Config()

	proj, err := models.NewRecipeProjection(cleaned)
	if err != nil {
		log.Warn().Err(err).Msg("Recipes upsert skipped")
		return err
	}
	docs, err := r.clients.Documents(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Recipe index unavailable, continuing to the cache step")
		return err
	}

	pwe := &PartialWriteError{}
	for _, row := range cleaned.Rows {
		doc, ok := proj.Document(row)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		pwe.Attempted++
		if err := docs.UpsertRecipe(ctx, doc); err != nil {
			pwe.add(err)
			log.Warn().Err(err).Str("recipe_id", doc.ID).Msg("Recipe upsert failed")
			continue
		}
		rep.RecipesUpserted++
	}
	rep.RecipesAttempted = pwe.Attempted
	if pwe.Failed > 0 {
		return pwe
	}
	log.Info().Str("collection", cfg.Documents.RecipesContainer).Int("count", rep.RecipesUpserted).
		Msg("Upserted recipes")
	return nil
}

func (r *Refresher) writeCacheDocument(ctx context.Context, result *analysis.Result) error {
	cfg := r.clients.Config().Documents
	docs, err := r.clients.Documents(ctx)
	if err == nil {
		err = docs.UpsertCacheDocument(ctx, models.NewCacheDocument(cfg.CacheID, cfg.PartitionKey, result, r.now()))
	}
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Cache document write failed, still writing blob cache")
		return err
	}
	logging.Ctx(ctx).Info().Str("id", cfg.CacheID).Str("pk", cfg.PartitionKey).Msg("Upserted cache document")
	return nil
}

func (r *Refresher) writeCacheBlob(ctx context.Context, store blob.Store, result *analysis.Result) error {
	key := r.clients.Config().Storage.CacheBlob
	data, err := json.Marshal(result)
	if err == nil {
		_, err = blob.PutBytes(ctx, store, key, data, blob.ContentTypeJSON)
	}
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("cache_blob", key).Msg("Cache blob write failed")
		return err
	}
	logging.Ctx(ctx).Info().Str("cache_blob", key).Msg("Wrote cache blob")
	return nil
}
