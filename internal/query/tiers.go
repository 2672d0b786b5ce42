// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/dietscope/internal/analysis"
	"github.com/tomtom215/dietscope/internal/blob"
	"github.com/tomtom215/dietscope/internal/clients"
	"github.com/tomtom215/dietscope/internal/dataset"
	"github.com/tomtom215/dietscope/internal/docstore"
	"github.com/tomtom215/dietscope/internal/logging"
	"github.com/tomtom215/dietscope/internal/metrics"
	"github.com/tomtom215/dietscope/internal/models"
)

// BreakerName labels the document store breaker in metrics and logs.
const BreakerName = "document-cache"

// DatabaseTier reads the cache document. Reads go through a circuit
// breaker so an unhealthy document store is skipped quickly.
type DatabaseTier struct {
	clients *clients.Registry
	cb      *gobreaker.CircuitBreaker[interface{}]
}

// NewDatabaseTier builds the tier and its breaker from the documents
// configuration.
func NewDatabaseTier(reg *clients.Registry) *DatabaseTier {
	cfg := reg.Config().Documents
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(BreakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        BreakerName,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A missing document is an answer, not a fault.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, docstore.ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Circuit breaker state transition")
			metrics.RecordBreakerTransition(name, from.String(), to.String())
		},
	})
	return &DatabaseTier{clients: reg, cb: cb}
}

func (t *DatabaseTier) Name() string { return SourceDatabase }

// State reports the breaker state.
func (t *DatabaseTier) State() gobreaker.State { return t.cb.State() }

func (t *DatabaseTier) Load(ctx context.Context) (*analysis.Result, error) {
	docs, err := t.clients.Documents(ctx)
	if err != nil {
		return nil, err
	}
	cfg := t.clients.Config().Documents

	out, err := t.cb.Execute(func() (interface{}, error) {
		return docs.ReadCacheDocument(ctx, cfg.CacheID, cfg.PartitionKey)
	})
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(BreakerName, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(BreakerName, "rejected").Inc()
		return nil, fmt.Errorf("document cache skipped: %w", err)
	case errors.Is(err, docstore.ErrNotFound):
		metrics.CircuitBreakerRequests.WithLabelValues(BreakerName, "success").Inc()
		return nil, ErrAbsent
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(BreakerName, "failure").Inc()
		return nil, err
	}

	doc, ok := out.(*models.CacheDocument)
	if !ok || doc == nil || doc.Payload == nil {
		return nil, ErrAbsent
	}
	res := doc.Payload
	res.Metadata.CacheSource = SourceDatabase
	return res, nil
}

// BlobTier reads the JSON cache blob.
type BlobTier struct {
	clients *clients.Registry
}

// NewBlobTier returns a tier over the configured cache blob.
func NewBlobTier(reg *clients.Registry) *BlobTier { return &BlobTier{clients: reg} }

func (t *BlobTier) Name() string { return SourceBlob }

func (t *BlobTier) Load(ctx context.Context) (*analysis.Result, error) {
	store, err := t.clients.Blob(ctx)
	if err != nil {
		return nil, err
	}
	key := t.clients.Config().Storage.CacheBlob
	data, _, err := blob.ReadAll(ctx, store, key)
	if err != nil {
		if blob.IsNotFound(err) {
			return nil, ErrAbsent
		}
		return nil, err
	}
	var res analysis.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	res.Metadata.CacheSource = SourceBlob
	return &res, nil
}

// ComputeTier cleans and aggregates the dataset on demand. Concurrent
// misses share a single computation.
type ComputeTier struct {
	clients *clients.Registry
	group   singleflight.Group
	now     func() time.Time
}

// NewComputeTier returns the last-resort tier.
func NewComputeTier(reg *clients.Registry) *ComputeTier {
	return &ComputeTier{clients: reg, now: time.Now}
}

func (t *ComputeTier) Name() string { return SourceComputed }

func (t *ComputeTier) Load(ctx context.Context) (*analysis.Result, error) {
	// The shared computation must not die with whichever request started it.
	v, err, shared := t.group.Do("compute", func() (interface{}, error) {
		return t.compute(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logging.Ctx(ctx).Debug().Msg("Joined in-flight analysis compute")
	}
	// Callers stamp their own timing into Metadata, so each gets a copy.
	res := *v.(*analysis.Result)
	return &res, nil
}

func (t *ComputeTier) compute(ctx context.Context) (*analysis.Result, error) {
	start := t.now()
	defer func() { metrics.ComputeDuration.Observe(t.now().Sub(start).Seconds()) }()

	store, err := t.clients.Blob(ctx)
	if err != nil {
		return nil, err
	}
	cfg := t.clients.Config().Storage
	log := logging.Ctx(ctx)

	var table *dataset.Table
	source := cfg.CleanBlob
	table, _, err = analysis.LoadTable(ctx, store, cfg.CleanBlob)
	if err != nil {
		log.Warn().Err(err).Str("fallback", cfg.RawBlob).Msg("Cleaned dataset unavailable, cleaning the raw dataset")
		raw, _, rawErr := analysis.LoadTable(ctx, store, cfg.RawBlob)
		if rawErr != nil {
			return nil, rawErr
		}
		table, _ = analysis.Clean(raw)
		if table == nil {
			table = dataset.New()
		}
		source = cfg.RawBlob
	}

	res, err := analysis.Aggregate(table, t.now())
	if err != nil {
		return nil, err
	}
	res.Metadata.SourceBlob = cfg.Container + "/" + source
	res.Metadata.CacheSource = SourceComputed
	res.Metadata.CacheStatus = StatusMiss
	ms := analysis.Round2(float64(t.now().Sub(start)) / float64(time.Millisecond))
	res.Metadata.ExecutionTimeMs = &ms
	return res, nil
}
