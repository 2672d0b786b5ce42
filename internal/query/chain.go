// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

// Package query serves the analysis result from the cheapest tier that has
// it: the cache document, then the cache blob, then an on-demand compute.
package query

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/dietscope/internal/analysis"
	"github.com/tomtom215/dietscope/internal/clients"
	"github.com/tomtom215/dietscope/internal/logging"
	"github.com/tomtom215/dietscope/internal/metrics"
)

// Cache source values reported in metadata.cache_source.
const (
	SourceDatabase = "database"
	SourceBlob     = "blob"
	SourceComputed = "computed"
	SourceLive     = "live"

	// StatusMiss marks a result that no cache tier could provide.
	StatusMiss = "miss"
)

// ErrAbsent is returned by a tier that has nothing cached. The chain moves
// on without logging a warning.
var ErrAbsent = errors.New("cache entry absent")

// ErrNoTiers is returned by a chain without tiers.
var ErrNoTiers = errors.New("query chain has no tiers")

// Tier produces the analysis result or explains why it cannot.
type Tier interface {
	Name() string
	Load(ctx context.Context) (*analysis.Result, error)
}

// Chain consults its tiers in order and returns the first result.
type Chain struct {
	tiers []Tier
	now   func() time.Time
}

// NewChain returns a chain over tiers.
func NewChain(tiers ...Tier) *Chain {
	return &Chain{tiers: tiers, now: time.Now}
}

// NewDefaultChain wires the database, blob and compute tiers over reg.
func NewDefaultChain(reg *clients.Registry) *Chain {
	return NewChain(NewDatabaseTier(reg), NewBlobTier(reg), NewComputeTier(reg))
}

// Tiers returns the tiers in consultation order.
func (c *Chain) Tiers() []Tier { return c.tiers }

// Resolve returns the first tier's result. Failures of every tier but the
// last are logged and skipped; the last tier's error is returned.
func (c *Chain) Resolve(ctx context.Context) (*analysis.Result, error) {
	if len(c.tiers) == 0 {
		return nil, ErrNoTiers
	}
	start := c.now()
	log := logging.Ctx(ctx)

	for i, tier := range c.tiers {
		res, err := tier.Load(ctx)
		if err == nil {
			metrics.RecordTierResult(tier.Name(), "hit")
			ms := analysis.Round2(float64(c.now().Sub(start)) / float64(time.Millisecond))
			res.Metadata.APIExecutionTimeMs = &ms
			log.Debug().Str("tier", tier.Name()).Float64("ms", ms).Msg("Analysis served")
			return res, nil
		}

		last := i == len(c.tiers)-1
		switch {
		case errors.Is(err, ErrAbsent):
			metrics.RecordTierResult(tier.Name(), "absent")
		default:
			metrics.RecordTierResult(tier.Name(), "error")
			if !last {
				log.Warn().Err(err).Str("tier", tier.Name()).Msg("Cache tier failed, falling back")
			}
		}
		if last {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
	}
	return nil, ErrNoTiers
}
