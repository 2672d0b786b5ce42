// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package query

import (
	"context"
	"time"

	"github.com/tomtom215/dietscope/internal/analysis"
	"github.com/tomtom215/dietscope/internal/clients"
	"github.com/tomtom215/dietscope/internal/logging"
)

// Live analyzes the raw dataset on every call, ignoring both caches.
type Live struct {
	clients *clients.Registry
	now     func() time.Time
}

// NewLive returns a Live analyzer over reg.
func NewLive(reg *clients.Registry) *Live {
	return &Live{clients: reg, now: time.Now}
}

// Run reads, cleans and aggregates the raw blob.
func (l *Live) Run(ctx context.Context) (*analysis.Result, error) {
	start := l.now()
	store, err := l.clients.Blob(ctx)
	if err != nil {
		return nil, err
	}
	cfg := l.clients.Config().Storage

	raw, _, err := analysis.LoadTable(ctx, store, cfg.RawBlob)
	if err != nil {
		return nil, err
	}
	res, _, report, err := analysis.Analyze(raw, l.now())
	if err != nil {
		return nil, err
	}

	res.Metadata.SourceBlob = cfg.Container + "/" + cfg.RawBlob
	res.Metadata.CacheSource = SourceLive
	ms := analysis.Round2(float64(l.now().Sub(start)) / float64(time.Millisecond))
	res.Metadata.ExecutionTimeMs = &ms

	logging.Ctx(ctx).Info().Int("rows", res.Metadata.RowCount).Int("duplicates", report.DuplicatesFound).
		Float64("ms", ms).Msg("Live analysis completed")
	return res, nil
}
