// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package analysis

import (
	"context"
	"time"

	"github.com/tomtom215/dietscope/internal/blob"
	"github.com/tomtom215/dietscope/internal/dataset"
)

// LoadTable reads and parses the CSV blob at key. Any failure, including
// a missing blob or an unparseable file, is an ErrSourceUnavailable; use
// blob.IsNotFound to tell absence apart.
func LoadTable(ctx context.Context, store blob.Store, key string) (*dataset.Table, blob.Info, error) {
	data, info, err := blob.ReadAll(ctx, store, key)
	if err != nil {
		return nil, blob.Info{}, SourceError(key, err)
	}
	t, err := dataset.ParseCSV(data)
	if err != nil {
		return nil, info, SourceError(key, err)
	}
	return t, info, nil
}

// Analyze cleans a raw table and aggregates it.
func Analyze(raw *dataset.Table, now time.Time) (*Result, *dataset.Table, CleanReport, error) {
	cleaned, report := Clean(raw)
	if cleaned == nil {
		cleaned = dataset.New()
	}
	res, err := Aggregate(cleaned, now)
	if err != nil {
		return nil, cleaned, report, err
	}
	return res, cleaned, report, nil
}
