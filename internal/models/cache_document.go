// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package models

import (
	"time"

	"github.com/tomtom215/dietscope/internal/analysis"
)

// CacheDocument is the single record in the analysis cache collection.
// It is overwritten on every refresh.
//
// Example:
//
//	{
//	  "id": "latest",
//	  "pk": "analysis",
//	  "generatedUtc": "2026-03-01T12:00:00Z",
//	  "payload": {"avg_macros": [...], "top_protein": [...], "metadata": {...}}
//	}
type CacheDocument struct {
	ID           string           `json:"id"`
	PK           string           `json:"pk"`
	GeneratedUTC string           `json:"generatedUtc"`
	Payload      *analysis.Result `json:"payload"`
}

// NewCacheDocument wraps payload for storage under id and partition key pk.
func NewCacheDocument(id, pk string, payload *analysis.Result, now time.Time) *CacheDocument {
	return &CacheDocument{
		ID:           id,
		PK:           pk,
		GeneratedUTC: now.UTC().Format(time.RFC3339),
		Payload:      payload,
	}
}
