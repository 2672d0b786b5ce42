// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

// Package docstore persists the analysis cache document and the recipe
// index. Backends: SQL (SQLite, PostgreSQL, DuckDB), Badger, and memory.
//
// All backends share one search contract: diet matched case-insensitively
// and exactly, q matched as a substring of the lowercased recipe name or
// cuisine, results ordered by recipe name (byte order) then id, then
// offset and limit applied.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/tomtom215/dietscope/internal/metrics"
	"github.com/tomtom215/dietscope/internal/models"
)

// Backend names.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendDuckDB   = "duckdb"
	BackendBadger   = "badger"
)

// ErrNotFound is returned when the requested document does not exist.
var ErrNotFound = errors.New("document not found")

// BackendQueryError is a query the backend rejected or failed to run.
// The search endpoint reports it as 400 with Detail.
type BackendQueryError struct {
	Backend string
	Err     error
}

func (e *BackendQueryError) Error() string {
	return fmt.Sprintf("%s query failed: %v", e.Backend, e.Err)
}

func (e *BackendQueryError) Unwrap() error { return e.Err }

// Detail is the backend's own error text.
func (e *BackendQueryError) Detail() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// Store is the document store contract.
type Store interface {
	// ReadCacheDocument returns ErrNotFound when no document has (id, pk).
	ReadCacheDocument(ctx context.Context, id, pk string) (*models.CacheDocument, error)
	// UpsertCacheDocument replaces the document with the same (id, pk).
	UpsertCacheDocument(ctx context.Context, doc *models.CacheDocument) error
	// UpsertRecipe replaces the recipe with the same id.
	UpsertRecipe(ctx context.Context, doc *models.RecipeDocument) error
	// SearchRecipes returns one page of matching recipes.
	SearchRecipes(ctx context.Context, q models.RecipeQuery) ([]*models.RecipeDocument, error)
	Ping(ctx context.Context) error
	Close() error
	Backend() string
}

// Collections names the two document collections.
type Collections struct {
	Cache   string
	Recipes string
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Validate rejects names that cannot be used as SQL table names.
func (c Collections) Validate() error {
	for _, name := range []string{c.Cache, c.Recipes} {
		if !identifierPattern.MatchString(name) {
			return fmt.Errorf("invalid collection name %q", name)
		}
	}
	if c.Cache == c.Recipes {
		return fmt.Errorf("cache and recipe collections must differ, both are %q", c.Cache)
	}
	return nil
}

type instrumented struct {
	Store
}

// Instrument wraps s so every call is timed in document_store_operation_duration_seconds.
func Instrument(s Store) Store {
	return &instrumented{Store: s}
}

func (i *instrumented) record(op string, start time.Time, err error) {
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	metrics.RecordDocumentOp(i.Backend(), op, time.Since(start), err)
}

func (i *instrumented) ReadCacheDocument(ctx context.Context, id, pk string) (*models.CacheDocument, error) {
	start := time.Now()
	doc, err := i.Store.ReadCacheDocument(ctx, id, pk)
	i.record("read_cache", start, err)
	return doc, err
}

func (i *instrumented) UpsertCacheDocument(ctx context.Context, doc *models.CacheDocument) error {
	start := time.Now()
	err := i.Store.UpsertCacheDocument(ctx, doc)
	i.record("upsert_cache", start, err)
	return err
}

func (i *instrumented) UpsertRecipe(ctx context.Context, doc *models.RecipeDocument) error {
	start := time.Now()
	err := i.Store.UpsertRecipe(ctx, doc)
	i.record("upsert_recipe", start, err)
	return err
}

func (i *instrumented) SearchRecipes(ctx context.Context, q models.RecipeQuery) ([]*models.RecipeDocument, error) {
	start := time.Now()
	docs, err := i.Store.SearchRecipes(ctx, q)
	i.record("search_recipes", start, err)
	return docs, err
}
