// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/dietscope/internal/logging"
	"github.com/tomtom215/dietscope/internal/models"
)

// sqlOpen is swapped out by tests to inject a stub driver.
var sqlOpen = sql.Open

// SQLStore keeps each collection in its own table. Recipe name, diet and
// cuisine are copied out of the body into columns for ordering, along with
// their searchKey forms for filtering.
type SQLStore struct {
	db          *sql.DB
	d           dialect
	collections Collections
}

// NewSQLite opens (creating if needed) a SQLite database file. ":memory:"
// gives a private in-memory database.
func NewSQLite(ctx context.Context, path string, c Collections) (*SQLStore, error) {
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}
	return openSQL(ctx, sqliteDialect, path, c)
}

// NewPostgres connects to PostgreSQL with a pgx DSN.
func NewPostgres(ctx context.Context, dsn string, c Collections) (*SQLStore, error) {
	return openSQL(ctx, postgresDialect, dsn, c)
}

// NewDuckDB opens a DuckDB database file. An empty path or ":memory:" is
// an in-memory database.
func NewDuckDB(ctx context.Context, path string, c Collections) (*SQLStore, error) {
	if path == ":memory:" {
		path = ""
	}
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}
	return openSQL(ctx, duckdbDialect, path, c)
}

func ensureParentDir(path string) error {
	if path == "" || path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}
	return nil
}

func openSQL(ctx context.Context, d dialect, dsn string, c Collections) (*SQLStore, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	db, err := sqlOpen(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.backend, err)
	}
	if d.backend == BackendSQLite {
		// One connection keeps ":memory:" databases shared and serializes writers.
		db.SetMaxOpenConns(1)
	}
	s := &SQLStore{db: db, d: d, collections: c}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logging.Info().Str("backend", d.backend).Str("cache_table", c.Cache).Str("recipes_table", c.Recipes).
		Msg("Document store ready")
	return s, nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT NOT NULL,
	pk TEXT NOT NULL,
	generated_utc TEXT NOT NULL,
	payload %s NOT NULL,
	PRIMARY KEY (id, pk)
)`, s.collections.Cache, s.d.jsonType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	recipe_name TEXT NOT NULL,
	diet_type TEXT NOT NULL,
	cuisine_type TEXT NOT NULL,
	name_key TEXT NOT NULL,
	diet_key TEXT NOT NULL,
	cuisine_key TEXT NOT NULL,
	body %s NOT NULL
)`, s.collections.Recipes, s.d.jsonType),
	}
	if !s.d.noSecondaryIndex {
		stmts = append(stmts, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_name ON %s (recipe_name, id)`,
			s.collections.Recipes, s.collections.Recipes))
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s schema: %w", s.d.backend, err)
		}
	}
	return nil
}

// DB exposes the underlying handle.
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) Backend() string { return s.d.backend }

func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) ReadCacheDocument(ctx context.Context, id, pk string) (*models.CacheDocument, error) {
	p := &params{d: s.d}
	query := fmt.Sprintf(`SELECT payload, generated_utc FROM %s WHERE id = %s AND pk = %s`,
		s.collections.Cache, p.add(id), p.add(pk))

	var payload []byte
	var generated string
	err := s.db.QueryRowContext(ctx, query, p.args...).Scan(&payload, &generated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read cache document: %w", err)
	}

	doc := &models.CacheDocument{ID: id, PK: pk, GeneratedUTC: generated}
	if err := json.Unmarshal(payload, &doc.Payload); err != nil {
		return nil, fmt.Errorf("decode cache document: %w", err)
	}
	return doc, nil
}

func (s *SQLStore) UpsertCacheDocument(ctx context.Context, doc *models.CacheDocument) error {
	payload, err := json.Marshal(doc.Payload)
	if err != nil {
		return fmt.Errorf("encode cache document: %w", err)
	}
	p := &params{d: s.d}
	stmt := fmt.Sprintf(`INSERT INTO %s (id, pk, generated_utc, payload) VALUES (%s, %s, %s, %s)
ON CONFLICT (id, pk) DO UPDATE SET generated_utc = excluded.generated_utc, payload = excluded.payload`,
		s.collections.Cache,
		p.add(doc.ID), p.add(doc.PK), p.add(doc.GeneratedUTC),
		s.d.jsonParam(p.add(string(payload))))
	if _, err := s.db.ExecContext(ctx, stmt, p.args...); err != nil {
		return fmt.Errorf("upsert cache document: %w", err)
	}
	return nil
}

func (s *SQLStore) UpsertRecipe(ctx context.Context, doc *models.RecipeDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode recipe: %w", err)
	}
	p := &params{d: s.d}
	cuisine := doc.Cuisine()
	stmt := fmt.Sprintf(`INSERT INTO %s (id, recipe_name, diet_type, cuisine_type, name_key, diet_key, cuisine_key, body)
VALUES (%s, %s, %s, %s, %s, %s, %s, %s)
ON CONFLICT (id) DO UPDATE SET recipe_name = excluded.recipe_name, diet_type = excluded.diet_type,
	cuisine_type = excluded.cuisine_type, name_key = excluded.name_key, diet_key = excluded.diet_key,
	cuisine_key = excluded.cuisine_key, body = excluded.body`,
		s.collections.Recipes,
		p.add(doc.ID), p.add(doc.RecipeName), p.add(doc.DietType), p.add(cuisine),
		p.add(searchKey(doc.RecipeName)), p.add(searchKey(doc.DietType)), p.add(searchKey(cuisine)),
		s.d.jsonParam(p.add(string(body))))
	if _, err := s.db.ExecContext(ctx, stmt, p.args...); err != nil {
		return fmt.Errorf("upsert recipe %s: %w", doc.ID, err)
	}
	return nil
}

// searchSQL builds the page query for q.
func (s *SQLStore) searchSQL(q models.RecipeQuery) (string, []interface{}) {
	p := &params{d: s.d}
	var where []string
	if q.Diet != "" {
		where = append(where, "diet_key = "+p.add(searchKey(q.Diet)))
	}
	if q.Q != "" {
		needle := searchKey(q.Q)
		where = append(where, "("+s.d.contains("name_key", p.add(needle))+
			" OR "+s.d.contains("cuisine_key", p.add(needle))+")")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT body FROM %s", s.collections.Recipes)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	fmt.Fprintf(&b, " ORDER BY recipe_name%s, id%s", s.d.byteOrder, s.d.byteOrder)
	fmt.Fprintf(&b, " LIMIT %s OFFSET %s", p.add(q.PageSize), p.add(q.Offset()))
	return b.String(), p.args
}

func (s *SQLStore) SearchRecipes(ctx context.Context, q models.RecipeQuery) ([]*models.RecipeDocument, error) {
	query, args := s.searchSQL(q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.queryError(ctx, err)
	}
	defer func() { _ = rows.Close() }()

	docs := []*models.RecipeDocument{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, s.queryError(ctx, err)
		}
		var doc models.RecipeDocument
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, &BackendQueryError{Backend: s.d.backend, Err: err}
		}
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, s.queryError(ctx, err)
	}
	return docs, nil
}

// queryError keeps cancellation distinguishable from backend rejections.
func (s *SQLStore) queryError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &BackendQueryError{Backend: s.d.backend, Err: err}
}
