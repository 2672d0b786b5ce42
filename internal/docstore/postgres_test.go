// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package docstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/tomtom215/dietscope/internal/models"
)

// recordingDriver captures every statement and answers queries with canned rows.
type recordingDriver struct {
	mu       sync.Mutex
	execs    []string
	queries  []string
	args     [][]driver.Value
	rows     [][]driver.Value
	queryErr error
}

var driverSeq atomic.Int64

func registerRecordingDriver() (*recordingDriver, string) {
	d := &recordingDriver{}
	name := fmt.Sprintf("docstore-recording-%d", driverSeq.Add(1))
	sql.Register(name, d)
	return d, name
}

func (d *recordingDriver) Open(string) (driver.Conn, error) { return &recordingConn{d: d}, nil }

type recordingConn struct{ d *recordingDriver }

func (c *recordingConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}
func (c *recordingConn) Close() error              { return nil }
func (c *recordingConn) Begin() (driver.Tx, error) { return nil, errors.New("transactions not supported") }

func values(named []driver.NamedValue) []driver.Value {
	out := make([]driver.Value, len(named))
	for i, nv := range named {
		out[i] = nv.Value
	}
	return out
}

func (c *recordingConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	c.d.execs = append(c.d.execs, query)
	c.d.args = append(c.d.args, values(args))
	return driver.RowsAffected(1), nil
}

func (c *recordingConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	c.d.queries = append(c.d.queries, query)
	c.d.args = append(c.d.args, values(args))
	if c.d.queryErr != nil {
		return nil, c.d.queryErr
	}
	return &recordingRows{rows: c.d.rows}, nil
}

type recordingRows struct {
	rows [][]driver.Value
	i    int
}

func (r *recordingRows) Columns() []string { return []string{"body"} }
func (r *recordingRows) Close() error      { return nil }
func (r *recordingRows) Next(dest []driver.Value) error {
	if r.i >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.i])
	r.i++
	return nil
}

// overrideSQLOpen routes sqlOpen to the named driver until the test ends.
// Callers must not run in parallel.
func overrideSQLOpen(t *testing.T, name string) {
	t.Helper()
	prev := sqlOpen
	sqlOpen = func(_, _ string) (*sql.DB, error) { return sql.Open(name, "") }
	t.Cleanup(func() { sqlOpen = prev })
}

func TestPostgresDialect(t *testing.T) {
	rec, name := registerRecordingDriver()
	overrideSQLOpen(t, name)
	ctx := context.Background()

	s, err := NewPostgres(ctx, "postgres://diet@db/dietdb", testCollections)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	defer func() { _ = s.Close() }()
	if s.Backend() != BackendPostgres {
		t.Errorf("backend = %s", s.Backend())
	}

	if len(rec.execs) != 3 || !strings.Contains(rec.execs[0], "payload JSONB") ||
		!strings.Contains(rec.execs[2], "CREATE INDEX IF NOT EXISTS idx_recipes_name") {
		t.Fatalf("unexpected schema statements: %q", rec.execs)
	}

	if err := s.UpsertRecipe(ctx, recipe("Egg Bowl", "keto", "american", 30.0)); err != nil {
		t.Fatal(err)
	}
	upsert := rec.execs[len(rec.execs)-1]
	if !strings.Contains(upsert, "VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)") ||
		!strings.Contains(upsert, "ON CONFLICT (id) DO UPDATE") {
		t.Errorf("unexpected upsert: %s", upsert)
	}

	rec.rows = [][]driver.Value{{[]byte(`{"id":"x","Recipe_name":"Egg Bowl","Diet_type":"keto","Cuisine_type":"american"}`)}}
	docs, err := s.SearchRecipes(ctx, models.RecipeQuery{Diet: "Keto", Q: "EGG", Page: 2, PageSize: 10})
	if err != nil {
		t.Fatalf("SearchRecipes: %v", err)
	}
	if len(docs) != 1 || docs[0].RecipeName != "Egg Bowl" {
		t.Fatalf("unexpected docs: %+v", docs)
	}

	query := rec.queries[len(rec.queries)-1]
	for _, want := range []string{
		"diet_key = $1",
		"strpos(name_key, $2) > 0",
		"strpos(cuisine_key, $3) > 0",
		`ORDER BY recipe_name COLLATE "C", id COLLATE "C"`,
		"LIMIT $4 OFFSET $5",
	} {
		if !strings.Contains(query, want) {
			t.Errorf("query %q missing %q", query, want)
		}
	}
	wantArgs := []driver.Value{"keto", "egg", "egg", int64(10), int64(10)}
	if got := rec.args[len(rec.args)-1]; !reflect.DeepEqual(got, wantArgs) {
		t.Errorf("args = %#v, want %#v", got, wantArgs)
	}

	rec.queryErr = errors.New(`syntax error at or near "LIMIT"`)
	_, err = s.SearchRecipes(ctx, models.RecipeQuery{Page: 1, PageSize: 10})
	var bqe *BackendQueryError
	if !errors.As(err, &bqe) {
		t.Fatalf("expected BackendQueryError, got %v", err)
	}
	if bqe.Backend != BackendPostgres || !strings.Contains(bqe.Detail(), "syntax error") {
		t.Errorf("unexpected error: %+v", bqe)
	}
}

func TestSQLiteSearchWithoutFilters(t *testing.T) {
	t.Parallel()

	s, err := NewSQLite(context.Background(), ":memory:", testCollections)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()

	query, args := s.searchSQL(models.RecipeQuery{Page: 1, PageSize: 5})
	if query != "SELECT body FROM recipes ORDER BY recipe_name, id LIMIT ? OFFSET ?" {
		t.Errorf("query = %q", query)
	}
	if !reflect.DeepEqual(args, []interface{}{5, 0}) {
		t.Errorf("args = %#v", args)
	}
}
