// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/tomtom215/dietscope/internal/blob"
	"github.com/tomtom215/dietscope/internal/clients"
	"github.com/tomtom215/dietscope/internal/config"
	"github.com/tomtom215/dietscope/internal/docstore"
	"github.com/tomtom215/dietscope/internal/models"
)

func TestParseQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want models.RecipeQuery
	}{
		{"", models.RecipeQuery{Page: 1, PageSize: 10}},
		{"diet=%20Keto%20&q=%20EGG%20", models.RecipeQuery{Diet: "Keto", Q: "egg", Page: 1, PageSize: 10}},
		{"diet=ALL", models.RecipeQuery{Page: 1, PageSize: 10}},
		{"page=3&pageSize=25", models.RecipeQuery{Page: 3, PageSize: 25}},
		{"page=0&pageSize=0", models.RecipeQuery{Page: 1, PageSize: 10}},
		{"page=-4&pageSize=-4", models.RecipeQuery{Page: 1, PageSize: 1}},
		{"page=two&pageSize=lots", models.RecipeQuery{Page: 1, PageSize: 10}},
		{"pageSize=1000", models.RecipeQuery{Page: 1, PageSize: 50}},
		{"pageSize=1", models.RecipeQuery{Page: 1, PageSize: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			v, err := url.ParseQuery(tt.raw)
			if err != nil {
				t.Fatal(err)
			}
			if got := ParseQuery(v); got != tt.want {
				t.Errorf("ParseQuery(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func seeded(t *testing.T, n int) *clients.Registry {
	t.Helper()
	docs := docstore.NewMemory()
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("Recipe %02d", i)
		if err := docs.UpsertRecipe(context.Background(), &models.RecipeDocument{
			ID:         models.RecipeID(name, "keto"),
			RecipeName: name,
			DietType:   "keto",
		}); err != nil {
			t.Fatal(err)
		}
	}
	cfg := config.Default()
	return clients.NewWith(cfg, blob.NewMemory(), docs)
}

func TestSearchPaging(t *testing.T) {
	t.Parallel()

	svc := NewService(seeded(t, 20))
	tests := []struct {
		page, size int
		count      int
		hasMore    bool
	}{
		{1, 10, 10, true},
		{2, 10, 10, true}, // exact boundary still reports more
		{3, 10, 0, false},
		{2, 15, 5, false},
	}
	for _, tt := range tests {
		q := models.RecipeQuery{Page: tt.page, PageSize: tt.size}
		got, err := svc.Search(context.Background(), q)
		if err != nil {
			t.Fatal(err)
		}
		if got.Count != tt.count || got.HasMore != tt.hasMore {
			t.Errorf("page %d size %d: count=%d hasMore=%v", tt.page, tt.size, got.Count, got.HasMore)
		}
		if tt.hasMore && (got.NextPage == nil || *got.NextPage != tt.page+1) {
			t.Errorf("page %d: nextPage = %v", tt.page, got.NextPage)
		}
		if !tt.hasMore && got.NextPage != nil {
			t.Errorf("page %d: nextPage should be nil", tt.page)
		}
		if got.Items == nil {
			t.Error("items must be an empty list, not null")
		}
	}
}

type rejectingDocs struct {
	*docstore.Memory
	err error
}

func (r *rejectingDocs) SearchRecipes(context.Context, models.RecipeQuery) ([]*models.RecipeDocument, error) {
	return nil, r.err
}

func TestSearchErrors(t *testing.T) {
	t.Parallel()

	bqe := &docstore.BackendQueryError{Backend: "sqlite", Err: errors.New("no such column: foo")}
	reg := clients.NewWith(config.Default(), blob.NewMemory(), &rejectingDocs{Memory: docstore.NewMemory(), err: bqe})
	_, err := NewService(reg).Search(context.Background(), models.RecipeQuery{Page: 1, PageSize: 10})
	var got *docstore.BackendQueryError
	if !errors.As(err, &got) || got.Detail() != "no such column: foo" {
		t.Errorf("err = %v", err)
	}

	cfg := config.Default()
	cfg.Documents.Driver = "cosmos"
	_, err = NewService(clients.New(cfg)).Search(context.Background(), models.RecipeQuery{Page: 1, PageSize: 10})
	if !errors.Is(err, config.ErrConfiguration) {
		t.Errorf("unconfigured index err = %v", err)
	}
}
