// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/dietscope/internal/analysis"
	"github.com/tomtom215/dietscope/internal/dataset"
	"github.com/tomtom215/dietscope/internal/validation"
)

func TestRecipeIDIsContentAddressed(t *testing.T) {
	t.Parallel()

	// sha1("Egg Bowl|keto")
	const want = "ffbabe27b52e0ad87debc19c9cde6e52ec2bddd7"
	got := RecipeID(" Egg Bowl ", "keto ")
	if got != want {
		t.Fatalf("RecipeID = %q, want %q", got, want)
	}
	if got != RecipeID("Egg Bowl", "keto") {
		t.Error("RecipeID must trim its inputs")
	}
	if got == RecipeID("Egg Bowl", "vegan") {
		t.Error("different diets must produce different IDs")
	}
}

func TestRecipeProjection(t *testing.T) {
	t.Parallel()

	tbl := dataset.New(analysis.ColDietType, analysis.ColRecipeName, analysis.ColCuisineType, analysis.ColProtein, "Extra")
	tbl.Append(dataset.Text("keto"), dataset.Text("Egg Bowl"), dataset.Missing(), dataset.Number(30), dataset.Text("x"))
	tbl.Append(dataset.Text("keto"), dataset.Text("  "), dataset.Text("thai"), dataset.Number(1))

	p, err := NewRecipeProjection(tbl)
	if err != nil {
		t.Fatal(err)
	}

	doc, ok := p.Document(tbl.Rows[0])
	if !ok {
		t.Fatal("first row should project")
	}
	if doc.ID != RecipeID("Egg Bowl", "keto") {
		t.Errorf("ID = %s", doc.ID)
	}
	if doc.CuisineType != "" || doc.Protein != 30.0 {
		t.Errorf("unexpected fields: %+v", doc)
	}
	if doc.Calories != nil || doc.Fat != nil {
		t.Errorf("absent columns should be nil: %+v", doc)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, `"Cuisine_type":""`) || strings.Contains(s, "Calories") || strings.Contains(s, "Extra") {
		t.Errorf("unexpected JSON: %s", s)
	}

	if _, ok := p.Document(tbl.Rows[1]); ok {
		t.Error("blank name should be skipped")
	}
}

func TestRecipeProjectionMissingColumns(t *testing.T) {
	t.Parallel()

	_, err := NewRecipeProjection(dataset.New(analysis.ColDietType))
	var mce *analysis.MissingColumnError
	if !errors.As(err, &mce) || mce.Column != analysis.ColRecipeName {
		t.Fatalf("expected missing Recipe_name, got %v", err)
	}
}

func TestNewRecipePage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		items    int
		pageSize int
		hasMore  bool
	}{
		{"full page", 10, 10, true},
		{"short page", 3, 10, false},
		{"empty page", 0, 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			items := make([]*RecipeDocument, tt.items)
			q := RecipeQuery{Page: 2, PageSize: tt.pageSize}
			p := NewRecipePage(q, items)
			if p.HasMore != tt.hasMore || p.Count != tt.items {
				t.Errorf("page = %+v", p)
			}
			if tt.hasMore && (p.NextPage == nil || *p.NextPage != 3) {
				t.Errorf("NextPage = %v, want 3", p.NextPage)
			}
			if !tt.hasMore && p.NextPage != nil {
				t.Errorf("NextPage = %v, want nil", *p.NextPage)
			}
		})
	}

	data, _ := json.Marshal(NewRecipePage(RecipeQuery{Page: 1, PageSize: 10}, nil))
	if !strings.Contains(string(data), `"items":[]`) || !strings.Contains(string(data), `"nextPage":null`) {
		t.Errorf("unexpected empty page JSON: %s", data)
	}
}

func TestRecipeQueryOffset(t *testing.T) {
	t.Parallel()

	if got := (RecipeQuery{Page: 3, PageSize: 20}).Offset(); got != 40 {
		t.Errorf("Offset = %d, want 40", got)
	}
}

func TestCacheDocumentJSON(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := NewCacheDocument("latest", "analysis", &analysis.Result{
		AvgMacros:  []analysis.MacroAverages{},
		TopProtein: []analysis.Record{},
		Metadata:   analysis.Metadata{RowCount: 2, DietTypes: 1},
	}, now)

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"id":"latest"`, `"pk":"analysis"`, `"generatedUtc":"2026-01-02T03:04:05Z"`, `"row_count":2`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected %s in %s", want, data)
		}
	}
}

func TestSourceChanged(t *testing.T) {
	t.Parallel()

	ev := NewSourceChanged("All_Diets.csv", TriggerHTTP)
	if ev.EventID == "" || ev.DetectedAt.IsZero() {
		t.Fatalf("event not initialized: %+v", ev)
	}
	if verr := validation.ValidateStruct(&ev); verr != nil {
		t.Errorf("valid event rejected: %v", verr)
	}

	other := NewSourceChanged("All_Diets.csv", TriggerHTTP)
	if ev.DedupKey() == other.DedupKey() {
		t.Error("events without ETag must not share a dedup key")
	}
	ev.ETag, other.ETag = `"abc"`, `"abc"`
	if ev.DedupKey() != other.DedupKey() {
		t.Error("events for the same ETag should share a dedup key")
	}

	bad := NewSourceChanged("../All_Diets.csv", "cron")
	verr := validation.ValidateStruct(&bad)
	if verr == nil || len(verr.Fields) != 2 {
		t.Errorf("expected blobname and trigger failures, got %v", verr)
	}
}
