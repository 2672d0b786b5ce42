// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package models

import (
	"crypto/sha1" //nolint:gosec // content address, not a security boundary
	"encoding/hex"
	"strings"

	"github.com/tomtom215/dietscope/internal/analysis"
	"github.com/tomtom215/dietscope/internal/dataset"
)

// RecipeDocument is one cleaned row as stored in the recipe index.
//
// The macro and calorie fields hold a float64, or "" when the cleaned
// value was missing. A field is nil (and omitted from JSON) when the
// cleaned table had no such column.
type RecipeDocument struct {
	ID          string      `json:"id"`
	RecipeName  string      `json:"Recipe_name"`
	DietType    string      `json:"Diet_type"`
	CuisineType interface{} `json:"Cuisine_type,omitempty"`
	Calories    interface{} `json:"Calories,omitempty"`
	Protein     interface{} `json:"Protein(g),omitempty"`
	Carbs       interface{} `json:"Carbs(g),omitempty"`
	Fat         interface{} `json:"Fat(g),omitempty"`
}

// RecipeID is the lowercase hex SHA-1 of "name|diet" after trimming both.
// Re-running a refresh over the same data produces the same IDs.
func RecipeID(name, diet string) string {
	sum := sha1.Sum([]byte(strings.TrimSpace(name) + "|" + strings.TrimSpace(diet))) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// Cuisine returns the cuisine as text, or "".
func (d *RecipeDocument) Cuisine() string {
	if s, ok := d.CuisineType.(string); ok {
		return s
	}
	return ""
}

// RecipeProjection maps cleaned table rows to recipe documents.
type RecipeProjection struct {
	name, diet, cuisine, calories, protein, carbs, fat int
}

// NewRecipeProjection resolves the projected columns in t. It returns
// analysis.MissingColumnError when Recipe_name or Diet_type is absent.
func NewRecipeProjection(t *dataset.Table) (*RecipeProjection, error) {
	p := &RecipeProjection{
		name:     t.Index(analysis.ColRecipeName),
		diet:     t.Index(analysis.ColDietType),
		cuisine:  t.Index(analysis.ColCuisineType),
		calories: t.Index(analysis.ColCalories),
		protein:  t.Index(analysis.ColProtein),
		carbs:    t.Index(analysis.ColCarbs),
		fat:      t.Index(analysis.ColFat),
	}
	if p.name < 0 {
		return nil, &analysis.MissingColumnError{Column: analysis.ColRecipeName}
	}
	if p.diet < 0 {
		return nil, &analysis.MissingColumnError{Column: analysis.ColDietType}
	}
	return p, nil
}

// Document projects row. ok is false when the trimmed name or diet is empty.
func (p *RecipeProjection) Document(row []dataset.Value) (doc *RecipeDocument, ok bool) {
	name := strings.TrimSpace(row[p.name].String())
	diet := strings.TrimSpace(row[p.diet].String())
	if name == "" || diet == "" {
		return nil, false
	}
	return &RecipeDocument{
		ID:          RecipeID(name, diet),
		RecipeName:  row[p.name].String(),
		DietType:    row[p.diet].String(),
		CuisineType: field(row, p.cuisine),
		Calories:    field(row, p.calories),
		Protein:     field(row, p.protein),
		Carbs:       field(row, p.carbs),
		Fat:         field(row, p.fat),
	}, true
}

func field(row []dataset.Value, j int) interface{} {
	if j < 0 {
		return nil
	}
	if row[j].IsMissing() {
		return ""
	}
	return row[j].Interface()
}
