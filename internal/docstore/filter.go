// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package docstore

import (
	"sort"
	"strings"

	"github.com/tomtom215/dietscope/internal/models"
)

// The key-value backends filter, sort and page in process with these.

// searchKey is the case-folded form diet, name and cuisine are compared in.
// The SQL backends store it in *_key columns instead of calling LOWER(),
// which folds only ASCII in SQLite.
func searchKey(s string) string {
	return strings.ToLower(s)
}

func matchRecipe(doc *models.RecipeDocument, q models.RecipeQuery) bool {
	if q.Diet != "" && searchKey(doc.DietType) != searchKey(q.Diet) {
		return false
	}
	if q.Q != "" {
		needle := searchKey(q.Q)
		if !strings.Contains(searchKey(doc.RecipeName), needle) &&
			!strings.Contains(searchKey(doc.Cuisine()), needle) {
			return false
		}
	}
	return true
}

func sortRecipes(docs []*models.RecipeDocument) {
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].RecipeName != docs[j].RecipeName {
			return docs[i].RecipeName < docs[j].RecipeName
		}
		return docs[i].ID < docs[j].ID
	})
}

func paginate(docs []*models.RecipeDocument, q models.RecipeQuery) []*models.RecipeDocument {
	off := q.Offset()
	if off < 0 || off >= len(docs) || q.PageSize <= 0 {
		return []*models.RecipeDocument{}
	}
	end := off + q.PageSize
	if end > len(docs) {
		end = len(docs)
	}
	return docs[off:end]
}
