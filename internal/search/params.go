// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

// Package search answers paginated recipe lookups against the recipe index.
package search

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/tomtom215/dietscope/internal/models"
)

// AllDiets disables the diet filter.
const AllDiets = "all"

// ParseQuery normalizes search parameters. Malformed values never fail:
// they fall back to defaults or are clamped into range.
//
//	diet      trimmed; "" or "all" (any case) means no filter
//	q         trimmed and lowercased
//	page      integer >= 1, default 1
//	pageSize  1..50; absent, zero or non-numeric gives 10
func ParseQuery(v url.Values) models.RecipeQuery {
	diet := strings.TrimSpace(v.Get("diet"))
	if strings.EqualFold(diet, AllDiets) {
		diet = ""
	}
	return models.RecipeQuery{
		Diet:     diet,
		Q:        strings.ToLower(strings.TrimSpace(v.Get("q"))),
		Page:     parsePage(v.Get("page")),
		PageSize: parsePageSize(v.Get("pageSize")),
	}
}

func parsePage(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func parsePageSize(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	switch {
	case err != nil, n == 0:
		return models.DefaultPageSize
	case n < 1:
		return 1
	case n > models.MaxPageSize:
		return models.MaxPageSize
	}
	return n
}
