// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package models

// Page size bounds for recipe search.
const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// RecipeQuery is a normalized recipe search.
//
// Diet is empty for no filter and otherwise matched case-insensitively and
// exactly. Q is lowercase and matched as a substring of the recipe name or
// cuisine. Page is at least 1 and PageSize is within 1..MaxPageSize.
type RecipeQuery struct {
	Diet     string
	Q        string
	Page     int
	PageSize int
}

// Offset is the number of matching documents skipped before this page.
func (q RecipeQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// RecipePage is the search response body.
//
// HasMore is true when the page came back full. The last page of a result
// set whose size is a multiple of PageSize therefore still reports HasMore,
// and the following page is empty.
type RecipePage struct {
	Items    []*RecipeDocument `json:"items"`
	Count    int               `json:"count"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
	HasMore  bool              `json:"hasMore"`
	NextPage *int              `json:"nextPage"`
}

// NewRecipePage builds the response for items returned by q.
func NewRecipePage(q RecipeQuery, items []*RecipeDocument) *RecipePage {
	if items == nil {
		items = []*RecipeDocument{}
	}
	p := &RecipePage{
		Items:    items,
		Count:    len(items),
		Page:     q.Page,
		PageSize: q.PageSize,
		HasMore:  len(items) == q.PageSize,
	}
	if p.HasMore {
		next := q.Page + 1
		p.NextPage = &next
	}
	return p
}
