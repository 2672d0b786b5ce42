// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package analysis

// Column names of the recipe dataset after normalization.
const (
	ColDietType    = "Diet_type"
	ColRecipeName  = "Recipe_name"
	ColCuisineType = "Cuisine_type"
	ColCalories    = "Calories"
	ColProtein     = "Protein(g)"
	ColCarbs       = "Carbs(g)"
	ColFat         = "Fat(g)"

	ColProteinToCarbs = "Protein_to_Carbs_ratio"
	ColCarbsToFat     = "Carbs_to_Fat_ratio"
)

// Defaults for blank identity fields.
const (
	UnknownDiet   = "Unknown"
	UnnamedRecipe = "Unnamed Recipe"
)

// TopN is how many protein leaders are kept per diet type.
const TopN = 5

// MacroColumns are the numeric columns the cleaner coerces.
var MacroColumns = []string{ColProtein, ColCarbs, ColFat}

// RequiredColumns must be present for a complete cleaning pass.
var RequiredColumns = []string{ColDietType, ColRecipeName, ColProtein, ColCarbs, ColFat}
