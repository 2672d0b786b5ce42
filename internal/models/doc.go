// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

/*
Package models defines the documents and API shapes shared across DietScope.

Key Components:

  - CacheDocument: the envelope stored in the analysis cache collection
    ({id, pk, generatedUtc, payload}); the payload is an analysis.Result
  - RecipeDocument: the per-recipe projection stored in the recipe index,
    keyed by a content-addressed ID
  - RecipeQuery / RecipePage: parsed search parameters and the paginated
    search response
  - SourceChanged: the event that starts a refresh, whatever delivered it
    (message bus, HTTP, or the blob poller)
  - ErrorResponse / RefreshRequest / RefreshAccepted: HTTP bodies

Field names in JSON tags follow the documents the service has always
written (Recipe_name, Protein(g), generatedUtc and so on), so existing
stores and clients keep working.

Thread Safety:

All types are plain values with no internal synchronization. Share them
read-only or copy them.
*/
package models
