// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package main

// General API information for swag. Regenerate internal/api/docs with:
//
//	swag init -g cmd/server/docs.go -o internal/api/docs --parseInternal
//
// @title DietScope API
// @version 1.0
// @description Macronutrient analysis of the All_Diets recipe dataset.
// @description
// @description ## Caching
// @description
// @description The analysis endpoint answers from the cache document, then the
// @description cache blob, then computes from the cleaned CSV. The
// @description `metadata.cache_source` field names the tier that answered.
// @description
// @description ## Errors
// @description
// @description Every error body is `{"error": "..."}`. Recipe searches the
// @description document store rejects also carry `backend` with its message.
// @description
// @description ## Rate Limiting
// @description
// @description 100 requests per minute per client IP by default.
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/dietscope
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @BasePath /api
