// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/dietscope/internal/docstore"
	"github.com/tomtom215/dietscope/internal/logging"
	"github.com/tomtom215/dietscope/internal/models"
	"github.com/tomtom215/dietscope/internal/validation"
)

// ErrRecipeQuery is the public message for a search the index rejected.
var ErrRecipeQuery = errors.New("recipe index query failed")

// statusFor maps an error to its HTTP status and body. This is the only
// place where domain errors become status codes.
func statusFor(err error) (int, models.ErrorResponse) {
	var (
		bqe  *docstore.BackendQueryError
		verr *validation.RequestValidationError
	)
	switch {
	case errors.As(err, &bqe):
		return http.StatusBadRequest, models.ErrorResponse{Error: ErrRecipeQuery.Error(), Backend: bqe.Detail()}
	case errors.As(err, &verr):
		return http.StatusBadRequest, models.ErrorResponse{Error: verr.Error()}
	case errors.Is(err, errBadBody):
		return http.StatusBadRequest, models.ErrorResponse{Error: err.Error()}
	default:
		// Configuration errors, unreadable sources and missing columns all
		// surface as 500 with their text.
		return http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()}
	}
}

// respondError logs err and writes the mapped response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	ev := logging.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		ev = logging.Ctx(r.Context()).Error()
	}
	ev.Err(err).Int("status", status).Str("path", r.URL.Path).Msg("Request failed")
	respondJSON(w, r, status, body)
}
