// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/goccy/go-json"

	"github.com/tomtom215/dietscope/internal/logging"
	"github.com/tomtom215/dietscope/internal/models"
)

// Recover converts a panic into a JSON 500. http.ErrAbortHandler is
// re-raised so the server can drop the connection.
func Recover(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel comparison on a recovered value
				panic(rec)
			}
			logging.Ctx(r.Context()).Error().
				Str("panic", fmt.Sprint(rec)).
				Bytes("stack", debug.Stack()).
				Str("path", r.URL.Path).
				Msg("Handler panic recovered")

			body, _ := json.Marshal(models.ErrorResponse{Error: fmt.Sprintf("internal error: %v", rec)})
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write(body)
		}()
		next(w, r)
	}
}
