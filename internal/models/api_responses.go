// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package models

import "time"

// ErrorResponse is the body of every non-2xx API response.
//
// Backend carries the document store's rejection detail for 400s from the
// search endpoint and is omitted otherwise.
//
// Example:
//
//	{"error": "recipe index query failed", "backend": "no such column: foo"}
type ErrorResponse struct {
	Error   string `json:"error"`
	Backend string `json:"backend,omitempty"`
}

// RefreshRequest is the optional body of POST /api/v1/refresh.
type RefreshRequest struct {
	SourceBlob string `json:"source_blob,omitempty" validate:"omitempty,blobname,max=1024"`
}

// RefreshAccepted is returned with 202 once a refresh is queued.
type RefreshAccepted struct {
	Status     string `json:"status"`
	EventID    string `json:"event_id"`
	SourceBlob string `json:"source_blob"`
}

// HealthStatus is the body of the health endpoints.
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}
