// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package models

import (
	"time"

	"github.com/google/uuid"
)

// Refresh trigger origins.
const (
	TriggerEvent = "event"
	TriggerHTTP  = "http"
	TriggerPoll  = "poll"
	TriggerCLI   = "cli"
)

// SourceChanged announces that the raw dataset blob was replaced and the
// derived artifacts need rebuilding.
type SourceChanged struct {
	EventID    string    `json:"event_id" validate:"required"`
	SourceBlob string    `json:"source_blob" validate:"required,blobname,max=1024"`
	ETag       string    `json:"etag,omitempty"`
	Size       int64     `json:"size,omitempty" validate:"min=0"`
	Trigger    string    `json:"trigger" validate:"required,oneof=event http poll cli"`
	DetectedAt time.Time `json:"detected_at"`
}

// NewSourceChanged returns an event with a fresh ID for blob.
func NewSourceChanged(blob, trigger string) SourceChanged {
	return SourceChanged{
		EventID:    uuid.NewString(),
		SourceBlob: blob,
		Trigger:    trigger,
		DetectedAt: time.Now().UTC(),
	}
}

// DedupKey identifies notifications about the same blob revision. Events
// without an ETag fall back to their ID, so they are never merged.
func (e SourceChanged) DedupKey() string {
	if e.ETag == "" {
		return e.SourceBlob + "#" + e.EventID
	}
	return e.SourceBlob + "@" + e.ETag
}
