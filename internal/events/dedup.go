// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package events

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/dietscope/internal/cache"
	"github.com/tomtom215/dietscope/internal/metrics"
)

// Deduplicator suppresses repeat notifications for the same blob revision
// within a TTL. It satisfies watermill's middleware.ExpiringKeyRepository.
type Deduplicator struct {
	seen *cache.LRU
}

// NewDeduplicator remembers up to 4096 keys for ttl.
func NewDeduplicator(ttl time.Duration) *Deduplicator {
	return &Deduplicator{seen: cache.NewLRU(4096, ttl)}
}

// IsDuplicate records key and reports whether it was seen within the TTL.
func (d *Deduplicator) IsDuplicate(_ context.Context, key string) (bool, error) {
	dup := d.seen.Seen(key)
	if dup {
		metrics.EventsDeduplicated.Inc()
	}
	return dup, nil
}

// Forget drops key so the next notification for it is handled.
func (d *Deduplicator) Forget(key string) {
	d.seen.Forget(key)
}

// dedupKey keys a message by blob revision. Undecodable payloads fall
// back to the message UUID and are rejected later by the handler.
func dedupKey(msg *message.Message) (string, error) {
	ev, err := Decode(msg.Payload)
	if err != nil {
		return "uuid:" + msg.UUID, nil
	}
	return ev.DedupKey(), nil
}
