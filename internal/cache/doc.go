// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

/*
Package cache provides a bounded, thread-safe LRU set with per-entry TTL.

It backs duplicate suppression for source-change notifications: the same
upload can be reported by the blob event, the HTTP trigger and the poller
within seconds of each other, and only the first should start a refresh.

# Semantics

  - Capacity bounds memory; the least recently seen key is evicted first.
  - Entries expire TTL after they were last recorded. Expiry is lazy;
    an expired entry is replaced the next time its key is seen.
  - Forget drops a key early, so a notification whose refresh failed does
    not suppress the retry.
  - Seen records a key and reports whether it was already live, in one
    locked step, so concurrent callers cannot both observe "new".

# Example

	seen := cache.NewLRU(4096, time.Minute)
	if seen.Seen("All_Diets.csv@\"9b2cf535\"") {
	    return // already handled
	}
*/
package cache
