// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package cache

import (
	"sync"
	"time"
)

const (
	defaultCapacity = 4096
	defaultTTL      = time.Minute
)

type node struct {
	key        string
	expires    time.Time
	prev, next *node
}

// LRU is a set of string keys ordered by recency. The zero value is not
// usable; call NewLRU.
type LRU struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*node

	// root is a sentinel: root.next is the newest entry, root.prev the oldest.
	root node

	now func() time.Time
}

// NewLRU returns an empty set. Non-positive capacity or ttl fall back to
// 4096 entries and one minute.
func NewLRU(capacity int, ttl time.Duration) *LRU {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	c := &LRU{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*node),
		now:      time.Now,
	}
	c.root.next = &c.root
	c.root.prev = &c.root
	return c
}

// TTL returns the configured entry lifetime.
func (c *LRU) TTL() time.Duration { return c.ttl }

// Seen reports whether key is present and unexpired. Either way key is
// recorded as seen now, with a fresh TTL.
func (c *LRU) Seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if n, ok := c.items[key]; ok {
		live := now.Before(n.expires)
		n.expires = now.Add(c.ttl)
		c.moveToFront(n)
		return live
	}

	n := &node{key: key, expires: now.Add(c.ttl)}
	c.pushFront(n)
	c.items[key] = n
	for len(c.items) > c.capacity {
		c.remove(c.root.prev)
	}
	return false
}

// Forget drops key so the next Seen treats it as new. It reports whether
// the key was present.
func (c *LRU) Forget(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.items[key]
	if ok {
		c.remove(n)
	}
	return ok
}

// Len counts entries, including expired ones not yet seen again.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// list helpers, lock held

func (c *LRU) pushFront(n *node) {
	n.prev = &c.root
	n.next = c.root.next
	c.root.next.prev = n
	c.root.next = n
}

func (c *LRU) unlink(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next = nil, nil
}

func (c *LRU) moveToFront(n *node) {
	if c.root.next == n {
		return
	}
	c.unlink(n)
	c.pushFront(n)
}

func (c *LRU) remove(n *node) {
	if n == &c.root {
		return
	}
	c.unlink(n)
	delete(c.items, n.key)
}
