// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package docstore

import (
	"context"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/dietscope/internal/models"
)

// Memory keeps documents in process memory. Documents are stored as JSON
// so callers never share mutable state with the store.
type Memory struct {
	mu      sync.RWMutex
	cache   map[string][]byte
	recipes map[string][]byte
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		cache:   make(map[string][]byte),
		recipes: make(map[string][]byte),
	}
}

func (m *Memory) Backend() string            { return BackendMemory }
func (m *Memory) Ping(context.Context) error { return nil }
func (m *Memory) Close() error               { return nil }

func cacheKey(id, pk string) string { return pk + "\x00" + id }

func (m *Memory) ReadCacheDocument(_ context.Context, id, pk string) (*models.CacheDocument, error) {
	m.mu.RLock()
	raw, ok := m.cache[cacheKey(id, pk)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var doc models.CacheDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (m *Memory) UpsertCacheDocument(_ context.Context, doc *models.CacheDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.cache[cacheKey(doc.ID, doc.PK)] = raw
	m.mu.Unlock()
	return nil
}

func (m *Memory) UpsertRecipe(_ context.Context, doc *models.RecipeDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.recipes[doc.ID] = raw
	m.mu.Unlock()
	return nil
}

func (m *Memory) SearchRecipes(ctx context.Context, q models.RecipeQuery) ([]*models.RecipeDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*models.RecipeDocument
	for _, raw := range m.recipes {
		var doc models.RecipeDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, &BackendQueryError{Backend: BackendMemory, Err: err}
		}
		if matchRecipe(&doc, q) {
			matched = append(matched, &doc)
		}
	}
	sortRecipes(matched)
	return paginate(matched, q), nil
}
