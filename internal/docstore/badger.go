// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/dietscope/internal/logging"
	"github.com/tomtom215/dietscope/internal/models"
)

// BadgerStore is an embedded key-value document store. Keys are
// "<database>/<collection>/..." so one Badger directory can hold several
// databases.
type BadgerStore struct {
	db          *badger.DB
	database    string
	collections Collections
}

// NewBadger opens a Badger directory. An empty path or ":memory:" runs
// fully in memory.
func NewBadger(path, database string, c Collections) (*BadgerStore, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if database == "" {
		return nil, errors.New("badger: database name is required")
	}

	var opts badger.Options
	if path == "" || path == ":memory:" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	logging.Info().Str("path", path).Str("database", database).Msg("Badger document store opened")
	return &BadgerStore{db: db, database: database, collections: c}, nil
}

func (s *BadgerStore) Backend() string { return BackendBadger }

func (s *BadgerStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database is closed")
	}
	return nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }

func (s *BadgerStore) cacheKey(id, pk string) []byte {
	return []byte(s.database + "/" + s.collections.Cache + "/" + pk + "/" + id)
}

func (s *BadgerStore) recipePrefix() []byte {
	return []byte(s.database + "/" + s.collections.Recipes + "/")
}

func (s *BadgerStore) ReadCacheDocument(_ context.Context, id, pk string) (*models.CacheDocument, error) {
	var doc models.CacheDocument
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.cacheKey(id, pk))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read cache document: %w", err)
	}
	return &doc, nil
}

func (s *BadgerStore) UpsertCacheDocument(_ context.Context, doc *models.CacheDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode cache document: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.cacheKey(doc.ID, doc.PK), data)
	})
}

func (s *BadgerStore) UpsertRecipe(_ context.Context, doc *models.RecipeDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode recipe: %w", err)
	}
	key := append(s.recipePrefix(), doc.ID...)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

func (s *BadgerStore) SearchRecipes(ctx context.Context, q models.RecipeQuery) ([]*models.RecipeDocument, error) {
	var matched []*models.RecipeDocument
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := s.recipePrefix()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var doc models.RecipeDocument
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			}); err != nil {
				return &BackendQueryError{Backend: BackendBadger, Err: err}
			}
			if matchRecipe(&doc, q) {
				matched = append(matched, &doc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortRecipes(matched)
	return paginate(matched, q), nil
}
