// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package docstore

import (
	"context"
	"net/url"

	"github.com/tomtom215/dietscope/internal/config"
)

// Open connects the configured backend and wraps it with metrics.
func Open(ctx context.Context, cfg config.DocumentsConfig) (Store, error) {
	c := Collections{Cache: cfg.CacheContainer, Recipes: cfg.RecipesContainer}
	if err := c.Validate(); err != nil {
		return nil, config.Errorf("COSMOS_CONTAINER", "%v", err)
	}

	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case config.DocumentsMemory:
		s = NewMemory()
	case config.DocumentsSQLite:
		if cfg.URL == "" {
			return nil, config.Errorf("COSMOS_URL", "is required for sqlite")
		}
		s, err = NewSQLite(ctx, cfg.URL, c)
	case config.DocumentsDuckDB:
		if cfg.URL == "" {
			return nil, config.Errorf("COSMOS_URL", "is required for duckdb")
		}
		s, err = NewDuckDB(ctx, cfg.URL, c)
	case config.DocumentsPostgres:
		if cfg.URL == "" {
			return nil, config.Errorf("COSMOS_URL", "is required for postgres")
		}
		s, err = NewPostgres(ctx, postgresDSN(cfg.URL, cfg.Key), c)
	case config.DocumentsBadger:
		if cfg.URL == "" {
			return nil, config.Errorf("COSMOS_URL", "is required for badger")
		}
		s, err = NewBadger(cfg.URL, cfg.Database, c)
	default:
		return nil, config.Errorf("COSMOS_DRIVER", "unknown document store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(s), nil
}

// postgresDSN injects key as the password of a URL-form DSN that has none.
func postgresDSN(dsn, key string) string {
	if key == "" {
		return dsn
	}
	u, err := url.Parse(dsn)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") || u.User == nil {
		return dsn
	}
	if _, has := u.User.Password(); has {
		return dsn
	}
	u.User = url.UserPassword(u.User.Username(), key)
	return u.String()
}
