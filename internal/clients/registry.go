// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

// Package clients owns the process-wide storage handles. Each handle is
// built on first use and shared afterwards; a construction error is kept
// and returned to every caller, so a misconfigured backend fails the same
// way on every request instead of retrying.
package clients

import (
	"context"
	"errors"
	"sync"

	"github.com/tomtom215/dietscope/internal/blob"
	"github.com/tomtom215/dietscope/internal/config"
	"github.com/tomtom215/dietscope/internal/docstore"
	"github.com/tomtom215/dietscope/internal/logging"
)

// Registry lazily constructs the blob and document stores.
type Registry struct {
	cfg *config.Config

	blobOnce sync.Once
	blob     blob.Store
	blobErr  error

	docsOnce sync.Once
	docs     docstore.Store
	docsErr  error

	// openBlob and openDocs are replaced in tests.
	openBlob func(context.Context, config.StorageConfig) (blob.Store, error)
	openDocs func(context.Context, config.DocumentsConfig) (docstore.Store, error)
}

// New returns a Registry that has not connected to anything yet.
func New(cfg *config.Config) *Registry {
	return &Registry{cfg: cfg, openBlob: blob.Open, openDocs: docstore.Open}
}

// NewWith returns a Registry whose handles are already built.
func NewWith(cfg *config.Config, b blob.Store, d docstore.Store) *Registry {
	r := New(cfg)
	r.blobOnce.Do(func() { r.blob = b })
	r.docsOnce.Do(func() { r.docs = d })
	return r
}

// Config returns the configuration the registry was built from.
func (r *Registry) Config() *config.Config { return r.cfg }

// Blob returns the shared blob store. ctx only bounds the first call.
func (r *Registry) Blob(ctx context.Context) (blob.Store, error) {
	r.blobOnce.Do(func() {
		r.blob, r.blobErr = r.openBlob(ctx, r.cfg.Storage)
		if r.blobErr != nil {
			logging.Error().Err(r.blobErr).Str("driver", r.cfg.Storage.Driver).Msg("Blob store initialization failed")
			return
		}
		logging.Info().Str("driver", string(r.blob.Driver())).Str("container", r.cfg.Storage.Container).Msg("Blob store initialized")
	})
	return r.blob, r.blobErr
}

// Documents returns the shared document store.
func (r *Registry) Documents(ctx context.Context) (docstore.Store, error) {
	r.docsOnce.Do(func() {
		r.docs, r.docsErr = r.openDocs(ctx, r.cfg.Documents)
		if r.docsErr != nil {
			logging.Error().Err(r.docsErr).Str("driver", r.cfg.Documents.Driver).Msg("Document store initialization failed")
			return
		}
		logging.Info().Str("backend", r.docs.Backend()).Str("database", r.cfg.Documents.Database).Msg("Document store initialized")
	})
	return r.docs, r.docsErr
}

// Close releases the document store if it was opened. Blob stores hold
// no resources.
func (r *Registry) Close() error {
	var errs []error
	// Mark the handle as consumed so a later call cannot open a new one.
	r.docsOnce.Do(func() { r.docsErr = errors.New("registry closed") })
	if r.docs != nil {
		if err := r.docs.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
