// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package search

import (
	"context"
	"errors"

	"github.com/tomtom215/dietscope/internal/clients"
	"github.com/tomtom215/dietscope/internal/docstore"
	"github.com/tomtom215/dietscope/internal/logging"
	"github.com/tomtom215/dietscope/internal/metrics"
	"github.com/tomtom215/dietscope/internal/models"
)

// Service runs recipe searches.
type Service struct {
	clients *clients.Registry
}

// NewService returns a Service over the registry's document store.
func NewService(reg *clients.Registry) *Service {
	return &Service{clients: reg}
}

// Search returns one page for q. Backend rejections are returned as
// *docstore.BackendQueryError.
func (s *Service) Search(ctx context.Context, q models.RecipeQuery) (*models.RecipePage, error) {
	log := logging.Ctx(ctx)

	docs, err := s.clients.Documents(ctx)
	if err != nil {
		metrics.RecordSearch("error")
		return nil, err
	}

	log.Debug().Str("diet", q.Diet).Str("q", q.Q).Int("page", q.Page).Int("page_size", q.PageSize).
		Int("offset", q.Offset()).Msg("Recipe search")

	items, err := docs.SearchRecipes(ctx, q)
	if err != nil {
		var bqe *docstore.BackendQueryError
		if errors.As(err, &bqe) {
			metrics.RecordSearch("rejected")
		} else {
			metrics.RecordSearch("error")
		}
		log.Error().Err(err).Msg("Recipe search failed")
		return nil, err
	}

	metrics.RecordSearch("ok")
	return models.NewRecipePage(q, items), nil
}
