// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package simulation

import (
	"context"
	"fmt"

	"github.com/crisislab/infodemic/internal/models"
	"github.com/crisislab/infodemic/internal/virality"
)

// Forecast is a read-only cascade projection for a crisis's most viral
// content item. It never mutates stored state.
type Forecast struct {
	ContentID string                  `json:"content_id"`
	Body      string                  `json:"body"`
	Spread    virality.Spread         `json:"spread"`
	Timeline  []virality.CascadePoint `json:"timeline"`
}

// Forecast projects the spread of the highest-viral-coefficient item in the
// crisis over the given horizon in minutes.
func (e *Engine) Forecast(ctx context.Context, crisisID string, horizonMinutes int) (*Forecast, error) {
	if horizonMinutes <= 0 {
		return nil, fmt.Errorf("%w: forecast horizon must be positive", models.ErrValidation)
	}

	items, err := e.store.ListContentByCrisis(ctx, crisisID)
	if err != nil {
		return nil, err
	}

	var hottest *models.ContentItem
	for i := range items {
		if items[i].InterventionResponse {
			continue
		}
		if hottest == nil || items[i].ViralCoefficient > hottest.ViralCoefficient {
			hottest = &items[i]
		}
	}
	if hottest == nil {
		return nil, fmt.Errorf("crisis %s has no forecastable content: %w", crisisID, models.ErrNotFound)
	}

	author := &models.SyntheticUser{InfluenceScore: 1}
	if hottest.AuthorID != "" {
		if u, err := e.store.GetUser(ctx, hottest.AuthorID); err == nil {
			author = u
		}
	}

	spread := virality.Estimate(hottest, author)
	return &Forecast{
		ContentID: hottest.ID,
		Body:      hottest.Body,
		Spread:    spread,
		Timeline:  virality.Cascade(spread, horizonMinutes),
	}, nil
}
