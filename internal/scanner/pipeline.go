// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

// Package scanner finds content needing threat evaluation, scores it, and
// persists and announces the results. A single-concurrency worker triggers
// runs on a cadence or on demand, with escalating backoff on failure.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/crisislab/infodemic/internal/events"
	"github.com/crisislab/infodemic/internal/metrics"
	"github.com/crisislab/infodemic/internal/models"
	"github.com/crisislab/infodemic/internal/scoring"
	"github.com/crisislab/infodemic/internal/store"
)

// PipelineConfig bounds candidate selection.
type PipelineConfig struct {
	// EngagementFloor is the minimum total interactions for a candidate.
	EngagementFloor int64

	// Staleness re-admits items whose last evaluation is older than this.
	Staleness time.Duration
}

// DefaultPipelineConfig returns the standard selection bounds.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		EngagementFloor: 10,
		Staleness:       60 * time.Second,
	}
}

// RunStats summarizes one pipeline run.
type RunStats struct {
	Candidates int `json:"candidates"`
	Scored     int `json:"scored"`
	Flagged    int `json:"flagged"`
	NewThreats int `json:"new_threats"`
	ItemErrors int `json:"item_errors"`
}

// Pipeline runs the scan: select candidates, score each sequentially,
// persist threat records, maintain counters, and publish alerts.
type Pipeline struct {
	store  store.Store
	bus    *events.Bus
	cfg    PipelineConfig
	logger zerolog.Logger
	now    func() time.Time
}

// NewPipeline creates a scan pipeline.
func NewPipeline(st store.Store, bus *events.Bus, cfg PipelineConfig, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		store:  st,
		bus:    bus,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Run executes one scan. A failure on a single item is logged and skipped;
// only candidate selection failing aborts the run.
func (p *Pipeline) Run(ctx context.Context) (RunStats, error) {
	started := p.now()
	stats, err := p.run(ctx)
	metrics.RecordScanRun(p.now().Sub(started), err)
	if err != nil {
		return stats, err
	}

	p.logger.Debug().
		Int("candidates", stats.Candidates).
		Int("flagged", stats.Flagged).
		Int("new_threats", stats.NewThreats).
		Int("item_errors", stats.ItemErrors).
		Msg("scan run complete")
	return stats, nil
}

func (p *Pipeline) run(ctx context.Context) (RunStats, error) {
	var stats RunStats
	now := p.now()

	candidates, err := p.store.ListScanCandidates(ctx, store.ScanFilter{
		MinInteractions: p.cfg.EngagementFloor,
		StaleBefore:     now.Add(-p.cfg.Staleness),
	})
	if err != nil {
		return stats, fmt.Errorf("list scan candidates: %w", err)
	}
	stats.Candidates = len(candidates)

	for i := range candidates {
		item := &candidates[i]
		flagged, created, err := p.processItem(ctx, item, now)
		if err != nil {
			stats.ItemErrors++
			metrics.ScanItemErrors.Inc()
			p.logger.Error().Err(err).Str("content_id", item.ID).Msg("scan item failed")
			continue
		}
		stats.Scored++
		if flagged {
			stats.Flagged++
		}
		if created {
			stats.NewThreats++
		}
	}
	return stats, nil
}

// processItem scores one item and persists the outcome. The item's threat
// level and evaluation time are updated even when no threat is found, so an
// immediate rescan selects nothing new.
func (p *Pipeline) processItem(ctx context.Context, item *models.ContentItem, now time.Time) (flagged, created bool, err error) {
	var author *models.SyntheticUser
	if item.AuthorID != "" {
		author, err = p.store.GetUser(ctx, item.AuthorID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return false, false, fmt.Errorf("load author: %w", err)
		}
	}

	result := scoring.Score(item, author, now)

	// Scored from the candidate snapshot, but written back through a scoped
	// read-modify-write so engagement landing since the listing survives.
	if _, err := p.store.UpdateContentScore(ctx, item.ID, scoring.ThreatLevel(result.Score), now); err != nil {
		return false, false, fmt.Errorf("update content score: %w", err)
	}

	if !result.Threat {
		return false, false, nil
	}

	record, isNew, err := p.store.UpsertThreat(ctx, &models.ThreatRecord{
		ContentID: item.ID,
		Severity:  result.Severity,
		Score:     result.Score,
		Reasons:   result.Reasons,
	})
	if err != nil {
		return true, false, fmt.Errorf("upsert threat: %w", err)
	}

	if isNew {
		if _, err := p.store.IncrementCounter(ctx, store.CounterThreatsTotal, 1); err != nil {
			return true, true, fmt.Errorf("increment total counter: %w", err)
		}
		if _, err := p.store.IncrementCounter(ctx, store.CounterThreatsActive, 1); err != nil {
			return true, true, fmt.Errorf("increment active counter: %w", err)
		}
		metrics.RecordThreatDetected(string(record.Severity))
		metrics.ThreatsActive.Inc()

		if err := p.bus.Publish(ctx, events.TopicThreatDetected, events.ThreatDetected{
			ThreatID:  record.ID,
			ContentID: record.ContentID,
			Severity:  record.Severity,
			Score:     record.Score,
			Reasons:   record.Reasons,
			At:        now,
		}); err != nil {
			p.logger.Warn().Err(err).Str("threat_id", record.ID).Msg("threat detected publish failed")
		}

		p.logger.Info().
			Str("threat_id", record.ID).
			Str("content_id", record.ContentID).
			Str("severity", string(record.Severity)).
			Float64("score", record.Score).
			Msg("threat detected")
	}
	return true, isNew, nil
}
